// Command webhook-gen signs and posts a sample checkout notification to a
// running gateway, then redeems it. Local smoke tool.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"coin-gateway/internal/signature"
	"coin-gateway/internal/telemetry"
)

func gatewayAddr() string {
	if v := os.Getenv("GATEWAY_ADDR"); v != "" {
		return v
	}
	return "http://localhost:8080"
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log, _, _, shutdown, err := telemetry.Setup(ctx, "webhook-gen")
	if err != nil {
		panic("failed to initialize telemetry: " + err.Error())
	}
	defer shutdown(context.Background())

	secret := os.Getenv("STRIPE_WEBHOOK_SECRET")
	if secret == "" {
		log.Error("STRIPE_WEBHOOK_SECRET is required")
		os.Exit(1)
	}

	client := &http.Client{Timeout: 5 * time.Second}
	sessionID := "cs_sim_" + strings.ReplaceAll(uuid.NewString(), "-", "")

	body := fmt.Sprintf(
		`{"type":"checkout.session.completed","data":{"object":{"id":%q,"payment_status":"paid"}}}`,
		sessionID)
	ts := strconv.FormatInt(time.Now().Unix(), 10)
	sig := signature.Compute(ts, []byte(body), secret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, gatewayAddr()+"/webhook", strings.NewReader(body))
	if err != nil {
		log.Error("failed to build webhook request", zap.Error(err))
		os.Exit(1)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Stripe-Signature", fmt.Sprintf("t=%s,v1=%s", ts, sig))

	status, respBody := do(log, client, req)
	log.Info("webhook posted",
		zap.String("session_id", sessionID),
		zap.Int("status", status),
		zap.String("response", respBody),
	)
	if status != http.StatusOK {
		os.Exit(1)
	}

	redeemBody, _ := json.Marshal(map[string]string{"session_id": sessionID})
	req, err = http.NewRequestWithContext(ctx, http.MethodPost, gatewayAddr()+"/redeem", bytes.NewReader(redeemBody))
	if err != nil {
		log.Error("failed to build redeem request", zap.Error(err))
		os.Exit(1)
	}
	req.Header.Set("Content-Type", "application/json")

	status, respBody = do(log, client, req)
	log.Info("session redeemed",
		zap.String("session_id", sessionID),
		zap.Int("status", status),
		zap.String("response", respBody),
	)
	if status != http.StatusOK {
		os.Exit(1)
	}
}

func do(log *zap.Logger, client *http.Client, req *http.Request) (int, string) {
	resp, err := client.Do(req)
	if err != nil {
		log.Error("request failed", zap.Error(err))
		os.Exit(1)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(raw)
}
