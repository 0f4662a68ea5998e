// Package stripe is a thin typed client for the slice of the provider REST API
// this gateway consumes.
package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"coin-gateway/internal/models"
)

const DefaultAPIBase = "https://api.stripe.com/v1"

// ErrUpstream covers any non-2xx or undecodable provider response.
var ErrUpstream = errors.New("stripe api error")

type Client struct {
	baseURL   string
	secretKey string
	http      *http.Client
	tracer    trace.Tracer
}

func NewClient(baseURL, secretKey string) *Client {
	if baseURL == "" {
		baseURL = DefaultAPIBase
	}
	return &Client{
		baseURL:   baseURL,
		secretKey: secretKey,
		http:      &http.Client{Timeout: 5 * time.Second},
		tracer:    otel.Tracer("stripe/client"),
	}
}

type lineItemList struct {
	Data []models.LineItem `json:"data"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// SessionLineItems fetches the line items of a checkout session.
func (c *Client) SessionLineItems(ctx context.Context, sessionID string) ([]models.LineItem, error) {
	ctx, span := c.tracer.Start(ctx, "SessionLineItems",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("checkout.session_id", sessionID)),
	)
	defer span.End()

	url := fmt.Sprintf("%s/checkout/sessions/%s/line_items", c.baseURL, sessionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.http.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr apiError
		msg := "request failed"
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error.Message != "" {
			msg = apiErr.Error.Message
		}
		err := fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode, msg)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var list lineItemList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		err := fmt.Errorf("%w: decode line items: %v", ErrUpstream, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return list.Data, nil
}
