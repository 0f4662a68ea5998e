// Package checkout processes inbound payment-provider notifications and
// records paid sessions.
package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"coin-gateway/internal/models"
	"coin-gateway/internal/signature"
	"coin-gateway/internal/store"
	"coin-gateway/internal/telemetry"
)

var (
	ErrNoWebhookSecret = errors.New("webhook secret missing")
	ErrInvalidPayload  = errors.New("invalid payload")
	ErrPriceNotMatched = errors.New("price not matched")
)

// putAttempts bounds the read-then-conditional-write loop. A conflict means a
// concurrent writer moved the record; re-reading resolves it.
const putAttempts = 3

type LineItemsClient interface {
	SessionLineItems(ctx context.Context, sessionID string) ([]models.LineItem, error)
}

type Publisher interface {
	Publish(ctx context.Context, evt models.SessionEvent) error
}

type Config struct {
	WebhookSecret string
	DefaultCoins  int
	// PriceID, when set, requires at least one line item with a matching
	// price before the payment is recorded.
	PriceID string
}

type UseCase struct {
	cfg     Config
	store   store.Store
	stripe  LineItemsClient
	events  Publisher
	metrics *telemetry.Metrics
	log     *zap.Logger
	tracer  trace.Tracer
}

func NewUseCase(cfg Config, st store.Store, stripe LineItemsClient, events Publisher, metrics *telemetry.Metrics, log *zap.Logger, tracer trace.Tracer) *UseCase {
	return &UseCase{cfg: cfg, store: st, stripe: stripe, events: events, metrics: metrics, log: log, tracer: tracer}
}

// ProcessNotification verifies and applies one webhook delivery. Replays are
// safe: an already-recorded or already-redeemed session is acknowledged
// without a state change.
func (uc *UseCase) ProcessNotification(ctx context.Context, body []byte, sigHeader string) error {
	ctx, span := uc.tracer.Start(ctx, "ProcessNotification",
		trace.WithSpanKind(trace.SpanKindInternal),
	)
	defer span.End()

	uc.metrics.WebhooksReceived.Add(ctx, 1)

	if uc.cfg.WebhookSecret == "" {
		span.SetStatus(codes.Error, "webhook secret missing")
		return ErrNoWebhookSecret
	}

	// Verification runs on the exact bytes received, before JSON parsing.
	if err := signature.Verify(body, sigHeader, uc.cfg.WebhookSecret); err != nil {
		uc.reject(ctx, span, "invalid_signature")
		return err
	}

	var event models.CheckoutEvent
	if err := json.Unmarshal(body, &event); err != nil {
		uc.reject(ctx, span, "invalid_payload")
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	if event.Type != models.EventTypeCheckoutCompleted {
		span.SetAttributes(attribute.String("event.type", event.Type))
		span.SetStatus(codes.Ok, "")
		return nil
	}

	session := event.Data.Object
	if session.ID == "" {
		uc.reject(ctx, span, "invalid_payload")
		return fmt.Errorf("%w: missing session id", ErrInvalidPayload)
	}
	span.SetAttributes(
		attribute.String("checkout.session_id", session.ID),
		attribute.String("checkout.payment_status", session.PaymentStatus),
	)

	if session.PaymentStatus != "paid" {
		span.SetStatus(codes.Ok, "")
		return nil
	}

	// Coin quantity is the configured default in both branches; the price
	// check only gates whether the record is written.
	record := models.Session{
		Status: models.StatusPaid,
		Coins:  uc.cfg.DefaultCoins,
		PaidAt: time.Now().UTC(),
	}

	priceChecked := false
	for attempt := 0; attempt < putAttempts; attempt++ {
		existing, err := uc.store.Get(ctx, session.ID)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return err
		}
		if existing != nil {
			if existing.Status == models.StatusRedeemed {
				// Replay of a consumed notification: acknowledge without
				// calling the provider, never resurrect a redeemed record.
				span.SetStatus(codes.Ok, "")
				uc.log.Info("notification replay on redeemed session ignored",
					zap.String("session_id", session.ID),
				)
				return nil
			}
			record.Version = existing.Version
		} else {
			record.Version = 0
		}

		// Line-item enforcement runs after the redeemed-replay check so a
		// consumed session never triggers a provider call, and at most once
		// across conflict retries.
		if !priceChecked && uc.cfg.PriceID != "" && uc.stripe != nil {
			if err := uc.checkPrice(ctx, session.ID); err != nil {
				if errors.Is(err, ErrPriceNotMatched) {
					uc.reject(ctx, span, "price_not_matched")
				} else {
					span.RecordError(err)
					span.SetStatus(codes.Error, err.Error())
				}
				return err
			}
			priceChecked = true
		}

		err = uc.store.Put(ctx, session.ID, record)
		if err == nil {
			uc.metrics.PaymentsRecorded.Add(ctx, 1)
			uc.publish(ctx, models.SessionEventPaymentRecorded, session.ID, record.Coins)
			span.SetStatus(codes.Ok, "")
			uc.log.Info("payment recorded",
				zap.String("session_id", session.ID),
				zap.Int("coins", record.Coins),
			)
			return nil
		}
		if !errors.Is(err, store.ErrConflict) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return err
		}
		uc.metrics.StoreConflicts.Add(ctx, 1)
	}

	err := fmt.Errorf("record session %s: %w", session.ID, store.ErrConflict)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func (uc *UseCase) checkPrice(ctx context.Context, sessionID string) error {
	start := time.Now()
	items, err := uc.stripe.SessionLineItems(ctx, sessionID)
	uc.metrics.LineItemsDuration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		return err
	}
	for _, item := range items {
		if item.Price.ID == uc.cfg.PriceID {
			return nil
		}
	}
	return fmt.Errorf("%w: no line item with price %s", ErrPriceNotMatched, uc.cfg.PriceID)
}

func (uc *UseCase) publish(ctx context.Context, eventType, sessionID string, coins int) {
	if uc.events == nil {
		return
	}
	evt := models.SessionEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		SessionID: sessionID,
		Coins:     coins,
		At:        time.Now().UTC(),
	}
	// Audit events never fail the request.
	if err := uc.events.Publish(ctx, evt); err != nil {
		uc.log.Warn("failed to publish session event",
			zap.String("session_id", sessionID),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}

func (uc *UseCase) reject(ctx context.Context, span trace.Span, reason string) {
	uc.metrics.WebhooksRejected.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
	span.SetStatus(codes.Error, reason)
}
