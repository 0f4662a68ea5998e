// Package redeem exchanges a paid checkout session for its coin grant,
// exactly once.
package redeem

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"coin-gateway/internal/models"
	"coin-gateway/internal/store"
	"coin-gateway/internal/telemetry"
)

// ErrNotPaid covers unknown sessions, never-paid sessions and sessions already
// redeemed. Callers cannot distinguish these cases from the response.
var ErrNotPaid = errors.New("session not paid")

const redeemAttempts = 3

type Publisher interface {
	Publish(ctx context.Context, evt models.SessionEvent) error
}

type UseCase struct {
	store   store.Store
	events  Publisher
	metrics *telemetry.Metrics
	log     *zap.Logger
	tracer  trace.Tracer
}

func NewUseCase(st store.Store, events Publisher, metrics *telemetry.Metrics, log *zap.Logger, tracer trace.Tracer) *UseCase {
	return &UseCase{store: st, events: events, metrics: metrics, log: log, tracer: tracer}
}

// Redeem transitions a paid session to redeemed and returns the updated
// record. The conditional write guarantees a single winner when two calls
// race on the same session id.
func (uc *UseCase) Redeem(ctx context.Context, sessionID string) (*models.Session, error) {
	ctx, span := uc.tracer.Start(ctx, "Redeem",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("session.id", sessionID)),
	)
	defer span.End()

	for attempt := 0; attempt < redeemAttempts; attempt++ {
		sess, err := uc.store.Get(ctx, sessionID)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		if sess == nil || sess.Status != models.StatusPaid {
			uc.metrics.RedemptionsRejected.Add(ctx, 1)
			span.SetStatus(codes.Error, "not paid")
			return nil, ErrNotPaid
		}

		now := time.Now().UTC()
		updated := *sess
		updated.Status = models.StatusRedeemed
		updated.RedeemedAt = &now

		err = uc.store.Put(ctx, sessionID, updated)
		if err == nil {
			uc.metrics.RedemptionsGranted.Add(ctx, 1)
			uc.metrics.CoinsGranted.Add(ctx, int64(updated.Coins))
			uc.publish(ctx, sessionID, updated.Coins)
			span.SetAttributes(attribute.Int("session.coins", updated.Coins))
			span.SetStatus(codes.Ok, "")
			uc.log.Info("coins granted",
				zap.String("session_id", sessionID),
				zap.Int("coins", updated.Coins),
			)
			return &updated, nil
		}
		if !errors.Is(err, store.ErrConflict) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		// Lost the race; the next read observes the winner's write.
		uc.metrics.StoreConflicts.Add(ctx, 1)
	}

	err := fmt.Errorf("redeem session %s: %w", sessionID, store.ErrConflict)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return nil, err
}

func (uc *UseCase) publish(ctx context.Context, sessionID string, coins int) {
	if uc.events == nil {
		return
	}
	evt := models.SessionEvent{
		ID:        uuid.NewString(),
		Type:      models.SessionEventCoinsRedeemed,
		SessionID: sessionID,
		Coins:     coins,
		At:        time.Now().UTC(),
	}
	if err := uc.events.Publish(ctx, evt); err != nil {
		uc.log.Warn("failed to publish session event",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
	}
}
