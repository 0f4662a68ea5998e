package redeem_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	metricnoop "go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"coin-gateway/internal/models"
	"coin-gateway/internal/redeem"
	"coin-gateway/internal/store"
	"coin-gateway/internal/telemetry"
)

type capturingPublisher struct {
	mu     sync.Mutex
	events []models.SessionEvent
}

func (p *capturingPublisher) Publish(ctx context.Context, evt models.SessionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return nil
}

func newUseCase(t *testing.T, st store.Store, pub redeem.Publisher) *redeem.UseCase {
	t.Helper()
	metrics, err := telemetry.NewMetrics(metricnoop.NewMeterProvider().Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics() error = %v", err)
	}
	tracer := tracenoop.NewTracerProvider().Tracer("test")
	return redeem.NewUseCase(st, pub, metrics, zap.NewNop(), tracer)
}

func seedPaid(t *testing.T, st store.Store, sessionID string, coins int) {
	t.Helper()
	err := st.Put(context.Background(), sessionID, models.Session{
		Status: models.StatusPaid,
		Coins:  coins,
		PaidAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("seed Put() error = %v", err)
	}
}

func TestRedeemOnce(t *testing.T) {
	st := store.NewMemory()
	seedPaid(t, st, "cs_123", 5)
	pub := &capturingPublisher{}
	uc := newUseCase(t, st, pub)

	sess, err := uc.Redeem(context.Background(), "cs_123")
	if err != nil {
		t.Fatalf("Redeem() error = %v", err)
	}
	if sess.Coins != 5 {
		t.Errorf("coins = %d, want 5", sess.Coins)
	}
	if sess.Status != models.StatusRedeemed || sess.RedeemedAt == nil {
		t.Fatalf("session = %+v", sess)
	}

	stored, _ := st.Get(context.Background(), "cs_123")
	if stored == nil || stored.Status != models.StatusRedeemed {
		t.Fatalf("stored = %+v, want redeemed", stored)
	}
	if stored.Coins != 5 {
		t.Errorf("stored coins = %d, want 5 preserved", stored.Coins)
	}

	if len(pub.events) != 1 || pub.events[0].Type != models.SessionEventCoinsRedeemed {
		t.Fatalf("events = %+v", pub.events)
	}
}

func TestRedeemTwiceSecondNotPaid(t *testing.T) {
	st := store.NewMemory()
	seedPaid(t, st, "cs_123", 5)
	uc := newUseCase(t, st, nil)

	if _, err := uc.Redeem(context.Background(), "cs_123"); err != nil {
		t.Fatalf("first Redeem() error = %v", err)
	}
	_, err := uc.Redeem(context.Background(), "cs_123")
	if !errors.Is(err, redeem.ErrNotPaid) {
		t.Fatalf("second Redeem() error = %v, want ErrNotPaid", err)
	}
}

func TestRedeemUnknownSession(t *testing.T) {
	uc := newUseCase(t, store.NewMemory(), nil)
	_, err := uc.Redeem(context.Background(), "cs_missing")
	if !errors.Is(err, redeem.ErrNotPaid) {
		t.Fatalf("Redeem() error = %v, want ErrNotPaid", err)
	}
}

func TestRedeemAlreadyRedeemedSession(t *testing.T) {
	st := store.NewMemory()
	now := time.Now().UTC()
	err := st.Put(context.Background(), "cs_123", models.Session{
		Status:     models.StatusRedeemed,
		Coins:      5,
		PaidAt:     now.Add(-time.Minute),
		RedeemedAt: &now,
	})
	if err != nil {
		t.Fatal(err)
	}

	uc := newUseCase(t, st, nil)
	_, err = uc.Redeem(context.Background(), "cs_123")
	if !errors.Is(err, redeem.ErrNotPaid) {
		t.Fatalf("Redeem() error = %v, want ErrNotPaid", err)
	}
}

// Concurrent redemptions of the same session must grant exactly once.
func TestRedeemConcurrentSingleGrant(t *testing.T) {
	st := store.NewMemory()
	seedPaid(t, st, "cs_race", 5)
	pub := &capturingPublisher{}
	uc := newUseCase(t, st, pub)

	const callers = 16
	var wg sync.WaitGroup
	var mu sync.Mutex
	granted, notPaid := 0, 0

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := uc.Redeem(context.Background(), "cs_race")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				granted++
			case errors.Is(err, redeem.ErrNotPaid):
				notPaid++
			default:
				t.Errorf("Redeem() error = %v", err)
			}
		}()
	}
	wg.Wait()

	if granted != 1 {
		t.Fatalf("granted = %d, want exactly 1", granted)
	}
	if notPaid != callers-1 {
		t.Fatalf("notPaid = %d, want %d", notPaid, callers-1)
	}
	if len(pub.events) != 1 {
		t.Fatalf("events = %d, want 1", len(pub.events))
	}
}
