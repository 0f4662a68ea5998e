package telemetry

import (
	"go.opentelemetry.io/otel/metric"
)

type Metrics struct {
	WebhooksReceived    metric.Int64Counter
	WebhooksRejected    metric.Int64Counter
	PaymentsRecorded    metric.Int64Counter
	RedemptionsGranted  metric.Int64Counter
	RedemptionsRejected metric.Int64Counter
	StoreConflicts      metric.Int64Counter
	CoinsGranted        metric.Int64Counter
	EventsConsumed      metric.Int64Counter
	LineItemsDuration   metric.Float64Histogram
}

func NewMetrics(meter metric.Meter) (*Metrics, error) {
	received, err := meter.Int64Counter("webhooks_received_total",
		metric.WithDescription("Total webhook notifications received"),
		metric.WithUnit("{notification}"),
	)
	if err != nil {
		return nil, err
	}

	rejected, err := meter.Int64Counter("webhooks_rejected_total",
		metric.WithDescription("Total webhook notifications rejected"),
		metric.WithUnit("{notification}"),
	)
	if err != nil {
		return nil, err
	}

	recorded, err := meter.Int64Counter("payments_recorded_total",
		metric.WithDescription("Total paid sessions recorded"),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		return nil, err
	}

	granted, err := meter.Int64Counter("redemptions_granted_total",
		metric.WithDescription("Total successful redemptions"),
		metric.WithUnit("{redemption}"),
	)
	if err != nil {
		return nil, err
	}

	redemptionsRejected, err := meter.Int64Counter("redemptions_rejected_total",
		metric.WithDescription("Total redemptions rejected as not paid"),
		metric.WithUnit("{redemption}"),
	)
	if err != nil {
		return nil, err
	}

	conflicts, err := meter.Int64Counter("store_conflicts_total",
		metric.WithDescription("Total conditional-write conflicts on the session store"),
		metric.WithUnit("{conflict}"),
	)
	if err != nil {
		return nil, err
	}

	coins, err := meter.Int64Counter("coins_granted_total",
		metric.WithDescription("Total coins granted through redemptions"),
		metric.WithUnit("{coin}"),
	)
	if err != nil {
		return nil, err
	}

	consumed, err := meter.Int64Counter("session_events_consumed_total",
		metric.WithDescription("Total session events consumed from Kafka"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, err
	}

	lineItems, err := meter.Float64Histogram("stripe_line_items_duration_seconds",
		metric.WithDescription("Duration of provider line-items lookups"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.05, 0.1, 0.2, 0.5, 1.0, 2.0, 5.0),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		WebhooksReceived:    received,
		WebhooksRejected:    rejected,
		PaymentsRecorded:    recorded,
		RedemptionsGranted:  granted,
		RedemptionsRejected: redemptionsRejected,
		StoreConflicts:      conflicts,
		CoinsGranted:        coins,
		EventsConsumed:      consumed,
		LineItemsDuration:   lineItems,
	}, nil
}
