package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"coin-gateway/internal/config"
	"coin-gateway/internal/events"
	"coin-gateway/internal/models"
	"coin-gateway/internal/telemetry"
)

const groupID = "session-audit"

var (
	log     *zap.Logger
	metrics *telemetry.Metrics
	tracer  trace.Tracer
)

func brokerAddr(cfg *config.Config) string {
	if cfg.Kafka.Broker != "" {
		return cfg.Kafka.Broker
	}
	return "localhost:9092"
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		meter    metric.Meter
		shutdown func(context.Context)
		err      error
	)

	log, tracer, meter, shutdown, err = telemetry.Setup(ctx, "session-audit")
	if err != nil {
		panic("failed to initialize telemetry: " + err.Error())
	}
	defer shutdown(context.Background())

	metrics, err = telemetry.NewMetrics(meter)
	if err != nil {
		panic("failed to create metrics: " + err.Error())
	}

	configPath := ""
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Error("failed to load config", zap.Error(err))
		os.Exit(1)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("shutting down session-audit...")
		cancel()
	}()

	consumer := events.NewConsumer([]string{brokerAddr(cfg)}, cfg.Kafka.Topic, groupID)
	defer consumer.Close()

	log.Info("session-audit started",
		zap.String("broker", brokerAddr(cfg)),
		zap.String("topic", cfg.Kafka.Topic),
	)

	if err := consumer.Listen(ctx, processEvent); err != nil {
		log.Error("consumer error", zap.Error(err))
	}
}

func processEvent(ctx context.Context, key, value []byte) error {
	ctx, span := tracer.Start(ctx, "ProcessSessionEvent",
		trace.WithSpanKind(trace.SpanKindConsumer),
	)
	defer span.End()

	var evt models.SessionEvent
	if err := json.Unmarshal(value, &evt); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to unmarshal session event")
		return err
	}

	span.SetAttributes(
		attribute.String("session.id", evt.SessionID),
		attribute.String("session.event", evt.Type),
		attribute.Int("session.coins", evt.Coins),
	)

	metrics.EventsConsumed.Add(ctx, 1, metric.WithAttributes(attribute.String("type", evt.Type)))
	span.SetStatus(codes.Ok, "")

	log.Info("session event",
		zap.String("event_id", evt.ID),
		zap.String("type", evt.Type),
		zap.String("session_id", evt.SessionID),
		zap.Int("coins", evt.Coins),
		zap.Time("at", evt.At),
	)

	return nil
}
