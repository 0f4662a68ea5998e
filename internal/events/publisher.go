// Package events publishes and consumes session audit events over Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/segmentio/kafka-go"

	"coin-gateway/internal/models"
)

type Publisher struct {
	writer *kafka.Writer
	topic  string
	tracer trace.Tracer
}

func NewPublisher(brokers []string, topic string) *Publisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		WriteTimeout: 10 * time.Second,
		ReadTimeout:  10 * time.Second,
		RequiredAcks: kafka.RequireOne,
	}

	return &Publisher{
		writer: writer,
		topic:  topic,
		tracer: otel.Tracer("events/publisher"),
	}
}

// Publish writes a session event keyed by session id, so events for one
// session land on one partition in order.
func (p *Publisher) Publish(ctx context.Context, evt models.SessionEvent) error {
	ctx, span := p.tracer.Start(ctx, fmt.Sprintf("publish %s", p.topic),
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			semconv.MessagingSystemKafka,
			semconv.MessagingDestinationName(p.topic),
			attribute.String("session.id", evt.SessionID),
			attribute.String("session.event", evt.Type),
		),
	)
	defer span.End()

	data, err := json.Marshal(evt)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to serialize event: %w", err)
	}

	headers := make([]kafka.Header, 0)
	otel.GetTextMapPropagator().Inject(ctx, &headerCarrier{headers: &headers})

	msg := kafka.Message{
		Key:     []byte(evt.SessionID),
		Value:   data,
		Time:    time.Now(),
		Headers: headers,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to publish event: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// EnsureTopic creates the event topic if the broker does not have it yet.
func EnsureTopic(ctx context.Context, broker, topic string, partitions, replication int) error {
	conn, err := kafka.DialContext(ctx, "tcp", broker)
	if err != nil {
		return fmt.Errorf("failed to connect to broker: %w", err)
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return fmt.Errorf("failed to get controller: %w", err)
	}

	controllerConn, err := kafka.DialContext(ctx, "tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	if err != nil {
		return fmt.Errorf("failed to connect to controller: %w", err)
	}
	defer controllerConn.Close()

	err = controllerConn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     partitions,
		ReplicationFactor: replication,
	})
	if err != nil {
		return fmt.Errorf("failed to create topic: %w", err)
	}

	return nil
}

type headerCarrier struct {
	headers *[]kafka.Header
}

func (c *headerCarrier) Get(key string) string {
	for _, h := range *c.headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func (c *headerCarrier) Set(key, value string) {
	*c.headers = append(*c.headers, kafka.Header{Key: key, Value: []byte(value)})
}

func (c *headerCarrier) Keys() []string {
	keys := make([]string, len(*c.headers))
	for i, h := range *c.headers {
		keys[i] = h.Key
	}
	return keys
}

func init() {
	otel.SetTextMapPropagator(propagation.TraceContext{})
}
