package checkout

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"coin-gateway/internal/signature"
	"coin-gateway/internal/stripe"
)

type Controller struct {
	useCase *UseCase
	log     *zap.Logger
	tracer  trace.Tracer
}

func NewController(useCase *UseCase, log *zap.Logger, tracer trace.Tracer) *Controller {
	return &Controller{useCase: useCase, log: log, tracer: tracer}
}

func (ct *Controller) Webhook(c *fiber.Ctx) error {
	ctx, span := ct.tracer.Start(c.UserContext(), "Controller.Webhook",
		trace.WithSpanKind(trace.SpanKindServer),
	)
	defer span.End()

	err := ct.useCase.ProcessNotification(ctx, c.Body(), c.Get("Stripe-Signature"))
	if err == nil {
		span.SetStatus(codes.Ok, "")
		return c.JSON(fiber.Map{"received": true})
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	switch {
	case errors.Is(err, ErrNoWebhookSecret):
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "config_error"})
	case errors.Is(err, signature.ErrMissingSignature), errors.Is(err, signature.ErrInvalidSignature):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_signature"})
	case errors.Is(err, ErrInvalidPayload):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload"})
	case errors.Is(err, ErrPriceNotMatched):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "price_not_matched"})
	case errors.Is(err, stripe.ErrUpstream):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "upstream_error"})
	default:
		ct.log.Error("failed to process notification", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error"})
	}
}
