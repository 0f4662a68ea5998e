package redeem

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type Controller struct {
	useCase *UseCase
	log     *zap.Logger
	tracer  trace.Tracer
}

func NewController(useCase *UseCase, log *zap.Logger, tracer trace.Tracer) *Controller {
	return &Controller{useCase: useCase, log: log, tracer: tracer}
}

type redeemRequest struct {
	SessionID string `json:"session_id"`
}

func (ct *Controller) Redeem(c *fiber.Ctx) error {
	ctx, span := ct.tracer.Start(c.UserContext(), "Controller.Redeem",
		trace.WithSpanKind(trace.SpanKindServer),
	)
	defer span.End()

	var req redeemRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		span.SetStatus(codes.Error, "invalid json")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_json"})
	}
	if req.SessionID == "" {
		span.SetStatus(codes.Error, "session_id required")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "session_id_required"})
	}

	sess, err := ct.useCase.Redeem(ctx, req.SessionID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if errors.Is(err, ErrNotPaid) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "not_paid"})
		}
		ct.log.Error("failed to redeem session", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error"})
	}

	span.SetStatus(codes.Ok, "")
	return c.JSON(fiber.Map{
		"coins_granted": sess.Coins,
		"session_id":    req.SessionID,
	})
}
