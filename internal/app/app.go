// Package app assembles the gateway's HTTP surface.
package app

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"coin-gateway/internal/checkout"
	"coin-gateway/internal/redeem"
)

// New builds the fiber app. Extra middleware (otelfiber in the service binary)
// runs before the gateway's own middleware and routes.
func New(checkoutCtrl *checkout.Controller, redeemCtrl *redeem.Controller, middleware ...fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})

	for _, m := range middleware {
		app.Use(m)
	}
	app.Use(recover.New())
	// Every response carries the open CORS header, not just ones with an
	// Origin request header.
	app.Use(func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderAccessControlAllowOrigin, "*")
		return c.Next()
	})
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "POST, OPTIONS",
		AllowHeaders: "Content-Type, Stripe-Signature",
	}))

	// The cors middleware only answers preflights that carry an Origin
	// header; plain OPTIONS probes get the same 204.
	app.Options("/*", func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderAccessControlAllowMethods, "POST, OPTIONS")
		c.Set(fiber.HeaderAccessControlAllowHeaders, "content-type, stripe-signature")
		return c.SendStatus(fiber.StatusNoContent)
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Post("/webhook", checkoutCtrl.Webhook)
	app.Post("/redeem", redeemCtrl.Redeem)

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
	})

	return app
}
