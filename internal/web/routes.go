package web

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

// NewApp builds the fiber app with middleware and routes.
func NewApp(handler *Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "Health Condition Predictor",
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	app.Use(requestLogger(handler.logger))
	RegisterRoutes(app, handler)
	return app
}

// RegisterRoutes mounts the page, health and metrics endpoints.
func RegisterRoutes(app *fiber.App, handler *Handler) {
	app.Get("/healthz", handler.Health)
	app.Get("/favicon.ico", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })
	app.Get("/", handler.ShowForm)
	app.Post("/predict", handler.Predict)
	app.Get("/predict", func(c *fiber.Ctx) error { return c.Redirect("/", fiber.StatusSeeOther) })
	if handler.metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(handler.metrics))
	}
}

func requestLogger(logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		logger.Debug("request",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("elapsed", time.Since(start)))
		return err
	}
}
