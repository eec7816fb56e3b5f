package httpapi

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/JeyllonSandoval/agritech-backend-sub000/internal/apperr"
	"github.com/JeyllonSandoval/agritech-backend-sub000/internal/metrics"
)

const serviceName = "agritech-backend"

// NewApp builds the Fiber app with middleware, health, metrics and API routes.
func NewApp(deps Deps) *fiber.App {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	app := fiber.New(fiber.Config{
		AppName:               serviceName,
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		// Report files go through headless Chrome and an upload.
		WriteTimeout: 90 * time.Second,
		ErrorHandler: errorHandler(logger),
	})

	app.Use(observe(logger))
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		status, code := "ok", fiber.StatusOK
		if deps.Health != nil {
			ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
			defer cancel()
			if err := deps.Health(ctx); err != nil {
				logger.Warn("[HTTP] health check failed", zap.Error(err))
				status, code = "degraded", fiber.StatusServiceUnavailable
			}
		}
		return c.Status(code).JSON(fiber.Map{
			"status":  status,
			"service": serviceName,
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	RegisterRoutes(app, deps)
	return app
}

// errorHandler renders every error as {error, type, message}.
func errorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		kind := string(apperr.KindInternal)
		msg := "internal server error"

		var ae *apperr.Error
		var fe *fiber.Error
		switch {
		case errors.As(err, &ae):
			code = apperr.HTTPStatus(ae)
			kind = string(ae.Kind)
			msg = ae.Message
		case errors.As(err, &fe):
			code = fe.Code
			kind = "http"
			msg = fe.Message
		}

		if code >= fiber.StatusInternalServerError {
			logger.Error("[HTTP] request failed",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Int("status", code),
				zap.Error(err),
			)
		}

		return c.Status(code).JSON(fiber.Map{
			"error":   true,
			"type":    kind,
			"message": msg,
		})
	}
}

// observe logs and measures every request. Errors are rendered here so the
// recorded status matches the response.
func observe(logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		if chainErr := c.Next(); chainErr != nil {
			if err := c.App().Config().ErrorHandler(c, chainErr); err != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		elapsed := time.Since(start)
		status := c.Response().StatusCode()
		path := c.Route().Path

		metrics.HTTPRequests.WithLabelValues(c.Method(), path, strconv.Itoa(status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(c.Method(), path).Observe(elapsed.Seconds())

		logger.Info("[HTTP] request",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Duration("duration", elapsed),
		)
		return nil
	}
}
