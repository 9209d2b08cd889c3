package middleware

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/tryvocalcat/fediprofile/internal/observability"
)

// Observability records latency metrics and structured request logs for the
// federation ingress routes (inbox and shared inbox).
func Observability(logger zerolog.Logger) fiber.Handler {
	observability.RegisterMetrics()

	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		duration := time.Since(start)

		if !isFederationRoute(c) {
			return err
		}

		route := routeTemplate(c)
		status := c.Response().StatusCode()

		observability.InboxLatency().WithLabelValues(route).Observe(duration.Seconds())

		requestLogger := logger.With().
			Str("correlation_id", GetCorrelationID(c)).
			Str("route", route).
			Str("method", c.Method()).
			Int("status", status).
			Dur("latency", duration).
			Logger()

		switch {
		case status >= fiber.StatusInternalServerError:
			requestLogger.Error().Msg("inbox request failed")
		case status >= fiber.StatusBadRequest:
			requestLogger.Warn().Msg("inbox request rejected")
		default:
			requestLogger.Info().Msg("inbox request completed")
		}

		return err
	}
}

func isFederationRoute(c *fiber.Ctx) bool {
	path := c.Path()
	return strings.HasSuffix(path, "/inbox") || strings.EqualFold(path, "/sharedInbox")
}

func routeTemplate(c *fiber.Ctx) string {
	if c.Route() != nil && c.Route().Path != "" {
		return c.Route().Path
	}
	return c.Path()
}
