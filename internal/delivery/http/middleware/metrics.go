package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"

	"vahire/internal/infrastructure/metrics"
)

// Metrics observes request latency labelled by the matched route pattern, not the raw path.
func Metrics() fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status, _, _ = normalizeError(err)
		}
		path := c.Route().Path
		if path == "" {
			path = "unmatched"
		}
		metrics.RecordHTTPRequestDuration(c.Method(), path, strconv.Itoa(status), time.Since(start))
		return err
	}
}
