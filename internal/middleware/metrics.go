package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
)

// NewMetricsMiddleware records latency per matched route template.
func (m *middleware) NewMetricsMiddleware(c *fiber.Ctx) error {
	start := time.Now()

	err := c.Next()

	route := c.Route().Path
	if route == "" {
		route = "unmatched"
	}
	m.metrics.RecordHTTPRequest(route, c.Method(), strconv.Itoa(c.Response().StatusCode()), time.Since(start).Seconds())

	return err
}
