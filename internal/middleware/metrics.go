package middleware

import (
	"strconv"
	"time"

	"bookstore/internal/observability"

	"github.com/labstack/echo/v4"
)

// Metrics records request counts and latency by route pattern.
func Metrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			endpoint := c.Path()
			if endpoint == "" {
				endpoint = "unmatched"
			}
			method := c.Request().Method
			observability.HTTPRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(c.Response().Status)).Inc()
			observability.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(time.Since(start).Seconds())
			return nil
		}
	}
}
