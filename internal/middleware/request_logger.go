package middleware

import (
	"strconv"
	"time"

	"bookstore/internal/observability"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("bookstore/http")

// Tracing continues an incoming W3C trace or starts a new one per request.
func Tracing() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			ctx := otel.GetTextMapPropagator().Extract(req.Context(), propagation.HeaderCarrier(req.Header))

			name := req.Method + " " + c.Path()
			ctx, span := tracer.Start(ctx, name)
			defer span.End()

			c.SetRequest(req.WithContext(ctx))
			err := next(c)
			if err != nil {
				span.RecordError(err)
			}
			span.SetAttributes(attribute.Int("http.status_code", c.Response().Status))
			return err
		}
	}
}

// RequestLogger writes one line per request. Run it inside Tracing so the
// trace id is available.
func RequestLogger(logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			fields := []zap.Field{
				zap.String("method", req.Method),
				zap.String("path", req.URL.Path),
				zap.Int("status", c.Response().Status),
				zap.Duration("latency", time.Since(start)),
				zap.String("trace_id", observability.TraceID(req.Context())),
			}
			if uid, ok := c.Get(CtxUserIDKey).(int64); ok {
				fields = append(fields, zap.String("user_id", strconv.FormatInt(uid, 10)))
			}

			switch status := c.Response().Status; {
			case status >= 500:
				logger.Error("request", append(fields, zap.Error(err))...)
			case status >= 400:
				logger.Warn("request", fields...)
			default:
				logger.Info("request", fields...)
			}
			return nil
		}
	}
}
