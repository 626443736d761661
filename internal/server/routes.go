package server

import (
	"net/http"

	"bookstore/internal/config"
	"bookstore/internal/handler"
	"bookstore/internal/repository"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers groups everything mounted under /api.
type Handlers struct {
	Books         *handler.BookHandler
	Cart          *handler.CartHandler
	Orders        *handler.OrderHandler
	AdminOrders   *handler.AdminOrderHandler
	Payment       *handler.PaymentHandler
	Promos        *handler.PromoHandler
	AdminSettings *handler.AdminSettingsHandler
	Notifications *handler.NotificationHandler
}

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(c echo.Context) error

func RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository, h Handlers, health HealthCheck) {
	e.GET("/healthz", func(c echo.Context) error {
		if health != nil {
			if err := health(c); err != nil {
				return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			}
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	h.Books.RegisterRoutes(e)
	h.Cart.RegisterRoutes(e, cfg, userRepo)
	h.Orders.RegisterRoutes(e, cfg, userRepo)
	h.AdminOrders.RegisterRoutes(e, cfg, userRepo)
	h.Payment.RegisterRoutes(e, cfg, userRepo)
	h.Promos.RegisterRoutes(e, cfg, userRepo)
	h.AdminSettings.RegisterRoutes(e, cfg, userRepo)
	h.Notifications.RegisterRoutes(e, cfg, userRepo)
}
