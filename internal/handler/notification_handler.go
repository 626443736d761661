package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"bookstore/internal/config"
	"bookstore/internal/domain/model"
	"bookstore/internal/middleware"
	"bookstore/internal/repository"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const heartbeatInterval = 25 * time.Second

// Subscriber streams the general channel merged with one user's channel.
type Subscriber interface {
	Subscribe(ctx context.Context, userID int64) (<-chan model.Notification, error)
}

type Announcer interface {
	Announce(ctx context.Context, title, message string, userID *int64) (model.Notification, bool)
}

type NotificationHandler struct {
	subs      Subscriber
	announcer Announcer
	logger    *zap.Logger
}

func NewNotificationHandler(subs Subscriber, announcer Announcer, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{subs: subs, announcer: announcer, logger: logger}
}

type AnnounceRequest struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	UserID  *int64 `json:"userId"`
}

type AnnounceResponse struct {
	Notification model.Notification `json:"notification"`
	Sent         bool               `json:"sent"`
}

func (h *NotificationHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	g := e.Group("/api/notifications")
	g.Use(middleware.AuthJWTStream(cfg))
	g.Use(middleware.TokenVersionGuard(userRepo))
	g.GET("/stream", h.stream)

	admin := e.Group("/api/admin/notifications")
	admin.Use(middleware.AuthJWT(cfg))
	admin.Use(middleware.TokenVersionGuard(userRepo))
	admin.Use(middleware.AdminRoleGuard())
	admin.POST("", h.announce)
}

// stream is a server-sent event feed. It ends when the client disconnects.
func (h *NotificationHandler) stream(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	ctx := c.Request().Context()
	ch, err := h.subs.Subscribe(ctx, userID)
	if err != nil {
		h.logger.Error("subscribe notifications", zap.Int64("user_id", userID), zap.Error(err))
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "notifications unavailable"})
	}

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.Header().Set("X-Accel-Buffering", "no")
	res.WriteHeader(http.StatusOK)
	res.Flush()

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := fmt.Fprint(res, ": ping\n\n"); err != nil {
				return nil
			}
			res.Flush()
		case n, ok := <-ch:
			if !ok {
				return nil
			}
			if err := writeEvent(res, n); err != nil {
				h.logger.Debug("write notification event", zap.Int64("user_id", userID), zap.Error(err))
				return nil
			}
			res.Flush()
		}
	}
}

func writeEvent(w *echo.Response, n model.Notification) error {
	b, err := json.Marshal(n)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", n.ID, strings.ToLower(string(n.Type)), b)
	return err
}

func (h *NotificationHandler) announce(c echo.Context) error {
	var req AnnounceRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Message) == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "title and message are required"})
	}

	n, sent := h.announcer.Announce(c.Request().Context(), req.Title, req.Message, req.UserID)
	status := http.StatusAccepted
	if !sent {
		status = http.StatusOK
	}
	return c.JSON(status, AnnounceResponse{Notification: n, Sent: sent})
}
