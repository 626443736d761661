package handler

import (
	"net/http"

	"bookstore/internal/config"
	"bookstore/internal/middleware"
	"bookstore/internal/repository"
	"bookstore/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /api/admin/settings
type AdminSettingsHandler struct {
	uc *usecase.SettingsUsecase
}

func NewAdminSettingsHandler(uc *usecase.SettingsUsecase) *AdminSettingsHandler {
	return &AdminSettingsHandler{uc: uc}
}

type SettingValueRequest struct {
	Value string `json:"value"`
}

type SettingResponse struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func (h *AdminSettingsHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	admin := e.Group("/api/admin/settings")
	admin.Use(middleware.AuthJWT(cfg))
	admin.Use(middleware.TokenVersionGuard(userRepo))
	admin.Use(middleware.AdminRoleGuard())

	admin.GET("", h.getAll)
	admin.POST("", h.merge)
	admin.POST("/reset", h.reset)
	admin.GET("/:key", h.get)
	admin.PUT("/:key", h.put)
	admin.DELETE("/:key", h.delete)
}

func (h *AdminSettingsHandler) getAll(c echo.Context) error {
	out, err := h.uc.GetAll(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminSettingsHandler) merge(c echo.Context) error {
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req map[string]string
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.Merge(c.Request().Context(), adminID, req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminSettingsHandler) get(c echo.Context) error {
	key := c.Param("key")
	v, err := h.uc.Get(c.Request().Context(), key)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SettingResponse{Key: key, Value: v})
}

func (h *AdminSettingsHandler) put(c echo.Context) error {
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req SettingValueRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	key := c.Param("key")
	v, err := h.uc.Put(c.Request().Context(), adminID, key, req.Value)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SettingResponse{Key: key, Value: v})
}

func (h *AdminSettingsHandler) delete(c echo.Context) error {
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	if err := h.uc.Delete(c.Request().Context(), adminID, c.Param("key")); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "deleted"})
}

func (h *AdminSettingsHandler) reset(c echo.Context) error {
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	out, err := h.uc.Reset(c.Request().Context(), adminID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
