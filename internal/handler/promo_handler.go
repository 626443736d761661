package handler

import (
	"net/http"

	"bookstore/internal/config"
	"bookstore/internal/middleware"
	"bookstore/internal/repository"
	"bookstore/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type PromoHandler struct {
	uc *usecase.PromoUsecase
}

func NewPromoHandler(uc *usecase.PromoUsecase) *PromoHandler {
	return &PromoHandler{uc: uc}
}

type PromoValidateRequest struct {
	PromoCode string          `json:"promoCode"`
	CartTotal decimal.Decimal `json:"cartTotal"`
}

func (h *PromoHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	g := e.Group("/api/promos")
	g.Use(middleware.AuthJWT(cfg))
	g.Use(middleware.TokenVersionGuard(userRepo))

	g.POST("/validate", h.validate)
}

// validate answers 200 for unknown or expired codes too; "valid" says which.
func (h *PromoHandler) validate(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req PromoValidateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if req.CartTotal.IsNegative() {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid cartTotal"})
	}

	out, err := h.uc.Validate(c.Request().Context(), req.PromoCode, userID, req.CartTotal)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
