package handler

import (
	"net/http"
	"strconv"
	"strings"

	"bookstore/internal/config"
	"bookstore/internal/domain/model"
	"bookstore/internal/middleware"
	"bookstore/internal/repository"
	"bookstore/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type OrderHandler struct {
	uc       *usecase.OrderUsecase
	checkout *usecase.PaymentUsecase
}

func NewOrderHandler(uc *usecase.OrderUsecase, checkout *usecase.PaymentUsecase) *OrderHandler {
	return &OrderHandler{uc: uc, checkout: checkout}
}

type OrderCreateRequest struct {
	ShippingAddress string           `json:"shippingAddress"`
	PaymentMethod   string           `json:"paymentMethod"`
	TotalAmount     *decimal.Decimal `json:"totalAmount"`
	PromoCode       string           `json:"promoCode"`
	PaymentIntentID string           `json:"paymentIntentId"`
}

type CancelOrderRequest struct {
	Reason string `json:"reason"`
}

func (h *OrderHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	g := e.Group("/api/orders")
	g.Use(middleware.AuthJWT(cfg))
	g.Use(middleware.TokenVersionGuard(userRepo))

	g.POST("", h.create)
	g.GET("", h.list)
	g.GET("/:id", h.detail)
	g.POST("/:id/cancel", h.cancel)
	g.GET("/:id/invoice", h.invoice)
}

// create places an order from the cart. Card orders must carry a
// succeeded payment intent.
func (h *OrderHandler) create(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req OrderCreateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	orderReq := usecase.OrderRequest{
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		TotalAmount:     req.TotalAmount,
		PromoCode:       req.PromoCode,
	}

	var (
		out usecase.OrderOutput
		err error
	)
	switch model.PaymentMethod(strings.ToUpper(strings.TrimSpace(req.PaymentMethod))) {
	case model.PaymentMethodCOD, "":
		out, err = h.checkout.CheckoutCOD(c.Request().Context(), userID, orderReq)
	case model.PaymentMethodCard:
		if strings.TrimSpace(req.PaymentIntentID) == "" {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "paymentIntentId is required for card orders"})
		}
		out, err = h.checkout.ConfirmAndFinalize(c.Request().Context(), userID, req.PaymentIntentID, orderReq)
	default:
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid payment method"})
	}
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, out)
}

func (h *OrderHandler) list(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var cursor int64
	if v := c.QueryParam("cursor"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid cursor"})
		}
		cursor = n
	}

	size, ok := queryInt(c, "size", 0)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid size"})
	}

	out, err := h.uc.ListMyOrders(c.Request().Context(), userID, cursor, size)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) detail(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	out, err := h.uc.GetMyOrder(c.Request().Context(), userID, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) cancel(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	//bodyは無くてもよい
	var req CancelOrderRequest
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
		}
	}

	out, err := h.uc.CancelOwnOrder(c.Request().Context(), userID, id, req.Reason)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) invoice(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	doc, err := h.uc.Invoice(c.Request().Context(), userID, id)
	if err != nil {
		return writeError(c, err)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+doc.Filename+`"`)
	return c.Blob(http.StatusOK, doc.ContentType, doc.Body)
}
