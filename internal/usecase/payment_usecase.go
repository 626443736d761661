package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"bookstore/internal/domain/model"
	"bookstore/internal/observability"
	repo "bookstore/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	minChargeMinor      = 30
	intentStatusSuccess = "succeeded"
)

// PaymentUsecase runs checkout: card payments confirmed with the processor
// and cash on delivery.
type PaymentUsecase struct {
	processor PaymentProcessor
	payments  repo.PaymentRepository
	cart      *CartUsecase
	promos    *PromoUsecase
	orders    *OrderUsecase
	notifier  OrderNotifier
	currency  string
	logger    *zap.Logger
}

func NewPaymentUsecase(
	processor PaymentProcessor,
	payments repo.PaymentRepository,
	cart *CartUsecase,
	promos *PromoUsecase,
	orders *OrderUsecase,
	notifier OrderNotifier,
	currency string,
	logger *zap.Logger,
) *PaymentUsecase {
	if currency == "" {
		currency = "gbp"
	}
	return &PaymentUsecase{
		processor: processor,
		payments:  payments,
		cart:      cart,
		promos:    promos,
		orders:    orders,
		notifier:  notifier,
		currency:  strings.ToLower(currency),
		logger:    logger,
	}
}

type IntentOutput struct {
	ClientSecret string          `json:"clientSecret"`
	IntentID     string          `json:"paymentIntentId"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
}

// OrderRequest is what the checkout page submits with the payment.
type OrderRequest struct {
	ShippingAddress string           `json:"shippingAddress"`
	PaymentMethod   string           `json:"paymentMethod"`
	TotalAmount     *decimal.Decimal `json:"totalAmount"`
	PromoCode       string           `json:"promoCode"`
}

// CreateIntent opens a card payment for the live cart total.
func (u *PaymentUsecase) CreateIntent(ctx context.Context, userID int64) (IntentOutput, error) {
	if userID <= 0 {
		return IntentOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	total, err := u.cart.Total(ctx, userID)
	if err != nil {
		return IntentOutput{}, err
	}
	if !total.IsPositive() {
		return IntentOutput{}, NewHTTPError(http.StatusBadRequest, "Cannot create a payment for an empty or zero-total cart.")
	}

	minor := total.Mul(decimal.NewFromInt(100)).IntPart()
	if minor < minChargeMinor {
		return IntentOutput{}, NewHTTPError(http.StatusBadRequest, "Minimum charge is £0.30")
	}

	intent, err := u.processor.CreateIntent(ctx, IntentRequest{
		AmountMinor: minor,
		Currency:    u.currency,
		Metadata:    map[string]string{"user_id": strconv.FormatInt(userID, 10)},
	})
	if err != nil {
		u.logger.Error("create payment intent", zap.Int64("user_id", userID), zap.Error(err))
		return IntentOutput{}, NewHTTPError(http.StatusBadGateway, "Payment provider error")
	}

	u.logger.Info("payment intent created",
		zap.Int64("user_id", userID),
		zap.String("intent_id", intent.ID),
		zap.Int64("amount_minor", minor),
	)
	return IntentOutput{
		ClientSecret: intent.ClientSecret,
		IntentID:     intent.ID,
		Amount:       decimal.New(minor, -2),
		Currency:     u.currency,
	}, nil
}

// ConfirmAndFinalize turns a succeeded intent into an order. The payment
// row and the promo redemption commit together with the order.
func (u *PaymentUsecase) ConfirmAndFinalize(ctx context.Context, userID int64, intentID string, req OrderRequest) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	intentID = strings.TrimSpace(intentID)
	if intentID == "" {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "paymentIntentId is required")
	}

	intent, err := u.processor.GetIntent(ctx, intentID)
	if err != nil {
		u.logger.Error("retrieve payment intent", zap.String("intent_id", intentID), zap.Error(err))
		return OrderOutput{}, NewHTTPError(http.StatusBadGateway, "Payment provider error")
	}
	if intent.Status != intentStatusSuccess {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Payment not successful. Status: %s", intent.Status))
	}

	capture := PaymentCapture{
		IntentID: intent.ID,
		Amount:   decimal.New(intent.AmountMinor, -2),
		Currency: intent.Currency,
	}
	in := PlaceOrderInput{
		UserID:          userID,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   model.PaymentMethodCard,
		TotalAmount:     req.TotalAmount,
		Payment:         &capture,
	}
	if err := u.applyPromo(ctx, userID, req.PromoCode, req.TotalAmount, &in); err != nil {
		u.recordOrphan(ctx, userID, capture, err)
		return OrderOutput{}, err
	}

	out, err := u.orders.PlaceOrder(ctx, in)
	if err != nil {
		u.recordOrphan(ctx, userID, capture, err)
		return OrderOutput{}, err
	}

	if err := u.cart.Clear(ctx, userID); err != nil {
		u.logger.Warn("clear cart after payment", zap.Int64("user_id", userID), zap.Error(err))
	}
	u.notifier.PaymentSucceeded(ctx, model.Order{
		ID:          out.ID,
		OrderNumber: out.OrderNumber,
		UserID:      out.UserID,
		TotalAmount: out.TotalAmount,
		Status:      model.OrderStatus(out.Status),
	})
	return out, nil
}

// CheckoutCOD places a cash-on-delivery order from the live cart.
func (u *PaymentUsecase) CheckoutCOD(ctx context.Context, userID int64, req OrderRequest) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	in := PlaceOrderInput{
		UserID:          userID,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   model.PaymentMethodCOD,
		TotalAmount:     req.TotalAmount,
	}
	if err := u.applyPromo(ctx, userID, req.PromoCode, nil, &in); err != nil {
		return OrderOutput{}, err
	}
	return u.orders.PlaceOrder(ctx, in)
}

// recordOrphan keeps a captured charge whose order was not created, so it can
// be refunded. The row is written outside the rolled back order transaction.
func (u *PaymentUsecase) recordOrphan(ctx context.Context, userID int64, c PaymentCapture, cause error) {
	logger := observability.WithTrace(ctx, u.logger).With(
		zap.String("intent_id", c.IntentID),
		zap.Int64("user_id", userID),
		zap.String("amount", c.Amount.StringFixed(2)),
		zap.String("currency", c.Currency),
	)

	// the intent already paid for another order
	var herr *HTTPError
	if errors.As(cause, &herr) && herr.Status == http.StatusConflict && herr.Message == msgPaymentUsed {
		logger.Warn("payment intent reused", zap.Error(cause))
		return
	}

	logger.Error("payment captured but order not created", zap.Error(cause))
	observability.OrphanedPaymentsTotal.Inc()

	err := u.payments.Create(context.WithoutCancel(ctx), &model.Payment{
		IntentID:  c.IntentID,
		Amount:    c.Amount,
		Currency:  c.Currency,
		Status:    model.PaymentStatusOrphaned,
		CreatedAt: time.Now(),
	})
	switch {
	case err == nil:
	case errors.Is(err, repo.ErrDuplicate):
		logger.Warn("orphaned payment already recorded")
	default:
		logger.Error("record orphaned payment", zap.Error(err))
	}
}

// applyPromo validates the code against base, or the live cart total when
// base is nil, and writes the discounted total into in.
func (u *PaymentUsecase) applyPromo(ctx context.Context, userID int64, code string, base *decimal.Decimal, in *PlaceOrderInput) error {
	if strings.TrimSpace(code) == "" {
		return nil
	}

	var total decimal.Decimal
	if base != nil {
		total = *base
	} else {
		t, err := u.cart.Total(ctx, userID)
		if err != nil {
			return err
		}
		total = t
	}

	v, err := u.promos.Validate(ctx, code, userID, total)
	if err != nil {
		return err
	}
	if !v.Valid {
		return NewHTTPError(http.StatusBadRequest, "Invalid promo: "+v.Reason)
	}

	discounted := v.DiscountedTotal
	in.TotalAmount = &discounted
	in.PromoCode = v.Code
	in.PromoDiscount = v.Discount
	return nil
}
