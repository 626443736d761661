package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"bookstore/internal/domain/model"
	"bookstore/internal/observability"
	repo "bookstore/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type PromoUsecase struct {
	promoRepo repo.PromoRepository
	logger    *zap.Logger
	now       func() time.Time
}

func NewPromoUsecase(promoRepo repo.PromoRepository, logger *zap.Logger) *PromoUsecase {
	return &PromoUsecase{promoRepo: promoRepo, logger: logger, now: time.Now}
}

// PromoValidation is an answer, not an error: an invalid code is a normal result.
type PromoValidation struct {
	Valid           bool            `json:"valid"`
	Reason          string          `json:"message,omitempty"`
	Code            string          `json:"promoCode,omitempty"`
	Discount        decimal.Decimal `json:"discountAmount"`
	DiscountedTotal decimal.Decimal `json:"discountedTotal"`
}

func invalidPromo(reason string) PromoValidation {
	observability.PromoValidationsTotal.WithLabelValues("invalid").Inc()
	return PromoValidation{Valid: false, Reason: reason, Discount: decimal.Zero, DiscountedTotal: decimal.Zero}
}

// Validate checks a code against a cart total. Only lookup failures other
// than not-found are returned as errors.
func (u *PromoUsecase) Validate(ctx context.Context, code string, userID int64, cartTotal decimal.Decimal) (PromoValidation, error) {
	normalized := model.NormalizePromoCode(code)
	if normalized == "" {
		return invalidPromo("Promo code is required"), nil
	}
	if userID <= 0 {
		return invalidPromo("User is required"), nil
	}
	if !cartTotal.IsPositive() {
		return invalidPromo("Cart total must be greater than zero"), nil
	}

	promo, err := u.promoRepo.FindByCode(ctx, normalized)
	if errors.Is(err, repo.ErrNotFound) {
		return invalidPromo("Invalid promo code"), nil
	}
	if err != nil {
		u.logger.Error("promo lookup failed", zap.String("code", normalized), zap.Error(err))
		return PromoValidation{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if reason := promo.InvalidReason(u.now()); reason != "" {
		return invalidPromo(reason), nil
	}
	if cartTotal.LessThan(promo.MinOrderAmount) {
		return invalidPromo(fmt.Sprintf("Minimum order amount of £%s required", promo.MinOrderAmount.StringFixed(2))), nil
	}

	discount, discounted := promo.Discount(cartTotal)
	observability.PromoValidationsTotal.WithLabelValues("valid").Inc()
	return PromoValidation{
		Valid:           true,
		Reason:          "Promo code applied successfully",
		Code:            promo.Code,
		Discount:        discount,
		DiscountedTotal: discounted,
	}, nil
}

// Redeem takes one use of the code. Call it once per successful order.
func (u *PromoUsecase) Redeem(ctx context.Context, code string, userID int64, orderID int64) error {
	return u.redeem(ctx, u.promoRepo, code, userID, orderID)
}

// RedeemTx is Redeem bound to the caller's transaction; an error rolls it back.
func (u *PromoUsecase) RedeemTx(ctx context.Context, r repo.TxRepos, code string, userID int64, orderID int64) error {
	return u.redeem(ctx, r.Promos(), code, userID, orderID)
}

func (u *PromoUsecase) redeem(ctx context.Context, promos repo.PromoRepository, code string, userID int64, orderID int64) error {
	normalized := model.NormalizePromoCode(code)
	if normalized == "" {
		return nil
	}

	err := promos.IncrementUsage(ctx, normalized)
	switch {
	case err == nil:
		u.logger.Info("promo code redeemed",
			zap.String("code", normalized),
			zap.Int64("user_id", userID),
			zap.Int64("order_id", orderID),
		)
		return nil
	case errors.Is(err, repo.ErrNotFound):
		u.logger.Warn("redeem of unknown promo code ignored", zap.String("code", normalized), zap.Int64("order_id", orderID))
		return nil
	case errors.Is(err, repo.ErrConditionFailed):
		return NewHTTPError(http.StatusConflict, "Promo code usage limit exceeded")
	default:
		u.logger.Error("promo redeem failed", zap.String("code", normalized), zap.Error(err))
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
}
