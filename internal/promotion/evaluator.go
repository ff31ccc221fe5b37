package promotion

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/minhdn/cuestore/internal/domain"
	"github.com/minhdn/cuestore/internal/telemetry"
)

var oneHundred = decimal.NewFromInt(100)

// Evaluator validates promotion codes against an order and computes the
// bounded discount they grant. Each rejection is a distinct domain error so
// callers can show the customer why the code was refused; the order preview
// deliberately swallows all of them and proceeds without a discount.
type Evaluator struct {
	store  domain.PromotionStore
	logger *slog.Logger
	now    func() time.Time
}

func NewEvaluator(store domain.PromotionStore, logger *slog.Logger) *Evaluator {
	return &Evaluator{
		store:  store,
		logger: logger.With(slog.String("component", "promotion_evaluator")),
		now:    time.Now,
	}
}

// Validate checks the code against the order amounts and returns the applied
// promotion with its discount. Rejection reasons, in check order: unknown
// code, inactive, outside the validity window, usage limit exhausted, not
// applicable to this order, subtotal below minimum.
func (e *Evaluator) Validate(ctx context.Context, code string, userID uuid.UUID, subtotal, shippingFee decimal.Decimal) (*domain.AppliedPromotion, error) {
	const op = "promotion.Validate"

	code = strings.TrimSpace(code)
	if code == "" {
		return nil, domain.Invalid(op, "promotion code is empty")
	}

	rejected := func(reason string) {
		telemetry.Checkout.PromotionsRejected.WithLabelValues(reason).Inc()
	}

	promo, err := e.store.GetPromotionByCode(ctx, code)
	if err != nil {
		if domain.ErrorCode(err) == domain.ENOTFOUND {
			rejected("not_found")
			return nil, domain.Errorf(domain.ENOTFOUND, op, "promotion code %q does not exist", code)
		}
		return nil, domain.WrapError(err, domain.EINTERNAL, op, "promotion lookup failed")
	}

	now := e.now()
	switch {
	case !promo.IsActive:
		rejected("inactive")
		return nil, domain.Unprocessable(op, "promotion is no longer active")
	case now.Before(promo.StartDate):
		rejected("not_started")
		return nil, domain.Unprocessable(op, "promotion has not started yet")
	case now.After(promo.EndDate):
		rejected("expired")
		return nil, domain.Unprocessable(op, "promotion has expired")
	case promo.UsageLimit > 0 && promo.UsedCount >= promo.UsageLimit:
		rejected("exhausted")
		return nil, domain.Unprocessable(op, "promotion usage limit reached")
	}

	if promo.ApplicableTo == domain.PromotionAppliesToShipping && shippingFee.IsZero() {
		rejected("not_applicable")
		return nil, domain.Unprocessable(op, "promotion does not apply to this order")
	}
	if promo.MinOrderAmount.IsPositive() && subtotal.LessThan(promo.MinOrderAmount) {
		rejected("below_minimum")
		return nil, domain.Errorf(domain.EUNPROCESSABLE, op,
			"order subtotal is below the promotion minimum of %s", promo.MinOrderAmount.StringFixed(2))
	}

	telemetry.Checkout.PromotionsApplied.Inc()
	discount := e.Discount(*promo, subtotal, shippingFee)
	e.logger.Debug("promotion applied",
		slog.String("code", promo.Code),
		slog.String("user_id", userID.String()),
		slog.String("discount", discount.StringFixed(2)))

	return &domain.AppliedPromotion{Promotion: *promo, DiscountAmount: discount}, nil
}

// Discount computes the discount a promotion grants against the given
// amounts. Percentage discounts round half-up to 2 decimal places. The result
// never exceeds the promotion's cap nor the base it discounts.
func (e *Evaluator) Discount(promo domain.Promotion, subtotal, shippingFee decimal.Decimal) decimal.Decimal {
	base := discountBase(promo.ApplicableTo, subtotal, shippingFee)

	var discount decimal.Decimal
	switch promo.Type {
	case domain.PromotionTypePercentage:
		discount = base.Mul(promo.DiscountValue).Div(oneHundred).Round(2)
	case domain.PromotionTypeFixed:
		discount = promo.DiscountValue
	case domain.PromotionTypeFreeShipping:
		discount = shippingFee
	default:
		return decimal.Zero
	}

	if promo.MaxDiscountAmount.IsPositive() && discount.GreaterThan(promo.MaxDiscountAmount) {
		discount = promo.MaxDiscountAmount
	}
	if discount.GreaterThan(base) {
		discount = base
	}
	if discount.IsNegative() {
		return decimal.Zero
	}
	return discount
}

func discountBase(applicableTo domain.PromotionApplicableTo, subtotal, shippingFee decimal.Decimal) decimal.Decimal {
	switch applicableTo {
	case domain.PromotionAppliesToOrder:
		return subtotal
	case domain.PromotionAppliesToShipping:
		return shippingFee
	default:
		return subtotal.Add(shippingFee)
	}
}
