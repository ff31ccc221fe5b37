package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PromotionType determines how DiscountValue is interpreted.
type PromotionType string

const (
	// PromotionTypePercentage discounts DiscountValue percent of the base.
	PromotionTypePercentage PromotionType = "percentage"
	// PromotionTypeFixed discounts a flat DiscountValue amount.
	PromotionTypeFixed PromotionType = "fixed"
	// PromotionTypeFreeShipping discounts the shipping fee.
	PromotionTypeFreeShipping PromotionType = "free_shipping"
)

// PromotionApplicableTo selects the base the discount is computed against.
type PromotionApplicableTo string

const (
	PromotionAppliesToAll      PromotionApplicableTo = "all"
	PromotionAppliesToOrder    PromotionApplicableTo = "order"
	PromotionAppliesToShipping PromotionApplicableTo = "shipping"
)

// Promotion is a discount code definition.
type Promotion struct {
	ID                uuid.UUID
	Code              string
	Name              string
	Description       string
	Type              PromotionType
	DiscountValue     decimal.Decimal
	MinOrderAmount    decimal.Decimal
	MaxDiscountAmount decimal.Decimal // zero means uncapped
	UsageLimit        int32           // zero means unlimited
	UsedCount         int32
	ApplicableTo      PromotionApplicableTo
	StartDate         time.Time
	EndDate           time.Time
	IsActive          bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// AppliedPromotion is the result of validating a code against an order:
// the promotion plus the bounded discount it grants.
type AppliedPromotion struct {
	Promotion      Promotion
	DiscountAmount decimal.Decimal
}

// PromotionUsage records one redemption of a promotion against an order.
// Refunded on order cancellation.
type PromotionUsage struct {
	ID             uuid.UUID
	PromotionID    uuid.UUID
	UserID         uuid.UUID
	OrderID        uuid.UUID
	DiscountAmount decimal.Decimal
	UsedAt         time.Time
}
