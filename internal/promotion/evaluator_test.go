package promotion

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minhdn/cuestore/internal/domain"
	"github.com/minhdn/cuestore/internal/telemetry"
)

// fakePromotionStore serves a single promotion by code.
type fakePromotionStore struct {
	promo *domain.Promotion
	err   error
}

func (f *fakePromotionStore) GetPromotionByCode(_ context.Context, code string) (*domain.Promotion, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.promo == nil || f.promo.Code != code {
		return nil, domain.NotFound("promotionstore.get", "promotion", code)
	}
	return f.promo, nil
}

func (f *fakePromotionStore) IncrementUsage(context.Context, uuid.UUID) (bool, error) {
	return true, nil
}
func (f *fakePromotionStore) DecrementUsage(context.Context, uuid.UUID) error { return nil }
func (f *fakePromotionStore) CreateUsage(context.Context, *domain.PromotionUsage) error {
	return nil
}
func (f *fakePromotionStore) GetUsageByOrder(context.Context, uuid.UUID) (*domain.PromotionUsage, error) {
	return nil, domain.NotFound("promotionstore.usage", "promotion usage", "")
}
func (f *fakePromotionStore) DeleteUsage(context.Context, uuid.UUID) error { return nil }

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func validPromo() *domain.Promotion {
	return &domain.Promotion{
		ID:            uuid.New(),
		Code:          "SUMMER10",
		Type:          domain.PromotionTypePercentage,
		DiscountValue: d("10"),
		ApplicableTo:  domain.PromotionAppliesToOrder,
		StartDate:     time.Now().Add(-24 * time.Hour),
		EndDate:       time.Now().Add(24 * time.Hour),
		IsActive:      true,
	}
}

func newEvaluator(store domain.PromotionStore) *Evaluator {
	return NewEvaluator(store, slog.New(slog.DiscardHandler))
}

func TestValidatePercentageDiscount(t *testing.T) {
	ev := newEvaluator(&fakePromotionStore{promo: validPromo()})
	appliedBefore := testutil.ToFloat64(telemetry.Checkout.PromotionsApplied)

	applied, err := ev.Validate(context.Background(), "SUMMER10", uuid.New(), d("500000"), d("30000"))
	require.NoError(t, err)
	assert.True(t, applied.DiscountAmount.Equal(d("50000")), "got %s", applied.DiscountAmount)
	assert.Equal(t, appliedBefore+1, testutil.ToFloat64(telemetry.Checkout.PromotionsApplied))
}

func TestValidateCapsDiscount(t *testing.T) {
	promo := validPromo()
	promo.MaxDiscountAmount = d("40000")
	ev := newEvaluator(&fakePromotionStore{promo: promo})

	applied, err := ev.Validate(context.Background(), "SUMMER10", uuid.New(), d("500000"), d("30000"))
	require.NoError(t, err)
	assert.True(t, applied.DiscountAmount.Equal(d("40000")))
}

func TestValidateUnknownCode(t *testing.T) {
	ev := newEvaluator(&fakePromotionStore{})

	_, err := ev.Validate(context.Background(), "NOPE", uuid.New(), d("100"), d("0"))
	require.Error(t, err)
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		reason string
		mutate func(*domain.Promotion)
	}{
		{"inactive", "inactive", func(p *domain.Promotion) { p.IsActive = false }},
		{"not started", "not_started", func(p *domain.Promotion) { p.StartDate = time.Now().Add(time.Hour) }},
		{"expired", "expired", func(p *domain.Promotion) { p.EndDate = time.Now().Add(-time.Hour) }},
		{"exhausted", "exhausted", func(p *domain.Promotion) { p.UsageLimit = 5; p.UsedCount = 5 }},
		{"below minimum", "below_minimum", func(p *domain.Promotion) { p.MinOrderAmount = d("1000000") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			promo := validPromo()
			tt.mutate(promo)
			ev := newEvaluator(&fakePromotionStore{promo: promo})
			before := testutil.ToFloat64(telemetry.Checkout.PromotionsRejected.WithLabelValues(tt.reason))

			_, err := ev.Validate(context.Background(), "SUMMER10", uuid.New(), d("500000"), d("30000"))
			require.Error(t, err)
			assert.Equal(t, domain.EUNPROCESSABLE, domain.ErrorCode(err))
			assert.Equal(t, before+1,
				testutil.ToFloat64(telemetry.Checkout.PromotionsRejected.WithLabelValues(tt.reason)))
		})
	}
}

func TestValidateShippingPromoNeedsShippingFee(t *testing.T) {
	promo := validPromo()
	promo.ApplicableTo = domain.PromotionAppliesToShipping
	ev := newEvaluator(&fakePromotionStore{promo: promo})

	_, err := ev.Validate(context.Background(), "SUMMER10", uuid.New(), d("500000"), decimal.Zero)
	require.Error(t, err)
	assert.Equal(t, domain.EUNPROCESSABLE, domain.ErrorCode(err))
}

func TestValidateUnlimitedUsage(t *testing.T) {
	promo := validPromo()
	promo.UsageLimit = 0 // unlimited
	promo.UsedCount = 999999
	ev := newEvaluator(&fakePromotionStore{promo: promo})

	_, err := ev.Validate(context.Background(), "SUMMER10", uuid.New(), d("500000"), d("30000"))
	assert.NoError(t, err)
}

func TestDiscountKinds(t *testing.T) {
	ev := newEvaluator(&fakePromotionStore{})
	subtotal, shipping := d("200000"), d("30000")

	fixed := domain.Promotion{Type: domain.PromotionTypeFixed, DiscountValue: d("50000"), ApplicableTo: domain.PromotionAppliesToOrder}
	assert.True(t, ev.Discount(fixed, subtotal, shipping).Equal(d("50000")))

	freeShip := domain.Promotion{Type: domain.PromotionTypeFreeShipping, ApplicableTo: domain.PromotionAppliesToAll}
	assert.True(t, ev.Discount(freeShip, subtotal, shipping).Equal(d("30000")))

	// percentage of the shipping fee only
	shipPct := domain.Promotion{Type: domain.PromotionTypePercentage, DiscountValue: d("50"), ApplicableTo: domain.PromotionAppliesToShipping}
	assert.True(t, ev.Discount(shipPct, subtotal, shipping).Equal(d("15000")))
}

func TestDiscountNeverExceedsBase(t *testing.T) {
	ev := newEvaluator(&fakePromotionStore{})

	fixed := domain.Promotion{Type: domain.PromotionTypeFixed, DiscountValue: d("500000"), ApplicableTo: domain.PromotionAppliesToOrder}
	got := ev.Discount(fixed, d("120000"), decimal.Zero)
	assert.True(t, got.Equal(d("120000")))
}

func TestDiscountRoundsHalfUp(t *testing.T) {
	ev := newEvaluator(&fakePromotionStore{})

	// 12.5% of 100.20 = 12.525 -> 12.53
	promo := domain.Promotion{Type: domain.PromotionTypePercentage, DiscountValue: d("12.5"), ApplicableTo: domain.PromotionAppliesToOrder}
	got := ev.Discount(promo, d("100.20"), decimal.Zero)
	assert.True(t, got.Equal(d("12.53")), "got %s", got)
}
