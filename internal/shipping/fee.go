package shipping

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/minhdn/cuestore/internal/carrier"
	"github.com/minhdn/cuestore/internal/domain"
	"github.com/minhdn/cuestore/internal/telemetry"
)

// ShopOrigin is the pickup location all shipments originate from, expressed
// in carrier region codes.
type ShopOrigin struct {
	DistrictID int32
	WardCode   string
}

// FeeCalculator quotes delivery fees from the carrier. Region resolution
// failures are hard errors (no destination means nothing can ship); carrier
// transport failures degrade to a zero fee so checkout can proceed and the
// business adjusts the fee manually later.
type FeeCalculator struct {
	gateway  carrier.Gateway
	resolver RegionResolver
	origin   ShopOrigin
	logger   *slog.Logger
}

func NewFeeCalculator(gateway carrier.Gateway, resolver RegionResolver, origin ShopOrigin, logger *slog.Logger) *FeeCalculator {
	return &FeeCalculator{
		gateway:  gateway,
		resolver: resolver,
		origin:   origin,
		logger:   logger.With(slog.String("component", "fee_calculator")),
	}
}

// Quote returns the delivery fee for shipping the given lines to the address
// with the given method. Returns zero (not an error) when the carrier cannot
// be reached or answers with garbage.
func (c *FeeCalculator) Quote(ctx context.Context, method string, addr domain.Address, lines []domain.CartSnapshotLine) (decimal.Decimal, error) {
	mapping, err := c.resolver.Resolve(ctx, addr)
	if err != nil {
		outcome := "error"
		if domain.ErrorCode(err) == domain.EUNPROCESSABLE {
			outcome = "unmapped_location"
		}
		telemetry.Checkout.FeeQuotes.WithLabelValues(outcome).Inc()
		return decimal.Zero, err
	}

	req := carrier.FeeRequest{
		FromDistrictID: c.origin.DistrictID,
		FromWardCode:   c.origin.WardCode,
		ToDistrictID:   mapping.CarrierDistrictID,
		ToWardCode:     mapping.CarrierWardCode,
		WeightGrams:    TotalWeightGrams(lines),
		LengthCm:       DefaultLengthCm,
		WidthCm:        DefaultWidthCm,
		HeightCm:       DefaultHeightCm,
		ServiceID:      ServiceID(method),
		ServiceTypeID:  ServiceTypeID(method),
	}

	quote, err := c.gateway.CalculateFee(ctx, req)
	if err != nil {
		c.logger.Warn("fee quote failed, defaulting to zero",
			slog.String("method", method),
			slog.Int("to_district_id", int(mapping.CarrierDistrictID)),
			slog.String("error", err.Error()))
		telemetry.Checkout.FeeQuotes.WithLabelValues("carrier_failed").Inc()
		return decimal.Zero, nil
	}

	telemetry.Checkout.FeeQuotes.WithLabelValues("ok").Inc()
	return decimal.NewFromInt(quote.Total), nil
}
