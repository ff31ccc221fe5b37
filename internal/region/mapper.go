package region

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/minhdn/cuestore/internal/domain"
	"github.com/minhdn/cuestore/internal/telemetry"
)

// Mapper translates a free-text shipping address into the carrier's district
// and ward codes using locally synced reference data. Lookups cascade through
// progressively looser strategies; only when every strategy misses does the
// address count as unmapped, which is a hard failure for checkout.
type Mapper struct {
	store  domain.RegionStore
	logger *slog.Logger
}

func NewMapper(store domain.RegionStore, logger *slog.Logger) *Mapper {
	return &Mapper{
		store:  store,
		logger: logger.With(slog.String("component", "region_mapper")),
	}
}

// Resolve maps the address to a carrier region. Strategies, in order:
//
//  1. exact (province, city, district, ward)
//  2. (province, district, ward), city ignored
//  3. (province, district, ward) against rows with no city
//  4. strategy 2 with the raw, unnormalized district
//  5. strategy 2 with the raw ward
//  6. strategy 2 with both raw values
//  7. first candidate on (province, district), ward ignored
//  8. strategy 7 with the raw district
//
// Free-text addresses rarely match the reference spelling exactly, so the
// looser strategies do most of the real work.
func (m *Mapper) Resolve(ctx context.Context, addr domain.Address) (*domain.RegionMapping, error) {
	province := NormalizeProvince(addr.Province)
	city := NormalizeCity(addr.City)
	district := NormalizeDistrict(addr.District)
	ward := NormalizeWard(addr.Ward)

	rawDistrict := addr.District
	rawWard := addr.Ward

	m.logger.Debug("resolving region",
		slog.String("province", province),
		slog.String("city", city),
		slog.String("district", district),
		slog.String("ward", ward))

	type attempt struct {
		strategy int
		label    string
		lookup   func() (*domain.RegionMapping, error)
	}
	attempts := []attempt{
		{1, "exact", func() (*domain.RegionMapping, error) {
			return m.store.FindExact(ctx, province, city, district, ward)
		}},
		{2, "ignoring_city", func() (*domain.RegionMapping, error) {
			return m.store.FindIgnoringCity(ctx, province, district, ward)
		}},
		{3, "empty_city", func() (*domain.RegionMapping, error) {
			return m.store.FindWithEmptyCity(ctx, province, district, ward)
		}},
	}
	if rawDistrict != district {
		attempts = append(attempts, attempt{4, "raw", func() (*domain.RegionMapping, error) {
			return m.store.FindIgnoringCity(ctx, province, rawDistrict, ward)
		}})
	}
	if rawWard != ward {
		attempts = append(attempts, attempt{5, "raw", func() (*domain.RegionMapping, error) {
			return m.store.FindIgnoringCity(ctx, province, district, rawWard)
		}})
	}
	if rawDistrict != district && rawWard != ward {
		attempts = append(attempts, attempt{6, "raw", func() (*domain.RegionMapping, error) {
			return m.store.FindIgnoringCity(ctx, province, rawDistrict, rawWard)
		}})
	}
	attempts = append(attempts, attempt{7, "partial", func() (*domain.RegionMapping, error) {
		return m.firstPartial(ctx, province, district)
	}})
	if rawDistrict != district {
		attempts = append(attempts, attempt{8, "partial", func() (*domain.RegionMapping, error) {
			return m.firstPartial(ctx, province, rawDistrict)
		}})
	}

	for _, a := range attempts {
		mapping, err := a.lookup()
		if err != nil {
			if domain.ErrorCode(err) == domain.ENOTFOUND {
				continue
			}
			return nil, domain.WrapError(err, domain.EINTERNAL, "region.Resolve", "region lookup failed")
		}
		if mapping != nil {
			telemetry.Checkout.RegionLookups.WithLabelValues(a.label).Inc()
			m.logger.Debug("region resolved",
				slog.Int("strategy", a.strategy),
				slog.Int("carrier_district_id", int(mapping.CarrierDistrictID)),
				slog.String("carrier_ward_code", mapping.CarrierWardCode))
			return mapping, nil
		}
	}

	telemetry.Checkout.RegionLookups.WithLabelValues("unmapped").Inc()
	m.logger.Warn("no region mapping found",
		slog.String("province", province),
		slog.String("city", city),
		slog.String("district", district),
		slog.String("ward", ward))

	return nil, &domain.Error{
		Code: domain.EUNPROCESSABLE,
		Message: fmt.Sprintf("delivery location is not supported: province=%q district=%q ward=%q",
			province, district, ward),
		Op: "region.Resolve",
	}
}

func (m *Mapper) firstPartial(ctx context.Context, province, district string) (*domain.RegionMapping, error) {
	candidates, err := m.store.FindByProvinceDistrict(ctx, province, district)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	return &candidates[0], nil
}
