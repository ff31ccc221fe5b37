package region

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minhdn/cuestore/internal/domain"
	"github.com/minhdn/cuestore/internal/telemetry"
)

func lookupCount(strategy string) float64 {
	return testutil.ToFloat64(telemetry.Checkout.RegionLookups.WithLabelValues(strategy))
}

var errMappingNotFound = domain.Errorf(domain.ENOTFOUND, "regionstore.find", "region mapping not found")

// fakeRegionStore serves lookups from an in-memory slice, matching the
// case-insensitive semantics of the real store. It records which lookup
// methods were hit so tests can assert fallback ordering.
type fakeRegionStore struct {
	rows  []domain.RegionMapping
	calls []string
}

func (f *fakeRegionStore) FindExact(_ context.Context, province, city, district, ward string) (*domain.RegionMapping, error) {
	f.calls = append(f.calls, "exact")
	for i := range f.rows {
		r := &f.rows[i]
		if eq(r.Province, province) && eq(r.City, city) && eq(r.District, district) && eq(r.Ward, ward) {
			return r, nil
		}
	}
	return nil, errMappingNotFound
}

func (f *fakeRegionStore) FindIgnoringCity(_ context.Context, province, district, ward string) (*domain.RegionMapping, error) {
	f.calls = append(f.calls, "ignoring_city")
	for i := range f.rows {
		r := &f.rows[i]
		if eq(r.Province, province) && eq(r.District, district) && eq(r.Ward, ward) {
			return r, nil
		}
	}
	return nil, errMappingNotFound
}

func (f *fakeRegionStore) FindWithEmptyCity(_ context.Context, province, district, ward string) (*domain.RegionMapping, error) {
	f.calls = append(f.calls, "empty_city")
	for i := range f.rows {
		r := &f.rows[i]
		if r.City == "" && eq(r.Province, province) && eq(r.District, district) && eq(r.Ward, ward) {
			return r, nil
		}
	}
	return nil, errMappingNotFound
}

func (f *fakeRegionStore) FindByProvinceDistrict(_ context.Context, province, district string) ([]domain.RegionMapping, error) {
	f.calls = append(f.calls, "partial")
	var out []domain.RegionMapping
	for _, r := range f.rows {
		if eq(r.Province, province) && eq(r.District, district) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRegionStore) ReplaceAll(context.Context, []domain.RegionMapping) error {
	return nil
}

func eq(a, b string) bool { return strings.EqualFold(a, b) }

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestResolveNormalizedExactMatch(t *testing.T) {
	store := &fakeRegionStore{rows: []domain.RegionMapping{
		{ID: 1, Province: "Hồ Chí Minh", District: "1", Ward: "Bến Nghé", CarrierDistrictID: 1442, CarrierWardCode: "20101"},
	}}
	mapper := NewMapper(store, testLogger())
	before := lookupCount("ignoring_city")

	got, err := mapper.Resolve(context.Background(), domain.Address{
		Province: "TP Hồ Chí Minh",
		District: "Quận 1",
		Ward:     "Phường Bến Nghé",
	})
	require.NoError(t, err)
	assert.Equal(t, int32(1442), got.CarrierDistrictID)
	assert.Equal(t, "20101", got.CarrierWardCode)
	// city-less address with city-less row: exact misses, city-ignoring hits
	assert.Equal(t, []string{"exact", "ignoring_city"}, store.calls[:2])
	assert.Equal(t, before+1, lookupCount("ignoring_city"))
}

func TestResolveFallsBackToRawDistrict(t *testing.T) {
	// reference data kept the honorific, so only the raw spelling matches
	store := &fakeRegionStore{rows: []domain.RegionMapping{
		{ID: 1, Province: "Hồ Chí Minh", District: "Quận 3", Ward: "Võ Thị Sáu", CarrierDistrictID: 1444, CarrierWardCode: "20308"},
	}}
	mapper := NewMapper(store, testLogger())

	got, err := mapper.Resolve(context.Background(), domain.Address{
		Province: "Hồ Chí Minh",
		District: "Quận 3",
		Ward:     "Phường Võ Thị Sáu",
	})
	require.NoError(t, err)
	assert.Equal(t, int32(1444), got.CarrierDistrictID)
}

func TestResolvePartialMatchAfterExhaustingWardStrategies(t *testing.T) {
	// only a ward-agnostic (province, district) candidate exists
	store := &fakeRegionStore{rows: []domain.RegionMapping{
		{ID: 1, Province: "Hồ Chí Minh", District: "7", Ward: "Tân Phú", CarrierDistrictID: 1449, CarrierWardCode: "20707"},
		{ID: 2, Province: "Hồ Chí Minh", District: "7", Ward: "Tân Thuận Đông", CarrierDistrictID: 1449, CarrierWardCode: "20708"},
	}}
	mapper := NewMapper(store, testLogger())

	got, err := mapper.Resolve(context.Background(), domain.Address{
		Province: "Hồ Chí Minh",
		District: "Quận 7",
		Ward:     "Phường Không Tồn Tại",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.ID, "partial match returns the first candidate")
	assert.Contains(t, store.calls, "partial")
	// every ward-bearing strategy ran first
	assert.Equal(t, "exact", store.calls[0])
}

func TestResolveUnmappedLocation(t *testing.T) {
	store := &fakeRegionStore{}
	mapper := NewMapper(store, testLogger())

	before := lookupCount("unmapped")
	got, err := mapper.Resolve(context.Background(), domain.Address{
		Province: "Tỉnh Không Có",
		District: "Huyện Không Có",
		Ward:     "Xã Không Có",
	})
	require.Error(t, err)
	assert.Nil(t, got)
	assert.Equal(t, domain.EUNPROCESSABLE, domain.ErrorCode(err))
	assert.Contains(t, domain.ErrorMessage(err), "Không Có")
	assert.Equal(t, before+1, lookupCount("unmapped"))
}

func TestResolveSkipsRedundantRawLookups(t *testing.T) {
	store := &fakeRegionStore{}
	mapper := NewMapper(store, testLogger())

	// district and ward are already bare, so the raw-value strategies add nothing
	_, err := mapper.Resolve(context.Background(), domain.Address{
		Province: "Hồ Chí Minh",
		District: "1",
		Ward:     "Bến Nghé",
	})
	require.Error(t, err)
	assert.Equal(t, []string{"exact", "ignoring_city", "empty_city", "partial"}, store.calls)
}
