package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/minhdn/cuestore/internal/domain"
)

// RegionStore implements domain.RegionStore over the location_mappings
// reference table. All string matching is case-insensitive.
type RegionStore struct {
	pool *pgxpool.Pool
}

var _ domain.RegionStore = (*RegionStore)(nil)

func NewRegionStore(pool *pgxpool.Pool) *RegionStore {
	return &RegionStore{pool: pool}
}

const regionColumns = `id, province, city, district, ward, carrier_district_id, carrier_ward_code`

func scanRegion(row interface{ Scan(...any) error }) (*domain.RegionMapping, error) {
	var m domain.RegionMapping
	err := row.Scan(&m.ID, &m.Province, &m.City, &m.District, &m.Ward,
		&m.CarrierDistrictID, &m.CarrierWardCode)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *RegionStore) FindExact(ctx context.Context, province, city, district, ward string) (*domain.RegionMapping, error) {
	const q = `
		SELECT ` + regionColumns + `
		FROM location_mappings
		WHERE LOWER(province) = LOWER($1)
		  AND LOWER(city) = LOWER($2)
		  AND LOWER(district) = LOWER($3)
		  AND LOWER(ward) = LOWER($4)
		LIMIT 1`

	m, err := scanRegion(s.pool.QueryRow(ctx, q, province, city, district, ward))
	if err != nil {
		return nil, notFound(err, "regionstore.exact", "region mapping", province)
	}
	return m, nil
}

func (s *RegionStore) FindIgnoringCity(ctx context.Context, province, district, ward string) (*domain.RegionMapping, error) {
	const q = `
		SELECT ` + regionColumns + `
		FROM location_mappings
		WHERE LOWER(province) = LOWER($1)
		  AND LOWER(district) = LOWER($2)
		  AND LOWER(ward) = LOWER($3)
		LIMIT 1`

	m, err := scanRegion(s.pool.QueryRow(ctx, q, province, district, ward))
	if err != nil {
		return nil, notFound(err, "regionstore.ignoring_city", "region mapping", province)
	}
	return m, nil
}

func (s *RegionStore) FindWithEmptyCity(ctx context.Context, province, district, ward string) (*domain.RegionMapping, error) {
	const q = `
		SELECT ` + regionColumns + `
		FROM location_mappings
		WHERE LOWER(province) = LOWER($1)
		  AND (city IS NULL OR city = '')
		  AND LOWER(district) = LOWER($2)
		  AND LOWER(ward) = LOWER($3)
		LIMIT 1`

	m, err := scanRegion(s.pool.QueryRow(ctx, q, province, district, ward))
	if err != nil {
		return nil, notFound(err, "regionstore.empty_city", "region mapping", province)
	}
	return m, nil
}

func (s *RegionStore) FindByProvinceDistrict(ctx context.Context, province, district string) ([]domain.RegionMapping, error) {
	const q = `
		SELECT ` + regionColumns + `
		FROM location_mappings
		WHERE LOWER(province) = LOWER($1)
		  AND LOWER(district) = LOWER($2)
		ORDER BY id`

	rows, err := s.pool.Query(ctx, q, province, district)
	if err != nil {
		return nil, domain.Internal(err, "regionstore.partial", "query failed")
	}
	defer rows.Close()

	var out []domain.RegionMapping
	for rows.Next() {
		m, err := scanRegion(rows)
		if err != nil {
			return nil, domain.Internal(err, "regionstore.partial", "scan failed")
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

// ReplaceAll swaps the reference data in one transaction: the master-data sync
// rebuilds the whole table rather than diffing against the carrier.
func (s *RegionStore) ReplaceAll(ctx context.Context, mappings []domain.RegionMapping) error {
	const op = "regionstore.replace_all"

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return domain.Internal(err, op, "begin transaction")
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM location_mappings`); err != nil {
		return domain.Internal(err, op, "clear table")
	}

	rows := make([][]any, 0, len(mappings))
	for _, m := range mappings {
		rows = append(rows, []any{m.Province, m.City, m.District, m.Ward,
			m.CarrierDistrictID, m.CarrierWardCode})
	}
	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"location_mappings"},
		[]string{"province", "city", "district", "ward", "carrier_district_id", "carrier_ward_code"},
		pgx.CopyFromRows(rows))
	if err != nil {
		return domain.Internal(err, op, "copy mappings")
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Internal(err, op, "commit transaction")
	}
	return nil
}

// Count reports how many mappings are loaded; the sync worker uses it to skip
// a refresh when data is already present.
func (s *RegionStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM location_mappings`).Scan(&n)
	if err != nil {
		return 0, domain.Internal(err, "regionstore.count", "query failed")
	}
	return n, nil
}
