package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/minhdn/cuestore/internal/domain"
)

// AddressStore implements domain.AddressStore.
type AddressStore struct {
	pool *pgxpool.Pool
}

var _ domain.AddressStore = (*AddressStore)(nil)

func NewAddressStore(pool *pgxpool.Pool) *AddressStore {
	return &AddressStore{pool: pool}
}

const addressColumns = `
	id, user_id, recipient_name, phone, address_line, ward, district,
	city, province, postal_code, is_default, created_at, updated_at`

func scanAddress(row interface{ Scan(...any) error }) (*domain.Address, error) {
	var a domain.Address
	err := row.Scan(
		&a.ID, &a.UserID, &a.RecipientName, &a.Phone, &a.AddressLine,
		&a.Ward, &a.District, &a.City, &a.Province, &a.PostalCode,
		&a.IsDefault, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *AddressStore) GetAddress(ctx context.Context, id uuid.UUID) (*domain.Address, error) {
	row := s.pool.QueryRow(ctx, `SELECT`+addressColumns+` FROM addresses WHERE id = $1`, id)
	addr, err := scanAddress(row)
	if err != nil {
		return nil, notFound(err, "addressstore.get", "address", id.String())
	}
	return addr, nil
}

func (s *AddressStore) ListAddressesForUser(ctx context.Context, userID uuid.UUID) ([]domain.Address, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT`+addressColumns+` FROM addresses WHERE user_id = $1 ORDER BY is_default DESC, created_at DESC`,
		userID)
	if err != nil {
		return nil, domain.Internal(err, "addressstore.list", "query failed")
	}
	defer rows.Close()

	var out []domain.Address
	for rows.Next() {
		addr, err := scanAddress(rows)
		if err != nil {
			return nil, domain.Internal(err, "addressstore.list", "scan failed")
		}
		out = append(out, *addr)
	}
	return out, rows.Err()
}

func (s *AddressStore) CreateAddress(ctx context.Context, a *domain.Address) error {
	const q = `
		INSERT INTO addresses (
			id, user_id, recipient_name, phone, address_line, ward, district,
			city, province, postal_code, is_default, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := s.pool.Exec(ctx, q,
		a.ID, a.UserID, a.RecipientName, a.Phone, a.AddressLine, a.Ward,
		a.District, a.City, a.Province, a.PostalCode, a.IsDefault,
		a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return domain.Internal(err, "addressstore.create", "insert failed")
	}
	return nil
}

func (s *AddressStore) UpdateAddress(ctx context.Context, a *domain.Address) error {
	const q = `
		UPDATE addresses SET
			recipient_name = $2, phone = $3, address_line = $4, ward = $5,
			district = $6, city = $7, province = $8, postal_code = $9,
			is_default = $10, updated_at = $11
		WHERE id = $1`

	_, err := s.pool.Exec(ctx, q,
		a.ID, a.RecipientName, a.Phone, a.AddressLine, a.Ward, a.District,
		a.City, a.Province, a.PostalCode, a.IsDefault, a.UpdatedAt)
	if err != nil {
		return domain.Internal(err, "addressstore.update", "update failed")
	}
	return nil
}

func (s *AddressStore) DeleteAddress(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM addresses WHERE id = $1`, id)
	if err != nil {
		return domain.Internal(err, "addressstore.delete", "delete failed")
	}
	return nil
}

func (s *AddressStore) ClearDefaultForUser(ctx context.Context, userID uuid.UUID) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE addresses SET is_default = FALSE WHERE user_id = $1 AND is_default`, userID)
	if err != nil {
		return domain.Internal(err, "addressstore.clear_default", "update failed")
	}
	return nil
}
