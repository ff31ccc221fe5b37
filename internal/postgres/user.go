package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/minhdn/cuestore/internal/domain"
)

// UserStore implements domain.UserDirectory.
type UserStore struct {
	pool *pgxpool.Pool
}

var _ domain.UserDirectory = (*UserStore)(nil)

func NewUserStore(pool *pgxpool.Pool) *UserStore {
	return &UserStore{pool: pool}
}

func (s *UserStore) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	const q = `
		SELECT id, full_name, email, phone
		FROM users
		WHERE id = $1`

	var u domain.User
	err := s.pool.QueryRow(ctx, q, id).Scan(&u.ID, &u.FullName, &u.Email, &u.Phone)
	if err != nil {
		return nil, notFound(err, "userstore.get", "user", id.String())
	}
	return &u, nil
}
