package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/minhdn/cuestore/internal/domain"
)

// CartStore implements domain.CartStore.
type CartStore struct {
	pool *pgxpool.Pool
}

var _ domain.CartStore = (*CartStore)(nil)

func NewCartStore(pool *pgxpool.Pool) *CartStore {
	return &CartStore{pool: pool}
}

func (s *CartStore) GetCartByUser(ctx context.Context, userID uuid.UUID) (*domain.Cart, error) {
	const q = `SELECT id, user_id, created_at, updated_at FROM carts WHERE user_id = $1`

	var c domain.Cart
	err := s.pool.QueryRow(ctx, q, userID).Scan(&c.ID, &c.UserID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, notFound(err, "cartstore.get", "cart", userID.String())
	}
	return &c, nil
}

func (s *CartStore) CreateCart(ctx context.Context, cart *domain.Cart) error {
	const q = `INSERT INTO carts (id, user_id, created_at, updated_at) VALUES ($1, $2, $3, $4)`

	_, err := s.pool.Exec(ctx, q, cart.ID, cart.UserID, cart.CreatedAt, cart.UpdatedAt)
	if err != nil {
		return domain.Internal(err, "cartstore.create", "insert failed")
	}
	return nil
}

func (s *CartStore) TouchCart(ctx context.Context, cartID uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `UPDATE carts SET updated_at = NOW() WHERE id = $1`, cartID)
	if err != nil {
		return domain.Internal(err, "cartstore.touch", "update failed")
	}
	return nil
}

const cartItemColumns = `id, cart_id, product_id, quantity, unit_price, line_total, added_at, updated_at`

func scanCartItem(row interface{ Scan(...any) error }) (*domain.CartItem, error) {
	var it domain.CartItem
	err := row.Scan(&it.ID, &it.CartID, &it.ProductID, &it.Quantity,
		&it.UnitPrice, &it.LineTotal, &it.AddedAt, &it.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func (s *CartStore) ListCartItems(ctx context.Context, cartID uuid.UUID) ([]domain.CartItem, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+cartItemColumns+` FROM cart_items WHERE cart_id = $1 ORDER BY added_at`, cartID)
	if err != nil {
		return nil, domain.Internal(err, "cartstore.items", "query failed")
	}
	defer rows.Close()

	var out []domain.CartItem
	for rows.Next() {
		item, err := scanCartItem(rows)
		if err != nil {
			return nil, domain.Internal(err, "cartstore.items", "scan failed")
		}
		out = append(out, *item)
	}
	return out, rows.Err()
}

func (s *CartStore) GetCartItem(ctx context.Context, itemID uuid.UUID) (*domain.CartItem, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+cartItemColumns+` FROM cart_items WHERE id = $1`, itemID)
	item, err := scanCartItem(row)
	if err != nil {
		return nil, notFound(err, "cartstore.item", "cart item", itemID.String())
	}
	return item, nil
}

func (s *CartStore) FindCartItemByProduct(ctx context.Context, cartID, productID uuid.UUID) (*domain.CartItem, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+cartItemColumns+` FROM cart_items WHERE cart_id = $1 AND product_id = $2`,
		cartID, productID)
	item, err := scanCartItem(row)
	if err != nil {
		return nil, notFound(err, "cartstore.item", "cart item", productID.String())
	}
	return item, nil
}

func (s *CartStore) InsertCartItem(ctx context.Context, item *domain.CartItem) error {
	const q = `
		INSERT INTO cart_items (id, cart_id, product_id, quantity, unit_price, line_total, added_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := s.pool.Exec(ctx, q, item.ID, item.CartID, item.ProductID,
		item.Quantity, item.UnitPrice, item.LineTotal, item.AddedAt, item.UpdatedAt)
	if err != nil {
		return domain.Internal(err, "cartstore.insert_item", "insert failed")
	}
	return nil
}

func (s *CartStore) UpdateCartItem(ctx context.Context, item *domain.CartItem) error {
	const q = `
		UPDATE cart_items
		SET quantity = $2, unit_price = $3, line_total = $4, updated_at = $5
		WHERE id = $1`

	_, err := s.pool.Exec(ctx, q, item.ID, item.Quantity, item.UnitPrice,
		item.LineTotal, item.UpdatedAt)
	if err != nil {
		return domain.Internal(err, "cartstore.update_item", "update failed")
	}
	return nil
}

func (s *CartStore) DeleteCartItem(ctx context.Context, itemID uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM cart_items WHERE id = $1`, itemID)
	if err != nil {
		return domain.Internal(err, "cartstore.delete_item", "delete failed")
	}
	return nil
}

func (s *CartStore) DeleteCartItems(ctx context.Context, cartID uuid.UUID, itemIDs []uuid.UUID) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM cart_items WHERE cart_id = $1 AND id = ANY($2)`, cartID, itemIDs)
	if err != nil {
		return domain.Internal(err, "cartstore.delete_items", "delete failed")
	}
	return nil
}

func (s *CartStore) ClearCart(ctx context.Context, cartID uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID)
	if err != nil {
		return domain.Internal(err, "cartstore.clear", "delete failed")
	}
	return nil
}
