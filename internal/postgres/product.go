package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/minhdn/cuestore/internal/domain"
)

// ProductStore implements domain.ProductCatalog and domain.InventoryStore:
// the catalog read side plus the stock mutations checkout performs.
type ProductStore struct {
	pool *pgxpool.Pool
}

var (
	_ domain.ProductCatalog = (*ProductStore)(nil)
	_ domain.InventoryStore = (*ProductStore)(nil)
)

func NewProductStore(pool *pgxpool.Pool) *ProductStore {
	return &ProductStore{pool: pool}
}

func (s *ProductStore) GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	const q = `
		SELECT id, name, sku, price, stock_quantity, weight_grams,
		       dimensions, status, created_at, updated_at
		FROM products
		WHERE id = $1`

	var p domain.Product
	err := s.pool.QueryRow(ctx, q, id).Scan(
		&p.ID, &p.Name, &p.SKU, &p.Price, &p.StockQuantity, &p.WeightGrams,
		&p.Dimensions, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, notFound(err, "productstore.get", "product", id.String())
	}
	return &p, nil
}

// DecrementStock subtracts quantity only when enough stock remains. The
// guard lives in the WHERE clause so concurrent checkouts cannot oversell.
func (s *ProductStore) DecrementStock(ctx context.Context, productID uuid.UUID, quantity int32) (bool, error) {
	const q = `
		UPDATE products
		SET stock_quantity = stock_quantity - $2, updated_at = NOW()
		WHERE id = $1 AND stock_quantity >= $2`

	tag, err := s.pool.Exec(ctx, q, productID, quantity)
	if err != nil {
		return false, domain.Internal(err, "productstore.decrement", "update failed")
	}
	return tag.RowsAffected() == 1, nil
}

func (s *ProductStore) IncrementStock(ctx context.Context, productID uuid.UUID, quantity int32) error {
	const q = `
		UPDATE products
		SET stock_quantity = stock_quantity + $2, updated_at = NOW()
		WHERE id = $1`

	_, err := s.pool.Exec(ctx, q, productID, quantity)
	if err != nil {
		return domain.Internal(err, "productstore.increment", "update failed")
	}
	return nil
}

func (s *ProductStore) CreateInventoryLog(ctx context.Context, entry *domain.InventoryLog) error {
	const q = `
		INSERT INTO inventory_logs (id, order_id, product_id, action, quantity, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := s.pool.Exec(ctx, q,
		entry.ID, entry.OrderID, entry.ProductID, entry.Action, entry.Quantity, entry.CreatedAt)
	if err != nil {
		return domain.Internal(err, "productstore.log", "insert failed")
	}
	return nil
}

// RestoreStock puts reserved stock back and writes the release ledger row in
// one transaction. Without the transaction a failed ledger insert after the
// increment would let a retried cancellation restore the same stock twice.
func (s *ProductStore) RestoreStock(ctx context.Context, entry *domain.InventoryLog) error {
	const op = "productstore.restore"

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return domain.Internal(err, op, "begin transaction")
	}
	defer tx.Rollback(ctx)

	const insertLog = `
		INSERT INTO inventory_logs (id, order_id, product_id, action, quantity, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err = tx.Exec(ctx, insertLog,
		entry.ID, entry.OrderID, entry.ProductID, entry.Action, entry.Quantity, entry.CreatedAt)
	if err != nil {
		return domain.Internal(err, op, "insert release log")
	}

	const increment = `
		UPDATE products
		SET stock_quantity = stock_quantity + $2, updated_at = NOW()
		WHERE id = $1`
	_, err = tx.Exec(ctx, increment, entry.ProductID, entry.Quantity)
	if err != nil {
		return domain.Internal(err, op, "increment stock")
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Internal(err, op, "commit transaction")
	}
	return nil
}

// ListReservationsForOrder returns reserve entries not yet matched by a
// release for the same order and product, i.e. stock still held.
func (s *ProductStore) ListReservationsForOrder(ctx context.Context, orderID uuid.UUID) ([]domain.InventoryLog, error) {
	const q = `
		SELECT r.id, r.order_id, r.product_id, r.action, r.quantity, r.created_at
		FROM inventory_logs r
		WHERE r.order_id = $1
		  AND r.action = 'reserve'
		  AND NOT EXISTS (
			SELECT 1 FROM inventory_logs rel
			WHERE rel.order_id = r.order_id
			  AND rel.product_id = r.product_id
			  AND rel.action = 'release'
		  )`

	rows, err := s.pool.Query(ctx, q, orderID)
	if err != nil {
		return nil, domain.Internal(err, "productstore.reservations", "query failed")
	}
	defer rows.Close()

	var out []domain.InventoryLog
	for rows.Next() {
		var entry domain.InventoryLog
		if err := rows.Scan(&entry.ID, &entry.OrderID, &entry.ProductID,
			&entry.Action, &entry.Quantity, &entry.CreatedAt); err != nil {
			return nil, domain.Internal(err, "productstore.reservations", "scan failed")
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}
