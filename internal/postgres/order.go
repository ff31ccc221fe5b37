package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/minhdn/cuestore/internal/domain"
)

// OrderStore implements domain.OrderStore.
type OrderStore struct {
	pool *pgxpool.Pool
}

var _ domain.OrderStore = (*OrderStore)(nil)

func NewOrderStore(pool *pgxpool.Pool) *OrderStore {
	return &OrderStore{pool: pool}
}

const orderColumns = `
	id, order_number, user_id, status, payment_status,
	customer_name, customer_email, customer_phone,
	shipping_address, address_id, shipping_method, shipping_cost,
	subtotal, discount_amount, total_amount,
	notes, admin_notes, cancel_reason,
	created_at, updated_at, confirmed_at, shipped_at, delivered_at, cancelled_at`

func scanOrder(row interface{ Scan(...any) error }) (*domain.Order, error) {
	var o domain.Order
	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.UserID, &o.Status, &o.PaymentStatus,
		&o.CustomerName, &o.CustomerEmail, &o.CustomerPhone,
		&o.ShippingAddress, &o.AddressID, &o.ShippingMethod, &o.ShippingCost,
		&o.Subtotal, &o.DiscountAmount, &o.TotalAmount,
		&o.Notes, &o.AdminNotes, &o.CancelReason,
		&o.CreatedAt, &o.UpdatedAt, &o.ConfirmedAt, &o.ShippedAt,
		&o.DeliveredAt, &o.CancelledAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// CreateOrder inserts the order and its items in one transaction so a partial
// order can never be observed.
func (s *OrderStore) CreateOrder(ctx context.Context, order *domain.Order, items []domain.OrderItem) error {
	const op = "orderstore.create"

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return domain.Internal(err, op, "begin transaction")
	}
	defer tx.Rollback(ctx)

	const insertOrder = `
		INSERT INTO orders (
			id, order_number, user_id, status, payment_status,
			customer_name, customer_email, customer_phone,
			shipping_address, address_id, shipping_method, shipping_cost,
			subtotal, discount_amount, total_amount,
			notes, admin_notes, cancel_reason,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $19, $20
		)`

	_, err = tx.Exec(ctx, insertOrder,
		order.ID, order.OrderNumber, order.UserID, order.Status, order.PaymentStatus,
		order.CustomerName, order.CustomerEmail, order.CustomerPhone,
		order.ShippingAddress, order.AddressID, order.ShippingMethod, order.ShippingCost,
		order.Subtotal, order.DiscountAmount, order.TotalAmount,
		order.Notes, order.AdminNotes, order.CancelReason,
		order.CreatedAt, order.UpdatedAt)
	if err != nil {
		return domain.Internal(err, op, "insert order")
	}

	const insertItem = `
		INSERT INTO order_items (
			id, order_id, product_id, product_name, product_sku,
			quantity, unit_price, line_total, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	for _, item := range items {
		_, err = tx.Exec(ctx, insertItem,
			item.ID, item.OrderID, item.ProductID, item.ProductName, item.ProductSKU,
			item.Quantity, item.UnitPrice, item.LineTotal, item.CreatedAt)
		if err != nil {
			return domain.Internal(err, op, "insert order item")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Internal(err, op, "commit transaction")
	}
	return nil
}

func (s *OrderStore) GetOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	row := s.pool.QueryRow(ctx, `SELECT`+orderColumns+` FROM orders WHERE id = $1`, id)
	order, err := scanOrder(row)
	if err != nil {
		return nil, notFound(err, "orderstore.get", "order", id.String())
	}
	return order, nil
}

func (s *OrderStore) ListOrdersForUser(ctx context.Context, userID uuid.UUID, status domain.OrderStatus) ([]domain.Order, error) {
	q := `SELECT` + orderColumns + ` FROM orders WHERE user_id = $1`
	args := []any{userID}
	if status != "" {
		q += ` AND status = $2`
		args = append(args, status)
	}
	q += ` ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, domain.Internal(err, "orderstore.list", "query failed")
	}
	defer rows.Close()

	var out []domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, domain.Internal(err, "orderstore.list", "scan failed")
		}
		out = append(out, *order)
	}
	return out, rows.Err()
}

func (s *OrderStore) UpdateOrder(ctx context.Context, order *domain.Order) error {
	const q = `
		UPDATE orders SET
			status = $2, payment_status = $3, shipping_cost = $4,
			discount_amount = $5, total_amount = $6,
			notes = $7, admin_notes = $8, cancel_reason = $9,
			updated_at = NOW(), confirmed_at = $10, shipped_at = $11,
			delivered_at = $12, cancelled_at = $13
		WHERE id = $1`

	_, err := s.pool.Exec(ctx, q,
		order.ID, order.Status, order.PaymentStatus, order.ShippingCost,
		order.DiscountAmount, order.TotalAmount,
		order.Notes, order.AdminNotes, order.CancelReason,
		order.ConfirmedAt, order.ShippedAt, order.DeliveredAt, order.CancelledAt)
	if err != nil {
		return domain.Internal(err, "orderstore.update", "update failed")
	}
	return nil
}

func (s *OrderStore) ListOrderItems(ctx context.Context, orderID uuid.UUID) ([]domain.OrderItem, error) {
	const q = `
		SELECT id, order_id, product_id, product_name, product_sku,
		       quantity, unit_price, line_total, created_at
		FROM order_items
		WHERE order_id = $1
		ORDER BY created_at`

	rows, err := s.pool.Query(ctx, q, orderID)
	if err != nil {
		return nil, domain.Internal(err, "orderstore.items", "query failed")
	}
	defer rows.Close()

	var out []domain.OrderItem
	for rows.Next() {
		var it domain.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName,
			&it.ProductSKU, &it.Quantity, &it.UnitPrice, &it.LineTotal, &it.CreatedAt); err != nil {
			return nil, domain.Internal(err, "orderstore.items", "scan failed")
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (s *OrderStore) AddressInUse(ctx context.Context, addressID uuid.UUID) (bool, error) {
	var inUse bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM orders WHERE address_id = $1)`, addressID).Scan(&inUse)
	if err != nil {
		return false, domain.Internal(err, "orderstore.address_in_use", "query failed")
	}
	return inUse, nil
}

func (s *OrderStore) CreatePayment(ctx context.Context, payment *domain.Payment) error {
	const q = `
		INSERT INTO payments (id, payment_code, order_id, amount, method, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := s.pool.Exec(ctx, q,
		payment.ID, payment.PaymentCode, payment.OrderID, payment.Amount,
		payment.Method, payment.Status, payment.CreatedAt)
	if err != nil {
		return domain.Internal(err, "orderstore.create_payment", "insert failed")
	}
	return nil
}
