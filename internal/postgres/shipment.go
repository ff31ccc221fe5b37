package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/minhdn/cuestore/internal/domain"
)

// ShipmentStore implements domain.ShipmentStore.
type ShipmentStore struct {
	pool *pgxpool.Pool
}

var _ domain.ShipmentStore = (*ShipmentStore)(nil)

func NewShipmentStore(pool *pgxpool.Pool) *ShipmentStore {
	return &ShipmentStore{pool: pool}
}

const shipmentColumns = `
	id, order_id, tracking_number, carrier, status,
	pickup_address, delivery_address, weight_grams, shipping_cost,
	carrier_response, estimated_delivery, shipped_at, created_at, updated_at`

func scanShipment(row interface{ Scan(...any) error }) (*domain.Shipment, error) {
	var sh domain.Shipment
	err := row.Scan(
		&sh.ID, &sh.OrderID, &sh.TrackingNumber, &sh.Carrier, &sh.Status,
		&sh.PickupAddress, &sh.DeliveryAddress, &sh.WeightGrams, &sh.ShippingCost,
		&sh.CarrierResponse, &sh.EstimatedDelivery, &sh.ShippedAt,
		&sh.CreatedAt, &sh.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &sh, nil
}

func (s *ShipmentStore) CreateShipment(ctx context.Context, sh *domain.Shipment) error {
	const q = `
		INSERT INTO shipments (
			id, order_id, tracking_number, carrier, status,
			pickup_address, delivery_address, weight_grams, shipping_cost,
			carrier_response, estimated_delivery, shipped_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := s.pool.Exec(ctx, q,
		sh.ID, sh.OrderID, sh.TrackingNumber, sh.Carrier, sh.Status,
		sh.PickupAddress, sh.DeliveryAddress, sh.WeightGrams, sh.ShippingCost,
		sh.CarrierResponse, sh.EstimatedDelivery, sh.ShippedAt,
		sh.CreatedAt, sh.UpdatedAt)
	if err != nil {
		return domain.Internal(err, "shipmentstore.create", "insert failed")
	}
	return nil
}

func (s *ShipmentStore) GetShipmentByOrder(ctx context.Context, orderID uuid.UUID) (*domain.Shipment, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT`+shipmentColumns+` FROM shipments WHERE order_id = $1`, orderID)
	sh, err := scanShipment(row)
	if err != nil {
		return nil, notFound(err, "shipmentstore.by_order", "shipment", orderID.String())
	}
	return sh, nil
}

func (s *ShipmentStore) GetShipmentByTracking(ctx context.Context, trackingNumber string) (*domain.Shipment, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT`+shipmentColumns+` FROM shipments WHERE tracking_number = $1`, trackingNumber)
	sh, err := scanShipment(row)
	if err != nil {
		return nil, notFound(err, "shipmentstore.by_tracking", "shipment", trackingNumber)
	}
	return sh, nil
}

func (s *ShipmentStore) UpdateShipment(ctx context.Context, sh *domain.Shipment) error {
	const q = `
		UPDATE shipments SET
			tracking_number = $2, status = $3, shipping_cost = $4,
			carrier_response = $5, estimated_delivery = $6, shipped_at = $7,
			updated_at = NOW()
		WHERE id = $1`

	_, err := s.pool.Exec(ctx, q,
		sh.ID, sh.TrackingNumber, sh.Status, sh.ShippingCost,
		sh.CarrierResponse, sh.EstimatedDelivery, sh.ShippedAt)
	if err != nil {
		return domain.Internal(err, "shipmentstore.update", "update failed")
	}
	return nil
}

// ListOpenShipments returns shipments the carrier may still move: a tracking
// number exists and the status is not terminal.
func (s *ShipmentStore) ListOpenShipments(ctx context.Context, limit int32) ([]domain.Shipment, error) {
	const q = `
		SELECT` + shipmentColumns + `
		FROM shipments
		WHERE tracking_number <> ''
		  AND status NOT IN ('delivered', 'returned', 'lost', 'cancelled', 'failed')
		ORDER BY updated_at
		LIMIT $1`

	rows, err := s.pool.Query(ctx, q, limit)
	if err != nil {
		return nil, domain.Internal(err, "shipmentstore.open", "query failed")
	}
	defer rows.Close()

	var out []domain.Shipment
	for rows.Next() {
		sh, err := scanShipment(rows)
		if err != nil {
			return nil, domain.Internal(err, "shipmentstore.open", "scan failed")
		}
		out = append(out, *sh)
	}
	return out, rows.Err()
}
