package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ShipmentStatus mirrors the carrier's delivery lifecycle.
type ShipmentStatus string

const (
	ShipmentStatusPending        ShipmentStatus = "pending"
	ShipmentStatusPickedUp       ShipmentStatus = "picked_up"
	ShipmentStatusInTransit      ShipmentStatus = "in_transit"
	ShipmentStatusOutForDelivery ShipmentStatus = "out_for_delivery"
	ShipmentStatusDelivered      ShipmentStatus = "delivered"
	ShipmentStatusReturned       ShipmentStatus = "returned"
	ShipmentStatusException      ShipmentStatus = "exception"
	ShipmentStatusLost           ShipmentStatus = "lost"
	ShipmentStatusCancelled      ShipmentStatus = "cancelled"
	ShipmentStatusFailed         ShipmentStatus = "failed"
)

// Terminal reports whether the shipment can still change state at the carrier.
func (s ShipmentStatus) Terminal() bool {
	switch s {
	case ShipmentStatusDelivered, ShipmentStatusReturned, ShipmentStatusLost,
		ShipmentStatusCancelled, ShipmentStatusFailed:
		return true
	}
	return false
}

// ShipmentStatusFromCarrier translates a carrier status string to ours.
// Returns "" for unknown statuses so callers can leave the row unchanged.
func ShipmentStatusFromCarrier(carrierStatus string) ShipmentStatus {
	switch carrierStatus {
	case "ready_to_pick", "picking":
		return ShipmentStatusPending
	case "picked":
		return ShipmentStatusPickedUp
	case "storing", "transporting":
		return ShipmentStatusInTransit
	case "sorting", "delivering":
		return ShipmentStatusOutForDelivery
	case "delivered":
		return ShipmentStatusDelivered
	case "return", "return_transporting", "return_sorting", "returned":
		return ShipmentStatusReturned
	case "exception", "damage":
		return ShipmentStatusException
	case "lost":
		return ShipmentStatusLost
	case "cancel":
		return ShipmentStatusCancelled
	case "failed":
		return ShipmentStatusFailed
	}
	return ""
}

// Shipment is the carrier-side record for an order. TrackingNumber is empty
// while the shipment is pending at the carrier (e.g. the destination could not
// be mapped to a carrier region at confirm time); CarrierResponse keeps the raw
// carrier payload, or a reason document when no carrier call was made.
type Shipment struct {
	ID                uuid.UUID
	OrderID           uuid.UUID
	TrackingNumber    string
	Carrier           string
	Status            ShipmentStatus
	PickupAddress     string
	DeliveryAddress   string
	WeightGrams       int32
	ShippingCost      decimal.Decimal
	CarrierResponse   string
	EstimatedDelivery *time.Time
	ShippedAt         *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// RegionMapping is one row of carrier reference data: a normalized
// (province, city, district, ward) tuple and the carrier codes it routes to.
// Static at request time; refreshed by the master-data sync.
type RegionMapping struct {
	ID                int64
	Province          string
	City              string
	District          string
	Ward              string
	CarrierDistrictID int32
	CarrierWardCode   string
}

// InventoryLogAction distinguishes ledger entries.
type InventoryLogAction string

const (
	InventoryActionReserve InventoryLogAction = "reserve"
	InventoryActionRelease InventoryLogAction = "release"
)

// InventoryLog is one ledger entry for a stock movement tied to an order.
type InventoryLog struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	ProductID uuid.UUID
	Action    InventoryLogAction
	Quantity  int32
	CreatedAt time.Time
}
