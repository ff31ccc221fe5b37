package domain

import (
	"context"

	"github.com/google/uuid"
)

// Store interfaces consumed by the service layer. The postgres package
// provides the production implementations; tests substitute in-memory fakes.

// UserDirectory resolves users by ID.
type UserDirectory interface {
	GetUser(ctx context.Context, id uuid.UUID) (*User, error)
}

// AddressStore persists shipping addresses.
type AddressStore interface {
	GetAddress(ctx context.Context, id uuid.UUID) (*Address, error)
	ListAddressesForUser(ctx context.Context, userID uuid.UUID) ([]Address, error)
	CreateAddress(ctx context.Context, addr *Address) error
	UpdateAddress(ctx context.Context, addr *Address) error
	DeleteAddress(ctx context.Context, id uuid.UUID) error
	// ClearDefaultForUser unsets IsDefault on all of the user's addresses.
	ClearDefaultForUser(ctx context.Context, userID uuid.UUID) error
}

// ProductCatalog exposes the catalog fields checkout needs.
type ProductCatalog interface {
	GetProduct(ctx context.Context, id uuid.UUID) (*Product, error)
}

// CartStore persists carts and cart lines.
type CartStore interface {
	GetCartByUser(ctx context.Context, userID uuid.UUID) (*Cart, error)
	CreateCart(ctx context.Context, cart *Cart) error
	TouchCart(ctx context.Context, cartID uuid.UUID) error

	ListCartItems(ctx context.Context, cartID uuid.UUID) ([]CartItem, error)
	GetCartItem(ctx context.Context, itemID uuid.UUID) (*CartItem, error)
	FindCartItemByProduct(ctx context.Context, cartID, productID uuid.UUID) (*CartItem, error)
	InsertCartItem(ctx context.Context, item *CartItem) error
	UpdateCartItem(ctx context.Context, item *CartItem) error
	DeleteCartItem(ctx context.Context, itemID uuid.UUID) error
	DeleteCartItems(ctx context.Context, cartID uuid.UUID, itemIDs []uuid.UUID) error
	ClearCart(ctx context.Context, cartID uuid.UUID) error
}

// OrderStore persists orders, items and payments.
type OrderStore interface {
	// CreateOrder persists the order and its items atomically.
	CreateOrder(ctx context.Context, order *Order, items []OrderItem) error
	GetOrder(ctx context.Context, id uuid.UUID) (*Order, error)
	// ListOrdersForUser returns the user's orders newest first. A non-empty
	// status restricts the result to that status.
	ListOrdersForUser(ctx context.Context, userID uuid.UUID, status OrderStatus) ([]Order, error)
	UpdateOrder(ctx context.Context, order *Order) error
	ListOrderItems(ctx context.Context, orderID uuid.UUID) ([]OrderItem, error)
	// AddressInUse reports whether any order references the address.
	AddressInUse(ctx context.Context, addressID uuid.UUID) (bool, error)
	CreatePayment(ctx context.Context, payment *Payment) error
}

// PromotionStore persists promotion definitions and redemptions.
type PromotionStore interface {
	GetPromotionByCode(ctx context.Context, code string) (*Promotion, error)
	// IncrementUsage bumps UsedCount; returns false when the usage limit is
	// already exhausted.
	IncrementUsage(ctx context.Context, promotionID uuid.UUID) (bool, error)
	DecrementUsage(ctx context.Context, promotionID uuid.UUID) error
	CreateUsage(ctx context.Context, usage *PromotionUsage) error
	GetUsageByOrder(ctx context.Context, orderID uuid.UUID) (*PromotionUsage, error)
	DeleteUsage(ctx context.Context, usageID uuid.UUID) error
}

// RegionStore is the carrier reference-data lookup surface. All lookups are
// case-insensitive on their string arguments.
type RegionStore interface {
	// FindExact matches on the full (province, city, district, ward) tuple.
	FindExact(ctx context.Context, province, city, district, ward string) (*RegionMapping, error)
	// FindIgnoringCity matches on (province, district, ward) regardless of city.
	FindIgnoringCity(ctx context.Context, province, district, ward string) (*RegionMapping, error)
	// FindWithEmptyCity matches rows whose city is absent in the reference data.
	FindWithEmptyCity(ctx context.Context, province, district, ward string) (*RegionMapping, error)
	// FindByProvinceDistrict returns all ward-agnostic candidates.
	FindByProvinceDistrict(ctx context.Context, province, district string) ([]RegionMapping, error)
	// ReplaceAll swaps the reference data wholesale (master-data sync).
	ReplaceAll(ctx context.Context, mappings []RegionMapping) error
}

// ShipmentStore persists carrier shipments.
type ShipmentStore interface {
	CreateShipment(ctx context.Context, s *Shipment) error
	GetShipmentByOrder(ctx context.Context, orderID uuid.UUID) (*Shipment, error)
	GetShipmentByTracking(ctx context.Context, trackingNumber string) (*Shipment, error)
	UpdateShipment(ctx context.Context, s *Shipment) error
	// ListOpenShipments returns shipments with a tracking number whose status
	// is not terminal, for the background status sync.
	ListOpenShipments(ctx context.Context, limit int32) ([]Shipment, error)
}

// InventoryStore persists stock levels and the movement ledger.
type InventoryStore interface {
	// DecrementStock conditionally subtracts quantity; returns false when the
	// product has less stock than requested (no change applied).
	DecrementStock(ctx context.Context, productID uuid.UUID, quantity int32) (bool, error)
	IncrementStock(ctx context.Context, productID uuid.UUID, quantity int32) error
	CreateInventoryLog(ctx context.Context, entry *InventoryLog) error
	ListReservationsForOrder(ctx context.Context, orderID uuid.UUID) ([]InventoryLog, error)
	// RestoreStock atomically increments the product's stock by the entry's
	// quantity and records the entry in the ledger, so a release is either
	// fully applied or not at all.
	RestoreStock(ctx context.Context, entry *InventoryLog) error
}
