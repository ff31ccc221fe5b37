package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus tracks an order through its lifecycle.
// Transitions are linear: PENDING → CONFIRMED → SHIPPED → DELIVERED,
// with PENDING and CONFIRMED also allowed to move to CANCELLED.
// CANCELLED and DELIVERED are terminal.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// CanConfirm reports whether the order may transition to CONFIRMED.
func (s OrderStatus) CanConfirm() bool {
	return s == OrderStatusPending
}

// CanCancel reports whether the order may transition to CANCELLED.
func (s OrderStatus) CanCancel() bool {
	return s == OrderStatusPending || s == OrderStatusConfirmed
}

// Valid reports whether s is one of the known order statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// PaymentStatus tracks payment settlement for an order.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusRefunded PaymentStatus = "refunded"
	PaymentStatusFailed   PaymentStatus = "failed"
)

// Order is the persisted record of a checkout.
// Money fields use fixed-point decimals at scale 2; the invariant
// TotalAmount == Subtotal + ShippingCost - DiscountAmount holds at all times
// and TotalAmount is never negative.
type Order struct {
	ID            uuid.UUID
	OrderNumber   string
	UserID        uuid.UUID
	Status        OrderStatus
	PaymentStatus PaymentStatus

	// Customer contact captured at order time.
	CustomerName  string
	CustomerEmail string
	CustomerPhone string

	// ShippingAddress is the denormalized, formatted destination.
	// AddressID references the address row used at checkout so the
	// shipment can re-resolve the carrier region later.
	ShippingAddress string
	AddressID       uuid.UUID
	ShippingMethod  string
	ShippingCost    decimal.Decimal

	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	TotalAmount    decimal.Decimal

	Notes        string
	AdminNotes   string
	CancelReason string

	CreatedAt   time.Time
	UpdatedAt   time.Time
	ConfirmedAt *time.Time
	ShippedAt   *time.Time
	DeliveredAt *time.Time
	CancelledAt *time.Time
}

// OrderItem is a line captured at order-creation time. Product name and SKU
// are copied, not referenced, so order history survives later catalog edits.
// Items are immutable once written.
type OrderItem struct {
	ID          uuid.UUID
	OrderID     uuid.UUID
	ProductID   uuid.UUID
	ProductName string
	ProductSKU  string
	Quantity    int32
	UnitPrice   decimal.Decimal
	LineTotal   decimal.Decimal
	CreatedAt   time.Time
}

// Payment is the settlement record created when an order is confirmed.
type Payment struct {
	ID          uuid.UUID
	PaymentCode string
	OrderID     uuid.UUID
	Amount      decimal.Decimal
	Method      string
	Status      PaymentStatus
	CreatedAt   time.Time
}
