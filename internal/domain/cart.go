package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Cart is a user's persisted shopping cart. One cart per user.
type Cart struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CartItem is a persisted cart line. Unit price is captured when the item is
// added and refreshed to the catalog price during checkout validation.
type CartItem struct {
	ID        uuid.UUID
	CartID    uuid.UUID
	ProductID uuid.UUID
	Quantity  int32
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal
	AddedAt   time.Time
	UpdatedAt time.Time
}

// SelectedCartItem narrows a checkout to specific cart lines with an optional
// quantity override. A zero Quantity means "use the cart line's quantity".
type SelectedCartItem struct {
	CartItemID uuid.UUID
	Quantity   int32
}

// CartSnapshotLine is a derived, priced view of one cart line. It is
// recomputed per request and never persisted; LineTotal == UnitPrice * Quantity
// and Quantity <= AvailableStock hold at snapshot time.
type CartSnapshotLine struct {
	CartItemID     uuid.UUID
	ProductID      uuid.UUID
	ProductName    string
	ProductSKU     string
	UnitPrice      decimal.Decimal
	Quantity       int32
	LineTotal      decimal.Decimal
	AvailableStock int32
	WeightGrams    int32  // 0 when the product never declared a weight
	Dimensions     string // free-text "LxWxH", may be empty
}

// CartSnapshot is an immutable, priced view of a user's selected cart lines.
type CartSnapshot struct {
	UserID     uuid.UUID
	Lines      []CartSnapshotLine
	TotalItems int32
	Subtotal   decimal.Decimal
}
