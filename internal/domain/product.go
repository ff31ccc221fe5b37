package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductStatus controls storefront visibility and purchasability.
type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "active"
	ProductStatusInactive ProductStatus = "inactive"
)

// Product is the catalog view the checkout path needs: price, stock and the
// physical attributes the carrier wants. WeightGrams of zero means the product
// never declared a weight; Dimensions is a free-text "LxWxH" string parsed
// leniently by the fee calculator.
type Product struct {
	ID            uuid.UUID
	Name          string
	SKU           string
	Price         decimal.Decimal
	StockQuantity int32
	WeightGrams   int32
	Dimensions    string
	Status        ProductStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Active reports whether the product can be added to a cart or checked out.
func (p Product) Active() bool {
	return p.Status == ProductStatusActive
}
