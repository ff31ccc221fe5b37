package service

import (
	"github.com/minhdn/cuestore/internal/domain"
)

// Lookup errors - use domain.ENOTFOUND
var (
	ErrProductNotFound  = domain.Errorf(domain.ENOTFOUND, "", "Product not found")
	ErrCartItemNotFound = domain.Errorf(domain.ENOTFOUND, "", "Cart item not found")
	ErrAddressNotFound  = domain.Errorf(domain.ENOTFOUND, "", "Address not found")
	ErrOrderNotFound    = domain.Errorf(domain.ENOTFOUND, "", "Order not found")
	ErrShipmentNotFound = domain.Errorf(domain.ENOTFOUND, "", "Shipment not found")
	ErrUserNotFound     = domain.Errorf(domain.ENOTFOUND, "", "User not found")
)

// Validation errors - use domain.EINVALID
var (
	ErrInvalidQuantity = domain.Errorf(domain.EINVALID, "", "Quantity must be greater than 0")
	ErrEmptyCart       = domain.Errorf(domain.EINVALID, "", "Cart is empty")
	ErrEmptySelection  = domain.Errorf(domain.EINVALID, "", "No cart items selected")
)

// Domain rule rejections - use domain.EUNPROCESSABLE
var (
	ErrProductInactive = domain.Errorf(domain.EUNPROCESSABLE, "", "Product is not available for purchase")
)

// State conflicts - use domain.ECONFLICT
var (
	ErrOrderAlreadyConfirmed = domain.Errorf(domain.ECONFLICT, "", "Order has already been confirmed")
	ErrOrderCannotCancel     = domain.Errorf(domain.ECONFLICT, "", "Order can no longer be cancelled")
	ErrAddressInUse          = domain.Errorf(domain.ECONFLICT, "", "Address is referenced by an order and cannot be deleted")
)
