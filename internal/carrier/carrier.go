package carrier

import (
	"context"
	"errors"
)

var (
	// ErrUnavailable is returned when the carrier API cannot be reached or
	// returns a non-success envelope. Callers decide whether this is fatal;
	// fee quoting and shipment creation treat it as a soft failure.
	ErrUnavailable = errors.New("carrier unavailable")
)

// Gateway defines the carrier operations checkout and fulfillment depend on.
// The production implementation talks to GHN (Giao Hàng Nhanh); tests use
// MockGateway.
type Gateway interface {
	// Name identifies the carrier (e.g. "GHN") for shipment records.
	Name() string

	// CalculateFee quotes the delivery fee for a parcel between two regions.
	CalculateFee(ctx context.Context, req FeeRequest) (*FeeQuote, error)

	// CreateOrder registers a shipping order and returns the carrier's
	// tracking code.
	CreateOrder(ctx context.Context, req CreateOrderRequest) (*CreateOrderResult, error)

	// CancelOrder cancels a shipping order by tracking code.
	CancelOrder(ctx context.Context, orderCode string) error

	// GetOrderDetail fetches the current carrier-side state of an order.
	GetOrderDetail(ctx context.Context, orderCode string) (*OrderDetail, error)

	// Master-data listings, used by the region reference sync.
	GetProvinces(ctx context.Context) ([]Province, error)
	GetDistricts(ctx context.Context, provinceID int32) ([]District, error)
	GetWards(ctx context.Context, districtID int32) ([]Ward, error)
}

// FeeRequest is the body of the fee quote call. The carrier API is
// inconsistent about whether it honors service_id or service_type_id, so both
// are always sent.
type FeeRequest struct {
	FromDistrictID int32  `json:"from_district_id"`
	FromWardCode   string `json:"from_ward_code"`
	ToDistrictID   int32  `json:"to_district_id"`
	ToWardCode     string `json:"to_ward_code"`
	WeightGrams    int32  `json:"weight"`
	LengthCm       int32  `json:"length"`
	WidthCm        int32  `json:"width"`
	HeightCm       int32  `json:"height"`
	ServiceID      int32  `json:"service_id"`
	ServiceTypeID  int32  `json:"service_type_id"`
	InsuranceValue int64  `json:"insurance_value,omitempty"`
	Coupon         string `json:"coupon,omitempty"`
}

// FeeQuote is the fee quote payload. Amounts are in VND, which has no
// subunits, so the carrier speaks in integers.
type FeeQuote struct {
	Total        int64 `json:"total"`
	ServiceFee   int64 `json:"service_fee"`
	InsuranceFee int64 `json:"insurance_fee"`
}

// OrderItem is one parcel line in a shipping order.
type OrderItem struct {
	Name     string `json:"name"`
	Code     string `json:"code"`
	Quantity int32  `json:"quantity"`
	Price    int64  `json:"price"`
	Weight   int32  `json:"weight"`
	Length   int32  `json:"length"`
	Width    int32  `json:"width"`
	Height   int32  `json:"height"`
}

// CreateOrderRequest is the body of the shipping-order create call.
type CreateOrderRequest struct {
	FromName      string      `json:"from_name"`
	FromPhone     string      `json:"from_phone"`
	FromAddress   string      `json:"from_address"`
	ToName        string      `json:"to_name"`
	ToPhone       string      `json:"to_phone"`
	ToAddress     string      `json:"to_address"`
	ToDistrictID  int32       `json:"to_district_id"`
	ToWardCode    string      `json:"to_ward_code"`
	PaymentTypeID int32       `json:"payment_type_id"`
	Content       string      `json:"content"`
	CODAmount     int64       `json:"cod_amount,omitempty"`
	Items         []OrderItem `json:"items"`
	WeightGrams   int32       `json:"weight"`
	LengthCm      int32       `json:"length"`
	WidthCm       int32       `json:"width"`
	HeightCm      int32       `json:"height"`
	ServiceID     int32       `json:"service_id"`
	ServiceTypeID int32       `json:"service_type_id"`
}

// CreateOrderResult is the payload returned on successful order creation.
type CreateOrderResult struct {
	OrderCode            string `json:"order_code"`
	TotalFee             int64  `json:"total_fee"`
	ExpectedDeliveryTime string `json:"expected_delivery_time"`
}

// OrderDetail is the carrier-side view of an order, fetched during tracking
// and the background status sync.
type OrderDetail struct {
	OrderCode   string     `json:"order_code"`
	Status      string     `json:"status"`
	MoneyTotal  int64      `json:"money_total"`
	MoneyFee    int64      `json:"money_fee"`
	Weight      int32      `json:"weight"`
	CODAmount   int64      `json:"cod_amount"`
	PickTime    string     `json:"pick_time"`
	DeliverTime string     `json:"deliver_time"`
	Log         []OrderLog `json:"log"`
}

// OrderLog is one tracking event on an order.
type OrderLog struct {
	Status     string `json:"status"`
	ActionAt   string `json:"action_at"`
	ReasonCode string `json:"reason_code"`
	Reason     string `json:"reason"`
	Location   string `json:"location"`
}

// Master-data types. The carrier's listing endpoints use PascalCase keys,
// unlike the rest of its API.

type Province struct {
	ProvinceID   int32  `json:"ProvinceID"`
	ProvinceName string `json:"ProvinceName"`
	Code         string `json:"Code"`
}

type District struct {
	DistrictID   int32  `json:"DistrictID"`
	ProvinceID   int32  `json:"ProvinceID"`
	DistrictName string `json:"DistrictName"`
	Code         string `json:"Code"`
}

type Ward struct {
	WardCode   string `json:"WardCode"`
	DistrictID int32  `json:"DistrictID"`
	WardName   string `json:"WardName"`
}
