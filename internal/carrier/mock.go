package carrier

import (
	"context"
)

// MockGateway is a test implementation of Gateway. Unset functions return
// ErrUnavailable, matching a carrier outage.
type MockGateway struct {
	CalculateFeeFunc   func(ctx context.Context, req FeeRequest) (*FeeQuote, error)
	CreateOrderFunc    func(ctx context.Context, req CreateOrderRequest) (*CreateOrderResult, error)
	CancelOrderFunc    func(ctx context.Context, orderCode string) error
	GetOrderDetailFunc func(ctx context.Context, orderCode string) (*OrderDetail, error)
	GetProvincesFunc   func(ctx context.Context) ([]Province, error)
	GetDistrictsFunc   func(ctx context.Context, provinceID int32) ([]District, error)
	GetWardsFunc       func(ctx context.Context, districtID int32) ([]Ward, error)
}

func (m *MockGateway) Name() string { return "GHN" }

func (m *MockGateway) CalculateFee(ctx context.Context, req FeeRequest) (*FeeQuote, error) {
	if m.CalculateFeeFunc == nil {
		return nil, ErrUnavailable
	}
	return m.CalculateFeeFunc(ctx, req)
}

func (m *MockGateway) CreateOrder(ctx context.Context, req CreateOrderRequest) (*CreateOrderResult, error) {
	if m.CreateOrderFunc == nil {
		return nil, ErrUnavailable
	}
	return m.CreateOrderFunc(ctx, req)
}

func (m *MockGateway) CancelOrder(ctx context.Context, orderCode string) error {
	if m.CancelOrderFunc == nil {
		return ErrUnavailable
	}
	return m.CancelOrderFunc(ctx, orderCode)
}

func (m *MockGateway) GetOrderDetail(ctx context.Context, orderCode string) (*OrderDetail, error) {
	if m.GetOrderDetailFunc == nil {
		return nil, ErrUnavailable
	}
	return m.GetOrderDetailFunc(ctx, orderCode)
}

func (m *MockGateway) GetProvinces(ctx context.Context) ([]Province, error) {
	if m.GetProvincesFunc == nil {
		return nil, ErrUnavailable
	}
	return m.GetProvincesFunc(ctx)
}

func (m *MockGateway) GetDistricts(ctx context.Context, provinceID int32) ([]District, error) {
	if m.GetDistrictsFunc == nil {
		return nil, ErrUnavailable
	}
	return m.GetDistrictsFunc(ctx, provinceID)
}

func (m *MockGateway) GetWards(ctx context.Context, districtID int32) ([]Ward, error) {
	if m.GetWardsFunc == nil {
		return nil, ErrUnavailable
	}
	return m.GetWardsFunc(ctx, districtID)
}
