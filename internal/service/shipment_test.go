package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minhdn/cuestore/internal/carrier"
	"github.com/minhdn/cuestore/internal/domain"
	"github.com/minhdn/cuestore/internal/shipping"
	"github.com/minhdn/cuestore/internal/telemetry"
)

func shipmentsCreatedCount(outcome string) float64 {
	return testutil.ToFloat64(telemetry.Checkout.ShipmentsCreated.WithLabelValues(outcome))
}

// mockShipmentStore keeps shipments in memory.
type mockShipmentStore struct {
	byOrder    map[uuid.UUID]*domain.Shipment
	byTracking map[string]*domain.Shipment
}

func newMockShipmentStore() *mockShipmentStore {
	return &mockShipmentStore{
		byOrder:    make(map[uuid.UUID]*domain.Shipment),
		byTracking: make(map[string]*domain.Shipment),
	}
}

func (m *mockShipmentStore) CreateShipment(_ context.Context, s *domain.Shipment) error {
	m.byOrder[s.OrderID] = s
	if s.TrackingNumber != "" {
		m.byTracking[s.TrackingNumber] = s
	}
	return nil
}

func (m *mockShipmentStore) GetShipmentByOrder(_ context.Context, orderID uuid.UUID) (*domain.Shipment, error) {
	s, ok := m.byOrder[orderID]
	if !ok {
		return nil, domain.NotFound("shipmentstore.get", "shipment", orderID.String())
	}
	return s, nil
}

func (m *mockShipmentStore) GetShipmentByTracking(_ context.Context, tracking string) (*domain.Shipment, error) {
	s, ok := m.byTracking[tracking]
	if !ok {
		return nil, domain.NotFound("shipmentstore.get", "shipment", tracking)
	}
	return s, nil
}

func (m *mockShipmentStore) UpdateShipment(_ context.Context, s *domain.Shipment) error {
	m.byOrder[s.OrderID] = s
	if s.TrackingNumber != "" {
		m.byTracking[s.TrackingNumber] = s
	}
	return nil
}

func (m *mockShipmentStore) ListOpenShipments(_ context.Context, _ int32) ([]domain.Shipment, error) {
	var out []domain.Shipment
	for _, s := range m.byOrder {
		if s.TrackingNumber != "" && !s.Status.Terminal() {
			out = append(out, *s)
		}
	}
	return out, nil
}

// fixedResolver resolves every address to one mapping, or fails.
type fixedResolver struct {
	mapping *domain.RegionMapping
	err     error
}

func (r *fixedResolver) Resolve(context.Context, domain.Address) (*domain.RegionMapping, error) {
	return r.mapping, r.err
}

type shipmentFixture struct {
	svc       ShipmentService
	gateway   *carrier.MockGateway
	store     *mockShipmentStore
	orders    *mockOrderStore
	resolver  *fixedResolver
	order     *domain.Order
	addressID uuid.UUID
}

func newShipmentFixture(t *testing.T) *shipmentFixture {
	t.Helper()

	userID := uuid.New()
	addressID := uuid.New()
	productID := uuid.New()

	orders := newMockOrderStore()
	order := &domain.Order{
		ID:              uuid.New(),
		OrderNumber:     "ORD-01J5TEST",
		UserID:          userID,
		Status:          domain.OrderStatusConfirmed,
		PaymentStatus:   domain.PaymentStatusPending,
		AddressID:       addressID,
		ShippingAddress: "12 Lê Lợi, Bến Nghé, 1, Hồ Chí Minh",
		ShippingMethod:  shipping.MethodStandard,
		ShippingCost:    money("30000"),
		TotalAmount:     money("530000"),
	}
	require.NoError(t, orders.CreateOrder(context.Background(), order, []domain.OrderItem{
		{
			ID:          uuid.New(),
			OrderID:     order.ID,
			ProductID:   productID,
			ProductName: "Predator P3 cue",
			ProductSKU:  "CUE-P3",
			Quantity:    2,
			UnitPrice:   money("250000"),
		},
	}))

	addresses := &mockAddressStore{addresses: map[uuid.UUID]*domain.Address{
		addressID: {
			ID:            addressID,
			UserID:        userID,
			RecipientName: "Nguyễn Văn A",
			Phone:         "0901234567",
			AddressLine:   "12 Lê Lợi",
			Ward:          "Bến Nghé",
			District:      "1",
			Province:      "Hồ Chí Minh",
		},
	}}
	catalog := &mockCatalog{products: map[uuid.UUID]*domain.Product{
		productID: {
			ID:          productID,
			Name:        "Predator P3 cue",
			WeightGrams: 900,
			Dimensions:  "147x4x4",
			Status:      domain.ProductStatusActive,
		},
	}}

	f := &shipmentFixture{
		gateway:   &carrier.MockGateway{},
		store:     newMockShipmentStore(),
		orders:    orders,
		resolver:  &fixedResolver{mapping: &domain.RegionMapping{CarrierDistrictID: 1442, CarrierWardCode: "20101"}},
		order:     order,
		addressID: addressID,
	}
	f.svc = NewShipmentService(
		f.gateway, f.store, orders, addresses, catalog, f.resolver,
		ShopInfo{
			Name:    "Cue Store",
			Phone:   "0287654321",
			Address: "45 Nguyễn Huệ, Bến Nghé, 1, Hồ Chí Minh",
			Origin:  shipping.ShopOrigin{DistrictID: 1442, WardCode: "20109"},
		},
		slog.New(slog.DiscardHandler),
	)
	return f
}

func TestCreateForOrder(t *testing.T) {
	f := newShipmentFixture(t)
	okBefore := shipmentsCreatedCount("ok")

	var captured carrier.CreateOrderRequest
	f.gateway.CreateOrderFunc = func(_ context.Context, req carrier.CreateOrderRequest) (*carrier.CreateOrderResult, error) {
		captured = req
		return &carrier.CreateOrderResult{
			OrderCode:            "GHN123ABC",
			TotalFee:             32000,
			ExpectedDeliveryTime: "2026-09-02T16:00:00Z",
		}, nil
	}

	shipment, err := f.svc.CreateForOrder(context.Background(), f.order)
	require.NoError(t, err)
	assert.Equal(t, "GHN123ABC", shipment.TrackingNumber)
	assert.Equal(t, domain.ShipmentStatusPending, shipment.Status)
	assert.True(t, shipment.ShippingCost.Equal(money("32000")))
	require.NotNil(t, shipment.EstimatedDelivery)
	assert.Equal(t, int32(1800), shipment.WeightGrams)

	// carrier request carries the recipient, region codes and COD amount
	assert.Equal(t, "Nguyễn Văn A", captured.ToName)
	assert.Equal(t, int32(1442), captured.ToDistrictID)
	assert.Equal(t, "20101", captured.ToWardCode)
	assert.Equal(t, int64(530000), captured.CODAmount, "pending payment collects on delivery")
	require.Len(t, captured.Items, 1)
	assert.Equal(t, int32(900), captured.Items[0].Weight)
	assert.Equal(t, int32(147), captured.Items[0].Length)
	assert.Equal(t, okBefore+1, shipmentsCreatedCount("ok"))
}

func TestCreateForOrderUnmappedAddressStaysPending(t *testing.T) {
	f := newShipmentFixture(t)
	f.resolver.mapping = nil
	f.resolver.err = domain.Unprocessable("region.Resolve", "delivery location is not supported")
	before := shipmentsCreatedCount("pending_location")

	shipment, err := f.svc.CreateForOrder(context.Background(), f.order)
	require.NoError(t, err, "an unmapped address must not fail shipment creation")
	assert.Empty(t, shipment.TrackingNumber)
	assert.Equal(t, domain.ShipmentStatusPending, shipment.Status)
	assert.Contains(t, shipment.CarrierResponse, "LOCATION_NOT_MAPPED")
	assert.Equal(t, before+1, shipmentsCreatedCount("pending_location"))
}

func TestCreateForOrderCarrierOutageStaysPending(t *testing.T) {
	f := newShipmentFixture(t)
	// no CreateOrderFunc configured: the gateway reports an outage
	before := shipmentsCreatedCount("pending_carrier")

	shipment, err := f.svc.CreateForOrder(context.Background(), f.order)
	require.NoError(t, err)
	assert.Empty(t, shipment.TrackingNumber)
	assert.Contains(t, shipment.CarrierResponse, "CARRIER_API_FAILED")
	assert.Equal(t, before+1, shipmentsCreatedCount("pending_carrier"))
}

func TestCreateForOrderPaidOrderHasNoCOD(t *testing.T) {
	f := newShipmentFixture(t)
	f.order.PaymentStatus = domain.PaymentStatusPaid

	var captured carrier.CreateOrderRequest
	f.gateway.CreateOrderFunc = func(_ context.Context, req carrier.CreateOrderRequest) (*carrier.CreateOrderResult, error) {
		captured = req
		return &carrier.CreateOrderResult{OrderCode: "GHN456DEF"}, nil
	}

	_, err := f.svc.CreateForOrder(context.Background(), f.order)
	require.NoError(t, err)
	assert.Zero(t, captured.CODAmount)
}

func TestCancelForOrder(t *testing.T) {
	f := newShipmentFixture(t)
	f.gateway.CreateOrderFunc = func(context.Context, carrier.CreateOrderRequest) (*carrier.CreateOrderResult, error) {
		return &carrier.CreateOrderResult{OrderCode: "GHN123ABC"}, nil
	}
	_, err := f.svc.CreateForOrder(context.Background(), f.order)
	require.NoError(t, err)

	cancelled := false
	f.gateway.CancelOrderFunc = func(_ context.Context, code string) error {
		cancelled = true
		assert.Equal(t, "GHN123ABC", code)
		return nil
	}

	require.NoError(t, f.svc.CancelForOrder(context.Background(), f.order.ID))
	assert.True(t, cancelled)

	shipment, err := f.svc.GetByOrder(context.Background(), f.order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ShipmentStatusCancelled, shipment.Status)
}

func TestCancelForOrderWithoutShipmentIsNoop(t *testing.T) {
	f := newShipmentFixture(t)
	assert.NoError(t, f.svc.CancelForOrder(context.Background(), uuid.New()))
}

func TestTrackRefreshesFromCarrier(t *testing.T) {
	f := newShipmentFixture(t)
	f.gateway.CreateOrderFunc = func(context.Context, carrier.CreateOrderRequest) (*carrier.CreateOrderResult, error) {
		return &carrier.CreateOrderResult{OrderCode: "GHN123ABC"}, nil
	}
	_, err := f.svc.CreateForOrder(context.Background(), f.order)
	require.NoError(t, err)

	f.gateway.GetOrderDetailFunc = func(context.Context, string) (*carrier.OrderDetail, error) {
		return &carrier.OrderDetail{
			OrderCode: "GHN123ABC",
			Status:    "delivering",
			PickTime:  "2026-08-30 09:15:00",
		}, nil
	}

	shipment, err := f.svc.Track(context.Background(), "GHN123ABC")
	require.NoError(t, err)
	assert.Equal(t, domain.ShipmentStatusOutForDelivery, shipment.Status)
	require.NotNil(t, shipment.ShippedAt)
	assert.Equal(t, time.Date(2026, 8, 30, 9, 15, 0, 0, time.UTC), shipment.ShippedAt.UTC())
}

func TestSyncOpenShipments(t *testing.T) {
	f := newShipmentFixture(t)
	f.gateway.CreateOrderFunc = func(context.Context, carrier.CreateOrderRequest) (*carrier.CreateOrderResult, error) {
		return &carrier.CreateOrderResult{OrderCode: "GHN123ABC"}, nil
	}
	_, err := f.svc.CreateForOrder(context.Background(), f.order)
	require.NoError(t, err)

	f.gateway.GetOrderDetailFunc = func(context.Context, string) (*carrier.OrderDetail, error) {
		return &carrier.OrderDetail{OrderCode: "GHN123ABC", Status: "delivered"}, nil
	}

	n, err := f.svc.SyncOpenShipments(context.Background(), 50)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	shipment, err := f.svc.GetByOrder(context.Background(), f.order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ShipmentStatusDelivered, shipment.Status)
}
