package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minhdn/cuestore/internal/domain"
	"github.com/minhdn/cuestore/internal/events"
)

// ============================================================================
// Mock Implementations
// ============================================================================

// mockOrderStore keeps orders, items and payments in memory.
type mockOrderStore struct {
	orders   map[uuid.UUID]*domain.Order
	items    map[uuid.UUID][]domain.OrderItem
	payments []domain.Payment
}

func newMockOrderStore() *mockOrderStore {
	return &mockOrderStore{
		orders: make(map[uuid.UUID]*domain.Order),
		items:  make(map[uuid.UUID][]domain.OrderItem),
	}
}

func (m *mockOrderStore) CreateOrder(_ context.Context, order *domain.Order, items []domain.OrderItem) error {
	cp := *order
	m.orders[order.ID] = &cp
	m.items[order.ID] = items
	return nil
}

func (m *mockOrderStore) GetOrder(_ context.Context, id uuid.UUID) (*domain.Order, error) {
	order, ok := m.orders[id]
	if !ok {
		return nil, domain.NotFound("orderstore.get", "order", id.String())
	}
	cp := *order
	return &cp, nil
}

func (m *mockOrderStore) ListOrdersForUser(_ context.Context, userID uuid.UUID, status domain.OrderStatus) ([]domain.Order, error) {
	var out []domain.Order
	for _, o := range m.orders {
		if o.UserID != userID {
			continue
		}
		if status != "" && o.Status != status {
			continue
		}
		out = append(out, *o)
	}
	return out, nil
}

func (m *mockOrderStore) UpdateOrder(_ context.Context, order *domain.Order) error {
	cp := *order
	m.orders[order.ID] = &cp
	return nil
}

func (m *mockOrderStore) ListOrderItems(_ context.Context, orderID uuid.UUID) ([]domain.OrderItem, error) {
	return m.items[orderID], nil
}

func (m *mockOrderStore) AddressInUse(_ context.Context, addressID uuid.UUID) (bool, error) {
	for _, o := range m.orders {
		if o.AddressID == addressID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockOrderStore) CreatePayment(_ context.Context, payment *domain.Payment) error {
	m.payments = append(m.payments, *payment)
	return nil
}

// mockAddressStore serves a fixed set of addresses.
type mockAddressStore struct {
	addresses map[uuid.UUID]*domain.Address
}

func (m *mockAddressStore) GetAddress(_ context.Context, id uuid.UUID) (*domain.Address, error) {
	addr, ok := m.addresses[id]
	if !ok {
		return nil, domain.NotFound("addressstore.get", "address", id.String())
	}
	return addr, nil
}

func (m *mockAddressStore) ListAddressesForUser(_ context.Context, userID uuid.UUID) ([]domain.Address, error) {
	var out []domain.Address
	for _, a := range m.addresses {
		if a.UserID == userID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *mockAddressStore) CreateAddress(_ context.Context, addr *domain.Address) error {
	m.addresses[addr.ID] = addr
	return nil
}

func (m *mockAddressStore) UpdateAddress(_ context.Context, addr *domain.Address) error {
	m.addresses[addr.ID] = addr
	return nil
}

func (m *mockAddressStore) DeleteAddress(_ context.Context, id uuid.UUID) error {
	delete(m.addresses, id)
	return nil
}

func (m *mockAddressStore) ClearDefaultForUser(_ context.Context, userID uuid.UUID) error {
	for _, a := range m.addresses {
		if a.UserID == userID {
			a.IsDefault = false
		}
	}
	return nil
}

// mockUserDirectory returns one user.
type mockUserDirectory struct {
	user *domain.User
}

func (m *mockUserDirectory) GetUser(_ context.Context, id uuid.UUID) (*domain.User, error) {
	if m.user == nil || m.user.ID != id {
		return nil, domain.NotFound("userdirectory.get", "user", id.String())
	}
	return m.user, nil
}

// mockPromotionStore records usage bookkeeping calls.
type mockPromotionStore struct {
	usages           map[uuid.UUID]*domain.PromotionUsage // by order ID
	incremented      int
	decremented      int
	deletedUsages    int
	incrementRefused bool
}

func newMockPromotionStore() *mockPromotionStore {
	return &mockPromotionStore{usages: make(map[uuid.UUID]*domain.PromotionUsage)}
}

func (m *mockPromotionStore) GetPromotionByCode(_ context.Context, code string) (*domain.Promotion, error) {
	return nil, domain.NotFound("promotionstore.get", "promotion", code)
}

func (m *mockPromotionStore) IncrementUsage(_ context.Context, _ uuid.UUID) (bool, error) {
	if m.incrementRefused {
		return false, nil
	}
	m.incremented++
	return true, nil
}

func (m *mockPromotionStore) DecrementUsage(_ context.Context, _ uuid.UUID) error {
	m.decremented++
	return nil
}

func (m *mockPromotionStore) CreateUsage(_ context.Context, usage *domain.PromotionUsage) error {
	m.usages[usage.OrderID] = usage
	return nil
}

func (m *mockPromotionStore) GetUsageByOrder(_ context.Context, orderID uuid.UUID) (*domain.PromotionUsage, error) {
	usage, ok := m.usages[orderID]
	if !ok {
		return nil, domain.NotFound("promotionstore.usage", "promotion usage", orderID.String())
	}
	return usage, nil
}

func (m *mockPromotionStore) DeleteUsage(_ context.Context, _ uuid.UUID) error {
	m.deletedUsages++
	return nil
}

// mockCartService serves a fixed snapshot and records cleanup calls.
type mockCartService struct {
	snapshot     *domain.CartSnapshot
	snapshotErr  error
	clearCalled  bool
	removedLines []uuid.UUID
}

func (m *mockCartService) GetCart(context.Context, uuid.UUID) (*CartView, error) {
	return nil, errors.New("not implemented in mock")
}

func (m *mockCartService) AddItem(context.Context, uuid.UUID, uuid.UUID, int32) (*CartView, error) {
	return nil, errors.New("not implemented in mock")
}

func (m *mockCartService) UpdateItemQuantity(context.Context, uuid.UUID, uuid.UUID, int32) (*CartView, error) {
	return nil, errors.New("not implemented in mock")
}

func (m *mockCartService) RemoveItem(context.Context, uuid.UUID, uuid.UUID) (*CartView, error) {
	return nil, errors.New("not implemented in mock")
}

func (m *mockCartService) ClearCart(context.Context, uuid.UUID) error {
	m.clearCalled = true
	return nil
}

func (m *mockCartService) Snapshot(context.Context, uuid.UUID, []domain.SelectedCartItem) (*domain.CartSnapshot, error) {
	if m.snapshotErr != nil {
		return nil, m.snapshotErr
	}
	return m.snapshot, nil
}

func (m *mockCartService) RemoveLines(_ context.Context, _ uuid.UUID, itemIDs []uuid.UUID) error {
	m.removedLines = append(m.removedLines, itemIDs...)
	return nil
}

// mockFeeQuoter returns a fixed fee or error.
type mockFeeQuoter struct {
	fee decimal.Decimal
	err error
}

func (m *mockFeeQuoter) Quote(context.Context, string, domain.Address, []domain.CartSnapshotLine) (decimal.Decimal, error) {
	return m.fee, m.err
}

// mockPromotionValidator returns a fixed result.
type mockPromotionValidator struct {
	applied *domain.AppliedPromotion
	err     error
}

func (m *mockPromotionValidator) Validate(context.Context, string, uuid.UUID, decimal.Decimal, decimal.Decimal) (*domain.AppliedPromotion, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.applied, nil
}

// mockInventoryService records reserve/release calls.
type mockInventoryService struct {
	reserveErr     error
	reserveCalled  bool
	releaseCalled  bool
	reservedOrder  uuid.UUID
	releasedOrder  uuid.UUID
}

func (m *mockInventoryService) Reserve(_ context.Context, orderID uuid.UUID, _ []domain.CartSnapshotLine) error {
	m.reserveCalled = true
	m.reservedOrder = orderID
	return m.reserveErr
}

func (m *mockInventoryService) Release(_ context.Context, orderID uuid.UUID) error {
	m.releaseCalled = true
	m.releasedOrder = orderID
	return nil
}

// mockShipmentService records create/cancel calls.
type mockShipmentService struct {
	createErr     error
	cancelErr     error
	getErr        error
	createCalled  bool
	cancelCalled  bool
	shipment      *domain.Shipment
}

func (m *mockShipmentService) CreateForOrder(_ context.Context, order *domain.Order) (*domain.Shipment, error) {
	m.createCalled = true
	if m.createErr != nil {
		return nil, m.createErr
	}
	return &domain.Shipment{OrderID: order.ID}, nil
}

func (m *mockShipmentService) CancelForOrder(context.Context, uuid.UUID) error {
	m.cancelCalled = true
	return m.cancelErr
}

func (m *mockShipmentService) GetByOrder(context.Context, uuid.UUID) (*domain.Shipment, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if m.shipment == nil {
		return nil, ErrShipmentNotFound
	}
	return m.shipment, nil
}

func (m *mockShipmentService) Track(context.Context, string) (*domain.Shipment, error) {
	return nil, errors.New("not implemented in mock")
}

func (m *mockShipmentService) SyncOpenShipments(context.Context, int32) (int, error) {
	return 0, nil
}

// ============================================================================
// Fixtures
// ============================================================================

type orderFixture struct {
	svc       OrderService
	userID    uuid.UUID
	addressID uuid.UUID
	orders    *mockOrderStore
	carts     *mockCartService
	fees      *mockFeeQuoter
	promos    *mockPromotionValidator
	inventory *mockInventoryService
	shipments *mockShipmentService
	promoDB   *mockPromotionStore
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()

	userID := uuid.New()
	addressID := uuid.New()

	f := &orderFixture{
		userID:    userID,
		addressID: addressID,
		orders:    newMockOrderStore(),
		fees:      &mockFeeQuoter{fee: money("30000")},
		promos:    &mockPromotionValidator{},
		inventory: &mockInventoryService{},
		shipments: &mockShipmentService{},
		promoDB:   newMockPromotionStore(),
	}

	f.carts = &mockCartService{snapshot: &domain.CartSnapshot{
		UserID: userID,
		Lines: []domain.CartSnapshotLine{
			{
				CartItemID:  uuid.New(),
				ProductID:   uuid.New(),
				ProductName: "Predator P3 cue",
				ProductSKU:  "CUE-P3",
				UnitPrice:   money("250000"),
				Quantity:    2,
				LineTotal:   money("500000"),
			},
		},
		TotalItems: 2,
		Subtotal:   money("500000"),
	}}

	addresses := &mockAddressStore{addresses: map[uuid.UUID]*domain.Address{
		addressID: {
			ID:            addressID,
			UserID:        userID,
			RecipientName: "Nguyễn Văn A",
			Phone:         "0901234567",
			AddressLine:   "12 Lê Lợi",
			Ward:          "Phường Bến Nghé",
			District:      "Quận 1",
			Province:      "TP Hồ Chí Minh",
		},
	}}
	users := &mockUserDirectory{user: &domain.User{
		ID:       userID,
		FullName: "Nguyễn Văn A",
		Email:    "a@example.com",
		Phone:    "0901234567",
	}}

	f.svc = NewOrderService(
		f.orders, addresses, users, f.promoDB,
		f.carts, f.fees, f.promos, f.inventory, f.shipments,
		events.NoopPublisher{}, slog.New(slog.DiscardHandler),
	)
	return f
}

func money(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func (f *orderFixture) createOrder(t *testing.T) *domain.Order {
	t.Helper()
	order, err := f.svc.Create(context.Background(), f.userID, CreateOrderRequest{
		PreviewRequest: PreviewRequest{AddressID: f.addressID, ShippingMethod: "ghn_standard"},
	})
	require.NoError(t, err)
	return order
}

// ============================================================================
// Preview
// ============================================================================

func TestPreviewTotals(t *testing.T) {
	f := newOrderFixture(t)

	preview, err := f.svc.Preview(context.Background(), f.userID, PreviewRequest{
		AddressID:      f.addressID,
		ShippingMethod: "ghn_standard",
	})
	require.NoError(t, err)
	assert.True(t, preview.Subtotal.Equal(money("500000")))
	assert.True(t, preview.ShippingFee.Equal(money("30000")))
	assert.True(t, preview.TotalAmount.Equal(money("530000")))
	assert.Equal(t, "2-3 ngày làm việc", preview.EstimatedDelivery)
}

func TestPreviewWithCappedPromotion(t *testing.T) {
	f := newOrderFixture(t)
	f.promos.applied = &domain.AppliedPromotion{
		Promotion:      domain.Promotion{ID: uuid.New(), Code: "SUMMER10"},
		DiscountAmount: money("50000"), // 10% capped at 50000
	}

	preview, err := f.svc.Preview(context.Background(), f.userID, PreviewRequest{
		AddressID:      f.addressID,
		ShippingMethod: "ghn_standard",
		PromotionCode:  "SUMMER10",
	})
	require.NoError(t, err)
	assert.True(t, preview.DiscountAmount.Equal(money("50000")))
	assert.True(t, preview.TotalAmount.Equal(money("480000")))
}

func TestPreviewInvalidPromotionIsSwallowed(t *testing.T) {
	f := newOrderFixture(t)
	f.promos.err = domain.Unprocessable("promotion.Validate", "promotion has expired")

	preview, err := f.svc.Preview(context.Background(), f.userID, PreviewRequest{
		AddressID:      f.addressID,
		ShippingMethod: "ghn_standard",
		PromotionCode:  "EXPIRED",
	})
	require.NoError(t, err, "a bad code must not block the preview")
	assert.Nil(t, preview.AppliedPromotion)
	assert.True(t, preview.TotalAmount.Equal(money("530000")))
}

func TestPreviewUnmappedLocationIsHardFailure(t *testing.T) {
	f := newOrderFixture(t)
	f.fees.err = domain.Unprocessable("region.Resolve", "delivery location is not supported")

	_, err := f.svc.Preview(context.Background(), f.userID, PreviewRequest{
		AddressID:      f.addressID,
		ShippingMethod: "ghn_standard",
	})
	require.Error(t, err)
	assert.Equal(t, domain.EUNPROCESSABLE, domain.ErrorCode(err))
}

func TestPreviewForeignAddressForbidden(t *testing.T) {
	f := newOrderFixture(t)

	_, err := f.svc.Preview(context.Background(), uuid.New(), PreviewRequest{
		AddressID:      f.addressID,
		ShippingMethod: "ghn_standard",
	})
	require.Error(t, err)
	assert.Equal(t, domain.EFORBIDDEN, domain.ErrorCode(err))
}

// ============================================================================
// Create
// ============================================================================

func TestCreateOrderPersistsAndReserves(t *testing.T) {
	f := newOrderFixture(t)

	order := f.createOrder(t)

	assert.True(t, strings.HasPrefix(order.OrderNumber, "ORD-"))
	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.Equal(t, domain.PaymentStatusPending, order.PaymentStatus)
	assert.True(t, order.TotalAmount.Equal(money("530000")))
	assert.Equal(t, "Nguyễn Văn A", order.CustomerName)

	stored, err := f.orders.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.OrderNumber, stored.OrderNumber)

	items := f.orders.items[order.ID]
	require.Len(t, items, 1)
	assert.Equal(t, "CUE-P3", items[0].ProductSKU)
	assert.Equal(t, int32(2), items[0].Quantity)

	assert.True(t, f.inventory.reserveCalled)
	assert.Equal(t, order.ID, f.inventory.reservedOrder)
	assert.True(t, f.carts.clearCalled, "full checkout clears the cart")
}

func TestCreateOrderSurvivesReservationFailure(t *testing.T) {
	f := newOrderFixture(t)
	f.inventory.reserveErr = domain.Unprocessable("inventory.reserve", "Not enough stock")

	order := f.createOrder(t)

	// order creation is not rolled back by a failed reservation
	_, err := f.orders.GetOrder(context.Background(), order.ID)
	assert.NoError(t, err)
}

func TestCreateOrderWithSelectionRemovesOnlyChosenLines(t *testing.T) {
	f := newOrderFixture(t)
	lineID := f.carts.snapshot.Lines[0].CartItemID

	_, err := f.svc.Create(context.Background(), f.userID, CreateOrderRequest{
		PreviewRequest: PreviewRequest{
			AddressID:      f.addressID,
			ShippingMethod: "ghn_standard",
			Selection:      []domain.SelectedCartItem{{CartItemID: lineID, Quantity: 1}},
		},
	})
	require.NoError(t, err)
	assert.False(t, f.carts.clearCalled)
	assert.Equal(t, []uuid.UUID{lineID}, f.carts.removedLines)
}

func TestCreateOrderRecordsPromotionUsage(t *testing.T) {
	f := newOrderFixture(t)
	f.promos.applied = &domain.AppliedPromotion{
		Promotion:      domain.Promotion{ID: uuid.New(), Code: "SUMMER10"},
		DiscountAmount: money("50000"),
	}

	order, err := f.svc.Create(context.Background(), f.userID, CreateOrderRequest{
		PreviewRequest: PreviewRequest{
			AddressID:      f.addressID,
			ShippingMethod: "ghn_standard",
			PromotionCode:  "SUMMER10",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, f.promoDB.incremented)
	usage := f.promoDB.usages[order.ID]
	require.NotNil(t, usage)
	assert.True(t, usage.DiscountAmount.Equal(money("50000")))
}

// ============================================================================
// Confirm
// ============================================================================

func TestConfirmOrder(t *testing.T) {
	f := newOrderFixture(t)
	order := f.createOrder(t)

	confirmed, err := f.svc.Confirm(context.Background(), f.userID, order.ID, "bank_transfer")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusConfirmed, confirmed.Status)
	require.NotNil(t, confirmed.ConfirmedAt)

	require.Len(t, f.orders.payments, 1)
	assert.Equal(t, "PAY"+order.OrderNumber, f.orders.payments[0].PaymentCode)
	assert.Equal(t, domain.PaymentStatusPending, f.orders.payments[0].Status)

	assert.True(t, f.shipments.createCalled)
}

func TestConfirmCashOrderSkipsShipment(t *testing.T) {
	f := newOrderFixture(t)
	order := f.createOrder(t)

	_, err := f.svc.Confirm(context.Background(), f.userID, order.ID, "cash")
	require.NoError(t, err)
	assert.False(t, f.shipments.createCalled)
}

func TestConfirmTwiceFails(t *testing.T) {
	f := newOrderFixture(t)
	order := f.createOrder(t)

	_, err := f.svc.Confirm(context.Background(), f.userID, order.ID, "bank_transfer")
	require.NoError(t, err)

	_, err = f.svc.Confirm(context.Background(), f.userID, order.ID, "bank_transfer")
	require.Error(t, err)
	assert.Equal(t, domain.ECONFLICT, domain.ErrorCode(err))
}

func TestConfirmSurvivesShipmentFailure(t *testing.T) {
	f := newOrderFixture(t)
	f.shipments.createErr = errors.New("carrier unavailable")
	order := f.createOrder(t)

	confirmed, err := f.svc.Confirm(context.Background(), f.userID, order.ID, "bank_transfer")
	require.NoError(t, err, "carrier failure must not fail confirmation")
	assert.Equal(t, domain.OrderStatusConfirmed, confirmed.Status)
}

// ============================================================================
// Cancel
// ============================================================================

func TestCancelRunsAllCompensations(t *testing.T) {
	f := newOrderFixture(t)
	f.promos.applied = &domain.AppliedPromotion{
		Promotion:      domain.Promotion{ID: uuid.New(), Code: "SUMMER10"},
		DiscountAmount: money("50000"),
	}
	order, err := f.svc.Create(context.Background(), f.userID, CreateOrderRequest{
		PreviewRequest: PreviewRequest{
			AddressID:      f.addressID,
			ShippingMethod: "ghn_standard",
			PromotionCode:  "SUMMER10",
		},
	})
	require.NoError(t, err)
	_, err = f.svc.Confirm(context.Background(), f.userID, order.ID, "bank_transfer")
	require.NoError(t, err)

	cancelled, err := f.svc.Cancel(context.Background(), f.userID, order.ID, "changed my mind")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCancelled, cancelled.Status)
	assert.Equal(t, "changed my mind", cancelled.CancelReason)
	require.NotNil(t, cancelled.CancelledAt)

	assert.True(t, f.inventory.releaseCalled)
	assert.True(t, f.shipments.cancelCalled)
	assert.Equal(t, 1, f.promoDB.deletedUsages)
	assert.Equal(t, 1, f.promoDB.decremented)
}

func TestCancelCompensationsAreIsolated(t *testing.T) {
	f := newOrderFixture(t)
	f.shipments.cancelErr = errors.New("carrier unavailable")
	order := f.createOrder(t)
	_, err := f.svc.Confirm(context.Background(), f.userID, order.ID, "bank_transfer")
	require.NoError(t, err)

	cancelled, err := f.svc.Cancel(context.Background(), f.userID, order.ID, "late delivery")
	require.NoError(t, err, "a failing compensation must not fail the cancellation")
	assert.Equal(t, domain.OrderStatusCancelled, cancelled.Status)
	assert.True(t, f.inventory.releaseCalled, "other compensations still run")
}

func TestCancelDeliveredOrderFails(t *testing.T) {
	f := newOrderFixture(t)
	order := f.createOrder(t)
	order.Status = domain.OrderStatusDelivered
	require.NoError(t, f.orders.UpdateOrder(context.Background(), order))

	_, err := f.svc.Cancel(context.Background(), f.userID, order.ID, "too late")
	require.Error(t, err)
	assert.Equal(t, domain.ECONFLICT, domain.ErrorCode(err))
}

// ============================================================================
// Get / List
// ============================================================================

func TestGetEnforcesOwnership(t *testing.T) {
	f := newOrderFixture(t)
	order := f.createOrder(t)

	_, err := f.svc.Get(context.Background(), uuid.New(), order.ID)
	require.Error(t, err)
	assert.Equal(t, domain.EFORBIDDEN, domain.ErrorCode(err))

	detail, err := f.svc.Get(context.Background(), f.userID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, detail.Order.ID)
	require.Len(t, detail.Items, 1)
}

func TestGetToleratesShipmentLookupFailure(t *testing.T) {
	f := newOrderFixture(t)
	order := f.createOrder(t)
	f.shipments.getErr = domain.Internal(errors.New("connection reset"), "shipment.get", "failed to load shipment")

	// a broken shipment lookup must not hide the order itself
	detail, err := f.svc.Get(context.Background(), f.userID, order.ID)
	require.NoError(t, err)
	assert.Nil(t, detail.Shipment)
}

func TestListReturnsOwnOrders(t *testing.T) {
	f := newOrderFixture(t)
	f.createOrder(t)

	// second fixture user's cart, same store
	orders, err := f.svc.List(context.Background(), f.userID, "")
	require.NoError(t, err)
	assert.Len(t, orders, 1)

	orders, err = f.svc.List(context.Background(), uuid.New(), "")
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestListFiltersByStatus(t *testing.T) {
	f := newOrderFixture(t)
	f.createOrder(t)

	orders, err := f.svc.List(context.Background(), f.userID, domain.OrderStatusPending)
	require.NoError(t, err)
	assert.Len(t, orders, 1)

	orders, err = f.svc.List(context.Background(), f.userID, domain.OrderStatusDelivered)
	require.NoError(t, err)
	assert.Empty(t, orders)
}
