package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"

	"github.com/minhdn/cuestore/internal/domain"
	"github.com/minhdn/cuestore/internal/events"
	"github.com/minhdn/cuestore/internal/shipping"
	"github.com/minhdn/cuestore/internal/telemetry"
)

// FeeQuoter quotes a delivery fee. *shipping.FeeCalculator is the production
// implementation.
type FeeQuoter interface {
	Quote(ctx context.Context, method string, addr domain.Address, lines []domain.CartSnapshotLine) (decimal.Decimal, error)
}

// PromotionValidator validates a promotion code against order amounts.
// *promotion.Evaluator is the production implementation.
type PromotionValidator interface {
	Validate(ctx context.Context, code string, userID uuid.UUID, subtotal, shippingFee decimal.Decimal) (*domain.AppliedPromotion, error)
}

// PreviewRequest carries everything needed to price a checkout.
type PreviewRequest struct {
	AddressID      uuid.UUID
	Selection      []domain.SelectedCartItem // nil means the whole cart
	ShippingMethod string
	PromotionCode  string
}

// CreateOrderRequest is a priced checkout the customer wants persisted.
type CreateOrderRequest struct {
	PreviewRequest
	Notes string
}

// OrderPreview is the priced projection of a checkout before anything is
// persisted. Safe to request repeatedly.
type OrderPreview struct {
	Lines             []domain.CartSnapshotLine
	Address           domain.Address
	ShippingMethod    string
	Subtotal          decimal.Decimal
	ShippingFee       decimal.Decimal
	DiscountAmount    decimal.Decimal
	TotalAmount       decimal.Decimal
	AppliedPromotion  *domain.AppliedPromotion
	EstimatedDelivery string
}

// OrderDetail aggregates an order with its items and shipment.
type OrderDetail struct {
	Order    domain.Order
	Items    []domain.OrderItem
	Shipment *domain.Shipment // nil until a shipment exists
}

// OrderService orchestrates the order lifecycle:
// PENDING -> CONFIRMED -> {SHIPPED -> DELIVERED}, with PENDING|CONFIRMED ->
// CANCELLED. Side effects on collaborators (inventory, carrier, promotions)
// are best-effort and never roll back the order state change that triggered
// them.
type OrderService interface {
	// Preview prices a checkout without persisting anything. An unmapped
	// delivery location is a hard failure; carrier and promotion failures
	// degrade (zero fee, no discount).
	Preview(ctx context.Context, userID uuid.UUID, req PreviewRequest) (*OrderPreview, error)

	// Create re-prices via Preview and persists the order with its items,
	// then reserves stock, records promotion usage and removes the ordered
	// lines from the cart.
	Create(ctx context.Context, userID uuid.UUID, req CreateOrderRequest) (*domain.Order, error)

	// Confirm transitions PENDING -> CONFIRMED, records a pending payment
	// and, for non-cash payments, requests a carrier shipment.
	Confirm(ctx context.Context, userID, orderID uuid.UUID, paymentMethod string) (*domain.Order, error)

	// Cancel transitions PENDING|CONFIRMED -> CANCELLED and runs the
	// compensations: stock release, shipment cancellation, promotion
	// refund. Each compensation is isolated; one failing never blocks the
	// others.
	Cancel(ctx context.Context, userID, orderID uuid.UUID, reason string) (*domain.Order, error)

	// Get returns an order with items and shipment, owner-only.
	Get(ctx context.Context, userID, orderID uuid.UUID) (*OrderDetail, error)

	// List returns the user's orders, newest first, optionally filtered to
	// a single status. An empty status means all orders.
	List(ctx context.Context, userID uuid.UUID, status domain.OrderStatus) ([]domain.Order, error)
}

type orderService struct {
	orders     domain.OrderStore
	addresses  domain.AddressStore
	users      domain.UserDirectory
	promoStore domain.PromotionStore
	carts      CartService
	fees       FeeQuoter
	promos     PromotionValidator
	inventory  InventoryService
	shipments  ShipmentService
	publisher  events.Publisher
	logger     *slog.Logger
}

// NewOrderService creates the order orchestrator.
func NewOrderService(
	orders domain.OrderStore,
	addresses domain.AddressStore,
	users domain.UserDirectory,
	promoStore domain.PromotionStore,
	carts CartService,
	fees FeeQuoter,
	promos PromotionValidator,
	inventory InventoryService,
	shipments ShipmentService,
	publisher events.Publisher,
	logger *slog.Logger,
) OrderService {
	return &orderService{
		orders:     orders,
		addresses:  addresses,
		users:      users,
		promoStore: promoStore,
		carts:      carts,
		fees:       fees,
		promos:     promos,
		inventory:  inventory,
		shipments:  shipments,
		publisher:  publisher,
		logger:     logger.With(slog.String("component", "order_service")),
	}
}

func (s *orderService) Preview(ctx context.Context, userID uuid.UUID, req PreviewRequest) (*OrderPreview, error) {
	method := req.ShippingMethod
	if method == "" {
		method = shipping.MethodStandard
	}

	snapshot, err := s.carts.Snapshot(ctx, userID, req.Selection)
	if err != nil {
		return nil, err
	}

	addr, err := s.ownedAddress(ctx, userID, req.AddressID)
	if err != nil {
		return nil, err
	}

	// an unmapped location propagates: a silently wrong zero fee would be
	// worse than an error the client can show
	fee, err := s.fees.Quote(ctx, method, *addr, snapshot.Lines)
	if err != nil {
		return nil, err
	}

	preview := &OrderPreview{
		Lines:             snapshot.Lines,
		Address:           *addr,
		ShippingMethod:    method,
		Subtotal:          snapshot.Subtotal,
		ShippingFee:       fee,
		DiscountAmount:    decimal.Zero,
		EstimatedDelivery: shipping.EstimatedDelivery(method),
	}

	if req.PromotionCode != "" {
		applied, perr := s.promos.Validate(ctx, req.PromotionCode, userID, snapshot.Subtotal, fee)
		if perr != nil {
			// an invalid code must not block browsing a priced cart
			s.logger.Info("promotion rejected during preview",
				slog.String("code", req.PromotionCode),
				slog.String("user_id", userID.String()),
				slog.String("reason", domain.ErrorMessage(perr)))
		} else {
			preview.AppliedPromotion = applied
			preview.DiscountAmount = applied.DiscountAmount
		}
	}

	preview.TotalAmount = preview.Subtotal.Add(preview.ShippingFee).Sub(preview.DiscountAmount)
	return preview, nil
}

func (s *orderService) Create(ctx context.Context, userID uuid.UUID, req CreateOrderRequest) (*domain.Order, error) {
	const op = "order.create"

	// preview is the single source of pricing truth
	preview, err := s.Preview(ctx, userID, req.PreviewRequest)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		if domain.ErrorCode(err) == domain.ENOTFOUND {
			return nil, ErrUserNotFound
		}
		return nil, domain.WrapError(err, domain.EINTERNAL, op, "failed to load user")
	}

	now := time.Now()
	order := &domain.Order{
		ID:              uuid.New(),
		OrderNumber:     newOrderNumber(),
		UserID:          userID,
		Status:          domain.OrderStatusPending,
		PaymentStatus:   domain.PaymentStatusPending,
		CustomerName:    user.FullName,
		CustomerEmail:   user.Email,
		CustomerPhone:   user.Phone,
		AddressID:       preview.Address.ID,
		ShippingAddress: preview.Address.Format(),
		ShippingMethod:  preview.ShippingMethod,
		ShippingCost:    preview.ShippingFee,
		Subtotal:        preview.Subtotal,
		DiscountAmount:  preview.DiscountAmount,
		TotalAmount:     preview.TotalAmount,
		Notes:           req.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	items := make([]domain.OrderItem, 0, len(preview.Lines))
	for _, line := range preview.Lines {
		items = append(items, domain.OrderItem{
			ID:          uuid.New(),
			OrderID:     order.ID,
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			ProductSKU:  line.ProductSKU,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			LineTotal:   line.LineTotal,
		})
	}

	if err := s.orders.CreateOrder(ctx, order, items); err != nil {
		return nil, domain.WrapError(err, domain.EINTERNAL, op, "failed to save order")
	}
	telemetry.Checkout.OrderItemCount.Observe(float64(len(items)))

	// soft dependency: a failed reservation leaves the order in place and
	// surfaces at fulfillment instead
	if err := s.inventory.Reserve(ctx, order.ID, preview.Lines); err != nil {
		s.logger.Warn("stock reservation failed after order creation",
			slog.String("order_number", order.OrderNumber),
			slog.String("error", err.Error()))
	}

	if preview.AppliedPromotion != nil {
		s.recordPromotionUsage(ctx, order, preview.AppliedPromotion)
	}

	s.removeOrderedLines(ctx, userID, req.Selection, preview.Lines)

	s.publisher.OrderCreated(ctx, order)
	s.logger.Info("order created",
		slog.String("order_number", order.OrderNumber),
		slog.String("user_id", userID.String()),
		slog.String("total", order.TotalAmount.StringFixed(2)))
	return order, nil
}

func (s *orderService) Confirm(ctx context.Context, userID, orderID uuid.UUID, paymentMethod string) (*domain.Order, error) {
	const op = "order.confirm"

	order, err := s.ownedOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if !order.Status.CanConfirm() {
		return nil, ErrOrderAlreadyConfirmed
	}

	now := time.Now()
	order.Status = domain.OrderStatusConfirmed
	order.ConfirmedAt = &now
	order.UpdatedAt = now
	if err := s.orders.UpdateOrder(ctx, order); err != nil {
		return nil, domain.WrapError(err, domain.EINTERNAL, op, "failed to update order")
	}

	payment := &domain.Payment{
		ID:          uuid.New(),
		OrderID:     order.ID,
		PaymentCode: "PAY" + order.OrderNumber,
		Amount:      order.TotalAmount,
		Method:      paymentMethod,
		Status:      domain.PaymentStatusPending,
		CreatedAt:   now,
	}
	if err := s.orders.CreatePayment(ctx, payment); err != nil {
		s.logger.Error("failed to record payment",
			slog.String("order_number", order.OrderNumber),
			slog.String("error", err.Error()))
	}

	// cash orders are handed over in person; everything else ships
	if paymentMethod != "cash" {
		if _, err := s.shipments.CreateForOrder(ctx, order); err != nil {
			// best-effort: the order stays confirmed without a tracking
			// number and the shipment is retried later
			s.logger.Warn("shipment creation failed after confirmation",
				slog.String("order_number", order.OrderNumber),
				slog.String("error", err.Error()))
		}
	}

	s.publisher.OrderConfirmed(ctx, order)
	s.logger.Info("order confirmed",
		slog.String("order_number", order.OrderNumber),
		slog.String("payment_method", paymentMethod))
	return order, nil
}

func (s *orderService) Cancel(ctx context.Context, userID, orderID uuid.UUID, reason string) (*domain.Order, error) {
	const op = "order.cancel"

	order, err := s.ownedOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if !order.Status.CanCancel() {
		return nil, ErrOrderCannotCancel
	}

	now := time.Now()
	order.Status = domain.OrderStatusCancelled
	order.CancelledAt = &now
	order.CancelReason = reason
	order.UpdatedAt = now
	if err := s.orders.UpdateOrder(ctx, order); err != nil {
		return nil, domain.WrapError(err, domain.EINTERNAL, op, "failed to update order")
	}

	// compensations are isolated: each may fail without blocking the rest
	if err := s.inventory.Release(ctx, order.ID); err != nil {
		s.logger.Warn("stock release failed during cancellation",
			slog.String("order_number", order.OrderNumber),
			slog.String("error", err.Error()))
	}
	if err := s.shipments.CancelForOrder(ctx, order.ID); err != nil {
		s.logger.Warn("shipment cancellation failed during order cancellation",
			slog.String("order_number", order.OrderNumber),
			slog.String("error", err.Error()))
	}
	s.refundPromotionUsage(ctx, order)

	s.publisher.OrderCancelled(ctx, order, reason)
	s.logger.Info("order cancelled",
		slog.String("order_number", order.OrderNumber),
		slog.String("reason", reason))
	return order, nil
}

func (s *orderService) Get(ctx context.Context, userID, orderID uuid.UUID) (*OrderDetail, error) {
	order, err := s.ownedOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}

	items, err := s.orders.ListOrderItems(ctx, orderID)
	if err != nil {
		return nil, domain.WrapError(err, domain.EINTERNAL, "order.get", "failed to load order items")
	}

	detail := &OrderDetail{Order: *order, Items: items}
	if shipment, serr := s.shipments.GetByOrder(ctx, orderID); serr == nil {
		detail.Shipment = shipment
	} else if domain.ErrorCode(serr) != domain.ENOTFOUND {
		// a missing shipment is normal for unconfirmed orders; anything
		// else is a lookup failure worth surfacing in the logs
		s.logger.Warn("failed to load shipment for order detail",
			slog.String("order_id", orderID.String()),
			slog.String("error", serr.Error()))
	}
	return detail, nil
}

func (s *orderService) List(ctx context.Context, userID uuid.UUID, status domain.OrderStatus) ([]domain.Order, error) {
	orders, err := s.orders.ListOrdersForUser(ctx, userID, status)
	if err != nil {
		return nil, domain.WrapError(err, domain.EINTERNAL, "order.list", "failed to list orders")
	}
	return orders, nil
}

// newOrderNumber builds an ORD-prefixed ULID. ULIDs are time-ordered and
// collision-free, unlike the timestamp-plus-random scheme they replaced.
func newOrderNumber() string {
	return "ORD-" + ulid.Make().String()
}

func (s *orderService) ownedAddress(ctx context.Context, userID, addressID uuid.UUID) (*domain.Address, error) {
	addr, err := s.addresses.GetAddress(ctx, addressID)
	if err != nil {
		if domain.ErrorCode(err) == domain.ENOTFOUND {
			return nil, ErrAddressNotFound
		}
		return nil, domain.WrapError(err, domain.EINTERNAL, "order.address", "failed to load address")
	}
	if addr.UserID != userID {
		return nil, domain.Forbidden("order.address", "address belongs to another user")
	}
	return addr, nil
}

func (s *orderService) ownedOrder(ctx context.Context, userID, orderID uuid.UUID) (*domain.Order, error) {
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		if domain.ErrorCode(err) == domain.ENOTFOUND {
			return nil, ErrOrderNotFound
		}
		return nil, domain.WrapError(err, domain.EINTERNAL, "order.get", "failed to load order")
	}
	if order.UserID != userID {
		return nil, domain.Forbidden("order.get", "order belongs to another user")
	}
	return order, nil
}

func (s *orderService) recordPromotionUsage(ctx context.Context, order *domain.Order, applied *domain.AppliedPromotion) {
	ok, err := s.promoStore.IncrementUsage(ctx, applied.Promotion.ID)
	if err != nil || !ok {
		s.logger.Warn("failed to record promotion usage",
			slog.String("order_number", order.OrderNumber),
			slog.String("code", applied.Promotion.Code))
		return
	}
	if err := s.promoStore.CreateUsage(ctx, &domain.PromotionUsage{
		ID:             uuid.New(),
		PromotionID:    applied.Promotion.ID,
		UserID:         order.UserID,
		OrderID:        order.ID,
		DiscountAmount: applied.DiscountAmount,
		UsedAt:         time.Now(),
	}); err != nil {
		s.logger.Warn("failed to save promotion usage record",
			slog.String("order_number", order.OrderNumber),
			slog.String("error", err.Error()))
	}
}

func (s *orderService) refundPromotionUsage(ctx context.Context, order *domain.Order) {
	usage, err := s.promoStore.GetUsageByOrder(ctx, order.ID)
	if err != nil {
		if domain.ErrorCode(err) != domain.ENOTFOUND {
			s.logger.Warn("failed to look up promotion usage for refund",
				slog.String("order_number", order.OrderNumber),
				slog.String("error", err.Error()))
		}
		return
	}
	if err := s.promoStore.DeleteUsage(ctx, usage.ID); err != nil {
		s.logger.Warn("failed to delete promotion usage",
			slog.String("order_number", order.OrderNumber),
			slog.String("error", err.Error()))
		return
	}
	if err := s.promoStore.DecrementUsage(ctx, usage.PromotionID); err != nil {
		s.logger.Warn("failed to decrement promotion usage count",
			slog.String("order_number", order.OrderNumber),
			slog.String("error", err.Error()))
	}
}

// removeOrderedLines takes the purchased lines out of the cart: the whole
// cart after a full checkout, only the chosen lines after a selected one.
func (s *orderService) removeOrderedLines(ctx context.Context, userID uuid.UUID, selection []domain.SelectedCartItem, lines []domain.CartSnapshotLine) {
	var err error
	if selection == nil {
		err = s.carts.ClearCart(ctx, userID)
	} else {
		itemIDs := make([]uuid.UUID, 0, len(lines))
		for _, line := range lines {
			itemIDs = append(itemIDs, line.CartItemID)
		}
		err = s.carts.RemoveLines(ctx, userID, itemIDs)
	}
	if err != nil {
		s.logger.Warn("failed to remove ordered lines from cart",
			slog.String("user_id", userID.String()),
			slog.String("error", err.Error()))
	}
}
