package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/minhdn/cuestore/internal/carrier"
	"github.com/minhdn/cuestore/internal/domain"
	"github.com/minhdn/cuestore/internal/shipping"
	"github.com/minhdn/cuestore/internal/telemetry"
)

// carrier timestamps look like "2026-08-30 09:15:00"
const carrierTimeLayout = "2006-01-02 15:04:05"

// ShopInfo identifies the pickup location sent to the carrier.
type ShopInfo struct {
	Name    string
	Phone   string
	Address string
	Origin  shipping.ShopOrigin
}

// ShipmentService creates and tracks carrier shipments for orders. Creation
// is deliberately tolerant: an unmapped destination or a carrier outage
// produces a pending shipment without a tracking number instead of an error,
// so order confirmation never blocks on the carrier.
type ShipmentService interface {
	// CreateForOrder registers the order with the carrier and persists the
	// shipment. The returned shipment may have no tracking number.
	CreateForOrder(ctx context.Context, order *domain.Order) (*domain.Shipment, error)

	// CancelForOrder cancels the order's shipment at the carrier
	// (best-effort) and marks it cancelled locally.
	CancelForOrder(ctx context.Context, orderID uuid.UUID) error

	// GetByOrder returns the shipment for an order.
	GetByOrder(ctx context.Context, orderID uuid.UUID) (*domain.Shipment, error)

	// Track refreshes a shipment from the carrier and returns it.
	Track(ctx context.Context, trackingNumber string) (*domain.Shipment, error)

	// SyncOpenShipments refreshes every non-terminal shipment, for the
	// background status worker. Returns the number refreshed.
	SyncOpenShipments(ctx context.Context, limit int32) (int, error)
}

type shipmentService struct {
	gateway   carrier.Gateway
	shipments domain.ShipmentStore
	orders    domain.OrderStore
	addresses domain.AddressStore
	catalog   domain.ProductCatalog
	resolver  shipping.RegionResolver
	shop      ShopInfo
	logger    *slog.Logger
}

// NewShipmentService creates a ShipmentService.
func NewShipmentService(
	gateway carrier.Gateway,
	shipments domain.ShipmentStore,
	orders domain.OrderStore,
	addresses domain.AddressStore,
	catalog domain.ProductCatalog,
	resolver shipping.RegionResolver,
	shop ShopInfo,
	logger *slog.Logger,
) ShipmentService {
	return &shipmentService{
		gateway:   gateway,
		shipments: shipments,
		orders:    orders,
		addresses: addresses,
		catalog:   catalog,
		resolver:  resolver,
		shop:      shop,
		logger:    logger.With(slog.String("component", "shipment_service")),
	}
}

func (s *shipmentService) CreateForOrder(ctx context.Context, order *domain.Order) (*domain.Shipment, error) {
	const op = "shipment.create"

	now := time.Now()
	shipment := &domain.Shipment{
		ID:              uuid.New(),
		OrderID:         order.ID,
		Carrier:         s.gateway.Name(),
		Status:          domain.ShipmentStatusPending,
		PickupAddress:   s.shop.Address,
		DeliveryAddress: order.ShippingAddress,
		ShippingCost:    order.ShippingCost,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	addr, err := s.addresses.GetAddress(ctx, order.AddressID)
	if err != nil {
		return nil, domain.WrapError(err, domain.EINTERNAL, op, "failed to load shipping address")
	}

	mapping, err := s.resolver.Resolve(ctx, *addr)
	if err != nil {
		// persist a pending record and skip the carrier call so order
		// confirmation does not fail on an unmapped address
		s.logger.Warn("address not mapped to carrier region, shipment left pending",
			slog.String("order_number", order.OrderNumber),
			slog.String("error", err.Error()))
		shipment.CarrierResponse = `{"reason":"LOCATION_NOT_MAPPED","message":"Address not mapped to a carrier region"}`
		if err := s.shipments.CreateShipment(ctx, shipment); err != nil {
			return nil, domain.WrapError(err, domain.EINTERNAL, op, "failed to save shipment")
		}
		telemetry.Checkout.ShipmentsCreated.WithLabelValues("pending_location").Inc()
		return shipment, nil
	}

	req, totalWeight, err := s.buildCreateRequest(ctx, order, addr, mapping)
	if err != nil {
		return nil, err
	}
	shipment.WeightGrams = totalWeight

	outcome := "ok"
	result, err := s.gateway.CreateOrder(ctx, *req)
	if err != nil {
		outcome = "pending_carrier"
		s.logger.Warn("carrier rejected shipping order",
			slog.String("order_number", order.OrderNumber),
			slog.String("error", err.Error()))
		shipment.CarrierResponse = `{"reason":"CARRIER_API_FAILED","message":"Carrier did not return a successful response"}`
	} else {
		shipment.TrackingNumber = result.OrderCode
		if result.TotalFee > 0 {
			shipment.ShippingCost = decimal.NewFromInt(result.TotalFee)
		}
		if result.ExpectedDeliveryTime != "" {
			if eta, perr := time.Parse(time.RFC3339, result.ExpectedDeliveryTime); perr == nil {
				shipment.EstimatedDelivery = &eta
			}
		}
		if raw, merr := json.Marshal(result); merr == nil {
			shipment.CarrierResponse = string(raw)
		}
	}

	if err := s.shipments.CreateShipment(ctx, shipment); err != nil {
		return nil, domain.WrapError(err, domain.EINTERNAL, op, "failed to save shipment")
	}
	telemetry.Checkout.ShipmentsCreated.WithLabelValues(outcome).Inc()
	return shipment, nil
}

// buildCreateRequest assembles the carrier order payload from the order's
// items and the shop's pickup details.
func (s *shipmentService) buildCreateRequest(ctx context.Context, order *domain.Order, addr *domain.Address, mapping *domain.RegionMapping) (*carrier.CreateOrderRequest, int32, error) {
	items, err := s.orders.ListOrderItems(ctx, order.ID)
	if err != nil {
		return nil, 0, domain.WrapError(err, domain.EINTERNAL, "shipment.create", "failed to load order items")
	}

	req := &carrier.CreateOrderRequest{
		FromName:      s.shop.Name,
		FromPhone:     s.shop.Phone,
		FromAddress:   s.shop.Address,
		ToName:        addr.RecipientName,
		ToPhone:       addr.Phone,
		ToAddress:     addr.Format(),
		ToDistrictID:  mapping.CarrierDistrictID,
		ToWardCode:    mapping.CarrierWardCode,
		PaymentTypeID: 1,
		Content:       "Order " + order.OrderNumber,
		LengthCm:      shipping.DefaultLengthCm,
		WidthCm:       shipping.DefaultWidthCm,
		HeightCm:      shipping.DefaultHeightCm,
		ServiceID:     shipping.ServiceID(order.ShippingMethod),
		ServiceTypeID: shipping.ServiceTypeID(order.ShippingMethod),
	}

	// unpaid orders collect the total on delivery
	if order.PaymentStatus == domain.PaymentStatusPending {
		req.CODAmount = order.TotalAmount.IntPart()
	}

	var totalWeight int32
	for _, item := range items {
		weight := int32(shipping.DefaultItemWeightGrams)
		length, width, height := int32(shipping.DefaultLengthCm), int32(shipping.DefaultWidthCm), int32(shipping.DefaultHeightCm)

		product, perr := s.catalog.GetProduct(ctx, item.ProductID)
		if perr != nil {
			s.logger.Warn("order item references missing product, using parcel defaults",
				slog.String("product_id", item.ProductID.String()))
		} else {
			if product.WeightGrams > 0 {
				weight = product.WeightGrams
			}
			length, width, height = shipping.ParseDimensions(product.Dimensions)
		}

		req.Items = append(req.Items, carrier.OrderItem{
			Name:     item.ProductName,
			Code:     item.ProductSKU,
			Quantity: item.Quantity,
			Price:    item.UnitPrice.IntPart(),
			Weight:   weight,
			Length:   length,
			Width:    width,
			Height:   height,
		})
		totalWeight += item.Quantity * weight
	}
	req.WeightGrams = totalWeight
	return req, totalWeight, nil
}

func (s *shipmentService) CancelForOrder(ctx context.Context, orderID uuid.UUID) error {
	const op = "shipment.cancel"

	shipment, err := s.shipments.GetShipmentByOrder(ctx, orderID)
	if err != nil {
		if domain.ErrorCode(err) == domain.ENOTFOUND {
			return nil // nothing to cancel
		}
		return domain.WrapError(err, domain.EINTERNAL, op, "failed to load shipment")
	}
	if shipment.Status.Terminal() {
		return nil
	}

	if shipment.TrackingNumber != "" {
		if err := s.gateway.CancelOrder(ctx, shipment.TrackingNumber); err != nil {
			s.logger.Warn("carrier cancellation failed, cancelling locally anyway",
				slog.String("tracking_number", shipment.TrackingNumber),
				slog.String("error", err.Error()))
		}
	}

	shipment.Status = domain.ShipmentStatusCancelled
	shipment.UpdatedAt = time.Now()
	if err := s.shipments.UpdateShipment(ctx, shipment); err != nil {
		return domain.WrapError(err, domain.EINTERNAL, op, "failed to update shipment")
	}
	return nil
}

func (s *shipmentService) GetByOrder(ctx context.Context, orderID uuid.UUID) (*domain.Shipment, error) {
	shipment, err := s.shipments.GetShipmentByOrder(ctx, orderID)
	if err != nil {
		if domain.ErrorCode(err) == domain.ENOTFOUND {
			return nil, ErrShipmentNotFound
		}
		return nil, domain.WrapError(err, domain.EINTERNAL, "shipment.get", "failed to load shipment")
	}
	return shipment, nil
}

func (s *shipmentService) Track(ctx context.Context, trackingNumber string) (*domain.Shipment, error) {
	const op = "shipment.track"

	shipment, err := s.shipments.GetShipmentByTracking(ctx, trackingNumber)
	if err != nil {
		if domain.ErrorCode(err) == domain.ENOTFOUND {
			return nil, ErrShipmentNotFound
		}
		return nil, domain.WrapError(err, domain.EINTERNAL, op, "failed to load shipment")
	}

	if err := s.refreshFromCarrier(ctx, shipment); err != nil {
		// stale data beats no data
		s.logger.Warn("failed to refresh shipment from carrier",
			slog.String("tracking_number", trackingNumber),
			slog.String("error", err.Error()))
	}
	return shipment, nil
}

func (s *shipmentService) SyncOpenShipments(ctx context.Context, limit int32) (int, error) {
	open, err := s.shipments.ListOpenShipments(ctx, limit)
	if err != nil {
		return 0, domain.WrapError(err, domain.EINTERNAL, "shipment.sync", "failed to list open shipments")
	}

	refreshed := 0
	for i := range open {
		if err := s.refreshFromCarrier(ctx, &open[i]); err != nil {
			s.logger.Warn("failed to sync shipment",
				slog.String("tracking_number", open[i].TrackingNumber),
				slog.String("error", err.Error()))
			continue
		}
		refreshed++
	}
	return refreshed, nil
}

// refreshFromCarrier pulls the carrier-side state and updates the local row.
func (s *shipmentService) refreshFromCarrier(ctx context.Context, shipment *domain.Shipment) error {
	if shipment.TrackingNumber == "" {
		return nil
	}

	detail, err := s.gateway.GetOrderDetail(ctx, shipment.TrackingNumber)
	if err != nil {
		return err
	}

	changed := false
	if status := domain.ShipmentStatusFromCarrier(detail.Status); status != "" && status != shipment.Status {
		shipment.Status = status
		changed = true
	}
	if detail.PickTime != "" && shipment.ShippedAt == nil {
		if picked, perr := time.Parse(carrierTimeLayout, detail.PickTime); perr == nil {
			shipment.ShippedAt = &picked
			changed = true
		}
	}

	if !changed {
		return nil
	}
	shipment.UpdatedAt = time.Now()
	if err := s.shipments.UpdateShipment(ctx, shipment); err != nil {
		return domain.WrapError(err, domain.EINTERNAL, "shipment.refresh", "failed to update shipment")
	}
	s.logger.Info("shipment updated from carrier",
		slog.String("tracking_number", shipment.TrackingNumber),
		slog.String("status", string(shipment.Status)))
	return nil
}
