package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/minhdn/cuestore/internal/domain"
	"github.com/minhdn/cuestore/internal/service"
	"github.com/minhdn/cuestore/internal/telemetry"
)

// OrderHandler serves the checkout and order lifecycle endpoints.
type OrderHandler struct {
	orders  service.OrderService
	metrics *telemetry.CheckoutMetrics
}

func NewOrderHandler(orders service.OrderService, metrics *telemetry.CheckoutMetrics) *OrderHandler {
	return &OrderHandler{orders: orders, metrics: metrics}
}

type selectedItemRequest struct {
	CartItemID uuid.UUID `json:"cart_item_id" validate:"required"`
	Quantity   int32     `json:"quantity" validate:"min=0"`
}

type previewRequest struct {
	AddressID      uuid.UUID             `json:"address_id" validate:"required"`
	Items          []selectedItemRequest `json:"items" validate:"omitempty,dive"`
	ShippingMethod string                `json:"shipping_method" validate:"omitempty,oneof=ghn_standard ghn_express ghn_saving"`
	PromotionCode  string                `json:"promotion_code" validate:"omitempty,max=50"`
}

type createOrderRequest struct {
	previewRequest
	Notes string `json:"notes" validate:"max=500"`
}

type appliedPromotionResponse struct {
	Code           string          `json:"code"`
	Name           string          `json:"name"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
}

type previewResponse struct {
	Lines             []cartLineResponse        `json:"lines"`
	ShippingAddress   addressResponse           `json:"shipping_address"`
	ShippingMethod    string                    `json:"shipping_method"`
	Subtotal          decimal.Decimal           `json:"subtotal"`
	ShippingFee       decimal.Decimal           `json:"shipping_fee"`
	DiscountAmount    decimal.Decimal           `json:"discount_amount"`
	TotalAmount       decimal.Decimal           `json:"total_amount"`
	AppliedPromotion  *appliedPromotionResponse `json:"applied_promotion,omitempty"`
	EstimatedDelivery string                    `json:"estimated_delivery"`
}

type orderResponse struct {
	ID              uuid.UUID       `json:"id"`
	OrderNumber     string          `json:"order_number"`
	Status          string          `json:"status"`
	PaymentStatus   string          `json:"payment_status"`
	ShippingAddress string          `json:"shipping_address"`
	ShippingMethod  string          `json:"shipping_method"`
	ShippingCost    decimal.Decimal `json:"shipping_cost"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	Notes           string          `json:"notes,omitempty"`
	CancelReason    string          `json:"cancel_reason,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	ConfirmedAt     *time.Time      `json:"confirmed_at,omitempty"`
	CancelledAt     *time.Time      `json:"cancelled_at,omitempty"`
}

type orderItemResponse struct {
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	ProductSKU  string          `json:"product_sku"`
	Quantity    int32           `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

type orderDetailResponse struct {
	orderResponse
	Items    []orderItemResponse `json:"items"`
	Shipment *shipmentResponse   `json:"shipment,omitempty"`
}

func toOrderResponse(o domain.Order) orderResponse {
	return orderResponse{
		ID:              o.ID,
		OrderNumber:     o.OrderNumber,
		Status:          string(o.Status),
		PaymentStatus:   string(o.PaymentStatus),
		ShippingAddress: o.ShippingAddress,
		ShippingMethod:  o.ShippingMethod,
		ShippingCost:    o.ShippingCost,
		Subtotal:        o.Subtotal,
		DiscountAmount:  o.DiscountAmount,
		TotalAmount:     o.TotalAmount,
		Notes:           o.Notes,
		CancelReason:    o.CancelReason,
		CreatedAt:       o.CreatedAt,
		ConfirmedAt:     o.ConfirmedAt,
		CancelledAt:     o.CancelledAt,
	}
}

// Preview handles POST /api/v1/orders/preview
func (h *OrderHandler) Preview(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.metrics.PreviewsTotal.WithLabelValues("invalid").Inc()
		respondError(w, r, err)
		return
	}

	preview, err := h.orders.Preview(r.Context(), userID(r), service.PreviewRequest{
		AddressID:      req.AddressID,
		Selection:      selectionFromRequest(req.Items),
		ShippingMethod: req.ShippingMethod,
		PromotionCode:  req.PromotionCode,
	})
	if err != nil {
		h.metrics.PreviewsTotal.WithLabelValues(previewOutcome(err)).Inc()
		respondError(w, r, err)
		return
	}

	h.metrics.PreviewsTotal.WithLabelValues("ok").Inc()
	respondJSON(w, http.StatusOK, toPreviewResponse(preview))
}

func previewOutcome(err error) string {
	switch domain.ErrorCode(err) {
	case domain.EUNPROCESSABLE:
		return "unmapped_location"
	case domain.EINVALID, domain.ENOTFOUND, domain.EFORBIDDEN:
		return "invalid"
	default:
		return "error"
	}
}

func toPreviewResponse(p *service.OrderPreview) previewResponse {
	lines := make([]cartLineResponse, 0, len(p.Lines))
	for _, l := range p.Lines {
		lines = append(lines, cartLineResponse{
			CartItemID:     l.CartItemID,
			ProductID:      l.ProductID,
			ProductName:    l.ProductName,
			ProductSKU:     l.ProductSKU,
			UnitPrice:      l.UnitPrice,
			Quantity:       l.Quantity,
			LineTotal:      l.LineTotal,
			AvailableStock: l.AvailableStock,
		})
	}

	resp := previewResponse{
		Lines:             lines,
		ShippingAddress:   toAddressResponse(p.Address),
		ShippingMethod:    p.ShippingMethod,
		Subtotal:          p.Subtotal,
		ShippingFee:       p.ShippingFee,
		DiscountAmount:    p.DiscountAmount,
		TotalAmount:       p.TotalAmount,
		EstimatedDelivery: p.EstimatedDelivery,
	}
	if p.AppliedPromotion != nil {
		resp.AppliedPromotion = &appliedPromotionResponse{
			Code:           p.AppliedPromotion.Promotion.Code,
			Name:           p.AppliedPromotion.Promotion.Name,
			DiscountAmount: p.AppliedPromotion.DiscountAmount,
		}
	}
	return resp
}

// Create handles POST /api/v1/orders
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	order, err := h.orders.Create(r.Context(), userID(r), service.CreateOrderRequest{
		PreviewRequest: service.PreviewRequest{
			AddressID:      req.AddressID,
			Selection:      selectionFromRequest(req.Items),
			ShippingMethod: req.ShippingMethod,
			PromotionCode:  req.PromotionCode,
		},
		Notes: req.Notes,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	h.metrics.OrdersCreated.Inc()
	h.metrics.OrderValue.Observe(order.TotalAmount.InexactFloat64())
	respondJSON(w, http.StatusCreated, toOrderResponse(*order))
}

type confirmRequest struct {
	PaymentMethod string `json:"payment_method" validate:"required,oneof=cash bank_transfer momo vnpay"`
}

// Confirm handles POST /api/v1/orders/{id}/confirm
func (h *OrderHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	orderID, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	var req confirmRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	order, err := h.orders.Confirm(r.Context(), userID(r), orderID, req.PaymentMethod)
	if err != nil {
		respondError(w, r, err)
		return
	}

	h.metrics.OrdersConfirmed.WithLabelValues(req.PaymentMethod).Inc()
	respondJSON(w, http.StatusOK, toOrderResponse(*order))
}

type cancelRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

// Cancel handles POST /api/v1/orders/{id}/cancel
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	orderID, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	var req cancelRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	order, err := h.orders.Cancel(r.Context(), userID(r), orderID, req.Reason)
	if err != nil {
		respondError(w, r, err)
		return
	}

	h.metrics.OrdersCancelled.Inc()
	respondJSON(w, http.StatusOK, toOrderResponse(*order))
}

// Get handles GET /api/v1/orders/{id}
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	orderID, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	detail, err := h.orders.Get(r.Context(), userID(r), orderID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	resp := orderDetailResponse{orderResponse: toOrderResponse(detail.Order)}
	resp.Items = make([]orderItemResponse, 0, len(detail.Items))
	for _, it := range detail.Items {
		resp.Items = append(resp.Items, orderItemResponse{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			ProductSKU:  it.ProductSKU,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			LineTotal:   it.LineTotal,
		})
	}
	if detail.Shipment != nil {
		sr := toShipmentResponse(*detail.Shipment)
		resp.Shipment = &sr
	}
	respondJSON(w, http.StatusOK, resp)
}

// List handles GET /api/v1/orders. An optional ?status= query restricts the
// result to one order status.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	status := domain.OrderStatus(r.URL.Query().Get("status"))
	if status != "" && !status.Valid() {
		respondError(w, r, domain.Invalid("order.list",
			"status must be one of: pending, confirmed, shipped, delivered, cancelled"))
		return
	}

	orders, err := h.orders.List(r.Context(), userID(r), status)
	if err != nil {
		respondError(w, r, err)
		return
	}

	out := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderResponse(o))
	}
	respondJSON(w, http.StatusOK, map[string]any{"orders": out})
}
