package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/minhdn/cuestore/internal/domain"
	"github.com/minhdn/cuestore/internal/service"
)

// ShipmentHandler serves shipment tracking endpoints.
type ShipmentHandler struct {
	shipments service.ShipmentService
	orders    service.OrderService
}

func NewShipmentHandler(shipments service.ShipmentService, orders service.OrderService) *ShipmentHandler {
	return &ShipmentHandler{shipments: shipments, orders: orders}
}

type shipmentResponse struct {
	ID                uuid.UUID       `json:"id"`
	OrderID           uuid.UUID       `json:"order_id"`
	TrackingNumber    string          `json:"tracking_number,omitempty"`
	Carrier           string          `json:"carrier"`
	Status            string          `json:"status"`
	DeliveryAddress   string          `json:"delivery_address"`
	WeightGrams       int32           `json:"weight_grams"`
	ShippingCost      decimal.Decimal `json:"shipping_cost"`
	EstimatedDelivery *time.Time      `json:"estimated_delivery,omitempty"`
	ShippedAt         *time.Time      `json:"shipped_at,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
}

func toShipmentResponse(s domain.Shipment) shipmentResponse {
	return shipmentResponse{
		ID:                s.ID,
		OrderID:           s.OrderID,
		TrackingNumber:    s.TrackingNumber,
		Carrier:           s.Carrier,
		Status:            string(s.Status),
		DeliveryAddress:   s.DeliveryAddress,
		WeightGrams:       s.WeightGrams,
		ShippingCost:      s.ShippingCost,
		EstimatedDelivery: s.EstimatedDelivery,
		ShippedAt:         s.ShippedAt,
		CreatedAt:         s.CreatedAt,
	}
}

// GetByOrder handles GET /api/v1/orders/{id}/shipment. Ownership is enforced
// by loading the order through the order service first.
func (h *ShipmentHandler) GetByOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	if _, err := h.orders.Get(r.Context(), userID(r), orderID); err != nil {
		respondError(w, r, err)
		return
	}

	shipment, err := h.shipments.GetByOrder(r.Context(), orderID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toShipmentResponse(*shipment))
}

// Track handles GET /api/v1/shipments/{tracking}. Refreshes the local record
// from the carrier when possible; a stale record still answers.
func (h *ShipmentHandler) Track(w http.ResponseWriter, r *http.Request) {
	tracking := r.PathValue("tracking")
	if tracking == "" {
		respondError(w, r, domain.Invalid("api.track", "missing tracking number"))
		return
	}

	shipment, err := h.shipments.Track(r.Context(), tracking)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toShipmentResponse(*shipment))
}
