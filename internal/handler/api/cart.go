package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/minhdn/cuestore/internal/domain"
	"github.com/minhdn/cuestore/internal/service"
)

// CartHandler serves the cart endpoints.
type CartHandler struct {
	carts service.CartService
}

func NewCartHandler(carts service.CartService) *CartHandler {
	return &CartHandler{carts: carts}
}

type cartLineResponse struct {
	CartItemID     uuid.UUID       `json:"cart_item_id"`
	ProductID      uuid.UUID       `json:"product_id"`
	ProductName    string          `json:"product_name"`
	ProductSKU     string          `json:"product_sku"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	Quantity       int32           `json:"quantity"`
	LineTotal      decimal.Decimal `json:"line_total"`
	AvailableStock int32           `json:"available_stock"`
}

type cartResponse struct {
	CartID     uuid.UUID          `json:"cart_id"`
	Lines      []cartLineResponse `json:"lines"`
	TotalItems int32              `json:"total_items"`
	Subtotal   decimal.Decimal    `json:"subtotal"`
}

func toCartResponse(view *service.CartView) cartResponse {
	lines := make([]cartLineResponse, 0, len(view.Lines))
	for _, l := range view.Lines {
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
	return cartResponse{
		CartID:     view.Cart.ID,
		Lines:      lines,
		TotalItems: view.TotalItems,
		Subtotal:   view.Subtotal,
	}
}

// GetCart handles GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	view, err := h.carts.GetCart(r.Context(), userID(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toCartResponse(view))
}

type addItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int32     `json:"quantity" validate:"required,min=1"`
}

// AddItem handles POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	view, err := h.carts.AddItem(r.Context(), userID(r), req.ProductID, req.Quantity)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toCartResponse(view))
}

type updateItemRequest struct {
	Quantity int32 `json:"quantity" validate:"required,min=1"`
}

// UpdateItem handles PUT /api/v1/cart/items/{id}
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	var req updateItemRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	view, err := h.carts.UpdateItemQuantity(r.Context(), userID(r), itemID, req.Quantity)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toCartResponse(view))
}

// RemoveItem handles DELETE /api/v1/cart/items/{id}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	view, err := h.carts.RemoveItem(r.Context(), userID(r), itemID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toCartResponse(view))
}

// ClearCart handles DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.carts.ClearCart(r.Context(), userID(r)); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

// selectionFromRequest converts selection DTOs to the domain form.
func selectionFromRequest(items []selectedItemRequest) []domain.SelectedCartItem {
	if len(items) == 0 {
		return nil
	}
	out := make([]domain.SelectedCartItem, 0, len(items))
	for _, it := range items {
		out = append(out, domain.SelectedCartItem{CartItemID: it.CartItemID, Quantity: it.Quantity})
	}
	return out
}
