package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/minhdn/cuestore/internal/domain"
	"github.com/minhdn/cuestore/internal/service"
)

// AddressHandler serves the shipping-address endpoints.
type AddressHandler struct {
	addresses service.AddressService
}

func NewAddressHandler(addresses service.AddressService) *AddressHandler {
	return &AddressHandler{addresses: addresses}
}

type addressRequest struct {
	RecipientName string `json:"recipient_name" validate:"required,max=100"`
	Phone         string `json:"phone" validate:"required,max=20"`
	AddressLine   string `json:"address_line" validate:"required,max=255"`
	Ward          string `json:"ward" validate:"max=100"`
	District      string `json:"district" validate:"required,max=100"`
	City          string `json:"city" validate:"max=100"`
	Province      string `json:"province" validate:"required,max=100"`
	PostalCode    string `json:"postal_code" validate:"max=20"`
	IsDefault     bool   `json:"is_default"`
}

type addressResponse struct {
	ID            uuid.UUID `json:"id"`
	RecipientName string    `json:"recipient_name"`
	Phone         string    `json:"phone"`
	AddressLine   string    `json:"address_line"`
	Ward          string    `json:"ward"`
	District      string    `json:"district"`
	City          string    `json:"city"`
	Province      string    `json:"province"`
	PostalCode    string    `json:"postal_code"`
	IsDefault     bool      `json:"is_default"`
	CreatedAt     time.Time `json:"created_at"`
}

func toAddressResponse(a domain.Address) addressResponse {
	return addressResponse{
		ID:            a.ID,
		RecipientName: a.RecipientName,
		Phone:         a.Phone,
		AddressLine:   a.AddressLine,
		Ward:          a.Ward,
		District:      a.District,
		City:          a.City,
		Province:      a.Province,
		PostalCode:    a.PostalCode,
		IsDefault:     a.IsDefault,
		CreatedAt:     a.CreatedAt,
	}
}

func (req addressRequest) toDomain() domain.Address {
	return domain.Address{
		RecipientName: req.RecipientName,
		Phone:         req.Phone,
		AddressLine:   req.AddressLine,
		Ward:          req.Ward,
		District:      req.District,
		City:          req.City,
		Province:      req.Province,
		PostalCode:    req.PostalCode,
		IsDefault:     req.IsDefault,
	}
}

// List handles GET /api/v1/addresses
func (h *AddressHandler) List(w http.ResponseWriter, r *http.Request) {
	addrs, err := h.addresses.ListAddresses(r.Context(), userID(r))
	if err != nil {
		respondError(w, r, err)
		return
	}

	out := make([]addressResponse, 0, len(addrs))
	for _, a := range addrs {
		out = append(out, toAddressResponse(a))
	}
	respondJSON(w, http.StatusOK, map[string]any{"addresses": out})
}

// Get handles GET /api/v1/addresses/{id}
func (h *AddressHandler) Get(w http.ResponseWriter, r *http.Request) {
	addrID, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	addr, err := h.addresses.GetAddress(r.Context(), userID(r), addrID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toAddressResponse(*addr))
}

// Create handles POST /api/v1/addresses
func (h *AddressHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req addressRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	addr, err := h.addresses.CreateAddress(r.Context(), userID(r), req.toDomain())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toAddressResponse(*addr))
}

// Update handles PUT /api/v1/addresses/{id}
func (h *AddressHandler) Update(w http.ResponseWriter, r *http.Request) {
	addrID, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	var req addressRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	addr := req.toDomain()
	addr.ID = addrID
	updated, err := h.addresses.UpdateAddress(r.Context(), userID(r), addr)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toAddressResponse(*updated))
}

// Delete handles DELETE /api/v1/addresses/{id}
func (h *AddressHandler) Delete(w http.ResponseWriter, r *http.Request) {
	addrID, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	if err := h.addresses.DeleteAddress(r.Context(), userID(r), addrID); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

// SetDefault handles POST /api/v1/addresses/{id}/default
func (h *AddressHandler) SetDefault(w http.ResponseWriter, r *http.Request) {
	addrID, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	if err := h.addresses.SetDefaultAddress(r.Context(), userID(r), addrID); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}
