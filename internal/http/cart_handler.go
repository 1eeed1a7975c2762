package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fjod/go_storefront/internal/cart"
	"github.com/fjod/go_storefront/internal/domain"
	"github.com/fjod/go_storefront/internal/storefront"
)

type CartHandler struct {
	store *storefront.Storefront
}

func NewCartHandler(store *storefront.Storefront) *CartHandler {
	return &CartHandler{store: store}
}

type AddItemRequestDTO struct {
	ProductID string   `json:"product_id"`
	Qty       Quantity `json:"qty"`
}

type UpdateItemRequestDTO struct {
	ProductID string    `json:"product_id"`
	Qty       *Quantity `json:"qty"`
}

type CartResponse struct {
	Cart  domain.Cart `json:"cart"`
	State string      `json:"state"`
	Busy  bool        `json:"busy"`
}

func newCartResponse(m *cart.Machine) CartResponse {
	state := m.State()
	return CartResponse{
		Cart:  m.Snapshot(),
		State: state.String(),
		Busy:  state.IsBusy(),
	}
}

// GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, newCartResponse(h.store.Cart()))
}

// POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ProductID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}

	m := h.store.Cart()
	if err := m.Add(operationContext(r), req.ProductID, req.Qty.Int()); err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, newCartResponse(m))
}

// PUT /api/v1/cart/items/{item_id}
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var req UpdateItemRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Qty == nil {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "qty is required")
		return
	}

	m := h.store.Cart()
	if err := m.Update(operationContext(r), chi.URLParam(r, "item_id"), req.ProductID, req.Qty.Int()); err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, newCartResponse(m))
}

// POST /api/v1/cart/items/{item_id}/increment
func (h *CartHandler) Increment(w http.ResponseWriter, r *http.Request) {
	m := h.store.Cart()
	if err := m.Increment(operationContext(r), chi.URLParam(r, "item_id")); err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, newCartResponse(m))
}

// POST /api/v1/cart/items/{item_id}/decrement
func (h *CartHandler) Decrement(w http.ResponseWriter, r *http.Request) {
	m := h.store.Cart()
	if err := m.Decrement(operationContext(r), chi.URLParam(r, "item_id")); err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, newCartResponse(m))
}

// DELETE /api/v1/cart/items/{item_id}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	m := h.store.Cart()
	if err := m.Remove(operationContext(r), chi.URLParam(r, "item_id")); err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, newCartResponse(m))
}

// DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	m := h.store.Cart()
	if err := m.Clear(operationContext(r)); err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, newCartResponse(m))
}

// POST /api/v1/cart/refresh
func (h *CartHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	m := h.store.Cart()
	if err := m.Refresh(operationContext(r)); err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, newCartResponse(m))
}
