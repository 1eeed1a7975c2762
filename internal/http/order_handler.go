package http

import (
	"net/http"

	"github.com/fjod/go_storefront/internal/checkout"
	"github.com/fjod/go_storefront/internal/storefront"
)

type OrderHandler struct {
	store *storefront.Storefront
}

func NewOrderHandler(store *storefront.Storefront) *OrderHandler {
	return &OrderHandler{store: store}
}

// POST /api/v1/orders
func (h *OrderHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var form checkout.Form
	if !decodeJSON(w, r, &form) {
		return
	}

	receipt, err := h.store.Checkout().Submit(operationContext(r), form)
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, receipt)
}

// POST /api/v1/orders/validate
func (h *OrderHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var form checkout.Form
	if !decodeJSON(w, r, &form) {
		return
	}
	if err := h.store.Checkout().Validate(form); err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
