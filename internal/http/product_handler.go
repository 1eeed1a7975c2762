package http

import (
	"net/http"

	"github.com/fjod/go_storefront/internal/domain"
	"github.com/fjod/go_storefront/internal/storefront"
)

type ProductHandler struct {
	store *storefront.Storefront
}

func NewProductHandler(store *storefront.Storefront) *ProductHandler {
	return &ProductHandler{store: store}
}

type ProductsResponse struct {
	Products   []domain.Product  `json:"products"`
	Pagination domain.Pagination `json:"pagination"`
	Loaded     bool              `json:"loaded"`
}

// SelectionResponse describes the product detail view. Product is absent while it is closed.
type SelectionResponse struct {
	Open    bool            `json:"open"`
	Product *domain.Product `json:"product,omitempty"`
	Qty     int             `json:"qty"`
}

type SelectRequestDTO struct {
	ProductID string    `json:"product_id"`
	Qty       *Quantity `json:"qty"`
}

// GET /api/v1/products
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	c := h.store.Catalog()
	respondJSON(w, http.StatusOK, ProductsResponse{
		Products:   c.Products(),
		Pagination: c.Pagination(),
		Loaded:     c.Loaded(),
	})
}

// POST /api/v1/products/refresh
func (h *ProductHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	c := h.store.Catalog()
	products, err := c.FetchCatalog(operationContext(r))
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, ProductsResponse{
		Products:   products,
		Pagination: c.Pagination(),
		Loaded:     true,
	})
}

// GET /api/v1/products/selected
func (h *ProductHandler) Selected(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.selection())
}

// PUT /api/v1/products/selected
func (h *ProductHandler) Select(w http.ResponseWriter, r *http.Request) {
	var req SelectRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ProductID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}

	c := h.store.Catalog()
	if _, err := c.InspectID(req.ProductID); err != nil {
		handleError(w, err)
		return
	}
	if req.Qty != nil {
		if _, err := c.SelectQuantity(req.Qty.Int()); err != nil {
			handleError(w, err)
			return
		}
	}
	respondJSON(w, http.StatusOK, h.selection())
}

// DELETE /api/v1/products/selected
func (h *ProductHandler) Dismiss(w http.ResponseWriter, r *http.Request) {
	h.store.Catalog().Dismiss()
	w.WriteHeader(http.StatusNoContent)
}

// POST /api/v1/products/selected/cart
func (h *ProductHandler) AddSelected(w http.ResponseWriter, r *http.Request) {
	if err := h.store.AddSelected(operationContext(r)); err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, newCartResponse(h.store.Cart()))
}

func (h *ProductHandler) selection() SelectionResponse {
	p, qty, ok := h.store.Catalog().Selection()
	if !ok {
		return SelectionResponse{}
	}
	return SelectionResponse{Open: true, Product: &p, Qty: qty}
}
