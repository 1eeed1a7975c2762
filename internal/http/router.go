// Package http exposes a storefront over JSON and Server-Sent Events.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/fjod/go_storefront/internal/presenter"
	"github.com/fjod/go_storefront/internal/storefront"
)

// NewRouter mounts every route. The events stream is only mounted when hub is not nil.
func NewRouter(store *storefront.Storefront, hub *presenter.Hub, l *zap.Logger) http.Handler {
	productHandler := NewProductHandler(store)
	cartHandler := NewCartHandler(store)
	orderHandler := NewOrderHandler(store)

	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(RequestIDMiddleware)
	r.Use(RequestLogger(l))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", productHandler.List)
			r.Post("/refresh", productHandler.Refresh)
			r.Get("/selected", productHandler.Selected)
			r.Put("/selected", productHandler.Select)
			r.Delete("/selected", productHandler.Dismiss)
			r.Post("/selected/cart", productHandler.AddSelected)
		})
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Delete("/", cartHandler.ClearCart)
			r.Post("/refresh", cartHandler.Refresh)
			r.Post("/items", cartHandler.AddItem)
			r.Put("/items/{item_id}", cartHandler.UpdateItem)
			r.Delete("/items/{item_id}", cartHandler.RemoveItem)
			r.Post("/items/{item_id}/increment", cartHandler.Increment)
			r.Post("/items/{item_id}/decrement", cartHandler.Decrement)
		})
		r.Route("/orders", func(r chi.Router) {
			r.Post("/", orderHandler.Submit)
			r.Post("/validate", orderHandler.Validate)
		})
		if hub != nil {
			r.Get("/events", NewEventsHandler(hub, l).Stream)
		}
	})

	return otelhttp.NewHandler(r, "storefront")
}
