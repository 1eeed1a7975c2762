// Package remotetest runs an in-memory commerce API for tests. Totals are
// computed server side, so the server's cart is the reference a client must match.
package remotetest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/fjod/go_storefront/internal/domain"
)

// Route keys for Calls, FailNext and Hold.
const (
	RouteListProducts   = "GET /products"
	RouteGetCart        = "GET /cart"
	RouteAddCartItem    = "POST /cart"
	RouteUpdateCartItem = "PUT /cart/{id}"
	RouteRemoveCartItem = "DELETE /cart/{id}"
	RouteClearCart      = "DELETE /carts"
	RouteSubmitOrder    = "POST /order"
)

const APIPath = "test-shop"

type failure struct {
	status  int
	message string
}

type line struct {
	id        string
	productID string
	qty       int
}

type Server struct {
	srv *httptest.Server

	mu       sync.Mutex
	products []domain.Product
	lines    []line
	nextID   int
	calls    map[string]int
	failures map[string][]failure
	holds    map[string]chan struct{}
	orders   []json.RawMessage
}

// NewServer starts a fake API stocked with products. It is closed when the test ends.
func NewServer(t testing.TB, products ...domain.Product) *Server {
	t.Helper()
	s := &Server{
		products: products,
		calls:    map[string]int{},
		failures: map[string][]failure{},
		holds:    map[string]chan struct{}{},
	}

	r := chi.NewRouter()
	r.Route("/v2/api/{path}", func(r chi.Router) {
		r.Get("/products", s.track(RouteListProducts, s.listProducts))
		r.Get("/cart", s.track(RouteGetCart, s.getCart))
		r.Post("/cart", s.track(RouteAddCartItem, s.addItem))
		r.Put("/cart/{id}", s.track(RouteUpdateCartItem, s.updateItem))
		r.Delete("/cart/{id}", s.track(RouteRemoveCartItem, s.removeItem))
		r.Delete("/carts", s.track(RouteClearCart, s.clearCart))
		r.Post("/order", s.track(RouteSubmitOrder, s.submitOrder))
	})

	s.srv = httptest.NewServer(r)
	t.Cleanup(s.srv.Close)
	return s
}

func (s *Server) URL() string {
	return s.srv.URL
}

func (s *Server) Client() *http.Client {
	return s.srv.Client()
}

// FailNext makes the next call on route answer with status and a success=false body.
func (s *Server) FailNext(route string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = append(s.failures[route], failure{status: status, message: message})
}

// Hold blocks calls on route until the returned release func is called.
func (s *Server) Hold(route string) (release func()) {
	ch := make(chan struct{})
	s.mu.Lock()
	s.holds[route] = ch
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.holds, route)
			s.mu.Unlock()
			close(ch)
		})
	}
}

func (s *Server) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[route]
}

func (s *Server) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, n := range s.calls {
		total += n
	}
	return total
}

// Orders returns the raw "data" objects of accepted orders.
func (s *Server) Orders() []json.RawMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]json.RawMessage(nil), s.orders...)
}

// Cart is the server's current cart, as GET /cart would return it.
func (s *Server) Cart() domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cartLocked()
}

// Seed puts a line straight into the server cart and returns its id.
func (s *Server) Seed(productID string, qty int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendLineLocked(productID, qty)
}

func (s *Server) track(route string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.calls[route]++
		hold := s.holds[route]
		var fail *failure
		if queue := s.failures[route]; len(queue) > 0 {
			fail = &queue[0]
			s.failures[route] = queue[1:]
		}
		s.mu.Unlock()

		if hold != nil {
			select {
			case <-hold:
			case <-r.Context().Done():
				return
			}
		}
		if fail != nil {
			writeJSON(w, fail.status, map[string]any{"success": false, "message": fail.message})
			return
		}
		if chi.URLParam(r, "path") != APIPath {
			writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "message": "unknown api path"})
			return
		}
		h(w, r)
	}
}

func (s *Server) listProducts(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	products := append([]domain.Product{}, s.products...)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"products": products,
		"pagination": domain.Pagination{
			TotalPages:  1,
			CurrentPage: 1,
		},
	})
}

func (s *Server) getCart(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": s.Cart()})
}

type lineBody struct {
	Data struct {
		ProductID string `json:"product_id"`
		Qty       int    `json:"qty"`
	} `json:"data"`
}

func (s *Server) addItem(w http.ResponseWriter, r *http.Request) {
	var body lineBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		refuse(w, "invalid body")
		return
	}
	if body.Data.Qty < 1 {
		refuse(w, "qty must be at least 1")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.productLocked(body.Data.ProductID); !ok {
		refuse(w, "product not found")
		return
	}
	for i := range s.lines {
		if s.lines[i].productID == body.Data.ProductID {
			s.lines[i].qty += body.Data.Qty
			writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "updated"})
			return
		}
	}
	s.appendLineLocked(body.Data.ProductID, body.Data.Qty)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "added"})
}

func (s *Server) updateItem(w http.ResponseWriter, r *http.Request) {
	var body lineBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		refuse(w, "invalid body")
		return
	}
	if body.Data.Qty < 1 {
		refuse(w, "qty must be at least 1")
		return
	}

	id := chi.URLParam(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.lines {
		if s.lines[i].id == id {
			s.lines[i].qty = body.Data.Qty
			writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "updated"})
			return
		}
	}
	refuse(w, "cart item not found")
}

func (s *Server) removeItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.lines {
		if s.lines[i].id == id {
			s.lines = append(s.lines[:i], s.lines[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "removed"})
			return
		}
	}
	refuse(w, "cart item not found")
}

func (s *Server) clearCart(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	s.lines = nil
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "cleared"})
}

func (s *Server) submitOrder(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body.Data) == 0 {
		refuse(w, "invalid body")
		return
	}
	var order domain.OrderRequest
	if err := json.Unmarshal(body.Data, &order); err != nil {
		refuse(w, "invalid body")
		return
	}
	var missing []string
	if order.User.Email == "" {
		missing = append(missing, "user.email required")
	}
	if order.User.Name == "" {
		missing = append(missing, "user.name required")
	}
	if order.User.Tel == "" {
		missing = append(missing, "user.tel required")
	}
	if order.User.Address == "" {
		missing = append(missing, "user.address required")
	}
	if len(missing) > 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": missing})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.lines) == 0 {
		refuse(w, "cart is empty")
		return
	}
	total := s.cartLocked().FinalTotal
	s.orders = append(s.orders, body.Data)
	s.lines = nil

	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"message":   "order created",
		"total":     total.InexactFloat64(),
		"create_at": 1700000000,
		"orderId":   fmt.Sprintf("order-%d", len(s.orders)),
	})
}

func (s *Server) appendLineLocked(productID string, qty int) string {
	s.nextID++
	id := fmt.Sprintf("item-%d", s.nextID)
	s.lines = append(s.lines, line{id: id, productID: productID, qty: qty})
	return id
}

func (s *Server) productLocked(id string) (domain.Product, bool) {
	for _, p := range s.products {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Product{}, false
}

func (s *Server) cartLocked() domain.Cart {
	cart := domain.Cart{Items: []domain.CartItem{}}
	for _, l := range s.lines {
		p, _ := s.productLocked(l.productID)
		qty := decimal.NewFromInt(int64(l.qty))
		item := domain.CartItem{
			ID:         l.id,
			ProductID:  l.productID,
			Product:    p,
			Qty:        l.qty,
			Total:      p.OriginPrice.Mul(qty),
			FinalTotal: p.SellingPrice().Mul(qty),
		}
		cart.Items = append(cart.Items, item)
		cart.Total = cart.Total.Add(item.Total)
		cart.FinalTotal = cart.FinalTotal.Add(item.FinalTotal)
	}
	return cart
}

// Product builds a fixture product with an origin price and an optional special price.
func Product(id, title string, origin int64, special ...int64) domain.Product {
	p := domain.Product{
		ID:          id,
		Title:       title,
		Unit:        "pc",
		OriginPrice: decimal.NewFromInt(origin),
		IsEnabled:   1,
	}
	if len(special) > 0 {
		p.Price = decimal.NewNullDecimal(decimal.NewFromInt(special[0]))
	}
	return p
}

func refuse(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": message})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
