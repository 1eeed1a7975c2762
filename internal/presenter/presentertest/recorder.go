// Package presentertest records Presenter notifications for assertions.
package presentertest

import (
	"sync"

	"github.com/fjod/go_storefront/internal/domain"
	"github.com/fjod/go_storefront/internal/presenter"
)

type Error struct {
	Kind    presenter.Kind
	Message string
}

var _ presenter.Presenter = (*Recorder)(nil)

// Recorder is a Presenter that keeps every notification in order. Safe for concurrent use.
type Recorder struct {
	mu       sync.Mutex
	loads    [][]domain.Product
	carts    []domain.Cart
	errors   []Error
	busy     []bool
	sequence []string
}

func (r *Recorder) OnProductsLoaded(products []domain.Product) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loads = append(r.loads, append([]domain.Product(nil), products...))
	r.sequence = append(r.sequence, "products")
}

func (r *Recorder) OnCartUpdated(cart domain.Cart) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.carts = append(r.carts, cart.Clone())
	r.sequence = append(r.sequence, "cart")
}

func (r *Recorder) OnError(kind presenter.Kind, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, Error{Kind: kind, Message: message})
	r.sequence = append(r.sequence, "error:"+kind.String())
}

func (r *Recorder) OnBusyChanged(busy bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.busy = append(r.busy, busy)
	if busy {
		r.sequence = append(r.sequence, "busy")
	} else {
		r.sequence = append(r.sequence, "idle")
	}
}

func (r *Recorder) Loads() [][]domain.Product {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]domain.Product(nil), r.loads...)
}

func (r *Recorder) Carts() []domain.Cart {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Cart(nil), r.carts...)
}

// LastCart returns the most recently reported cart.
func (r *Recorder) LastCart() (domain.Cart, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.carts) == 0 {
		return domain.Cart{}, false
	}
	return r.carts[len(r.carts)-1], true
}

func (r *Recorder) Errors() []Error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Error(nil), r.errors...)
}

func (r *Recorder) ErrorsOf(kind presenter.Kind) []Error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Error
	for _, e := range r.errors {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

func (r *Recorder) Busy() []bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]bool(nil), r.busy...)
}

// Sequence lists notifications as "products", "cart", "error:<kind>", "busy" and "idle".
func (r *Recorder) Sequence() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.sequence...)
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loads, r.carts, r.errors, r.busy, r.sequence = nil, nil, nil, nil, nil
}
