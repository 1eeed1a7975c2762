// Package presenter is the boundary between the storefront core and whatever
// renders it. The core only calls into a Presenter; it never renders anything.
package presenter

import (
	"go.uber.org/zap"

	"github.com/fjod/go_storefront/internal/domain"
)

// Kind classifies a user-visible error notification.
type Kind string

const (
	KindRemote     Kind = "remote"
	KindValidation Kind = "validation"
	KindCatalog    Kind = "catalog"
	KindOrder      Kind = "order"
)

func (k Kind) String() string {
	return string(k)
}

type Presenter interface {
	OnProductsLoaded(products []domain.Product)
	OnCartUpdated(cart domain.Cart)
	OnError(kind Kind, message string)
	OnBusyChanged(busy bool)
}

// Nop discards every notification.
type Nop struct{}

func (Nop) OnProductsLoaded([]domain.Product) {}
func (Nop) OnCartUpdated(domain.Cart)         {}
func (Nop) OnError(Kind, string)              {}
func (Nop) OnBusyChanged(bool)                {}

// OrNop never returns nil.
func OrNop(p Presenter) Presenter {
	if p == nil {
		return Nop{}
	}
	return p
}

type multi []Presenter

// Multi forwards every notification to each presenter in order.
func Multi(presenters ...Presenter) Presenter {
	out := make(multi, 0, len(presenters))
	for _, p := range presenters {
		if p != nil {
			out = append(out, p)
		}
	}
	return out
}

func (m multi) OnProductsLoaded(products []domain.Product) {
	for _, p := range m {
		p.OnProductsLoaded(products)
	}
}

func (m multi) OnCartUpdated(cart domain.Cart) {
	for _, p := range m {
		p.OnCartUpdated(cart)
	}
}

func (m multi) OnError(kind Kind, message string) {
	for _, p := range m {
		p.OnError(kind, message)
	}
}

func (m multi) OnBusyChanged(busy bool) {
	for _, p := range m {
		p.OnBusyChanged(busy)
	}
}

// Logging writes notifications to a zap logger; errors at warn level, the rest at debug.
type Logging struct {
	Logger *zap.Logger
}

func (l Logging) OnProductsLoaded(products []domain.Product) {
	l.Logger.Debug("products loaded", zap.Int("count", len(products)))
}

func (l Logging) OnCartUpdated(cart domain.Cart) {
	l.Logger.Debug("cart updated",
		zap.Int("items", cart.Len()),
		zap.String("final_total", cart.FinalTotal.String()))
}

func (l Logging) OnError(kind Kind, message string) {
	l.Logger.Warn("user notified of error", zap.Stringer("kind", kind), zap.String("message", message))
}

func (l Logging) OnBusyChanged(busy bool) {
	l.Logger.Debug("busy changed", zap.Bool("busy", busy))
}
