// Package cart keeps the displayed cart consistent with the server cart.
//
// The Machine runs one operation at a time. A mutation is always followed by a
// full re-fetch; the snapshot is only ever replaced by what GetCart returns.
package cart

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fjod/go_storefront/internal/domain"
	"github.com/fjod/go_storefront/internal/presenter"
	"github.com/fjod/go_storefront/internal/remote"
	"github.com/fjod/go_storefront/pkg/logger"
)

type CartAPI interface {
	GetCart(ctx context.Context) (*domain.Cart, error)
	AddCartItem(ctx context.Context, productID string, qty int) (*remote.Ack, error)
	UpdateCartItem(ctx context.Context, cartItemID, productID string, qty int) (*remote.Ack, error)
	RemoveCartItem(ctx context.Context, cartItemID string) (*remote.Ack, error)
	ClearCart(ctx context.Context) (*remote.Ack, error)
}

// errNoop aborts an operation before it starts without reporting anything.
var errNoop = errors.New("noop")

type Machine struct {
	api       CartAPI
	presenter presenter.Presenter
	logger    *zap.Logger

	// edges holds a busy transition and its notification together,
	// so OnBusyChanged calls arrive in transition order.
	edges sync.Mutex

	mu    sync.Mutex
	state State
	cart  domain.Cart
}

func New(api CartAPI, p presenter.Presenter, l *zap.Logger) *Machine {
	return &Machine{
		api:       api,
		presenter: presenter.OrNop(p),
		logger:    logger.OrNop(l).Named("cart"),
		state:     StateIdle,
		cart:      domain.Cart{Items: []domain.CartItem{}},
	}
}

// CoerceQuantity returns v, or 1 when v is below 1.
func CoerceQuantity(v int) int {
	return max(v, 1)
}

func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Machine) Busy() bool {
	return m.State().IsBusy()
}

// Snapshot returns a copy of the last cart received from the server.
func (m *Machine) Snapshot() domain.Cart {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cart.Clone()
}

// Refresh fetches the server cart without mutating it.
func (m *Machine) Refresh(ctx context.Context) error {
	op, err := m.begin(ctx, "refresh", StateRefreshing, nil)
	if err != nil {
		return err
	}
	defer m.finish(op)
	return m.refresh(ctx, op)
}

func (m *Machine) Add(ctx context.Context, productID string, qty int) error {
	qty = CoerceQuantity(qty)
	return m.mutate(ctx, "add", nil, func(ctx context.Context) error {
		_, err := m.api.AddCartItem(ctx, productID, qty)
		return err
	})
}

// Update sets the quantity of a cart line. An empty productID is taken from the snapshot.
func (m *Machine) Update(ctx context.Context, itemID, productID string, qty int) error {
	qty = CoerceQuantity(qty)
	guard := func(cart domain.Cart) error {
		if productID != "" {
			return nil
		}
		item, ok := cart.Item(itemID)
		if !ok {
			return ErrItemNotFound
		}
		productID = item.ProductID
		return nil
	}
	return m.mutate(ctx, "update", guard, func(ctx context.Context) error {
		_, err := m.api.UpdateCartItem(ctx, itemID, productID, qty)
		return err
	})
}

func (m *Machine) Increment(ctx context.Context, itemID string) error {
	return m.step(ctx, "increment", itemID, 1)
}

// Decrement lowers a line's quantity by one. At quantity 1 it does nothing.
func (m *Machine) Decrement(ctx context.Context, itemID string) error {
	return m.step(ctx, "decrement", itemID, -1)
}

func (m *Machine) step(ctx context.Context, name, itemID string, delta int) error {
	var item domain.CartItem
	guard := func(cart domain.Cart) error {
		var ok bool
		if item, ok = cart.Item(itemID); !ok {
			return ErrItemNotFound
		}
		if item.Qty+delta < 1 {
			return errNoop
		}
		return nil
	}
	err := m.mutate(ctx, name, guard, func(ctx context.Context) error {
		_, err := m.api.UpdateCartItem(ctx, item.ID, item.ProductID, CoerceQuantity(item.Qty+delta))
		return err
	})
	if errors.Is(err, errNoop) {
		return nil
	}
	return err
}

func (m *Machine) Remove(ctx context.Context, itemID string) error {
	return m.mutate(ctx, "remove", nil, func(ctx context.Context) error {
		_, err := m.api.RemoveCartItem(ctx, itemID)
		return err
	})
}

func (m *Machine) Clear(ctx context.Context) error {
	return m.mutate(ctx, "clear", nil, func(ctx context.Context) error {
		_, err := m.api.ClearCart(ctx)
		return err
	})
}

type operation struct {
	log *zap.Logger
}

// mutate runs Idle -> Mutating -> Refreshing -> Idle. The mutation's response is discarded.
func (m *Machine) mutate(ctx context.Context, name string, guard func(domain.Cart) error, call func(context.Context) error) error {
	op, err := m.begin(ctx, name, StateMutating, guard)
	if err != nil {
		return err
	}
	defer m.finish(op)

	if err := call(ctx); err != nil {
		m.fail(op, err)
		return err
	}

	m.mu.Lock()
	m.state = StateRefreshing
	m.mu.Unlock()
	op.log.Debug("cart transition", zap.Stringer("from", StateMutating), zap.Stringer("to", StateRefreshing))

	return m.refresh(ctx, op)
}

// begin leaves Idle atomically. guard runs under the lock against the current snapshot.
func (m *Machine) begin(ctx context.Context, name string, to State, guard func(domain.Cart) error) (*operation, error) {
	op := &operation{
		log: logger.WithContext(ctx, m.logger).With(
			zap.String("op", name),
			zap.String("op_id", uuid.NewString()),
		),
	}

	m.edges.Lock()
	defer m.edges.Unlock()

	m.mu.Lock()
	if m.state != StateIdle {
		current := m.state
		m.mu.Unlock()
		op.log.Debug("cart operation rejected", zap.Stringer("state", current))
		return nil, ErrBusy
	}
	if guard != nil {
		if err := guard(m.cart); err != nil {
			m.mu.Unlock()
			return nil, err
		}
	}
	m.state = to
	m.mu.Unlock()

	op.log.Debug("cart transition", zap.Stringer("from", StateIdle), zap.Stringer("to", to))
	m.presenter.OnBusyChanged(true)
	return op, nil
}

func (m *Machine) finish(op *operation) {
	m.edges.Lock()
	defer m.edges.Unlock()

	m.mu.Lock()
	from := m.state
	m.state = StateIdle
	m.mu.Unlock()

	op.log.Debug("cart transition", zap.Stringer("from", from), zap.Stringer("to", StateIdle))
	m.presenter.OnBusyChanged(false)
}

func (m *Machine) refresh(ctx context.Context, op *operation) error {
	cart, err := m.api.GetCart(ctx)
	if err != nil {
		m.fail(op, err)
		return err
	}

	next := cart.Clone()
	if next.Items == nil {
		next.Items = []domain.CartItem{}
	}
	m.mu.Lock()
	m.cart = next
	m.mu.Unlock()

	op.log.Debug("cart refreshed", zap.Int("items", next.Len()), zap.String("final_total", next.FinalTotal.String()))
	m.presenter.OnCartUpdated(next.Clone())
	return nil
}

// fail reports err; the snapshot is left as it was before the operation.
func (m *Machine) fail(op *operation, err error) {
	op.log.Warn("cart operation failed", zap.Error(err))
	m.presenter.OnError(presenter.KindRemote, err.Error())
}
