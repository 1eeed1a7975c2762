package cart

import (
	"context"
	"fmt"
	"sync"

	"github.com/fjod/go_storefront/internal/domain"
	"github.com/fjod/go_storefront/internal/remote"
)

// mockAPI records calls in order and serves a fixed cart.
type mockAPI struct {
	m       sync.Mutex
	cart    domain.Cart
	calls   []string
	getErr  error
	callErr error
}

func (m *mockAPI) record(format string, args ...any) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.calls = append(m.calls, fmt.Sprintf(format, args...))
	return m.callErr
}

func (m *mockAPI) GetCart(context.Context) (*domain.Cart, error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.calls = append(m.calls, "getCart")
	if m.getErr != nil {
		return nil, m.getErr
	}
	c := m.cart.Clone()
	return &c, nil
}

func (m *mockAPI) AddCartItem(_ context.Context, productID string, qty int) (*remote.Ack, error) {
	if err := m.record("add %s %d", productID, qty); err != nil {
		return nil, err
	}
	// the machine must ignore this
	return &remote.Ack{Message: "added"}, nil
}

func (m *mockAPI) UpdateCartItem(_ context.Context, cartItemID, productID string, qty int) (*remote.Ack, error) {
	if err := m.record("update %s %s %d", cartItemID, productID, qty); err != nil {
		return nil, err
	}
	return &remote.Ack{Message: "updated"}, nil
}

func (m *mockAPI) RemoveCartItem(_ context.Context, cartItemID string) (*remote.Ack, error) {
	if err := m.record("remove %s", cartItemID); err != nil {
		return nil, err
	}
	return &remote.Ack{}, nil
}

func (m *mockAPI) ClearCart(context.Context) (*remote.Ack, error) {
	if err := m.record("clear"); err != nil {
		return nil, err
	}
	return &remote.Ack{}, nil
}

func (m *mockAPI) Calls() []string {
	m.m.Lock()
	defer m.m.Unlock()
	return append([]string(nil), m.calls...)
}
