package catalog

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/fjod/go_storefront/internal/domain"
	"github.com/fjod/go_storefront/internal/remote"
)

type mockLister struct {
	m        sync.Mutex
	products []domain.Product
	err      error
	gate     chan struct{}
	calls    atomic.Int32
}

func (m *mockLister) ListProducts(ctx context.Context, _ remote.ProductQuery) (*domain.ProductPage, error) {
	m.calls.Add(1)
	if m.gate != nil {
		select {
		case <-m.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return &domain.ProductPage{
		Products:   append([]domain.Product(nil), m.products...),
		Pagination: domain.Pagination{TotalPages: 1, CurrentPage: 1},
	}, nil
}

func (m *mockLister) set(products []domain.Product, err error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.products = products
	m.err = err
}

type mockStore struct {
	m        sync.Mutex
	products []domain.Product
	loadErr  error
	saveErr  error
	saves    int
}

func (m *mockStore) Load(context.Context) ([]domain.Product, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if m.products == nil {
		return nil, ErrStoreMiss
	}
	return m.products, nil
}

func (m *mockStore) Save(_ context.Context, products []domain.Product) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.products = products
	return nil
}
