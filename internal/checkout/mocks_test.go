package checkout

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/fjod/go_storefront/internal/domain"
)

type mockSubmitter struct {
	m      sync.Mutex
	orders []domain.OrderRequest
	err    error
}

func (m *mockSubmitter) SubmitOrder(_ context.Context, order domain.OrderRequest) (*domain.OrderReceipt, error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.orders = append(m.orders, order)
	if m.err != nil {
		return nil, m.err
	}
	return &domain.OrderReceipt{OrderID: "order-1", Total: decimal.NewFromInt(500)}, nil
}

func (m *mockSubmitter) calls() int {
	m.m.Lock()
	defer m.m.Unlock()
	return len(m.orders)
}
