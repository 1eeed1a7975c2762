package catalog

import (
	"context"

	"github.com/fjod/go_storefront/internal/domain"
)

// Store keeps the last fetched product list between process restarts.
type Store interface {
	Load(ctx context.Context) ([]domain.Product, error)
	Save(ctx context.Context, products []domain.Product) error
}
