// Package storefront owns the catalog, the cart machine and the checkout submitter
// and hands all of them the same Presenter.
package storefront

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fjod/go_storefront/internal/cart"
	"github.com/fjod/go_storefront/internal/catalog"
	"github.com/fjod/go_storefront/internal/checkout"
	"github.com/fjod/go_storefront/internal/presenter"
	"github.com/fjod/go_storefront/pkg/logger"
)

// API is everything the storefront needs from the commerce API.
type API interface {
	catalog.ProductLister
	cart.CartAPI
	checkout.OrderSubmitter
}

type Config struct {
	Presenter    presenter.Presenter
	CatalogStore catalog.Store // optional
	Logger       *zap.Logger
}

type Storefront struct {
	catalog  *catalog.Catalog
	cart     *cart.Machine
	checkout *checkout.Submitter
	logger   *zap.Logger
}

func New(api API, cfg Config) *Storefront {
	p := presenter.OrNop(cfg.Presenter)
	log := logger.OrNop(cfg.Logger)

	opts := []catalog.Option{catalog.WithLogger(log)}
	if cfg.CatalogStore != nil {
		opts = append(opts, catalog.WithStore(cfg.CatalogStore))
	}

	return &Storefront{
		catalog:  catalog.New(api, p, opts...),
		cart:     cart.New(api, p, log),
		checkout: checkout.New(api, p, log),
		logger:   log.Named("storefront"),
	}
}

// Load fetches the catalog and the cart concurrently. Both run to completion;
// the first error is returned.
func (s *Storefront) Load(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error {
		_, err := s.catalog.FetchCatalog(ctx)
		return err
	})
	g.Go(func() error {
		return s.cart.Refresh(ctx)
	})

	if err := g.Wait(); err != nil {
		logger.WithContext(ctx, s.logger).Warn("initial load incomplete", zap.Error(err))
		return err
	}
	return nil
}

// AddSelected puts the inspected product into the cart with the selected quantity
// and, once the cart has been refreshed, closes the detail view if it still shows that product.
func (s *Storefront) AddSelected(ctx context.Context) error {
	p, qty, ok := s.catalog.Selection()
	if !ok {
		return catalog.ErrNothingSelected
	}
	if err := s.cart.Add(ctx, p.ID, qty); err != nil {
		return err
	}
	s.catalog.DismissIf(p.ID)
	return nil
}

func (s *Storefront) Catalog() *catalog.Catalog {
	return s.catalog
}

func (s *Storefront) Cart() *cart.Machine {
	return s.cart
}

func (s *Storefront) Checkout() *checkout.Submitter {
	return s.checkout
}
