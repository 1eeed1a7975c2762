// Package catalog holds the product list and the product currently being inspected.
package catalog

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/fjod/go_storefront/internal/domain"
	"github.com/fjod/go_storefront/internal/presenter"
	"github.com/fjod/go_storefront/internal/remote"
	"github.com/fjod/go_storefront/pkg/logger"
)

// MaxSelectQuantity is the largest quantity the detail view offers.
const MaxSelectQuantity = 10

const storeTimeout = time.Second

type ProductLister interface {
	ListProducts(ctx context.Context, q remote.ProductQuery) (*domain.ProductPage, error)
}

type Option func(*Catalog)

// WithStore writes every fetched list through to s and lets Restore read it back.
func WithStore(s Store) Option {
	return func(c *Catalog) {
		c.store = s
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Catalog) {
		c.logger = logger.OrNop(l).Named("catalog")
	}
}

type Catalog struct {
	api       ProductLister
	presenter presenter.Presenter
	store     Store
	logger    *zap.Logger
	sfg       singleflight.Group

	mu         sync.RWMutex
	products   []domain.Product
	pagination domain.Pagination
	loaded     bool
	selected   *domain.Product
	selectQty  int
}

func New(api ProductLister, p presenter.Presenter, opts ...Option) *Catalog {
	c := &Catalog{
		api:       api,
		presenter: presenter.OrNop(p),
		logger:    zap.NewNop(),
		products:  []domain.Product{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchCatalog replaces the product list with the server's. Concurrent calls share one request,
// which is detached from any single caller's cancellation; a caller whose ctx ends stops waiting.
// On failure the previous list is kept and a *FetchError is returned.
func (c *Catalog) FetchCatalog(ctx context.Context) ([]domain.Product, error) {
	fetchCtx := context.WithoutCancel(ctx)
	ch := c.sfg.DoChan("catalog", func() (interface{}, error) {
		page, err := c.api.ListProducts(fetchCtx, remote.ProductQuery{})
		if err != nil {
			fe := &FetchError{Err: err}
			logger.WithContext(fetchCtx, c.logger).Warn("catalog fetch failed", zap.Error(err))
			c.presenter.OnError(presenter.KindCatalog, fe.Error())
			return nil, fe
		}

		c.mu.Lock()
		c.products = page.Products
		c.pagination = page.Pagination
		c.loaded = true
		c.mu.Unlock()

		c.presenter.OnProductsLoaded(cloneProducts(page.Products))
		c.saveSnapshot(fetchCtx, page.Products)
		return page.Products, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			c.logger.Debug("catalog fetch coalesced")
		}
		return cloneProducts(res.Val.([]domain.Product)), nil
	case <-ctx.Done():
		return nil, &FetchError{Err: ctx.Err()}
	}
}

// Restore seeds a catalog that has not been fetched yet from the store.
// It reports whether anything was restored; store failures are only logged.
func (c *Catalog) Restore(ctx context.Context) bool {
	if c.store == nil {
		return false
	}
	products, err := c.store.Load(ctx)
	if err != nil {
		if !errors.Is(err, ErrStoreMiss) {
			c.logger.Warn("catalog store load failed", zap.Error(err))
		}
		return false
	}

	c.mu.Lock()
	if c.loaded {
		c.mu.Unlock()
		return false
	}
	c.products = products
	c.loaded = true
	c.mu.Unlock()

	c.logger.Info("catalog restored from store", zap.Int("count", len(products)))
	c.presenter.OnProductsLoaded(cloneProducts(products))
	return true
}

func (c *Catalog) saveSnapshot(ctx context.Context, products []domain.Product) {
	if c.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), storeTimeout)
	defer cancel()
	if err := c.store.Save(ctx, products); err != nil {
		c.logger.Warn("catalog store save failed", zap.Error(err))
	}
}

func (c *Catalog) Products() []domain.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneProducts(c.products)
}

func (c *Catalog) Pagination() domain.Pagination {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pagination
}

// Loaded reports whether a product list has been fetched or restored.
func (c *Catalog) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

func (c *Catalog) Product(id string) (domain.Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.productLocked(id)
}

func (c *Catalog) productLocked(id string) (domain.Product, bool) {
	for _, p := range c.products {
		if p.ID == id {
			return cloneProduct(p), true
		}
	}
	return domain.Product{}, false
}

// Inspect makes p the selected product and resets the selected quantity to 1.
func (c *Catalog) Inspect(p domain.Product) {
	p = cloneProduct(p)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selected = &p
	c.selectQty = 1
}

// InspectID selects a product of the loaded list by id.
func (c *Catalog) InspectID(id string) (domain.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.productLocked(id)
	if !ok {
		return domain.Product{}, ErrProductNotFound
	}
	c.selected = &p
	c.selectQty = 1
	return cloneProduct(p), nil
}

func (c *Catalog) Dismiss() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selected = nil
	c.selectQty = 0
}

// DismissIf closes the detail view only while it still shows the product with id.
func (c *Catalog) DismissIf(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.selected == nil || c.selected.ID != id {
		return false
	}
	c.selected = nil
	c.selectQty = 0
	return true
}

// Selected returns the inspected product; ok is false when the detail view is closed.
func (c *Catalog) Selected() (domain.Product, bool) {
	p, _, ok := c.Selection()
	return p, ok
}

// Selection returns the inspected product together with the selected quantity.
func (c *Catalog) Selection() (domain.Product, int, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.selected == nil {
		return domain.Product{}, 0, false
	}
	return cloneProduct(*c.selected), c.selectQty, true
}

// SelectQuantity sets the quantity for the inspected product, clamped to 1..MaxSelectQuantity.
func (c *Catalog) SelectQuantity(n int) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.selected == nil {
		return 0, ErrNothingSelected
	}
	c.selectQty = ClampQuantity(n)
	return c.selectQty, nil
}

func ClampQuantity(n int) int {
	return min(max(n, 1), MaxSelectQuantity)
}

func cloneProducts(in []domain.Product) []domain.Product {
	out := make([]domain.Product, len(in))
	for i, p := range in {
		out[i] = cloneProduct(p)
	}
	return out
}

func cloneProduct(p domain.Product) domain.Product {
	if p.ImagesURL != nil {
		p.ImagesURL = append([]string(nil), p.ImagesURL...)
	}
	return p
}
