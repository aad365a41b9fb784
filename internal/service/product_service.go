package service

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/insecurazon/ins-webserver/internal/models"
	"github.com/insecurazon/ins-webserver/internal/repository"
	"golang.org/x/sync/singleflight"
)

// Source reports where a catalog collection was filled from.
type Source string

const (
	SourceUnresolved Source = "unresolved"
	SourceUpstream   Source = "upstream"
	SourceFallback   Source = "fallback"
)

// DataSourceState is a point-in-time view of the catalog fill.
type DataSourceState struct {
	Products      Source `json:"products"`
	Categories    Source `json:"categories"`
	UsingFallback bool   `json:"usingFallback"`
}

// ProductService serves the catalog from the primary repository, substituting
// the fallback repository when the primary cannot be read. Each collection is
// filled once per process and never refreshed.
type ProductService struct {
	primary  repository.ProductRepository
	fallback repository.ProductRepository
	timeout  time.Duration
	logger   *slog.Logger

	products   collection[models.Product]
	categories collection[models.Category]
}

// NewProductService creates a new product service. timeout bounds each fetch
// from primary; on expiry the fallback is used.
func NewProductService(primary, fallback repository.ProductRepository, timeout time.Duration, logger *slog.Logger) *ProductService {
	return &ProductService{
		primary:    primary,
		fallback:   fallback,
		timeout:    timeout,
		logger:     logger,
		products:   collection[models.Product]{name: "products"},
		categories: collection[models.Category]{name: "categories"},
	}
}

// LoadProducts returns the product collection and whether it came from the fallback.
func (s *ProductService) LoadProducts(ctx context.Context) ([]models.Product, bool) {
	snap := s.products.load(ctx, s.timeout, s.logger, s.primary.GetAll, s.fallback.GetAll)
	return slices.Clone(snap.items), snap.source == SourceFallback
}

// LoadCategories returns the category collection and whether it came from the fallback.
func (s *ProductService) LoadCategories(ctx context.Context) ([]models.Category, bool) {
	snap := s.categories.load(ctx, s.timeout, s.logger, s.primary.GetCategories, s.fallback.GetCategories)
	return slices.Clone(snap.items), snap.source == SourceFallback
}

// GetProduct looks id up in the resolved product collection, filling it first
// if needed.
func (s *ProductService) GetProduct(ctx context.Context, id int) (*models.Product, error) {
	snap := s.products.load(ctx, s.timeout, s.logger, s.primary.GetAll, s.fallback.GetAll)

	i := slices.IndexFunc(snap.items, func(p models.Product) bool { return p.ID == id })
	if i < 0 {
		return nil, repository.ErrProductNotFound
	}
	product := snap.items[i]
	return &product, nil
}

// Warm fills both collections concurrently.
func (s *ProductService) Warm(ctx context.Context) DataSourceState {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.LoadProducts(ctx)
	}()
	go func() {
		defer wg.Done()
		s.LoadCategories(ctx)
	}()
	wg.Wait()

	return s.State()
}

// State reports how each collection has been resolved so far.
func (s *ProductService) State() DataSourceState {
	state := DataSourceState{
		Products:   s.products.source(),
		Categories: s.categories.source(),
	}
	state.UsingFallback = state.Products == SourceFallback || state.Categories == SourceFallback
	return state
}

// snapshot is published only once complete, so readers never see a partial fill.
type snapshot[T any] struct {
	items  []T
	source Source
}

type collection[T any] struct {
	name   string
	filled atomic.Pointer[snapshot[T]]
	group  singleflight.Group
}

func (c *collection[T]) source() Source {
	if snap := c.filled.Load(); snap != nil {
		return snap.source
	}
	return SourceUnresolved
}

func (c *collection[T]) load(
	ctx context.Context,
	timeout time.Duration,
	logger *slog.Logger,
	primary, fallback func(context.Context) ([]T, error),
) *snapshot[T] {
	if snap := c.filled.Load(); snap != nil {
		return snap
	}

	v, _, _ := c.group.Do(c.name, func() (any, error) {
		if snap := c.filled.Load(); snap != nil {
			return snap, nil
		}

		// The fill is shared by every waiting caller, so one caller going
		// away must not abort it.
		base := context.WithoutCancel(ctx)
		fetchCtx, cancel := context.WithTimeout(base, timeout)
		defer cancel()

		snap := &snapshot[T]{source: SourceUpstream}
		items, err := primary(fetchCtx)
		if err != nil {
			logger.Warn("upstream catalog unavailable, using fallback data",
				"collection", c.name,
				"error", err,
			)
			snap.source = SourceFallback
			items, err = fallback(base)
			if err != nil {
				logger.Error("fallback catalog unavailable", "collection", c.name, "error", err)
			}
		} else {
			logger.Info("catalog loaded from upstream", "collection", c.name, "count", len(items))
		}

		if items == nil {
			items = []T{}
		}
		snap.items = items
		c.filled.Store(snap)
		return snap, nil
	})

	return v.(*snapshot[T])
}
