package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/niksmo/home-catalog/internal/core/domain"
	"github.com/niksmo/home-catalog/internal/core/port"
)

var _ port.HomeCatalogProvider = (*Service)(nil)
var _ port.ProductsLister = (*Service)(nil)
var _ port.HomeInvalidator = (*Service)(nil)

type Service struct {
	homeReader     port.HomeReader
	productsReader port.ProductsReader
	homeCache      port.HomeCache
	shelves        []domain.Shelf
}

// New returns the catalog service. A nil homeCache disables caching.
func New(
	homeReader port.HomeReader,
	productsReader port.ProductsReader,
	homeCache port.HomeCache,
) Service {
	if homeCache == nil {
		homeCache = noCache{}
	}
	return Service{
		homeReader:     homeReader,
		productsReader: productsReader,
		homeCache:      homeCache,
		shelves:        domain.HomeShelves,
	}
}

// HomeCatalog returns the homepage listing.
//
// Cache failures are logged and never fail the call.
func (s Service) HomeCatalog(ctx context.Context) (domain.HomeCatalog, error) {
	const op = "Service.HomeCatalog"
	log := slog.With("op", op)

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	home, version, found, err := s.homeCache.LoadHome(ctx)
	if err != nil {
		log.Warn("failed to load cached home", "err", err)
	}
	if found {
		log.Debug("cache hit")
		return home, nil
	}

	groups, err := s.homeReader.ReadHomeShelves(ctx, s.shelves)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	home, err = domain.AssembleHome(s.shelves, groups)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	switch err := s.homeCache.StoreHome(ctx, home, version); {
	case errors.Is(err, domain.ErrStaleHome):
		log.Debug("home invalidated while reading, not cached")
	case err != nil:
		log.Warn("failed to cache home", "err", err)
	}

	return home, nil
}

func (s Service) ListProducts(
	ctx context.Context, q domain.ProductsQuery,
) (domain.ProductsPage, error) {
	const op = "Service.ListProducts"

	if err := ctx.Err(); err != nil {
		return domain.ProductsPage{}, fmt.Errorf("%s: %w", op, err)
	}

	q = q.Normalize()
	items, total, err := s.productsReader.ReadProducts(ctx, q)
	if err != nil {
		return domain.ProductsPage{}, fmt.Errorf("%s: %w", op, err)
	}

	return domain.NewProductsPage(q, items, total), nil
}

// InvalidateHome drops the cached homepage when any change moves a
// product onto, within or off a home shelf.
func (s Service) InvalidateHome(
	ctx context.Context, changes []domain.ProductChange,
) error {
	const op = "Service.InvalidateHome"
	log := slog.With("op", op)

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	var hit *domain.ProductChange
	for i, c := range changes {
		if c.TouchesHome() {
			hit = &changes[i]
			break
		}
	}
	if hit == nil {
		return nil
	}

	if err := s.homeCache.DropHome(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info(
		"home cache invalidated",
		"productID", hit.ProductID,
		"category", hit.Category,
		"subcategory", hit.Subcategory,
		"prevSubcategory", hit.PrevSubcategory,
		"nChanges", len(changes),
	)
	return nil
}

type noCache struct{}

func (noCache) LoadHome(context.Context) (domain.HomeCatalog, int64, bool, error) {
	return nil, 0, false, nil
}

func (noCache) StoreHome(context.Context, domain.HomeCatalog, int64) error { return nil }

func (noCache) DropHome(context.Context) error { return nil }
