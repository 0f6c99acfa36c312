package port

import (
	"context"

	"github.com/niksmo/home-catalog/internal/core/domain"
)

type closer interface {
	Close()
}

// Inbound.

type HomeCatalogProvider interface {
	HomeCatalog(context.Context) (domain.HomeCatalog, error)
}

type ProductsLister interface {
	ListProducts(context.Context, domain.ProductsQuery) (domain.ProductsPage, error)
}

type HomeInvalidator interface {
	InvalidateHome(context.Context, []domain.ProductChange) error
}

// Outbound.

// A HomeReader runs the per-shelf selection over in-stock products
// in one logical read.
type HomeReader interface {
	ReadHomeShelves(context.Context, []domain.Shelf) (domain.ShelfGroups, error)
}

type ProductsReader interface {
	ReadProducts(
		context.Context, domain.ProductsQuery,
	) (items []domain.ListedProduct, total int64, err error)
}

type CatalogStorage interface {
	HomeReader
	ProductsReader
	closer
}

// A HomeCache keeps the last assembled homepage. Found is false on miss.
//
// LoadHome also returns the cache version, which DropHome advances.
// StoreHome writes only if the version is unchanged and otherwise
// returns [domain.ErrStaleHome].
type HomeCache interface {
	LoadHome(context.Context) (home domain.HomeCatalog, version int64, found bool, err error)
	StoreHome(ctx context.Context, home domain.HomeCatalog, version int64) error
	DropHome(context.Context) error
}
