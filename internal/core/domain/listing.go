package domain

import "slices"

const (
	DefaultPage      = 1
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

type SortOrder int

const (
	SortDesc SortOrder = -1
	SortAsc  SortOrder = 1
)

// SortField names a product attribute the listing can be ordered by.
type SortField string

const (
	SortByCreatedAt    SortField = "createdAt"
	SortByID           SortField = "_id"
	SortByName         SortField = "productName"
	SortByPrice        SortField = "price"
	SortBySellingPrice SortField = "sellingPrice"
)

var sortFields = []SortField{
	SortByCreatedAt, SortByID, SortByName, SortByPrice, SortBySellingPrice,
}

// A ProductsQuery selects one page of the in-stock products listing.
// Featured keeps only VIP offers.
type ProductsQuery struct {
	Page        int
	Limit       int
	Category    string
	Subcategory string
	Featured    bool
	SortBy      SortField
	Order       SortOrder
}

// Normalize replaces out-of-range values with defaults.
func (q ProductsQuery) Normalize() ProductsQuery {
	if q.Page < 1 {
		q.Page = DefaultPage
	}
	switch {
	case q.Limit < 1:
		q.Limit = DefaultPageLimit
	case q.Limit > MaxPageLimit:
		q.Limit = MaxPageLimit
	}
	if q.Order != SortAsc {
		q.Order = SortDesc
	}
	if !slices.Contains(sortFields, q.SortBy) {
		q.SortBy = SortByCreatedAt
	}
	return q
}

func (q ProductsQuery) Skip() int {
	return (q.Page - 1) * q.Limit
}

type Pagination struct {
	CurrentPage    int   `json:"currentPage"`
	TotalPages     int   `json:"totalPages"`
	TotalProducts  int64 `json:"totalProducts"`
	HasNextPage    bool  `json:"hasNextPage"`
	HasPrevPage    bool  `json:"hasPrevPage"`
	Limit          int   `json:"limit"`
	ProductsInPage int   `json:"productsInPage"`
}

type ProductsPage struct {
	Items      []ListedProduct
	Pagination Pagination
}

// NewProductsPage computes pagination metadata for a normalized query.
func NewProductsPage(
	q ProductsQuery, items []ListedProduct, total int64,
) ProductsPage {
	if items == nil {
		items = []ListedProduct{}
	}
	for i := range items {
		items[i].TrimImages(MaxSummaryImages)
	}

	totalPages := int((total + int64(q.Limit) - 1) / int64(q.Limit))
	return ProductsPage{
		Items: items,
		Pagination: Pagination{
			CurrentPage:    q.Page,
			TotalPages:     totalPages,
			TotalProducts:  total,
			HasNextPage:    q.Page < totalPages,
			HasPrevPage:    q.Page > 1,
			Limit:          q.Limit,
			ProductsInPage: len(items),
		},
	}
}
