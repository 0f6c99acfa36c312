package domain

import (
	"errors"
	"time"
)

// MaxSummaryImages is how many leading entries of productImage
// a summary keeps.
const MaxSummaryImages = 2

var ErrUnknownShelf = errors.New("unknown shelf")

type (
	ProductSummary struct {
		ID           string   `json:"_id,omitempty"`
		ProductName  string   `json:"productName"`
		Category     string   `json:"category"`
		Subcategory  string   `json:"subcategory"`
		Price        float64  `json:"price"`
		SellingPrice float64  `json:"sellingPrice"`
		Slug         string   `json:"slug"`
		ProductImage []string `json:"productImage"`
	}

	// A ListedProduct is an entry of the paginated products listing.
	ListedProduct struct {
		ProductSummary
		BrandName  string     `json:"brandName,omitempty"`
		Stock      *float64   `json:"stock,omitempty"`
		IsVipOffer *bool      `json:"isVipOffer,omitempty"`
		CreatedAt  *time.Time `json:"createdAt,omitempty"`
	}
)

// TrimImages keeps at most n leading images and guarantees
// a non-nil slice.
func (p *ProductSummary) TrimImages(n int) {
	switch {
	case p.ProductImage == nil:
		p.ProductImage = []string{}
	case len(p.ProductImage) > n:
		p.ProductImage = p.ProductImage[:n:n]
	}
}

type ChangeAction string

const (
	ChangeUpsert ChangeAction = "upsert"
	ChangeDelete ChangeAction = "delete"
)

// A ProductChange is emitted by the catalog owner whenever
// a product is written. PrevCategory and PrevSubcategory are set when
// the write moved the product between subcategories.
type ProductChange struct {
	ProductID       string
	Category        string
	Subcategory     string
	PrevCategory    string
	PrevSubcategory string
	Action          ChangeAction
}

// TouchesHome reports whether the product was or is on a home shelf.
func (c ProductChange) TouchesHome() bool {
	return IsHomeShelf(c.Category, c.Subcategory) ||
		IsHomeShelf(c.PrevCategory, c.PrevSubcategory)
}
