package domain

import (
	"errors"
	"fmt"
)

const (
	CategoryInformatica = "informatica"
	CategoryPerifericos = "perifericos"
	CategoryTelefonia   = "telefonia"
)

// A Shelf is one group of the homepage listing.
type Shelf struct {
	Category    string
	Subcategory string
	Limit       int
}

// Key names the shelf inside its category and inside the
// store query result. Subcategories are unique across categories.
func (s Shelf) Key() string {
	return s.Subcategory
}

func (s Shelf) Matches(category, subcategory string) bool {
	return s.Category == category && s.Subcategory == subcategory
}

// ErrStaleHome is returned by a cache refusing a homepage that was
// read before the last invalidation.
var ErrStaleHome = errors.New("home changed while it was read")

// HomeShelves is the fixed homepage layout.
var HomeShelves = []Shelf{
	{CategoryInformatica, "notebooks", 20},
	{CategoryInformatica, "placas_madre", 20},
	{CategoryInformatica, "memorias_ram", 20},
	{CategoryInformatica, "discos_duros", 20},
	{CategoryInformatica, "tarjeta_grafica", 20},
	{CategoryInformatica, "gabinetes", 20},
	{CategoryInformatica, "procesador", 20},
	{CategoryPerifericos, "monitores", 20},
	{CategoryPerifericos, "mouses", 12},
	{CategoryPerifericos, "teclados", 12},
	{CategoryTelefonia, "telefonos_moviles", 20},
}

// IsHomeShelf reports whether the pair is shown on the homepage.
func IsHomeShelf(category, subcategory string) bool {
	for _, s := range HomeShelves {
		if s.Matches(category, subcategory) {
			return true
		}
	}
	return false
}

// HomeCatalog is category -> subcategory -> newest products.
type HomeCatalog map[string]map[string][]ProductSummary

// ShelfGroups is the raw store answer keyed by [Shelf.Key].
type ShelfGroups map[string][]ProductSummary

// AssembleHome reshapes store groups into the nested homepage structure.
//
// Every shelf is present in the result, limits and the image cap are
// enforced regardless of what the store returned.
func AssembleHome(shelves []Shelf, groups ShelfGroups) (HomeCatalog, error) {
	const op = "AssembleHome"

	known := make(map[string]struct{}, len(shelves))
	for _, s := range shelves {
		known[s.Key()] = struct{}{}
	}
	for k := range groups {
		if _, ok := known[k]; !ok {
			return nil, fmt.Errorf("%s: %w: %q", op, ErrUnknownShelf, k)
		}
	}

	home := make(HomeCatalog)
	for _, s := range shelves {
		items := groups[s.Key()]
		if len(items) > s.Limit {
			items = items[:s.Limit]
		}

		out := make([]ProductSummary, len(items))
		for i, p := range items {
			p.TrimImages(MaxSummaryImages)
			out[i] = p
		}

		if home[s.Category] == nil {
			home[s.Category] = make(map[string][]ProductSummary)
		}
		home[s.Category][s.Key()] = out
	}
	return home, nil
}
