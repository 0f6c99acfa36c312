package postgresql

import (
	"fmt"

	"github.com/niksmo/home-catalog/internal/core/domain"
)

// inStockPredicate mirrors the document store rule: stock is absent,
// JSON null or a number greater than zero.
const inStockPredicate = `CASE
		WHEN doc->'stock' IS NULL THEN true
		WHEN jsonb_typeof(doc->'stock') = 'null' THEN true
		WHEN jsonb_typeof(doc->'stock') = 'number' THEN (doc->>'stock')::numeric > 0
		ELSE false
	END`

var imagesPrefix = fmt.Sprintf(`CASE
		WHEN jsonb_typeof(doc->'productImage') = 'array'
		THEN jsonb_path_query_array(doc->'productImage', '$[0 to %d]')
		ELSE '[]'::jsonb
	END`, domain.MaxSummaryImages-1)

var summaryColumn = `jsonb_build_object(
		'productName', doc->'productName',
		'category', doc->'category',
		'subcategory', doc->'subcategory',
		'price', doc->'price',
		'sellingPrice', doc->'sellingPrice',
		'slug', doc->'slug',
		'productImage', ` + imagesPrefix + `
	)`

var listedColumn = summaryColumn + ` || jsonb_build_object(
		'brandName', doc->'brandName',
		'stock', doc->'stock',
		'isVipOffer', doc->'isVipOffer',
		'createdAt', doc->'createdAt'
	)`

var homeQuery = `
	SELECT s.subcategory, p.id, p.summary
	FROM unnest($1::text[], $2::text[], $3::int[]) AS s(category, subcategory, lim)
	CROSS JOIN LATERAL (
		SELECT id, ` + summaryColumn + ` AS summary
		FROM products
		WHERE doc->>'category' = s.category
			AND doc->>'subcategory' = s.subcategory
			AND ` + inStockPredicate + `
		ORDER BY id DESC
		LIMIT s.lim
	) p
	ORDER BY s.subcategory, p.id DESC;`

// homeArgs transposes the shelves into the three unnest arrays.
func homeArgs(shelves []domain.Shelf) (categories, subcategories []string, limits []int32) {
	categories = make([]string, len(shelves))
	subcategories = make([]string, len(shelves))
	limits = make([]int32, len(shelves))
	for i, s := range shelves {
		categories[i] = s.Category
		subcategories[i] = s.Subcategory
		limits[i] = int32(s.Limit)
	}
	return
}

const listWhere = `
	WHERE ` + inStockPredicate + `
		AND ($1 = '' OR doc->>'category' = $1)
		AND ($2 = '' OR doc->>'subcategory' = $2)
		AND (NOT $3::boolean OR doc->'isVipOffer' = 'true'::jsonb)`

var countQuery = `SELECT count(*) FROM products` + listWhere + `;`

func numericField(name string) string {
	return `CASE WHEN jsonb_typeof(doc->'` + name + `') = 'number'
		THEN (doc->>'` + name + `')::numeric END`
}

// sortExprs maps every sortable field to its column expression. Missing
// values sort lowest, as in the document store.
var sortExprs = map[domain.SortField]string{
	domain.SortByCreatedAt:    `doc->>'createdAt'`,
	domain.SortByName:         `doc->>'productName'`,
	domain.SortByPrice:        numericField("price"),
	domain.SortBySellingPrice: numericField("sellingPrice"),
}

func listQuery(q domain.ProductsQuery) string {
	dir, nulls := "DESC", "NULLS LAST"
	if q.Order == domain.SortAsc {
		dir, nulls = "ASC", "NULLS FIRST"
	}

	orderBy := "id " + dir
	if expr, ok := sortExprs[q.SortBy]; ok {
		orderBy = expr + " " + dir + " " + nulls + ", " + orderBy
	}

	return `
	SELECT id, ` + listedColumn + `
	FROM products` + listWhere + `
	ORDER BY ` + orderBy + `
	LIMIT $4 OFFSET $5;`
}
