package mongodb

import (
	"context"
	"fmt"

	"github.com/niksmo/home-catalog/internal/core/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func listFilter(q domain.ProductsQuery) bson.D {
	filter := inStockFilter()
	if q.Category != "" {
		filter = append(filter, bson.E{Key: "category", Value: q.Category})
	}
	if q.Subcategory != "" {
		filter = append(filter, bson.E{Key: "subcategory", Value: q.Subcategory})
	}
	if q.Featured {
		filter = append(filter, bson.E{Key: "isVipOffer", Value: true})
	}
	return filter
}

// listSort orders by the requested field with _id as the tiebreak so
// pages stay stable.
func listSort(q domain.ProductsQuery) bson.D {
	order := int(q.Order)
	if q.SortBy == domain.SortByID {
		return bson.D{{"_id", order}}
	}
	return bson.D{{string(q.SortBy), order}, {"_id", order}}
}

func listProjection() bson.D {
	return bson.D{
		{"productName", 1},
		{"brandName", 1},
		{"category", 1},
		{"subcategory", 1},
		{"productImage", bson.D{{"$slice", domain.MaxSummaryImages}}},
		{"price", 1},
		{"sellingPrice", 1},
		{"stock", 1},
		{"isVipOffer", 1},
		{"slug", 1},
		{"createdAt", 1},
	}
}

// ReadProducts returns one page of in-stock products and the total
// number of matches.
func (s Storage) ReadProducts(
	ctx context.Context, q domain.ProductsQuery,
) ([]domain.ListedProduct, int64, error) {
	const op = "Storage.ReadProducts"

	if err := ctx.Err(); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	filter := listFilter(q)
	opts := options.Find().
		SetProjection(listProjection()).
		SetSort(listSort(q)).
		SetSkip(int64(q.Skip())).
		SetLimit(int64(q.Limit))

	cur, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	var docs []productDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	total, err := s.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: failed to count: %w", op, err)
	}

	items := make([]domain.ListedProduct, len(docs))
	for i, d := range docs {
		items[i] = d.toListed()
	}
	return items, total, nil
}
