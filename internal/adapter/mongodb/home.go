package mongodb

import (
	"context"
	"fmt"

	"github.com/niksmo/home-catalog/internal/core/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// homePipeline pre-filters by stock, projects the summary fields and
// runs one $facet branch per shelf: match, newest _id first, limit.
func homePipeline(shelves []domain.Shelf) mongo.Pipeline {
	facet := make(bson.D, 0, len(shelves))
	for _, s := range shelves {
		branch := bson.A{
			bson.D{{"$match", bson.D{
				{"category", s.Category},
				{"subcategory", s.Subcategory},
			}}},
			bson.D{{"$sort", bson.D{{"_id", -1}}}},
			bson.D{{"$limit", s.Limit}},
		}
		facet = append(facet, bson.E{Key: s.Key(), Value: branch})
	}

	return mongo.Pipeline{
		{{"$match", inStockFilter()}},
		{{"$project", bson.D{
			{"productName", 1},
			{"category", 1},
			{"subcategory", 1},
			{"price", 1},
			{"sellingPrice", 1},
			{"slug", 1},
			{"productImage", bson.D{
				{"$slice", bson.A{"$productImage", domain.MaxSummaryImages}},
			}},
		}}},
		{{"$facet", facet}},
	}
}

// ReadHomeShelves runs the homepage aggregation in a single round trip.
func (s Storage) ReadHomeShelves(
	ctx context.Context, shelves []domain.Shelf,
) (domain.ShelfGroups, error) {
	const op = "Storage.ReadHomeShelves"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cur, err := s.coll.Aggregate(ctx, homePipeline(shelves))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer cur.Close(ctx)

	groups := make(domain.ShelfGroups, len(shelves))
	if !cur.Next(ctx) {
		if err := cur.Err(); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return groups, nil
	}

	var facets map[string][]productDoc
	if err := cur.Decode(&facets); err != nil {
		return nil, fmt.Errorf("%s: failed to decode facets: %w", op, err)
	}

	for key, docs := range facets {
		items := make([]domain.ProductSummary, len(docs))
		for i, d := range docs {
			items[i] = d.toSummary()
		}
		groups[key] = items
	}
	return groups, nil
}
