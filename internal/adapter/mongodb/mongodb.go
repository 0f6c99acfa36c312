package mongodb

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/niksmo/home-catalog/internal/core/domain"
	"github.com/niksmo/home-catalog/internal/core/port"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

var _ port.CatalogStorage = (*Storage)(nil)

const disconnectTimeout = 5 * time.Second

// Storage reads the products collection. Safe for concurrent use.
type Storage struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// Connect dials the deployment and checks the primary is reachable.
func Connect(
	ctx context.Context, uri, database, collection string,
) (Storage, error) {
	const op = "mongodb.Connect"
	log := slog.With("op", op)

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return Storage{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return Storage{}, fmt.Errorf("%s: database is unavailable: %w", op, err)
	}

	log.Info("database is available", "database", database)
	return Storage{
		client: client,
		coll:   client.Database(database).Collection(collection),
	}, nil
}

// New wraps an already configured collection.
func New(coll *mongo.Collection) Storage {
	return Storage{client: coll.Database().Client(), coll: coll}
}

func (s Storage) Close() {
	const op = "Storage.Close"
	log := slog.With("op", op)

	log.Info("disconnecting from mongodb...")

	ctx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
	defer cancel()

	if err := s.client.Disconnect(ctx); err != nil {
		log.Error("failed to disconnect", "err", err)
		return
	}
	log.Info("mongodb is disconnected")
}

// inStockFilter matches documents with missing, null or positive stock.
func inStockFilter() bson.D {
	return bson.D{{"$or", bson.A{
		bson.D{{"stock", bson.D{{"$exists", false}}}},
		bson.D{{"stock", nil}},
		bson.D{{"stock", bson.D{{"$gt", 0}}}},
	}}}
}

type productDoc struct {
	ID           bson.RawValue `bson:"_id"`
	ProductName  string        `bson:"productName"`
	BrandName    string        `bson:"brandName"`
	Category     string        `bson:"category"`
	Subcategory  string        `bson:"subcategory"`
	Price        float64       `bson:"price"`
	SellingPrice float64       `bson:"sellingPrice"`
	Slug         string        `bson:"slug"`
	ProductImage []string      `bson:"productImage"`
	Stock        *float64      `bson:"stock"`
	IsVipOffer   *bool         `bson:"isVipOffer"`
	CreatedAt    *time.Time    `bson:"createdAt"`
}

func idString(v bson.RawValue) string {
	switch v.Type {
	case 0:
		return ""
	case bson.TypeObjectID:
		return v.ObjectID().Hex()
	case bson.TypeString:
		return v.StringValue()
	}
	return v.String()
}

func (d productDoc) toSummary() domain.ProductSummary {
	return domain.ProductSummary{
		ID:           idString(d.ID),
		ProductName:  d.ProductName,
		Category:     d.Category,
		Subcategory:  d.Subcategory,
		Price:        d.Price,
		SellingPrice: d.SellingPrice,
		Slug:         d.Slug,
		ProductImage: d.ProductImage,
	}
}

func (d productDoc) toListed() domain.ListedProduct {
	return domain.ListedProduct{
		ProductSummary: d.toSummary(),
		BrandName:      d.BrandName,
		Stock:          d.Stock,
		IsVipOffer:     d.IsVipOffer,
		CreatedAt:      d.CreatedAt,
	}
}
