package mongodb

import (
	"context"
	"testing"
	"time"

	"github.com/niksmo/home-catalog/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

const ns = "catalog.products"

func TestHomePipeline(t *testing.T) {
	p := homePipeline(domain.HomeShelves)
	require.Len(t, p, 3)

	assert.Equal(t, "$match", p[0][0].Key)
	assert.Equal(t, inStockFilter(), p[0][0].Value)

	assert.Equal(t, "$project", p[1][0].Key)
	project := p[1][0].Value.(bson.D)
	assert.Equal(t, "productImage", project[len(project)-1].Key)
	assert.Equal(t,
		bson.D{{"$slice", bson.A{"$productImage", 2}}},
		project[len(project)-1].Value,
	)

	assert.Equal(t, "$facet", p[2][0].Key)
	facet := p[2][0].Value.(bson.D)
	require.Len(t, facet, len(domain.HomeShelves))

	for i, s := range domain.HomeShelves {
		assert.Equal(t, s.Subcategory, facet[i].Key)

		branch := facet[i].Value.(bson.A)
		require.Len(t, branch, 3)
		assert.Equal(t, bson.D{{"$match", bson.D{
			{"category", s.Category},
			{"subcategory", s.Subcategory},
		}}}, branch[0])
		assert.Equal(t, bson.D{{"$sort", bson.D{{"_id", -1}}}}, branch[1])
		assert.Equal(t, bson.D{{"$limit", s.Limit}}, branch[2])
	}
}

func TestListFilter(t *testing.T) {
	t.Run("NoFilters", func(t *testing.T) {
		assert.Equal(t, inStockFilter(), listFilter(domain.ProductsQuery{}))
	})

	t.Run("CategoryAndSubcategory", func(t *testing.T) {
		f := listFilter(domain.ProductsQuery{
			Category: "perifericos", Subcategory: "mouses",
		})
		require.Len(t, f, 3)
		assert.Equal(t, "$or", f[0].Key)
		assert.Equal(t, bson.E{Key: "category", Value: "perifericos"}, f[1])
		assert.Equal(t, bson.E{Key: "subcategory", Value: "mouses"}, f[2])
	})

	t.Run("Featured", func(t *testing.T) {
		f := listFilter(domain.ProductsQuery{Featured: true})
		require.Len(t, f, 2)
		assert.Equal(t, bson.E{Key: "isVipOffer", Value: true}, f[1])
	})
}

func TestListSort(t *testing.T) {
	tests := []struct {
		name string
		q    domain.ProductsQuery
		want bson.D
	}{
		{
			name: "DefaultCreatedAt",
			q:    domain.ProductsQuery{}.Normalize(),
			want: bson.D{{"createdAt", -1}, {"_id", -1}},
		},
		{
			name: "PriceAsc",
			q:    domain.ProductsQuery{SortBy: domain.SortByPrice, Order: domain.SortAsc},
			want: bson.D{{"price", 1}, {"_id", 1}},
		},
		{
			name: "ID",
			q:    domain.ProductsQuery{SortBy: domain.SortByID, Order: domain.SortDesc},
			want: bson.D{{"_id", -1}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, listSort(tt.q))
		})
	}
}

func TestStorageReadHomeShelves(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("Facets", func(mt *mtest.T) {
		newer := primitive.NewObjectID()
		older := primitive.NewObjectIDFromTimestamp(newer.Timestamp().Add(-time.Minute))

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			bson.D{
				{"notebooks", bson.A{
					bson.D{
						{"_id", newer},
						{"productName", "Notebook B"},
						{"category", "informatica"},
						{"subcategory", "notebooks"},
						{"price", int32(5000)},
						{"sellingPrice", 5500.5},
						{"slug", "notebook-b"},
						{"productImage", bson.A{"b1.jpg", "b2.jpg"}},
					},
					bson.D{
						{"_id", older},
						{"productName", "Notebook A"},
						{"category", "informatica"},
						{"subcategory", "notebooks"},
						{"price", nil},
						{"slug", "notebook-a"},
					},
				}},
				{"mouses", bson.A{}},
			},
		))

		s := New(mt.Coll)
		groups, err := s.ReadHomeShelves(context.Background(), domain.HomeShelves)
		require.NoError(mt, err)

		notebooks := groups["notebooks"]
		require.Len(mt, notebooks, 2)
		assert.Equal(mt, domain.ProductSummary{
			ID:           newer.Hex(),
			ProductName:  "Notebook B",
			Category:     "informatica",
			Subcategory:  "notebooks",
			Price:        5000,
			SellingPrice: 5500.5,
			Slug:         "notebook-b",
			ProductImage: []string{"b1.jpg", "b2.jpg"},
		}, notebooks[0])
		assert.Equal(mt, older.Hex(), notebooks[1].ID)
		assert.Zero(mt, notebooks[1].Price)
		assert.Nil(mt, notebooks[1].ProductImage)

		assert.Empty(mt, groups["mouses"])

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		assert.Equal(mt, "aggregate", started.CommandName)
	})

	mt.Run("NoDocument", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		s := New(mt.Coll)
		groups, err := s.ReadHomeShelves(context.Background(), domain.HomeShelves)
		require.NoError(mt, err)
		assert.Empty(mt, groups)
	})

	mt.Run("CommandError", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    2,
			Name:    "BadValue",
			Message: "invalid pipeline",
		}))

		s := New(mt.Coll)
		_, err := s.ReadHomeShelves(context.Background(), domain.HomeShelves)
		require.Error(mt, err)
		assert.Contains(mt, err.Error(), "invalid pipeline")
	})

	mt.Run("MalformedDocument", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			bson.D{{"notebooks", bson.A{
				bson.D{{"_id", "x"}, {"price", "not a number"}},
			}}},
		))

		s := New(mt.Coll)
		_, err := s.ReadHomeShelves(context.Background(), domain.HomeShelves)
		require.Error(mt, err)
	})
}

func TestStorageReadProducts(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("Page", func(mt *mtest.T) {
		id := primitive.NewObjectID()
		created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
				bson.D{
					{"_id", id},
					{"productName", "Mouse"},
					{"brandName", "Logitech"},
					{"category", "perifericos"},
					{"subcategory", "mouses"},
					{"price", 100.0},
					{"sellingPrice", 120.0},
					{"stock", int32(4)},
					{"slug", "mouse"},
					{"productImage", bson.A{"m.jpg"}},
					{"isVipOffer", true},
					{"createdAt", primitive.NewDateTimeFromTime(created)},
				},
			),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
				bson.D{{"n", int32(41)}},
			),
		)

		s := New(mt.Coll)
		q := domain.ProductsQuery{
			Page: 2, Limit: 20, Category: "perifericos", Featured: true,
		}.Normalize()

		items, total, err := s.ReadProducts(context.Background(), q)
		require.NoError(mt, err)

		assert.EqualValues(mt, 41, total)
		require.Len(mt, items, 1)
		assert.Equal(mt, id.Hex(), items[0].ID)
		assert.Equal(mt, "Logitech", items[0].BrandName)
		require.NotNil(mt, items[0].Stock)
		assert.Equal(mt, 4.0, *items[0].Stock)
		require.NotNil(mt, items[0].IsVipOffer)
		assert.True(mt, *items[0].IsVipOffer)
		require.NotNil(mt, items[0].CreatedAt)
		assert.True(mt, created.Equal(*items[0].CreatedAt))

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		assert.Equal(mt, "find", started.CommandName)
		assert.EqualValues(mt, 20, started.Command.Lookup("skip").AsInt64())
		assert.EqualValues(mt, 20, started.Command.Lookup("limit").AsInt64())
		sortDoc := started.Command.Lookup("sort").Document()
		assert.EqualValues(mt, -1, sortDoc.Lookup("createdAt").AsInt64())
		filter := started.Command.Lookup("filter").Document()
		assert.True(mt, filter.Lookup("isVipOffer").Boolean())
	})

	mt.Run("FindError", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    13,
			Name:    "Unauthorized",
			Message: "not authorized",
		}))

		s := New(mt.Coll)
		_, _, err := s.ReadProducts(
			context.Background(), domain.ProductsQuery{}.Normalize(),
		)
		require.Error(mt, err)
	})
}

func TestIDString(t *testing.T) {
	oid := primitive.NewObjectID()

	_, raw, err := bson.MarshalValue(oid)
	require.NoError(t, err)
	assert.Equal(t, oid.Hex(), idString(bson.RawValue{Type: bson.TypeObjectID, Value: raw}))

	_, raw, err = bson.MarshalValue("sku-1")
	require.NoError(t, err)
	assert.Equal(t, "sku-1", idString(bson.RawValue{Type: bson.TypeString, Value: raw}))

	assert.Empty(t, idString(bson.RawValue{}))
}
