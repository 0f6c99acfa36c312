package postgresql

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/niksmo/home-catalog/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	envPostgresDSN = "TEST_PG_DSN"
	migrationUp    = "../../../migrations/000001_create_products.up.sql"
)

// liveStorage creates a throwaway schema in the TEST_PG_DSN database,
// applies the products migration there and drops the schema on cleanup.
func liveStorage(t *testing.T) (Storage, *pgxpool.Pool) {
	t.Helper()

	dsn := os.Getenv(envPostgresDSN)
	if dsn == "" || testing.Short() {
		t.Skipf("%s is not set", envPostgresDSN)
	}

	ctx, cancel := context.WithTimeout(t.Context(), 10*time.Second)
	defer cancel()

	admin, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(admin.Close)

	schemaName := "catalog_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
	ident := pgx.Identifier{schemaName}.Sanitize()
	_, err = admin.Exec(ctx, "CREATE SCHEMA "+ident)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = admin.Exec(context.Background(), "DROP SCHEMA "+ident+" CASCADE")
	})

	cfg, err := pgxpool.ParseConfig(dsn)
	require.NoError(t, err)
	cfg.ConnConfig.RuntimeParams["search_path"] = schemaName

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	migration, err := os.ReadFile(migrationUp)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, string(migration))
	require.NoError(t, err)

	return Storage{db: pool}, pool
}

// seedShelves inserts, oldest first:
//   - notebooks: 25 in stock, then 5 newer ones with stock 0;
//   - mouses: absent, null, negative and fractional stock.
//
// Every product carries three images. It returns the ids of the
// products that must be listed, oldest first.
func seedShelves(t *testing.T, pool *pgxpool.Pool) (notebooks, mouses []int64) {
	t.Helper()

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	n := 0
	insert := func(name, category, subcategory string, vip bool, stock any, withStock bool) int64 {
		t.Helper()
		n++
		doc := map[string]any{
			"productName":  name,
			"brandName":    "Acme",
			"category":     category,
			"subcategory":  subcategory,
			"price":        100,
			"sellingPrice": 90,
			"slug":         strings.ToLower(name),
			"productImage": []string{name + "-1.jpg", name + "-2.jpg", name + "-3.jpg"},
			"isVipOffer":   vip,
			"createdAt":    base.Add(time.Duration(n) * time.Hour).Format(time.RFC3339),
		}
		if withStock {
			doc["stock"] = stock
		}
		raw, err := json.Marshal(doc)
		require.NoError(t, err)

		var id int64
		err = pool.QueryRow(t.Context(),
			`INSERT INTO products (doc) VALUES ($1::jsonb) RETURNING id`, string(raw),
		).Scan(&id)
		require.NoError(t, err)
		return id
	}

	for i := range 25 {
		id := insert(fmt.Sprintf("NB%02d", i), "informatica", "notebooks", i%5 == 0, i+1, true)
		notebooks = append(notebooks, id)
	}
	for i := range 5 {
		insert(fmt.Sprintf("NB-OUT%02d", i), "informatica", "notebooks", true, 0, true)
	}

	mouses = append(mouses, insert("M-ABSENT", "perifericos", "mouses", false, nil, false))
	mouses = append(mouses, insert("M-NULL", "perifericos", "mouses", false, nil, true))
	insert("M-NEGATIVE", "perifericos", "mouses", false, -1, true)
	mouses = append(mouses, insert("M-FRACTION", "perifericos", "mouses", false, 0.5, true))

	return notebooks, mouses
}

func newestFirst(in []int64, n int) []string {
	out := make([]string, 0, n)
	for i := len(in) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, strconv.FormatInt(in[i], 10))
	}
	return out
}

func summaryIDs(products []domain.ProductSummary) []string {
	ids := make([]string, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}
	return ids
}

func TestLiveReadHomeShelves(t *testing.T) {
	s, pool := liveStorage(t)
	notebooks, mouses := seedShelves(t, pool)

	groups, err := s.ReadHomeShelves(t.Context(), domain.HomeShelves)
	require.NoError(t, err)

	t.Run("NewestInStockUpToLimit", func(t *testing.T) {
		got := groups["notebooks"]
		require.Len(t, got, 20)
		assert.Equal(t, newestFirst(notebooks, 20), summaryIDs(got))
	})

	t.Run("ImagesCapped", func(t *testing.T) {
		for _, p := range groups["notebooks"] {
			assert.Equal(t, []string{p.ProductName + "-1.jpg", p.ProductName + "-2.jpg"}, p.ProductImage)
		}
	})

	t.Run("StockVariants", func(t *testing.T) {
		assert.Equal(t, newestFirst(mouses, len(mouses)), summaryIDs(groups["mouses"]))
	})

	t.Run("EmptyShelves", func(t *testing.T) {
		assert.Empty(t, groups["teclados"])
	})
}

func TestLiveReadProducts(t *testing.T) {
	s, pool := liveStorage(t)
	notebooks, _ := seedShelves(t, pool)

	t.Run("FirstPage", func(t *testing.T) {
		q := domain.ProductsQuery{
			Subcategory: "notebooks", SortBy: domain.SortByID,
		}.Normalize()

		items, total, err := s.ReadProducts(t.Context(), q)
		require.NoError(t, err)

		assert.EqualValues(t, 25, total)
		require.Len(t, items, 20)
		want := newestFirst(notebooks, 20)
		for i, p := range items {
			assert.Equal(t, want[i], p.ID)
			assert.Len(t, p.ProductImage, 2)
			require.NotNil(t, p.CreatedAt)
		}
	})

	t.Run("FeaturedByCreatedAt", func(t *testing.T) {
		q := domain.ProductsQuery{
			Category: "informatica", Featured: true, Order: domain.SortAsc,
		}.Normalize()

		items, total, err := s.ReadProducts(t.Context(), q)
		require.NoError(t, err)

		assert.EqualValues(t, 5, total)
		require.Len(t, items, 5)
		for i, p := range items {
			assert.Equal(t, strconv.FormatInt(notebooks[i*5], 10), p.ID)
			require.NotNil(t, p.IsVipOffer)
			assert.True(t, *p.IsVipOffer)
		}
	})
}
