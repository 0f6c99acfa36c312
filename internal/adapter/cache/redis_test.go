package cache_test

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/niksmo/home-catalog/internal/adapter/cache"
	"github.com/niksmo/home-catalog/internal/core/domain"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHomeCache(t *testing.T, ttl time.Duration) (cache.HomeCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	cl := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = cl.Close() })

	return cache.NewHomeCache(cl, "", ttl), mr
}

func TestHomeCache(t *testing.T) {
	home := domain.HomeCatalog{
		"informatica": {
			"notebooks": {{
				ID:           "65f0c0ffee",
				ProductName:  "Notebook",
				Category:     "informatica",
				Subcategory:  "notebooks",
				Price:        100,
				SellingPrice: 150,
				Slug:         "notebook",
				ProductImage: []string{"a.jpg"},
			}},
			"procesador": {},
		},
	}

	t.Run("Miss", func(t *testing.T) {
		c, _ := newHomeCache(t, time.Minute)

		got, version, found, err := c.LoadHome(t.Context())
		require.NoError(t, err)
		assert.False(t, found)
		assert.Nil(t, got)
		assert.Zero(t, version)
	})

	t.Run("StoreThenLoad", func(t *testing.T) {
		c, mr := newHomeCache(t, time.Minute)

		require.NoError(t, c.StoreHome(t.Context(), home, 0))
		assert.True(t, mr.Exists(cache.DefaultKey))
		assert.Equal(t, time.Minute, mr.TTL(cache.DefaultKey))

		got, _, found, err := c.LoadHome(t.Context())
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, home, got)
	})

	t.Run("Expires", func(t *testing.T) {
		c, mr := newHomeCache(t, time.Second)

		require.NoError(t, c.StoreHome(t.Context(), home, 0))
		mr.FastForward(2 * time.Second)

		_, _, found, err := c.LoadHome(t.Context())
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("Drop", func(t *testing.T) {
		c, mr := newHomeCache(t, time.Minute)

		require.NoError(t, c.StoreHome(t.Context(), home, 0))
		require.NoError(t, c.DropHome(t.Context()))
		assert.False(t, mr.Exists(cache.DefaultKey))

		_, version, found, err := c.LoadHome(t.Context())
		require.NoError(t, err)
		assert.False(t, found)
		assert.EqualValues(t, 1, version)
	})

	t.Run("DropDuringReadRejectsStore", func(t *testing.T) {
		c, mr := newHomeCache(t, time.Minute)

		_, version, found, err := c.LoadHome(t.Context())
		require.NoError(t, err)
		require.False(t, found)

		require.NoError(t, c.DropHome(t.Context()))

		err = c.StoreHome(t.Context(), home, version)
		assert.ErrorIs(t, err, domain.ErrStaleHome)
		assert.False(t, mr.Exists(cache.DefaultKey))

		_, version, _, err = c.LoadHome(t.Context())
		require.NoError(t, err)
		require.NoError(t, c.StoreHome(t.Context(), home, version))
		assert.True(t, mr.Exists(cache.DefaultKey))
	})

	t.Run("CorruptedValue", func(t *testing.T) {
		c, mr := newHomeCache(t, time.Minute)
		require.NoError(t, mr.Set(cache.DefaultKey, "{not json"))

		_, _, found, err := c.LoadHome(t.Context())
		require.Error(t, err)
		assert.False(t, found)
	})

	t.Run("ServerDown", func(t *testing.T) {
		c, mr := newHomeCache(t, time.Minute)
		mr.Close()

		_, _, _, err := c.LoadHome(t.Context())
		assert.Error(t, err)
		assert.Error(t, c.StoreHome(t.Context(), home, 0))
		assert.Error(t, c.DropHome(t.Context()))
	})
}
