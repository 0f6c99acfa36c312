package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/niksmo/home-catalog/internal/core/domain"
	"github.com/niksmo/home-catalog/internal/core/port"
	"github.com/redis/go-redis/v9"
)

var _ port.HomeCache = (*HomeCache)(nil)

const DefaultKey = "catalog:home"

func NewRedisClient(
	ctx context.Context, addr, password string, db int,
) (*redis.Client, error) {
	const op = "cache.NewRedisClient"

	cl := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := cl.Ping(ctx).Err(); err != nil {
		_ = cl.Close()
		return nil, fmt.Errorf("%s: redis is unavailable: %w", op, err)
	}
	slog.Info("redis is available", "op", op, "addr", addr)
	return cl, nil
}

// HomeCache stores the assembled homepage as one JSON value next to a
// version counter. Dropping advances the counter, so a homepage read
// before the drop is never written back.
type HomeCache struct {
	cl         *redis.Client
	key        string
	versionKey string
	ttl        time.Duration
}

func NewHomeCache(cl *redis.Client, key string, ttl time.Duration) HomeCache {
	if key == "" {
		key = DefaultKey
	}
	return HomeCache{cl: cl, key: key, versionKey: key + ":version", ttl: ttl}
}

func (c HomeCache) LoadHome(
	ctx context.Context,
) (domain.HomeCatalog, int64, bool, error) {
	const op = "HomeCache.LoadHome"

	vals, err := c.cl.MGet(ctx, c.key, c.versionKey).Result()
	if err != nil {
		return nil, 0, false, fmt.Errorf("%s: %w", op, err)
	}

	version, err := parseVersion(vals[1])
	if err != nil {
		return nil, 0, false, fmt.Errorf("%s: %w", op, err)
	}

	raw, ok := vals[0].(string)
	if !ok {
		return nil, version, false, nil
	}

	var home domain.HomeCatalog
	if err := json.Unmarshal([]byte(raw), &home); err != nil {
		return nil, version, false, fmt.Errorf("%s: %w", op, err)
	}
	return home, version, true, nil
}

// StoreHome writes home unless the version moved since it was loaded.
func (c HomeCache) StoreHome(
	ctx context.Context, home domain.HomeCatalog, version int64,
) error {
	const op = "HomeCache.StoreHome"

	b, err := json.Marshal(home)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	txf := func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, c.versionKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if cur != version {
			return domain.ErrStaleHome
		}

		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, c.key, b, c.ttl)
			return nil
		})
		return err
	}

	err = c.cl.Watch(ctx, txf, c.versionKey)
	if errors.Is(err, redis.TxFailedErr) {
		err = domain.ErrStaleHome
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (c HomeCache) DropHome(ctx context.Context) error {
	const op = "HomeCache.DropHome"

	_, err := c.cl.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Incr(ctx, c.versionKey)
		p.Del(ctx, c.key)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func parseVersion(v any) (int64, error) {
	s, ok := v.(string)
	if !ok {
		return 0, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid cache version %q: %w", s, err)
	}
	return n, nil
}

func (c HomeCache) Close() {
	const op = "HomeCache.Close"
	log := slog.With("op", op)

	log.Info("closing redis client...")
	if err := c.cl.Close(); err != nil {
		log.Error("failed to close", "err", err)
		return
	}
	log.Info("redis client is closed")
}
