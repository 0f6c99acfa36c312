package postgresql

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/niksmo/home-catalog/internal/core/domain"
	"github.com/niksmo/home-catalog/internal/core/port"
)

var _ port.CatalogStorage = (*Storage)(nil)

type pgxdb interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Storage keeps products as JSONB documents in the products table,
// identified by an increasing bigserial id.
type Storage struct {
	db    pgxdb
	close func()
}

func Connect(ctx context.Context, dsn string) (Storage, error) {
	const op = "postgresql.Connect"
	log := slog.With("op", op)

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return Storage{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return Storage{}, fmt.Errorf("%s: database is unavailable: %w", op, err)
	}

	log.Info("database is available")
	return Storage{db: pool, close: pool.Close}, nil
}

func (s Storage) Close() {
	const op = "Storage.Close"
	log := slog.With("op", op)

	log.Info("closing postgresql pool...")
	if s.close != nil {
		s.close()
	}
	log.Info("postgresql pool is closed")
}

func decodeSummary(id int64, raw []byte) (domain.ProductSummary, error) {
	var v domain.ProductSummary
	if err := json.Unmarshal(raw, &v); err != nil {
		return domain.ProductSummary{}, fmt.Errorf("product %d: %w", id, err)
	}
	v.ID = strconv.FormatInt(id, 10)
	return v, nil
}

func decodeListed(id int64, raw []byte) (domain.ListedProduct, error) {
	var v domain.ListedProduct
	if err := json.Unmarshal(raw, &v); err != nil {
		return domain.ListedProduct{}, fmt.Errorf("product %d: %w", id, err)
	}
	v.ID = strconv.FormatInt(id, 10)
	return v, nil
}
