package postgresql

import (
	"context"
	"fmt"

	"github.com/niksmo/home-catalog/internal/core/domain"
)

func (s Storage) ReadProducts(
	ctx context.Context, q domain.ProductsQuery,
) ([]domain.ListedProduct, int64, error) {
	const op = "Storage.ReadProducts"

	if err := ctx.Err(); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	rows, err := s.db.Query(ctx, listQuery(q),
		q.Category, q.Subcategory, q.Featured, q.Limit, q.Skip(),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var items []domain.ListedProduct
	for rows.Next() {
		var (
			id  int64
			raw []byte
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, 0, fmt.Errorf("%s: %w", op, err)
		}

		v, err := decodeListed(id, raw)
		if err != nil {
			return nil, 0, fmt.Errorf("%s: %w", op, err)
		}
		items = append(items, v)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	var total int64
	err = s.db.QueryRow(
		ctx, countQuery, q.Category, q.Subcategory, q.Featured,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: failed to count: %w", op, err)
	}

	return items, total, nil
}
