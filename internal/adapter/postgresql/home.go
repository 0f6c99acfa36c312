package postgresql

import (
	"context"
	"fmt"

	"github.com/niksmo/home-catalog/internal/core/domain"
)

// ReadHomeShelves selects every shelf in one statement: the shelf
// table is unnested and each row drives a LATERAL top-k subquery.
func (s Storage) ReadHomeShelves(
	ctx context.Context, shelves []domain.Shelf,
) (domain.ShelfGroups, error) {
	const op = "Storage.ReadHomeShelves"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	categories, subcategories, limits := homeArgs(shelves)
	rows, err := s.db.Query(ctx, homeQuery, categories, subcategories, limits)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	groups := make(domain.ShelfGroups, len(shelves))
	for rows.Next() {
		var (
			key string
			id  int64
			raw []byte
		)
		if err := rows.Scan(&key, &id, &raw); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		v, err := decodeSummary(id, raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		groups[key] = append(groups[key], v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return groups, nil
}
