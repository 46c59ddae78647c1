package repository

import (
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// interactionWeightSQL scores an interaction row with the same weights the
// in-memory matrix uses.
const interactionWeightSQL = `CASE interaction_type
	WHEN 'purchase' THEN 4
	WHEN 'wishlist' THEN 3
	WHEN 'cart' THEN 2
	ELSE 1
END`

func collectIDs(rows pgx.Rows) ([]int64, error) {
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ids: %w", err)
	}
	return ids, nil
}

func collectWeights(rows pgx.Rows) (map[int64]float64, error) {
	defer rows.Close()
	out := make(map[int64]float64)
	for rows.Next() {
		var id int64
		var w float64
		if err := rows.Scan(&id, &w); err != nil {
			return nil, fmt.Errorf("scan weight: %w", err)
		}
		out[id] = w
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate weights: %w", err)
	}
	return out, nil
}
