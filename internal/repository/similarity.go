package repository

import (
	"context"
	"fmt"

	"github.com/brightcart/recommendation-engine/internal/domain"
)

// UpsertSimilarities inserts a batch of pairwise scores in one round trip.
// Already-present pairs are ignored, not overwritten, so concurrent or
// restarted rebuild runs cannot corrupt the table.
func (r *Repository) UpsertSimilarities(ctx context.Context, pairs []domain.ProductSimilarity) error {
	if len(pairs) == 0 {
		return nil
	}
	as := make([]int64, len(pairs))
	bs := make([]int64, len(pairs))
	scores := make([]float64, len(pairs))
	for i, p := range pairs {
		// Canonical ordering: lower id first.
		a, b := p.ProductAID, p.ProductBID
		if a > b {
			a, b = b, a
		}
		as[i], bs[i], scores[i] = a, b, domain.ClampScore(p.Score)
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO product_similarities (product_a_id, product_b_id, score)
		 SELECT * FROM unnest($1::bigint[], $2::bigint[], $3::float8[])
		 ON CONFLICT (product_a_id, product_b_id) DO NOTHING`,
		as, bs, scores)
	if err != nil {
		return fmt.Errorf("insert similarities: %w", err)
	}
	return nil
}

// TopSimilar returns up to k neighbors of a product from the persisted
// similarity table, both pair directions, ordered by descending score then
// ascending product id. Unknown products yield an empty slice.
func (r *Repository) TopSimilar(ctx context.Context, productID int64, k int) ([]domain.SimilarityEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT CASE WHEN product_a_id = $1 THEN product_b_id ELSE product_a_id END AS product_id,
			score
		 FROM product_similarities
		 WHERE product_a_id = $1 OR product_b_id = $1
		 ORDER BY score DESC, product_id
		 LIMIT $2`, productID, k)
	if err != nil {
		return nil, fmt.Errorf("query similar products for %d: %w", productID, err)
	}
	defer rows.Close()

	var items []domain.SimilarityEntry
	for rows.Next() {
		var e domain.SimilarityEntry
		if err := rows.Scan(&e.ProductID, &e.Score); err != nil {
			return nil, fmt.Errorf("scan similarity entry: %w", err)
		}
		items = append(items, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate similarity entries: %w", err)
	}
	return items, nil
}
