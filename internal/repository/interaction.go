package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/brightcart/recommendation-engine/internal/domain"
	"github.com/brightcart/recommendation-engine/internal/engine"
)

// ListInteractions returns the interaction log, optionally restricted to
// events at or after since (zero time means the full log).
func (r *Repository) ListInteractions(ctx context.Context, since time.Time) ([]domain.Interaction, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, product_id, interaction_type, created_at
		 FROM user_interactions
		 WHERE created_at >= $1
		 ORDER BY id`, since)
	if err != nil {
		return nil, fmt.Errorf("query interactions: %w", err)
	}
	defer rows.Close()

	var items []domain.Interaction
	for rows.Next() {
		var in domain.Interaction
		if err := rows.Scan(&in.ID, &in.UserID, &in.ProductID, &in.Type, &in.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan interaction: %w", err)
		}
		items = append(items, in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate interactions: %w", err)
	}
	return items, nil
}

// UserItemWeights returns the user's row of the interaction matrix: summed
// interaction weight per product. An unknown user yields an empty map.
func (r *Repository) UserItemWeights(ctx context.Context, userID int64) (map[int64]float64, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT product_id, SUM(`+interactionWeightSQL+`)::float8
		 FROM user_interactions
		 WHERE user_id = $1
		 GROUP BY product_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("query item weights for user %d: %w", userID, err)
	}
	return collectWeights(rows)
}

// ItemWeightsOfUsers returns summed interaction weight per product across a
// set of users.
func (r *Repository) ItemWeightsOfUsers(ctx context.Context, userIDs []int64) (map[int64]float64, error) {
	if len(userIDs) == 0 {
		return map[int64]float64{}, nil
	}
	rows, err := r.pool.Query(ctx,
		`SELECT product_id, SUM(`+interactionWeightSQL+`)::float8
		 FROM user_interactions
		 WHERE user_id = ANY($1)
		 GROUP BY product_id`, userIDs)
	if err != nil {
		return nil, fmt.Errorf("query item weights for users: %w", err)
	}
	return collectWeights(rows)
}

// RecentUserProducts returns the user's most recently interacted-with
// distinct products, newest first.
func (r *Repository) RecentUserProducts(ctx context.Context, userID int64, limit int) ([]int64, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT product_id
		 FROM user_interactions
		 WHERE user_id = $1
		 GROUP BY product_id
		 ORDER BY MAX(created_at) DESC, product_id
		 LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent products for user %d: %w", userID, err)
	}
	return collectIDs(rows)
}

// NeighborUsers finds users who interacted with at least one product the
// target user also interacted with, ranked by summed interaction weight over
// the shared products.
func (r *Repository) NeighborUsers(ctx context.Context, userID int64, limit int) ([]engine.NeighborUser, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT ui.user_id, SUM(`+interactionWeightSQL+`)::float8 AS strength
		 FROM user_interactions ui
		 WHERE ui.user_id <> $1
		   AND ui.product_id IN (
			SELECT product_id FROM user_interactions WHERE user_id = $1)
		 GROUP BY ui.user_id
		 ORDER BY strength DESC, ui.user_id
		 LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query neighbor users for user %d: %w", userID, err)
	}
	defer rows.Close()

	var items []engine.NeighborUser
	for rows.Next() {
		var n engine.NeighborUser
		if err := rows.Scan(&n.UserID, &n.Strength); err != nil {
			return nil, fmt.Errorf("scan neighbor user: %w", err)
		}
		items = append(items, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate neighbor users: %w", err)
	}
	return items, nil
}

// CoPurchased returns products purchased by users who also purchased the
// given product, ranked by co-purchase count. Only purchase interactions
// count.
func (r *Repository) CoPurchased(ctx context.Context, productID int64, limit int) ([]domain.ProductCount, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT ui.product_id, COUNT(*) AS cnt
		 FROM user_interactions ui
		 WHERE ui.interaction_type = 'purchase'
		   AND ui.product_id <> $1
		   AND ui.user_id IN (
			SELECT user_id FROM user_interactions
			WHERE product_id = $1 AND interaction_type = 'purchase')
		 GROUP BY ui.product_id
		 ORDER BY cnt DESC, ui.product_id
		 LIMIT $2`, productID, limit)
	if err != nil {
		return nil, fmt.Errorf("query co-purchases for product %d: %w", productID, err)
	}
	return collectProductCounts(rows)
}

// TrendingProducts counts interactions of any type since the given time.
func (r *Repository) TrendingProducts(ctx context.Context, since time.Time, limit int) ([]domain.ProductCount, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT product_id, COUNT(*) AS cnt
		 FROM user_interactions
		 WHERE created_at >= $1
		 GROUP BY product_id
		 ORDER BY cnt DESC, product_id
		 LIMIT $2`, since, limit)
	if err != nil {
		return nil, fmt.Errorf("query trending products: %w", err)
	}
	return collectProductCounts(rows)
}

// DistinctUserIDs pages through the users present in the interaction log.
func (r *Repository) DistinctUserIDs(ctx context.Context, page, limit int) ([]int64, error) {
	offset := (page - 1) * limit
	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT user_id FROM user_interactions
		 ORDER BY user_id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query user ids for page %d: %w", page, err)
	}
	return collectIDs(rows)
}

// CountDistinctUsers counts users present in the interaction log.
func (r *Repository) CountDistinctUsers(ctx context.Context) (int, error) {
	var total int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(DISTINCT user_id) FROM user_interactions`).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return total, nil
}
