package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/brightcart/recommendation-engine/internal/domain"
)

// ActiveSeasonalWindows returns the curated windows whose [start, end]
// interval contains now, highest priority first, with their product ids.
func (r *Repository) ActiveSeasonalWindows(ctx context.Context, now time.Time) ([]domain.SeasonalWindow, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT w.id, w.name, w.season, w.start_date, w.end_date, w.active, w.priority,
			COALESCE(array_agg(wp.product_id ORDER BY wp.product_id)
				FILTER (WHERE wp.product_id IS NOT NULL), '{}')
		 FROM seasonal_windows w
		 LEFT JOIN seasonal_window_products wp ON wp.window_id = w.id
		 WHERE w.active AND w.start_date <= $1 AND w.end_date >= $1
		 GROUP BY w.id
		 ORDER BY w.priority DESC, w.id`, now)
	if err != nil {
		return nil, fmt.Errorf("query seasonal windows: %w", err)
	}
	defer rows.Close()

	var items []domain.SeasonalWindow
	for rows.Next() {
		var w domain.SeasonalWindow
		if err := rows.Scan(&w.ID, &w.Name, &w.Season, &w.StartDate, &w.EndDate,
			&w.Active, &w.Priority, &w.ProductIDs); err != nil {
			return nil, fmt.Errorf("scan seasonal window: %w", err)
		}
		items = append(items, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate seasonal windows: %w", err)
	}
	return items, nil
}
