package repository

import (
	"context"
	"fmt"
)

// SegmentPeers returns users sharing at least one active segment with the
// target user.
func (r *Repository) SegmentPeers(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT m2.user_id
		 FROM user_segment_memberships m1
		 JOIN user_segment_memberships m2 ON m2.segment_id = m1.segment_id
		 JOIN user_segments s ON s.id = m1.segment_id AND s.active
		 WHERE m1.user_id = $1 AND m2.user_id <> $1
		 ORDER BY m2.user_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("query segment peers for user %d: %w", userID, err)
	}
	return collectIDs(rows)
}
