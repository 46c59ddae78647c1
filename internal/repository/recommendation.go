package repository

import (
	"context"
	"fmt"

	json "github.com/goccy/go-json"

	"github.com/brightcart/recommendation-engine/internal/domain"
)

// SaveRecommendations persists ranked results with their explanations in one
// transaction. Recommendation history is retained for analytics; reads never
// depend on these rows.
func (r *Repository) SaveRecommendations(ctx context.Context, recs []domain.Recommendation) error {
	if len(recs) == 0 {
		return nil
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, rec := range recs {
		var recID int64
		err := tx.QueryRow(ctx,
			`INSERT INTO recommendations (user_id, product_id, rec_type, score, explanation)
			 VALUES ($1, $2, $3, $4, $5)
			 RETURNING id`,
			rec.UserID, rec.ProductID, rec.Type, domain.ClampScore(rec.Score), rec.Explanation,
		).Scan(&recID)
		if err != nil {
			return fmt.Errorf("insert recommendation: %w", err)
		}
		for _, exp := range rec.Explanations {
			supporting := []byte("{}")
			if exp.SupportingData != nil {
				supporting, err = json.Marshal(exp.SupportingData)
				if err != nil {
					return fmt.Errorf("marshal supporting data: %w", err)
				}
			}
			_, err := tx.Exec(ctx,
				`INSERT INTO recommendation_explanations
					(recommendation_id, explanation_type, explanation, confidence, supporting_data)
				 VALUES ($1, $2, $3, $4, $5)`,
				recID, exp.Type, exp.Text, domain.ClampScore(exp.Confidence), supporting)
			if err != nil {
				return fmt.Errorf("insert explanation: %w", err)
			}
		}
	}
	return tx.Commit(ctx)
}
