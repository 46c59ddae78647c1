package domain

import "time"

// ProductSimilarity is one persisted pairwise score. Pairs are stored once
// with ProductAID < ProductBID.
type ProductSimilarity struct {
	ProductAID  int64     `json:"product_a_id"`
	ProductBID  int64     `json:"product_b_id"`
	Score       float64   `json:"score"`
	LastUpdated time.Time `json:"last_updated"`
}

// SimilarityEntry is a neighbor returned by a top-K lookup.
type SimilarityEntry struct {
	ProductID int64   `json:"product_id"`
	Score     float64 `json:"score"`
}

// ProductCount pairs a product with a raw interaction count, used by the
// trending and co-purchase queries before normalization.
type ProductCount struct {
	ProductID int64
	Count     int64
}

// ClampScore bounds a score to [0,1]. Out-of-range inputs are clamped, not
// propagated.
func ClampScore(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}
