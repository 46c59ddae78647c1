package engine

import (
	"context"

	"github.com/brightcart/recommendation-engine/internal/domain"
)

// Candidate is one product proposed by a candidate source, with the source's
// own score in [0,1] and the explanation it would attach.
type Candidate struct {
	Product     domain.Product     `json:"product"`
	Score       float64            `json:"score"`
	Explanation domain.Explanation `json:"explanation"`
}

// Source is a pluggable candidate source for the hybrid ranker. Sources are
// stateless between calls; returning an empty slice means the source has
// nothing to offer for this user.
type Source interface {
	Name() string
	Propose(ctx context.Context, userID int64) ([]Candidate, error)
}
