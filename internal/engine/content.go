package engine

import (
	"context"
	"fmt"

	"github.com/brightcart/recommendation-engine/internal/domain"
)

const (
	// recentSeedProducts is how many of the user's most recently
	// interacted-with products seed the content source.
	recentSeedProducts = 3
	// neighborsPerSeed is how many similar products each seed contributes.
	neighborsPerSeed = 2
)

type ContentStore interface {
	RecentUserProducts(ctx context.Context, userID int64, limit int) ([]int64, error)
	TopSimilar(ctx context.Context, productID int64, k int) ([]domain.SimilarityEntry, error)
	ProductsByIDs(ctx context.Context, ids []int64) (map[int64]domain.Product, error)
}

// ContentSource proposes neighbors of the products the user interacted with
// most recently, using the persisted similarity table.
type ContentSource struct {
	store ContentStore
}

func NewContentSource(store ContentStore) *ContentSource {
	return &ContentSource{store: store}
}

func (s *ContentSource) Name() string { return "content" }

func (s *ContentSource) Propose(ctx context.Context, userID int64) ([]Candidate, error) {
	seeds, err := s.store.RecentUserProducts(ctx, userID, recentSeedProducts)
	if err != nil {
		return nil, fmt.Errorf("fetch recent products: %w", err)
	}
	if len(seeds) == 0 {
		return nil, nil
	}

	seedSet := make(map[int64]struct{}, len(seeds))
	for _, id := range seeds {
		seedSet[id] = struct{}{}
	}

	type scored struct {
		seed  int64
		entry domain.SimilarityEntry
	}
	var picks []scored
	for _, seed := range seeds {
		entries, err := s.store.TopSimilar(ctx, seed, neighborsPerSeed+len(seeds))
		if err != nil {
			return nil, fmt.Errorf("fetch similar products for %d: %w", seed, err)
		}
		taken := 0
		for _, e := range entries {
			if _, isSeed := seedSet[e.ProductID]; isSeed {
				continue
			}
			picks = append(picks, scored{seed: seed, entry: e})
			if taken++; taken >= neighborsPerSeed {
				break
			}
		}
	}
	if len(picks) == 0 {
		return nil, nil
	}

	ids := make([]int64, 0, len(picks))
	for _, p := range picks {
		ids = append(ids, p.entry.ProductID)
	}
	products, err := s.store.ProductsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("fetch candidate products: %w", err)
	}

	out := make([]Candidate, 0, len(picks))
	for _, p := range picks {
		product, ok := products[p.entry.ProductID]
		if !ok {
			continue
		}
		score := domain.ClampScore(p.entry.Score)
		out = append(out, Candidate{
			Product: product,
			Score:   score,
			Explanation: domain.Explanation{
				Type:       domain.ExplanationViewHistory,
				Text:       "Similar to products you have shown interest in",
				Confidence: score,
				SupportingData: map[string]any{
					"source_product_id": p.seed,
				},
			},
		})
	}
	return out, nil
}
