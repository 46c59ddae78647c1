package engine

import (
	"context"
	"fmt"
	"log"
	"sort"

	"github.com/brightcart/recommendation-engine/internal/domain"
)

// Base weights per candidate source. Policy constants, not learned. Trending
// carries its own count-based score, so its weight stays 1.
const (
	collaborativeWeight = 0.8
	contentWeight       = 0.6
	seasonalWeight      = 0.7
	trendingWeight      = 1.0
)

type FallbackStore interface {
	MostInteracted(ctx context.Context, limit int) ([]domain.ProductCount, error)
	FeaturedProducts(ctx context.Context, limit int) ([]domain.Product, error)
	ProductsByIDs(ctx context.Context, ids []int64) (map[int64]domain.Product, error)
}

type weightedSource struct {
	source Source
	weight float64
}

// HybridRanker merges candidate sources into one ranked list. Sources are
// consulted in priority order; the first source to propose a product owns its
// primary explanation, later sources can only upgrade the score and append
// their explanation.
type HybridRanker struct {
	sources  []weightedSource
	fallback FallbackStore
}

func NewHybridRanker(fallback FallbackStore, sources ...weightedSource) *HybridRanker {
	return &HybridRanker{sources: sources, fallback: fallback}
}

type mergedCandidate struct {
	product      domain.Product
	score        float64
	explanations []domain.Explanation
}

// Rank produces the final top-N list for a user. It never returns an empty
// list while the catalog has products: an empty merge falls back to the most
// interacted-with products, then to featured ones.
func (r *HybridRanker) Rank(ctx context.Context, userID int64, n int) ([]domain.RankedProduct, error) {
	merged := make(map[int64]*mergedCandidate)
	for _, ws := range r.sources {
		candidates, err := ws.source.Propose(ctx, userID)
		if err != nil {
			// A failing source degrades to fewer candidates, never to a
			// request error.
			log.Printf("[hybrid] source %s failed for user %d: %v", ws.source.Name(), userID, err)
			continue
		}
		for _, c := range candidates {
			score := domain.ClampScore(c.Score * ws.weight)
			exp := c.Explanation
			exp.Confidence = domain.ClampScore(exp.Confidence * ws.weight)
			if entry, ok := merged[c.Product.ID]; ok {
				if score > entry.score {
					entry.score = score
				}
				entry.explanations = append(entry.explanations, exp)
				continue
			}
			merged[c.Product.ID] = &mergedCandidate{
				product:      c.Product,
				score:        score,
				explanations: []domain.Explanation{exp},
			}
		}
	}

	if len(merged) == 0 {
		log.Printf("[hybrid] no candidates for user %d, serving popularity fallback", userID)
		return r.popularityFallback(ctx, n)
	}

	out := make([]domain.RankedProduct, 0, len(merged))
	for _, entry := range merged {
		out = append(out, domain.RankedProduct{
			Product:      entry.product,
			Type:         domain.RecommendationPersonal,
			Score:        entry.score,
			Explanations: entry.explanations,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Product.ID < out[j].Product.ID
	})
	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}

// popularityFallback serves the globally most interacted-with products, or
// featured products when the interaction log is empty.
func (r *HybridRanker) popularityFallback(ctx context.Context, n int) ([]domain.RankedProduct, error) {
	counts, err := r.fallback.MostInteracted(ctx, n)
	if err != nil {
		return nil, fmt.Errorf("fetch popular products: %w", err)
	}
	if len(counts) > 0 {
		ids := make([]int64, len(counts))
		for i, c := range counts {
			ids[i] = c.ProductID
		}
		products, err := r.fallback.ProductsByIDs(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("fetch popular products: %w", err)
		}
		max := counts[0].Count
		for _, c := range counts {
			if c.Count > max {
				max = c.Count
			}
		}
		out := make([]domain.RankedProduct, 0, len(counts))
		for _, c := range counts {
			p, ok := products[c.ProductID]
			if !ok {
				continue
			}
			score := domain.ClampScore(float64(c.Count) / float64(max))
			out = append(out, domain.RankedProduct{
				Product: p,
				Type:    domain.RecommendationPopular,
				Score:   score,
				Explanations: []domain.Explanation{{
					Type:       domain.ExplanationPopular,
					Text:       "Popular across the store",
					Confidence: score,
				}},
			})
		}
		return out, nil
	}

	featured, err := r.fallback.FeaturedProducts(ctx, n)
	if err != nil {
		return nil, fmt.Errorf("fetch featured products: %w", err)
	}
	out := make([]domain.RankedProduct, 0, len(featured))
	for _, p := range featured {
		out = append(out, domain.RankedProduct{
			Product: p,
			Type:    domain.RecommendationPopular,
			Score:   0.5,
			Explanations: []domain.Explanation{{
				Type:       domain.ExplanationPopular,
				Text:       "A featured pick from our catalog",
				Confidence: 0.5,
			}},
		})
	}
	return out, nil
}
