package engine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/brightcart/recommendation-engine/internal/domain"
)

// trendingCandidateLimit bounds how many trending products feed the hybrid
// ranker.
const trendingCandidateLimit = 20

type SeasonalStore interface {
	ActiveSeasonalWindows(ctx context.Context, now time.Time) ([]domain.SeasonalWindow, error)
	ProductsByIDs(ctx context.Context, ids []int64) (map[int64]domain.Product, error)
}

// SeasonalSource proposes products from currently active seasonal windows,
// higher-priority windows first, then by product id.
type SeasonalSource struct {
	store SeasonalStore
	now   func() time.Time
}

func NewSeasonalSource(store SeasonalStore, now func() time.Time) *SeasonalSource {
	if now == nil {
		now = time.Now
	}
	return &SeasonalSource{store: store, now: now}
}

func (s *SeasonalSource) Name() string { return "seasonal" }

func (s *SeasonalSource) Propose(ctx context.Context, _ int64) ([]Candidate, error) {
	windows, err := s.store.ActiveSeasonalWindows(ctx, s.now())
	if err != nil {
		return nil, fmt.Errorf("fetch seasonal windows: %w", err)
	}
	if len(windows) == 0 {
		return nil, nil
	}
	sort.Slice(windows, func(i, j int) bool {
		if windows[i].Priority != windows[j].Priority {
			return windows[i].Priority > windows[j].Priority
		}
		return windows[i].ID < windows[j].ID
	})

	var ids []int64
	seen := make(map[int64]struct{})
	explain := make(map[int64]domain.SeasonalWindow)
	for _, w := range windows {
		wids := append([]int64(nil), w.ProductIDs...)
		sort.Slice(wids, func(i, j int) bool { return wids[i] < wids[j] })
		for _, id := range wids {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
			explain[id] = w
		}
	}
	products, err := s.store.ProductsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("fetch seasonal products: %w", err)
	}

	out := make([]Candidate, 0, len(ids))
	for _, id := range ids {
		p, ok := products[id]
		if !ok {
			continue
		}
		w := explain[id]
		out = append(out, Candidate{
			Product: p,
			Score:   1,
			Explanation: domain.Explanation{
				Type:       domain.ExplanationPersonalized,
				Text:       fmt.Sprintf("Perfect for the current %s season", w.Season),
				Confidence: 1,
				SupportingData: map[string]any{
					"season": string(w.Season),
					"window": w.Name,
				},
			},
		})
	}
	return out, nil
}

type TrendingStore interface {
	TrendingProducts(ctx context.Context, since time.Time, limit int) ([]domain.ProductCount, error)
	ProductsByIDs(ctx context.Context, ids []int64) (map[int64]domain.Product, error)
}

// TrendingSource proposes products with interaction activity inside a rolling
// recent window, scored by interaction count normalized to [0,1].
type TrendingSource struct {
	store      TrendingStore
	windowDays int
	limit      int
	now        func() time.Time
}

func NewTrendingSource(store TrendingStore, windowDays int, now func() time.Time) *TrendingSource {
	if windowDays <= 0 {
		windowDays = 7
	}
	if now == nil {
		now = time.Now
	}
	return &TrendingSource{store: store, windowDays: windowDays, limit: trendingCandidateLimit, now: now}
}

func (s *TrendingSource) Name() string { return "trending" }

func (s *TrendingSource) Propose(ctx context.Context, _ int64) ([]Candidate, error) {
	since := s.now().AddDate(0, 0, -s.windowDays)
	counts, err := s.store.TrendingProducts(ctx, since, s.limit)
	if err != nil {
		return nil, fmt.Errorf("fetch trending products: %w", err)
	}
	return trendingCandidates(ctx, s.store, counts)
}

// trendingCandidates converts raw interaction counts into normalized
// candidates, keeping the count order.
func trendingCandidates(ctx context.Context, store TrendingStore, counts []domain.ProductCount) ([]Candidate, error) {
	if len(counts) == 0 {
		return nil, nil
	}
	max := counts[0].Count
	for _, c := range counts {
		if c.Count > max {
			max = c.Count
		}
	}
	ids := make([]int64, len(counts))
	for i, c := range counts {
		ids[i] = c.ProductID
	}
	products, err := store.ProductsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("fetch products: %w", err)
	}
	out := make([]Candidate, 0, len(counts))
	for _, c := range counts {
		p, ok := products[c.ProductID]
		if !ok {
			continue
		}
		score := domain.ClampScore(float64(c.Count) / float64(max))
		out = append(out, Candidate{
			Product: p,
			Score:   score,
			Explanation: domain.Explanation{
				Type:       domain.ExplanationTrending,
				Text:       "Trending with shoppers right now",
				Confidence: score,
				SupportingData: map[string]any{
					"interaction_count": c.Count,
				},
			},
		})
	}
	return out, nil
}
