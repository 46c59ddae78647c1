package engine

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/brightcart/recommendation-engine/internal/cache"
	"github.com/brightcart/recommendation-engine/internal/domain"
)

const defaultTopNeighbors = 10

// NeighborUser is another user ranked by the strength of their interaction
// overlap with the target user.
type NeighborUser struct {
	UserID   int64
	Strength float64
}

// CollaborativeStore is the data access the collaborative source needs.
type CollaborativeStore interface {
	UserItemWeights(ctx context.Context, userID int64) (map[int64]float64, error)
	NeighborUsers(ctx context.Context, userID int64, limit int) ([]NeighborUser, error)
	SegmentPeers(ctx context.Context, userID int64) ([]int64, error)
	ItemWeightsOfUsers(ctx context.Context, userIDs []int64) (map[int64]float64, error)
	ProductsByIDs(ctx context.Context, ids []int64) (map[int64]domain.Product, error)
	ActiveSeasonalWindows(ctx context.Context, now time.Time) ([]domain.SeasonalWindow, error)
}

// CollaborativeSource proposes products from users with overlapping
// interaction history or shared segment membership, scored by weighted
// co-occurrence. Candidates inside a currently active seasonal window get a
// configurable multiplier.
type CollaborativeSource struct {
	store        CollaborativeStore
	cache        *cache.Cache
	cacheTTL     time.Duration
	boost        float64
	topNeighbors int
	now          func() time.Time
}

func NewCollaborativeSource(store CollaborativeStore, c *cache.Cache, ttl time.Duration, boost float64, now func() time.Time) *CollaborativeSource {
	if boost <= 0 {
		boost = 1.5
	}
	if now == nil {
		now = time.Now
	}
	return &CollaborativeSource{
		store:        store,
		cache:        c,
		cacheTTL:     ttl,
		boost:        boost,
		topNeighbors: defaultTopNeighbors,
		now:          now,
	}
}

func (s *CollaborativeSource) Name() string { return "collaborative" }

func (s *CollaborativeSource) Propose(ctx context.Context, userID int64) ([]Candidate, error) {
	key := cache.CollabKey(userID)
	var cached []Candidate
	if found, err := s.cache.Get(ctx, key, &cached); err != nil {
		log.Printf("[collaborative] cache get error for user %d: %v", userID, err)
	} else if found {
		return cached, nil
	}

	candidates, err := s.propose(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, candidates, s.cacheTTL); err != nil {
		log.Printf("[collaborative] cache set error for user %d: %v", userID, err)
	}
	return candidates, nil
}

func (s *CollaborativeSource) propose(ctx context.Context, userID int64) ([]Candidate, error) {
	own, err := s.store.UserItemWeights(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("fetch user items: %w", err)
	}
	peers, err := s.store.SegmentPeers(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("fetch segment peers: %w", err)
	}

	// Cold start: nothing to overlap on, the caller falls back to other
	// sources.
	if len(own) == 0 && len(peers) == 0 {
		return nil, nil
	}

	strength := make(map[int64]float64)
	if len(own) > 0 {
		neighbors, err := s.store.NeighborUsers(ctx, userID, s.topNeighbors*5)
		if err != nil {
			return nil, fmt.Errorf("fetch neighbor users: %w", err)
		}
		for _, n := range neighbors {
			strength[n.UserID] += n.Strength
		}
	}
	for _, peer := range peers {
		if peer != userID {
			strength[peer]++
		}
	}
	if len(strength) == 0 {
		return nil, nil
	}

	neighborIDs := make([]int64, 0, len(strength))
	for id := range strength {
		neighborIDs = append(neighborIDs, id)
	}
	sort.Slice(neighborIDs, func(i, j int) bool {
		if strength[neighborIDs[i]] != strength[neighborIDs[j]] {
			return strength[neighborIDs[i]] > strength[neighborIDs[j]]
		}
		return neighborIDs[i] < neighborIDs[j]
	})
	if len(neighborIDs) > s.topNeighbors {
		neighborIDs = neighborIDs[:s.topNeighbors]
	}

	items, err := s.store.ItemWeightsOfUsers(ctx, neighborIDs)
	if err != nil {
		return nil, fmt.Errorf("fetch neighbor items: %w", err)
	}
	for id := range own {
		delete(items, id)
	}
	if len(items) == 0 {
		return nil, nil
	}

	seasonal, err := s.activeSeasonalSet(ctx)
	if err != nil {
		log.Printf("[collaborative] seasonal lookup failed, skipping boost: %v", err)
		seasonal = nil
	}

	var max float64
	for _, w := range items {
		if w > max {
			max = w
		}
	}

	ids := make([]int64, 0, len(items))
	for id := range items {
		ids = append(ids, id)
	}
	products, err := s.store.ProductsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("fetch candidate products: %w", err)
	}

	expType := domain.ExplanationSimilarUsers
	expText := "Based on products that similar users have enjoyed"
	if len(own) == 0 {
		expType = domain.ExplanationSegment
		expText = "Popular with shoppers in your segment"
	}

	candidates := make([]Candidate, 0, len(items))
	for id, w := range items {
		p, ok := products[id]
		if !ok {
			continue
		}
		score := w / max
		if _, inSeason := seasonal[id]; inSeason {
			score *= s.boost
		}
		score = domain.ClampScore(score)
		candidates = append(candidates, Candidate{
			Product: p,
			Score:   score,
			Explanation: domain.Explanation{
				Type:       expType,
				Text:       expText,
				Confidence: score,
				SupportingData: map[string]any{
					"neighbor_count": len(neighborIDs),
				},
			},
		})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Product.ID < candidates[j].Product.ID
	})
	return candidates, nil
}

func (s *CollaborativeSource) activeSeasonalSet(ctx context.Context) (map[int64]struct{}, error) {
	windows, err := s.store.ActiveSeasonalWindows(ctx, s.now())
	if err != nil {
		return nil, err
	}
	set := make(map[int64]struct{})
	for _, w := range windows {
		for _, id := range w.ProductIDs {
			set[id] = struct{}{}
		}
	}
	return set, nil
}
