package engine

import (
	"context"
	"sort"
	"time"

	"github.com/brightcart/recommendation-engine/internal/domain"
)

// fakeStore is an in-memory Store with the same ordering semantics as the
// SQL repository.
type fakeStore struct {
	products     []domain.Product
	interactions []domain.Interaction
	windows      []domain.SeasonalWindow
	memberships  map[int64][]int64 // segment id -> user ids
	pairs        map[[2]int64]float64
	saved        []domain.Recommendation
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		memberships: make(map[int64][]int64),
		pairs:       make(map[[2]int64]float64),
	}
}

func (f *fakeStore) ListProducts(_ context.Context) ([]domain.Product, error) {
	out := append([]domain.Product(nil), f.products...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) GetProduct(_ context.Context, productID int64) (*domain.Product, error) {
	for _, p := range f.products {
		if p.ID == productID {
			return &p, nil
		}
	}
	return nil, domain.ErrProductNotFound
}

func (f *fakeStore) ProductsByIDs(_ context.Context, ids []int64) (map[int64]domain.Product, error) {
	out := make(map[int64]domain.Product)
	for _, p := range f.products {
		for _, id := range ids {
			if p.ID == id {
				out[p.ID] = p
			}
		}
	}
	return out, nil
}

func (f *fakeStore) FeaturedProducts(_ context.Context, limit int) ([]domain.Product, error) {
	var out []domain.Product
	for _, p := range f.products {
		if p.Featured {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) MostInteracted(_ context.Context, limit int) ([]domain.ProductCount, error) {
	counts := make(map[int64]int64)
	for _, in := range f.interactions {
		counts[in.ProductID]++
	}
	return sortedCounts(counts, limit), nil
}

func (f *fakeStore) ListInteractions(_ context.Context, since time.Time) ([]domain.Interaction, error) {
	var out []domain.Interaction
	for _, in := range f.interactions {
		if !in.CreatedAt.Before(since) {
			out = append(out, in)
		}
	}
	return out, nil
}

func (f *fakeStore) RecentUserProducts(_ context.Context, userID int64, limit int) ([]int64, error) {
	latest := make(map[int64]time.Time)
	for _, in := range f.interactions {
		if in.UserID != userID {
			continue
		}
		if in.CreatedAt.After(latest[in.ProductID]) {
			latest[in.ProductID] = in.CreatedAt
		}
	}
	ids := make([]int64, 0, len(latest))
	for id := range latest {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if !latest[ids[i]].Equal(latest[ids[j]]) {
			return latest[ids[i]].After(latest[ids[j]])
		}
		return ids[i] < ids[j]
	})
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func (f *fakeStore) UserItemWeights(_ context.Context, userID int64) (map[int64]float64, error) {
	out := make(map[int64]float64)
	for _, in := range f.interactions {
		if in.UserID == userID {
			out[in.ProductID] += in.Type.Weight()
		}
	}
	return out, nil
}

func (f *fakeStore) NeighborUsers(_ context.Context, userID int64, limit int) ([]NeighborUser, error) {
	own := make(map[int64]struct{})
	for _, in := range f.interactions {
		if in.UserID == userID {
			own[in.ProductID] = struct{}{}
		}
	}
	strength := make(map[int64]float64)
	for _, in := range f.interactions {
		if in.UserID == userID {
			continue
		}
		if _, shared := own[in.ProductID]; shared {
			strength[in.UserID] += in.Type.Weight()
		}
	}
	ids := make([]int64, 0, len(strength))
	for id := range strength {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if strength[ids[i]] != strength[ids[j]] {
			return strength[ids[i]] > strength[ids[j]]
		}
		return ids[i] < ids[j]
	})
	if len(ids) > limit {
		ids = ids[:limit]
	}
	out := make([]NeighborUser, len(ids))
	for i, id := range ids {
		out[i] = NeighborUser{UserID: id, Strength: strength[id]}
	}
	return out, nil
}

func (f *fakeStore) SegmentPeers(_ context.Context, userID int64) ([]int64, error) {
	peers := make(map[int64]struct{})
	for _, users := range f.memberships {
		member := false
		for _, u := range users {
			if u == userID {
				member = true
				break
			}
		}
		if !member {
			continue
		}
		for _, u := range users {
			if u != userID {
				peers[u] = struct{}{}
			}
		}
	}
	out := make([]int64, 0, len(peers))
	for id := range peers {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (f *fakeStore) ItemWeightsOfUsers(_ context.Context, userIDs []int64) (map[int64]float64, error) {
	set := make(map[int64]struct{}, len(userIDs))
	for _, id := range userIDs {
		set[id] = struct{}{}
	}
	out := make(map[int64]float64)
	for _, in := range f.interactions {
		if _, ok := set[in.UserID]; ok {
			out[in.ProductID] += in.Type.Weight()
		}
	}
	return out, nil
}

func (f *fakeStore) CoPurchased(_ context.Context, productID int64, limit int) ([]domain.ProductCount, error) {
	buyers := make(map[int64]struct{})
	for _, in := range f.interactions {
		if in.ProductID == productID && in.Type == domain.InteractionPurchase {
			buyers[in.UserID] = struct{}{}
		}
	}
	counts := make(map[int64]int64)
	for _, in := range f.interactions {
		if in.ProductID == productID || in.Type != domain.InteractionPurchase {
			continue
		}
		if _, ok := buyers[in.UserID]; ok {
			counts[in.ProductID]++
		}
	}
	return sortedCounts(counts, limit), nil
}

func (f *fakeStore) TrendingProducts(_ context.Context, since time.Time, limit int) ([]domain.ProductCount, error) {
	counts := make(map[int64]int64)
	for _, in := range f.interactions {
		if !in.CreatedAt.Before(since) {
			counts[in.ProductID]++
		}
	}
	return sortedCounts(counts, limit), nil
}

func (f *fakeStore) ActiveSeasonalWindows(_ context.Context, now time.Time) ([]domain.SeasonalWindow, error) {
	var out []domain.SeasonalWindow
	for _, w := range f.windows {
		if w.Contains(now) {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (f *fakeStore) UpsertSimilarities(_ context.Context, pairs []domain.ProductSimilarity) error {
	for _, p := range pairs {
		a, b := p.ProductAID, p.ProductBID
		if a > b {
			a, b = b, a
		}
		key := [2]int64{a, b}
		if _, exists := f.pairs[key]; exists {
			continue
		}
		f.pairs[key] = domain.ClampScore(p.Score)
	}
	return nil
}

func (f *fakeStore) TopSimilar(_ context.Context, productID int64, k int) ([]domain.SimilarityEntry, error) {
	var out []domain.SimilarityEntry
	for key, score := range f.pairs {
		switch productID {
		case key[0]:
			out = append(out, domain.SimilarityEntry{ProductID: key[1], Score: score})
		case key[1]:
			out = append(out, domain.SimilarityEntry{ProductID: key[0], Score: score})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ProductID < out[j].ProductID
	})
	if len(out) > k {
		out = out[:k]
	}
	return out, nil
}

func (f *fakeStore) SaveRecommendations(_ context.Context, recs []domain.Recommendation) error {
	f.saved = append(f.saved, recs...)
	return nil
}

func sortedCounts(counts map[int64]int64, limit int) []domain.ProductCount {
	out := make([]domain.ProductCount, 0, len(counts))
	for id, c := range counts {
		out = append(out, domain.ProductCount{ProductID: id, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].ProductID < out[j].ProductID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
