package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/brightcart/recommendation-engine/internal/cache"
	"github.com/brightcart/recommendation-engine/internal/domain"
	"github.com/brightcart/recommendation-engine/internal/feature"
)

// Store aggregates the data access the engine needs. The repository package
// implements it against Postgres; tests use in-memory fakes.
type Store interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, productID int64) (*domain.Product, error)
	ProductsByIDs(ctx context.Context, ids []int64) (map[int64]domain.Product, error)
	FeaturedProducts(ctx context.Context, limit int) ([]domain.Product, error)
	MostInteracted(ctx context.Context, limit int) ([]domain.ProductCount, error)

	ListInteractions(ctx context.Context, since time.Time) ([]domain.Interaction, error)
	RecentUserProducts(ctx context.Context, userID int64, limit int) ([]int64, error)
	UserItemWeights(ctx context.Context, userID int64) (map[int64]float64, error)
	NeighborUsers(ctx context.Context, userID int64, limit int) ([]NeighborUser, error)
	SegmentPeers(ctx context.Context, userID int64) ([]int64, error)
	ItemWeightsOfUsers(ctx context.Context, userIDs []int64) (map[int64]float64, error)
	CoPurchased(ctx context.Context, productID int64, limit int) ([]domain.ProductCount, error)
	TrendingProducts(ctx context.Context, since time.Time, limit int) ([]domain.ProductCount, error)

	ActiveSeasonalWindows(ctx context.Context, now time.Time) ([]domain.SeasonalWindow, error)

	UpsertSimilarities(ctx context.Context, pairs []domain.ProductSimilarity) error
	TopSimilar(ctx context.Context, productID int64, k int) ([]domain.SimilarityEntry, error)

	SaveRecommendations(ctx context.Context, recs []domain.Recommendation) error
}

// Options tune the engine; zero values fall back to sane defaults.
type Options struct {
	Cache               *cache.Cache
	FeatureTTL          time.Duration
	CollabTTL           time.Duration
	SimilarityFloor     float64
	SimilarityBatchSize int
	SeasonalBoost       float64
	TrendingWindowDays  int
	Now                 func() time.Time
}

// Engine is the hybrid recommendation engine: feature extraction, similarity
// rebuild and the candidate sources feeding the hybrid ranker.
type Engine struct {
	store     Store
	extractor *feature.Extractor
	ranker    *HybridRanker

	floor      float64
	batchSize  int
	windowDays int
	now        func() time.Time

	featureTTL time.Duration
	mu         sync.Mutex
	fm         *feature.Matrix
	fmBuiltAt  time.Time
}

func New(store Store, opts Options) *Engine {
	if opts.FeatureTTL <= 0 {
		opts.FeatureTTL = time.Hour
	}
	if opts.CollabTTL <= 0 {
		opts.CollabTTL = 30 * time.Minute
	}
	if opts.SimilarityFloor <= 0 {
		opts.SimilarityFloor = 0.01
	}
	if opts.SimilarityBatchSize <= 0 {
		opts.SimilarityBatchSize = 1000
	}
	if opts.TrendingWindowDays <= 0 {
		opts.TrendingWindowDays = 7
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	e := &Engine{
		store:      store,
		extractor:  feature.NewExtractor(),
		floor:      opts.SimilarityFloor,
		batchSize:  opts.SimilarityBatchSize,
		windowDays: opts.TrendingWindowDays,
		now:        opts.Now,
		featureTTL: opts.FeatureTTL,
	}
	e.ranker = NewHybridRanker(store,
		weightedSource{NewCollaborativeSource(store, opts.Cache, opts.CollabTTL, opts.SeasonalBoost, opts.Now), collaborativeWeight},
		weightedSource{NewContentSource(store), contentWeight},
		weightedSource{NewSeasonalSource(store, opts.Now), seasonalWeight},
		weightedSource{NewTrendingSource(store, opts.TrendingWindowDays, opts.Now), trendingWeight},
	)
	return e
}

// SimilarProducts returns the top-k persisted neighbors of a product,
// ordered by descending score then ascending product id. When no pairs have
// been persisted yet (before the first rebuild, or for a product added
// since), it scores the catalog on the fly from the feature matrix. Unknown
// products yield an empty list, not an error.
func (e *Engine) SimilarProducts(ctx context.Context, productID int64, k int) ([]domain.RankedProduct, error) {
	entries, err := e.store.TopSimilar(ctx, productID, k)
	if err != nil {
		return nil, fmt.Errorf("fetch similar products: %w", err)
	}
	if len(entries) == 0 {
		return e.contentSimilar(ctx, productID, k)
	}
	ids := make([]int64, len(entries))
	for i, entry := range entries {
		ids[i] = entry.ProductID
	}
	products, err := e.store.ProductsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("fetch products: %w", err)
	}
	out := make([]domain.RankedProduct, 0, len(entries))
	for _, entry := range entries {
		p, ok := products[entry.ProductID]
		if !ok {
			continue
		}
		out = append(out, domain.RankedProduct{
			Product: p,
			Type:    domain.RecommendationSimilar,
			Score:   domain.ClampScore(entry.Score),
		})
	}
	return out, nil
}

// contentSimilar scores the catalog against one product using the memoized
// feature matrix, with the same content-plus-price blend the rebuild uses.
func (e *Engine) contentSimilar(ctx context.Context, productID int64, k int) ([]domain.RankedProduct, error) {
	base, err := e.store.GetProduct(ctx, productID)
	if errors.Is(err, domain.ErrProductNotFound) {
		return []domain.RankedProduct{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch product %d: %w", productID, err)
	}

	fm, err := e.FeatureMatrix(ctx)
	if err != nil {
		return nil, err
	}
	baseVec, ok := fm.Vector(productID)
	if !ok {
		return []domain.RankedProduct{}, nil
	}

	type scored struct {
		id  int64
		cos float64
	}
	var picks []scored
	for row := 0; row < fm.Len(); row++ {
		id := fm.ProductID(row)
		if id == productID {
			continue
		}
		v, _ := fm.Vector(id)
		if cos := feature.Cosine(baseVec, v); cos > 0 {
			picks = append(picks, scored{id: id, cos: cos})
		}
	}
	if len(picks) == 0 {
		return []domain.RankedProduct{}, nil
	}

	ids := make([]int64, len(picks))
	for i, p := range picks {
		ids[i] = p.id
	}
	products, err := e.store.ProductsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("fetch products: %w", err)
	}

	out := make([]domain.RankedProduct, 0, len(picks))
	for _, pick := range picks {
		p, ok := products[pick.id]
		if !ok {
			continue
		}
		score := domain.ClampScore(contentCosineWeight*pick.cos +
			priceProximityWeight*priceProximity(base.Price, p.Price))
		if score <= e.floor {
			continue
		}
		out = append(out, domain.RankedProduct{
			Product: p,
			Type:    domain.RecommendationSimilar,
			Score:   score,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Product.ID < out[j].Product.ID
	})
	if len(out) > k {
		out = out[:k]
	}
	return out, nil
}

// FrequentlyBoughtTogether returns products co-purchased with the given one,
// scored by co-purchase count normalized to [0,1].
func (e *Engine) FrequentlyBoughtTogether(ctx context.Context, productID int64, k int) ([]domain.RankedProduct, error) {
	counts, err := e.store.CoPurchased(ctx, productID, k)
	if err != nil {
		return nil, fmt.Errorf("fetch co-purchases: %w", err)
	}
	if len(counts) == 0 {
		return []domain.RankedProduct{}, nil
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
	products, err := e.store.ProductsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("fetch products: %w", err)
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
			Type:    domain.RecommendationSimilar,
			Score:   score,
			Explanations: []domain.Explanation{{
				Type:       domain.ExplanationPurchaseHistory,
				Text:       "Frequently bought together",
				Confidence: score,
				SupportingData: map[string]any{
					"co_purchase_count": c.Count,
				},
			}},
		})
	}
	return out, nil
}

// Personalized runs the hybrid ranker for a user and persists the result
// best-effort for analytics.
func (e *Engine) Personalized(ctx context.Context, userID int64, n int) ([]domain.RankedProduct, error) {
	ranked, err := e.ranker.Rank(ctx, userID, n)
	if err != nil {
		return nil, err
	}
	if len(ranked) > 0 {
		recs := make([]domain.Recommendation, 0, len(ranked))
		for _, rp := range ranked {
			rec := domain.Recommendation{
				UserID:       userID,
				ProductID:    rp.Product.ID,
				Type:         rp.Type,
				Score:        rp.Score,
				Explanations: rp.Explanations,
			}
			if len(rp.Explanations) > 0 {
				rec.Explanation = rp.Explanations[0].Text
			}
			recs = append(recs, rec)
		}
		if err := e.store.SaveRecommendations(ctx, recs); err != nil {
			log.Printf("[engine] persist recommendations for user %d: %v", userID, err)
		}
	}
	return ranked, nil
}

// Trending returns the most interacted-with products inside the rolling
// recent window.
func (e *Engine) Trending(ctx context.Context, n int) ([]domain.RankedProduct, error) {
	since := e.now().AddDate(0, 0, -e.windowDays)
	counts, err := e.store.TrendingProducts(ctx, since, n)
	if err != nil {
		return nil, fmt.Errorf("fetch trending products: %w", err)
	}
	candidates, err := trendingCandidates(ctx, e.store, counts)
	if err != nil {
		return nil, err
	}
	out := make([]domain.RankedProduct, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, domain.RankedProduct{
			Product:      c.Product,
			Type:         domain.RecommendationTrending,
			Score:        c.Score,
			Explanations: []domain.Explanation{c.Explanation},
		})
	}
	return out, nil
}

// Seasonal returns products from currently active seasonal windows, ordered
// by window priority then product id.
func (e *Engine) Seasonal(ctx context.Context, n int) ([]domain.RankedProduct, error) {
	source := NewSeasonalSource(e.store, e.now)
	candidates, err := source.Propose(ctx, 0)
	if err != nil {
		return nil, err
	}
	if len(candidates) > n {
		candidates = candidates[:n]
	}
	out := make([]domain.RankedProduct, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, domain.RankedProduct{
			Product:      c.Product,
			Type:         domain.RecommendationPopular,
			Score:        domain.ClampScore(c.Score * seasonalWeight),
			Explanations: []domain.Explanation{c.Explanation},
		})
	}
	return out, nil
}

// FeatureMatrix returns the memoized TF-IDF matrix, rebuilding it from the
// catalog snapshot when stale.
func (e *Engine) FeatureMatrix(ctx context.Context) (*feature.Matrix, error) {
	e.mu.Lock()
	if e.fm != nil && e.now().Sub(e.fmBuiltAt) < e.featureTTL {
		fm := e.fm
		e.mu.Unlock()
		return fm, nil
	}
	e.mu.Unlock()

	products, err := e.store.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch products: %w", err)
	}
	fm := e.extractor.Fit(products)
	e.storeFeatureMatrix(fm)
	return fm, nil
}

func (e *Engine) storeFeatureMatrix(fm *feature.Matrix) {
	e.mu.Lock()
	e.fm = fm
	e.fmBuiltAt = e.now()
	e.mu.Unlock()
}
