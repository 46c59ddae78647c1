package service

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/brightcart/recommendation-engine/internal/cache"
	"github.com/brightcart/recommendation-engine/internal/config"
	"github.com/brightcart/recommendation-engine/internal/domain"
	"github.com/brightcart/recommendation-engine/internal/engine"
)

const (
	defaultLimit     = 10
	maxLimit         = 50
	batchConcurrency = 10
	batchRecLimit    = 10
)

// UserLister pages through known users for the batch endpoint.
type UserLister interface {
	DistinctUserIDs(ctx context.Context, page, limit int) ([]int64, error)
	CountDistinctUsers(ctx context.Context) (int, error)
}

// Service wraps the engine with the result cache and request-level policy
// (limit clamping, degraded-mode logging).
type Service struct {
	engine *engine.Engine
	cache  *cache.Cache
	users  UserLister
	cfg    *config.Config
}

func New(eng *engine.Engine, c *cache.Cache, users UserLister, cfg *config.Config) *Service {
	return &Service{engine: eng, cache: c, users: users, cfg: cfg}
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}

// cached wraps one expensive read in a cache tier. Cache failures log and
// degrade to a recompute; results are identical either way.
func (s *Service) cached(ctx context.Context, key string, ttl time.Duration, compute func() ([]domain.RankedProduct, error)) (*domain.RecommendationResult, error) {
	var hit []domain.RankedProduct
	found, err := s.cache.Get(ctx, key, &hit)
	if err != nil {
		log.Printf("[service] cache get error for %s: %v", key, err)
	}
	if found {
		return &domain.RecommendationResult{Recommendations: hit, CacheHit: true}, nil
	}

	recs, err := compute()
	if err != nil {
		return nil, err
	}
	if cacheErr := s.cache.Set(ctx, key, recs, ttl); cacheErr != nil {
		log.Printf("[service] cache set error for %s: %v", key, cacheErr)
	}
	return &domain.RecommendationResult{Recommendations: recs, CacheHit: false}, nil
}

// SimilarProducts returns the persisted top-k neighbors for a product.
func (s *Service) SimilarProducts(ctx context.Context, productID int64, k int) (*domain.RecommendationResult, error) {
	k = clampLimit(k)
	return s.cached(ctx, cache.SimilarKey(productID, k), s.cfg.SimilarTTL, func() ([]domain.RankedProduct, error) {
		return s.engine.SimilarProducts(ctx, productID, k)
	})
}

// FrequentlyBoughtTogether returns co-purchase companions for a product.
func (s *Service) FrequentlyBoughtTogether(ctx context.Context, productID int64, k int) (*domain.RecommendationResult, error) {
	k = clampLimit(k)
	return s.cached(ctx, cache.BoughtTogetherKey(productID, k), s.cfg.SimilarTTL, func() ([]domain.RankedProduct, error) {
		return s.engine.FrequentlyBoughtTogether(ctx, productID, k)
	})
}

// PersonalizedRecommendations returns the hybrid ranked list for a user.
func (s *Service) PersonalizedRecommendations(ctx context.Context, userID int64, n int) (*domain.RecommendationResult, error) {
	n = clampLimit(n)
	return s.cached(ctx, cache.UserRecsKey(userID, n), s.cfg.PersonalTTL, func() ([]domain.RankedProduct, error) {
		return s.engine.Personalized(ctx, userID, n)
	})
}

// Trending returns recently active products.
func (s *Service) Trending(ctx context.Context, n int) (*domain.RecommendationResult, error) {
	n = clampLimit(n)
	return s.cached(ctx, cache.TrendingKey(n), s.cfg.TrendingTTL, func() ([]domain.RankedProduct, error) {
		return s.engine.Trending(ctx, n)
	})
}

// Seasonal returns products from currently active seasonal windows.
func (s *Service) Seasonal(ctx context.Context, n int) (*domain.RecommendationResult, error) {
	n = clampLimit(n)
	return s.cached(ctx, cache.SeasonalKey(n), s.cfg.TrendingTTL, func() ([]domain.RankedProduct, error) {
		return s.engine.Seasonal(ctx, n)
	})
}

// RebuildSimilarities runs the batch similarity job and reports the run.
func (s *Service) RebuildSimilarities(ctx context.Context) (*domain.RebuildResult, error) {
	jobID := uuid.NewString()
	start := time.Now()
	log.Printf("[service] similarity rebuild %s started", jobID)

	pairs, err := s.engine.RebuildSimilarities(ctx)
	if err != nil {
		log.Printf("[service] similarity rebuild %s failed: %v", jobID, err)
		return nil, err
	}

	return &domain.RebuildResult{
		JobID:          jobID,
		PairsPersisted: pairs,
		ElapsedMs:      time.Since(start).Milliseconds(),
	}, nil
}

// GetBatchRecommendations precomputes personalized lists for a page of users
// with a bounded worker pool.
func (s *Service) GetBatchRecommendations(ctx context.Context, page, limit int) (*domain.BatchResponse, error) {
	start := time.Now()

	userIDs, err := s.users.DistinctUserIDs(ctx, page, limit)
	if err != nil {
		return nil, err
	}
	totalUsers, err := s.users.CountDistinctUsers(ctx)
	if err != nil {
		return nil, err
	}

	// Per-user computation shares no mutable state, so users fan out across
	// a bounded worker pool.
	results := make([]domain.BatchUserResult, len(userIDs))
	var wg sync.WaitGroup
	sem := make(chan struct{}, batchConcurrency)

	for i, userID := range userIDs {
		wg.Add(1)
		go func(idx int, uid int64) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			results[idx] = s.processUserForBatch(ctx, uid)
		}(i, userID)
	}
	wg.Wait()

	successCount := 0
	failedCount := 0
	for _, r := range results {
		if r.Status == domain.StatusSuccess {
			successCount++
		} else {
			failedCount++
		}
	}

	return &domain.BatchResponse{
		Page:       page,
		Limit:      limit,
		TotalUsers: totalUsers,
		Results:    results,
		Summary: domain.BatchSummary{
			SuccessCount:     successCount,
			FailedCount:      failedCount,
			ProcessingTimeMs: time.Since(start).Milliseconds(),
		},
		Metadata: domain.BatchMeta{
			GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		},
	}, nil
}

func (s *Service) processUserForBatch(ctx context.Context, userID int64) domain.BatchUserResult {
	result, err := s.PersonalizedRecommendations(ctx, userID, batchRecLimit)
	if err != nil {
		log.Printf("[service] batch: failed for user %d: %v", userID, err)
		return domain.BatchUserResult{
			UserID:  userID,
			Status:  domain.StatusFailed,
			Error:   "internal_error",
			Message: "failed to generate recommendations",
		}
	}
	return domain.BatchUserResult{
		UserID:          userID,
		Recommendations: result.Recommendations,
		Status:          domain.StatusSuccess,
	}
}
