package engine

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/brightcart/recommendation-engine/internal/domain"
)

// stubSource returns a fixed candidate list, or an error.
type stubSource struct {
	name       string
	candidates []Candidate
	err        error
}

func (s stubSource) Name() string { return s.name }

func (s stubSource) Propose(context.Context, int64) ([]Candidate, error) {
	return s.candidates, s.err
}

func candidateFor(id int64, score float64, expType domain.ExplanationType) Candidate {
	return Candidate{
		Product: domain.Product{ID: id},
		Score:   score,
		Explanation: domain.Explanation{
			Type:       expType,
			Text:       string(expType),
			Confidence: score,
		},
	}
}

func TestRankDeduplicatesAcrossSources(t *testing.T) {
	ranker := NewHybridRanker(newFakeStore(),
		weightedSource{stubSource{name: "first", candidates: []Candidate{
			candidateFor(1, 0.5, domain.ExplanationSimilarUsers),
		}}, 1.0},
		weightedSource{stubSource{name: "second", candidates: []Candidate{
			candidateFor(1, 0.9, domain.ExplanationViewHistory),
		}}, 1.0},
	)

	ranked, err := ranker.Rank(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("Rank failed: %v", err)
	}
	if len(ranked) != 1 {
		t.Fatalf("expected one deduplicated entry, got %d", len(ranked))
	}
	rp := ranked[0]
	if rp.Score != 0.9 {
		t.Errorf("higher later score must win, got %f", rp.Score)
	}
	if len(rp.Explanations) != 2 {
		t.Fatalf("expected both explanations attached, got %d", len(rp.Explanations))
	}
	if rp.Explanations[0].Type != domain.ExplanationSimilarUsers {
		t.Errorf("first proposing source must keep the primary explanation, got %s",
			rp.Explanations[0].Type)
	}
}

func TestRankLowerLaterScoreDoesNotDowngrade(t *testing.T) {
	ranker := NewHybridRanker(newFakeStore(),
		weightedSource{stubSource{name: "first", candidates: []Candidate{
			candidateFor(1, 0.9, domain.ExplanationSimilarUsers),
		}}, 1.0},
		weightedSource{stubSource{name: "second", candidates: []Candidate{
			candidateFor(1, 0.4, domain.ExplanationTrending),
		}}, 1.0},
	)

	ranked, err := ranker.Rank(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("Rank failed: %v", err)
	}
	if ranked[0].Score != 0.9 {
		t.Errorf("lower later score must not downgrade, got %f", ranked[0].Score)
	}
}

func TestRankAppliesSourceWeights(t *testing.T) {
	ranker := NewHybridRanker(newFakeStore(),
		weightedSource{stubSource{name: "collab", candidates: []Candidate{
			candidateFor(1, 1, domain.ExplanationSimilarUsers),
		}}, 0.8},
		weightedSource{stubSource{name: "content", candidates: []Candidate{
			candidateFor(2, 1, domain.ExplanationViewHistory),
		}}, 0.6},
	)

	ranked, err := ranker.Rank(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("Rank failed: %v", err)
	}
	if len(ranked) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(ranked))
	}
	if ranked[0].Product.ID != 1 || ranked[0].Score != 0.8 {
		t.Errorf("expected product 1 at 0.8, got %d at %f", ranked[0].Product.ID, ranked[0].Score)
	}
	if ranked[1].Product.ID != 2 || ranked[1].Score != 0.6 {
		t.Errorf("expected product 2 at 0.6, got %d at %f", ranked[1].Product.ID, ranked[1].Score)
	}
}

func TestRankTruncatesToRequestedSize(t *testing.T) {
	var candidates []Candidate
	for id := int64(1); id <= 8; id++ {
		candidates = append(candidates, candidateFor(id, float64(id)/10, domain.ExplanationTrending))
	}
	ranker := NewHybridRanker(newFakeStore(),
		weightedSource{stubSource{name: "trending", candidates: candidates}, 1.0},
	)

	ranked, err := ranker.Rank(context.Background(), 1, 3)
	if err != nil {
		t.Fatalf("Rank failed: %v", err)
	}
	if len(ranked) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(ranked))
	}
	// Highest scores survive the cut.
	for i, want := range []int64{8, 7, 6} {
		if ranked[i].Product.ID != want {
			t.Errorf("position %d: expected product %d, got %d", i, want, ranked[i].Product.ID)
		}
	}
}

func TestFailingSourceDegradesNotErrors(t *testing.T) {
	ranker := NewHybridRanker(newFakeStore(),
		weightedSource{stubSource{name: "broken", err: errors.New("connection refused")}, 1.0},
		weightedSource{stubSource{name: "healthy", candidates: []Candidate{
			candidateFor(1, 0.7, domain.ExplanationTrending),
		}}, 1.0},
	)

	ranked, err := ranker.Rank(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("a failing source must not fail the request: %v", err)
	}
	if len(ranked) != 1 || ranked[0].Product.ID != 1 {
		t.Errorf("healthy source's candidates should survive, got %v", ranked)
	}
}

func TestEmptyMergeFallsBackToMostInteracted(t *testing.T) {
	store := newFakeStore()
	store.products = []domain.Product{
		{ID: 1, Name: "Steady Seller"},
		{ID: 2, Name: "Slow Mover"},
	}
	store.interactions = []domain.Interaction{
		{UserID: 5, ProductID: 1, Type: domain.InteractionView, CreatedAt: testNow},
		{UserID: 6, ProductID: 1, Type: domain.InteractionView, CreatedAt: testNow},
		{UserID: 5, ProductID: 2, Type: domain.InteractionView, CreatedAt: testNow},
	}
	ranker := NewHybridRanker(store, weightedSource{stubSource{name: "empty"}, 1.0})

	ranked, err := ranker.Rank(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("Rank failed: %v", err)
	}
	if len(ranked) != 2 {
		t.Fatalf("expected popularity fallback entries, got %d", len(ranked))
	}
	if ranked[0].Product.ID != 1 || ranked[0].Type != domain.RecommendationPopular {
		t.Errorf("expected most interacted product first as popular, got %+v", ranked[0])
	}
	if ranked[0].Explanations[0].Type != domain.ExplanationPopular {
		t.Errorf("fallback entries carry a popular explanation, got %s",
			ranked[0].Explanations[0].Type)
	}
}

func TestEmptyInteractionLogFallsBackToFeatured(t *testing.T) {
	store := newFakeStore()
	store.products = []domain.Product{
		{ID: 1, Name: "Plain Product"},
		{ID: 2, Name: "Featured Product", Featured: true},
	}
	ranker := NewHybridRanker(store, weightedSource{stubSource{name: "empty"}, 1.0})

	ranked, err := ranker.Rank(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("Rank failed: %v", err)
	}
	if len(ranked) != 1 || ranked[0].Product.ID != 2 {
		t.Fatalf("expected only the featured product, got %v", ranked)
	}
	if ranked[0].Score != 0.5 {
		t.Errorf("featured fallback score should be 0.5, got %f", ranked[0].Score)
	}
}

func TestPersonalizedIsDeterministicAndPersisted(t *testing.T) {
	store := newFakeStore()
	store.products = []domain.Product{
		{ID: 10, Name: "Shared Item"},
		{ID: 20, Name: "Neighbor Pick"},
		{ID: 30, Name: "Another Pick"},
	}
	store.interactions = []domain.Interaction{
		{UserID: 1, ProductID: 10, Type: domain.InteractionPurchase, CreatedAt: testNow},
		{UserID: 2, ProductID: 10, Type: domain.InteractionPurchase, CreatedAt: testNow},
		{UserID: 2, ProductID: 20, Type: domain.InteractionPurchase, CreatedAt: testNow},
		{UserID: 2, ProductID: 30, Type: domain.InteractionCart, CreatedAt: testNow},
	}
	eng := newTestEngine(store)

	first, err := eng.Personalized(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("Personalized failed: %v", err)
	}
	second, err := eng.Personalized(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("Personalized failed: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("identical inputs must produce identical rankings")
	}
	if len(first) == 0 {
		t.Fatal("expected recommendations for a user with neighbors")
	}
	if first[0].Type != domain.RecommendationPersonal {
		t.Errorf("hybrid results are typed personal, got %s", first[0].Type)
	}
	for _, rp := range first {
		if len(rp.Explanations) == 0 {
			t.Errorf("product %d has no explanation", rp.Product.ID)
		}
	}
	if len(store.saved) == 0 {
		t.Error("personalized results should be persisted for analytics")
	}
}

func TestFrequentlyBoughtTogether(t *testing.T) {
	store := newFakeStore()
	store.products = []domain.Product{
		{ID: 1, Name: "Camera Body"},
		{ID: 2, Name: "Lens"},
		{ID: 3, Name: "Unrelated"},
	}
	// Users 1 and 2 bought the camera; both also bought the lens. Product 3
	// was only viewed, so it never qualifies.
	store.interactions = []domain.Interaction{
		{UserID: 1, ProductID: 1, Type: domain.InteractionPurchase, CreatedAt: testNow},
		{UserID: 1, ProductID: 2, Type: domain.InteractionPurchase, CreatedAt: testNow},
		{UserID: 2, ProductID: 1, Type: domain.InteractionPurchase, CreatedAt: testNow},
		{UserID: 2, ProductID: 2, Type: domain.InteractionPurchase, CreatedAt: testNow},
		{UserID: 1, ProductID: 3, Type: domain.InteractionView, CreatedAt: testNow},
	}
	eng := newTestEngine(store)

	out, err := eng.FrequentlyBoughtTogether(context.Background(), 1, 5)
	if err != nil {
		t.Fatalf("FrequentlyBoughtTogether failed: %v", err)
	}
	if len(out) != 1 || out[0].Product.ID != 2 {
		t.Fatalf("expected only the lens, got %v", out)
	}
	if out[0].Score != 1 {
		t.Errorf("top co-purchase normalizes to 1, got %f", out[0].Score)
	}
	if out[0].Explanations[0].Type != domain.ExplanationPurchaseHistory {
		t.Errorf("expected purchase_history explanation, got %s", out[0].Explanations[0].Type)
	}
}

func TestTrendingCountsOnlyRecentWindow(t *testing.T) {
	store := newFakeStore()
	store.products = []domain.Product{
		{ID: 1, Name: "Old News"},
		{ID: 2, Name: "Fresh Hit"},
	}
	stale := testNow.AddDate(0, 0, -30)
	store.interactions = []domain.Interaction{
		{UserID: 1, ProductID: 1, Type: domain.InteractionView, CreatedAt: stale},
		{UserID: 2, ProductID: 1, Type: domain.InteractionView, CreatedAt: stale},
		{UserID: 3, ProductID: 2, Type: domain.InteractionView, CreatedAt: testNow.AddDate(0, 0, -1)},
	}
	eng := newTestEngine(store)

	out, err := eng.Trending(context.Background(), 10)
	if err != nil {
		t.Fatalf("Trending failed: %v", err)
	}
	if len(out) != 1 || out[0].Product.ID != 2 {
		t.Fatalf("only recent interactions count as trending, got %v", out)
	}
	if out[0].Type != domain.RecommendationTrending {
		t.Errorf("expected trending type, got %s", out[0].Type)
	}
}

func TestSeasonalOrdersByWindowPriority(t *testing.T) {
	store := newFakeStore()
	store.products = []domain.Product{
		{ID: 1, Name: "Scarf"},
		{ID: 2, Name: "Gift Set"},
	}
	store.windows = []domain.SeasonalWindow{
		{
			ID: 1, Name: "Winter", Season: domain.SeasonWinter,
			ProductIDs: []int64{1},
			StartDate:  testNow.AddDate(0, 0, -10), EndDate: testNow.AddDate(0, 0, 10),
			Active: true, Priority: 1,
		},
		{
			ID: 2, Name: "Holiday Gifts", Season: domain.SeasonHoliday,
			ProductIDs: []int64{2},
			StartDate:  testNow.AddDate(0, 0, -5), EndDate: testNow.AddDate(0, 0, 5),
			Active: true, Priority: 9,
		},
	}
	eng := newTestEngine(store)

	out, err := eng.Seasonal(context.Background(), 10)
	if err != nil {
		t.Fatalf("Seasonal failed: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 seasonal products, got %d", len(out))
	}
	if out[0].Product.ID != 2 {
		t.Errorf("higher-priority window must come first, got product %d", out[0].Product.ID)
	}
	if out[0].Explanations[0].SupportingData["season"] != string(domain.SeasonHoliday) {
		t.Errorf("explanation should name the window season, got %v",
			out[0].Explanations[0].SupportingData)
	}
}
