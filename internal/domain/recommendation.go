package domain

import "time"

type RecommendationType string

const (
	RecommendationPersonal RecommendationType = "personal"
	RecommendationSimilar  RecommendationType = "similar"
	RecommendationTrending RecommendationType = "trending"
	RecommendationPopular  RecommendationType = "popular"
)

type ExplanationType string

const (
	ExplanationSimilarUsers    ExplanationType = "similar_users"
	ExplanationPurchaseHistory ExplanationType = "purchase_history"
	ExplanationViewHistory     ExplanationType = "view_history"
	ExplanationTrending        ExplanationType = "trending"
	ExplanationPopular         ExplanationType = "popular"
	ExplanationPersonalized    ExplanationType = "personalized"
	ExplanationSegment         ExplanationType = "segment"
)

// Explanation records why a product was recommended.
type Explanation struct {
	Type           ExplanationType `json:"type"`
	Text           string          `json:"text"`
	Confidence     float64         `json:"confidence"`
	SupportingData map[string]any  `json:"supporting_data,omitempty"`
}

// Recommendation is the persisted form of one ranked result.
type Recommendation struct {
	ID           int64              `json:"id"`
	UserID       int64              `json:"user_id"`
	ProductID    int64              `json:"product_id"`
	Type         RecommendationType `json:"type"`
	Score        float64            `json:"score"`
	Explanation  string             `json:"explanation"`
	CreatedAt    time.Time          `json:"created_at"`
	Explanations []Explanation      `json:"explanations,omitempty"`
}

// RankedProduct is the shape served to the storefront: a product with its
// score, recommendation type and attached explanations.
type RankedProduct struct {
	Product      Product            `json:"product"`
	Type         RecommendationType `json:"type"`
	Score        float64            `json:"score"`
	Explanations []Explanation      `json:"explanations,omitempty"`
}
