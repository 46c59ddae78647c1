package handler

import "github.com/brightcart/recommendation-engine/internal/domain"

type RecommendationResponse struct {
	UserID          int64                     `json:"user_id,omitempty"`
	ProductID       int64                     `json:"product_id,omitempty"`
	Recommendations []domain.RankedProduct    `json:"recommendations"`
	Metadata        domain.RecommendationMeta `json:"metadata"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
