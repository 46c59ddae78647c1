package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/brightcart/recommendation-engine/internal/domain"
)

// parseLimit validates an optional ?limit= query parameter.
func parseLimit(r *http.Request, fallback, max int) (int, bool) {
	limitStr := r.URL.Query().Get("limit")
	if limitStr == "" {
		return fallback, true
	}
	parsed, err := strconv.Atoi(limitStr)
	if err != nil || parsed < 1 || parsed > max {
		return 0, false
	}
	return parsed, true
}

func parseIDParam(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return id, err == nil && id > 0
}

// GET /users/{userID}/recommendations
func (h *Handler) GetPersonalizedRecommendations(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseIDParam(r, "userID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_parameter", "Invalid user_id parameter")
		return
	}
	limit, ok := parseLimit(r, 10, 50)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_parameter", "Invalid limit parameter")
		return
	}

	result, err := h.service.PersonalizedRecommendations(r.Context(), userID, limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, RecommendationResponse{
		UserID:          userID,
		Recommendations: result.Recommendations,
		Metadata:        metaFor(result),
	})
}

// GET /recommendations/trending
func (h *Handler) GetTrending(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(r, 10, 50)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_parameter", "Invalid limit parameter")
		return
	}
	result, err := h.service.Trending(r.Context(), limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, RecommendationResponse{
		Recommendations: result.Recommendations,
		Metadata:        metaFor(result),
	})
}

// GET /recommendations/seasonal
func (h *Handler) GetSeasonal(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(r, 10, 50)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_parameter", "Invalid limit parameter")
		return
	}
	result, err := h.service.Seasonal(r.Context(), limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, RecommendationResponse{
		Recommendations: result.Recommendations,
		Metadata:        metaFor(result),
	})
}

func metaFor(result *domain.RecommendationResult) domain.RecommendationMeta {
	return domain.RecommendationMeta{
		CacheHit:    result.CacheHit,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		TotalCount:  len(result.Recommendations),
	}
}

func handleServiceError(w http.ResponseWriter, err error) {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		writeError(w, http.StatusServiceUnavailable, "request_timeout",
			"Request timed out, please try again")
		return
	}
	writeError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
}
