package handler

import (
	"net/http"
)

// GET /products/{productID}/similar
func (h *Handler) GetSimilarProducts(w http.ResponseWriter, r *http.Request) {
	productID, ok := parseIDParam(r, "productID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_parameter", "Invalid product_id parameter")
		return
	}
	limit, ok := parseLimit(r, 10, 50)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_parameter", "Invalid limit parameter")
		return
	}

	result, err := h.service.SimilarProducts(r.Context(), productID, limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, RecommendationResponse{
		ProductID:       productID,
		Recommendations: result.Recommendations,
		Metadata:        metaFor(result),
	})
}

// GET /products/{productID}/frequently-bought-together
func (h *Handler) GetFrequentlyBoughtTogether(w http.ResponseWriter, r *http.Request) {
	productID, ok := parseIDParam(r, "productID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_parameter", "Invalid product_id parameter")
		return
	}
	limit, ok := parseLimit(r, 10, 50)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_parameter", "Invalid limit parameter")
		return
	}

	result, err := h.service.FrequentlyBoughtTogether(r.Context(), productID, limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, RecommendationResponse{
		ProductID:       productID,
		Recommendations: result.Recommendations,
		Metadata:        metaFor(result),
	})
}
