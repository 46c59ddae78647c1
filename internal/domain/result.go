package domain

// RecommendationResult is one computed (or cache-served) ranked list.
type RecommendationResult struct {
	Recommendations []RankedProduct
	CacheHit        bool
}

type RecommendationMeta struct {
	CacheHit    bool   `json:"cache_hit"`
	GeneratedAt string `json:"generated_at"`
	TotalCount  int    `json:"total_count"`
}

// RebuildResult summarizes one run of the similarity batch job.
type RebuildResult struct {
	JobID          string `json:"job_id"`
	PairsPersisted int    `json:"pairs_persisted"`
	ElapsedMs      int64  `json:"elapsed_ms"`
}

const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

type BatchUserResult struct {
	UserID          int64           `json:"user_id"`
	Recommendations []RankedProduct `json:"recommendations,omitempty"`
	Status          string          `json:"status"`
	Error           string          `json:"error,omitempty"`
	Message         string          `json:"message,omitempty"`
}

type BatchSummary struct {
	SuccessCount     int   `json:"success_count"`
	FailedCount      int   `json:"failed_count"`
	ProcessingTimeMs int64 `json:"processing_time_ms"`
}

type BatchMeta struct {
	GeneratedAt string `json:"generated_at"`
}

type BatchResponse struct {
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
	TotalUsers int               `json:"total_users"`
	Results    []BatchUserResult `json:"results"`
	Summary    BatchSummary      `json:"summary"`
	Metadata   BatchMeta         `json:"metadata"`
}
