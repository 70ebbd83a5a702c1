package api

import (
	"github.com/sessionlens/server/domain/entities"
)

// MediaAnalysisRequest is the media-path request body. The artifact must
// have been uploaded to the processing backend by the client beforehand.
type MediaAnalysisRequest struct {
	GeminiFileName string                         `json:"geminiFileName"`
	Techniques     []entities.TechniqueDefinition `json:"techniques"`
	IncludeRatings bool                           `json:"includeRatings"`
}

// TextAnalysisRequest is the text-path request body.
type TextAnalysisRequest struct {
	Transcript     string                         `json:"transcript"`
	Techniques     []entities.TechniqueDefinition `json:"techniques"`
	IncludeRatings bool                           `json:"includeRatings"`
	PauseSummary   *entities.PauseSummary         `json:"pauseSummary,omitempty"`
}

// UsageInfo is pass-through token accounting for observability.
type UsageInfo struct {
	InputTokens  int32 `json:"input_tokens"`
	OutputTokens int32 `json:"output_tokens"`
}

// AnalysisResponse is the stable success contract for both paths.
type AnalysisResponse struct {
	entities.AnalysisResult
	ModelUsed string    `json:"model_used"`
	Usage     UsageInfo `json:"usage"`
}

// ErrorResponse is the generic error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// RateLimitedResponse adds the seconds until the quota window resets.
type RateLimitedResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retry_after"`
}
