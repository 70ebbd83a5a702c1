package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/sessionlens/server/domain/entities"
	"github.com/sessionlens/server/internal/ratelimit"
	"github.com/sessionlens/server/usecase"
)

func (h *Handler) mediaAnalysis(c echo.Context) error {
	principal := c.Get(principalContextKey).(entities.Principal)

	var req MediaAnalysisRequest
	if err := c.Bind(&req); err != nil {
		h.logger.Warn("Failed to bind media analysis request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}

	out, err := h.service.AnalyzeMedia(c.Request().Context(), principal, usecase.MediaAnalysisInput{
		ArtifactName:   req.GeminiFileName,
		Techniques:     req.Techniques,
		IncludeRatings: req.IncludeRatings,
	})
	if err != nil {
		return h.writeError(c, err)
	}

	return c.JSON(http.StatusOK, toAnalysisResponse(out))
}

func (h *Handler) textAnalysis(c echo.Context) error {
	principal := c.Get(principalContextKey).(entities.Principal)

	var req TextAnalysisRequest
	if err := c.Bind(&req); err != nil {
		h.logger.Warn("Failed to bind text analysis request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}

	out, err := h.service.AnalyzeText(c.Request().Context(), principal, usecase.TextAnalysisInput{
		Transcript:     req.Transcript,
		Techniques:     req.Techniques,
		IncludeRatings: req.IncludeRatings,
		Pauses:         req.PauseSummary,
	})
	if err != nil {
		return h.writeError(c, err)
	}

	return c.JSON(http.StatusOK, toAnalysisResponse(out))
}

func (h *Handler) quota(c echo.Context) error {
	principal := c.Get(principalContextKey).(entities.Principal)

	resource := ratelimit.ResourceMediaAnalysis
	switch c.QueryParam("resource") {
	case "", "media":
	case "text":
		resource = ratelimit.ResourceTextAnalysis
	default:
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "resource must be media or text",
		})
	}

	status, err := h.service.Quota(c.Request().Context(), principal, resource)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, status)
}

func toAnalysisResponse(out *usecase.AnalysisOutput) AnalysisResponse {
	return AnalysisResponse{
		AnalysisResult: *out.Result,
		ModelUsed:      out.Model,
		Usage: UsageInfo{
			InputTokens:  out.Usage.InputTokens,
			OutputTokens: out.Usage.OutputTokens,
		},
	}
}

// writeError maps pipeline errors onto the response contract. Validation
// failures carry precise messages; upstream and unexpected failures are
// logged in detail server-side and collapsed to generic client messages.
func (h *Handler) writeError(c echo.Context, err error) error {
	var limited *entities.RateLimitedError
	var upstream *entities.UpstreamError

	switch {
	case errors.Is(err, entities.ErrInvalidRequest):
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})

	case errors.Is(err, entities.ErrUnauthenticated):
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthenticated",
			Message: "A valid bearer token is required",
		})

	case errors.As(err, &limited):
		return c.JSON(http.StatusTooManyRequests, RateLimitedResponse{
			Error:      "rate_limited",
			Message:    "Hourly analysis limit reached",
			RetryAfter: limited.RetryAfterSeconds,
		})

	case errors.Is(err, entities.ErrProcessingFailed):
		h.logger.Warn("Media processing failed", zap.Error(err))
		return c.JSON(http.StatusBadGateway, ErrorResponse{
			Error:   "processing_failed",
			Message: "The uploaded recording could not be processed",
		})

	case errors.Is(err, entities.ErrProcessingTimedOut):
		h.logger.Warn("Media processing timed out", zap.Error(err))
		return c.JSON(http.StatusBadGateway, ErrorResponse{
			Error:   "processing_timeout",
			Message: "The uploaded recording did not finish processing in time",
		})

	case errors.Is(err, entities.ErrMalformedResponse):
		h.logger.Error("Model output did not normalize", zap.Error(err))
		return c.JSON(http.StatusBadGateway, ErrorResponse{
			Error:   "bad_upstream_response",
			Message: "The analysis backend returned an unusable response",
		})

	case errors.As(err, &upstream):
		h.logger.Error("Upstream call failed",
			zap.String("op", upstream.Op),
			zap.Int("status", upstream.StatusCode),
			zap.Error(err))
		return c.JSON(http.StatusBadGateway, ErrorResponse{
			Error:   "upstream_error",
			Message: "The analysis backend is unavailable",
		})

	default:
		h.logger.Error("Analysis request failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Something went wrong handling the request",
		})
	}
}
