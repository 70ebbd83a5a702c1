package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/sessionlens/server/internal/auth"
	"github.com/sessionlens/server/usecase"
)

const principalContextKey = "principal"

// Handler carries the wired dependencies for all routes.
type Handler struct {
	service  *usecase.AnalysisService
	verifier *auth.Verifier
	logger   *zap.Logger
}

// NewHandler creates the API handler.
func NewHandler(service *usecase.AnalysisService, verifier *auth.Verifier, logger *zap.Logger) *Handler {
	return &Handler{
		service:  service,
		verifier: verifier,
		logger:   logger,
	}
}

// InitRoutes initializes all API routes
func InitRoutes(e *echo.Echo, h *Handler) {
	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "sessionlens-server",
		})
	})

	// API v1 routes, all authenticated
	v1 := e.Group("/api/v1", h.requireAuth)

	v1.POST("/analysis/media", h.mediaAnalysis)
	v1.POST("/analysis/text", h.textAnalysis)
	v1.GET("/analysis/quota", h.quota)
}

// requireAuth extracts the bearer token from the Authorization header,
// verifies it, and stashes the principal on the request context.
func (h *Handler) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		var token string
		authHeader := c.Request().Header.Get("Authorization")
		if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
			token = authHeader[7:]
		}

		principal, err := h.verifier.Verify(token)
		if err != nil {
			h.logger.Warn("Request rejected: authentication failed", zap.Error(err))
			return c.JSON(http.StatusUnauthorized, ErrorResponse{
				Error:   "unauthenticated",
				Message: "A valid bearer token is required",
			})
		}

		c.Set(principalContextKey, principal)
		return next(c)
	}
}
