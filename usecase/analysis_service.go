package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sessionlens/server/domain/entities"
	"github.com/sessionlens/server/domain/repositories"
	"github.com/sessionlens/server/internal/prompt"
	"github.com/sessionlens/server/internal/ratelimit"
)

// requestStage names the steps of the per-request state machine, used as
// a structured log field so a failed request shows where it died.
type requestStage string

const (
	stageRateChecking      requestStage = "rate_checking"
	stageAwaitingReadiness requestStage = "awaiting_readiness"
	stageGenerating        requestStage = "generating"
	stageNormalizing       requestStage = "normalizing"
	stageCommitting        requestStage = "committing"
	stageCleanup           requestStage = "cleanup"
)

// Cleanup must still run when the caller has disconnected, so it gets its
// own bounded context detached from the request's cancellation.
const cleanupTimeout = 30 * time.Second

// AnalysisConfig carries the per-resource hourly ceilings.
type AnalysisConfig struct {
	MediaHourlyLimit int
	TextHourlyLimit  int
}

// MediaAnalysisInput is one media-path analysis request, post-auth.
type MediaAnalysisInput struct {
	ArtifactName   string
	Techniques     []entities.TechniqueDefinition
	IncludeRatings bool
}

// TextAnalysisInput is one text-path analysis request, post-auth.
type TextAnalysisInput struct {
	Transcript     string
	Techniques     []entities.TechniqueDefinition
	IncludeRatings bool
	Pauses         *entities.PauseSummary
}

// AnalysisOutput pairs the normalized result with pass-through
// observability data from the generation backend.
type AnalysisOutput struct {
	Result *entities.AnalysisResult
	Model  string
	Usage  repositories.TokenUsage
}

// AnalysisService orchestrates one analysis request end to end: rate
// check, structural validation, artifact readiness (media path),
// generation, normalization, quota commit, and best-effort cleanup.
type AnalysisService struct {
	model      repositories.GenerationModel
	media      repositories.MediaStore
	poller     *ReadinessPoller
	accountant *ratelimit.Accountant
	logger     *zap.Logger
	config     AnalysisConfig
}

// NewAnalysisService wires the orchestrator.
func NewAnalysisService(
	model repositories.GenerationModel,
	media repositories.MediaStore,
	accountant *ratelimit.Accountant,
	logger *zap.Logger,
	config AnalysisConfig,
) *AnalysisService {
	if config.MediaHourlyLimit <= 0 {
		config.MediaHourlyLimit = 10
	}
	if config.TextHourlyLimit <= 0 {
		config.TextHourlyLimit = 20
	}
	return &AnalysisService{
		model:      model,
		media:      media,
		poller:     NewReadinessPoller(media, logger),
		accountant: accountant,
		logger:     logger,
		config:     config,
	}
}

// AnalyzeMedia runs the media-path pipeline. The artifact is deleted
// best-effort on every exit path after validation, success or failure.
func (s *AnalysisService) AnalyzeMedia(ctx context.Context, principal entities.Principal, in MediaAnalysisInput) (*AnalysisOutput, error) {
	log := s.requestLogger(principal, "media")

	if _, err := s.checkQuota(ctx, log, principal, ratelimit.ResourceMediaAnalysis, s.config.MediaHourlyLimit); err != nil {
		return nil, err
	}

	// Structural preconditions before any downstream call.
	if err := entities.ValidateArtifactName(in.ArtifactName); err != nil {
		return nil, err
	}
	if err := entities.ValidateTechniques(in.Techniques); err != nil {
		return nil, err
	}

	log.Info("Awaiting artifact readiness",
		zap.String("stage", string(stageAwaitingReadiness)),
		zap.String("file", in.ArtifactName))

	info, err := s.poller.AwaitReady(ctx, in.ArtifactName)
	if err != nil {
		// Readiness failures short-circuit straight to cleanup.
		s.cleanupArtifact(log, in.ArtifactName)
		return nil, err
	}

	promptText := prompt.BuildMediaAnalysisPrompt(in.Techniques, in.IncludeRatings)
	out, err := s.generateAndNormalize(ctx, log, repositories.GenerationRequest{
		Prompt: promptText,
		Media:  &repositories.MediaInput{URI: info.URI, MIMEType: info.MIMEType},
	})
	if err != nil {
		s.cleanupArtifact(log, in.ArtifactName)
		return nil, err
	}

	s.commitQuota(ctx, log, principal, ratelimit.ResourceMediaAnalysis)
	s.cleanupArtifact(log, in.ArtifactName)
	return out, nil
}

// AnalyzeText runs the text-path pipeline. Same contract as the media
// path minus readiness and cleanup.
func (s *AnalysisService) AnalyzeText(ctx context.Context, principal entities.Principal, in TextAnalysisInput) (*AnalysisOutput, error) {
	log := s.requestLogger(principal, "text")

	if _, err := s.checkQuota(ctx, log, principal, ratelimit.ResourceTextAnalysis, s.config.TextHourlyLimit); err != nil {
		return nil, err
	}

	if in.Transcript == "" {
		return nil, fmt.Errorf("%w: transcript is required", entities.ErrInvalidRequest)
	}
	if err := entities.ValidateTechniques(in.Techniques); err != nil {
		return nil, err
	}

	promptText := prompt.BuildTextAnalysisPrompt(in.Transcript, in.Techniques, in.IncludeRatings, in.Pauses)
	out, err := s.generateAndNormalize(ctx, log, repositories.GenerationRequest{Prompt: promptText})
	if err != nil {
		return nil, err
	}

	s.commitQuota(ctx, log, principal, ratelimit.ResourceTextAnalysis)
	return out, nil
}

// Quota reports the caller's current window for one resource class.
func (s *AnalysisService) Quota(ctx context.Context, principal entities.Principal, resource ratelimit.Resource) (ratelimit.QuotaStatus, error) {
	limit := s.config.TextHourlyLimit
	if resource == ratelimit.ResourceMediaAnalysis {
		limit = s.config.MediaHourlyLimit
	}
	return s.accountant.Status(ctx, principal.UserID, resource, limit)
}

func (s *AnalysisService) checkQuota(ctx context.Context, log *zap.Logger, principal entities.Principal, resource ratelimit.Resource, limit int) (ratelimit.Decision, error) {
	log.Debug("Checking quota", zap.String("stage", string(stageRateChecking)))

	decision, err := s.accountant.CheckAndReserve(ctx, principal.UserID, resource, limit)
	if err != nil {
		log.Error("Rate check failed", zap.String("stage", string(stageRateChecking)), zap.Error(err))
		return ratelimit.Decision{}, err
	}
	if !decision.Allowed {
		return ratelimit.Decision{}, &entities.RateLimitedError{RetryAfterSeconds: decision.RetryAfterSeconds}
	}
	return decision, nil
}

// generateAndNormalize is the shared tail of both paths: one generation
// call, then structural normalization of the completion.
func (s *AnalysisService) generateAndNormalize(ctx context.Context, log *zap.Logger, req repositories.GenerationRequest) (*AnalysisOutput, error) {
	log.Info("Generating analysis",
		zap.String("stage", string(stageGenerating)),
		zap.Int("prompt_length", len(req.Prompt)))

	completion, err := s.model.GenerateAnalysis(ctx, req)
	if err != nil {
		log.Error("Generation failed", zap.String("stage", string(stageGenerating)), zap.Error(err))
		return nil, err
	}

	result, err := NormalizeAnalysis(completion.Text)
	if err != nil {
		// Only diagnostic metadata; the completion itself may carry
		// sensitive evaluation content.
		log.Error("Completion did not normalize",
			zap.String("stage", string(stageNormalizing)),
			zap.Int("completion_length", len(completion.Text)),
			zap.Error(err))
		return nil, err
	}

	return &AnalysisOutput{
		Result: result,
		Model:  completion.Model,
		Usage:  completion.Usage,
	}, nil
}

// commitQuota records the consumed request. By this point the caller is
// getting a successful response, so a bookkeeping failure is logged and
// swallowed rather than turning a success into an error.
func (s *AnalysisService) commitQuota(ctx context.Context, log *zap.Logger, principal entities.Principal, resource ratelimit.Resource) {
	if err := s.accountant.Commit(ctx, principal.UserID, resource); err != nil {
		log.Warn("Quota commit failed", zap.String("stage", string(stageCommitting)), zap.Error(err))
	}
}

// cleanupArtifact deletes the uploaded artifact best-effort. It runs on a
// detached context so it still happens when the request was cancelled,
// and its failure is never escalated.
func (s *AnalysisService) cleanupArtifact(log *zap.Logger, name string) {
	ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
	defer cancel()

	log.Debug("Cleaning up artifact", zap.String("stage", string(stageCleanup)), zap.String("file", name))
	if err := s.media.Delete(ctx, name); err != nil {
		log.Warn("Artifact cleanup failed",
			zap.String("stage", string(stageCleanup)),
			zap.String("file", name),
			zap.Error(err))
	}
}

// requestLogger tags all log lines for one request with a correlation id.
func (s *AnalysisService) requestLogger(principal entities.Principal, path string) *zap.Logger {
	return s.logger.With(
		zap.String("request_id", uuid.New().String()),
		zap.String("user_id", principal.UserID),
		zap.String("path", path))
}
