package llm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/sessionlens/server/domain/entities"
	"github.com/sessionlens/server/domain/repositories"
)

const (
	defaultModel = "gemini-2.0-flash"

	// Generation parameters are fixed: deterministic-leaning output and a
	// bounded response size keep cost and latency predictable.
	generationTemperature = 0.2
	maxOutputTokens       = 4096
	generateTimeout       = 120 * time.Second
)

// NewGeminiClient creates the shared Gemini API client from environment
// configuration.
func NewGeminiClient(ctx context.Context) (*genai.Client, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return client, nil
}

// GeminiModel implements the GenerationModel interface using Google's
// Gemini API.
type GeminiModel struct {
	client *genai.Client
	logger *zap.Logger
	model  string
}

// NewGeminiModel creates a new Gemini generation adapter.
func NewGeminiModel(client *genai.Client, logger *zap.Logger) *GeminiModel {
	return &GeminiModel{
		client: client,
		logger: logger,
		model:  defaultModel,
	}
}

// GenerateAnalysis issues one synchronous generation call. For the media
// path the content carries the artifact reference ahead of the prompt
// text; only the first candidate is used.
func (g *GeminiModel) GenerateAnalysis(ctx context.Context, req repositories.GenerationRequest) (*repositories.RawCompletion, error) {
	var parts []*genai.Part
	if req.Media != nil {
		parts = append(parts, genai.NewPartFromURI(req.Media.URI, req.Media.MIMEType))
	}
	parts = append(parts, genai.NewPartFromText(req.Prompt))

	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(generationTemperature)),
		MaxOutputTokens: int32(maxOutputTokens),
	}

	ctx, cancel := context.WithTimeout(ctx, generateTimeout)
	defer cancel()

	response, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		g.logger.Error("Generation request failed",
			zap.String("model", g.model),
			zap.Bool("media", req.Media != nil),
			zap.Error(err))
		return nil, &entities.UpstreamError{Op: "generation", StatusCode: apiStatusCode(err)}
	}

	if len(response.Candidates) == 0 || response.Candidates[0].Content == nil {
		g.logger.Warn("Generation returned no candidates", zap.String("model", g.model))
		return nil, fmt.Errorf("%w: no candidates returned", entities.ErrMalformedResponse)
	}

	// Extract text from the first candidate only.
	var text string
	for _, part := range response.Candidates[0].Content.Parts {
		if part.Text != "" {
			text += part.Text
		}
	}
	if text == "" {
		g.logger.Warn("Generation returned an empty completion", zap.String("model", g.model))
		return nil, fmt.Errorf("%w: empty completion", entities.ErrMalformedResponse)
	}

	completion := &repositories.RawCompletion{
		Text:  text,
		Model: g.model,
	}
	if response.UsageMetadata != nil {
		completion.Usage = repositories.TokenUsage{
			InputTokens:  response.UsageMetadata.PromptTokenCount,
			OutputTokens: response.UsageMetadata.CandidatesTokenCount,
		}
	}

	g.logger.Info("Generation completed",
		zap.String("model", g.model),
		zap.Int("completion_length", len(text)),
		zap.Int32("input_tokens", completion.Usage.InputTokens),
		zap.Int32("output_tokens", completion.Usage.OutputTokens))

	return completion, nil
}

// apiStatusCode pulls the HTTP status out of a Gemini API error, 0 when
// the failure never reached the API.
func apiStatusCode(err error) int {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return 0
}
