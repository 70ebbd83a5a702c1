package llm

import (
	"context"

	"github.com/sessionlens/server/domain/repositories"
)

// MockGeminiModel is a canned implementation of GenerationModel for tests
// and for running the server without an API key.
type MockGeminiModel struct {
	// Completion overrides the canned response text when set.
	Completion string
	// Err is returned from every call when set.
	Err error

	// Calls records every request for assertions.
	Calls []repositories.GenerationRequest
}

// NewMockGeminiModel creates a new mock generation model.
func NewMockGeminiModel() *MockGeminiModel {
	return &MockGeminiModel{}
}

const mockCompletion = "```json\n" + `{
  "overall_summary": "A focused session with strong questioning.",
  "strengths": ["Clear directions", "Even participation"],
  "growth_areas": ["Longer pauses after questions"],
  "actionable_next_steps": ["Count three seconds before calling on anyone"],
  "technique_evaluations": [
    {
      "technique_id": "cold-call",
      "was_observed": true,
      "evidence": ["Called on three students who had not volunteered"],
      "feedback": "Cold calling kept the room attentive.",
      "suggestions": ["Mix in a warm call for newer students"]
    }
  ]
}` + "\n```"

// GenerateAnalysis implements repositories.GenerationModel.
func (m *MockGeminiModel) GenerateAnalysis(ctx context.Context, req repositories.GenerationRequest) (*repositories.RawCompletion, error) {
	m.Calls = append(m.Calls, req)
	if m.Err != nil {
		return nil, m.Err
	}

	text := m.Completion
	if text == "" {
		text = mockCompletion
	}
	return &repositories.RawCompletion{
		Text:  text,
		Model: "mock-gemini",
		Usage: repositories.TokenUsage{InputTokens: 1200, OutputTokens: 300},
	}, nil
}
