package repositories

import "context"

// MediaInput references a ready artifact on the generation backend.
type MediaInput struct {
	URI      string
	MIMEType string
}

// GenerationRequest is one synchronous generation call: the assembled
// prompt plus, for the media path, a reference to the processed artifact.
type GenerationRequest struct {
	Prompt string
	Media  *MediaInput
}

// TokenUsage is passed through to callers for observability only.
type TokenUsage struct {
	InputTokens  int32
	OutputTokens int32
}

// RawCompletion is the first candidate completion, untouched.
type RawCompletion struct {
	Text  string
	Model string
	Usage TokenUsage
}

// GenerationModel abstracts the text/media generation backend.
type GenerationModel interface {
	GenerateAnalysis(ctx context.Context, req GenerationRequest) (*RawCompletion, error)
}
