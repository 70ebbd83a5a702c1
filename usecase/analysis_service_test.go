package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sessionlens/server/adapters"
	"github.com/sessionlens/server/adapters/llm"
	"github.com/sessionlens/server/adapters/media"
	"github.com/sessionlens/server/domain/entities"
	"github.com/sessionlens/server/internal/ratelimit"
)

type serviceFixture struct {
	service *AnalysisService
	model   *llm.MockGeminiModel
	files   *media.MockFileStore
	store   *adapters.MemoryCounterStore
}

func newFixture(t *testing.T, config AnalysisConfig) *serviceFixture {
	t.Helper()

	model := llm.NewMockGeminiModel()
	files := media.NewMockFileStore()
	store := adapters.NewMemoryCounterStore()
	accountant := ratelimit.NewAccountant(store, zap.NewNop())

	service := NewAnalysisService(model, files, accountant, zap.NewNop(), config)
	service.poller.interval = time.Millisecond
	service.poller.deadline = 50 * time.Millisecond

	return &serviceFixture{service: service, model: model, files: files, store: store}
}

func testPrincipal() entities.Principal {
	return entities.Principal{UserID: "user-1", Email: "coach@school.edu"}
}

func validMediaInput() MediaAnalysisInput {
	return MediaAnalysisInput{
		ArtifactName: "files/abc123",
		Techniques: []entities.TechniqueDefinition{
			{ID: "cold-call", Name: "Cold Call", Description: "Call without volunteers."},
		},
	}
}

func TestAnalyzeMediaHappyPath(t *testing.T) {
	f := newFixture(t, AnalysisConfig{})
	ctx := context.Background()

	out, err := f.service.AnalyzeMedia(ctx, testPrincipal(), validMediaInput())
	require.NoError(t, err)
	require.NotNil(t, out.Result)

	assert.Equal(t, "mock-gemini", out.Model)
	assert.NotEmpty(t, out.Result.OverallSummary)
	assert.Equal(t, int32(1200), out.Usage.InputTokens)

	// Generation saw the artifact reference plus the assembled prompt.
	require.Len(t, f.model.Calls, 1)
	require.NotNil(t, f.model.Calls[0].Media)
	assert.Contains(t, f.model.Calls[0].Media.URI, "files/abc123")
	assert.Contains(t, f.model.Calls[0].Prompt, "Technique ID: cold-call")

	// Quota committed and the artifact cleaned up.
	count, err := f.store.Get(ctx, "ratelimit:media_analysis:user-1:"+time.Now().UTC().Format("2006-01-02T15"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, []string{"files/abc123"}, f.files.Deleted)
}

func TestAnalyzeMediaInvalidHandleRejectedBeforeNetwork(t *testing.T) {
	f := newFixture(t, AnalysisConfig{})

	tests := []string{
		"",
		"abc123",
		"files/",
		"files/abc/../secret",
		"files/abc?x=1",
		"uploads/abc123",
	}
	for _, name := range tests {
		in := validMediaInput()
		in.ArtifactName = name

		_, err := f.service.AnalyzeMedia(context.Background(), testPrincipal(), in)
		assert.ErrorIs(t, err, entities.ErrInvalidRequest, "handle %q", name)
	}

	assert.Zero(t, f.files.StatusCalls, "no status query may happen for invalid handles")
	assert.Empty(t, f.model.Calls)
	assert.Empty(t, f.files.Deleted)
}

func TestAnalyzeMediaTooManyTechniques(t *testing.T) {
	f := newFixture(t, AnalysisConfig{})

	in := validMediaInput()
	in.Techniques = nil
	for i := 0; i < entities.MaxTechniques+1; i++ {
		in.Techniques = append(in.Techniques, entities.TechniqueDefinition{ID: "t", Name: "T"})
	}

	_, err := f.service.AnalyzeMedia(context.Background(), testPrincipal(), in)
	assert.ErrorIs(t, err, entities.ErrInvalidRequest)
	assert.Zero(t, f.files.StatusCalls)
	assert.Empty(t, f.model.Calls)
}

func TestAnalyzeMediaRateLimited(t *testing.T) {
	f := newFixture(t, AnalysisConfig{MediaHourlyLimit: 5})
	ctx := context.Background()

	// 5 prior successes this hour.
	for i := 0; i < 5; i++ {
		_, err := f.service.AnalyzeMedia(ctx, testPrincipal(), validMediaInput())
		require.NoError(t, err)
	}
	statusCalls := f.files.StatusCalls

	_, err := f.service.AnalyzeMedia(ctx, testPrincipal(), validMediaInput())
	var limited *entities.RateLimitedError
	require.ErrorAs(t, err, &limited)
	assert.GreaterOrEqual(t, limited.RetryAfterSeconds, 0)
	assert.Less(t, limited.RetryAfterSeconds, 3600)

	// Denial is terminal: no downstream calls.
	assert.Equal(t, statusCalls, f.files.StatusCalls)
	assert.Len(t, f.model.Calls, 5)
}

func TestAnalyzeMediaTimeoutStillCleansUp(t *testing.T) {
	f := newFixture(t, AnalysisConfig{})
	f.files.States = []entities.ArtifactState{entities.ArtifactProcessing}

	_, err := f.service.AnalyzeMedia(context.Background(), testPrincipal(), validMediaInput())
	assert.ErrorIs(t, err, entities.ErrProcessingTimedOut)

	// Deletion is still issued, quota is not consumed, generation never ran.
	assert.Equal(t, []string{"files/abc123"}, f.files.Deleted)
	assert.Empty(t, f.model.Calls)
	assertNoQuotaConsumed(t, f)
}

func TestAnalyzeMediaProcessingFailedCleansUp(t *testing.T) {
	f := newFixture(t, AnalysisConfig{})
	f.files.States = []entities.ArtifactState{entities.ArtifactFailed}

	_, err := f.service.AnalyzeMedia(context.Background(), testPrincipal(), validMediaInput())
	assert.ErrorIs(t, err, entities.ErrProcessingFailed)
	assert.Equal(t, []string{"files/abc123"}, f.files.Deleted)
	assertNoQuotaConsumed(t, f)
}

func TestAnalyzeMediaGenerationFailureIsFreeToRetry(t *testing.T) {
	f := newFixture(t, AnalysisConfig{})
	f.model.Err = &entities.UpstreamError{Op: "generation", StatusCode: 500}

	_, err := f.service.AnalyzeMedia(context.Background(), testPrincipal(), validMediaInput())
	var upstream *entities.UpstreamError
	assert.ErrorAs(t, err, &upstream)
	assert.Equal(t, []string{"files/abc123"}, f.files.Deleted)
	assertNoQuotaConsumed(t, f)
}

func TestAnalyzeMediaMalformedCompletion(t *testing.T) {
	f := newFixture(t, AnalysisConfig{})
	f.model.Completion = "Sorry, I cannot help with that."

	_, err := f.service.AnalyzeMedia(context.Background(), testPrincipal(), validMediaInput())
	assert.ErrorIs(t, err, entities.ErrMalformedResponse)
	assert.Equal(t, []string{"files/abc123"}, f.files.Deleted)
	assertNoQuotaConsumed(t, f)
}

func TestAnalyzeMediaCleanupFailureDoesNotEscalate(t *testing.T) {
	f := newFixture(t, AnalysisConfig{})
	f.files.DeleteErr = &entities.UpstreamError{Op: "file delete", StatusCode: 500}

	out, err := f.service.AnalyzeMedia(context.Background(), testPrincipal(), validMediaInput())
	require.NoError(t, err, "cleanup failure must not alter the success response")
	assert.NotNil(t, out.Result)
	assert.Equal(t, []string{"files/abc123"}, f.files.Deleted)
}

func TestAnalyzeText(t *testing.T) {
	f := newFixture(t, AnalysisConfig{})
	ctx := context.Background()

	out, err := f.service.AnalyzeText(ctx, testPrincipal(), TextAnalysisInput{
		Transcript: "T: What do we know about fractions?",
		Techniques: []entities.TechniqueDefinition{
			{ID: "wait-time", Name: "Wait Time", Description: "Pause after questions."},
		},
		Pauses: &entities.PauseSummary{TotalPauses: 2, AverageDurationSec: 4.0, LongestDurationSec: 6.0},
	})
	require.NoError(t, err)
	assert.NotNil(t, out.Result)

	require.Len(t, f.model.Calls, 1)
	assert.Nil(t, f.model.Calls[0].Media, "text path carries no media reference")
	assert.Contains(t, f.model.Calls[0].Prompt, "Measured pause data")
	assert.Contains(t, f.model.Calls[0].Prompt, "What do we know about fractions?")

	// Text quota is independent of media quota.
	status, err := f.service.Quota(ctx, testPrincipal(), ratelimit.ResourceTextAnalysis)
	require.NoError(t, err)
	assert.Equal(t, 1, status.Used)

	mediaStatus, err := f.service.Quota(ctx, testPrincipal(), ratelimit.ResourceMediaAnalysis)
	require.NoError(t, err)
	assert.Equal(t, 0, mediaStatus.Used)
}

func TestAnalyzeTextEmptyTranscript(t *testing.T) {
	f := newFixture(t, AnalysisConfig{})

	_, err := f.service.AnalyzeText(context.Background(), testPrincipal(), TextAnalysisInput{
		Techniques: []entities.TechniqueDefinition{{ID: "cold-call"}},
	})
	assert.ErrorIs(t, err, entities.ErrInvalidRequest)
	assert.Empty(t, f.model.Calls)
}

func TestQuotaStatusReflectsLimits(t *testing.T) {
	f := newFixture(t, AnalysisConfig{MediaHourlyLimit: 3, TextHourlyLimit: 7})

	status, err := f.service.Quota(context.Background(), testPrincipal(), ratelimit.ResourceMediaAnalysis)
	require.NoError(t, err)
	assert.Equal(t, 3, status.Limit)
	assert.Equal(t, 3, status.Remaining)
	assert.Less(t, status.ResetsInSeconds, 3600)

	status, err = f.service.Quota(context.Background(), testPrincipal(), ratelimit.ResourceTextAnalysis)
	require.NoError(t, err)
	assert.Equal(t, 7, status.Limit)
}

func assertNoQuotaConsumed(t *testing.T, f *serviceFixture) {
	t.Helper()
	status, err := f.service.Quota(context.Background(), testPrincipal(), ratelimit.ResourceMediaAnalysis)
	require.NoError(t, err)
	assert.Zero(t, status.Used, "failed requests must not consume quota")
}

func TestCancellationStillCleansUp(t *testing.T) {
	f := newFixture(t, AnalysisConfig{})
	f.files.States = []entities.ArtifactState{entities.ArtifactProcessing}
	f.service.poller.interval = 50 * time.Millisecond
	f.service.poller.deadline = time.Minute

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := f.service.AnalyzeMedia(ctx, testPrincipal(), validMediaInput())
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.True(t, errors.Is(err, context.Canceled))
	case <-time.After(time.Second):
		t.Fatal("Request did not unwind on cancellation")
	}

	assert.Equal(t, []string{"files/abc123"}, f.files.Deleted, "cleanup must still run after cancellation")
}
