// Package media adapts the Gemini Files API to the MediaStore interface.
// Uploads are client-side; this service only observes processing state
// and deletes artifacts when it is done with them.
package media

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/sessionlens/server/domain/entities"
)

// Every status/delete round trip is individually bounded so a hung
// backend cannot stall the request.
const callTimeout = 15 * time.Second

// GeminiFileStore implements the MediaStore interface using Google's
// Gemini Files API.
type GeminiFileStore struct {
	client *genai.Client
	logger *zap.Logger
}

// NewGeminiFileStore creates a new file store adapter.
func NewGeminiFileStore(client *genai.Client, logger *zap.Logger) *GeminiFileStore {
	return &GeminiFileStore{
		client: client,
		logger: logger,
	}
}

// Status implements MediaStore.
func (s *GeminiFileStore) Status(ctx context.Context, name string) (entities.ArtifactInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	file, err := s.client.Files.Get(ctx, name, nil)
	if err != nil {
		s.logger.Error("File status query failed",
			zap.String("file", name),
			zap.Error(err))
		return entities.ArtifactInfo{}, &entities.UpstreamError{Op: "file status", StatusCode: apiStatusCode(err)}
	}

	return entities.ArtifactInfo{
		Name:     file.Name,
		URI:      file.URI,
		MIMEType: file.MIMEType,
		State:    artifactState(file.State),
	}, nil
}

// Delete implements MediaStore. A file that is already gone counts as a
// successful deletion.
func (s *GeminiFileStore) Delete(ctx context.Context, name string) error {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	if _, err := s.client.Files.Delete(ctx, name, nil); err != nil {
		if apiStatusCode(err) == http.StatusNotFound {
			return nil
		}
		return &entities.UpstreamError{Op: "file delete", StatusCode: apiStatusCode(err)}
	}
	return nil
}

func artifactState(state genai.FileState) entities.ArtifactState {
	switch state {
	case genai.FileStateActive:
		return entities.ArtifactActive
	case genai.FileStateFailed:
		return entities.ArtifactFailed
	default:
		// Unspecified reads as still processing; the poller keeps going
		// until the deadline.
		return entities.ArtifactProcessing
	}
}

func apiStatusCode(err error) int {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return 0
}
