package media

import (
	"context"
	"sync"

	"github.com/sessionlens/server/domain/entities"
)

// MockFileStore is an in-memory MediaStore for tests and keyless dev
// runs. Status answers follow the configured state sequence, then repeat
// the last entry.
type MockFileStore struct {
	mu sync.Mutex

	// States is consumed one entry per Status call. Empty means
	// immediately Active.
	States []entities.ArtifactState
	// StatusErr, when set, fails every Status call.
	StatusErr error
	// DeleteErr, when set, fails every Delete call.
	DeleteErr error

	StatusCalls int
	Deleted     []string
}

// NewMockFileStore creates a store whose artifacts are already active.
func NewMockFileStore() *MockFileStore {
	return &MockFileStore{}
}

// Status implements MediaStore.
func (m *MockFileStore) Status(ctx context.Context, name string) (entities.ArtifactInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.StatusCalls++
	if m.StatusErr != nil {
		return entities.ArtifactInfo{}, m.StatusErr
	}

	state := entities.ArtifactActive
	if len(m.States) > 0 {
		idx := m.StatusCalls - 1
		if idx >= len(m.States) {
			idx = len(m.States) - 1
		}
		state = m.States[idx]
	}

	return entities.ArtifactInfo{
		Name:     name,
		URI:      "https://generativelanguage.googleapis.com/v1beta/" + name,
		MIMEType: "video/mp4",
		State:    state,
	}, nil
}

// Delete implements MediaStore.
func (m *MockFileStore) Delete(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Deleted = append(m.Deleted, name)
	return m.DeleteErr
}
