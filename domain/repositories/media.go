package repositories

import (
	"context"

	"github.com/sessionlens/server/domain/entities"
)

// MediaStore abstracts the asynchronous file-processing backend. Uploads
// happen client-side; this service only queries status and deletes.
type MediaStore interface {
	// Status returns the current processing state of an uploaded artifact.
	Status(ctx context.Context, name string) (entities.ArtifactInfo, error)
	// Delete removes an uploaded artifact. Deleting an artifact that no
	// longer exists is treated as success.
	Delete(ctx context.Context, name string) error
}
