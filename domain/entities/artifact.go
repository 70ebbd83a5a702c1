package entities

import (
	"fmt"
	"regexp"
)

// ArtifactState is the processing state of a media file previously
// uploaded to the generation backend. Active and Failed are terminal.
type ArtifactState string

const (
	ArtifactProcessing ArtifactState = "PROCESSING"
	ArtifactActive     ArtifactState = "ACTIVE"
	ArtifactFailed     ArtifactState = "FAILED"
)

// ArtifactInfo describes an uploaded artifact as reported by the backend.
type ArtifactInfo struct {
	Name     string
	URI      string
	MIMEType string
	State    ArtifactState
}

// Artifact handles are opaque, but the segment after the fixed prefix is
// restricted so the handle cannot smuggle path or query syntax into
// downstream request URLs.
var artifactNamePattern = regexp.MustCompile(`^files/[A-Za-z0-9_-]+$`)

// ValidateArtifactName rejects handles that do not match the allow-listed
// "files/<segment>" pattern.
func ValidateArtifactName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: file name is required", ErrInvalidRequest)
	}
	if !artifactNamePattern.MatchString(name) {
		return fmt.Errorf("%w: file name must match files/<id>", ErrInvalidRequest)
	}
	return nil
}
