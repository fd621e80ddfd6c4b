package domain

import (
	"encoding/json"
	"errors"
	"time"
)

// Artifact is one uploaded facts document from a scanner. A project usually
// has one artifact per source (backend repo scan, frontend repo scan) and
// consistency checks run over the merged latest artifact of every source.
type Artifact struct {
	ID         string          `json:"id"`
	ProjectID  string          `json:"project_id"`
	Source     string          `json:"source"`
	Kind       string          `json:"kind"`
	Payload    json.RawMessage `json:"payload"`
	UploadedAt time.Time       `json:"uploaded_at"`
}

// KindFacts is the only artifact kind today. The field exists so scanners
// can ship other document types later without a wire change.
const KindFacts = "facts"

var (
	ErrArtifactNotFound = errors.New("artifact not found")
	ErrNoArtifacts      = errors.New("no artifacts for project")
	ErrInvalidArtifact  = errors.New("invalid artifact")
)
