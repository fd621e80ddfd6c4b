package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/routelens/routelens-backend/internal/artifact_exchange/domain"
)

const (
	artifactKeyPrefix = "cx:artifact:" // Artifact data: cx:artifact:{artifact_id}
	projectSetPrefix  = "cx:project:"  // Set of artifact IDs: cx:project:{project_id}:artifacts
	sourceSetSuffix   = ":sources"     // Set of source names: cx:project:{project_id}:sources
	latestKeyPrefix   = "cx:latest:"   // Latest artifact per source: cx:latest:{project_id}:{source} -> artifact_id
	uploadChannel     = "cx:uploads"   // Pub/Sub channel announcing new artifacts
	artifactTTL       = 7 * 24 * time.Hour
)

// ArtifactRepository handles Redis operations for scanner artifacts.
type ArtifactRepository struct {
	client *redis.Client
	ctx    context.Context
}

func NewArtifactRepository(client *redis.Client) *ArtifactRepository {
	return &ArtifactRepository{
		client: client,
		ctx:    context.Background(),
	}
}

// Create stores an artifact and marks it as the latest for its source.
func (r *ArtifactRepository) Create(artifact *domain.Artifact) error {
	if artifact.ID == "" {
		artifact.ID = uuid.New().String()
	}
	if artifact.UploadedAt.IsZero() {
		artifact.UploadedAt = time.Now()
	}
	if artifact.Kind == "" {
		artifact.Kind = domain.KindFacts
	}

	data, err := json.Marshal(artifact)
	if err != nil {
		return fmt.Errorf("failed to marshal artifact: %w", err)
	}

	artifactKey := r.artifactKey(artifact.ID)
	projectSetKey := r.projectSetKey(artifact.ProjectID)
	sourceSetKey := r.sourceSetKey(artifact.ProjectID)
	latestKey := r.latestKey(artifact.ProjectID, artifact.Source)

	// Use pipeline for atomic operations
	pipe := r.client.Pipeline()
	pipe.Set(r.ctx, artifactKey, data, artifactTTL)
	pipe.SAdd(r.ctx, projectSetKey, artifact.ID)
	pipe.Expire(r.ctx, projectSetKey, artifactTTL)
	pipe.SAdd(r.ctx, sourceSetKey, artifact.Source)
	pipe.Expire(r.ctx, sourceSetKey, artifactTTL)
	pipe.Set(r.ctx, latestKey, artifact.ID, artifactTTL)

	if _, err := pipe.Exec(r.ctx); err != nil {
		return fmt.Errorf("failed to store artifact: %w", err)
	}

	// Announce the upload so workers can trigger rechecks
	event, err := json.Marshal(map[string]string{
		"artifact_id": artifact.ID,
		"project_id":  artifact.ProjectID,
		"source":      artifact.Source,
	})
	if err == nil {
		r.client.Publish(r.ctx, uploadChannel, event)
	}

	return nil
}

// GetByID retrieves an artifact by its ID.
func (r *ArtifactRepository) GetByID(artifactID string) (*domain.Artifact, error) {
	data, err := r.client.Get(r.ctx, r.artifactKey(artifactID)).Result()
	if err == redis.Nil {
		return nil, domain.ErrArtifactNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get artifact: %w", err)
	}

	var artifact domain.Artifact
	if err := json.Unmarshal([]byte(data), &artifact); err != nil {
		return nil, fmt.Errorf("failed to unmarshal artifact: %w", err)
	}

	return &artifact, nil
}

// LatestBySource retrieves the newest artifact a source uploaded for a project.
func (r *ArtifactRepository) LatestBySource(projectID, source string) (*domain.Artifact, error) {
	artifactID, err := r.client.Get(r.ctx, r.latestKey(projectID, source)).Result()
	if err == redis.Nil {
		return nil, domain.ErrArtifactNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve latest artifact: %w", err)
	}

	return r.GetByID(artifactID)
}

// Sources lists the source names that have uploaded artifacts for a project,
// sorted so callers iterate them in a stable order.
func (r *ArtifactRepository) Sources(projectID string) ([]string, error) {
	sources, err := r.client.SMembers(r.ctx, r.sourceSetKey(projectID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}
	sort.Strings(sources)
	return sources, nil
}

// LatestAll returns the latest artifact of every source for a project, in
// source name order. Sources whose latest artifact already expired are
// skipped.
func (r *ArtifactRepository) LatestAll(projectID string) ([]*domain.Artifact, error) {
	sources, err := r.Sources(projectID)
	if err != nil {
		return nil, err
	}
	if len(sources) == 0 {
		return nil, domain.ErrNoArtifacts
	}

	out := make([]*domain.Artifact, 0, len(sources))
	for _, source := range sources {
		artifact, err := r.LatestBySource(projectID, source)
		if err == domain.ErrArtifactNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, artifact)
	}
	if len(out) == 0 {
		return nil, domain.ErrNoArtifacts
	}
	return out, nil
}

// ListIDs lists all artifact IDs stored for a project, sorted.
func (r *ArtifactRepository) ListIDs(projectID string) ([]string, error) {
	ids, err := r.client.SMembers(r.ctx, r.projectSetKey(projectID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}
	sort.Strings(ids)
	return ids, nil
}

// Delete removes an artifact and its index entries.
func (r *ArtifactRepository) Delete(artifactID string) error {
	artifact, err := r.GetByID(artifactID)
	if err != nil {
		return err
	}

	pipe := r.client.Pipeline()
	pipe.Del(r.ctx, r.artifactKey(artifactID))
	pipe.SRem(r.ctx, r.projectSetKey(artifact.ProjectID), artifactID)

	// Clear the latest pointer only when it still points at this artifact
	latestKey := r.latestKey(artifact.ProjectID, artifact.Source)
	if current, err := r.client.Get(r.ctx, latestKey).Result(); err == nil && current == artifactID {
		pipe.Del(r.ctx, latestKey)
		pipe.SRem(r.ctx, r.sourceSetKey(artifact.ProjectID), artifact.Source)
	}

	if _, err := pipe.Exec(r.ctx); err != nil {
		return fmt.Errorf("failed to delete artifact: %w", err)
	}

	return nil
}

// Helper methods for key generation
func (r *ArtifactRepository) artifactKey(artifactID string) string {
	return fmt.Sprintf("%s%s", artifactKeyPrefix, artifactID)
}

func (r *ArtifactRepository) projectSetKey(projectID string) string {
	return fmt.Sprintf("%s%s:artifacts", projectSetPrefix, projectID)
}

func (r *ArtifactRepository) sourceSetKey(projectID string) string {
	return fmt.Sprintf("%s%s%s", projectSetPrefix, projectID, sourceSetSuffix)
}

func (r *ArtifactRepository) latestKey(projectID, source string) string {
	return fmt.Sprintf("%s%s:%s", latestKeyPrefix, projectID, source)
}
