package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/routelens/routelens-backend/internal/api_consistency/classify"
	"github.com/routelens/routelens-backend/internal/artifact_exchange/domain"
	"github.com/routelens/routelens-backend/internal/artifact_exchange/repository"
)

const backendFacts = `{
  "repo": "shop-api",
  "containers": [{"id": "api", "name": "api", "file": "src/api.js"}],
  "mounts": [],
  "endpoints": [
    {"container": "api", "method": "GET", "path": "/api/ping", "file": "src/api.js", "line": 4}
  ],
  "calls": []
}`

const frontendFactsOK = `{
  "repo": "shop-web",
  "containers": [],
  "mounts": [],
  "endpoints": [],
  "calls": [
    {"url": "/api/ping", "method": "GET", "file": "web/client.ts", "line": 9}
  ]
}`

const frontendFactsBroken = `{
  "repo": "shop-web",
  "containers": [],
  "mounts": [],
  "endpoints": [],
  "calls": [
    {"url": "/api/pong", "method": "GET", "file": "web/client.ts", "line": 9}
  ]
}`

func setupExchange(t *testing.T) (*Exchange, *repository.ArtifactRepository, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	artifacts := repository.NewArtifactRepository(client)
	return NewExchange(artifacts, nil, nil, classify.Defaults()), artifacts, mr
}

func TestExchangeUploadValidation(t *testing.T) {
	ex, _, _ := setupExchange(t)
	ctx := context.Background()

	t.Run("requires project and source", func(t *testing.T) {
		err := ex.Upload(ctx, &domain.Artifact{Payload: json.RawMessage(backendFacts)})
		assert.ErrorIs(t, err, domain.ErrInvalidArtifact)
	})

	t.Run("rejects unsupported kind", func(t *testing.T) {
		err := ex.Upload(ctx, &domain.Artifact{
			ProjectID: "p1", Source: "backend", Kind: "sbom",
			Payload: json.RawMessage(backendFacts),
		})
		assert.ErrorIs(t, err, domain.ErrInvalidArtifact)
	})

	t.Run("rejects payload that is not a facts document", func(t *testing.T) {
		err := ex.Upload(ctx, &domain.Artifact{
			ProjectID: "p1", Source: "backend",
			Payload: json.RawMessage(`{"containers": "nope"`),
		})
		assert.ErrorIs(t, err, domain.ErrInvalidArtifact)
	})
}

func TestExchangeRecheckMergesLatestArtifacts(t *testing.T) {
	ex, _, _ := setupExchange(t)
	ctx := context.Background()

	require.NoError(t, ex.Upload(ctx, &domain.Artifact{
		ProjectID: "p1", Source: "backend", Payload: json.RawMessage(backendFacts),
	}))
	require.NoError(t, ex.Upload(ctx, &domain.Artifact{
		ProjectID: "p1", Source: "frontend", Payload: json.RawMessage(frontendFactsOK),
	}))

	res, err := ex.Recheck(ctx, "p1")
	require.NoError(t, err)
	assert.Len(t, res.Report.Issues, 0)
	assert.Equal(t, 1, res.Report.Stats.Endpoints)
	assert.Equal(t, 1, res.Report.Stats.Calls)
}

func TestExchangeRecheckUsesNewestPerSource(t *testing.T) {
	ex, _, _ := setupExchange(t)
	ctx := context.Background()

	require.NoError(t, ex.Upload(ctx, &domain.Artifact{
		ProjectID: "p1", Source: "backend", Payload: json.RawMessage(backendFacts),
	}))
	require.NoError(t, ex.Upload(ctx, &domain.Artifact{
		ProjectID: "p1", Source: "frontend", Payload: json.RawMessage(frontendFactsOK),
	}))
	require.NoError(t, ex.Upload(ctx, &domain.Artifact{
		ProjectID: "p1", Source: "frontend", Payload: json.RawMessage(frontendFactsBroken),
	}))

	res, err := ex.Recheck(ctx, "p1")
	require.NoError(t, err)

	require.Len(t, res.Report.Issues, 2)
	assert.Equal(t, "missing_endpoint", string(res.Report.Issues[0].Kind))
	assert.Equal(t, "/api/pong", res.Report.Issues[0].Route)
	assert.Equal(t, "orphaned_endpoint", string(res.Report.Issues[1].Kind))
}

func TestExchangeRecheckReportsContractConflicts(t *testing.T) {
	ex, _, _ := setupExchange(t)
	ctx := context.Background()

	backendWithDeps := `{
      "repo": "shop-api",
      "containers": [{"id": "api", "name": "api", "file": "src/api.js"}],
      "mounts": [],
      "endpoints": [
        {"container": "api", "method": "GET", "path": "/api/ping", "file": "src/api.js", "line": 4}
      ],
      "calls": [],
      "dependencies": [{"name": "@shop/api-contract", "version": "2.0.0"}]
    }`
	frontendWithDeps := `{
      "repo": "shop-web",
      "containers": [],
      "mounts": [],
      "endpoints": [],
      "calls": [
        {"url": "/api/ping", "method": "GET", "file": "web/client.ts", "line": 9}
      ],
      "dependencies": [{"name": "@shop/api-contract", "version": "^1.2.0"}]
    }`

	require.NoError(t, ex.Upload(ctx, &domain.Artifact{
		ProjectID: "p1", Source: "backend", Payload: json.RawMessage(backendWithDeps),
	}))
	require.NoError(t, ex.Upload(ctx, &domain.Artifact{
		ProjectID: "p1", Source: "frontend", Payload: json.RawMessage(frontendWithDeps),
	}))

	res, err := ex.Recheck(ctx, "p1")
	require.NoError(t, err)

	require.Len(t, res.Report.Issues, 1)
	assert.Equal(t, "contract_version_conflict", string(res.Report.Issues[0].Kind))
	assert.Contains(t, res.Report.Issues[0].Message, "@shop/api-contract")
	assert.Equal(t, 1, res.Report.Stats.Advisories)
}

func TestExchangeRecheckWithoutArtifacts(t *testing.T) {
	ex, _, _ := setupExchange(t)

	_, err := ex.Recheck(context.Background(), "ghost")
	assert.Equal(t, domain.ErrNoArtifacts, err)
}

type fakeDurable struct {
	saved  []*domain.Artifact
	latest []*domain.Artifact
}

func (f *fakeDurable) Save(_ context.Context, artifact *domain.Artifact) error {
	f.saved = append(f.saved, artifact)
	return nil
}

func (f *fakeDurable) LatestAll(_ context.Context, _ string) ([]*domain.Artifact, error) {
	if len(f.latest) == 0 {
		return nil, domain.ErrNoArtifacts
	}
	return f.latest, nil
}

func TestExchangeLatestFallsBackToDurable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	artifacts := repository.NewArtifactRepository(client)
	durable := &fakeDurable{
		latest: []*domain.Artifact{
			{ID: "a1", ProjectID: "p1", Source: "backend", Kind: domain.KindFacts,
				Payload: json.RawMessage(backendFacts), UploadedAt: time.Now().Add(-time.Hour)},
		},
	}
	ex := NewExchange(artifacts, durable, nil, classify.Defaults())

	got, err := ex.Latest(context.Background(), "p1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a1", got[0].ID)

	// the cache was re-warmed, so the repository answers directly now
	cached, err := artifacts.LatestAll("p1")
	require.NoError(t, err)
	require.Len(t, cached, 1)
	assert.Equal(t, "a1", cached[0].ID)
}

func TestExchangeUploadWritesDurable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	durable := &fakeDurable{}
	ex := NewExchange(repository.NewArtifactRepository(client), durable, nil, classify.Defaults())

	err = ex.Upload(context.Background(), &domain.Artifact{
		ProjectID: "p1", Source: "backend", Payload: json.RawMessage(backendFacts),
	})
	require.NoError(t, err)
	require.Len(t, durable.saved, 1)
	assert.Equal(t, "backend", durable.saved[0].Source)
}

type fakeMirror struct {
	objects map[string]*domain.Artifact
}

func (f *fakeMirror) Put(_ context.Context, artifact *domain.Artifact) error {
	key := fmt.Sprintf("artifacts/%s/%s/%s.json", artifact.ProjectID, artifact.Source, artifact.ID)
	f.objects[key] = artifact
	return nil
}

func (f *fakeMirror) Fetch(_ context.Context, key string) (*domain.Artifact, error) {
	artifact, ok := f.objects[key]
	if !ok {
		return nil, domain.ErrArtifactNotFound
	}
	return artifact, nil
}

func (f *fakeMirror) List(_ context.Context, projectID string) ([]string, error) {
	keys := []string{}
	prefix := "artifacts/" + projectID + "/"
	for key := range f.objects {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func TestExchangeRestoreFromMirror(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	artifacts := repository.NewArtifactRepository(client)
	mirror := &fakeMirror{objects: map[string]*domain.Artifact{}}
	ex := NewExchange(artifacts, nil, mirror, classify.Defaults())

	older := &domain.Artifact{ID: "a-old", ProjectID: "p1", Source: "frontend", Kind: domain.KindFacts,
		Payload: json.RawMessage(frontendFactsOK), UploadedAt: time.Now().Add(-2 * time.Hour)}
	newer := &domain.Artifact{ID: "a-new", ProjectID: "p1", Source: "frontend", Kind: domain.KindFacts,
		Payload: json.RawMessage(frontendFactsBroken), UploadedAt: time.Now().Add(-time.Hour)}
	require.NoError(t, mirror.Put(context.Background(), older))
	require.NoError(t, mirror.Put(context.Background(), newer))

	n, err := ex.RestoreFromMirror(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	latest, err := artifacts.LatestBySource("p1", "frontend")
	require.NoError(t, err)
	assert.Equal(t, "a-new", latest.ID)
}
