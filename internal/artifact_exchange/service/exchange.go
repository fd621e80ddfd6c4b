package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/routelens/routelens-backend/internal/api_consistency/classify"
	"github.com/routelens/routelens-backend/internal/api_consistency/ingest/mapper"
	"github.com/routelens/routelens-backend/internal/api_consistency/ingest/parser"
	consistency "github.com/routelens/routelens-backend/internal/api_consistency/service"
	"github.com/routelens/routelens-backend/internal/artifact_exchange/domain"
	"github.com/routelens/routelens-backend/internal/artifact_exchange/repository"
	"github.com/routelens/routelens-backend/internal/depscan"
)

// Durable is the persistent store behind the Redis cache. Optional.
type Durable interface {
	Save(ctx context.Context, artifact *domain.Artifact) error
	LatestAll(ctx context.Context, projectID string) ([]*domain.Artifact, error)
}

// Mirror copies artifacts into an object store bucket. Optional.
type Mirror interface {
	Put(ctx context.Context, artifact *domain.Artifact) error
	Fetch(ctx context.Context, key string) (*domain.Artifact, error)
	List(ctx context.Context, projectID string) ([]string, error)
}

// Exchange accepts scanner artifacts and runs consistency checks over the
// merged latest artifact of every source in a project.
type Exchange struct {
	artifacts *repository.ArtifactRepository
	durable   Durable
	mirror    Mirror
	cfg       classify.Config
}

func NewExchange(artifacts *repository.ArtifactRepository, durable Durable, mirror Mirror, cfg classify.Config) *Exchange {
	return &Exchange{
		artifacts: artifacts,
		durable:   durable,
		mirror:    mirror,
		cfg:       cfg,
	}
}

// Upload validates and stores one artifact. The Redis write must succeed;
// the durable store and the mirror are best effort.
func (e *Exchange) Upload(ctx context.Context, artifact *domain.Artifact) error {
	logger := consistency.NewLogger(ctx)

	if artifact.ProjectID == "" || artifact.Source == "" {
		return fmt.Errorf("%w: project_id and source are required", domain.ErrInvalidArtifact)
	}
	if artifact.Kind != "" && artifact.Kind != domain.KindFacts {
		return fmt.Errorf("%w: unsupported kind %q", domain.ErrInvalidArtifact, artifact.Kind)
	}
	if _, err := parser.ParseFactsBytes(artifact.Payload); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidArtifact, err)
	}

	if err := e.artifacts.Create(artifact); err != nil {
		return err
	}
	consistency.RecordArtifactReceived()

	if e.durable != nil {
		if err := e.durable.Save(ctx, artifact); err != nil {
			logger.Error("artifact_durable_save", err)
		}
	}
	if e.mirror != nil {
		if err := e.mirror.Put(ctx, artifact); err != nil {
			logger.Error("artifact_mirror_put", err)
		}
	}

	return nil
}

// Latest returns the newest artifact per source. When the Redis cache has
// expired it falls back to the durable store and re-warms the cache.
func (e *Exchange) Latest(ctx context.Context, projectID string) ([]*domain.Artifact, error) {
	artifacts, err := e.artifacts.LatestAll(projectID)
	if err == nil {
		return artifacts, nil
	}
	if err != domain.ErrNoArtifacts || e.durable == nil {
		return nil, err
	}

	artifacts, err = e.durable.LatestAll(ctx, projectID)
	if err != nil {
		return nil, err
	}

	logger := consistency.NewLogger(ctx)
	for _, artifact := range artifacts {
		if err := e.artifacts.Create(artifact); err != nil {
			logger.Error("artifact_cache_rewarm", err)
		}
	}
	return artifacts, nil
}

// Recheck merges the latest artifacts of a project and analyzes them.
func (e *Exchange) Recheck(ctx context.Context, projectID string) (*consistency.Result, error) {
	artifacts, err := e.Latest(ctx, projectID)
	if err != nil {
		return nil, err
	}

	docs := make([]*parser.FactsDoc, 0, len(artifacts))
	deps := []depscan.Dependency{}
	sourceWarnings := []string{}
	for _, artifact := range artifacts {
		doc, err := parser.ParseFactsBytes(artifact.Payload)
		if err != nil {
			// validated at upload time, so a failure here means the
			// stored payload was corrupted
			sourceWarnings = append(sourceWarnings,
				fmt.Sprintf("artifact %s (%s): %v, skipped", artifact.ID, artifact.Source, err))
			continue
		}
		docs = append(docs, doc)
		for _, d := range doc.Dependencies {
			deps = append(deps, depscan.Dependency{
				Source:  artifact.Source,
				Name:    d.Name,
				Version: d.Version,
			})
		}
	}
	if len(docs) == 0 {
		return nil, domain.ErrNoArtifacts
	}

	merged := mapper.Merge(docs...)
	facts, mapWarnings := mapper.ToFactSet(merged)

	res := consistency.Analyze(facts, e.cfg)

	contractIssues, contractWarnings := depscan.CheckContracts(deps)
	res.Report.Issues = append(res.Report.Issues, contractIssues...)
	res.Report.Stats.Issues += len(contractIssues)
	res.Report.Stats.Advisories += len(contractIssues)

	warnings := append(sourceWarnings, mapWarnings...)
	warnings = append(warnings, contractWarnings...)
	res.Report.Warnings = append(warnings, res.Report.Warnings...)
	consistency.RecordAnalysis(len(res.Report.Issues))

	return res, nil
}

// RestoreFromMirror re-ingests every mirrored artifact of a project into the
// cache, newest upload wins per source.
func (e *Exchange) RestoreFromMirror(ctx context.Context, projectID string) (int, error) {
	if e.mirror == nil {
		return 0, fmt.Errorf("no mirror configured")
	}

	keys, err := e.mirror.List(ctx, projectID)
	if err != nil {
		return 0, err
	}

	artifacts := make([]*domain.Artifact, 0, len(keys))
	for _, key := range keys {
		artifact, err := e.mirror.Fetch(ctx, key)
		if err != nil {
			return 0, err
		}
		artifacts = append(artifacts, artifact)
	}

	// replay in upload order so the latest pointer per source ends up on
	// the newest artifact
	sort.Slice(artifacts, func(i, j int) bool {
		return artifacts[i].UploadedAt.Before(artifacts[j].UploadedAt)
	})

	restored := 0
	for _, artifact := range artifacts {
		if err := e.artifacts.Create(artifact); err != nil {
			return restored, err
		}
		restored++
	}
	return restored, nil
}
