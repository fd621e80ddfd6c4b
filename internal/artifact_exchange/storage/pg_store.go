package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/routelens/routelens-backend/internal/artifact_exchange/domain"
)

// PGStore is the durable artifact store behind the Redis cache. Redis holds
// the hot copies with a TTL; Postgres keeps everything so a project can be
// rechecked after the cache expired.
type PGStore struct {
	db *pgxpool.Pool
}

func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Save(ctx context.Context, artifact *domain.Artifact) error {
	if artifact.ID == "" {
		artifact.ID = uuid.New().String()
	}
	if artifact.UploadedAt.IsZero() {
		artifact.UploadedAt = time.Now()
	}

	const q = `
insert into artifacts (id, project_id, source, kind, payload, uploaded_at)
values ($1, $2, $3, $4, $5::jsonb, $6);
`
	_, err := s.db.Exec(ctx, q,
		artifact.ID, artifact.ProjectID, artifact.Source, artifact.Kind,
		string(artifact.Payload), artifact.UploadedAt)
	if err != nil {
		return fmt.Errorf("insert artifact: %w", err)
	}
	return nil
}

func (s *PGStore) GetByID(ctx context.Context, artifactID string) (*domain.Artifact, error) {
	const q = `
select id, project_id, source, kind, payload, uploaded_at
from artifacts
where id = $1;
`
	var a domain.Artifact
	var payload []byte
	err := s.db.QueryRow(ctx, q, artifactID).
		Scan(&a.ID, &a.ProjectID, &a.Source, &a.Kind, &payload, &a.UploadedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrArtifactNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get artifact: %w", err)
	}
	a.Payload = payload
	return &a, nil
}

// LatestAll returns the newest artifact of every source for a project, in
// source name order.
func (s *PGStore) LatestAll(ctx context.Context, projectID string) ([]*domain.Artifact, error) {
	const q = `
select distinct on (source) id, project_id, source, kind, payload, uploaded_at
from artifacts
where project_id = $1
order by source, uploaded_at desc;
`
	rows, err := s.db.Query(ctx, q, projectID)
	if err != nil {
		return nil, fmt.Errorf("list latest artifacts: %w", err)
	}
	defer rows.Close()

	out := make([]*domain.Artifact, 0, 4)
	for rows.Next() {
		var a domain.Artifact
		var payload []byte
		if err := rows.Scan(&a.ID, &a.ProjectID, &a.Source, &a.Kind, &payload, &a.UploadedAt); err != nil {
			return nil, fmt.Errorf("scan artifact: %w", err)
		}
		a.Payload = payload
		out = append(out, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate artifacts: %w", err)
	}
	if len(out) == 0 {
		return nil, domain.ErrNoArtifacts
	}
	return out, nil
}

// DeleteOlderThan removes artifacts uploaded before the cutoff, keeping the
// newest artifact of each source regardless of age.
func (s *PGStore) DeleteOlderThan(ctx context.Context, projectID string, cutoff time.Time) (int64, error) {
	const q = `
delete from artifacts
where project_id = $1
  and uploaded_at < $2
  and id not in (
    select distinct on (source) id
    from artifacts
    where project_id = $1
    order by source, uploaded_at desc
  );
`
	ct, err := s.db.Exec(ctx, q, projectID, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete old artifacts: %w", err)
	}
	return ct.RowsAffected(), nil
}
