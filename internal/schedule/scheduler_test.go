package schedule

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/routelens/routelens-backend/internal/api_consistency/classify"
	"github.com/routelens/routelens-backend/internal/api_consistency/repository"
	exchdomain "github.com/routelens/routelens-backend/internal/artifact_exchange/domain"
	exchrepo "github.com/routelens/routelens-backend/internal/artifact_exchange/repository"
	exchange "github.com/routelens/routelens-backend/internal/artifact_exchange/service"
)

const nightlyFacts = `{
  "repo": "shop-api",
  "containers": [{"id": "api", "name": "api", "file": "src/api.js"}],
  "mounts": [],
  "endpoints": [
    {"container": "api", "method": "GET", "path": "/api/ping", "file": "src/api.js", "line": 4}
  ],
  "calls": [
    {"url": "/api/ping", "method": "GET", "file": "web/client.ts", "line": 9}
  ]
}`

func TestRunNightlyRechecksAndPrunes(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	artifacts := exchrepo.NewArtifactRepository(client)
	ex := exchange.NewExchange(artifacts, nil, nil, classify.Defaults())

	require.NoError(t, ex.Upload(context.Background(), &exchdomain.Artifact{
		ProjectID: "proj-1", Source: "backend",
		Payload: json.RawMessage(nightlyFacts),
	}))

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT DISTINCT project_id`).
		WillReturnRows(sqlmock.NewRows([]string{"project_id"}).AddRow("proj-1"))
	mock.ExpectQuery(`INSERT INTO consistency_reports`).
		WithArgs(sqlmock.AnyArg(), "proj-1", sqlmock.AnyArg(), 100, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
	mock.ExpectExec(`DELETE FROM consistency_reports`).
		WithArgs("proj-1", 5).
		WillReturnResult(sqlmock.NewResult(0, 2))

	s := NewScheduler(repository.NewReportRepository(db), ex, "", 5)
	s.RunNightly()

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunNightlyWithoutStorageIsNoop(t *testing.T) {
	s := NewScheduler(nil, nil, "", 0)
	s.RunNightly()
}

func TestNewSchedulerDefaults(t *testing.T) {
	s := NewScheduler(nil, nil, "", 0)
	require.Equal(t, DefaultSpec, s.spec)
	require.Equal(t, 10, s.keep)
}
