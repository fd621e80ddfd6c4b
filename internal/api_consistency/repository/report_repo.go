package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/routelens/routelens-backend/internal/api_consistency/domain"
)

// StoredReport is a persisted analysis run for a project.
type StoredReport struct {
	ID        string         `json:"id"`
	ProjectID string         `json:"project_id"`
	RunID     string         `json:"run_id"`
	Score     int            `json:"score"`
	Report    *domain.Report `json:"report"`
	CreatedAt time.Time      `json:"created_at"`
}

// ReportRepository handles PostgreSQL operations for consistency reports.
type ReportRepository struct {
	db *sql.DB
}

func NewReportRepository(db *sql.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Save inserts a report row, generating an id when the caller did not set one.
func (r *ReportRepository) Save(rep *StoredReport) error {
	if rep.ID == "" {
		rep.ID = uuid.New().String()
	}

	reportJSON, err := json.Marshal(rep.Report)
	if err != nil {
		reportJSON = []byte("{}")
	}

	query := `
		INSERT INTO consistency_reports (id, project_id, run_id, score, report)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`

	var createdAt time.Time
	err = r.db.QueryRow(
		query,
		rep.ID,
		rep.ProjectID,
		rep.RunID,
		rep.Score,
		reportJSON,
	).Scan(&createdAt)
	if err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}

	rep.CreatedAt = createdAt
	return nil
}

// GetByID retrieves a report by its id.
func (r *ReportRepository) GetByID(id string) (*StoredReport, error) {
	query := `
		SELECT id, project_id, run_id, score, report, created_at
		FROM consistency_reports
		WHERE id = $1
	`

	var rep StoredReport
	var reportJSON []byte

	err := r.db.QueryRow(query, id).Scan(
		&rep.ID,
		&rep.ProjectID,
		&rep.RunID,
		&rep.Score,
		&reportJSON,
		&rep.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}

	if len(reportJSON) > 0 {
		if err := json.Unmarshal(reportJSON, &rep.Report); err != nil {
			return nil, fmt.Errorf("failed to decode stored report: %w", err)
		}
	}

	return &rep, nil
}

// ListByProject returns the newest reports for a project, newest first.
func (r *ReportRepository) ListByProject(projectID string, limit int) ([]StoredReport, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, project_id, run_id, score, report, created_at
		FROM consistency_reports
		WHERE project_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.Query(query, projectID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	out := []StoredReport{}
	for rows.Next() {
		var rep StoredReport
		var reportJSON []byte
		if err := rows.Scan(
			&rep.ID,
			&rep.ProjectID,
			&rep.RunID,
			&rep.Score,
			&reportJSON,
			&rep.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan report row: %w", err)
		}
		if len(reportJSON) > 0 {
			if err := json.Unmarshal(reportJSON, &rep.Report); err != nil {
				return nil, fmt.Errorf("failed to decode stored report: %w", err)
			}
		}
		out = append(out, rep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate report rows: %w", err)
	}

	return out, nil
}

// Latest returns the most recent report for a project.
func (r *ReportRepository) Latest(projectID string) (*StoredReport, error) {
	reports, err := r.ListByProject(projectID, 1)
	if err != nil {
		return nil, err
	}
	if len(reports) == 0 {
		return nil, domain.ErrReportNotFound
	}
	return &reports[0], nil
}

// Prune deletes all but the newest keep reports for a project and returns
// how many rows were removed.
func (r *ReportRepository) Prune(projectID string, keep int) (int64, error) {
	if keep <= 0 {
		keep = 10
	}

	query := `
		DELETE FROM consistency_reports
		WHERE project_id = $1
		  AND id NOT IN (
			SELECT id FROM consistency_reports
			WHERE project_id = $1
			ORDER BY created_at DESC
			LIMIT $2
		  )
	`

	res, err := r.db.Exec(query, projectID, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune reports: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count pruned reports: %w", err)
	}
	return n, nil
}

// ProjectIDs returns the distinct project ids that have stored reports.
func (r *ReportRepository) ProjectIDs() ([]string, error) {
	rows, err := r.db.Query(`SELECT DISTINCT project_id FROM consistency_reports ORDER BY project_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list project ids: %w", err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan project id: %w", err)
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate project ids: %w", err)
	}
	return out, nil
}
