package postgres

import (
	"database/sql"
	"fmt"
)

// schemaStatements are idempotent, EnsureSchema runs them on every boot.
// gen_random_uuid() is built in from PostgreSQL 13.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		firebase_uid TEXT NOT NULL UNIQUE,
		email TEXT,
		display_name TEXT,
		photo_url TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS projects (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		public_id TEXT NOT NULL UNIQUE,
		user_id UUID NOT NULL REFERENCES users(id),
		name TEXT NOT NULL,
		is_temporary BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		deleted_at TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS consistency_reports (
		id UUID PRIMARY KEY,
		project_id TEXT NOT NULL,
		run_id TEXT NOT NULL DEFAULT '',
		score INTEGER NOT NULL DEFAULT 0,
		report JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_consistency_reports_project
		ON consistency_reports (project_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS artifacts (
		id UUID PRIMARY KEY,
		project_id TEXT NOT NULL,
		source TEXT NOT NULL,
		kind TEXT NOT NULL,
		payload JSONB NOT NULL,
		uploaded_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_artifacts_project_source
		ON artifacts (project_id, source, uploaded_at DESC)`,
}

// EnsureSchema creates the tables the backend expects.
func EnsureSchema(db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}
	return nil
}
