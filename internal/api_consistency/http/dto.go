package http

import (
	"encoding/json"

	"github.com/routelens/routelens-backend/internal/api_consistency/domain"
	"github.com/routelens/routelens-backend/internal/api_consistency/scoring"
)

// Check request over raw JSON (no file upload)
type CheckRawRequest struct {
	Facts    json.RawMessage `json:"facts"`              // required
	Classify string          `json:"classify,omitempty"` // optional YAML overriding the server config
	Title    string          `json:"title,omitempty"`    // optional
	OutDir   string          `json:"out_dir,omitempty"`  // optional base dir
	Project  string          `json:"project,omitempty"`  // optional: persist the report under this project
}

type CheckResponse struct {
	RunID    string          `json:"run_id,omitempty"`
	ReportID string          `json:"report_id,omitempty"`
	Summary  scoring.Summary `json:"summary"`
	Report   *domain.Report  `json:"report"`
	DOTPath  string          `json:"dot_path,omitempty"`
	SVGPath  string          `json:"svg_path,omitempty"`
}
