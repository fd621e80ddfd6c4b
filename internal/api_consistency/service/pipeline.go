package service

import (
	"log"
	"os"
	"path/filepath"

	"github.com/routelens/routelens-backend/internal/api_consistency/classify"
	"github.com/routelens/routelens-backend/internal/api_consistency/diagnostics"
	_ "github.com/routelens/routelens-backend/internal/api_consistency/diagnostics/rules"
	"github.com/routelens/routelens-backend/internal/api_consistency/domain"
	"github.com/routelens/routelens-backend/internal/api_consistency/export"
	"github.com/routelens/routelens-backend/internal/api_consistency/graph"
	"github.com/routelens/routelens-backend/internal/api_consistency/ingest/mapper"
	"github.com/routelens/routelens-backend/internal/api_consistency/ingest/parser"
	"github.com/routelens/routelens-backend/internal/api_consistency/match"
	"github.com/routelens/routelens-backend/internal/api_consistency/routing"
	"github.com/routelens/routelens-backend/internal/api_consistency/utils"
)

type Result struct {
	RunID   string         `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Report  *domain.Report `json:"report" yaml:"report"`
	Graph   *domain.Graph  `json:"graph" yaml:"graph"`
	DOTPath string         `json:"dot_path,omitempty" yaml:"dot_path,omitempty"`
	SVGPath string         `json:"svg_path,omitempty" yaml:"svg_path,omitempty"`
}

// Analyze is the synchronous core: facts in, report out. It performs no I/O,
// spawns nothing, and holds no state between invocations; identical input
// and config always produce an identical result.
func Analyze(facts *domain.FactSet, cfg classify.Config) *Result {
	g, buildWarnings := graph.Build(facts)

	diagWarnings, err := diagnostics.RunAll(g)
	if err != nil {
		// only reachable with a nil graph, which Build never returns
		diagWarnings = []string{err.Error()}
	}

	resolved, resolveWarnings := graph.ResolveAll(g, facts.Endpoints)
	table, tableWarnings := routing.NewTable(resolved)
	issues := match.Run(table, facts.Calls, cfg)

	warnings := make([]string, 0,
		len(buildWarnings)+len(diagWarnings)+len(resolveWarnings)+len(tableWarnings))
	warnings = append(warnings, buildWarnings...)
	warnings = append(warnings, diagWarnings...)
	warnings = append(warnings, resolveWarnings...)
	warnings = append(warnings, tableWarnings...)

	report := &domain.Report{
		Endpoints: resolved,
		Issues:    issues,
		Warnings:  warnings,
		Stats:     buildStats(g, facts, issues),
	}
	normalizeReport(report)

	return &Result{Report: report, Graph: g}
}

// AnalyzeFactsBytes decodes a facts document and analyzes it. Decode failure
// of the document as a whole is the only error path; malformed individual
// records degrade to warnings inside the report.
func AnalyzeFactsBytes(b []byte, cfg classify.Config) (*Result, error) {
	doc, err := parser.ParseFactsBytes(b)
	if err != nil {
		return nil, err
	}
	facts, mapWarnings := mapper.ToFactSet(doc)
	res := Analyze(facts, cfg)
	res.Report.Warnings = append(mapWarnings, res.Report.Warnings...)
	if res.Report.Warnings == nil {
		res.Report.Warnings = []string{}
	}
	return res, nil
}

func AnalyzeFile(path string, cfg classify.Config) (*Result, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return AnalyzeFactsBytes(b, cfg)
}

// AnalyzeFactsBytesToDir analyzes and writes run artifacts (analysis.json,
// analysis.yaml, graph.dot, optionally graph.svg) into outDir.
func AnalyzeFactsBytesToDir(b []byte, outDir, title, dotBin string, cfg classify.Config) (*Result, error) {
	res, err := AnalyzeFactsBytes(b, cfg)
	if err != nil {
		return nil, err
	}
	if outDir == "" {
		outDir = "out"
	}
	_ = os.MkdirAll(outDir, 0755)

	dot := export.ToDOT(res.Graph, title)
	dotPath := filepath.Join(outDir, "graph.dot")
	if err := utils.WriteFile(dotPath, dot); err != nil {
		return nil, err
	}
	res.DOTPath = dotPath

	// SVG rendering is best effort; the DOT file is the artifact of record
	svgPath := filepath.Join(outDir, "graph.svg")
	if err := utils.DotTo(dotPath, svgPath, "svg", dotBin); err == nil {
		res.SVGPath = svgPath
	} else {
		log.Printf("[warn] operation=render_svg error=%v", err)
	}

	if err := export.WriteJSON(filepath.Join(outDir, "analysis.json"), res); err != nil {
		return nil, err
	}
	if err := export.WriteYAML(filepath.Join(outDir, "analysis.yaml"), res); err != nil {
		return nil, err
	}
	return res, nil
}

// AnalyzeFactsBytesRun writes artifacts into a unique run folder under
// outBaseDir/runs/<id>.
func AnalyzeFactsBytesRun(b []byte, outBaseDir, title, dotBin string, cfg classify.Config) (*Result, error) {
	if outBaseDir == "" {
		outBaseDir = "out"
	}
	runID := utils.NewID()
	runDir := filepath.Join(outBaseDir, "runs", runID)
	res, err := AnalyzeFactsBytesToDir(b, runDir, title, dotBin, cfg)
	if err != nil {
		return nil, err
	}
	res.RunID = runID
	return res, nil
}

func buildStats(g *domain.Graph, facts *domain.FactSet, issues []domain.Issue) domain.Stats {
	st := domain.Stats{
		Containers: len(g.Nodes),
		Endpoints:  len(facts.Endpoints),
		Calls:      len(facts.Calls),
		Issues:     len(issues),
	}
	for _, is := range issues {
		switch is.Severity {
		case domain.SeverityError:
			st.Errors++
		case domain.SeverityWarning:
			st.Warnings++
		case domain.SeverityAdvisory:
			st.Advisories++
		}
	}
	return st
}

// normalizeReport replaces nil slices with empty ones for frontend stability.
func normalizeReport(r *domain.Report) {
	if r.Endpoints == nil {
		r.Endpoints = []domain.ResolvedEndpoint{}
	}
	if r.Issues == nil {
		r.Issues = []domain.Issue{}
	}
	if r.Warnings == nil {
		r.Warnings = []string{}
	}
}
