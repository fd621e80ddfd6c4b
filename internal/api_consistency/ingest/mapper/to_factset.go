// Package mapper converts wire-level facts documents into the domain fact
// set the engine consumes. Malformed individual records are skipped with a
// warning; extraction is best-effort and partial input is the normal case.
package mapper

import (
	"fmt"
	"strings"

	"github.com/routelens/routelens-backend/internal/api_consistency/domain"
	"github.com/routelens/routelens-backend/internal/api_consistency/ingest/parser"
	"github.com/routelens/routelens-backend/internal/api_consistency/shape"
)

func ToFactSet(doc *parser.FactsDoc) (*domain.FactSet, []string) {
	fs := &domain.FactSet{}
	var warnings []string

	for i, c := range doc.Containers {
		if c.ID == "" {
			warnings = append(warnings, fmt.Sprintf("containers[%d]: missing id, skipped", i))
			continue
		}
		name := c.Name
		if name == "" {
			name = c.ID
		}
		fs.Containers = append(fs.Containers, domain.ContainerNode{
			ID: c.ID, Name: name, File: c.File, Role: domain.RoleUnknown,
		})
	}

	for i, m := range doc.Mounts {
		if m.Parent == "" || m.Child == "" {
			warnings = append(warnings, fmt.Sprintf("mounts[%d]: missing parent or child, skipped", i))
			continue
		}
		fs.Mounts = append(fs.Mounts, domain.MountEdge{
			Parent: m.Parent, Child: m.Child, Prefix: m.Prefix, Order: len(fs.Mounts),
		})
	}

	for i, e := range doc.Endpoints {
		if e.Container == "" || e.Method == "" || e.Path == "" {
			warnings = append(warnings, fmt.Sprintf(
				"endpoints[%d]: missing container, method, or path, skipped", i))
			continue
		}
		ep := domain.Endpoint{
			Container: e.Container,
			Method:    strings.ToUpper(strings.TrimSpace(e.Method)),
			Path:      e.Path,
			File:      e.File,
			Line:      e.Line,
		}
		ep.RequestShape, warnings = parseShape(e.RequestShape, fmt.Sprintf("endpoints[%d].request_shape", i), warnings)
		ep.ResponseShape, warnings = parseShape(e.ResponseShape, fmt.Sprintf("endpoints[%d].response_shape", i), warnings)
		fs.Endpoints = append(fs.Endpoints, ep)
	}

	for i, c := range doc.Calls {
		if c.URL == "" {
			warnings = append(warnings, fmt.Sprintf("calls[%d]: missing url, skipped", i))
			continue
		}
		call := domain.Call{
			URL:    c.URL,
			Method: strings.ToUpper(strings.TrimSpace(c.Method)),
			File:   c.File,
			Line:   c.Line,
		}
		call.RequestShape, warnings = parseShape(c.RequestShape, fmt.Sprintf("calls[%d].request_shape", i), warnings)
		fs.Calls = append(fs.Calls, call)
	}

	return fs, warnings
}

// parseShape derives a structural shape from a raw sample document. A shape
// that fails to parse degrades to unknown (matches anything) with a warning.
func parseShape(raw []byte, where string, warnings []string) (*domain.Shape, []string) {
	if len(raw) == 0 {
		return nil, warnings
	}
	s, err := shape.Parse(raw)
	if err != nil {
		warnings = append(warnings, fmt.Sprintf("%s: %v; treating as unknown", where, err))
		return &domain.Shape{Kind: domain.ShapeUnknown}, warnings
	}
	return s, warnings
}

// Merge concatenates several facts documents into one, keeping section order
// and dropping containers whose id was already seen. Used when analyses span
// repositories whose facts were uploaded separately.
func Merge(docs ...*parser.FactsDoc) *parser.FactsDoc {
	out := &parser.FactsDoc{}
	seen := map[string]bool{}
	for _, d := range docs {
		if d == nil {
			continue
		}
		for _, c := range d.Containers {
			if c.ID != "" && seen[c.ID] {
				continue
			}
			seen[c.ID] = true
			out.Containers = append(out.Containers, c)
		}
		out.Mounts = append(out.Mounts, d.Mounts...)
		out.Endpoints = append(out.Endpoints, d.Endpoints...)
		out.Calls = append(out.Calls, d.Calls...)
		out.Dependencies = append(out.Dependencies, d.Dependencies...)
	}
	return out
}
