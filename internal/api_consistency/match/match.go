// Package match reconciles call sites against resolved endpoints and produces
// the user-visible issue list. Three passes, all order-stable: method
// matching in call order, payload comparison in call order, then orphan
// reporting in endpoint declaration order.
package match

import (
	"fmt"
	"strings"

	"github.com/routelens/routelens-backend/internal/api_consistency/classify"
	"github.com/routelens/routelens-backend/internal/api_consistency/domain"
	"github.com/routelens/routelens-backend/internal/api_consistency/routing"
	"github.com/routelens/routelens-backend/internal/api_consistency/shape"
	"github.com/routelens/routelens-backend/internal/api_consistency/suggest"
	"github.com/routelens/routelens-backend/internal/api_consistency/urlnorm"
)

type exactHit struct {
	call  domain.Call
	norm  domain.NormalizedURL
	entry routing.Entry
}

// Run matches every call against the route table. Calls classified external
// are skipped outright. Env-templated calls follow the allowlist rules:
// external skips, internal matches the remaining path, unresolved yields an
// advisory. Every issue is a recovered fact; nothing here fails the run.
func Run(table *routing.Table, calls []domain.Call, cfg classify.Config) []domain.Issue {
	var issues []domain.Issue

	orphans := map[int]bool{}
	for _, e := range table.Entries() {
		orphans[e.Index] = true
	}

	var hits []exactHit
	seen := map[string]bool{}

	for i := range calls {
		call := calls[i]
		norm := urlnorm.Normalize(call.URL, cfg)
		method := strings.ToUpper(strings.TrimSpace(call.Method))

		key := norm.Path + "\x00" + method + "\x00" + call.File
		if seen[key] {
			continue
		}
		seen[key] = true

		if norm.EnvVar != "" {
			if norm.External {
				continue
			}
			if !norm.Internal {
				issues = append(issues, domain.Issue{
					Kind:     domain.IssueEnvVarAdvisory,
					Severity: domain.SeverityAdvisory,
					Method:   method,
					Route:    norm.Path,
					File:     call.File,
					Line:     call.Line,
					Message: fmt.Sprintf(
						"call %s %s is templated by environment variable %q, which is in neither the internal nor the external list",
						method, norm.Path, norm.EnvVar),
					Evidence: domain.Attrs{"env_var": norm.EnvVar, "original_url": call.URL},
				})
				continue
			}
		} else if norm.External {
			continue
		}

		candidates := table.Lookup(norm.Path)
		if candidates == nil {
			issue := domain.Issue{
				Kind:     domain.IssueMissingEndpoint,
				Severity: domain.SeverityError,
				Method:   method,
				Route:    norm.Path,
				File:     call.File,
				Line:     call.Line,
				Message:  fmt.Sprintf("no endpoint matches call %s %s", method, norm.Path),
				Evidence: domain.Attrs{"original_url": call.URL},
			}
			if c, ok := suggest.Closest(norm.Path, method, table.Entries()); ok {
				issue.Evidence["did_you_mean"] = fmt.Sprintf("%s %s", c.Method, c.Path)
			}
			issues = append(issues, issue)
			continue
		}

		matched := false
		for _, e := range candidates {
			if strings.EqualFold(e.Endpoint.Method, method) {
				delete(orphans, e.Index)
				hits = append(hits, exactHit{call: call, norm: norm, entry: e})
				matched = true
				break
			}
		}
		if !matched {
			first := candidates[0]
			delete(orphans, first.Index)
			issues = append(issues, domain.Issue{
				Kind:     domain.IssueMethodMismatch,
				Severity: domain.SeverityError,
				Method:   method,
				Route:    norm.Path,
				File:     call.File,
				Line:     call.Line,
				Message: fmt.Sprintf(
					"call uses %s but endpoint %s supports %s",
					method, first.Endpoint.FullPath, strings.ToUpper(first.Endpoint.Method)),
				Evidence: domain.Attrs{
					"endpoint_method": strings.ToUpper(first.Endpoint.Method),
					"endpoint_path":   first.Endpoint.FullPath,
				},
			})
		}
	}

	issues = append(issues, payloadIssues(hits)...)

	for _, e := range table.Entries() {
		if orphans[e.Index] {
			ep := e.Endpoint
			issues = append(issues, domain.Issue{
				Kind:     domain.IssueOrphanedEndpoint,
				Severity: domain.SeverityWarning,
				Method:   strings.ToUpper(ep.Method),
				Route:    ep.FullPath,
				File:     ep.File,
				Line:     ep.Line,
				Message: fmt.Sprintf(
					"endpoint %s %s is never called", strings.ToUpper(ep.Method), ep.FullPath),
			})
		}
	}

	return issues
}

// payloadIssues compares request-body shapes for calls that matched on both
// route and method. Each field mismatch becomes its own issue so downstream
// consumers can count and filter them individually.
func payloadIssues(hits []exactHit) []domain.Issue {
	var issues []domain.Issue
	for _, h := range hits {
		if h.call.RequestShape == nil || h.entry.Endpoint.RequestShape == nil {
			continue
		}
		for _, fm := range shape.Diff(h.call.RequestShape, h.entry.Endpoint.RequestShape, "$") {
			issues = append(issues, domain.Issue{
				Kind:       domain.IssueRequestBodyMismatch,
				Severity:   domain.SeverityWarning,
				Method:     strings.ToUpper(h.call.Method),
				Route:      h.norm.Path,
				File:       h.call.File,
				Line:       h.call.Line,
				Message:    describeMismatch(fm, h.entry.Endpoint.FullPath),
				Mismatches: []domain.FieldMismatch{fm},
			})
		}
	}
	return issues
}

func describeMismatch(fm domain.FieldMismatch, endpointPath string) string {
	switch fm.Kind {
	case domain.MismatchMissingField:
		return fmt.Sprintf("request body for %s is missing field %s (endpoint expects %s)",
			endpointPath, fm.Path, fm.Expected)
	case domain.MismatchExtraField:
		return fmt.Sprintf("request body for %s has extra field %s (%s) the endpoint does not declare",
			endpointPath, fm.Path, fm.Actual)
	default:
		return fmt.Sprintf("request body for %s has wrong type at %s: got %s, endpoint expects %s",
			endpointPath, fm.Path, fm.Actual, fm.Expected)
	}
}
