// Package depscan cross checks the shared contract packages scanners report.
// When a frontend pins a different major of an API contract than the backend
// serves, every route can match and the integration still breaks, so the
// mismatch is surfaced as an advisory next to the route level issues.
package depscan

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/routelens/routelens-backend/internal/api_consistency/domain"
)

// Dependency is one contract package pin reported by a scanner.
type Dependency struct {
	Source  string `json:"source"`
	Name    string `json:"name"`
	Version string `json:"version"`
}

type pin struct {
	source  string
	raw     string
	version *semver.Version
}

type requirement struct {
	source     string
	raw        string
	constraint *semver.Constraints
}

// CheckContracts compares contract pins across sources and returns an
// advisory per conflicting package. Unparseable versions degrade to
// warnings.
func CheckContracts(deps []Dependency) ([]domain.Issue, []string) {
	names := []string{}
	byName := map[string][]Dependency{}
	for _, d := range deps {
		if d.Name == "" || d.Version == "" {
			continue
		}
		if _, ok := byName[d.Name]; !ok {
			names = append(names, d.Name)
		}
		byName[d.Name] = append(byName[d.Name], d)
	}

	issues := []domain.Issue{}
	warnings := []string{}

	for _, name := range names {
		pins := []pin{}
		reqs := []requirement{}

		for _, d := range byName[name] {
			if isRange(d.Version) {
				c, err := semver.NewConstraint(d.Version)
				if err != nil {
					warnings = append(warnings,
						fmt.Sprintf("dependency %s from %s: cannot parse constraint %q", name, d.Source, d.Version))
					continue
				}
				reqs = append(reqs, requirement{source: d.Source, raw: d.Version, constraint: c})
				continue
			}

			v, err := semver.NewVersion(d.Version)
			if err != nil {
				warnings = append(warnings,
					fmt.Sprintf("dependency %s from %s: cannot parse version %q", name, d.Source, d.Version))
				continue
			}
			pins = append(pins, pin{source: d.Source, raw: d.Version, version: v})
		}

		if issue, ok := majorConflict(name, pins); ok {
			issues = append(issues, issue)
		}

		for _, r := range reqs {
			for _, p := range pins {
				if r.constraint.Check(p.version) {
					continue
				}
				issues = append(issues, domain.Issue{
					Kind:     domain.IssueContractVersion,
					Severity: domain.SeverityAdvisory,
					Message: fmt.Sprintf("contract package %q: %s requires %s but %s provides %s",
						name, r.source, r.raw, p.source, p.raw),
					Evidence: domain.Attrs{
						"package":  name,
						"required": r.raw,
						"provided": p.raw,
					},
				})
			}
		}
	}

	return issues, warnings
}

// majorConflict reports pins of the same package that can never be
// compatible. For 0.x versions the minor acts as the breaking component.
func majorConflict(name string, pins []pin) (domain.Issue, bool) {
	if len(pins) < 2 {
		return domain.Issue{}, false
	}

	base := pins[0]
	conflicting := false
	for _, p := range pins[1:] {
		if p.version.Major() != base.version.Major() {
			conflicting = true
			break
		}
		if p.version.Major() == 0 && p.version.Minor() != base.version.Minor() {
			conflicting = true
			break
		}
	}
	if !conflicting {
		return domain.Issue{}, false
	}

	parts := make([]string, 0, len(pins))
	for _, p := range pins {
		parts = append(parts, fmt.Sprintf("%s=%s", p.source, p.raw))
	}

	return domain.Issue{
		Kind:     domain.IssueContractVersion,
		Severity: domain.SeverityAdvisory,
		Message: fmt.Sprintf("contract package %q is pinned at incompatible versions: %s",
			name, strings.Join(parts, ", ")),
		Evidence: domain.Attrs{
			"package":  name,
			"versions": strings.Join(parts, ", "),
		},
	}, true
}

func isRange(v string) bool {
	return strings.ContainsAny(v, "^~<>|*") ||
		strings.Contains(v, " - ") ||
		strings.HasSuffix(v, ".x") ||
		strings.Contains(v, ".x.")
}
