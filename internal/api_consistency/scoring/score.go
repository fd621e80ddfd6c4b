package scoring

import (
	"fmt"

	"github.com/routelens/routelens-backend/internal/api_consistency/domain"
)

// Summary condenses a report into a single health score with remediation
// hints, for dashboards that do not want to render every issue.
type Summary struct {
	Score       int            `json:"score"`
	Grade       string         `json:"grade"`
	ByKind      map[string]int `json:"by_kind"`
	Suggestions []string       `json:"suggestions"`
}

func Summarize(rep *domain.Report) Summary {
	byKind := map[string]int{}
	penalty := 0
	for _, is := range rep.Issues {
		byKind[string(is.Kind)]++
		switch is.Severity {
		case domain.SeverityError:
			penalty += 10
		case domain.SeverityWarning:
			penalty += 3
		case domain.SeverityAdvisory:
			penalty++
		}
	}
	if penalty > 100 {
		penalty = 100
	}
	score := 100 - penalty

	return Summary{
		Score:       score,
		Grade:       grade(score),
		ByKind:      byKind,
		Suggestions: suggestions(rep, byKind),
	}
}

func grade(score int) string {
	switch {
	case score >= 90:
		return "A"
	case score >= 75:
		return "B"
	case score >= 60:
		return "C"
	case score >= 40:
		return "D"
	default:
		return "F"
	}
}

func suggestions(rep *domain.Report, byKind map[string]int) []string {
	s := []string{}

	if len(rep.Issues) == 0 {
		s = append(s, "No consistency issues found between endpoints and call sites.")
		return s
	}

	if n := byKind[string(domain.IssueMissingEndpoint)]; n > 0 {
		s = append(s, fmt.Sprintf(
			"%d call(s) target routes no endpoint serves. Add the missing endpoints or fix the client URLs.", n))
	}
	if n := byKind[string(domain.IssueMethodMismatch)]; n > 0 {
		s = append(s, fmt.Sprintf(
			"%d call(s) use an HTTP method the matched endpoint does not accept. Align the verbs on both sides.", n))
	}
	if n := byKind[string(domain.IssueRequestBodyMismatch)]; n > 0 {
		s = append(s, fmt.Sprintf(
			"%d request payload field(s) disagree with handler expectations. Align the request bodies before they fail at runtime.", n))
	}
	if n := byKind[string(domain.IssueOrphanedEndpoint)]; n > 0 {
		s = append(s, fmt.Sprintf(
			"%d endpoint(s) are never called from the scanned clients. Remove dead routes or wire up the callers.", n))
	}
	if n := byKind[string(domain.IssueEnvVarAdvisory)]; n > 0 {
		s = append(s, fmt.Sprintf(
			"%d call(s) build URLs from unclassified environment variables. Declare them as internal or external in the classification config.", n))
	}
	if n := byKind[string(domain.IssueContractVersion)]; n > 0 {
		s = append(s, fmt.Sprintf(
			"%d shared contract package(s) are pinned at incompatible versions. Converge the client and server on one major version.", n))
	}

	if rep.Stats.Errors >= 5 {
		s = append(s, fmt.Sprintf(
			"Critical: %d broken call path(s) detected. These fail at runtime, fix them first.", rep.Stats.Errors))
	}

	return s
}
