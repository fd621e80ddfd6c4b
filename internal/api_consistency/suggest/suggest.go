// Package suggest ranks near-miss route candidates for "did you mean" hints
// on missing-endpoint issues.
package suggest

import (
	"strings"

	"github.com/routelens/routelens-backend/internal/api_consistency/routing"
)

// Threshold is the minimum score for a candidate to be offered at all.
const Threshold = 0.5

type Candidate struct {
	Path   string
	Method string
	Score  float64
}

// Closest scores every known endpoint against the missed call and returns
// the best candidate at or above Threshold. Ties keep the earliest declared
// endpoint so output stays stable across runs.
func Closest(path, method string, entries []routing.Entry) (Candidate, bool) {
	best := Candidate{}
	found := false
	for _, e := range entries {
		score := segmentJaccard(path, e.Endpoint.FullPath) + methodBonus(method, e.Endpoint.Method)
		if score < Threshold {
			continue
		}
		if !found || score > best.Score {
			best = Candidate{Path: e.Endpoint.FullPath, Method: e.Endpoint.Method, Score: score}
			found = true
		}
	}
	return best, found
}

// segmentJaccard computes Jaccard similarity over concrete path segments.
// Parameter segments match anything, so they are excluded from both sets.
func segmentJaccard(a, b string) float64 {
	setA := concreteSegments(a)
	setB := concreteSegments(b)
	if len(setA) == 0 && len(setB) == 0 {
		return 0
	}

	intersection := 0
	for s := range setA {
		if setB[s] {
			intersection++
		}
	}
	union := len(setA)
	for s := range setB {
		if !setA[s] {
			union++
		}
	}
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func concreteSegments(path string) map[string]bool {
	out := map[string]bool{}
	for _, seg := range strings.Split(strings.Trim(path, "/"), "/") {
		if seg == "" {
			continue
		}
		if strings.HasPrefix(seg, ":") || strings.HasPrefix(seg, "*") {
			continue
		}
		if strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}") {
			continue
		}
		out[seg] = true
	}
	return out
}

//	+0.10 when both methods are known and equal
//	 0.00 when either method is unknown
//	-0.15 when both are known and differ
func methodBonus(callMethod, routeMethod string) float64 {
	if callMethod == "" || routeMethod == "" {
		return 0
	}
	if strings.EqualFold(callMethod, routeMethod) {
		return 0.10
	}
	return -0.15
}
