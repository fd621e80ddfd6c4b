package graph

import (
	"fmt"
	"strings"

	"github.com/routelens/routelens-backend/internal/api_consistency/domain"
	"github.com/routelens/routelens-backend/internal/api_consistency/urlnorm"
)

// ResolveFullPath expands an endpoint's local path by walking parent mounts
// from its owning container, prepending each mount prefix. The walk stops at
// a ROOT container (after prepending the prefix it mounted the chain under)
// or at a container with no parent. A container missing from the graph
// resolves to the local path unchanged. Cycles are cut by a visited set and
// reported; a child with several parents follows the first mount by
// declaration order and reports the ambiguity.
func ResolveFullPath(g *domain.Graph, containerID, localPath string) (string, []string) {
	var warnings []string
	full := localPath

	if _, ok := g.Nodes[containerID]; !ok {
		return urlnorm.CleanPath(full), warnings
	}

	visited := map[string]bool{}
	trail := []string{containerID}
	cur := containerID

	for {
		if visited[cur] {
			warnings = append(warnings, fmt.Sprintf(
				"mount cycle detected while resolving %q: %s", containerID, strings.Join(trail, " -> ")))
			break
		}
		visited[cur] = true

		parents := g.In[cur]
		if len(parents) == 0 {
			break
		}
		edge := parents[0]
		if len(parents) > 1 {
			ignored := make([]string, 0, len(parents)-1)
			for _, e := range parents[1:] {
				ignored = append(ignored, e.Parent)
			}
			warnings = append(warnings, fmt.Sprintf(
				"container %q is mounted by multiple parents; using %q, ignoring %s",
				cur, edge.Parent, strings.Join(ignored, ", ")))
		}

		full = joinPaths(edge.Prefix, full)
		cur = edge.Parent
		trail = append(trail, cur)

		if parent, ok := g.Nodes[cur]; ok && parent.Role == domain.RoleRoot {
			break
		}
	}

	return urlnorm.CleanPath(full), warnings
}

// ResolveAll resolves every endpoint in input order. Warnings are deduplicated
// across endpoints, first occurrence kept.
func ResolveAll(g *domain.Graph, endpoints []domain.Endpoint) ([]domain.ResolvedEndpoint, []string) {
	out := make([]domain.ResolvedEndpoint, 0, len(endpoints))
	var warnings []string
	seen := map[string]bool{}

	for i := range endpoints {
		ep := endpoints[i]
		full, ws := ResolveFullPath(g, ep.Container, ep.Path)
		for _, w := range ws {
			if !seen[w] {
				seen[w] = true
				warnings = append(warnings, w)
			}
		}
		out = append(out, domain.ResolvedEndpoint{Endpoint: ep, FullPath: full})
	}
	return out, warnings
}

func joinPaths(prefix, rest string) string {
	p := strings.TrimSuffix(strings.TrimSpace(prefix), "/")
	if !strings.HasPrefix(rest, "/") {
		rest = "/" + rest
	}
	return p + rest
}
