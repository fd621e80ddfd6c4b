// Package diagnostics runs explicit structural checks over the mount graph,
// separate from the resilience guards built into path resolution. Checks
// self-register and run in name order.
package diagnostics

import (
	"fmt"
	"sort"

	"github.com/routelens/routelens-backend/internal/api_consistency/domain"
)

type Checker interface {
	Name() string
	Check(g *domain.Graph) ([]string, error)
}

var registered = map[string]Checker{}

func Register(c Checker) {
	if c == nil {
		return
	}
	registered[c.Name()] = c
}

func All() []Checker {
	out := make([]Checker, 0, len(registered))
	for _, c := range registered {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

func RunAll(g *domain.Graph) ([]string, error) {
	if g == nil {
		return nil, fmt.Errorf("diagnostics: graph is nil")
	}

	var out []string
	for _, c := range All() {
		ws, err := c.Check(g)
		if err != nil {
			return nil, fmt.Errorf("checker %q failed: %w", c.Name(), err)
		}
		out = append(out, ws...)
	}
	return out, nil
}
