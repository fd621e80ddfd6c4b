package rules

import (
	"fmt"
	"strings"

	"github.com/routelens/routelens-backend/internal/api_consistency/diagnostics"
	"github.com/routelens/routelens-backend/internal/api_consistency/domain"
)

type cycles struct{}

func (c cycles) Name() string { return "mount_cycles" }

// Tarjan SCC over mount edges. Components of two or more containers, and any
// container that mounts itself, are reported.
func (c cycles) Check(g *domain.Graph) ([]string, error) {
	index := 0
	stack := []string{}
	onStack := map[string]bool{}
	id := map[string]int{}
	low := map[string]int{}
	var out []string

	var dfs func(v string)
	dfs = func(v string) {
		index++
		id[v], low[v] = index, index
		stack = append(stack, v)
		onStack[v] = true

		for _, e := range g.Out[v] {
			w := e.Child
			if _, seen := id[w]; !seen {
				dfs(w)
				if low[w] < low[v] {
					low[v] = low[w]
				}
			} else if onStack[w] && id[w] < low[v] {
				low[v] = id[w]
			}
		}
		if low[v] == id[v] {
			comp := []string{}
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				comp = append(comp, w)
				if w == v {
					break
				}
			}
			if len(comp) > 1 || selfMount(g, v) {
				out = append(out, fmt.Sprintf(
					"mount cycle: %s", strings.Join(comp, " -> ")))
			}
		}
	}
	for _, v := range g.Order {
		if _, seen := id[v]; !seen {
			dfs(v)
		}
	}
	return out, nil
}

func selfMount(g *domain.Graph, v string) bool {
	for _, e := range g.Out[v] {
		if e.Child == v {
			return true
		}
	}
	return false
}

func init() { diagnostics.Register(cycles{}) }
