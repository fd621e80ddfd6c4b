package rules

import (
	"fmt"
	"strings"

	"github.com/routelens/routelens-backend/internal/api_consistency/diagnostics"
	"github.com/routelens/routelens-backend/internal/api_consistency/domain"
)

type ambiguousMounts struct{}

func (a ambiguousMounts) Name() string { return "ambiguous_mounts" }

// A child placed by more than one mount edge makes path resolution order
// dependent. Resolution picks the first declared mount; this check surfaces
// every such child so the ambiguity is visible even when no endpoint
// happens to sit on it.
func (a ambiguousMounts) Check(g *domain.Graph) ([]string, error) {
	var out []string
	for _, id := range g.Order {
		parents := g.In[id]
		if len(parents) < 2 {
			continue
		}
		names := make([]string, 0, len(parents))
		for _, e := range parents {
			names = append(names, fmt.Sprintf("%s (prefix %q)", e.Parent, e.Prefix))
		}
		out = append(out, fmt.Sprintf(
			"ambiguous mount: container %q has %d parents: %s",
			id, len(parents), strings.Join(names, ", ")))
	}
	return out, nil
}

func init() { diagnostics.Register(ambiguousMounts{}) }
