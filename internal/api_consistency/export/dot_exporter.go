package export

import (
	"fmt"
	"strings"

	"github.com/routelens/routelens-backend/internal/api_consistency/domain"
)

// ToDOT renders the mount graph for Graphviz. Nodes come out in first-seen
// order and edges in declaration order so the output is stable across runs.
func ToDOT(g *domain.Graph, title string) string {
	var b strings.Builder
	b.WriteString("digraph mounts {\n  rankdir=LR;\n  node [shape=box, style=rounded];\n")
	if title != "" {
		b.WriteString(fmt.Sprintf(`  labelloc="t"; label="%s"; fontname="Helvetica";`, title))
		b.WriteString("\n")
	}

	for _, id := range g.Order {
		n := g.Nodes[id]
		if n == nil {
			continue
		}
		style := `shape=box,style="rounded,filled",fillcolor="#eef6ff"`
		switch n.Role {
		case domain.RoleRoot:
			style = `shape=box,style="rounded,filled",fillcolor="#d1e7dd"`
		case domain.RoleUnknown:
			style = `shape=box,style="rounded,dashed",fillcolor="#f8f9fa"`
		}
		b.WriteString(fmt.Sprintf(`  "%s" [label="%s\n%s", %s];`+"\n", n.ID, n.Name, n.Role, style))
	}

	for i, e := range g.Edges {
		if e == nil {
			continue
		}
		lbl := e.Prefix
		if lbl == "" {
			lbl = "/"
		}
		b.WriteString(fmt.Sprintf(`  "%s" -> "%s" [label="%s", tooltip="mount#%d"];`+"\n",
			e.Parent, e.Child, lbl, i))
	}

	b.WriteString("}\n")
	return b.String()
}
