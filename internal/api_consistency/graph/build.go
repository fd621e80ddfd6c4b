// Package graph builds the mount graph from extracted facts, infers container
// roles, and resolves endpoint paths through mount chains.
package graph

import (
	"fmt"

	"github.com/routelens/routelens-backend/internal/api_consistency/domain"
)

func ensureNode(g *domain.Graph, id, name, file string) *domain.ContainerNode {
	if n, ok := g.Nodes[id]; ok {
		return n
	}
	n := &domain.ContainerNode{ID: id, Name: name, File: file, Role: domain.RoleUnknown}
	g.AddNode(n)
	return n
}

// Build constructs the graph from facts. Any reference establishes node
// existence: containers named only by a mount or an endpoint are auto-created
// with RoleUnknown and reported once each as warnings. Duplicate mounts are
// dropped with a warning. Edge order follows mount declaration order.
func Build(facts *domain.FactSet) (*domain.Graph, []string) {
	g := domain.NewGraph()
	var warnings []string

	declared := map[string]bool{}
	for i := range facts.Containers {
		c := facts.Containers[i]
		if c.ID == "" {
			warnings = append(warnings, "skipping container fact with empty id")
			continue
		}
		declared[c.ID] = true
		ensureNode(g, c.ID, c.Name, c.File)
	}

	warnedUndeclared := map[string]bool{}
	undeclared := func(id, ref string) {
		if declared[id] || warnedUndeclared[id] {
			return
		}
		warnedUndeclared[id] = true
		warnings = append(warnings, fmt.Sprintf("%s references undeclared container %q", ref, id))
	}

	seenMounts := map[string]bool{}
	order := 0
	for i := range facts.Mounts {
		m := facts.Mounts[i]
		if m.Parent == "" || m.Child == "" {
			warnings = append(warnings, "skipping mount fact with empty parent or child")
			continue
		}
		key := m.Parent + "\x00" + m.Child + "\x00" + m.Prefix
		if seenMounts[key] {
			warnings = append(warnings, fmt.Sprintf(
				"duplicate mount of %q on %q at %q ignored", m.Child, m.Parent, m.Prefix))
			continue
		}
		seenMounts[key] = true

		undeclared(m.Parent, "mount")
		undeclared(m.Child, "mount")
		ensureNode(g, m.Parent, m.Parent, "")
		ensureNode(g, m.Child, m.Child, "")

		g.AddEdge(&domain.MountEdge{
			Parent: m.Parent,
			Child:  m.Child,
			Prefix: m.Prefix,
			Order:  order,
		})
		order++
	}

	for i := range facts.Endpoints {
		ep := facts.Endpoints[i]
		if ep.Container == "" {
			continue
		}
		undeclared(ep.Container, "endpoint")
		ensureNode(g, ep.Container, ep.Container, ep.File)
	}

	InferRoles(g)
	return g, warnings
}

// InferRoles derives each container's role purely from the edge set: a node
// that is ever mounted is MOUNTABLE (child-ness wins over also being a
// parent), a node that only mounts others is ROOT, everything else stays
// UNKNOWN.
func InferRoles(g *domain.Graph) {
	for _, id := range g.Order {
		n := g.Nodes[id]
		switch {
		case len(g.In[id]) > 0:
			n.Role = domain.RoleMountable
		case len(g.Out[id]) > 0:
			n.Role = domain.RoleRoot
		default:
			n.Role = domain.RoleUnknown
		}
	}
}
