package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/routelens/routelens-backend/internal/api_consistency/domain"
)

func factsABC() *domain.FactSet {
	return &domain.FactSet{
		Containers: []domain.ContainerNode{
			{ID: "app.js:app", Name: "app"},
			{ID: "v1.js:router", Name: "router"},
			{ID: "users.js:usersRouter", Name: "usersRouter"},
		},
		Mounts: []domain.MountEdge{
			{Parent: "app.js:app", Child: "v1.js:router", Prefix: "/v1"},
			{Parent: "v1.js:router", Child: "users.js:usersRouter", Prefix: "/users"},
		},
		Endpoints: []domain.Endpoint{
			{Container: "users.js:usersRouter", Method: "GET", Path: "/:id"},
		},
	}
}

func TestBuildInfersRoles(t *testing.T) {
	g, warnings := Build(factsABC())
	require.Empty(t, warnings)

	assert.Equal(t, domain.RoleRoot, g.Nodes["app.js:app"].Role)
	assert.Equal(t, domain.RoleMountable, g.Nodes["v1.js:router"].Role)
	assert.Equal(t, domain.RoleMountable, g.Nodes["users.js:usersRouter"].Role)
}

func TestChildnessWinsOverParenthood(t *testing.T) {
	facts := factsABC()
	// v1 router both mounts users and is itself mounted: still MOUNTABLE
	g, _ := Build(facts)
	n := g.Nodes["v1.js:router"]
	require.NotEmpty(t, g.Out[n.ID])
	require.NotEmpty(t, g.In[n.ID])
	assert.Equal(t, domain.RoleMountable, n.Role)
}

func TestBuildAutoCreatesReferencedContainers(t *testing.T) {
	facts := &domain.FactSet{
		Mounts: []domain.MountEdge{
			{Parent: "app.js:app", Child: "ghost.js:r", Prefix: "/g"},
		},
		Endpoints: []domain.Endpoint{
			{Container: "lone.js:r", Method: "GET", Path: "/x"},
		},
	}
	g, warnings := Build(facts)

	require.NotNil(t, g.Nodes["app.js:app"])
	require.NotNil(t, g.Nodes["ghost.js:r"])
	require.NotNil(t, g.Nodes["lone.js:r"])
	assert.Equal(t, domain.RoleUnknown, g.Nodes["lone.js:r"].Role)
	assert.Len(t, warnings, 3)
}

func TestBuildSkipsDuplicateMounts(t *testing.T) {
	facts := factsABC()
	facts.Mounts = append(facts.Mounts, facts.Mounts[0])
	g, warnings := Build(facts)

	assert.Len(t, g.Edges, 2)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "duplicate mount")
}

func TestResolveMountChain(t *testing.T) {
	g, _ := Build(factsABC())

	full, warnings := ResolveFullPath(g, "users.js:usersRouter", "/:id")
	assert.Empty(t, warnings)
	assert.Equal(t, "/v1/users/:id", full)
}

func TestResolveStopsAtRootPrefix(t *testing.T) {
	// root mounts v1 at /api; root itself is never mounted, so /api is the
	// outermost prefix
	facts := &domain.FactSet{
		Containers: []domain.ContainerNode{
			{ID: "root", Name: "root"},
			{ID: "v1", Name: "v1"},
		},
		Mounts: []domain.MountEdge{
			{Parent: "root", Child: "v1", Prefix: "/api"},
		},
	}
	g, _ := Build(facts)

	full, _ := ResolveFullPath(g, "v1", "/health")
	assert.Equal(t, "/api/health", full)
}

func TestResolveUnknownContainerKeepsLocalPath(t *testing.T) {
	g, _ := Build(factsABC())
	full, warnings := ResolveFullPath(g, "nope", "/local")
	assert.Empty(t, warnings)
	assert.Equal(t, "/local", full)
}

func TestResolveCycleIsCutWithWarning(t *testing.T) {
	facts := &domain.FactSet{
		Containers: []domain.ContainerNode{
			{ID: "a", Name: "a"}, {ID: "b", Name: "b"},
		},
		Mounts: []domain.MountEdge{
			{Parent: "a", Child: "b", Prefix: "/b"},
			{Parent: "b", Child: "a", Prefix: "/a"},
		},
	}
	g, _ := Build(facts)

	full, warnings := ResolveFullPath(g, "a", "/x")
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "mount cycle")
	assert.Equal(t, "/b/a/x", full)
}

func TestResolveAmbiguousParentUsesFirstDeclared(t *testing.T) {
	facts := &domain.FactSet{
		Containers: []domain.ContainerNode{
			{ID: "app", Name: "app"}, {ID: "admin", Name: "admin"}, {ID: "shared", Name: "shared"},
		},
		Mounts: []domain.MountEdge{
			{Parent: "app", Child: "shared", Prefix: "/public"},
			{Parent: "admin", Child: "shared", Prefix: "/admin"},
		},
	}
	g, _ := Build(facts)

	full, warnings := ResolveFullPath(g, "shared", "/info")
	assert.Equal(t, "/public/info", full)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "multiple parents")
	assert.Contains(t, warnings[0], `"app"`)
}

func TestResolveAll(t *testing.T) {
	facts := factsABC()
	facts.Endpoints = append(facts.Endpoints,
		domain.Endpoint{Container: "v1.js:router", Method: "GET", Path: "/status"})
	g, _ := Build(facts)

	resolved, warnings := ResolveAll(g, facts.Endpoints)
	assert.Empty(t, warnings)
	require.Len(t, resolved, 2)
	assert.Equal(t, "/v1/users/:id", resolved[0].FullPath)
	assert.Equal(t, "/v1/status", resolved[1].FullPath)
}

func TestResolvePathJoiningCollapsesSlashes(t *testing.T) {
	facts := &domain.FactSet{
		Containers: []domain.ContainerNode{
			{ID: "root", Name: "root"}, {ID: "sub", Name: "sub"},
		},
		Mounts: []domain.MountEdge{
			{Parent: "root", Child: "sub", Prefix: "/api/"},
		},
	}
	g, _ := Build(facts)

	full, _ := ResolveFullPath(g, "sub", "users/")
	assert.Equal(t, "/api/users", full)
}
