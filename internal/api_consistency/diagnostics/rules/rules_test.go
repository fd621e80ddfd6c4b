package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/routelens/routelens-backend/internal/api_consistency/diagnostics"
	"github.com/routelens/routelens-backend/internal/api_consistency/domain"
	"github.com/routelens/routelens-backend/internal/api_consistency/graph"
)

func TestCycleCheck(t *testing.T) {
	facts := &domain.FactSet{
		Containers: []domain.ContainerNode{
			{ID: "a"}, {ID: "b"}, {ID: "c"},
		},
		Mounts: []domain.MountEdge{
			{Parent: "a", Child: "b", Prefix: "/b"},
			{Parent: "b", Child: "a", Prefix: "/a"},
			{Parent: "a", Child: "c", Prefix: "/c"},
		},
	}
	g, _ := graph.Build(facts)

	got, err := cycles{}.Check(g)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Contains(t, got[0], "mount cycle")
	assert.Contains(t, got[0], "a")
	assert.Contains(t, got[0], "b")
}

func TestSelfMountIsACycle(t *testing.T) {
	facts := &domain.FactSet{
		Containers: []domain.ContainerNode{{ID: "a"}},
		Mounts:     []domain.MountEdge{{Parent: "a", Child: "a", Prefix: "/again"}},
	}
	g, _ := graph.Build(facts)

	got, err := cycles{}.Check(g)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestAcyclicGraphIsQuiet(t *testing.T) {
	facts := &domain.FactSet{
		Containers: []domain.ContainerNode{{ID: "a"}, {ID: "b"}},
		Mounts:     []domain.MountEdge{{Parent: "a", Child: "b", Prefix: "/b"}},
	}
	g, _ := graph.Build(facts)

	got, err := cycles{}.Check(g)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestAmbiguousMountCheck(t *testing.T) {
	facts := &domain.FactSet{
		Containers: []domain.ContainerNode{{ID: "p1"}, {ID: "p2"}, {ID: "child"}},
		Mounts: []domain.MountEdge{
			{Parent: "p1", Child: "child", Prefix: "/x"},
			{Parent: "p2", Child: "child", Prefix: "/y"},
		},
	}
	g, _ := graph.Build(facts)

	got, err := ambiguousMounts{}.Check(g)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Contains(t, got[0], `container "child" has 2 parents`)
}

func TestRunAllIsDeterministic(t *testing.T) {
	facts := &domain.FactSet{
		Containers: []domain.ContainerNode{{ID: "p1"}, {ID: "p2"}, {ID: "child"}},
		Mounts: []domain.MountEdge{
			{Parent: "p1", Child: "child", Prefix: "/x"},
			{Parent: "p2", Child: "child", Prefix: "/y"},
			{Parent: "child", Child: "p1", Prefix: "/loop"},
		},
	}
	g, _ := graph.Build(facts)

	first, err := diagnostics.RunAll(g)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := diagnostics.RunAll(g)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	// checkers run in name order: ambiguous_mounts before mount_cycles
	require.NotEmpty(t, first)
	assert.Contains(t, first[0], "ambiguous mount")
}
