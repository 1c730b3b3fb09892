package graph_test

import (
	"testing"

	"github.com/riftpack/rebuildengine/internal/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddDependencyCreatesBothEndpoints(t *testing.T) {
	g := graph.New()
	u, v := graph.FromPath("/a.js"), graph.FromPath("/b.js")
	g.AddDependency(u, v, graph.Dependency{Specifier: "./b.js", Kind: graph.KindStatic, Index: 0})

	assert.True(t, g.HasModule(u))
	assert.True(t, g.HasModule(v))
	deps := g.DependantModuleIds(v)
	_, ok := deps[u]
	assert.True(t, ok)
}

func TestTwoDistinctImportsOfSameTargetCoexist(t *testing.T) {
	g := graph.New()
	u, v := graph.FromPath("/a.js"), graph.FromPath("/b.js")
	g.AddDependency(u, v, graph.Dependency{Specifier: "./b.js", Kind: graph.KindStatic, Index: 0})
	g.AddDependency(u, v, graph.Dependency{Specifier: "./b.js", Kind: graph.KindDynamic, Index: 1})

	deps := g.GetDependencies(u)
	require.Len(t, deps, 2)
	assert.Equal(t, 0, deps[0].Dep.Index)
	assert.Equal(t, 1, deps[1].Dep.Index)
}

func TestRemoveDependencyByValueEquality(t *testing.T) {
	g := graph.New()
	u, v := graph.FromPath("/a.js"), graph.FromPath("/b.js")
	dep := graph.Dependency{Specifier: "./b.js", Kind: graph.KindStatic, Index: 0}
	g.AddDependency(u, v, dep)
	g.RemoveDependency(u, v, dep)

	assert.Empty(t, g.GetDependencies(u))
	assert.Empty(t, g.DependantModuleIds(v))
}

func TestReplaceModulePreservesIncidentEdges(t *testing.T) {
	g := graph.New()
	u, v := graph.FromPath("/a.js"), graph.FromPath("/b.js")
	g.AddDependency(u, v, graph.Dependency{Specifier: "./b.js", Kind: graph.KindStatic, Index: 0})

	g.ReplaceModule(&graph.Module{Id: u, IsEntry: true})

	assert.True(t, g.GetModule(u).IsEntry)
	assert.Len(t, g.GetDependencies(u), 1)
}

func TestRemoveModuleAndDepsReturnsDependentsAndCascades(t *testing.T) {
	g := graph.New()
	a, b, c := graph.FromPath("/a.js"), graph.FromPath("/b.js"), graph.FromPath("/c.js")
	g.AddDependency(a, b, graph.Dependency{Specifier: "./b.js", Index: 0})
	g.AddDependency(c, b, graph.Dependency{Specifier: "./b.js", Index: 0})

	dependents := g.RemoveModuleAndDeps(b)

	_, hasA := dependents[a]
	_, hasC := dependents[c]
	assert.True(t, hasA)
	assert.True(t, hasC)
	assert.False(t, g.HasModule(b))
	assert.Empty(t, g.GetDependencies(a))
	assert.Empty(t, g.GetDependencies(c))
}

func TestModuleIdPathAndQuery(t *testing.T) {
	id := graph.FromPath("/a.css")
	withQuery := id.WithQuery("asmodule")
	assert.Equal(t, "/a.css", withQuery.Path())
	assert.Equal(t, graph.ModuleId("/a.css?asmodule"), withQuery)
}
