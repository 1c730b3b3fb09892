package planner

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riftpack/rebuildengine/internal/compiler"
	"github.com/riftpack/rebuildengine/internal/graph"
)

// fakeCompiler simulates the external parse/transform/resolve collaborator
// entirely in memory, keyed by path. Tests mutate .files between Update
// calls to simulate an edit on disk.
type fakeCompiler struct {
	mu    sync.Mutex
	files map[string][]graph.Dependency
}

func newFakeCompiler() *fakeCompiler {
	return &fakeCompiler{files: map[string][]graph.Dependency{}}
}

func (f *fakeCompiler) set(path string, deps ...graph.Dependency) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[path] = deps
}

func (f *fakeCompiler) BuildModule(ctx context.Context, task compiler.BuildTask, resolvers []compiler.Resolver) (*graph.Module, []compiler.ChildDependency, error) {
	f.mu.Lock()
	deps, ok := f.files[task.Path]
	f.mu.Unlock()
	if !ok {
		return nil, nil, fmt.Errorf("fakeCompiler: no such file %q", task.Path)
	}

	var children []compiler.ChildDependency
	missing := map[string]graph.Dependency{}
	for _, dep := range deps {
		resolved, err := resolveAny(ctx, resolvers, task.ModuleId, dep)
		if err != nil {
			missing[dep.Specifier] = dep
			continue
		}
		children = append(children, compiler.ChildDependency{Resource: resolved, Dep: dep})
	}

	h := fnv.New64a()
	h.Write([]byte(task.Path))
	for _, d := range deps {
		h.Write([]byte(d.Specifier))
	}

	mod := &graph.Module{
		Id:          task.ModuleId,
		IsEntry:     task.IsEntry,
		SideEffects: true,
		Info: &graph.ModuleInfo{
			Path:        task.Path,
			RawHash:     h.Sum64(),
			MissingDeps: missing,
		},
	}
	return mod, children, nil
}

func (f *fakeCompiler) CreateModule(ctx context.Context, resource compiler.ResolvedResource, id graph.ModuleId) (*graph.Module, error) {
	return &graph.Module{Id: id}, nil
}

func (f *fakeCompiler) GenerateHotUpdateChunks(ctx context.Context, result graph.UpdateResult, prevFullHash uint64) (uint64, error) {
	return prevFullHash + 1, nil
}

func (f *fakeCompiler) EmitDevChunks(ctx context.Context) error { return nil }

func (f *fakeCompiler) TransformModules(ctx context.Context, changed []graph.ModuleId) error {
	return nil
}

func (f *fakeCompiler) FullHash() uint64 { return 0 }

// fakeResolver resolves a specifier through a static table. A table value
// of "" means the specifier resolves to an external resource (e.g. a bare
// package import left untouched by the bundle).
type fakeResolver struct {
	mu    sync.Mutex
	table map[string]string
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{table: map[string]string{}}
}

func (r *fakeResolver) set(specifier, path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.table[specifier] = path
}

func (r *fakeResolver) Resolve(ctx context.Context, from graph.ModuleId, dep graph.Dependency) (compiler.ResolvedResource, error) {
	r.mu.Lock()
	path, ok := r.table[dep.Specifier]
	r.mu.Unlock()
	if !ok {
		return compiler.ResolvedResource{}, fmt.Errorf("fakeResolver: cannot resolve %q", dep.Specifier)
	}
	if path == "" {
		return compiler.ResolvedResource{ModuleId: graph.FromPath(dep.Specifier), Path: dep.Specifier, IsExternal: true}, nil
	}
	return compiler.ResolvedResource{ModuleId: graph.FromPath(path), Path: path}, nil
}

func newTestPlanner(c *fakeCompiler, r *fakeResolver, entries map[string]string) *Planner {
	p := New(graph.New(), c, []compiler.Resolver{r}, entries, 4)
	p.Stat = func(path string) bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		_, ok := c.files[path]
		return ok
	}
	return p
}

// Scenario: a fresh Add of an entry point recursively builds its whole
// dependency chain.
func TestUpdateAddBuildsEntryAndTransitiveDeps(t *testing.T) {
	c := newFakeCompiler()
	r := newFakeResolver()
	c.set("/src/entry.js", graph.Dependency{Specifier: "./a.js", Kind: graph.KindStatic})
	c.set("/src/a.js", graph.Dependency{Specifier: "./b.js", Kind: graph.KindStatic})
	c.set("/src/b.js")
	r.set("./a.js", "/src/a.js")
	r.set("./b.js", "/src/b.js")

	p := newTestPlanner(c, r, map[string]string{"main": "/src/entry.js"})

	result, err := p.Update(context.Background(), []string{"/src/entry.js"})
	require.NoError(t, err)

	assert.Contains(t, result.Added, graph.FromPath("/src/entry.js"))
	assert.Contains(t, result.Added, graph.FromPath("/src/a.js"))
	assert.Contains(t, result.Added, graph.FromPath("/src/b.js"))
	assert.Empty(t, result.Modified)
	assert.Empty(t, result.Removed)

	assert.True(t, p.Graph.HasModule(graph.FromPath("/src/entry.js")))
	assert.True(t, p.Graph.HasModule(graph.FromPath("/src/a.js")))
	assert.True(t, p.Graph.HasModule(graph.FromPath("/src/b.js")))
}

// Scenario: modifying a module that drops one dependency and gains another
// diffs and applies exactly that edge delta, and the newly gained
// dependency is itself recursively added.
func TestUpdateModifyDiffsAddedAndRemovedEdges(t *testing.T) {
	c := newFakeCompiler()
	r := newFakeResolver()
	c.set("/src/entry.js", graph.Dependency{Specifier: "./a.js", Kind: graph.KindStatic})
	c.set("/src/a.js")
	c.set("/src/b.js")
	r.set("./a.js", "/src/a.js")
	r.set("./b.js", "/src/b.js")

	p := newTestPlanner(c, r, map[string]string{"main": "/src/entry.js"})
	_, err := p.Update(context.Background(), []string{"/src/entry.js"})
	require.NoError(t, err)
	require.Len(t, p.Graph.GetDependencies(graph.FromPath("/src/entry.js")), 1)

	// Edit entry.js: drop the import of a.js, add one for b.js.
	c.set("/src/entry.js", graph.Dependency{Specifier: "./b.js", Kind: graph.KindStatic})

	result, err := p.Update(context.Background(), []string{"/src/entry.js"})
	require.NoError(t, err)
	assert.Contains(t, result.Modified, graph.FromPath("/src/entry.js"))

	edges := p.Graph.GetDependencies(graph.FromPath("/src/entry.js"))
	require.Len(t, edges, 1)
	assert.Equal(t, graph.FromPath("/src/b.js"), edges[0].To)
}

// Scenario: removing a module cascades a Modify event to its former
// dependents so they get a chance to rebuild without the dangling edge.
func TestUpdateRemoveCascadesToDependents(t *testing.T) {
	c := newFakeCompiler()
	r := newFakeResolver()
	c.set("/src/entry.js", graph.Dependency{Specifier: "./a.js", Kind: graph.KindStatic})
	c.set("/src/a.js")
	r.set("./a.js", "/src/a.js")

	p := newTestPlanner(c, r, map[string]string{"main": "/src/entry.js"})
	_, err := p.Update(context.Background(), []string{"/src/entry.js"})
	require.NoError(t, err)

	delete(c.files, "/src/a.js")
	c.set("/src/entry.js") // entry no longer imports anything once rebuilt

	result, err := p.Update(context.Background(), []string{"/src/a.js"})
	require.NoError(t, err)

	assert.Contains(t, result.Removed, graph.FromPath("/src/a.js"))
	assert.Contains(t, result.Modified, graph.FromPath("/src/entry.js"))
	assert.False(t, p.Graph.HasModule(graph.FromPath("/src/a.js")))
	assert.Empty(t, p.Graph.GetDependencies(graph.FromPath("/src/entry.js")))
}

// Scenario: a module with an unresolvable dependency records it as
// missing; once the target file is later added, the next Update (any Add
// in the same batch triggers the repair scan) promotes the owner to
// Modify and clears the bookkeeping.
func TestUpdateRepairsMissingDepsOnLaterAdd(t *testing.T) {
	c := newFakeCompiler()
	r := newFakeResolver()
	c.set("/src/entry.js", graph.Dependency{Specifier: "./late.js", Kind: graph.KindStatic})
	// "./late.js" is not yet in r's table: it cannot be resolved.

	p := newTestPlanner(c, r, map[string]string{"main": "/src/entry.js"})
	_, err := p.Update(context.Background(), []string{"/src/entry.js"})
	require.NoError(t, err)
	assert.True(t, p.ModulesWithMissingDeps())

	// Now the file shows up on disk and becomes resolvable.
	c.set("/src/late.js")
	r.set("./late.js", "/src/late.js")

	result, err := p.Update(context.Background(), []string{"/src/late.js"})
	require.NoError(t, err)

	assert.Contains(t, result.Added, graph.FromPath("/src/late.js"))
	assert.Contains(t, result.Modified, graph.FromPath("/src/entry.js"))
	assert.False(t, p.ModulesWithMissingDeps())

	edges := p.Graph.GetDependencies(graph.FromPath("/src/entry.js"))
	require.Len(t, edges, 1)
	assert.Equal(t, graph.FromPath("/src/late.js"), edges[0].To)
}

// Scenario: editing a CSS module that has a companion "?asmodule" node in
// the graph also schedules that companion for rebuild.
func TestUpdateModifyCSSSchedulesAsModuleTwin(t *testing.T) {
	c := newFakeCompiler()
	r := newFakeResolver()
	c.set("/src/style.css")
	c.set("/src/style.css?asmodule")

	p := newTestPlanner(c, r, map[string]string{"main": "/src/style.css"})
	p.Graph.AddModule(&graph.Module{Id: graph.FromPath("/src/style.css"), Info: &graph.ModuleInfo{Path: "/src/style.css"}})
	p.Graph.AddModule(&graph.Module{Id: graph.FromPath("/src/style.css").WithQuery("asmodule"), Info: &graph.ModuleInfo{Path: "/src/style.css?asmodule"}})

	result, err := p.Update(context.Background(), []string{"/src/style.css"})
	require.NoError(t, err)

	assert.Contains(t, result.Modified, graph.FromPath("/src/style.css"))
	assert.Contains(t, result.Modified, graph.FromPath("/src/style.css").WithQuery("asmodule"))
}

// Scenario: an external specifier (resolver table value "") never enters
// the Add queue for a real rebuild — it is recorded as a shell module.
func TestUpdateExternalDependencyIsNotBuilt(t *testing.T) {
	c := newFakeCompiler()
	r := newFakeResolver()
	c.set("/src/entry.js", graph.Dependency{Specifier: "left-pad", Kind: graph.KindRequire})
	r.set("left-pad", "")

	p := newTestPlanner(c, r, map[string]string{"main": "/src/entry.js"})
	result, err := p.Update(context.Background(), []string{"/src/entry.js"})
	require.NoError(t, err)

	assert.Contains(t, result.Added, graph.FromPath("/src/entry.js"))
	assert.Contains(t, result.Added, graph.FromPath("left-pad"))
	mod := p.Graph.GetModule(graph.FromPath("left-pad"))
	assert.False(t, mod.HasInfo())
}
