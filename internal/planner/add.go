package planner

import (
	"context"
	"sync"

	"github.com/riftpack/rebuildengine/internal/compiler"
	"github.com/riftpack/rebuildengine/internal/graph"
)

// addWalker drives Phase F: a bounded worker pool that recursively builds
// a root path and every dependency it discovers, guarding against cycles
// with a visited set.
type addWalker struct {
	planner *Planner
	ctx     context.Context

	sem chan struct{}
	wg  sync.WaitGroup

	mu      sync.Mutex
	visited map[graph.ModuleId]struct{}
	built   map[graph.ModuleId]struct{}
	errs    []error
}

// add implements Phase F over the given root paths.
func (p *Planner) add(ctx context.Context, paths []string) (map[graph.ModuleId]struct{}, error) {
	if len(paths) == 0 {
		return map[graph.ModuleId]struct{}{}, nil
	}

	w := &addWalker{
		planner: p,
		ctx:     ctx,
		sem:     make(chan struct{}, p.Concurrency),
		visited: map[graph.ModuleId]struct{}{},
		built:   map[graph.ModuleId]struct{}{},
	}
	for _, path := range paths {
		w.schedule(compiler.ResolvedResource{ModuleId: graph.FromPath(path), Path: path})
	}
	w.wg.Wait()

	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.errs) > 0 {
		return nil, compiler.JoinBuildErrors(w.errs)
	}
	return w.built, nil
}

func (w *addWalker) schedule(resource compiler.ResolvedResource) {
	w.mu.Lock()
	if _, seen := w.visited[resource.ModuleId]; seen {
		w.mu.Unlock()
		return
	}
	w.visited[resource.ModuleId] = struct{}{}
	w.mu.Unlock()

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.sem <- struct{}{}
		defer func() { <-w.sem }()
		w.build(resource)
	}()
}

func (w *addWalker) build(resource compiler.ResolvedResource) {
	p := w.planner

	if p.Graph.HasModule(resource.ModuleId) && p.Graph.GetModule(resource.ModuleId).HasInfo() {
		// Already built, e.g. reached via two distinct import paths within
		// the same batch; record it so the result set stays complete but
		// don't redo the work.
		w.recordBuilt(resource.ModuleId)
		return
	}

	if resource.IsExternal {
		mod, err := p.Compiler.CreateModule(w.ctx, resource, resource.ModuleId)
		if err != nil {
			w.recordErr(err)
			return
		}
		p.Graph.AddModule(mod)
		w.recordBuilt(resource.ModuleId)
		return
	}

	task := compiler.BuildTask{ModuleId: resource.ModuleId, Path: resource.Path, IsEntry: p.isEntryPath(resource.Path)}
	mod, children, err := p.Compiler.BuildModule(w.ctx, task, p.Resolvers)
	if err != nil {
		w.recordErr(err)
		return
	}
	p.Graph.AddModule(mod)
	p.syncMissingDeps(resource.ModuleId, mod)
	w.recordBuilt(resource.ModuleId)

	for _, child := range children {
		p.Graph.AddDependency(resource.ModuleId, child.Resource.ModuleId, child.Dep)
		w.schedule(child.Resource)
	}
}

func (w *addWalker) recordErr(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.errs = append(w.errs, err)
}

func (w *addWalker) recordBuilt(id graph.ModuleId) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.built[id] = struct{}{}
}
