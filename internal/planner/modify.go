package planner

import (
	"context"
	"sort"
	"sync"

	"github.com/riftpack/rebuildengine/internal/compiler"
	"github.com/riftpack/rebuildengine/internal/graph"
)

// modifyOutcome is one module's diff, computed concurrently in Phase E and
// applied to the graph afterwards, sequentially, so two diffs can never
// interleave edge mutations against the same node.
type modifyOutcome struct {
	id          graph.ModuleId
	newModule   *graph.Module
	addedEdges  []graph.DependencyEdge
	removedEdge []graph.DependencyEdge
	newChildren map[graph.ModuleId]newChildRecord
}

// newChildRecord is a newly-discovered dependency target not yet present
// in the graph. External resources get a shell module and are done;
// internal ones need a follow-up Add-phase build.
type newChildRecord struct {
	module     *graph.Module
	isExternal bool
}

// modify implements Phase E: rebuild every id in modifyIds through the
// compiler, diff its dependency edges against the current graph, and apply
// every diff sequentially. It returns the applied outcomes plus the paths
// of internal children that were not yet in the graph, which feed Phase F.
// An external child that was not yet in the graph gets its shell module
// inserted here and is not returned; a child already in the graph is not
// returned either, even when it has no Info.
func (p *Planner) modify(ctx context.Context, modifyIds []graph.ModuleId) ([]modifyOutcome, []string, error) {
	if len(modifyIds) == 0 {
		return nil, nil, nil
	}

	outcomes := make([]modifyOutcome, len(modifyIds))
	errs := make([]error, len(modifyIds))

	sem := make(chan struct{}, p.Concurrency)
	var wg sync.WaitGroup
	for i, id := range modifyIds {
		wg.Add(1)
		go func(i int, id graph.ModuleId) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			outcomes[i], errs[i] = p.diffModify(ctx, id)
		}(i, id)
	}
	wg.Wait()

	var failed []error
	for _, e := range errs {
		if e != nil {
			failed = append(failed, e)
		}
	}
	if len(failed) > 0 {
		return nil, nil, compiler.JoinBuildErrors(failed)
	}

	var addPaths []string
	for _, o := range outcomes {
		for childId, child := range o.newChildren {
			if !p.Graph.HasModule(childId) {
				p.Graph.AddModule(child.module)
			}
			if !child.isExternal {
				addPaths = append(addPaths, childId.Path())
			}
		}
		for _, edge := range o.removedEdge {
			p.Graph.RemoveDependency(o.id, edge.To, edge.Dep)
		}
		for _, edge := range o.addedEdges {
			p.Graph.AddDependency(o.id, edge.To, edge.Dep)
		}
		p.Graph.ReplaceModule(o.newModule)
		p.syncMissingDeps(o.id, o.newModule)
	}

	sort.Strings(addPaths)
	return outcomes, addPaths, nil
}

func (p *Planner) diffModify(ctx context.Context, id graph.ModuleId) (modifyOutcome, error) {
	path := id.Path()
	task := compiler.BuildTask{ModuleId: id, Path: path, IsEntry: p.isEntryPath(path)}
	newModule, children, err := p.Compiler.BuildModule(ctx, task, p.Resolvers)
	if err != nil {
		return modifyOutcome{}, err
	}

	origin := p.Graph.GetDependencies(id)
	originSet := make(map[edgeKey]struct{}, len(origin))
	for _, e := range origin {
		originSet[edgeKeyOf(e)] = struct{}{}
	}

	target := make([]graph.DependencyEdge, 0, len(children))
	targetSet := make(map[edgeKey]struct{}, len(children))
	newChildren := map[graph.ModuleId]newChildRecord{}
	for _, child := range children {
		edge := graph.DependencyEdge{To: child.Resource.ModuleId, Dep: child.Dep}
		target = append(target, edge)
		targetSet[edgeKeyOf(edge)] = struct{}{}

		if !p.Graph.HasModule(child.Resource.ModuleId) {
			childMod, err := p.Compiler.CreateModule(ctx, child.Resource, child.Resource.ModuleId)
			if err != nil {
				return modifyOutcome{}, err
			}
			newChildren[child.Resource.ModuleId] = newChildRecord{module: childMod, isExternal: child.Resource.IsExternal}
		}
	}

	var added, removed []graph.DependencyEdge
	for _, e := range target {
		if _, ok := originSet[edgeKeyOf(e)]; !ok {
			added = append(added, e)
		}
	}
	for _, e := range origin {
		if _, ok := targetSet[edgeKeyOf(e)]; !ok {
			removed = append(removed, e)
		}
	}

	return modifyOutcome{
		id:          id,
		newModule:   newModule,
		addedEdges:  added,
		removedEdge: removed,
		newChildren: newChildren,
	}, nil
}

type edgeKey struct {
	to  graph.ModuleId
	dep graph.Dependency
}

func edgeKeyOf(e graph.DependencyEdge) edgeKey {
	return edgeKey{to: e.To, dep: e.Dep}
}
