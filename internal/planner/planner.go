// Package planner implements the Update Planner (spec §4.6): it
// classifies file-system events, repairs previously-missing dependencies,
// diffs and repairs the module graph, and rebuilds modules through the
// external compiler contract.
package planner

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/riftpack/rebuildengine/internal/compiler"
	"github.com/riftpack/rebuildengine/internal/graph"
)

// StatFunc reports whether path currently exists on disk. Tests inject a
// fake; production wires os.Stat.
type StatFunc func(path string) bool

func defaultStatFunc(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Planner owns the module graph, the missing-deps bookkeeping, and the
// external compiler/resolver collaborators needed to turn a batch of
// changed paths into an UpdateResult.
type Planner struct {
	Graph     *graph.Graph
	Compiler  compiler.Compiler
	Resolvers []compiler.Resolver

	// Entries maps an entry-point name to its path, as configured (spec
	// §6 "entry: mapping<name, path>").
	Entries map[string]string

	Stat StatFunc

	// Concurrency bounds the worker pool used by Phase E (parallel
	// modify) and Phase F (recursive add).
	Concurrency int

	missingMu   sync.Mutex
	missingDeps map[graph.ModuleId]map[string]graph.Dependency
}

// New constructs a Planner. concurrency <= 0 defaults to 4.
func New(g *graph.Graph, c compiler.Compiler, resolvers []compiler.Resolver, entries map[string]string, concurrency int) *Planner {
	if concurrency <= 0 {
		concurrency = 4
	}
	return &Planner{
		Graph:       g,
		Compiler:    c,
		Resolvers:   resolvers,
		Entries:     entries,
		Stat:        defaultStatFunc,
		Concurrency: concurrency,
		missingDeps: map[graph.ModuleId]map[string]graph.Dependency{},
	}
}

type eventKind uint8

const (
	kindAdd eventKind = iota
	kindModify
	kindRemove
)

type classifiedPath struct {
	path string
	kind eventKind
	// id is only meaningful for kindModify and kindRemove: the specific
	// graph node the event targets (which, for a CSS module's synthetic
	// "?asmodule" twin, differs from graph.FromPath(path)).
	id graph.ModuleId
}

func isCSSPath(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".css")
}

func (p *Planner) isEntryPath(path string) bool {
	for _, entryPath := range p.Entries {
		if entryPath == path {
			return true
		}
	}
	return false
}

func (p *Planner) resolveModuleIdForPath(path string) (graph.ModuleId, bool) {
	plain := graph.FromPath(path)
	if p.Graph.HasModule(plain) {
		return plain, true
	}
	asModule := plain.WithQuery("asmodule")
	if p.Graph.HasModule(asModule) {
		return asModule, true
	}
	return "", false
}

// Update runs one classify -> repair -> filter -> remove -> modify -> add
// pass over a batch of changed paths, in that order (spec §5 "Within one
// update call, remove precedes modify precedes add").
func (p *Planner) Update(ctx context.Context, paths []string) (graph.UpdateResult, error) {
	classified := p.classify(paths)
	classified = p.repairMissingDeps(ctx, classified)
	classified = p.filter(classified)

	result := graph.NewUpdateResult()
	modifySet := map[graph.ModuleId]struct{}{}
	for _, c := range classified {
		if c.kind == kindModify {
			modifySet[c.id] = struct{}{}
		}
	}

	// Phase D — remove.
	for _, c := range classified {
		if c.kind != kindRemove {
			continue
		}
		if !p.Graph.HasModule(c.id) {
			continue
		}
		dependents := p.Graph.RemoveModuleAndDeps(c.id)
		result.Removed[c.id] = struct{}{}
		p.forgetMissingDeps(c.id)
		for dep := range dependents {
			if dep == c.id {
				continue
			}
			modifySet[dep] = struct{}{}
		}
	}

	// Phase E — modify (parallel diff computation, sequential apply).
	modifyIds := make([]graph.ModuleId, 0, len(modifySet))
	for id := range modifySet {
		modifyIds = append(modifyIds, id)
	}
	sort.Slice(modifyIds, func(i, j int) bool { return modifyIds[i] < modifyIds[j] })

	applied, addPaths, err := p.modify(ctx, modifyIds)
	if err != nil {
		return graph.UpdateResult{}, err
	}
	for _, a := range applied {
		result.Modified[a.id] = struct{}{}
	}

	// Phase F — add (recursive, worker pool).
	for _, c := range classified {
		if c.kind == kindAdd {
			addPaths = append(addPaths, c.path)
		}
	}
	addedIds, err := p.add(ctx, addPaths)
	if err != nil {
		return graph.UpdateResult{}, err
	}
	for id := range addedIds {
		result.Added[id] = struct{}{}
	}
	// Every originally-listed Add path must appear in the result even if
	// somehow not captured by the recursive walk above.
	for _, c := range classified {
		if c.kind == kindAdd {
			result.Added[graph.FromPath(c.path)] = struct{}{}
		}
	}

	return result, nil
}

// classify implements Phase A.
func (p *Planner) classify(paths []string) []classifiedPath {
	out := make([]classifiedPath, 0, len(paths))
	for _, path := range paths {
		if !p.Stat(path) {
			id, ok := p.resolveModuleIdForPath(path)
			if !ok {
				id = graph.FromPath(path)
			}
			out = append(out, classifiedPath{path: path, kind: kindRemove, id: id})
			continue
		}
		if id, ok := p.resolveModuleIdForPath(path); ok {
			out = append(out, classifiedPath{path: path, kind: kindModify, id: id})
			continue
		}
		out = append(out, classifiedPath{path: path, kind: kindAdd})
	}
	return out
}

// repairMissingDeps implements Phase B: if anything in the batch is an
// Add, every module with outstanding missing deps gets a second chance at
// resolving them.
func (p *Planner) repairMissingDeps(ctx context.Context, classified []classifiedPath) []classifiedPath {
	hasAdd := false
	for _, c := range classified {
		if c.kind == kindAdd {
			hasAdd = true
			break
		}
	}
	if !hasAdd {
		return classified
	}

	p.missingMu.Lock()
	candidates := make(map[graph.ModuleId]map[string]graph.Dependency, len(p.missingDeps))
	for id, deps := range p.missingDeps {
		cp := make(map[string]graph.Dependency, len(deps))
		for k, v := range deps {
			cp[k] = v
		}
		candidates[id] = cp
	}
	p.missingMu.Unlock()

	promoted := map[graph.ModuleId]struct{}{}
	for id, deps := range candidates {
		for specifier, dep := range deps {
			if _, err := resolveAny(ctx, p.Resolvers, id, dep); err != nil {
				continue
			}
			promoted[id] = struct{}{}
			p.clearMissingDep(id, specifier)
		}
	}

	if len(promoted) == 0 {
		return classified
	}
	for id := range promoted {
		classified = append(classified, classifiedPath{path: id.Path(), kind: kindModify, id: id})
	}
	return classified
}

// filter implements Phase C: keep every Add event, drop Modify and Remove
// events for nodes the graph does not hold, and add a synthetic Modify event for a CSS module's
// "?asmodule" twin when it exists.
func (p *Planner) filter(classified []classifiedPath) []classifiedPath {
	out := make([]classifiedPath, 0, len(classified))
	for _, c := range classified {
		if c.kind == kindAdd {
			out = append(out, c)
			continue
		}
		if !p.Graph.HasModule(c.id) {
			continue
		}
		out = append(out, c)
		if c.kind == kindModify && isCSSPath(c.path) {
			asModule := graph.FromPath(c.path).WithQuery("asmodule")
			if asModule != c.id && p.Graph.HasModule(asModule) {
				out = append(out, classifiedPath{path: c.path, kind: kindModify, id: asModule})
			}
		}
	}
	return out
}

func resolveAny(ctx context.Context, resolvers []compiler.Resolver, from graph.ModuleId, dep graph.Dependency) (compiler.ResolvedResource, error) {
	var lastErr error
	for _, r := range resolvers {
		resolved, err := r.Resolve(ctx, from, dep)
		if err == nil {
			return resolved, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = errNoResolvers
	}
	return compiler.ResolvedResource{}, lastErr
}

var errNoResolvers = &noResolverError{}

type noResolverError struct{}

func (*noResolverError) Error() string { return "no resolver available" }

func (p *Planner) syncMissingDeps(id graph.ModuleId, mod *graph.Module) {
	p.missingMu.Lock()
	defer p.missingMu.Unlock()
	if mod.Info == nil || len(mod.Info.MissingDeps) == 0 {
		delete(p.missingDeps, id)
		return
	}
	cp := make(map[string]graph.Dependency, len(mod.Info.MissingDeps))
	for k, v := range mod.Info.MissingDeps {
		cp[k] = v
	}
	p.missingDeps[id] = cp
}

func (p *Planner) clearMissingDep(id graph.ModuleId, specifier string) {
	p.missingMu.Lock()
	defer p.missingMu.Unlock()
	deps, ok := p.missingDeps[id]
	if !ok {
		return
	}
	delete(deps, specifier)
	if len(deps) == 0 {
		delete(p.missingDeps, id)
	}
}

func (p *Planner) forgetMissingDeps(id graph.ModuleId) {
	p.missingMu.Lock()
	defer p.missingMu.Unlock()
	delete(p.missingDeps, id)
}

// ModulesWithMissingDeps reports whether any module currently has
// unresolved dependencies. Used by the watch loop to decide whether a
// rebuild is "ok to report" (spec §4.7).
func (p *Planner) ModulesWithMissingDeps() bool {
	p.missingMu.Lock()
	defer p.missingMu.Unlock()
	return len(p.missingDeps) > 0
}
