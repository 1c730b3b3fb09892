// Package graph implements the Module Graph: a directed graph of modules
// with labeled dependency edges, shared across the planner and the dev
// server behind a single reader-writer lock.
package graph

import (
	"sync"

	"github.com/riftpack/rebuildengine/internal/stmt"
)

// ModuleId is the opaque identity of a module, typically a canonical
// filesystem path with an optional query suffix such as "?asmodule" or
// "?modules". Equality and hashing are string-based.
type ModuleId string

// Path returns the filesystem-path portion of the id, stripping any query
// suffix.
func (id ModuleId) Path() string {
	for i := 0; i < len(id); i++ {
		if id[i] == '?' {
			return string(id[:i])
		}
	}
	return string(id)
}

// WithQuery returns a new id for the same path carrying the given query
// suffix (without the leading '?').
func (id ModuleId) WithQuery(query string) ModuleId {
	return ModuleId(id.Path() + "?" + query)
}

// FromPath builds a ModuleId from a canonical filesystem path with no
// query suffix.
func FromPath(path string) ModuleId {
	return ModuleId(path)
}

// DependencyKind is the way one module refers to another.
type DependencyKind uint8

const (
	KindStatic DependencyKind = iota
	KindDynamic
	KindRequire
	KindCSSImport
	KindURL
)

// Dependency labels one edge of the module graph: the specifier as
// written in the importing module, the kind of reference, and its
// ordering index among the importing module's dependencies. Two distinct
// imports of the same target module produce two Dependency values that
// differ only in Index.
type Dependency struct {
	Specifier string
	Kind      DependencyKind
	Index     int
}

// ModuleInfo is the parsed state of a resolved module.
type ModuleInfo struct {
	AST ModuleAST

	Path    string
	RawHash uint64

	// MissingDeps maps an unresolved import's source specifier to the
	// Dependency record describing it.
	MissingDeps map[string]Dependency

	IgnoredDeps []string

	TopLevelAwait bool
	IsAsync       bool

	Statements []*stmt.Statement
}

// ModuleASTKind tags which concrete AST a module carries.
type ModuleASTKind uint8

const (
	ASTScript ModuleASTKind = iota
	ASTStyle
	ASTRawAsset
)

// ModuleAST is the tagged variant of a module's parsed form. The parser
// itself is an external collaborator (see internal/compiler); this type
// only carries whatever that collaborator produced.
type ModuleAST struct {
	Kind ModuleASTKind
	// Opaque carries the parser-specific representation (e.g. a script
	// AST or a style AST) as produced by the external build contract.
	// The core never inspects it directly — only the compiler adapter
	// and the statement-graph builder derived from it do.
	Opaque any
}

// Module is one node of the module graph.
type Module struct {
	Id ModuleId

	IsEntry bool

	// Info is nil for external (non-resolved) modules.
	Info *ModuleInfo

	SideEffects bool
}

// HasInfo reports whether this module was actually resolved and parsed.
func (m *Module) HasInfo() bool { return m.Info != nil }

type edgeList struct {
	targets []ModuleId
	deps    []Dependency
}

// Graph is the shared, mutable module graph. All operations are safe for
// concurrent use: readers may overlap, writers are exclusive.
type Graph struct {
	mu sync.RWMutex

	modules map[ModuleId]*Module

	// outgoing[u] lists, in insertion order, the (v, dep) edges from u.
	outgoing map[ModuleId]*edgeList

	// incoming[v] is the set of modules with an edge to v.
	incoming map[ModuleId]map[ModuleId]struct{}
}

// New returns an empty module graph.
func New() *Graph {
	return &Graph{
		modules:  map[ModuleId]*Module{},
		outgoing: map[ModuleId]*edgeList{},
		incoming: map[ModuleId]map[ModuleId]struct{}{},
	}
}

// HasModule reports whether id is a known node.
func (g *Graph) HasModule(id ModuleId) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.modules[id]
	return ok
}

// GetModule returns the module for id. Calling it for an id that is not
// present is a programmer error — callers are expected to have checked
// HasModule first.
func (g *Graph) GetModule(id ModuleId) *Module {
	g.mu.RLock()
	defer g.mu.RUnlock()
	m, ok := g.modules[id]
	if !ok {
		panic("graph: GetModule called for unknown module " + string(id))
	}
	return m
}

// AddModule inserts m. If m.Id already exists, it is replaced, matching
// ReplaceModule's edge-preserving behavior — see ReplaceModule.
func (g *Graph) AddModule(m *Module) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.modules[m.Id] = m
	if _, ok := g.outgoing[m.Id]; !ok {
		g.outgoing[m.Id] = &edgeList{}
	}
	if _, ok := g.incoming[m.Id]; !ok {
		g.incoming[m.Id] = map[ModuleId]struct{}{}
	}
}

// ReplaceModule replaces the contents of an existing node while
// preserving all of its incident edges (both outgoing and incoming).
func (g *Graph) ReplaceModule(m *Module) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.modules[m.Id] = m
	if _, ok := g.outgoing[m.Id]; !ok {
		g.outgoing[m.Id] = &edgeList{}
	}
	if _, ok := g.incoming[m.Id]; !ok {
		g.incoming[m.Id] = map[ModuleId]struct{}{}
	}
}

// AddDependency appends an edge record from u to v. Multiple distinct dep
// values between the same pair may coexist.
func (g *Graph) AddDependency(u, v ModuleId, dep Dependency) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ensureNodeLocked(u)
	g.ensureNodeLocked(v)

	el := g.outgoing[u]
	el.targets = append(el.targets, v)
	el.deps = append(el.deps, dep)

	g.incoming[v][u] = struct{}{}
}

func (g *Graph) ensureNodeLocked(id ModuleId) {
	if _, ok := g.modules[id]; !ok {
		g.modules[id] = &Module{Id: id}
	}
	if _, ok := g.outgoing[id]; !ok {
		g.outgoing[id] = &edgeList{}
	}
	if _, ok := g.incoming[id]; !ok {
		g.incoming[id] = map[ModuleId]struct{}{}
	}
}

// RemoveDependency removes the edge from u to v whose Dependency equals
// dep. It is a no-op if no such edge exists.
func (g *Graph) RemoveDependency(u, v ModuleId, dep Dependency) {
	g.mu.Lock()
	defer g.mu.Unlock()

	el, ok := g.outgoing[u]
	if !ok {
		return
	}
	for i, t := range el.targets {
		if t == v && el.deps[i] == dep {
			el.targets = append(el.targets[:i], el.targets[i+1:]...)
			el.deps = append(el.deps[:i], el.deps[i+1:]...)
			break
		}
	}

	if !g.hasAnyEdgeLocked(u, v) {
		delete(g.incoming[v], u)
	}
}

func (g *Graph) hasAnyEdgeLocked(u, v ModuleId) bool {
	el, ok := g.outgoing[u]
	if !ok {
		return false
	}
	for _, t := range el.targets {
		if t == v {
			return true
		}
	}
	return false
}

// RemoveModuleAndDeps atomically removes id and every edge incident to it
// (both directions), returning the set of former dependents so the caller
// can schedule them for re-analysis.
func (g *Graph) RemoveModuleAndDeps(id ModuleId) map[ModuleId]struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()

	dependents := map[ModuleId]struct{}{}
	for u := range g.incoming[id] {
		dependents[u] = struct{}{}
		g.removeAllEdgesLocked(u, id)
	}

	if el, ok := g.outgoing[id]; ok {
		for _, v := range el.targets {
			delete(g.incoming[v], id)
		}
	}

	delete(g.modules, id)
	delete(g.outgoing, id)
	delete(g.incoming, id)

	return dependents
}

func (g *Graph) removeAllEdgesLocked(u, v ModuleId) {
	el, ok := g.outgoing[u]
	if !ok {
		return
	}
	newTargets := el.targets[:0]
	newDeps := el.deps[:0]
	for i, t := range el.targets {
		if t != v {
			newTargets = append(newTargets, t)
			newDeps = append(newDeps, el.deps[i])
		}
	}
	el.targets = newTargets
	el.deps = newDeps
}

// DependantModuleIds returns exactly those nodes with an edge to id.
func (g *Graph) DependantModuleIds(id ModuleId) map[ModuleId]struct{} {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make(map[ModuleId]struct{}, len(g.incoming[id]))
	for u := range g.incoming[id] {
		out[u] = struct{}{}
	}
	return out
}

// DependencyEdge pairs a target module with the Dependency label on the
// edge to it.
type DependencyEdge struct {
	To  ModuleId
	Dep Dependency
}

// GetDependencies returns the edges out of id in insertion order, for
// deterministic downstream behavior.
func (g *Graph) GetDependencies(id ModuleId) []DependencyEdge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	el, ok := g.outgoing[id]
	if !ok {
		return nil
	}
	out := make([]DependencyEdge, len(el.targets))
	for i := range el.targets {
		out[i] = DependencyEdge{To: el.targets[i], Dep: el.deps[i]}
	}
	return out
}

// Modules calls fn for every module node. fn must not mutate the graph.
func (g *Graph) Modules(fn func(*Module)) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, m := range g.modules {
		fn(m)
	}
}
