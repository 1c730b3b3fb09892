// Package compiler defines the external collaborator contracts this
// module depends on but does not itself implement: parsing, code
// generation, and dependency resolution (spec §6). It also provides a
// concrete adapter, ESBuildCompiler, that fulfills the Compiler contract
// using the real github.com/evanw/esbuild build API — the teacher's own
// published library reused as the "parse + transform" collaborator
// rather than reimplemented.
package compiler

import (
	"context"

	"github.com/riftpack/rebuildengine/internal/graph"
)

// BuildTask describes one module to parse and transform.
type BuildTask struct {
	ModuleId graph.ModuleId
	Path     string
	IsEntry  bool
}

// ResolvedResource is the outcome of resolving one dependency: either a
// module the compiler can load, or an external resource left untouched
// by the bundle (e.g. a bare Node built-in).
type ResolvedResource struct {
	ModuleId   graph.ModuleId
	Path       string
	IsExternal bool
}

// Resolver resolves one dependency of an importing module to a concrete
// resource. Resolution failure means "not resolvable yet", which the
// planner folds into a module's missing-deps set rather than treating as
// fatal.
type Resolver interface {
	Resolve(ctx context.Context, from graph.ModuleId, dep graph.Dependency) (ResolvedResource, error)
}

// ChildDependency pairs a resolved target with the Dependency edge label
// pointing to it, as discovered while building a module.
type ChildDependency struct {
	Resource ResolvedResource
	Dep      graph.Dependency
}

// Compiler is the external build contract: parse + transform one module,
// build a graph-node record for a resolved child, and drive the
// hot-update / full-rebuild artifact pipeline once the graph has been
// updated.
type Compiler interface {
	// BuildModule parses and transforms one file, returning the rebuilt
	// module record and the list of dependencies it discovered (each
	// already run through resolvers so ResolvedResource.IsExternal and
	// ResolvedResource.ModuleId are populated; a dependency that could not
	// be resolved at all is instead recorded directly on the returned
	// module's Info.MissingDeps).
	BuildModule(ctx context.Context, task BuildTask, resolvers []Resolver) (*graph.Module, []ChildDependency, error)

	// CreateModule constructs a graph node for a resolved child resource.
	// For an external resource this is a shell module with no Info; for
	// an internal one it is the starting node a later BuildModule call
	// will fill in.
	CreateModule(ctx context.Context, resource ResolvedResource, id graph.ModuleId) (*graph.Module, error)

	// GenerateHotUpdateChunks produces the hot-update chunk files for the
	// given update result and returns the bundle's new full hash.
	GenerateHotUpdateChunks(ctx context.Context, result graph.UpdateResult, prevFullHash uint64) (uint64, error)

	// EmitDevChunks writes the full build output to the configured output
	// directory.
	EmitDevChunks(ctx context.Context) error

	// TransformModules re-transforms the given already-resolved modules,
	// e.g. after a dependency's resolution state changed.
	TransformModules(ctx context.Context, changed []graph.ModuleId) error

	// FullHash returns the current summary hash of the whole bundle.
	FullHash() uint64
}
