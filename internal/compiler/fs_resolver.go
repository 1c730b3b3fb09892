package compiler

import (
	"context"
	"os"

	"github.com/riftpack/rebuildengine/internal/graph"
)

// FSResolver resolves a dependency's specifier (as already normalized by
// esbuild's own resolution into the metafile's import path) against the
// real filesystem: a specifier that names a file on disk is internal,
// anything else — a bare package name esbuild left external, a Node
// built-in — is treated as an external resource the bundle never touches.
type FSResolver struct{}

func (FSResolver) Resolve(ctx context.Context, from graph.ModuleId, dep graph.Dependency) (ResolvedResource, error) {
	if info, err := os.Stat(dep.Specifier); err == nil && !info.IsDir() {
		return ResolvedResource{ModuleId: graph.FromPath(dep.Specifier), Path: dep.Specifier}, nil
	}
	return ResolvedResource{ModuleId: graph.FromPath(dep.Specifier), Path: dep.Specifier, IsExternal: true}, nil
}
