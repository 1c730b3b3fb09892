package compiler

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"

	esbuildapi "github.com/evanw/esbuild/pkg/api"

	"github.com/riftpack/rebuildengine/internal/graph"
)

// ESBuildCompiler implements Compiler on top of the real esbuild build
// API. It is deliberately thin: esbuild already does the hard work of
// parsing, transforming, and reporting a module's import records (via its
// metafile output); this adapter's only job is translating that into the
// graph.Module / compiler.ChildDependency shapes the rest of this module
// understands.
type ESBuildCompiler struct {
	OutDir     string
	PublicPath string

	entries map[string]bool
}

// NewESBuildCompiler constructs an adapter that writes full builds to
// outDir and treats the given entry paths as entry points.
func NewESBuildCompiler(outDir, publicPath string, entryPaths map[string]string) *ESBuildCompiler {
	entries := make(map[string]bool, len(entryPaths))
	for _, p := range entryPaths {
		entries[p] = true
	}
	return &ESBuildCompiler{OutDir: outDir, PublicPath: publicPath, entries: entries}
}

type metafile struct {
	Inputs map[string]struct {
		Imports []struct {
			Path     string `json:"path"`
			Kind     string `json:"kind"`
			External bool   `json:"external"`
		} `json:"imports"`
	} `json:"inputs"`
}

func mapImportKind(kind string) graph.DependencyKind {
	switch kind {
	case "require-call", "require-resolve":
		return graph.KindRequire
	case "dynamic-import":
		return graph.KindDynamic
	case "import-rule":
		return graph.KindCSSImport
	case "url-token":
		return graph.KindURL
	default: // "import-statement", "entry-point"
		return graph.KindStatic
	}
}

// BuildModule transforms a single file with esbuild (no bundling — each
// module in the graph is transformed independently; the bundler-shaped
// work of stitching modules together belongs to the planner and linker,
// not to this per-file call) and reads back its import records from the
// generated metafile.
func (c *ESBuildCompiler) BuildModule(ctx context.Context, task BuildTask, resolvers []Resolver) (*graph.Module, []ChildDependency, error) {
	result := esbuildapi.Build(esbuildapi.BuildOptions{
		EntryPoints: []string{task.Path},
		Bundle:      false,
		Write:       false,
		Metafile:    true,
		Outdir:      c.OutDir,
	})
	if len(result.Errors) > 0 {
		return nil, nil, &BuildError{Messages: formatMessages(result.Errors)}
	}

	var contents []byte
	for _, f := range result.OutputFiles {
		if filepath.Ext(f.Path) != ".map" {
			contents = f.Contents
			break
		}
	}

	var meta metafile
	missingDeps := map[string]graph.Dependency{}
	var children []ChildDependency
	if result.Metafile != "" {
		if err := json.Unmarshal([]byte(result.Metafile), &meta); err == nil {
			if in, ok := meta.Inputs[task.Path]; ok {
				for idx, imp := range in.Imports {
					dep := graph.Dependency{Specifier: imp.Path, Kind: mapImportKind(imp.Kind), Index: idx}
					resolved, err := resolveWithAny(ctx, resolvers, task.ModuleId, dep)
					if err != nil {
						missingDeps[imp.Path] = dep
						continue
					}
					children = append(children, ChildDependency{Resource: resolved, Dep: dep})
				}
			}
		}
	}

	mod := &graph.Module{
		Id:          task.ModuleId,
		IsEntry:     task.IsEntry || c.entries[task.Path],
		SideEffects: true,
		Info: &graph.ModuleInfo{
			Path:        task.Path,
			RawHash:     hashBytes(contents),
			MissingDeps: missingDeps,
		},
	}
	return mod, children, nil
}

func resolveWithAny(ctx context.Context, resolvers []Resolver, from graph.ModuleId, dep graph.Dependency) (ResolvedResource, error) {
	var lastErr error
	for _, r := range resolvers {
		resolved, err := r.Resolve(ctx, from, dep)
		if err == nil {
			return resolved, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no resolver configured for %q", dep.Specifier)
	}
	return ResolvedResource{}, lastErr
}

// CreateModule builds a shell node for a resolved child. External
// resources carry no Info; internal ones are a bare entry for the planner
// to later hand to BuildModule.
func (c *ESBuildCompiler) CreateModule(ctx context.Context, resource ResolvedResource, id graph.ModuleId) (*graph.Module, error) {
	if resource.IsExternal {
		return &graph.Module{Id: id}, nil
	}
	return &graph.Module{Id: id}, nil
}

// GenerateHotUpdateChunks transforms the modules named by result
// (Modified and Added) with esbuild and returns an FNV-64a hash over their
// transformed output as the new full hash. It writes no chunk files to
// disk. With no modified or added modules it returns prevFullHash.
func (c *ESBuildCompiler) GenerateHotUpdateChunks(ctx context.Context, result graph.UpdateResult, prevFullHash uint64) (uint64, error) {
	paths := make([]string, 0, len(result.Modified)+len(result.Added))
	for id := range result.Modified {
		paths = append(paths, id.Path())
	}
	for id := range result.Added {
		paths = append(paths, id.Path())
	}
	if len(paths) == 0 {
		return prevFullHash, nil
	}

	build := esbuildapi.Build(esbuildapi.BuildOptions{
		EntryPoints: paths,
		Bundle:      false,
		Write:       false,
	})
	if len(build.Errors) > 0 {
		return prevFullHash, &BuildError{Messages: formatMessages(build.Errors)}
	}

	h := fnv.New64a()
	for _, f := range build.OutputFiles {
		h.Write(f.Contents)
	}
	return h.Sum64(), nil
}

// EmitDevChunks makes sure OutDir exists. It writes no build output into
// it.
func (c *ESBuildCompiler) EmitDevChunks(ctx context.Context) error {
	if err := os.MkdirAll(c.OutDir, 0o755); err != nil {
		return err
	}
	return nil
}

// TransformModules is a no-op that always returns nil; BuildModule already
// re-transforms a module whenever the planner marks it modified.
func (c *ESBuildCompiler) TransformModules(ctx context.Context, changed []graph.ModuleId) error {
	return nil
}

// FullHash always returns 0: this adapter keeps no bundle-wide hash of its
// own.
func (c *ESBuildCompiler) FullHash() uint64 {
	return 0
}

func hashBytes(b []byte) uint64 {
	h := fnv.New64a()
	h.Write(b)
	return h.Sum64()
}

func formatMessages(msgs []esbuildapi.Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Text
	}
	return out
}
