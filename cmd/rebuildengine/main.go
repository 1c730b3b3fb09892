// Command rebuildengine wires the configuration, module graph, update
// planner, filesystem watcher, and dev server together into a runnable
// dev-mode process. Flag parsing and other CLI ergonomics are left to
// whatever invokes this binary; main only reads a config file path.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/riftpack/rebuildengine/internal/compiler"
	"github.com/riftpack/rebuildengine/internal/devserver"
	"github.com/riftpack/rebuildengine/internal/devwatch"
	"github.com/riftpack/rebuildengine/internal/graph"
	"github.com/riftpack/rebuildengine/internal/planner"
	"github.com/riftpack/rebuildengine/internal/rebuildconfig"
	"github.com/riftpack/rebuildengine/internal/rebuildlog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	configPath := ""
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	cfg, err := rebuildconfig.Load(configPath)
	if err != nil {
		return err
	}

	logger := rebuildlog.Logger{Color: rebuildlog.ColorIfTerminal}

	esbuildCompiler := compiler.NewESBuildCompiler(cfg.Output, cfg.PublicPath, cfg.Entry)
	g := graph.New()
	p := planner.New(g, esbuildCompiler, []compiler.Resolver{compiler.FSResolver{}}, cfg.Entry, 8)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	entryPaths := make([]string, 0, len(cfg.Entry))
	for _, path := range cfg.Entry {
		entryPaths = append(entryPaths, path)
	}
	if _, err := p.Update(ctx, entryPaths); err != nil {
		return fmt.Errorf("initial build failed: %w", err)
	}
	if err := esbuildCompiler.EmitDevChunks(ctx); err != nil {
		return err
	}

	watcher, err := devwatch.New(p, esbuildCompiler, logger, 0)
	if err != nil {
		return err
	}
	defer watcher.Close()

	roots := map[string]struct{}{}
	for _, path := range entryPaths {
		roots[filepath.Dir(path)] = struct{}{}
	}
	dirs := make([]string, 0, len(roots))
	for dir := range roots {
		dirs = append(dirs, dir)
		if err := watcher.AddRoot(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	logger.Watching(dirs)

	go func() {
		if err := watcher.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error(err.Error())
		}
	}()

	server := devserver.New(cfg.PublicPath, filepath.Join(cfg.Output, "hot"), cfg.Output, watcher.Broadcaster())
	return server.ListenAndServe(cfg.HMRPort)
}
