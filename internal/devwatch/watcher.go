// Package devwatch binds a real filesystem watcher (fsnotify) to the
// update planner: it batches raw FS events over a debounce window, drives
// one planner.Update per batch, and broadcasts the resulting full-build
// hash to every connected HMR client.
package devwatch

import (
	"context"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/riftpack/rebuildengine/internal/compiler"
	"github.com/riftpack/rebuildengine/internal/planner"
	"github.com/riftpack/rebuildengine/internal/rebuildlog"
)

// Watcher ties an fsnotify watcher to the planner and the HMR broadcast
// channel.
type Watcher struct {
	fsWatcher   *fsnotify.Watcher
	planner     *planner.Planner
	compiler    compiler.Compiler
	logger      rebuildlog.Logger
	broadcaster *Broadcaster
	debounce    time.Duration

	// lastFullHash is owned by the single goroutine running Run and is
	// never shared across watcher instances — each dev-server process has
	// exactly one watcher, and it tracks its own notion of "the last hash
	// clients were told about".
	lastFullHash uint64
}

// New constructs a Watcher. debounce <= 0 defaults to 100ms, matching the
// batching window most fsnotify-based dev tools use to coalesce a save's
// burst of rename+write+chmod events into one rebuild.
func New(p *planner.Planner, c compiler.Compiler, logger rebuildlog.Logger, debounce time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = 100 * time.Millisecond
	}
	return &Watcher{
		fsWatcher:   fsw,
		planner:     p,
		compiler:    c,
		logger:      logger,
		broadcaster: NewBroadcaster(),
		debounce:    debounce,
	}, nil
}

// Broadcaster exposes the watcher's hash stream for the dev server to
// subscribe to.
func (w *Watcher) Broadcaster() *Broadcaster { return w.broadcaster }

// AddRoot registers a directory tree root with the underlying fsnotify
// watcher. fsnotify does not recurse, so callers add every directory that
// should be watched individually (cmd/rebuildengine adds the parent
// directory of each configured entry path).
func (w *Watcher) AddRoot(dir string) error {
	return w.fsWatcher.Add(dir)
}

// Close releases the underlying OS watch handles.
func (w *Watcher) Close() error {
	return w.fsWatcher.Close()
}

// Run drains fsnotify events, debounces them into batches, and drives one
// planner.Update per batch until ctx is canceled.
func (w *Watcher) Run(ctx context.Context) error {
	pending := map[string]struct{}{}
	var timer *time.Timer
	var timerC <-chan time.Time

	resetTimer := func() {
		if timer == nil {
			timer = time.NewTimer(w.debounce)
		} else {
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(w.debounce)
		}
		timerC = timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			pending[event.Name] = struct{}{}
			resetTimer()

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error(err.Error())

		case <-timerC:
			if len(pending) == 0 {
				continue
			}
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			pending = map[string]struct{}{}
			w.runBatch(ctx, paths)
		}
	}
}

func (w *Watcher) runBatch(ctx context.Context, paths []string) {
	start := time.Now()
	w.logger.Compiling()

	result, err := w.planner.Update(ctx, paths)
	if err != nil {
		w.logger.Error(compiler.CleanBuildErrorText(err.Error()))
		return
	}
	// An empty diff means the batch resolved to nothing the
	// graph cares about (e.g. a touch with no content change that every
	// phase filtered out) — stay quiet rather than spamming a no-op
	// "finished" notice on every keystroke-adjacent save.
	if !result.IsUpdated() {
		return
	}

	// ok_to_report (spec §4.7 step a): a module still missing dependencies
	// means this rebuild isn't a clean success, so suppress the success
	// notices even though chunks may still need to go out below.
	okToReport := !w.planner.ModulesWithMissingDeps()

	newHash, err := w.compiler.GenerateHotUpdateChunks(ctx, result, w.lastFullHash)
	if err != nil {
		w.logger.Error(compiler.CleanBuildErrorText(err.Error()))
		return
	}

	if okToReport {
		w.logger.HotRebuilt()
	}

	// Hash dedup (spec §4.7 step d, §8 scenario 5): two batches that both
	// leave the full hash unchanged must broadcast nothing.
	if newHash == w.lastFullHash {
		return
	}
	w.lastFullHash = newHash

	if err := w.compiler.EmitDevChunks(ctx); err != nil {
		w.logger.Error(compiler.CleanBuildErrorText(err.Error()))
		return
	}

	if okToReport {
		w.logger.FullRebuilt(time.Since(start))
	}
	w.broadcaster.Publish(newHash)
}
