package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// startNative wires the fsnotify fast path: filesystem events on watched
// roots schedule a debounced early scan instead of waiting for the next
// poll tick. The polling loop stays authoritative; if native watching is
// unavailable the watcher degrades to polling only.
//
// Returns a stop function; always safe to call.
func (w *Watcher) startNative(ctx context.Context) func() {
	if w.cfg.DisableNativeEvents {
		return func() {}
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		w.log.Warn("native filesystem events unavailable, polling only", zap.Error(err))
		return func() {}
	}

	for _, root := range w.snapshotRoots() {
		if err := addDirsRecursive(fsw, root); err != nil {
			w.log.Warn("native watch registration failed",
				zap.String("root", root), zap.Error(err))
		}
	}

	scanCtx := context.WithoutCancel(ctx)

	var timerMu sync.Mutex
	var timer *time.Timer
	schedule := func() {
		timerMu.Lock()
		defer timerMu.Unlock()
		fire := func() {
			if ctx.Err() != nil {
				return
			}
			w.scan(scanCtx)
		}
		if timer == nil {
			timer = time.AfterFunc(w.cfg.Debounce, fire)
			return
		}
		timer.Reset(w.cfg.Debounce)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-fsw.Events:
				if !ok {
					return
				}
				// New directories must be registered as they appear; watches
				// are per directory, not recursive.
				if evt.Has(fsnotify.Create) {
					maybeAddDir(fsw, evt.Name)
				}
				if matchesExt(evt.Name, w.cfg.Extensions) {
					w.log.Debug("native event", zap.String("path", evt.Name), zap.Stringer("op", evt.Op))
					schedule()
				}
			case err, ok := <-fsw.Errors:
				if !ok {
					return
				}
				w.log.Warn("native watch error", zap.Error(err))
			}
		}
	}()

	return func() {
		timerMu.Lock()
		if timer != nil {
			timer.Stop()
		}
		timerMu.Unlock()
		if err := fsw.Close(); err != nil {
			w.log.Debug("native watch close failed", zap.Error(err))
		}
	}
}

func addDirsRecursive(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		return fsw.Add(path)
	})
}

func maybeAddDir(fsw *fsnotify.Watcher, path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}
	_ = addDirsRecursive(fsw, path)
}
