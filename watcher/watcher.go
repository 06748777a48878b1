package watcher

import (
	"context"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	wasmcomposer "github.com/wippyai/wasm-composer"
	"github.com/wippyai/wasm-composer/descriptor"
	cerrors "github.com/wippyai/wasm-composer/errors"
)

// fingerprint captures the content identity of a listed file. A mismatch
// against the previous scan triggers re-extraction and a Changed event.
type fingerprint struct {
	size    int64
	modTime int64 // UnixNano
}

type knownEntry struct {
	comp     *descriptor.Component
	lastSeen time.Time
	fp       fingerprint
}

type missingEntry struct {
	comp      *descriptor.Component
	removedAt time.Time
}

// Watcher owns the known/missing registry for a set of watched roots.
// Construct with New; one instance per watch session.
type Watcher struct {
	mu           sync.Mutex
	cfg          Config
	roots        []string
	extractor    wasmcomposer.Extractor
	known        map[string]*knownEntry
	missing      map[string]*missingEntry
	handlers     map[HandlerID]ChangeHandler
	handlerOrder []HandlerID
	nextHandler  HandlerID
	running      bool
	cancel       context.CancelFunc
	lastScan     time.Time
	lastFailures int

	// scanning serializes scan passes: a tick that fires while a pass is in
	// flight is skipped, never overlapped.
	scanning atomic.Bool

	log *zap.Logger
}

// New creates a Watcher from the given Config. The watcher does not scan
// until Start is called; ScanDirectory works without starting.
func New(cfg Config) (*Watcher, error) {
	if len(cfg.Roots) == 0 {
		return nil, cerrors.InvalidInput(cerrors.PhaseWatch, "at least one root is required")
	}

	c := cfg.withDefaults()
	return &Watcher{
		cfg:       c,
		roots:     append([]string(nil), c.Roots...),
		extractor: c.Extractor,
		known:     make(map[string]*knownEntry),
		missing:   make(map[string]*missingEntry),
		handlers:  make(map[HandlerID]ChangeHandler),
		log:       c.Logger,
	}, nil
}

// Start begins an initial full scan followed by a recurring scan on the
// configured interval. Calling Start while already running is a no-op.
//
// The provided context bounds the watch session: cancelling it is
// equivalent to Stop.
func (w *Watcher) Start(ctx context.Context) {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	w.running = true
	w.cancel = cancel
	w.mu.Unlock()

	go w.run(runCtx)
}

// Stop cancels the recurring scan. Idempotent. An in-flight scan is not
// interrupted; its notifications may still be delivered shortly after Stop
// returns, which callers must tolerate.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}
	w.running = false
	w.cancel()
	w.cancel = nil
}

// Running reports whether the recurring scan is active.
func (w *Watcher) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *Watcher) run(ctx context.Context) {
	stopNative := w.startNative(ctx)
	defer stopNative()

	// Scans deliberately outlive ctx: stopping cancels the timer, not a
	// pass that already started.
	scanCtx := context.WithoutCancel(ctx)

	w.log.Info("watcher started",
		zap.Strings("roots", w.snapshotRoots()),
		zap.Duration("interval", w.cfg.PollInterval))

	w.scan(scanCtx)

	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info("watcher stopped")
			return
		case <-ticker.C:
			w.scan(scanCtx)
		}
	}
}

// ScanDirectory performs one full listing and extraction pass over root
// without touching the registry. It fails with a no_components error when
// the listing matches nothing, aggregates per-file extraction failures, and
// fails with no_valid_components only when every file failed.
func (w *Watcher) ScanDirectory(ctx context.Context, root string) ([]*descriptor.Component, error) {
	w.mu.Lock()
	exts := w.cfg.Extensions
	extractor := w.extractor
	w.mu.Unlock()

	files, err := listRoot(root, exts)
	if err != nil {
		return nil, cerrors.ScanFailed(root, err)
	}
	if len(files) == 0 {
		return nil, cerrors.NoComponentsFound(root)
	}

	var comps []*descriptor.Component
	failures := 0
	for _, f := range files {
		comp, err := extractor.Extract(ctx, f.path)
		if err != nil {
			failures++
			w.log.Warn("extraction failed",
				zap.String("path", f.path),
				zap.String("backend", extractor.Name()),
				zap.Error(err))
			continue
		}
		comps = append(comps, comp)
	}

	if len(comps) == 0 {
		return nil, cerrors.NoValidComponents(root, failures)
	}
	return comps, nil
}

// scan is one full tick: list every root, extract what is new or changed,
// then diff against the registry under the lock and notify handlers.
// Passes are serialized; a tick firing mid-pass is skipped and the next
// tick retries.
func (w *Watcher) scan(ctx context.Context) {
	if !w.scanning.CompareAndSwap(false, true) {
		w.log.Debug("scan already in progress, skipping tick")
		return
	}
	defer w.scanning.Store(false)

	w.mu.Lock()
	roots := append([]string(nil), w.roots...)
	exts := w.cfg.Extensions
	extractor := w.extractor
	w.mu.Unlock()

	// Listing phase: one consistent snapshot of every root before any
	// registry mutation.
	listing := make(map[string]fingerprint)
	var order []string
	for _, root := range roots {
		files, err := listRoot(root, exts)
		if err != nil {
			w.log.Warn("listing failed", zap.String("root", root), zap.Error(err))
			continue
		}
		for _, f := range files {
			if _, dup := listing[f.path]; dup {
				continue
			}
			listing[f.path] = f.fp
			order = append(order, f.path)
		}
	}

	// Decide which paths need extraction: unseen paths and known paths
	// whose fingerprint moved.
	w.mu.Lock()
	var toExtract []string
	for _, path := range order {
		entry, ok := w.known[path]
		if !ok || entry.fp != listing[path] {
			toExtract = append(toExtract, path)
		}
	}
	w.mu.Unlock()

	// Extraction phase: sequential, per-file failures are logged and the
	// file is left untracked until a later tick succeeds.
	extracted := make(map[string]*descriptor.Component)
	failures := 0
	for _, path := range toExtract {
		comp, err := extractor.Extract(ctx, path)
		if err != nil {
			failures++
			w.log.Warn("extraction failed",
				zap.String("path", path),
				zap.String("backend", extractor.Name()),
				zap.Error(err))
			continue
		}
		extracted[path] = comp
	}

	now := time.Now()
	var changes []Change

	w.mu.Lock()

	// Known paths absent from the listing transition to missing.
	var removed []string
	for path := range w.known {
		if _, present := listing[path]; !present {
			removed = append(removed, path)
		}
	}
	sort.Strings(removed)
	for _, path := range removed {
		entry := w.known[path]
		delete(w.known, path)
		w.missing[path] = &missingEntry{comp: entry.comp, removedAt: now}
		changes = append(changes, Change{
			Type:      Removed,
			Path:      path,
			Missing:   &MissingComponent{Component: entry.comp.Clone(), RemovedAt: now},
			Timestamp: now,
		})
		w.log.Info("component missing", zap.String("path", path), zap.String("name", entry.comp.Name))
	}

	// Listed paths: refresh, replace on content change, or admit as known.
	for _, path := range order {
		fp := listing[path]

		if entry, ok := w.known[path]; ok {
			if entry.fp == fp {
				entry.lastSeen = now
				continue
			}
			comp, ok := extracted[path]
			if !ok {
				// Re-extraction failed; keep the stale descriptor and old
				// fingerprint so the next tick retries.
				continue
			}
			w.known[path] = &knownEntry{comp: comp, lastSeen: now, fp: fp}
			changes = append(changes, Change{
				Type:      Changed,
				Path:      path,
				Component: comp.Clone(),
				Timestamp: now,
			})
			w.log.Info("component changed", zap.String("path", path), zap.String("name", comp.Name))
			continue
		}

		comp, ok := extracted[path]
		if !ok {
			continue
		}
		delete(w.missing, path)
		w.known[path] = &knownEntry{comp: comp, lastSeen: now, fp: fp}
		changes = append(changes, Change{
			Type:      Added,
			Path:      path,
			Component: comp.Clone(),
			Timestamp: now,
		})
		w.log.Info("component added", zap.String("path", path), zap.String("name", comp.Name))
	}

	w.lastScan = now
	w.lastFailures = failures
	w.mu.Unlock()

	w.notify(changes)
}

func (w *Watcher) snapshotRoots() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.roots...)
}

type listedFile struct {
	path string
	fp   fingerprint
}

// listRoot walks root and returns matching files in lexical order, with
// their content fingerprints.
func listRoot(root string, exts []string) ([]listedFile, error) {
	var out []listedFile
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			// Skip inaccessible entries rather than aborting the listing.
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !matchesExt(path, exts) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		out = append(out, listedFile{
			path: path,
			fp:   fingerprint{size: info.Size(), modTime: info.ModTime().UnixNano()},
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func matchesExt(path string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if ext == strings.ToLower(e) {
			return true
		}
	}
	return false
}
