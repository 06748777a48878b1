package watcher

import (
	"sort"
	"strings"
	"time"

	wasmcomposer "github.com/wippyai/wasm-composer"
	"github.com/wippyai/wasm-composer/descriptor"
	cerrors "github.com/wippyai/wasm-composer/errors"
)

// Status labels a registry entry in the combined View.
type Status string

const (
	StatusAvailable Status = "available"
	StatusMissing   Status = "missing"
)

// Entry is one row of the combined registry view.
type Entry struct {
	Path      string
	Status    Status
	Component *descriptor.Component
	LastSeen  time.Time
	RemovedAt time.Time
}

// Stats summarizes the registry for status displays.
type Stats struct {
	Known        int
	Missing      int
	Interfaces   int
	Functions    int
	LastScan     time.Time
	LastFailures int
}

// Known returns deep copies of every known descriptor, sorted by name.
func (w *Watcher) Known() []*descriptor.Component {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]*descriptor.Component, 0, len(w.known))
	for _, entry := range w.known {
		out = append(out, entry.comp.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Path < out[j].Path
	})
	return out
}

// Missing returns deep copies of every missing entry, sorted by name.
func (w *Watcher) Missing() []MissingComponent {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]MissingComponent, 0, len(w.missing))
	for _, entry := range w.missing {
		out = append(out, MissingComponent{
			Component: entry.comp.Clone(),
			RemovedAt: entry.removedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Component.Name != out[j].Component.Name {
			return out[i].Component.Name < out[j].Component.Name
		}
		return out[i].Component.Path < out[j].Component.Path
	})
	return out
}

// IsMissing reports whether a component with the given name is currently
// missing. Matching follows the same relaxed rules as Component.
func (w *Watcher) IsMissing(name string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.findMissing(name)
	return ok
}

// MissingByName returns the missing entry for name, with the same relaxed
// matching as Component.
func (w *Watcher) MissingByName(name string) (MissingComponent, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	path, ok := w.findMissing(name)
	if !ok {
		return MissingComponent{}, false
	}
	entry := w.missing[path]
	return MissingComponent{
		Component: entry.comp.Clone(),
		RemovedAt: entry.removedAt,
	}, true
}

// Forget drops a missing entry by name. Returns false when no missing entry
// matches; known entries are never affected.
func (w *Watcher) Forget(name string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	path, ok := w.findMissing(name)
	if !ok {
		return false
	}
	delete(w.missing, path)
	return true
}

// ClearMissing drops every missing entry and returns how many were dropped.
func (w *Watcher) ClearMissing() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	n := len(w.missing)
	w.missing = make(map[string]*missingEntry)
	return n
}

// Component looks up a known descriptor by name. The match is relaxed in
// stages: exact, then case-insensitive, then ignoring hyphen/underscore
// differences. Returns a deep copy.
func (w *Watcher) Component(name string) (*descriptor.Component, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	var exact, folded, relaxed *knownEntry
	want := relaxName(name)
	for _, entry := range w.known {
		switch {
		case entry.comp.Name == name:
			exact = entry
		case folded == nil && strings.EqualFold(entry.comp.Name, name):
			folded = entry
		case relaxed == nil && relaxName(entry.comp.Name) == want:
			relaxed = entry
		}
	}

	for _, entry := range []*knownEntry{exact, folded, relaxed} {
		if entry != nil {
			return entry.comp.Clone(), nil
		}
	}
	return nil, cerrors.NotFound("component", name)
}

// View returns the combined registry: every known and missing entry, sorted
// by component name then path.
func (w *Watcher) View() []Entry {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]Entry, 0, len(w.known)+len(w.missing))
	for path, entry := range w.known {
		out = append(out, Entry{
			Path:      path,
			Status:    StatusAvailable,
			Component: entry.comp.Clone(),
			LastSeen:  entry.lastSeen,
		})
	}
	for path, entry := range w.missing {
		out = append(out, Entry{
			Path:      path,
			Status:    StatusMissing,
			Component: entry.comp.Clone(),
			RemovedAt: entry.removedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Component.Name != out[j].Component.Name {
			return out[i].Component.Name < out[j].Component.Name
		}
		return out[i].Path < out[j].Path
	})
	return out
}

// Stats returns registry counters and the time of the last completed scan.
func (w *Watcher) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()

	s := Stats{
		Known:        len(w.known),
		Missing:      len(w.missing),
		LastScan:     w.lastScan,
		LastFailures: w.lastFailures,
	}
	for _, entry := range w.known {
		s.Interfaces += len(entry.comp.Interfaces)
		s.Functions += entry.comp.FunctionCount()
	}
	return s
}

// SetExtractor swaps the extraction backend. Takes effect on the next scan;
// already-extracted descriptors are not recomputed until their files change.
func (w *Watcher) SetExtractor(e wasmcomposer.Extractor) {
	if e == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.extractor = e
}

// SetRoots replaces the watched roots. Takes effect on the next scan; files
// under dropped roots will be reported as removed then. The native event
// fast path keeps its original registrations until the watcher is restarted.
func (w *Watcher) SetRoots(roots []string) error {
	if len(roots) == 0 {
		return cerrors.InvalidInput(cerrors.PhaseWatch, "at least one root is required")
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.roots = append([]string(nil), roots...)
	return nil
}

// LastScan returns the completion time of the most recent scan pass, zero
// if none has run.
func (w *Watcher) LastScan() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastScan
}

// findMissing resolves a name to a missing-entry path using the same staged
// matching as Component. Caller holds w.mu.
func (w *Watcher) findMissing(name string) (string, bool) {
	var exact, folded, relaxed string
	var haveFolded, haveRelaxed bool
	want := relaxName(name)
	for path, entry := range w.missing {
		switch {
		case entry.comp.Name == name:
			exact = path
		case !haveFolded && strings.EqualFold(entry.comp.Name, name):
			folded, haveFolded = path, true
		case !haveRelaxed && relaxName(entry.comp.Name) == want:
			relaxed, haveRelaxed = path, true
		}
	}
	switch {
	case exact != "":
		return exact, true
	case haveFolded:
		return folded, true
	case haveRelaxed:
		return relaxed, true
	}
	return "", false
}

func relaxName(name string) string {
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, "_", "-")
	return name
}
