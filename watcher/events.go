package watcher

import (
	"time"

	"go.uber.org/zap"

	"github.com/wippyai/wasm-composer/descriptor"
)

// ChangeType classifies a registry transition.
type ChangeType string

const (
	// Added fires when a path transitions to known, including a missing
	// path that reappeared.
	Added ChangeType = "added"
	// Changed fires when a known path's content fingerprint differs from
	// the previous scan and re-extraction succeeded.
	Changed ChangeType = "changed"
	// Removed fires when a known path is absent from the latest listing.
	Removed ChangeType = "removed"
)

// Change is delivered to handlers for every registry transition.
// Component is populated for added and changed; Missing for removed.
type Change struct {
	Type      ChangeType
	Path      string
	Component *descriptor.Component
	Missing   *MissingComponent
	Timestamp time.Time
}

// MissingComponent is a ghost entry: the last extracted descriptor of a path
// that has disappeared, with the time the disappearance was observed.
type MissingComponent struct {
	Component *descriptor.Component
	RemovedAt time.Time
}

// ChangeHandler receives registry transitions. Handlers run on the scan
// goroutine; panics are caught and logged per handler so one faulty listener
// cannot break delivery to the others or abort the scan.
type ChangeHandler func(Change)

// HandlerID identifies a registered handler for removal.
type HandlerID int

// AddChangeHandler registers h and returns its removal token. Multiple
// handlers receive every change independently, in registration order.
func (w *Watcher) AddChangeHandler(h ChangeHandler) HandlerID {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.nextHandler++
	id := w.nextHandler
	w.handlers[id] = h
	w.handlerOrder = append(w.handlerOrder, id)
	return id
}

// RemoveChangeHandler unregisters the handler with the given token.
// Unknown tokens are a no-op.
func (w *Watcher) RemoveChangeHandler(id HandlerID) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.handlers[id]; !ok {
		return
	}
	delete(w.handlers, id)
	for i, have := range w.handlerOrder {
		if have == id {
			w.handlerOrder = append(w.handlerOrder[:i], w.handlerOrder[i+1:]...)
			break
		}
	}
}

// notify delivers changes to every registered handler, isolating panics.
func (w *Watcher) notify(changes []Change) {
	if len(changes) == 0 {
		return
	}

	w.mu.Lock()
	order := append([]HandlerID(nil), w.handlerOrder...)
	handlers := make(map[HandlerID]ChangeHandler, len(w.handlers))
	for id, h := range w.handlers {
		handlers[id] = h
	}
	w.mu.Unlock()

	for _, c := range changes {
		for _, id := range order {
			h, ok := handlers[id]
			if !ok {
				continue
			}
			w.invoke(id, h, c)
		}
	}
}

func (w *Watcher) invoke(id HandlerID, h ChangeHandler, c Change) {
	defer func() {
		if r := recover(); r != nil {
			w.log.Error("change handler panicked",
				zap.Int("handler", int(id)),
				zap.String("type", string(c.Type)),
				zap.String("path", c.Path),
				zap.Any("panic", r))
		}
	}()
	h(c)
}
