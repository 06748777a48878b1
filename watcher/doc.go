// Package watcher maintains a live, eventually-consistent inventory of
// component binaries under one or more watched roots.
//
// The authoritative signal is a periodic full listing: each tick lists the
// roots, diffs the result against the known/missing registry, and notifies
// handlers of added, changed and removed paths. Native filesystem events,
// when available, only schedule an earlier tick; the diff itself always runs
// through the same serialized scan, so the registry is never updated by two
// passes at once.
//
// A path is in exactly one of two states: known (present, descriptor
// extracted) or missing (previously known, absent from the latest listing).
// Missing entries keep their last descriptor and a removal timestamp so a
// palette can render ghost nodes; they leave the registry only through
// Forget or ClearMissing, never automatically.
package watcher
