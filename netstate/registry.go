package netstate

import (
	"sync"

	"github.com/godbus/dbus/v5"
)

// Registry is a set of remote object handles keyed by object path.
// Readers see either the state before or after a Resync, never a partial one.
type Registry[H any] struct {
	mu      sync.RWMutex
	order   []dbus.ObjectPath
	entries map[dbus.ObjectPath]H
}

// NewRegistry returns an empty registry.
func NewRegistry[H any]() *Registry[H] {
	return &Registry[H]{entries: make(map[dbus.ObjectPath]H)}
}

// Resync makes the registry hold exactly paths. Handles for surviving paths
// are reused; factory is called only for new ones. Duplicate paths are
// collapsed. The returned slices list the paths that were added and removed.
func (r *Registry[H]) Resync(paths []dbus.ObjectPath, factory func(dbus.ObjectPath) H) (added, removed []dbus.ObjectPath) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order := make([]dbus.ObjectPath, 0, len(paths))
	entries := make(map[dbus.ObjectPath]H, len(paths))
	for _, p := range paths {
		if _, dup := entries[p]; dup {
			continue
		}
		h, ok := r.entries[p]
		if !ok {
			h = factory(p)
			added = append(added, p)
		}
		entries[p] = h
		order = append(order, p)
	}
	for _, p := range r.order {
		if _, ok := entries[p]; !ok {
			removed = append(removed, p)
		}
	}

	r.order = order
	r.entries = entries
	return added, removed
}

// Contains reports whether path is currently tracked.
func (r *Registry[H]) Contains(path dbus.ObjectPath) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[path]
	return ok
}

// Get returns the handle for path, if tracked.
func (r *Registry[H]) Get(path dbus.ObjectPath) (H, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.entries[path]
	return h, ok
}

// Items returns the handles in the order of the last authoritative path list.
func (r *Registry[H]) Items() []H {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]H, 0, len(r.order))
	for _, p := range r.order {
		out = append(out, r.entries[p])
	}
	return out
}

// Len returns the number of tracked paths.
func (r *Registry[H]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
