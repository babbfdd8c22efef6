package netstate

import (
	"sync"

	"github.com/godbus/dbus/v5"
)

// apTracker holds the access point the strength watcher is bound to. A
// strength watcher is only started when the associated access point changes
// identity. Every replacement bumps the generation, so a watcher started for
// an earlier association exits on its next wake even when the device has
// since returned to the same path.
type apTracker struct {
	mu   sync.RWMutex
	path dbus.ObjectPath
	ap   AccessPoint
	gen  uint64

	open    func(dbus.ObjectPath) AccessPoint
	spawn   func(path dbus.ObjectPath, gen uint64)
	release func(dbus.ObjectPath)
}

func newAPTracker(open func(dbus.ObjectPath) AccessPoint, spawn func(dbus.ObjectPath, uint64), release func(dbus.ObjectPath)) *apTracker {
	return &apTracker{open: open, spawn: spawn, release: release}
}

// Track returns the handle for path, replacing the tracked pair and
// starting a new watcher when path differs from the tracked one.
func (t *apTracker) Track(path dbus.ObjectPath) AccessPoint {
	t.mu.RLock()
	if t.ap != nil && t.path == path {
		ap := t.ap
		t.mu.RUnlock()
		return ap
	}
	t.mu.RUnlock()

	t.mu.Lock()
	if t.ap != nil && t.path == path {
		// Another aggregation installed it first.
		ap := t.ap
		t.mu.Unlock()
		return ap
	}
	old, hadOld := t.path, t.ap != nil
	ap := t.open(path)
	t.gen++
	t.path, t.ap = path, ap
	gen := t.gen
	t.mu.Unlock()

	if hadOld && t.release != nil {
		t.release(old)
	}
	if t.spawn != nil {
		t.spawn(path, gen)
	}
	return ap
}

// Clear drops the tracked pair, if any.
func (t *apTracker) Clear() {
	t.mu.Lock()
	old, hadOld := t.path, t.ap != nil
	if hadOld {
		t.gen++
	}
	t.path, t.ap = "", nil
	t.mu.Unlock()

	if hadOld && t.release != nil {
		t.release(old)
	}
}

// Current reports whether path is still the tracked access point of
// association gen.
func (t *apTracker) Current(path dbus.ObjectPath, gen uint64) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.ap != nil && t.path == path && t.gen == gen
}
