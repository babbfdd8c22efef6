package networkmanager

import (
	"fmt"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/sirupsen/logrus"
)

// matcher installs and removes bus match rules.
type matcher interface {
	AddMatch(rule string) error
	RemoveMatch(rule string) error
}

type busMatcher struct {
	conn *dbus.Conn
}

func (m busMatcher) AddMatch(rule string) error {
	return m.conn.BusObject().Call("org.freedesktop.DBus.AddMatch", 0, rule).Err
}

func (m busMatcher) RemoveMatch(rule string) error {
	return m.conn.BusObject().Call("org.freedesktop.DBus.RemoveMatch", 0, rule).Err
}

func matchRule(path dbus.ObjectPath, iface string) string {
	return fmt.Sprintf("type='signal',sender='%s',path='%s',interface='%s',member='PropertiesChanged',arg0='%s'",
		nmDest, path, propertiesInterface, iface)
}

type watchKey struct {
	path  dbus.ObjectPath
	iface string
}

// signalRouter fans PropertiesChanged signals out to the watches registered
// for the emitting object and interface.
type signalRouter struct {
	matcher matcher
	log     *logrus.Entry

	mu      sync.Mutex
	watches map[watchKey]map[*Watch]struct{}
}

func newSignalRouter(m matcher, log *logrus.Entry) *signalRouter {
	return &signalRouter{
		matcher: m,
		log:     log,
		watches: make(map[watchKey]map[*Watch]struct{}),
	}
}

// Watch delivers a notification each time its property changes. Bursts are
// coalesced: at most one notification is pending at any time.
type Watch struct {
	router   *signalRouter
	key      watchKey
	property string
	c        chan struct{}
	once     sync.Once
}

// C returns the notification channel. It is closed when the watch is closed.
func (w *Watch) C() <-chan struct{} {
	return w.c
}

// Close removes the match rule and closes the channel.
func (w *Watch) Close() {
	w.once.Do(func() {
		w.router.remove(w)
	})
}

func (w *Watch) notify() {
	select {
	case w.c <- struct{}{}:
	default:
	}
}

func (r *signalRouter) watch(path dbus.ObjectPath, iface, property string) (*Watch, error) {
	key := watchKey{path: path, iface: iface}
	if err := r.matcher.AddMatch(matchRule(path, iface)); err != nil {
		return nil, fmt.Errorf("AddMatch %s: %w", path, err)
	}
	w := &Watch{
		router:   r,
		key:      key,
		property: property,
		c:        make(chan struct{}, 1),
	}
	r.mu.Lock()
	set, ok := r.watches[key]
	if !ok {
		set = make(map[*Watch]struct{})
		r.watches[key] = set
	}
	set[w] = struct{}{}
	r.mu.Unlock()
	return w, nil
}

func (r *signalRouter) remove(w *Watch) {
	r.mu.Lock()
	set, ok := r.watches[w.key]
	_, present := set[w]
	if present {
		delete(set, w)
		if len(set) == 0 {
			delete(r.watches, w.key)
		}
		close(w.c)
	}
	r.mu.Unlock()
	if !ok || !present {
		return
	}
	if err := r.matcher.RemoveMatch(matchRule(w.key.path, w.key.iface)); err != nil {
		r.log.WithError(err).WithField("path", w.key.path).Debug("RemoveMatch failed")
	}
}

func (r *signalRouter) closeAll() {
	r.mu.Lock()
	var all []*Watch
	for _, set := range r.watches {
		for w := range set {
			all = append(all, w)
		}
	}
	r.mu.Unlock()
	for _, w := range all {
		w.Close()
	}
}

func (r *signalRouter) run(ch <-chan *dbus.Signal) {
	for sig := range ch {
		r.dispatch(sig)
	}
	r.log.Debug("signal channel closed")
}

func (r *signalRouter) dispatch(sig *dbus.Signal) {
	if sig.Name != propertiesChanged || len(sig.Body) < 2 {
		return
	}
	iface, ok := sig.Body[0].(string)
	if !ok {
		return
	}
	changed, ok := sig.Body[1].(map[string]dbus.Variant)
	if !ok {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for w := range r.watches[watchKey{path: sig.Path, iface: iface}] {
		if _, has := changed[w.property]; has {
			w.notify()
		}
	}
}
