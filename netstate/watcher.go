package netstate

import (
	"github.com/godbus/dbus/v5"
	"github.com/sirupsen/logrus"
)

// list describes one path list on the root object and the registry that mirrors it.
type list[H any] struct {
	name     string
	registry *Registry[H]
	paths    func() ([]dbus.ObjectPath, error)
	open     func(dbus.ObjectPath) H
	// onAdded runs for every path that was not tracked before, may be nil.
	onAdded func(dbus.ObjectPath)
}

// watchedList erases the handle type so the client can hold lists of both kinds.
type watchedList interface {
	resync(c *Client) error
	label() string
}

func (l list[H]) label() string { return l.name }

// resync re-reads the authoritative path list and updates the registry.
func (l list[H]) resync(c *Client) error {
	paths, err := l.paths()
	if err != nil {
		return err
	}
	added, removed := l.registry.Resync(paths, l.open)
	if len(added) > 0 || len(removed) > 0 {
		c.log.WithFields(logrus.Fields{
			"list":    l.name,
			"added":   added,
			"removed": removed,
		}).Debug("registry resynced")
	}
	if l.onAdded != nil {
		for _, p := range added {
			l.onAdded(p)
		}
	}
	return nil
}

// watchList waits for "list changed" notifications on the root object, then
// resyncs the registry and recomputes the state. A failed resync is logged
// and the loop keeps waiting.
func (c *Client) watchList(n Notifier, l watchedList) {
	defer c.wg.Done()
	defer n.Close()
	log := c.log.WithField("list", l.label())
	log.Debug("list watcher started")

	for {
		select {
		case <-c.ctx.Done():
			return
		case _, ok := <-n.C():
			if !ok {
				log.Debug("list notifications closed")
				return
			}
		}
		c.metrics.Notification(l.label())

		if err := l.resync(c); err != nil {
			c.metrics.QueryFailed(l.label())
			log.WithError(err).Warn("resync failed")
			continue
		}
		c.update()
	}
}

// spawnItem subscribes to one object's property and starts a watcher for
// it. The subscription is installed before spawnItem returns, so a change
// after the caller's next read is always delivered. The watcher exits on the
// first wake after alive reports false.
func (c *Client) spawnItem(kind string, path dbus.ObjectPath, iface, property string, alive func() bool) {
	log := c.log.WithFields(logrus.Fields{"watcher": kind, "path": path})

	n, err := c.bus.Watch(path, iface, property)
	if err != nil {
		c.metrics.QueryFailed(kind)
		log.WithError(err).Warn("cannot watch item")
		return
	}
	c.wg.Add(1)
	go c.watchItem(kind, n, alive, log)
}

func (c *Client) watchItem(kind string, n Notifier, alive func() bool, log *logrus.Entry) {
	defer c.wg.Done()
	defer n.Close()

	if !alive() {
		log.Warn("item removed before first iteration")
		return
	}

	c.metrics.WatcherStarted(kind)
	defer c.metrics.WatcherStopped(kind)
	log.Debug("item watcher started")

	for {
		select {
		case <-c.ctx.Done():
			return
		case _, ok := <-n.C():
			if !ok {
				return
			}
		}
		c.metrics.Notification(kind)

		if !alive() {
			log.Debug("item no longer present")
			return
		}
		c.update()
	}
}
