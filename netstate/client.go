package netstate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/godbus/dbus/v5"
	"github.com/sirupsen/logrus"

	"nmwatch/metrics"
	"nmwatch/networkmanager"
)

// Client mirrors NetworkManager's devices and active connections and keeps
// a published State up to date.
//
// Thread Safety:
//   - Subscribe and State may be called from any goroutine, before or during Run.
type Client struct {
	bus     Bus
	log     *logrus.Entry
	metrics *metrics.Metrics

	devices     *Registry[Device]
	connections *Registry[ActiveConnection]
	tracker     *apTracker
	publisher   *Publisher

	ctx     context.Context
	wg      sync.WaitGroup
	running atomic.Bool
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger. The default discards everything.
func WithLogger(log *logrus.Entry) Option {
	return func(c *Client) { c.log = log }
}

// WithMetrics enables instrumentation.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// NewClient returns a client reading from bus. Nothing is queried until Run.
func NewClient(bus Bus, opts ...Option) *Client {
	c := &Client{
		bus:         bus,
		log:         discardLogger(),
		devices:     NewRegistry[Device](),
		connections: NewRegistry[ActiveConnection](),
		publisher:   NewPublisher(State{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.publisher.onCount = c.metrics.SetSubscribers
	c.tracker = newAPTracker(
		bus.AccessPoint,
		func(p dbus.ObjectPath, gen uint64) {
			c.log.WithField("path", p).Debug("tracking access point")
			c.spawnItem("access-point", p, networkmanager.AccessPointInterface, "Strength",
				func() bool { return c.tracker.Current(p, gen) })
		},
		func(p dbus.ObjectPath) {
			c.log.WithField("path", p).Debug("access point released")
		},
	)
	return c
}

func discardLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

// Subscribe returns a subscription that first yields the current state.
func (c *Client) Subscribe() *Subscription {
	return c.publisher.Subscribe()
}

// State returns the latest published state.
func (c *Client) State() State {
	return c.publisher.Current()
}

func (c *Client) deviceList() list[Device] {
	return list[Device]{
		name:     "devices",
		registry: c.devices,
		paths:    c.bus.Devices,
		open:     c.bus.Device,
		onAdded: func(p dbus.ObjectPath) {
			c.spawnItem("device", p, networkmanager.DeviceInterface, "State",
				func() bool { return c.devices.Contains(p) })
		},
	}
}

func (c *Client) connectionList() list[ActiveConnection] {
	return list[ActiveConnection]{
		name:     "active-connections",
		registry: c.connections,
		paths:    c.bus.ActiveConnections,
		open:     c.bus.ActiveConnection,
	}
}

// Run enumerates devices and active connections, publishes the first state
// and then follows changes until ctx is done. Enumeration errors are
// returned; later query errors are only logged.
func (c *Client) Run(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return errors.New("netstate: client already running")
	}
	c.ctx = ctx

	devices := c.deviceList()
	connections := c.connectionList()

	// Subscribe before enumerating so a change in between is not lost.
	devN, err := c.bus.Watch(networkmanager.RootPath, networkmanager.RootInterface, "Devices")
	if err != nil {
		return fmt.Errorf("watching devices: %w", err)
	}
	connN, err := c.bus.Watch(networkmanager.RootPath, networkmanager.RootInterface, "ActiveConnections")
	if err != nil {
		devN.Close()
		return fmt.Errorf("watching active connections: %w", err)
	}

	if err := connections.resync(c); err != nil {
		devN.Close()
		connN.Close()
		return fmt.Errorf("enumerating active connections: %w", err)
	}
	if err := devices.resync(c); err != nil {
		devN.Close()
		connN.Close()
		return fmt.Errorf("enumerating devices: %w", err)
	}
	c.log.WithFields(logrus.Fields{
		"devices":            c.devices.Len(),
		"active_connections": c.connections.Len(),
	}).Info("network state initialised")

	c.update()

	c.wg.Add(2)
	go c.watchList(devN, devices)
	go c.watchList(connN, connections)

	<-ctx.Done()
	c.wg.Wait()
	return nil
}

// update recomputes every technology and publishes the result. A technology
// whose query fails keeps its previous value for this pass.
func (c *Client) update() {
	next := c.publisher.Current()
	devices := c.devices.Items()

	if s, err := wiredState(devices); err != nil {
		c.queryFailed("wired", err)
	} else {
		next.Wired = s
	}

	if s, err := wifiState(devices, c.tracker.Track); err != nil {
		c.queryFailed("wifi", err)
	} else {
		if s.Status != Connected {
			c.tracker.Clear()
		}
		next.Wifi = s
	}

	if s, err := cellularState(devices); err != nil {
		c.queryFailed("cellular", err)
	} else {
		next.Cellular = s
	}

	if s, err := vpnState(c.connections.Items()); err != nil {
		c.queryFailed("vpn", err)
	} else {
		next.VPN = s
	}

	c.publisher.Publish(next)
	c.metrics.Aggregated()
}

func (c *Client) queryFailed(technology string, err error) {
	c.metrics.QueryFailed(technology)
	c.log.WithError(err).WithField("technology", technology).Warn("query failed, keeping previous value")
}
