package netstate

import (
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/godbus/dbus/v5"

	"nmwatch/networkmanager"
)

var errVanished = errors.New("org.freedesktop.DBus.Error.UnknownObject")

type fakeDevice struct {
	mu      sync.Mutex
	path    dbus.ObjectPath
	typ     networkmanager.DeviceType
	state   networkmanager.DeviceState
	ap      dbus.ObjectPath
	addr    networkmanager.Address
	addrErr error
	err     error
}

func newDevice(path dbus.ObjectPath, typ networkmanager.DeviceType, state networkmanager.DeviceState) *fakeDevice {
	return &fakeDevice{path: path, typ: typ, state: state, ap: "/", addrErr: networkmanager.ErrNoAddress}
}

func (d *fakeDevice) update(fn func(d *fakeDevice)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fn(d)
}

func (d *fakeDevice) Path() dbus.ObjectPath { return d.path }

func (d *fakeDevice) Type() (networkmanager.DeviceType, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.typ, d.err
}

func (d *fakeDevice) State() (networkmanager.DeviceState, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state, d.err
}

func (d *fakeDevice) ActiveAccessPoint() (dbus.ObjectPath, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ap, d.err
}

func (d *fakeDevice) IP4Address() (networkmanager.Address, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return networkmanager.Address{}, d.err
	}
	return d.addr, d.addrErr
}

type fakeAP struct {
	mu       sync.Mutex
	path     dbus.ObjectPath
	ssid     string
	bssid    string
	strength uint8
	err      error
}

func (a *fakeAP) Path() dbus.ObjectPath { return a.path }

func (a *fakeAP) SSID() (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ssid, a.err
}

func (a *fakeAP) HwAddress() (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.bssid, a.err
}

func (a *fakeAP) Strength() (uint8, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.strength, a.err
}

func (a *fakeAP) setStrength(s uint8) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.strength = s
}

type fakeConn struct {
	path dbus.ObjectPath
	typ  string
	err  error
}

func (c *fakeConn) Path() dbus.ObjectPath { return c.path }
func (c *fakeConn) Type() (string, error) { return c.typ, c.err }

type fakeNotifier struct {
	c      chan struct{}
	closed chan struct{}
	once   sync.Once
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{c: make(chan struct{}, 1), closed: make(chan struct{})}
}

func (n *fakeNotifier) C() <-chan struct{} { return n.c }

func (n *fakeNotifier) Close() {
	n.once.Do(func() { close(n.closed) })
}

func (n *fakeNotifier) fire() {
	select {
	case n.c <- struct{}{}:
	default:
	}
}

type fakeKey struct {
	path     dbus.ObjectPath
	property string
}

// fakeBus is an in-memory NetworkManager.
type fakeBus struct {
	mu          sync.Mutex
	devicePaths []dbus.ObjectPath
	connPaths   []dbus.ObjectPath
	devices     map[dbus.ObjectPath]*fakeDevice
	aps         map[dbus.ObjectPath]*fakeAP
	conns       map[dbus.ObjectPath]*fakeConn
	listErr     error
	watches     map[fakeKey][]*fakeNotifier
	opened      map[dbus.ObjectPath]int
}

func newFakeBus() *fakeBus {
	return &fakeBus{
		devices: make(map[dbus.ObjectPath]*fakeDevice),
		aps:     make(map[dbus.ObjectPath]*fakeAP),
		conns:   make(map[dbus.ObjectPath]*fakeConn),
		watches: make(map[fakeKey][]*fakeNotifier),
		opened:  make(map[dbus.ObjectPath]int),
	}
}

func (b *fakeBus) addDevice(d *fakeDevice) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.devices[d.path] = d
	b.devicePaths = append(b.devicePaths, d.path)
}

func (b *fakeBus) removeDevice(path dbus.ObjectPath) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.devicePaths = slices.DeleteFunc(b.devicePaths, func(p dbus.ObjectPath) bool { return p == path })
}

func (b *fakeBus) addAP(ap *fakeAP) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.aps[ap.path] = ap
}

func (b *fakeBus) addConn(c *fakeConn) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.conns[c.path] = c
	b.connPaths = append(b.connPaths, c.path)
}

func (b *fakeBus) removeConn(path dbus.ObjectPath) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.connPaths = slices.DeleteFunc(b.connPaths, func(p dbus.ObjectPath) bool { return p == path })
}

func (b *fakeBus) setListErr(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listErr = err
}

func (b *fakeBus) Devices() ([]dbus.ObjectPath, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.listErr != nil {
		return nil, b.listErr
	}
	return slices.Clone(b.devicePaths), nil
}

func (b *fakeBus) ActiveConnections() ([]dbus.ObjectPath, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.listErr != nil {
		return nil, b.listErr
	}
	return slices.Clone(b.connPaths), nil
}

func (b *fakeBus) Device(path dbus.ObjectPath) Device {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.opened[path]++
	if d, ok := b.devices[path]; ok {
		return d
	}
	return &fakeDevice{path: path, err: errVanished}
}

func (b *fakeBus) AccessPoint(path dbus.ObjectPath) AccessPoint {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.opened[path]++
	if ap, ok := b.aps[path]; ok {
		return ap
	}
	return &fakeAP{path: path, err: errVanished}
}

func (b *fakeBus) ActiveConnection(path dbus.ObjectPath) ActiveConnection {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.opened[path]++
	if c, ok := b.conns[path]; ok {
		return c
	}
	return &fakeConn{path: path, err: errVanished}
}

func (b *fakeBus) Watch(path dbus.ObjectPath, _, property string) (Notifier, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := newFakeNotifier()
	k := fakeKey{path, property}
	b.watches[k] = append(b.watches[k], n)
	return n, nil
}

// fire notifies every watcher of path/property.
func (b *fakeBus) fire(path dbus.ObjectPath, property string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, n := range b.watches[fakeKey{path, property}] {
		n.fire()
	}
}

func (b *fakeBus) notifiers(path dbus.ObjectPath, property string) []*fakeNotifier {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.watches[fakeKey{path, property}])
}

func (b *fakeBus) openCount(path dbus.ObjectPath) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.opened[path]
}

// waitWatched blocks until n watches exist for path/property.
func (b *fakeBus) waitWatched(t *testing.T, path dbus.ObjectPath, property string, n int) []*fakeNotifier {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		ns := b.notifiers(path, property)
		if len(ns) >= n {
			return ns
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d watches on %s %s, have %d", n, path, property, len(ns))
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func waitClosed(t *testing.T, n *fakeNotifier) {
	t.Helper()
	select {
	case <-n.closed:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not exit")
	}
}

// waitState reads sub until pred holds.
func waitState(t *testing.T, sub *Subscription, pred func(State) bool) State {
	t.Helper()
	timeout := time.After(2 * time.Second)
	var last State
	for {
		select {
		case s, ok := <-sub.C():
			if !ok {
				t.Fatal("subscription closed")
			}
			if pred(s) {
				return s
			}
			last = s
		case <-timeout:
			t.Fatalf("timed out waiting for state, last: %+v", last)
		}
	}
}
