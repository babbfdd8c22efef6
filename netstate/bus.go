package netstate

import (
	"github.com/godbus/dbus/v5"

	"nmwatch/networkmanager"
)

// Device is the view of a NetworkManager device the aggregator needs.
type Device interface {
	Path() dbus.ObjectPath
	Type() (networkmanager.DeviceType, error)
	State() (networkmanager.DeviceState, error)
	ActiveAccessPoint() (dbus.ObjectPath, error)
	IP4Address() (networkmanager.Address, error)
}

// AccessPoint is the view of an access point the Wi-Fi policy needs.
type AccessPoint interface {
	Path() dbus.ObjectPath
	SSID() (string, error)
	HwAddress() (string, error)
	Strength() (uint8, error)
}

// ActiveConnection is the view of an active connection the VPN policy needs.
type ActiveConnection interface {
	Path() dbus.ObjectPath
	Type() (string, error)
}

// Notifier delivers change notifications until it is closed.
type Notifier interface {
	C() <-chan struct{}
	Close()
}

// Bus is the upstream boundary: enumeration, handle construction and change
// subscriptions.
type Bus interface {
	Devices() ([]dbus.ObjectPath, error)
	ActiveConnections() ([]dbus.ObjectPath, error)
	Device(path dbus.ObjectPath) Device
	AccessPoint(path dbus.ObjectPath) AccessPoint
	ActiveConnection(path dbus.ObjectPath) ActiveConnection
	Watch(path dbus.ObjectPath, iface, property string) (Notifier, error)
}

// SessionBus exposes a NetworkManager session as a Bus.
func SessionBus(s *networkmanager.Session) Bus {
	return sessionBus{s: s}
}

type sessionBus struct {
	s *networkmanager.Session
}

func (b sessionBus) Devices() ([]dbus.ObjectPath, error) {
	return b.s.Devices()
}

func (b sessionBus) ActiveConnections() ([]dbus.ObjectPath, error) {
	return b.s.ActiveConnections()
}

func (b sessionBus) Device(path dbus.ObjectPath) Device {
	return b.s.Device(path)
}

func (b sessionBus) AccessPoint(path dbus.ObjectPath) AccessPoint {
	return b.s.AccessPoint(path)
}

func (b sessionBus) ActiveConnection(path dbus.ObjectPath) ActiveConnection {
	return b.s.ActiveConnection(path)
}

func (b sessionBus) Watch(path dbus.ObjectPath, iface, property string) (Notifier, error) {
	w, err := b.s.Watch(path, iface, property)
	if err != nil {
		return nil, err
	}
	return w, nil
}
