package networkmanager

import (
	"fmt"

	"github.com/godbus/dbus/v5"
	"github.com/sirupsen/logrus"
)

// Session owns the system bus connection and the NetworkManager root object.
type Session struct {
	conn    *dbus.Conn
	root    dbus.BusObject
	signals *signalRouter
	log     *logrus.Entry
}

// Connect opens the system bus. There is no retry: a failure here is fatal
// for the caller.
func Connect(log *logrus.Entry) (*Session, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnection, err)
	}

	ch := make(chan *dbus.Signal, 64)
	conn.Signal(ch)

	s := &Session{
		conn:    conn,
		root:    conn.Object(nmDest, RootPath),
		signals: newSignalRouter(busMatcher{conn}, log),
		log:     log,
	}
	go s.signals.run(ch)

	log.WithField("unique_name", conn.Names()).Debug("connected to system bus")
	return s, nil
}

// Close stops every watch and closes the bus connection.
func (s *Session) Close() error {
	s.signals.closeAll()
	return s.conn.Close()
}

// Devices returns the device paths currently listed on the root object.
func (s *Session) Devices() ([]dbus.ObjectPath, error) {
	return getProperty[[]dbus.ObjectPath](s.root, RootInterface, "Devices")
}

// ActiveConnections returns the active connection paths currently listed on the root object.
func (s *Session) ActiveConnections() ([]dbus.ObjectPath, error) {
	return getProperty[[]dbus.ObjectPath](s.root, RootInterface, "ActiveConnections")
}

// Object returns a proxy for an arbitrary NetworkManager object.
func (s *Session) Object(path dbus.ObjectPath) dbus.BusObject {
	return s.conn.Object(nmDest, path)
}

// Device returns a handle bound to a device path.
func (s *Session) Device(path dbus.ObjectPath) *Device {
	return &Device{session: s, obj: s.Object(path)}
}

// AccessPoint returns a handle bound to an access point path.
func (s *Session) AccessPoint(path dbus.ObjectPath) *AccessPoint {
	return &AccessPoint{obj: s.Object(path)}
}

// ActiveConnection returns a handle bound to an active connection path.
func (s *Session) ActiveConnection(path dbus.ObjectPath) *ActiveConnection {
	return &ActiveConnection{obj: s.Object(path)}
}

// Watch subscribes to changes of one property of one object.
func (s *Session) Watch(path dbus.ObjectPath, iface, property string) (*Watch, error) {
	return s.signals.watch(path, iface, property)
}

// getProperty reads iface.name from obj and asserts its Go type.
func getProperty[T any](obj dbus.BusObject, iface, name string) (T, error) {
	var zero T
	var v dbus.Variant
	err := obj.Call(propertiesInterface+".Get", 0, iface, name).Store(&v)
	if err != nil {
		return zero, queryError(obj.Path(), name, err)
	}
	out, ok := v.Value().(T)
	if !ok {
		return zero, queryError(obj.Path(), name, fmt.Errorf("unexpected signature %s", v.Signature()))
	}
	return out, nil
}
