package networkmanager

import (
	"github.com/godbus/dbus/v5"
)

// Device wraps a NetworkManager device (e.g. /org/freedesktop/NetworkManager/Devices/3).
type Device struct {
	session *Session
	obj     dbus.BusObject
}

// Path returns the device object path.
func (d *Device) Path() dbus.ObjectPath {
	return d.obj.Path()
}

// Type reads the DeviceType property.
func (d *Device) Type() (DeviceType, error) {
	t, err := getProperty[uint32](d.obj, DeviceInterface, "DeviceType")
	return DeviceType(t), err
}

// State reads the State property.
func (d *Device) State() (DeviceState, error) {
	s, err := getProperty[uint32](d.obj, DeviceInterface, "State")
	return DeviceState(s), err
}

// ActiveAccessPoint reads the wireless facet of the device. The result is
// the null path when the device is not associated.
func (d *Device) ActiveAccessPoint() (dbus.ObjectPath, error) {
	return getProperty[dbus.ObjectPath](d.obj, WirelessInterface, "ActiveAccessPoint")
}

// IP4Address returns the first address of the device's IPv4 configuration.
// ErrNoAddress is returned when the device has no configuration or the
// configuration lists no address.
func (d *Device) IP4Address() (Address, error) {
	cfgPath, err := getProperty[dbus.ObjectPath](d.obj, DeviceInterface, "Ip4Config")
	if err != nil {
		return Address{}, err
	}
	if IsNull(cfgPath) {
		return Address{}, ErrNoAddress
	}
	data, err := getProperty[[]map[string]dbus.Variant](d.session.Object(cfgPath), IP4ConfigInterface, "AddressData")
	if err != nil {
		return Address{}, err
	}
	return firstAddress(data)
}
