package networkmanager

import (
	"strings"

	"github.com/godbus/dbus/v5"
)

// AccessPoint wraps a NetworkManager access point object.
type AccessPoint struct {
	obj dbus.BusObject
}

// Path returns the access point object path.
func (a *AccessPoint) Path() dbus.ObjectPath {
	return a.obj.Path()
}

// SSID reads the Ssid byte array. Invalid UTF-8 is replaced rather than rejected.
func (a *AccessPoint) SSID() (string, error) {
	b, err := getProperty[[]byte](a.obj, AccessPointInterface, "Ssid")
	if err != nil {
		return "", err
	}
	return decodeSSID(b), nil
}

// HwAddress reads the BSSID, e.g. AA:BB:CC:DD:EE:FF.
func (a *AccessPoint) HwAddress() (string, error) {
	return getProperty[string](a.obj, AccessPointInterface, "HwAddress")
}

// Strength reads the signal quality in percent.
func (a *AccessPoint) Strength() (uint8, error) {
	return getProperty[uint8](a.obj, AccessPointInterface, "Strength")
}

func decodeSSID(b []byte) string {
	return strings.ToValidUTF8(string(b), "�")
}

// ActiveConnection wraps a NetworkManager active connection object.
type ActiveConnection struct {
	obj dbus.BusObject
}

// Path returns the active connection object path.
func (c *ActiveConnection) Path() dbus.ObjectPath {
	return c.obj.Path()
}

// Type reads the connection type, e.g. "802-11-wireless", "vpn" or "wireguard".
func (c *ActiveConnection) Type() (string, error) {
	return getProperty[string](c.obj, ActiveConnectionInterface, "Type")
}
