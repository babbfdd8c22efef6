// Package networkmanager reads NetworkManager's object graph over the system D-Bus (Linux only, pure Go).
package networkmanager

import (
	"fmt"

	"github.com/godbus/dbus/v5"
)

const (
	nmDest = "org.freedesktop.NetworkManager"

	RootPath dbus.ObjectPath = "/org/freedesktop/NetworkManager"

	RootInterface             = "org.freedesktop.NetworkManager"
	DeviceInterface           = "org.freedesktop.NetworkManager.Device"
	WirelessInterface         = "org.freedesktop.NetworkManager.Device.Wireless"
	AccessPointInterface      = "org.freedesktop.NetworkManager.AccessPoint"
	ActiveConnectionInterface = "org.freedesktop.NetworkManager.Connection.Active"
	IP4ConfigInterface        = "org.freedesktop.NetworkManager.IP4Config"

	propertiesInterface = "org.freedesktop.DBus.Properties"
	propertiesChanged   = propertiesInterface + ".PropertiesChanged"
)

// nullPath is what NetworkManager reports for an unset object reference.
const nullPath dbus.ObjectPath = "/"

// IsNull reports whether path refers to no object.
func IsNull(path dbus.ObjectPath) bool {
	return path == "" || path == nullPath
}

// DeviceType mirrors NMDeviceType.
type DeviceType uint32

const (
	DeviceTypeUnknown   DeviceType = 0
	DeviceTypeEthernet  DeviceType = 1
	DeviceTypeWifi      DeviceType = 2
	DeviceTypeBluetooth DeviceType = 5
	DeviceTypeOLPCMesh  DeviceType = 6
	DeviceTypeWiMAX     DeviceType = 7
	DeviceTypeModem     DeviceType = 8
	DeviceTypeBond      DeviceType = 10
	DeviceTypeVLAN      DeviceType = 11
	DeviceTypeBridge    DeviceType = 13
	DeviceTypeGeneric   DeviceType = 14
	DeviceTypeTun       DeviceType = 16
	DeviceTypeWireGuard DeviceType = 29
	DeviceTypeLoopback  DeviceType = 32
)

func (t DeviceType) String() string {
	switch t {
	case DeviceTypeEthernet:
		return "ethernet"
	case DeviceTypeWifi:
		return "wifi"
	case DeviceTypeBluetooth:
		return "bluetooth"
	case DeviceTypeOLPCMesh:
		return "olpc-mesh"
	case DeviceTypeWiMAX:
		return "wimax"
	case DeviceTypeModem:
		return "modem"
	case DeviceTypeBond:
		return "bond"
	case DeviceTypeVLAN:
		return "vlan"
	case DeviceTypeBridge:
		return "bridge"
	case DeviceTypeGeneric:
		return "generic"
	case DeviceTypeTun:
		return "tun"
	case DeviceTypeWireGuard:
		return "wireguard"
	case DeviceTypeLoopback:
		return "loopback"
	case DeviceTypeUnknown:
		return "unknown"
	}
	return fmt.Sprintf("type(%d)", uint32(t))
}

// DeviceState mirrors NMDeviceState.
type DeviceState uint32

const (
	DeviceStateUnknown      DeviceState = 0
	DeviceStateUnmanaged    DeviceState = 10
	DeviceStateUnavailable  DeviceState = 20
	DeviceStateDisconnected DeviceState = 30
	DeviceStatePrepare      DeviceState = 40
	DeviceStateConfig       DeviceState = 50
	DeviceStateNeedAuth     DeviceState = 60
	DeviceStateIPConfig     DeviceState = 70
	DeviceStateIPCheck      DeviceState = 80
	DeviceStateSecondaries  DeviceState = 90
	DeviceStateActivated    DeviceState = 100
	DeviceStateDeactivating DeviceState = 110
	DeviceStateFailed       DeviceState = 120
)

// Enabled reports whether the device is managed and usable. A radio that is
// switched off shows up as unavailable.
func (s DeviceState) Enabled() bool {
	switch s {
	case DeviceStateUnknown, DeviceStateUnmanaged, DeviceStateUnavailable:
		return false
	}
	return true
}

func (s DeviceState) String() string {
	switch s {
	case DeviceStateUnknown:
		return "unknown"
	case DeviceStateUnmanaged:
		return "unmanaged"
	case DeviceStateUnavailable:
		return "unavailable"
	case DeviceStateDisconnected:
		return "disconnected"
	case DeviceStatePrepare:
		return "prepare"
	case DeviceStateConfig:
		return "config"
	case DeviceStateNeedAuth:
		return "need-auth"
	case DeviceStateIPConfig:
		return "ip-config"
	case DeviceStateIPCheck:
		return "ip-check"
	case DeviceStateSecondaries:
		return "secondaries"
	case DeviceStateActivated:
		return "activated"
	case DeviceStateDeactivating:
		return "deactivating"
	case DeviceStateFailed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", uint32(s))
}
