package netstate

import (
	"errors"

	"github.com/godbus/dbus/v5"

	"nmwatch/networkmanager"
)

// Each policy scans devices in registry order and stops at the first device
// that satisfies its strongest condition. Any query error aborts the policy
// so the caller can keep the previous value.

func wiredState(devices []Device) (Status, error) {
	present := false
	for _, d := range devices {
		t, err := d.Type()
		if err != nil {
			return Unknown, err
		}
		if t != networkmanager.DeviceTypeEthernet {
			continue
		}
		present = true
		s, err := d.State()
		if err != nil {
			return Unknown, err
		}
		if s == networkmanager.DeviceStateActivated {
			return Connected, nil
		}
	}
	if present {
		return Disconnected, nil
	}
	return NotPresent, nil
}

func cellularState(devices []Device) (Status, error) {
	present, enabled := false, false
	for _, d := range devices {
		t, err := d.Type()
		if err != nil {
			return Unknown, err
		}
		if t != networkmanager.DeviceTypeModem {
			continue
		}
		present = true
		s, err := d.State()
		if err != nil {
			return Unknown, err
		}
		if s == networkmanager.DeviceStateActivated {
			return Connected, nil
		}
		if s.Enabled() {
			enabled = true
		}
	}
	switch {
	case enabled:
		return Disconnected, nil
	case present:
		return Disabled, nil
	}
	return NotPresent, nil
}

// wifiState resolves the associated access point through track, which owns
// the strength watcher for it.
func wifiState(devices []Device, track func(dbus.ObjectPath) AccessPoint) (WifiState, error) {
	present, enabled := false, false
	for _, d := range devices {
		t, err := d.Type()
		if err != nil {
			return WifiState{}, err
		}
		if t != networkmanager.DeviceTypeWifi {
			continue
		}
		present = true
		s, err := d.State()
		if err != nil {
			return WifiState{}, err
		}
		if !s.Enabled() {
			continue
		}
		enabled = true

		apPath, err := d.ActiveAccessPoint()
		if err != nil {
			return WifiState{}, err
		}
		if networkmanager.IsNull(apPath) {
			continue
		}
		detail, err := wifiDetail(d, track(apPath))
		if err != nil {
			return WifiState{}, err
		}
		return WifiState{Status: Connected, Detail: detail}, nil
	}
	switch {
	case enabled:
		return WifiState{Status: Disconnected}, nil
	case present:
		return WifiState{Status: Disabled}, nil
	}
	return WifiState{Status: NotPresent}, nil
}

func wifiDetail(d Device, ap AccessPoint) (WifiDetail, error) {
	var detail WifiDetail
	var err error
	if detail.SSID, err = ap.SSID(); err != nil {
		return WifiDetail{}, err
	}
	if detail.BSSID, err = ap.HwAddress(); err != nil {
		return WifiDetail{}, err
	}
	if detail.Strength, err = ap.Strength(); err != nil {
		return WifiDetail{}, err
	}

	addr, err := d.IP4Address()
	switch {
	case errors.Is(err, networkmanager.ErrNoAddress):
		// Not configured yet; leave the address fields empty.
	case err != nil:
		return WifiDetail{}, err
	default:
		detail.IP4Address = addr.Address
		detail.IP4Prefix = addr.Prefix
	}
	return detail, nil
}

func vpnState(connections []ActiveConnection) (VPNState, error) {
	for _, c := range connections {
		t, err := c.Type()
		if err != nil {
			return VPNState{}, err
		}
		switch t {
		case "vpn", "wireguard":
			return VPNState{Status: Connected, Detail: VPNDetail{Name: PlaceholderVPNName}}, nil
		}
	}
	return VPNState{Status: Disconnected}, nil
}
