package netstate

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/google/go-cmp/cmp"

	"nmwatch/networkmanager"
)

var (
	allTypes = []networkmanager.DeviceType{
		networkmanager.DeviceTypeEthernet,
		networkmanager.DeviceTypeWifi,
		networkmanager.DeviceTypeModem,
		networkmanager.DeviceTypeBridge,
	}
	allStates = []networkmanager.DeviceState{
		networkmanager.DeviceStateUnknown,
		networkmanager.DeviceStateUnmanaged,
		networkmanager.DeviceStateUnavailable,
		networkmanager.DeviceStateDisconnected,
		networkmanager.DeviceStateConfig,
		networkmanager.DeviceStateActivated,
		networkmanager.DeviceStateFailed,
	}
)

func devicePath(i int) dbus.ObjectPath {
	return dbus.ObjectPath(fmt.Sprintf("/org/freedesktop/NetworkManager/Devices/%d", i))
}

// deviceSets enumerates every device list up to size n built from the given types and states.
func deviceSets(n int, types []networkmanager.DeviceType, states []networkmanager.DeviceState) [][]Device {
	sets := [][]Device{nil}
	var out [][]Device
	out = append(out, nil)
	for size := 1; size <= n; size++ {
		var next [][]Device
		for _, set := range sets {
			for _, typ := range types {
				for _, st := range states {
					grown := append(append([]Device(nil), set...), newDevice(devicePath(size), typ, st))
					next = append(next, grown)
				}
			}
		}
		out = append(out, next...)
		sets = next
	}
	return out
}

func TestWiredStateProperty(t *testing.T) {
	for _, devices := range deviceSets(3, allTypes, allStates) {
		anyEthernet, anyActivated := false, false
		for _, d := range devices {
			typ, _ := d.Type()
			st, _ := d.State()
			if typ == networkmanager.DeviceTypeEthernet {
				anyEthernet = true
				if st == networkmanager.DeviceStateActivated {
					anyActivated = true
				}
			}
		}
		want := Disconnected
		switch {
		case anyActivated:
			want = Connected
		case !anyEthernet:
			want = NotPresent
		}

		got, err := wiredState(devices)
		if err != nil {
			t.Fatalf("wiredState: %v", err)
		}
		if got != want {
			t.Fatalf("wiredState(%v) = %v, want %v", describe(devices), got, want)
		}
	}
}

func TestCellularStateProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 2000; i++ {
		n := rng.Intn(5)
		devices := make([]Device, n)
		for i := range devices {
			devices[i] = newDevice(devicePath(i),
				allTypes[rng.Intn(len(allTypes))],
				allStates[rng.Intn(len(allStates))])
		}

		want := NotPresent
		for _, d := range devices {
			typ, _ := d.Type()
			st, _ := d.State()
			if typ != networkmanager.DeviceTypeModem {
				continue
			}
			switch {
			case st == networkmanager.DeviceStateActivated:
				want = Connected
			case st.Enabled() && want != Connected:
				want = Disconnected
			case want == NotPresent:
				want = Disabled
			}
		}

		got, err := cellularState(devices)
		if err != nil {
			t.Fatalf("cellularState: %v", err)
		}
		if got != want {
			t.Fatalf("cellularState(%v) = %v, want %v", describe(devices), got, want)
		}
	}
}

func describe(devices []Device) []string {
	out := make([]string, 0, len(devices))
	for _, d := range devices {
		typ, _ := d.Type()
		st, _ := d.State()
		out = append(out, typ.String()+"/"+st.String())
	}
	return out
}

func TestPoliciesStopOnQueryError(t *testing.T) {
	broken := newDevice(devicePath(1), networkmanager.DeviceTypeEthernet, networkmanager.DeviceStateActivated)
	broken.err = errVanished
	devices := []Device{broken}

	if _, err := wiredState(devices); !errors.Is(err, errVanished) {
		t.Errorf("wired err = %v", err)
	}
	if _, err := cellularState(devices); !errors.Is(err, errVanished) {
		t.Errorf("cellular err = %v", err)
	}
	if _, err := wifiState(devices, nil); !errors.Is(err, errVanished) {
		t.Errorf("wifi err = %v", err)
	}
}

// staticTrack resolves access points from a fixed map.
func staticTrack(aps ...*fakeAP) func(dbus.ObjectPath) AccessPoint {
	return func(p dbus.ObjectPath) AccessPoint {
		for _, ap := range aps {
			if ap.path == p {
				return ap
			}
		}
		return &fakeAP{path: p, err: errVanished}
	}
}

func TestWifiState(t *testing.T) {
	const apPath = dbus.ObjectPath("/org/freedesktop/NetworkManager/AccessPoint/3")
	ap := &fakeAP{path: apPath, ssid: "home", bssid: "AA:BB:CC:DD:EE:FF", strength: 72}

	wifi := func(state networkmanager.DeviceState, ap dbus.ObjectPath) *fakeDevice {
		d := newDevice(devicePath(2), networkmanager.DeviceTypeWifi, state)
		d.ap = ap
		return d
	}
	withAddr := wifi(networkmanager.DeviceStateActivated, apPath)
	withAddr.addr = networkmanager.Address{Address: "192.168.1.20", Prefix: 24}
	withAddr.addrErr = nil

	tests := []struct {
		name    string
		devices []Device
		want    WifiState
	}{
		{
			name: "no wifi device",
			devices: []Device{
				newDevice(devicePath(1), networkmanager.DeviceTypeEthernet, networkmanager.DeviceStateActivated),
			},
			want: WifiState{Status: NotPresent},
		},
		{
			name:    "radio off",
			devices: []Device{wifi(networkmanager.DeviceStateUnavailable, "/")},
			want:    WifiState{Status: Disabled},
		},
		{
			name:    "enabled without association",
			devices: []Device{wifi(networkmanager.DeviceStateDisconnected, "/")},
			want:    WifiState{Status: Disconnected},
		},
		{
			name:    "associated without address",
			devices: []Device{wifi(networkmanager.DeviceStateIPConfig, apPath)},
			want: WifiState{Status: Connected, Detail: WifiDetail{
				SSID: "home", BSSID: "AA:BB:CC:DD:EE:FF", Strength: 72,
			}},
		},
		{
			name:    "associated with address",
			devices: []Device{withAddr},
			want: WifiState{Status: Connected, Detail: WifiDetail{
				SSID: "home", BSSID: "AA:BB:CC:DD:EE:FF", Strength: 72,
				IP4Address: "192.168.1.20", IP4Prefix: 24,
			}},
		},
		{
			name: "second adapter associated",
			devices: []Device{
				wifi(networkmanager.DeviceStateUnavailable, "/"),
				withAddr,
			},
			want: WifiState{Status: Connected, Detail: WifiDetail{
				SSID: "home", BSSID: "AA:BB:CC:DD:EE:FF", Strength: 72,
				IP4Address: "192.168.1.20", IP4Prefix: 24,
			}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := wifiState(tt.devices, staticTrack(ap))
			if err != nil {
				t.Fatalf("wifiState: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("wifiState mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestWifiStateAccessPointVanished(t *testing.T) {
	d := newDevice(devicePath(2), networkmanager.DeviceTypeWifi, networkmanager.DeviceStateActivated)
	d.ap = "/org/freedesktop/NetworkManager/AccessPoint/9"

	if _, err := wifiState([]Device{d}, staticTrack()); !errors.Is(err, errVanished) {
		t.Fatalf("err = %v, want vanished", err)
	}
}

func TestWifiStateAddressQueryError(t *testing.T) {
	const apPath = dbus.ObjectPath("/org/freedesktop/NetworkManager/AccessPoint/3")
	d := newDevice(devicePath(2), networkmanager.DeviceTypeWifi, networkmanager.DeviceStateActivated)
	d.ap = apPath
	d.addrErr = errVanished

	_, err := wifiState([]Device{d}, staticTrack(&fakeAP{path: apPath, ssid: "x"}))
	if !errors.Is(err, errVanished) {
		t.Fatalf("err = %v, want vanished", err)
	}
}

func TestVPNState(t *testing.T) {
	tests := []struct {
		name  string
		conns []ActiveConnection
		want  VPNState
	}{
		{"empty", nil, VPNState{Status: Disconnected}},
		{"wifi only", []ActiveConnection{&fakeConn{typ: "802-11-wireless"}}, VPNState{Status: Disconnected}},
		{
			"wireguard",
			[]ActiveConnection{&fakeConn{typ: "802-3-ethernet"}, &fakeConn{typ: "wireguard"}},
			VPNState{Status: Connected, Detail: VPNDetail{Name: PlaceholderVPNName}},
		},
		{
			"openvpn",
			[]ActiveConnection{&fakeConn{typ: "vpn"}},
			VPNState{Status: Connected, Detail: VPNDetail{Name: PlaceholderVPNName}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := vpnState(tt.conns)
			if err != nil {
				t.Fatalf("vpnState: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("vpnState mismatch (-want +got):\n%s", diff)
			}
		})
	}

	if _, err := vpnState([]ActiveConnection{&fakeConn{err: errVanished}}); !errors.Is(err, errVanished) {
		t.Errorf("err = %v, want vanished", err)
	}
}
