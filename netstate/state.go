// Package netstate derives a single connectivity summary from NetworkManager's
// object graph and publishes it to subscribers.
package netstate

import "fmt"

// Status is the connectivity of one technology. Not every technology uses
// every value: wired has no Disabled, VPN has neither Disabled nor NotPresent.
type Status uint8

const (
	Unknown Status = iota
	Connected
	Disconnected
	Disabled
	NotPresent
)

func (s Status) String() string {
	switch s {
	case Unknown:
		return "unknown"
	case Connected:
		return "connected"
	case Disconnected:
		return "disconnected"
	case Disabled:
		return "disabled"
	case NotPresent:
		return "not-present"
	}
	return fmt.Sprintf("status(%d)", uint8(s))
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(b []byte) error {
	for _, v := range []Status{Unknown, Connected, Disconnected, Disabled, NotPresent} {
		if v.String() == string(b) {
			*s = v
			return nil
		}
	}
	return fmt.Errorf("netstate: unknown status %q", b)
}

// WifiDetail describes the associated access point. Only meaningful when the
// Wi-Fi status is Connected.
type WifiDetail struct {
	SSID       string `json:"ssid"`
	BSSID      string `json:"bssid"`
	Strength   uint8  `json:"strength"`
	IP4Address string `json:"ip4_address"`
	IP4Prefix  uint32 `json:"ip4_prefix"`
}

type WifiState struct {
	Status Status     `json:"status"`
	Detail WifiDetail `json:"detail"`
}

// VPNDetail describes the active VPN. The name is not resolved from the bus
// and is always PlaceholderVPNName.
type VPNDetail struct {
	Name string `json:"name"`
}

const PlaceholderVPNName = "unknown"

type VPNState struct {
	Status Status    `json:"status"`
	Detail VPNDetail `json:"detail"`
}

// State is an immutable snapshot. The zero value reports every technology as Unknown.
type State struct {
	Wired    Status    `json:"wired"`
	Wifi     WifiState `json:"wifi"`
	Cellular Status    `json:"cellular"`
	VPN      VPNState  `json:"vpn"`
}

// IsZero reports whether s is the all-unknown state a publisher holds
// before the first aggregation.
func (s State) IsZero() bool {
	return s == (State{})
}
