package networkmanager

import (
	"github.com/godbus/dbus/v5"
)

// Address is one entry of an IPv4 configuration's AddressData.
type Address struct {
	Address string
	Prefix  uint32
}

// firstAddress picks the first usable entry of an aa{sv} address list.
// Only the first entry is considered; NetworkManager lists the primary
// address first.
func firstAddress(data []map[string]dbus.Variant) (Address, error) {
	if len(data) == 0 {
		return Address{}, ErrNoAddress
	}
	entry := data[0]
	var a Address
	if v, ok := entry["address"]; ok {
		a.Address, _ = v.Value().(string)
	}
	if v, ok := entry["prefix"]; ok {
		a.Prefix, _ = v.Value().(uint32)
	}
	if a.Address == "" {
		return Address{}, ErrNoAddress
	}
	return a, nil
}
