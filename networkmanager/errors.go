package networkmanager

import (
	"errors"
	"fmt"

	"github.com/godbus/dbus/v5"
)

var (
	// ErrConnection is returned when the system bus cannot be reached.
	ErrConnection = errors.New("networkmanager: system bus unavailable")

	// ErrNoAddress is returned when an IPv4 configuration carries no address entry.
	ErrNoAddress = errors.New("networkmanager: no IPv4 address")
)

// QueryError reports a property read that failed, typically because the
// object vanished while it was being queried.
type QueryError struct {
	Path     dbus.ObjectPath
	Property string
	Err      error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("networkmanager: reading %s on %s: %v", e.Property, e.Path, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

func queryError(path dbus.ObjectPath, property string, err error) error {
	return &QueryError{Path: path, Property: property, Err: err}
}
