package main

import (
	"errors"
	"fmt"

	"github.com/godbus/dbus/v5"
	"github.com/srg/bluegatt/pkg/gatt"
)

// Command-level errors
var (
	// ErrBusClosed indicates the D-Bus connection went away while serving.
	ErrBusClosed = errors.New("bus connection closed")
)

// FormatUserError turns registration and bus errors into a one-line message.
func FormatUserError(err error) string {
	var regErr *gatt.RegistrationError
	if errors.As(err, &regErr) && regErr.Step == gatt.StepRegister {
		var busErr dbus.Error
		if errors.As(regErr.Err, &busErr) {
			return fmt.Sprintf("bluetoothd rejected application %s: %s", regErr.Path, describeBusError(busErr))
		}
		var busErrPtr *dbus.Error
		if errors.As(regErr.Err, &busErrPtr) {
			return fmt.Sprintf("bluetoothd rejected application %s: %s", regErr.Path, describeBusError(*busErrPtr))
		}
	}
	return err.Error()
}

func describeBusError(e dbus.Error) string {
	if len(e.Body) > 0 {
		if msg, ok := e.Body[0].(string); ok && msg != "" {
			return fmt.Sprintf("%s (%s)", msg, e.Name)
		}
	}
	return e.Name
}
