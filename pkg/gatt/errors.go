package gatt

import (
	"errors"
	"fmt"

	"github.com/godbus/dbus/v5"
)

// D-Bus error names returned to bluetoothd.
const (
	ErrorNameFailed           = "org.bluez.Error.Failed"
	ErrorNameInvalidOffset    = "org.bluez.Error.InvalidOffset"
	ErrorNameInvalidArguments = "org.bluez.Error.InvalidArguments"
	ErrorNameNotSupported     = "org.bluez.Error.NotSupported"
	ErrorNameUnknownProperty  = "org.freedesktop.DBus.Error.UnknownProperty"
)

// Operation errors
var (
	ErrInvalidOffset    = errors.New("invalid offset")
	ErrInvalidArguments = errors.New("invalid arguments")
	ErrNotSupported     = errors.New("not supported")
	ErrLockFailed       = errors.New("value lock failed")
	ErrUnknownProperty  = errors.New("unknown property")
	ErrPathInUse        = errors.New("object path already in use")
)

// UnknownPropertyError reports a property that was never populated on an
// interface. It is distinct from a property that is set to its zero value.
type UnknownPropertyError struct {
	Interface string
	Property  string
}

func (e *UnknownPropertyError) Error() string {
	return fmt.Sprintf("%s: unused property '%s'", e.Interface, e.Property)
}

// Is allows errors.Is(err, ErrUnknownProperty).
func (e *UnknownPropertyError) Is(target error) bool {
	return target == ErrUnknownProperty
}

// RegistrationStep names the phase of RegisterNew that failed.
type RegistrationStep string

const (
	StepValidate RegistrationStep = "validate"
	StepPublish  RegistrationStep = "publish"
	StepRegister RegistrationStep = "register"
)

// RegistrationError wraps any failure that aborted an application
// registration.
type RegistrationError struct {
	Step RegistrationStep
	Path dbus.ObjectPath
	Err  error
}

func (e *RegistrationError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("registration failed at %s: %v", e.Step, e.Err)
	}
	return fmt.Sprintf("registration failed at %s of %s: %v", e.Step, e.Path, e.Err)
}

func (e *RegistrationError) Unwrap() error {
	return e.Err
}

// DBusError converts an operation error into the error reply sent back over
// the bus. A nil err yields nil.
func DBusError(err error) *dbus.Error {
	if err == nil {
		return nil
	}
	var derr *dbus.Error
	if errors.As(err, &derr) {
		return derr
	}

	name := ErrorNameFailed
	switch {
	case errors.Is(err, ErrInvalidOffset):
		name = ErrorNameInvalidOffset
	case errors.Is(err, ErrInvalidArguments):
		name = ErrorNameInvalidArguments
	case errors.Is(err, ErrNotSupported):
		name = ErrorNameNotSupported
	case errors.Is(err, ErrUnknownProperty):
		name = ErrorNameUnknownProperty
	}
	return dbus.NewError(name, []interface{}{err.Error()})
}
