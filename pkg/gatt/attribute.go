package gatt

import (
	"github.com/godbus/dbus/v5"
	"github.com/sirupsen/logrus"
)

// valueObject carries the ReadValue/WriteValue behaviour shared by
// characteristic and descriptor objects.
type valueObject struct {
	iface  string
	path   dbus.ObjectPath
	value  *ValueStore
	props  Properties
	logger *logrus.Logger
}

func (o *valueObject) read(options map[string]dbus.Variant) ([]byte, *dbus.Error) {
	offset, err := ParseOffset(options)
	if err != nil {
		return nil, o.fail("ReadValue", err)
	}
	data, err := o.value.Read(offset)
	if err != nil {
		return nil, o.fail("ReadValue", err)
	}
	o.logger.WithFields(logrus.Fields{
		"path":   o.path,
		"offset": offset,
		"length": len(data),
	}).Debug("ReadValue")
	return data, nil
}

func (o *valueObject) write(value []byte, options map[string]dbus.Variant) *dbus.Error {
	offset, err := ParseOffset(options)
	if err != nil {
		return o.fail("WriteValue", err)
	}
	if err := o.value.Write(value, offset); err != nil {
		return o.fail("WriteValue", err)
	}
	o.logger.WithFields(logrus.Fields{
		"path":   o.path,
		"offset": offset,
		"length": len(value),
	}).Debug("WriteValue")
	return nil
}

func (o *valueObject) fail(method string, err error) *dbus.Error {
	o.logger.WithFields(logrus.Fields{
		"path":      o.path,
		"interface": o.iface,
		"method":    method,
	}).WithError(err).Warn("request rejected")
	return DBusError(err)
}

// Property returns the registration-time value of the named property.
func (o *valueObject) Property(name string) (dbus.Variant, error) {
	return o.props.Get(o.iface, name)
}

// Path returns the object path the object is published at.
func (o *valueObject) Path() dbus.ObjectPath {
	return o.path
}

func orNewLogger(logger *logrus.Logger) *logrus.Logger {
	if logger == nil {
		return logrus.New()
	}
	return logger
}
