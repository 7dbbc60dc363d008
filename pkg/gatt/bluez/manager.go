package bluez

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"
	"github.com/sirupsen/logrus"
	"github.com/srg/bluegatt/pkg/gatt"
)

// Service is the well-known bus name of bluetoothd.
const Service = "org.bluez"

// DefaultAdapter is the adapter object path used when none is configured.
const DefaultAdapter dbus.ObjectPath = "/org/bluez/hci0"

// BusObject is the part of dbus.BusObject the manager needs.
type BusObject interface {
	CallWithContext(ctx context.Context, method string, flags dbus.Flags, args ...interface{}) *dbus.Call
}

// GattManager talks to org.bluez.GattManager1 on one adapter. Errors from
// bluetoothd are returned unchanged.
type GattManager struct {
	obj     BusObject
	adapter dbus.ObjectPath
	logger  *logrus.Logger
}

// NewGattManager returns a registrar for adapter (DefaultAdapter when empty).
func NewGattManager(conn *dbus.Conn, adapter dbus.ObjectPath, logger *logrus.Logger) *GattManager {
	if adapter == "" {
		adapter = DefaultAdapter
	}
	return newGattManager(conn.Object(Service, adapter), adapter, logger)
}

func newGattManager(obj BusObject, adapter dbus.ObjectPath, logger *logrus.Logger) *GattManager {
	if logger == nil {
		logger = logrus.New()
	}
	return &GattManager{obj: obj, adapter: adapter, logger: logger}
}

func (m *GattManager) Adapter() dbus.ObjectPath { return m.adapter }

func (m *GattManager) RegisterApplication(ctx context.Context, root dbus.ObjectPath, options map[string]dbus.Variant) error {
	if options == nil {
		options = map[string]dbus.Variant{}
	}
	m.logger.WithFields(logrus.Fields{"adapter": m.adapter, "application": root}).Debug("RegisterApplication")
	return m.obj.CallWithContext(ctx, gatt.ManagerInterface+".RegisterApplication", 0, root, options).Err
}

func (m *GattManager) UnregisterApplication(ctx context.Context, root dbus.ObjectPath) error {
	m.logger.WithFields(logrus.Fields{"adapter": m.adapter, "application": root}).Debug("UnregisterApplication")
	return m.obj.CallWithContext(ctx, gatt.ManagerInterface+".UnregisterApplication", 0, root).Err
}

// Connect opens the named bus: "system" or "session".
func Connect(bus string) (*dbus.Conn, error) {
	switch bus {
	case "", "system":
		return dbus.ConnectSystemBus()
	case "session":
		return dbus.ConnectSessionBus()
	default:
		return nil, fmt.Errorf("unknown bus %q (must be system or session)", bus)
	}
}
