package gatt

import (
	"context"

	"github.com/godbus/dbus/v5"
)

// ObjectDirectory publishes objects on the bus.
type ObjectDirectory interface {
	// Publish exposes obj's methods under iface at path, together with a
	// properties handler serving props. It fails with ErrPathInUse when
	// iface is already published at path.
	Publish(path dbus.ObjectPath, iface string, obj interface{}, props Properties) error
	// Unpublish removes iface from path.
	Unpublish(path dbus.ObjectPath, iface string) error
}

// Registrar is the daemon-side application manager (org.bluez.GattManager1).
type Registrar interface {
	RegisterApplication(ctx context.Context, root dbus.ObjectPath, options map[string]dbus.Variant) error
	UnregisterApplication(ctx context.Context, root dbus.ObjectPath) error
}
