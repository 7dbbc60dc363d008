// Package bluez connects the gatt object tree to a real D-Bus connection and
// to bluetoothd's org.bluez.GattManager1.
package bluez

import (
	"fmt"
	"sort"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
	"github.com/godbus/dbus/v5/prop"
	"github.com/sirupsen/logrus"
	"github.com/srg/bluegatt/pkg/gatt"
)

const introspectableInterface = "org.freedesktop.DBus.Introspectable"

type exported struct {
	object interface{}
	props  gatt.Properties
}

// Directory publishes gatt objects on a *dbus.Conn. Next to every object it
// serves org.freedesktop.DBus.Properties and
// org.freedesktop.DBus.Introspectable for the object's path.
type Directory struct {
	conn   *dbus.Conn
	logger *logrus.Logger

	mu    sync.Mutex
	paths map[dbus.ObjectPath]map[string]exported

	// exportSupport serves Properties and Introspectable for a path.
	exportSupport func(path dbus.ObjectPath, ifaces map[string]exported) error
}

func NewDirectory(conn *dbus.Conn, logger *logrus.Logger) *Directory {
	if logger == nil {
		logger = logrus.New()
	}
	d := &Directory{
		conn:   conn,
		logger: logger,
		paths:  make(map[dbus.ObjectPath]map[string]exported),
	}
	d.exportSupport = d.exportHandlers
	return d
}

func (d *Directory) Publish(path dbus.ObjectPath, iface string, obj interface{}, props gatt.Properties) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	ifaces := d.paths[path]
	if _, ok := ifaces[iface]; ok {
		return fmt.Errorf("%w: %s at %s", gatt.ErrPathInUse, iface, path)
	}
	if err := d.conn.Export(obj, path, iface); err != nil {
		return fmt.Errorf("export %s at %s: %w", iface, path, err)
	}
	if ifaces == nil {
		ifaces = make(map[string]exported)
		d.paths[path] = ifaces
	}
	ifaces[iface] = exported{object: obj, props: props}

	if err := d.exportSupport(path, ifaces); err != nil {
		delete(ifaces, iface)
		if len(ifaces) == 0 {
			delete(d.paths, path)
		}
		if uerr := d.conn.Export(nil, path, iface); uerr != nil {
			d.logger.WithFields(logrus.Fields{"path": path, "interface": iface}).WithError(uerr).Warn("unexport after failed publish")
		}
		return err
	}
	d.logger.WithFields(logrus.Fields{"path": path, "interface": iface}).Debug("exported")
	return nil
}

func (d *Directory) Unpublish(path dbus.ObjectPath, iface string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	ifaces := d.paths[path]
	if _, ok := ifaces[iface]; !ok {
		return fmt.Errorf("%s not published at %s", iface, path)
	}
	if err := d.conn.Export(nil, path, iface); err != nil {
		return fmt.Errorf("unexport %s at %s: %w", iface, path, err)
	}
	delete(ifaces, iface)

	if len(ifaces) == 0 {
		delete(d.paths, path)
		for _, support := range []string{gatt.PropertiesInterface, introspectableInterface} {
			if err := d.conn.Export(nil, path, support); err != nil {
				d.logger.WithFields(logrus.Fields{"path": path, "interface": support}).WithError(err).Warn("unexport failed")
			}
		}
		return nil
	}
	return d.exportSupport(path, ifaces)
}

// exportHandlers (re)exports the properties and introspection handlers for
// every interface currently published at path.
func (d *Directory) exportHandlers(path dbus.ObjectPath, ifaces map[string]exported) error {
	names := make([]string, 0, len(ifaces))
	for name := range ifaces {
		names = append(names, name)
	}
	sort.Strings(names)

	propMap := prop.Map{}
	for _, name := range names {
		e := ifaces[name]
		if e.props == nil {
			continue
		}
		m := make(map[string]*prop.Prop, len(e.props))
		for k, v := range e.props {
			m[k] = &prop.Prop{Value: v.Value(), Writable: false, Emit: prop.EmitFalse}
		}
		propMap[name] = m
	}

	node := &introspect.Node{
		Name:       string(path),
		Interfaces: []introspect.Interface{introspect.IntrospectData},
	}
	var props *prop.Properties
	if len(propMap) > 0 {
		var err error
		props, err = prop.Export(d.conn, path, propMap)
		if err != nil {
			return fmt.Errorf("export properties at %s: %w", path, err)
		}
		node.Interfaces = append(node.Interfaces, prop.IntrospectData)
	}
	for _, name := range names {
		iface := introspect.Interface{
			Name:    name,
			Methods: introspect.Methods(ifaces[name].object),
		}
		if props != nil {
			iface.Properties = props.Introspection(name)
		}
		node.Interfaces = append(node.Interfaces, iface)
	}

	if err := d.conn.Export(introspect.NewIntrospectable(node), path, introspectableInterface); err != nil {
		return fmt.Errorf("export introspection at %s: %w", path, err)
	}
	return nil
}
