package gatt

import (
	"github.com/godbus/dbus/v5"
)

// Interface names published for the application tree.
const (
	ServiceInterface        = "org.bluez.GattService1"
	CharacteristicInterface = "org.bluez.GattCharacteristic1"
	DescriptorInterface     = "org.bluez.GattDescriptor1"
	ObjectManagerInterface  = "org.freedesktop.DBus.ObjectManager"
	PropertiesInterface     = "org.freedesktop.DBus.Properties"
	ManagerInterface        = "org.bluez.GattManager1"
)

// Properties maps a property name to its typed value.
type Properties map[string]dbus.Variant

// ManagedObjects is the GetManagedObjects reply: path -> interface -> properties.
type ManagedObjects map[dbus.ObjectPath]map[string]Properties

// Copy returns a copy that shares no mutable slices with p.
func (p Properties) Copy() Properties {
	if p == nil {
		return nil
	}
	out := make(Properties, len(p))
	for k, v := range p {
		out[k] = copyVariant(v)
	}
	return out
}

// Get returns the named property or an *UnknownPropertyError for iface.
func (p Properties) Get(iface, name string) (dbus.Variant, error) {
	v, ok := p[name]
	if !ok {
		return dbus.Variant{}, &UnknownPropertyError{Interface: iface, Property: name}
	}
	return copyVariant(v), nil
}

// Copy returns a deep copy of the index.
func (m ManagedObjects) Copy() ManagedObjects {
	out := make(ManagedObjects, len(m))
	for path, ifaces := range m {
		cp := make(map[string]Properties, len(ifaces))
		for name, props := range ifaces {
			cp[name] = props.Copy()
		}
		out[path] = cp
	}
	return out
}

// add records the snapshot of one object.
func (m ManagedObjects) add(path dbus.ObjectPath, iface string, props Properties) {
	ifaces, ok := m[path]
	if !ok {
		ifaces = make(map[string]Properties, 1)
		m[path] = ifaces
	}
	ifaces[iface] = props
}

func copyVariant(v dbus.Variant) dbus.Variant {
	switch x := v.Value().(type) {
	case []byte:
		return dbus.MakeVariant(append([]byte{}, x...))
	case []string:
		return dbus.MakeVariant(append([]string{}, x...))
	case []dbus.ObjectPath:
		return dbus.MakeVariant(append([]dbus.ObjectPath{}, x...))
	default:
		return v
	}
}

func objectPaths(paths []dbus.ObjectPath) []dbus.ObjectPath {
	if paths == nil {
		return []dbus.ObjectPath{}
	}
	return append([]dbus.ObjectPath{}, paths...)
}
