package gatt

import (
	"github.com/godbus/dbus/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Descriptor is the definition of a GATT descriptor.
type Descriptor struct {
	uuid  uuid.UUID
	value *ValueStore
	flags []DescriptorFlag
}

// NewDescriptor defines a descriptor with an initial value (nil is empty).
func NewDescriptor(id uuid.UUID, value []byte, flags []DescriptorFlag) *Descriptor {
	return &Descriptor{
		uuid:  id,
		value: NewValueStore(value),
		flags: append([]DescriptorFlag(nil), flags...),
	}
}

func (d *Descriptor) UUID() uuid.UUID { return d.uuid }

func (d *Descriptor) Flags() []DescriptorFlag {
	return append([]DescriptorFlag(nil), d.flags...)
}

// Value returns the store shared with the registered handle.
func (d *Descriptor) Value() *ValueStore { return d.value }

func (d *Descriptor) properties(characteristic dbus.ObjectPath) Properties {
	return Properties{
		"UUID":           dbus.MakeVariant(d.uuid.String()),
		"Characteristic": dbus.MakeVariant(characteristic),
		"Value":          dbus.MakeVariant(d.value.Bytes()),
		"Flags":          dbus.MakeVariant(flagStrings(d.flags)),
	}
}

func (d *Descriptor) register(b *treeBuilder, objects ManagedObjects, path, characteristic dbus.ObjectPath) (*DescriptorHandle, error) {
	props := d.properties(characteristic)
	obj := &DescriptorObject{valueObject{
		iface:  DescriptorInterface,
		path:   path,
		value:  d.value,
		props:  props,
		logger: b.logger,
	}}

	if err := b.publish(path, DescriptorInterface, obj, props); err != nil {
		return nil, err
	}
	objects.add(path, DescriptorInterface, props)
	b.logger.WithFields(logrus.Fields{"path": path, "uuid": d.uuid}).Debug("GattDescriptor1: added")

	return &DescriptorHandle{
		uuid:   d.uuid,
		path:   path,
		value:  d.value,
		object: obj,
		props:  props,
	}, nil
}

// DescriptorObject is the org.bluez.GattDescriptor1 object published on the bus.
type DescriptorObject struct {
	valueObject
}

// ReadValue returns the value from the requested offset.
//
// Possible options: "offset": uint16, "mtu": uint16, "device": object path.
func (o *DescriptorObject) ReadValue(options map[string]dbus.Variant) ([]byte, *dbus.Error) {
	return o.read(options)
}

// WriteValue stores value at the requested offset.
func (o *DescriptorObject) WriteValue(value []byte, options map[string]dbus.Variant) *dbus.Error {
	return o.write(value, options)
}

// DescriptorHandle gives the application owner access to a registered
// descriptor.
type DescriptorHandle struct {
	uuid   uuid.UUID
	path   dbus.ObjectPath
	value  *ValueStore
	object *DescriptorObject
	props  Properties
}

func (h *DescriptorHandle) UUID() uuid.UUID           { return h.uuid }
func (h *DescriptorHandle) Path() dbus.ObjectPath     { return h.path }
func (h *DescriptorHandle) Value() *ValueStore        { return h.value }
func (h *DescriptorHandle) Object() *DescriptorObject { return h.object }

// Properties returns a copy of the registration-time snapshot.
func (h *DescriptorHandle) Properties() Properties { return h.props.Copy() }
