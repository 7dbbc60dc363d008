package gatt

import (
	"fmt"

	"github.com/godbus/dbus/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Characteristic is the definition of a GATT characteristic.
//
// Flags are advertised to bluetoothd but are not enforced on ReadValue and
// WriteValue; bluetoothd checks them before forwarding requests.
type Characteristic struct {
	uuid           uuid.UUID
	value          *ValueStore
	flags          []CharacteristicFlag
	notifying      *bool
	notifyAcquired *bool
	writeAcquired  *bool
}

// CharacteristicOption sets an optional characteristic property.
type CharacteristicOption func(*Characteristic)

// WithNotifying sets the Notifying property. Without it the property is
// unknown rather than false.
func WithNotifying(v bool) CharacteristicOption {
	return func(c *Characteristic) { c.notifying = &v }
}

// WithNotifyAcquired sets the NotifyAcquired property.
func WithNotifyAcquired(v bool) CharacteristicOption {
	return func(c *Characteristic) { c.notifyAcquired = &v }
}

// WithWriteAcquired sets the WriteAcquired property.
func WithWriteAcquired(v bool) CharacteristicOption {
	return func(c *Characteristic) { c.writeAcquired = &v }
}

// NewCharacteristic defines a characteristic with an initial value (nil is
// empty).
func NewCharacteristic(id uuid.UUID, value []byte, flags []CharacteristicFlag, opts ...CharacteristicOption) *Characteristic {
	c := &Characteristic{
		uuid:  id,
		value: NewValueStore(value),
		flags: append([]CharacteristicFlag(nil), flags...),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Characteristic) UUID() uuid.UUID { return c.uuid }

func (c *Characteristic) Flags() []CharacteristicFlag {
	return append([]CharacteristicFlag(nil), c.flags...)
}

// HasFlag reports whether f was declared.
func (c *Characteristic) HasFlag(f CharacteristicFlag) bool {
	for _, flag := range c.flags {
		if flag == f {
			return true
		}
	}
	return false
}

// Value returns the store shared with the registered handle.
func (c *Characteristic) Value() *ValueStore { return c.value }

func (c *Characteristic) properties(service dbus.ObjectPath, descriptors []dbus.ObjectPath) Properties {
	props := Properties{
		"UUID":        dbus.MakeVariant(c.uuid.String()),
		"Service":     dbus.MakeVariant(service),
		"Flags":       dbus.MakeVariant(flagStrings(c.flags)),
		"Descriptors": dbus.MakeVariant(objectPaths(descriptors)),
		"Value":       dbus.MakeVariant(c.value.Bytes()),
	}
	if c.writeAcquired != nil {
		props["WriteAcquired"] = dbus.MakeVariant(*c.writeAcquired)
	}
	if c.notifyAcquired != nil {
		props["NotifyAcquired"] = dbus.MakeVariant(*c.notifyAcquired)
	}
	if c.notifying != nil {
		props["Notifying"] = dbus.MakeVariant(*c.notifying)
	}
	return props
}

func (c *Characteristic) register(b *treeBuilder, objects ManagedObjects, path, service dbus.ObjectPath, descriptors []*Descriptor) (*CharacteristicHandle, error) {
	byUUID := orderedmap.New[uuid.UUID, *DescriptorHandle]()
	handles := make([]*DescriptorHandle, 0, len(descriptors))
	paths := make([]dbus.ObjectPath, 0, len(descriptors))

	for k, desc := range descriptors {
		descPath := ChildPath(path, KindDescriptor, k)
		h, err := desc.register(b, objects, descPath, path)
		if err != nil {
			return nil, err
		}
		paths = append(paths, descPath)
		handles = append(handles, h)
		byUUID.Set(desc.uuid, h)
	}

	props := c.properties(service, paths)
	obj := &CharacteristicObject{valueObject{
		iface:  CharacteristicInterface,
		path:   path,
		value:  c.value,
		props:  props,
		logger: b.logger,
	}}
	if err := b.publish(path, CharacteristicInterface, obj, props); err != nil {
		return nil, err
	}
	objects.add(path, CharacteristicInterface, props)
	b.logger.WithFields(logrus.Fields{
		"path":        path,
		"uuid":        c.uuid,
		"descriptors": len(paths),
	}).Debug("GattCharacteristic1: added")

	return &CharacteristicHandle{
		uuid:        c.uuid,
		path:        path,
		value:       c.value,
		object:      obj,
		props:       props,
		descriptors: handles,
		byUUID:      byUUID,
	}, nil
}

// CharacteristicObject is the org.bluez.GattCharacteristic1 object published
// on the bus. Notification and acquire methods report NotSupported until a
// notification transport exists.
type CharacteristicObject struct {
	valueObject
}

// ReadValue returns the value from the requested offset.
//
// Possible options: "offset": uint16, "mtu": uint16, "device": object path.
func (o *CharacteristicObject) ReadValue(options map[string]dbus.Variant) ([]byte, *dbus.Error) {
	return o.read(options)
}

// WriteValue stores value at the requested offset.
//
// Possible options: "offset": uint16, "type": string, "mtu": uint16,
// "device": object path, "link": string, "prepare-authorize": bool.
func (o *CharacteristicObject) WriteValue(value []byte, options map[string]dbus.Variant) *dbus.Error {
	return o.write(value, options)
}

// StartNotify starts a notification session.
func (o *CharacteristicObject) StartNotify() *dbus.Error {
	return o.unsupported("StartNotify")
}

// StopNotify cancels a notification session.
func (o *CharacteristicObject) StopNotify() *dbus.Error {
	return o.unsupported("StopNotify")
}

// Confirm acknowledges an indication.
func (o *CharacteristicObject) Confirm() *dbus.Error {
	return o.unsupported("Confirm")
}

// AcquireNotify hands out a notification socket.
func (o *CharacteristicObject) AcquireNotify(options map[string]dbus.Variant) (dbus.UnixFD, uint16, *dbus.Error) {
	return 0, 0, o.unsupported("AcquireNotify")
}

// AcquireWrite hands out a write socket.
func (o *CharacteristicObject) AcquireWrite(options map[string]dbus.Variant) (dbus.UnixFD, uint16, *dbus.Error) {
	return 0, 0, o.unsupported("AcquireWrite")
}

func (o *CharacteristicObject) unsupported(method string) *dbus.Error {
	return o.fail(method, fmt.Errorf("%w: %s on %s", ErrNotSupported, method, o.iface))
}

// CharacteristicHandle gives the application owner access to a registered
// characteristic and its descriptors.
type CharacteristicHandle struct {
	uuid        uuid.UUID
	path        dbus.ObjectPath
	value       *ValueStore
	object      *CharacteristicObject
	props       Properties
	descriptors []*DescriptorHandle
	byUUID      *orderedmap.OrderedMap[uuid.UUID, *DescriptorHandle]
}

func (h *CharacteristicHandle) UUID() uuid.UUID               { return h.uuid }
func (h *CharacteristicHandle) Path() dbus.ObjectPath         { return h.path }
func (h *CharacteristicHandle) Value() *ValueStore            { return h.value }
func (h *CharacteristicHandle) Object() *CharacteristicObject { return h.object }

// Properties returns a copy of the registration-time snapshot.
func (h *CharacteristicHandle) Properties() Properties { return h.props.Copy() }

// Descriptor looks up a descriptor handle by UUID. With duplicate UUIDs the
// last declared descriptor wins.
func (h *CharacteristicHandle) Descriptor(id uuid.UUID) (*DescriptorHandle, bool) {
	return h.byUUID.Get(id)
}

// Descriptors returns every descriptor handle in declaration order,
// duplicates included.
func (h *CharacteristicHandle) Descriptors() []*DescriptorHandle {
	return append([]*DescriptorHandle(nil), h.descriptors...)
}
