package gatt

import (
	"github.com/godbus/dbus/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Service is the definition of a GATT service. A service carries no value of
// its own.
type Service struct {
	uuid    uuid.UUID
	primary bool
}

func NewService(id uuid.UUID, primary bool) *Service {
	return &Service{uuid: id, primary: primary}
}

func (s *Service) UUID() uuid.UUID { return s.uuid }
func (s *Service) Primary() bool   { return s.primary }

func (s *Service) properties(characteristics []dbus.ObjectPath) Properties {
	return Properties{
		"UUID":            dbus.MakeVariant(s.uuid.String()),
		"Primary":         dbus.MakeVariant(s.primary),
		"Characteristics": dbus.MakeVariant(objectPaths(characteristics)),
	}
}

// register publishes the service after every characteristic below it.
func (s *Service) register(b *treeBuilder, objects ManagedObjects, path dbus.ObjectPath, chars []CharacteristicDecl) (*ServiceHandle, error) {
	byUUID := orderedmap.New[uuid.UUID, *CharacteristicHandle]()
	handles := make([]*CharacteristicHandle, 0, len(chars))
	paths := make([]dbus.ObjectPath, 0, len(chars))

	for j, decl := range chars {
		charPath := ChildPath(path, KindCharacteristic, j)
		h, err := decl.Characteristic.register(b, objects, charPath, path, decl.Descriptors)
		if err != nil {
			return nil, err
		}
		paths = append(paths, charPath)
		handles = append(handles, h)
		byUUID.Set(decl.Characteristic.uuid, h)
	}

	props := s.properties(paths)
	obj := &ServiceObject{path: path, props: props}
	if err := b.publish(path, ServiceInterface, obj, props); err != nil {
		return nil, err
	}
	objects.add(path, ServiceInterface, props)
	b.logger.WithFields(logrus.Fields{
		"path":            path,
		"uuid":            s.uuid,
		"characteristics": len(paths),
	}).Debug("GattService1: added")

	return &ServiceHandle{
		uuid:            s.uuid,
		primary:         s.primary,
		path:            path,
		object:          obj,
		props:           props,
		characteristics: handles,
		byUUID:          byUUID,
	}, nil
}

// ServiceObject is the org.bluez.GattService1 object published on the bus.
// It has properties only.
type ServiceObject struct {
	path  dbus.ObjectPath
	props Properties
}

func (o *ServiceObject) Path() dbus.ObjectPath { return o.path }

// Property returns the registration-time value of the named property.
func (o *ServiceObject) Property(name string) (dbus.Variant, error) {
	return o.props.Get(ServiceInterface, name)
}

// ServiceHandle gives the application owner access to a registered service
// and everything below it.
type ServiceHandle struct {
	uuid            uuid.UUID
	primary         bool
	path            dbus.ObjectPath
	object          *ServiceObject
	props           Properties
	characteristics []*CharacteristicHandle
	byUUID          *orderedmap.OrderedMap[uuid.UUID, *CharacteristicHandle]
}

func (h *ServiceHandle) UUID() uuid.UUID        { return h.uuid }
func (h *ServiceHandle) Primary() bool          { return h.primary }
func (h *ServiceHandle) Path() dbus.ObjectPath  { return h.path }
func (h *ServiceHandle) Object() *ServiceObject { return h.object }
func (h *ServiceHandle) Properties() Properties { return h.props.Copy() }

// Characteristic looks up a characteristic handle by UUID. With duplicate
// UUIDs the last declared characteristic wins.
func (h *ServiceHandle) Characteristic(id uuid.UUID) (*CharacteristicHandle, bool) {
	return h.byUUID.Get(id)
}

// Characteristics returns every characteristic handle in declaration order,
// duplicates included.
func (h *ServiceHandle) Characteristics() []*CharacteristicHandle {
	return append([]*CharacteristicHandle(nil), h.characteristics...)
}
