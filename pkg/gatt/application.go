// Package gatt builds the GATT application object tree a BLE peripheral
// exposes to BlueZ.
//
// A caller declares services, characteristics and descriptors, then
// RegisterNew publishes them depth-first under a root path and hands the
// root to org.bluez.GattManager1:
//
//	/com/example                                    org.freedesktop.DBus.ObjectManager
//	/com/example/service0                           org.bluez.GattService1
//	/com/example/service0/characteristic0           org.bluez.GattCharacteristic1
//	/com/example/service0/characteristic1           org.bluez.GattCharacteristic1
//	/com/example/service0/characteristic1/descriptor0  org.bluez.GattDescriptor1
//	/com/example/service1                           org.bluez.GattService1
//
// Paths follow declaration order only. Definitions are immutable once
// declared, except for characteristic and descriptor values, which live in a
// ValueStore shared between the definition and its handle.
package gatt

import (
	"context"
	"fmt"

	"github.com/cornelk/hashmap"
	"github.com/godbus/dbus/v5"
	"github.com/sirupsen/logrus"
)

// ServiceDecl declares a service and its characteristics in order.
type ServiceDecl struct {
	Service         *Service
	Characteristics []CharacteristicDecl
}

// CharacteristicDecl declares a characteristic and its descriptors in order.
type CharacteristicDecl struct {
	Characteristic *Characteristic
	Descriptors    []*Descriptor
}

// Option configures RegisterNew.
type Option func(*registerOptions)

type registerOptions struct {
	logger          *logrus.Logger
	registerOptions map[string]dbus.Variant
	rollback        bool
}

// WithLogger sets the logger used during registration and by published
// objects.
func WithLogger(logger *logrus.Logger) Option {
	return func(o *registerOptions) { o.logger = logger }
}

// WithRegisterOptions sets the options dictionary passed to
// RegisterApplication.
func WithRegisterOptions(options map[string]dbus.Variant) Option {
	return func(o *registerOptions) { o.registerOptions = options }
}

// WithoutRollback leaves objects published by a failed registration in
// place. Suitable for processes that exit on registration failure.
func WithoutRollback() Option {
	return func(o *registerOptions) { o.rollback = false }
}

// ApplicationObject serves GetManagedObjects at the application root.
type ApplicationObject struct {
	objects ManagedObjects
}

// GetManagedObjects returns every service, characteristic and descriptor
// published under the root with its registration-time properties.
func (a *ApplicationObject) GetManagedObjects() (map[dbus.ObjectPath]map[string]map[string]dbus.Variant, *dbus.Error) {
	out := make(map[dbus.ObjectPath]map[string]map[string]dbus.Variant, len(a.objects))
	for path, ifaces := range a.objects.Copy() {
		m := make(map[string]map[string]dbus.Variant, len(ifaces))
		for name, props := range ifaces {
			m[name] = props
		}
		out[path] = m
	}
	return out, nil
}

// ManagedObjects returns a copy of the index.
func (a *ApplicationObject) ManagedObjects() ManagedObjects {
	return a.objects.Copy()
}

// RegisterNew publishes the declared tree under root and registers it with
// reg. Any failure aborts the whole registration and is returned as a
// *RegistrationError; objects published before the failure are removed again
// unless WithoutRollback is given.
func RegisterNew(ctx context.Context, dir ObjectDirectory, reg Registrar, root string, services []ServiceDecl, opts ...Option) (*ApplicationHandle, error) {
	o := registerOptions{rollback: true}
	for _, opt := range opts {
		opt(&o)
	}
	if o.registerOptions == nil {
		o.registerOptions = map[string]dbus.Variant{}
	}
	logger := orNewLogger(o.logger)

	path := dbus.ObjectPath(root)
	if !path.IsValid() {
		return nil, &RegistrationError{
			Step: StepValidate,
			Path: path,
			Err:  fmt.Errorf("%w: invalid object path %q", ErrInvalidArguments, root),
		}
	}
	if err := validateDecls(services); err != nil {
		return nil, &RegistrationError{Step: StepValidate, Path: path, Err: err}
	}

	b := &treeBuilder{dir: dir, logger: logger}
	objects := make(ManagedObjects)
	handles := make([]*ServiceHandle, 0, len(services))

	for i, decl := range services {
		h, err := decl.Service.register(b, objects, ChildPath(path, KindService, i), decl.Characteristics)
		if err != nil {
			return nil, b.abort(o.rollback, err)
		}
		handles = append(handles, h)
	}

	app := &ApplicationObject{objects: objects}
	if err := b.publish(path, ObjectManagerInterface, app, nil); err != nil {
		return nil, b.abort(o.rollback, err)
	}

	if err := reg.RegisterApplication(ctx, path, o.registerOptions); err != nil {
		logger.WithField("path", path).WithError(err).Error("RegisterApplication failed")
		return nil, b.abort(o.rollback, &RegistrationError{Step: StepRegister, Path: path, Err: err})
	}

	logger.WithFields(logrus.Fields{
		"path":    path,
		"objects": len(objects),
	}).Info("GATT application registered")

	return newApplicationHandle(path, dir, reg, app, handles, b.published, logger), nil
}

func validateDecls(services []ServiceDecl) error {
	for i, s := range services {
		if s.Service == nil {
			return fmt.Errorf("%w: service %d is nil", ErrInvalidArguments, i)
		}
		for j, c := range s.Characteristics {
			if c.Characteristic == nil {
				return fmt.Errorf("%w: characteristic %d of service %d is nil", ErrInvalidArguments, j, i)
			}
			for k, d := range c.Descriptors {
				if d == nil {
					return fmt.Errorf("%w: descriptor %d of characteristic %d of service %d is nil", ErrInvalidArguments, k, j, i)
				}
			}
		}
	}
	return nil
}

// ApplicationHandle is returned by a successful RegisterNew.
type ApplicationHandle struct {
	path      dbus.ObjectPath
	dir       ObjectDirectory
	reg       Registrar
	app       *ApplicationObject
	services  []*ServiceHandle
	published []publication
	values    *hashmap.Map[dbus.ObjectPath, *ValueStore]
	logger    *logrus.Logger
}

func newApplicationHandle(path dbus.ObjectPath, dir ObjectDirectory, reg Registrar, app *ApplicationObject, services []*ServiceHandle, published []publication, logger *logrus.Logger) *ApplicationHandle {
	values := hashmap.New[dbus.ObjectPath, *ValueStore]()
	for _, s := range services {
		for _, c := range s.Characteristics() {
			values.Set(c.Path(), c.Value())
			for _, d := range c.Descriptors() {
				values.Set(d.Path(), d.Value())
			}
		}
	}
	return &ApplicationHandle{
		path:      path,
		dir:       dir,
		reg:       reg,
		app:       app,
		services:  services,
		published: published,
		values:    values,
		logger:    logger,
	}
}

func (h *ApplicationHandle) Path() dbus.ObjectPath { return h.path }

// Services returns the service handles in declaration order.
func (h *ApplicationHandle) Services() []*ServiceHandle {
	return append([]*ServiceHandle(nil), h.services...)
}

// ManagedObjects returns a copy of the index served at the root.
func (h *ApplicationHandle) ManagedObjects() ManagedObjects {
	return h.app.ManagedObjects()
}

// Value returns the value store of the characteristic or descriptor at path.
func (h *ApplicationHandle) Value(path dbus.ObjectPath) (*ValueStore, bool) {
	return h.values.Get(path)
}

// Unregister tells the registrar to drop the application. Published objects
// stay in place; see Unpublish.
func (h *ApplicationHandle) Unregister(ctx context.Context) error {
	if err := h.reg.UnregisterApplication(ctx, h.path); err != nil {
		h.logger.WithField("path", h.path).WithError(err).Error("UnregisterApplication failed")
		return fmt.Errorf("unregister application %s: %w", h.path, err)
	}
	h.logger.WithField("path", h.path).Info("GATT application unregistered")
	return nil
}

// Unpublish removes every object of the application from the directory, root
// first. It keeps going after a failure and returns the first error.
func (h *ApplicationHandle) Unpublish() error {
	return unpublishAll(h.dir, h.published, h.logger)
}
