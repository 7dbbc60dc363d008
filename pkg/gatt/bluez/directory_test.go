package bluez

import (
	"context"
	"errors"
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
	"github.com/srg/bluegatt/internal/testutils"
	"github.com/srg/bluegatt/pkg/gatt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// sessionConn returns a private session bus connection, skipping the test
// when no session bus is available.
func sessionConn(t *testing.T) *dbus.Conn {
	t.Helper()
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		t.Skipf("session bus unavailable: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestDirectory_ServesRegisteredTree(t *testing.T) {
	conn := sessionConn(t)
	helper := testutils.NewTestHelper(t)
	dir := NewDirectory(conn, helper.Logger)
	reg := testutils.NewMockRegistrar().AcceptAll()

	decls := testutils.NewApplicationBuilder().
		WithService("180D").
		WithCharacteristic("2A37", "read,write", []byte{1, 2, 3}).
		WithDescriptor("2901", "read", []byte("HR")).
		Build()
	app, err := gatt.RegisterNew(context.Background(), dir, reg, "/com/example/test", decls, gatt.WithLogger(helper.Logger))
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Unpublish() })

	self := conn.Object(conn.Names()[0], "/com/example/test")

	var objects map[dbus.ObjectPath]map[string]map[string]dbus.Variant
	require.NoError(t, self.Call(gatt.ObjectManagerInterface+".GetManagedObjects", 0).Store(&objects))
	assert.Len(t, objects, 3)

	chr := conn.Object(conn.Names()[0], "/com/example/test/service0/characteristic0")
	var value []byte
	require.NoError(t, chr.Call(gatt.CharacteristicInterface+".ReadValue", 0, map[string]dbus.Variant{
		"offset": dbus.MakeVariant(uint16(1)),
	}).Store(&value))
	assert.Equal(t, []byte{2, 3}, value)

	flags, err := chr.GetProperty(gatt.CharacteristicInterface + ".Flags")
	require.NoError(t, err)
	assert.Equal(t, []string{"read", "write"}, flags.Value())

	call := chr.Call(gatt.CharacteristicInterface+".StartNotify", 0)
	var derr dbus.Error
	require.ErrorAs(t, call.Err, &derr)
	assert.Equal(t, gatt.ErrorNameNotSupported, derr.Name)

	var xml string
	require.NoError(t, chr.Call("org.freedesktop.DBus.Introspectable.Introspect", 0).Store(&xml))
	assert.Contains(t, xml, gatt.CharacteristicInterface)
	assert.Contains(t, xml, "ReadValue")
	assert.NotContains(t, xml, "<method name=\"Property\"")

	reg.AssertCalled(t, "RegisterApplication", mock.Anything, dbus.ObjectPath("/com/example/test"), mock.Anything)
}

func TestDirectory_PublishCollision(t *testing.T) {
	conn := sessionConn(t)
	dir := NewDirectory(conn, nil)

	node := introspect.Node{Name: "/x"}
	require.NoError(t, dir.Publish("/com/example/dup", gatt.ServiceInterface, &node, gatt.Properties{}))
	t.Cleanup(func() { _ = dir.Unpublish("/com/example/dup", gatt.ServiceInterface) })

	err := dir.Publish("/com/example/dup", gatt.ServiceInterface, &node, nil)
	assert.ErrorIs(t, err, gatt.ErrPathInUse)

	require.NoError(t, dir.Unpublish("/com/example/dup", gatt.ServiceInterface))
	assert.Error(t, dir.Unpublish("/com/example/dup", gatt.ServiceInterface), "unpublishing twice MUST fail")
}

func TestDirectory_FailedSupportExportLeavesNoState(t *testing.T) {
	conn := sessionConn(t)
	helper := testutils.NewTestHelper(t)
	dir := NewDirectory(conn, helper.Logger)

	node := introspect.Node{Name: "/x"}
	dir.exportSupport = func(dbus.ObjectPath, map[string]exported) error {
		return errors.New("properties export failed")
	}

	err := dir.Publish("/com/example/broken", gatt.ServiceInterface, &node, gatt.Properties{})
	require.ErrorContains(t, err, "properties export failed")
	assert.NotContains(t, dir.paths, dbus.ObjectPath("/com/example/broken"), "failed publish MUST NOT leave an entry")

	dir.exportSupport = dir.exportHandlers
	require.NoError(t, dir.Publish("/com/example/broken", gatt.ServiceInterface, &node, gatt.Properties{}),
		"path MUST be reusable after a failed publish")
	require.NoError(t, dir.Unpublish("/com/example/broken", gatt.ServiceInterface))
	assert.Empty(t, dir.paths)
}
