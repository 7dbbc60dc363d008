package testutils

import (
	"bytes"
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/sirupsen/logrus"
	"github.com/srg/bluegatt/pkg/gatt"
	"github.com/stretchr/testify/require"
)

type TestHelper struct {
	T      *testing.T
	Logger *logrus.Logger
	Output *bytes.Buffer
}

// NewTestHelper creates a test helper whose logger writes into Output.
func NewTestHelper(t *testing.T) *TestHelper {
	out := &bytes.Buffer{}
	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel) // enable debug logs to track execution flow
	logger.SetOutput(out)
	return &TestHelper{
		T:      t,
		Logger: logger,
		Output: out,
	}
}

// Offset builds the options dictionary bluetoothd sends with an offset.
func Offset(offset uint16) map[string]dbus.Variant {
	return map[string]dbus.Variant{"offset": dbus.MakeVariant(offset)}
}

// RequireProperty fetches a property from a snapshot and fails the test when
// it is unknown.
func (h *TestHelper) RequireProperty(props gatt.Properties, iface, name string) interface{} {
	h.T.Helper()
	v, err := props.Get(iface, name)
	require.NoError(h.T, err, "property %s.%s MUST be set", iface, name)
	return v.Value()
}
