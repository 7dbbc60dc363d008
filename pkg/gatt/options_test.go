package gatt

import (
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOffset(t *testing.T) {
	tests := []struct {
		name     string
		options  map[string]dbus.Variant
		expected uint16
		wantErr  bool
	}{
		{name: "nil options", options: nil, expected: 0},
		{name: "missing key", options: map[string]dbus.Variant{"mtu": dbus.MakeVariant(uint16(23))}, expected: 0},
		{name: "uint16", options: map[string]dbus.Variant{"offset": dbus.MakeVariant(uint16(5))}, expected: 5},
		{name: "widened int32", options: map[string]dbus.Variant{"offset": dbus.MakeVariant(int32(7))}, expected: 7},
		{name: "uint64 max", options: map[string]dbus.Variant{"offset": dbus.MakeVariant(uint64(65535))}, expected: 65535},
		{name: "negative", options: map[string]dbus.Variant{"offset": dbus.MakeVariant(int32(-1))}, wantErr: true},
		{name: "too large", options: map[string]dbus.Variant{"offset": dbus.MakeVariant(uint32(70000))}, wantErr: true},
		{name: "wrong type", options: map[string]dbus.Variant{"offset": dbus.MakeVariant("3")}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseOffset(tt.options)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidArguments)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseRequestOptions(t *testing.T) {
	opts, err := ParseRequestOptions(map[string]dbus.Variant{
		"offset":            dbus.MakeVariant(uint16(4)),
		"mtu":               dbus.MakeVariant(uint16(185)),
		"device":            dbus.MakeVariant(dbus.ObjectPath("/org/bluez/hci0/dev_AA_BB_CC_DD_EE_FF")),
		"link":              dbus.MakeVariant("LE"),
		"type":              dbus.MakeVariant("request"),
		"prepare-authorize": dbus.MakeVariant(true),
		"unknown":           dbus.MakeVariant(1),
	})

	require.NoError(t, err)
	assert.Equal(t, RequestOptions{
		Offset:           4,
		MTU:              185,
		Device:           "/org/bluez/hci0/dev_AA_BB_CC_DD_EE_FF",
		Link:             "LE",
		Type:             "request",
		PrepareAuthorize: true,
	}, opts)

	mismatched := map[string]dbus.Variant{
		"device":            dbus.MakeVariant("not a path"),
		"link":              dbus.MakeVariant(uint8(1)),
		"type":              dbus.MakeVariant(true),
		"prepare-authorize": dbus.MakeVariant("yes"),
		"mtu":               dbus.MakeVariant("185"),
	}
	for key, v := range mismatched {
		t.Run(key, func(t *testing.T) {
			_, err := ParseRequestOptions(map[string]dbus.Variant{key: v})
			assert.ErrorIs(t, err, ErrInvalidArguments)
			assert.ErrorContains(t, err, "option "+key)
		})
	}
}
