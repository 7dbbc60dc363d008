// Package bledb resolves Bluetooth UUIDs: short SIG-assigned numbers are
// expanded over the Bluetooth base UUID and a few well-known attributes get a
// display name.
package bledb

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// BaseUUID is the Bluetooth SIG base UUID 0000xxxx-0000-1000-8000-00805f9b34fb.
var BaseUUID = uuid.MustParse("00000000-0000-1000-8000-00805f9b34fb")

// NormalizeUUID lowercases a UUID string and strips dashes, braces and a 0x
// prefix. 128-bit UUIDs on the SIG base are reduced to their 16-bit short
// form, e.g. "0000180D-0000-1000-8000-00805F9B34FB" -> "180d".
func NormalizeUUID(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "0x")
	s = strings.Trim(s, "{}")
	s = strings.ReplaceAll(s, "-", "")

	if len(s) == 32 && strings.HasPrefix(s, "0000") && strings.HasSuffix(s, "00001000800000805f9b34fb") {
		return s[4:8]
	}
	return s
}

// ParseUUID accepts a 16-bit or 32-bit SIG short form ("180d", "0x2a37") or
// a full 128-bit UUID in any common spelling.
func ParseUUID(s string) (uuid.UUID, error) {
	n := NormalizeUUID(s)
	switch len(n) {
	case 4:
		n = "0000" + n
		fallthrough
	case 8:
		var id uuid.UUID
		short, err := uuid.Parse(n + "-0000-1000-8000-00805f9b34fb")
		if err != nil {
			return id, fmt.Errorf("invalid short UUID %q: %w", s, err)
		}
		return short, nil
	case 32:
		id, err := uuid.Parse(n)
		if err != nil {
			return id, fmt.Errorf("invalid UUID %q: %w", s, err)
		}
		return id, nil
	default:
		return uuid.UUID{}, fmt.Errorf("invalid UUID %q", s)
	}
}

// MustParseUUID is ParseUUID that panics on error.
func MustParseUUID(s string) uuid.UUID {
	id, err := ParseUUID(s)
	if err != nil {
		panic(err)
	}
	return id
}

var services = map[string]string{
	"1800": "Generic Access",
	"1801": "Generic Attribute",
	"180a": "Device Information",
	"180d": "Heart Rate",
	"180f": "Battery Service",
	"181a": "Environmental Sensing",
	"6e400001b5a3f393e0a9e50e24dcca9e": "Nordic UART Service",
}

var characteristics = map[string]string{
	"2a00": "Device Name",
	"2a01": "Appearance",
	"2a19": "Battery Level",
	"2a29": "Manufacturer Name String",
	"2a37": "Heart Rate Measurement",
	"2a38": "Body Sensor Location",
	"2a39": "Heart Rate Control Point",
	"2a6e": "Temperature",
	"6e400002b5a3f393e0a9e50e24dcca9e": "UART RX",
	"6e400003b5a3f393e0a9e50e24dcca9e": "UART TX",
}

var descriptors = map[string]string{
	"2900": "Characteristic Extended Properties",
	"2901": "Characteristic User Description",
	"2902": "Client Characteristic Configuration",
	"2903": "Server Characteristic Configuration",
	"2904": "Characteristic Presentation Format",
	"2905": "Characteristic Aggregate Format",
	"2906": "Valid Range",
}

// LookupService returns the well-known name of a service UUID, or "".
func LookupService(s string) string { return services[NormalizeUUID(s)] }

// LookupCharacteristic returns the well-known name of a characteristic UUID, or "".
func LookupCharacteristic(s string) string { return characteristics[NormalizeUUID(s)] }

// LookupDescriptor returns the well-known name of a descriptor UUID, or "".
func LookupDescriptor(s string) string { return descriptors[NormalizeUUID(s)] }
