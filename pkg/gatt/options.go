package gatt

import (
	"fmt"
	"math"

	"github.com/godbus/dbus/v5"
)

// RequestOptions are the server-side options bluetoothd attaches to
// ReadValue/WriteValue calls.
type RequestOptions struct {
	Offset           uint16
	MTU              uint16
	Device           dbus.ObjectPath
	Link             string
	Type             string // "command", "request" or "reliable" (writes only)
	PrepareAuthorize bool
}

// ParseOffset extracts the "offset" option. A missing option means offset 0.
func ParseOffset(options map[string]dbus.Variant) (uint16, error) {
	v, ok := options["offset"]
	if !ok {
		return 0, nil
	}
	return toUint16("offset", v.Value())
}

// ParseRequestOptions decodes every option bluetoothd may send. Unknown keys
// are ignored.
func ParseRequestOptions(options map[string]dbus.Variant) (RequestOptions, error) {
	var opts RequestOptions
	var err error

	if opts.Offset, err = ParseOffset(options); err != nil {
		return opts, err
	}
	if v, ok := options["mtu"]; ok {
		if opts.MTU, err = toUint16("mtu", v.Value()); err != nil {
			return opts, err
		}
	}
	if v, ok := options["device"]; ok {
		p, ok := v.Value().(dbus.ObjectPath)
		if !ok {
			return opts, optionTypeError("device", v)
		}
		opts.Device = p
	}
	if v, ok := options["link"]; ok {
		if opts.Link, ok = v.Value().(string); !ok {
			return opts, optionTypeError("link", v)
		}
	}
	if v, ok := options["type"]; ok {
		if opts.Type, ok = v.Value().(string); !ok {
			return opts, optionTypeError("type", v)
		}
	}
	if v, ok := options["prepare-authorize"]; ok {
		if opts.PrepareAuthorize, ok = v.Value().(bool); !ok {
			return opts, optionTypeError("prepare-authorize", v)
		}
	}
	return opts, nil
}

func optionTypeError(name string, v dbus.Variant) error {
	return fmt.Errorf("%w: option %s has type %T", ErrInvalidArguments, name, v.Value())
}

func toUint16(name string, raw interface{}) (uint16, error) {
	var n int64
	switch x := raw.(type) {
	case uint16:
		return x, nil
	case uint8:
		n = int64(x)
	case int16:
		n = int64(x)
	case int32:
		n = int64(x)
	case uint32:
		n = int64(x)
	case int64:
		n = x
	case uint64:
		if x > math.MaxUint16 {
			return 0, fmt.Errorf("%w: option %s out of range: %d", ErrInvalidArguments, name, x)
		}
		n = int64(x)
	case int:
		n = int64(x)
	default:
		return 0, fmt.Errorf("%w: option %s has type %T", ErrInvalidArguments, name, raw)
	}
	if n < 0 || n > math.MaxUint16 {
		return 0, fmt.Errorf("%w: option %s out of range: %d", ErrInvalidArguments, name, n)
	}
	return uint16(n), nil
}
