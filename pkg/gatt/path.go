package gatt

import (
	"fmt"

	"github.com/godbus/dbus/v5"
)

// Kind is the attribute kind that selects a child path suffix.
type Kind int

const (
	KindService Kind = iota
	KindCharacteristic
	KindDescriptor
)

func (k Kind) String() string {
	switch k {
	case KindService:
		return "service"
	case KindCharacteristic:
		return "characteristic"
	case KindDescriptor:
		return "descriptor"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Interface returns the BlueZ interface name objects of this kind implement.
func (k Kind) Interface() string {
	switch k {
	case KindService:
		return ServiceInterface
	case KindCharacteristic:
		return CharacteristicInterface
	case KindDescriptor:
		return DescriptorInterface
	default:
		return ""
	}
}

// ChildPath returns the path of the index-th child of the given kind below
// parent, e.g. /app/service0/characteristic1. The result depends only on its
// arguments, never on attribute content.
func ChildPath(parent dbus.ObjectPath, kind Kind, index int) dbus.ObjectPath {
	if parent == "/" {
		parent = ""
	}
	return dbus.ObjectPath(fmt.Sprintf("%s/%s%d", parent, kind, index))
}
