package testutils

import (
	"fmt"

	"github.com/srg/bluegatt/internal/bledb"
	"github.com/srg/bluegatt/pkg/config"
	"github.com/srg/bluegatt/pkg/gatt"
)

// ApplicationBuilder builds GATT declarations for tests with a fluent API:
//
//	decls := testutils.NewApplicationBuilder().
//	    WithService("180D").
//	    WithCharacteristic("2A37", "read,notify", []byte{80}).
//	    WithDescriptor("2901", "read", []byte("Heart Rate")).
//	    Build()
//
// UUIDs accept the short forms understood by bledb.ParseUUID. Invalid input
// panics, which is fine for tests.
type ApplicationBuilder struct {
	services []gatt.ServiceDecl
}

func NewApplicationBuilder() *ApplicationBuilder {
	return &ApplicationBuilder{}
}

// WithService adds a primary service.
func (b *ApplicationBuilder) WithService(id string) *ApplicationBuilder {
	return b.WithServicePrimary(id, true)
}

// WithServicePrimary adds a service with an explicit Primary value.
func (b *ApplicationBuilder) WithServicePrimary(id string, primary bool) *ApplicationBuilder {
	b.services = append(b.services, gatt.ServiceDecl{
		Service: gatt.NewService(bledb.MustParseUUID(id), primary),
	})
	return b
}

// WithCharacteristic adds a characteristic to the last added service.
func (b *ApplicationBuilder) WithCharacteristic(id, flags string, value []byte, opts ...gatt.CharacteristicOption) *ApplicationBuilder {
	if len(b.services) == 0 {
		panic("WithCharacteristic called before WithService")
	}
	parsed, err := gatt.ParseCharacteristicFlags(flags)
	if err != nil {
		panic(err)
	}
	s := &b.services[len(b.services)-1]
	s.Characteristics = append(s.Characteristics, gatt.CharacteristicDecl{
		Characteristic: gatt.NewCharacteristic(bledb.MustParseUUID(id), value, parsed, opts...),
	})
	return b
}

// WithDescriptor adds a descriptor to the last added characteristic.
func (b *ApplicationBuilder) WithDescriptor(id, flags string, value []byte) *ApplicationBuilder {
	if len(b.services) == 0 || len(b.services[len(b.services)-1].Characteristics) == 0 {
		panic("WithDescriptor called before WithCharacteristic")
	}
	parsed, err := gatt.ParseDescriptorFlags(flags)
	if err != nil {
		panic(err)
	}
	s := &b.services[len(b.services)-1]
	c := &s.Characteristics[len(s.Characteristics)-1]
	c.Descriptors = append(c.Descriptors, gatt.NewDescriptor(bledb.MustParseUUID(id), value, parsed))
	return b
}

// FromYAML appends the services of a YAML profile. The profile string may be
// a format string.
func (b *ApplicationBuilder) FromYAML(profileFmt string, args ...interface{}) *ApplicationBuilder {
	text := profileFmt
	if len(args) > 0 {
		text = fmt.Sprintf(profileFmt, args...)
	}
	p, err := config.ParseProfile([]byte(text))
	if err != nil {
		panic(fmt.Sprintf("invalid profile: %v", err))
	}
	decls, err := p.Declarations()
	if err != nil {
		panic(fmt.Sprintf("invalid profile: %v", err))
	}
	b.services = append(b.services, decls...)
	return b
}

// Build returns the declarations collected so far.
func (b *ApplicationBuilder) Build() []gatt.ServiceDecl {
	return append([]gatt.ServiceDecl(nil), b.services...)
}
