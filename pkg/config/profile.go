package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/srg/bluegatt/internal/bledb"
	"github.com/srg/bluegatt/pkg/gatt"
	"gopkg.in/yaml.v3"
)

// Profile is the YAML declaration of a GATT application:
//
//	services:
//	  - uuid: "180d"
//	    characteristics:
//	      - uuid: "2a37"
//	        flags: read,notify
//	        value: hex:004b
//	        descriptors:
//	          - uuid: "2901"
//	            flags: [read]
//	            value: Heart Rate
type Profile struct {
	Services []ServiceConfig `yaml:"services"`
}

// ServiceConfig declares one service. Primary defaults to true.
type ServiceConfig struct {
	UUID            string                 `yaml:"uuid"`
	Primary         *bool                  `yaml:"primary,omitempty"`
	Characteristics []CharacteristicConfig `yaml:"characteristics,omitempty"`
}

// CharacteristicConfig declares one characteristic.
type CharacteristicConfig struct {
	UUID           string             `yaml:"uuid"`
	Flags          FlagList           `yaml:"flags,omitempty"`
	Value          Value              `yaml:"value,omitempty"`
	Notifying      *bool              `yaml:"notifying,omitempty"`
	NotifyAcquired *bool              `yaml:"notify_acquired,omitempty"`
	WriteAcquired  *bool              `yaml:"write_acquired,omitempty"`
	Descriptors    []DescriptorConfig `yaml:"descriptors,omitempty"`
}

// DescriptorConfig declares one descriptor.
type DescriptorConfig struct {
	UUID  string   `yaml:"uuid"`
	Flags FlagList `yaml:"flags,omitempty"`
	Value Value    `yaml:"value,omitempty"`
}

// FlagList accepts either a YAML sequence or a comma separated string.
type FlagList []string

func (f *FlagList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var parts []string
		for _, p := range strings.Split(node.Value, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		*f = parts
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return err
		}
		*f = list
		return nil
	default:
		return fmt.Errorf("line %d: flags must be a string or a list", node.Line)
	}
}

func (f FlagList) String() string { return strings.Join(f, ",") }

// Value is an attribute value. A scalar prefixed with "hex:" is hex decoded,
// any other scalar is taken as text, and a sequence is read as byte values.
type Value []byte

func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if rest, ok := strings.CutPrefix(node.Value, "hex:"); ok {
			b, err := hex.DecodeString(strings.ReplaceAll(rest, " ", ""))
			if err != nil {
				return fmt.Errorf("line %d: invalid hex value: %w", node.Line, err)
			}
			*v = b
			return nil
		}
		*v = []byte(node.Value)
		return nil
	case yaml.SequenceNode:
		var list []int
		if err := node.Decode(&list); err != nil {
			return fmt.Errorf("line %d: invalid byte list: %w", node.Line, err)
		}
		b := make([]byte, len(list))
		for i, n := range list {
			if n < 0 || n > 0xff {
				return fmt.Errorf("line %d: byte %d out of range: %d", node.Line, i, n)
			}
			b[i] = byte(n)
		}
		*v = b
		return nil
	default:
		return fmt.Errorf("line %d: value must be a string or a byte list", node.Line)
	}
}

// LoadProfile reads a YAML profile file.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}
	p, err := ParseProfile(data)
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", path, err)
	}
	return p, nil
}

// ParseProfile decodes a YAML profile.
func ParseProfile(data []byte) (*Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse profile: %w", err)
	}
	if len(p.Services) == 0 {
		return nil, fmt.Errorf("profile declares no services")
	}
	return &p, nil
}

// Declarations builds fresh gatt definitions from the profile. Every call
// returns new value stores.
func (p *Profile) Declarations() ([]gatt.ServiceDecl, error) {
	decls := make([]gatt.ServiceDecl, 0, len(p.Services))
	for i, s := range p.Services {
		id, err := bledb.ParseUUID(s.UUID)
		if err != nil {
			return nil, fmt.Errorf("service %d: %w", i, err)
		}
		primary := true
		if s.Primary != nil {
			primary = *s.Primary
		}

		decl := gatt.ServiceDecl{Service: gatt.NewService(id, primary)}
		for j, c := range s.Characteristics {
			cd, err := c.declaration()
			if err != nil {
				return nil, fmt.Errorf("service %d characteristic %d: %w", i, j, err)
			}
			decl.Characteristics = append(decl.Characteristics, cd)
		}
		decls = append(decls, decl)
	}
	return decls, nil
}

func (c CharacteristicConfig) declaration() (gatt.CharacteristicDecl, error) {
	id, err := bledb.ParseUUID(c.UUID)
	if err != nil {
		return gatt.CharacteristicDecl{}, err
	}
	flags, err := gatt.ParseCharacteristicFlags(c.Flags.String())
	if err != nil {
		return gatt.CharacteristicDecl{}, err
	}

	var opts []gatt.CharacteristicOption
	if c.Notifying != nil {
		opts = append(opts, gatt.WithNotifying(*c.Notifying))
	}
	if c.NotifyAcquired != nil {
		opts = append(opts, gatt.WithNotifyAcquired(*c.NotifyAcquired))
	}
	if c.WriteAcquired != nil {
		opts = append(opts, gatt.WithWriteAcquired(*c.WriteAcquired))
	}

	decl := gatt.CharacteristicDecl{
		Characteristic: gatt.NewCharacteristic(id, c.Value, flags, opts...),
	}
	for k, d := range c.Descriptors {
		did, err := bledb.ParseUUID(d.UUID)
		if err != nil {
			return gatt.CharacteristicDecl{}, fmt.Errorf("descriptor %d: %w", k, err)
		}
		dflags, err := gatt.ParseDescriptorFlags(d.Flags.String())
		if err != nil {
			return gatt.CharacteristicDecl{}, fmt.Errorf("descriptor %d: %w", k, err)
		}
		decl.Descriptors = append(decl.Descriptors, gatt.NewDescriptor(did, d.Value, dflags))
	}
	return decl, nil
}
