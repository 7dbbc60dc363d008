package gatt

import (
	"fmt"
	"strings"
)

// CharacteristicFlag is a capability token reported in the Flags property of
// org.bluez.GattCharacteristic1.
type CharacteristicFlag string

// Characteristic flag tokens, in the order BlueZ documents them.
const (
	CharBroadcast                    CharacteristicFlag = "broadcast"
	CharRead                         CharacteristicFlag = "read"
	CharWriteWithoutResponse         CharacteristicFlag = "write-without-response"
	CharWrite                        CharacteristicFlag = "write"
	CharNotify                       CharacteristicFlag = "notify"
	CharIndicate                     CharacteristicFlag = "indicate"
	CharAuthenticatedSignedWrites    CharacteristicFlag = "authenticated-signed-writes"
	CharExtendedProperties           CharacteristicFlag = "extended-properties"
	CharReliableWrite                CharacteristicFlag = "reliable-write"
	CharWritableAuxiliaries          CharacteristicFlag = "writable-auxiliaries"
	CharEncryptRead                  CharacteristicFlag = "encrypt-read"
	CharEncryptWrite                 CharacteristicFlag = "encrypt-write"
	CharEncryptNotify                CharacteristicFlag = "encrypt-notify"
	CharEncryptIndicate              CharacteristicFlag = "encrypt-indicate"
	CharEncryptAuthenticatedRead     CharacteristicFlag = "encrypt-authenticated-read"
	CharEncryptAuthenticatedWrite    CharacteristicFlag = "encrypt-authenticated-write"
	CharEncryptAuthenticatedNotify   CharacteristicFlag = "encrypt-authenticated-notify"
	CharEncryptAuthenticatedIndicate CharacteristicFlag = "encrypt-authenticated-indicate"
	CharSecureRead                   CharacteristicFlag = "secure-read"
	CharSecureWrite                  CharacteristicFlag = "secure-write"
	CharSecureNotify                 CharacteristicFlag = "secure-notify"
	CharSecureIndicate               CharacteristicFlag = "secure-indicate"
	CharAuthorize                    CharacteristicFlag = "authorize"
)

var characteristicFlags = []CharacteristicFlag{
	CharBroadcast, CharRead, CharWriteWithoutResponse, CharWrite, CharNotify,
	CharIndicate, CharAuthenticatedSignedWrites, CharExtendedProperties,
	CharReliableWrite, CharWritableAuxiliaries, CharEncryptRead, CharEncryptWrite,
	CharEncryptNotify, CharEncryptIndicate, CharEncryptAuthenticatedRead,
	CharEncryptAuthenticatedWrite, CharEncryptAuthenticatedNotify,
	CharEncryptAuthenticatedIndicate, CharSecureRead, CharSecureWrite,
	CharSecureNotify, CharSecureIndicate, CharAuthorize,
}

// DescriptorFlag is a capability token reported in the Flags property of
// org.bluez.GattDescriptor1.
type DescriptorFlag string

// Descriptor flag tokens.
const (
	DescRead                      DescriptorFlag = "read"
	DescWrite                     DescriptorFlag = "write"
	DescNotify                    DescriptorFlag = "notify"
	DescEncryptRead               DescriptorFlag = "encrypt-read"
	DescEncryptWrite              DescriptorFlag = "encrypt-write"
	DescEncryptAuthenticatedRead  DescriptorFlag = "encrypt-authenticated-read"
	DescEncryptAuthenticatedWrite DescriptorFlag = "encrypt-authenticated-write"
	DescSecureRead                DescriptorFlag = "secure-read"
	DescSecureWrite               DescriptorFlag = "secure-write"
	DescAuthorize                 DescriptorFlag = "authorize"
)

var descriptorFlags = []DescriptorFlag{
	DescRead, DescWrite, DescNotify, DescEncryptRead, DescEncryptWrite,
	DescEncryptAuthenticatedRead, DescEncryptAuthenticatedWrite,
	DescSecureRead, DescSecureWrite, DescAuthorize,
}

// CharacteristicFlags returns every known characteristic flag token.
func CharacteristicFlags() []CharacteristicFlag {
	return append([]CharacteristicFlag(nil), characteristicFlags...)
}

// DescriptorFlags returns every known descriptor flag token.
func DescriptorFlags() []DescriptorFlag {
	return append([]DescriptorFlag(nil), descriptorFlags...)
}

// ParseCharacteristicFlags parses a comma separated token list such as
// "read,write,notify". Whitespace around tokens is ignored; an empty string
// yields no flags.
func ParseCharacteristicFlags(s string) ([]CharacteristicFlag, error) {
	return parseFlags(s, characteristicFlags, "characteristic")
}

// ParseDescriptorFlags parses a comma separated descriptor token list.
func ParseDescriptorFlags(s string) ([]DescriptorFlag, error) {
	return parseFlags(s, descriptorFlags, "descriptor")
}

func parseFlags[F ~string](s string, known []F, kind string) ([]F, error) {
	var flags []F
	for _, tok := range strings.Split(s, ",") {
		tok = strings.ToLower(strings.TrimSpace(tok))
		if tok == "" {
			continue
		}
		f, ok := lookupFlag(tok, known)
		if !ok {
			return nil, fmt.Errorf("%w: unknown %s flag %q", ErrInvalidArguments, kind, tok)
		}
		flags = append(flags, f)
	}
	return flags, nil
}

func lookupFlag[F ~string](tok string, known []F) (F, bool) {
	for _, f := range known {
		if string(f) == tok {
			return f, true
		}
	}
	return "", false
}

func flagStrings[F ~string](flags []F) []string {
	out := make([]string, 0, len(flags))
	for _, f := range flags {
		out = append(out, string(f))
	}
	return out
}
