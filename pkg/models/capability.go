package models

import (
	"fmt"
	"strings"
)

// Capability is a tool permission token.
type Capability string

const (
	// CapReadFile allows reading a file's contents.
	CapReadFile Capability = "read_file"
	// CapListDirectory allows listing directory entries.
	CapListDirectory Capability = "list_directory"
	// CapWriteFile allows creating or overwriting files.
	CapWriteFile Capability = "write_file"
	// CapExecuteCode allows running code snippets in the sandbox.
	CapExecuteCode Capability = "execute_code"
)

var allCapabilities = []Capability{CapReadFile, CapListDirectory, CapWriteFile, CapExecuteCode}

// AllCapabilities returns the fixed capability set in canonical order.
func AllCapabilities() []Capability {
	return append([]Capability(nil), allCapabilities...)
}

// Valid returns true if the capability is a known value.
func (c Capability) Valid() bool {
	return c.bit() != 0
}

func (c Capability) bit() uint8 {
	switch c {
	case CapReadFile:
		return 1 << 0
	case CapListDirectory:
		return 1 << 1
	case CapWriteFile:
		return 1 << 2
	case CapExecuteCode:
		return 1 << 3
	default:
		return 0
	}
}

// CapabilityBundle is an immutable set of capabilities granted to a role.
// The zero value is the empty bundle.
type CapabilityBundle struct {
	bits uint8
}

// NewBundle builds a bundle from caps. Unknown tokens are ignored; use
// ParseBundle when the input comes from configuration.
func NewBundle(caps ...Capability) CapabilityBundle {
	var b CapabilityBundle
	for _, c := range caps {
		b.bits |= c.bit()
	}
	return b
}

// ParseBundle builds a bundle from configuration tokens, rejecting unknown ones.
func ParseBundle(tokens []string) (CapabilityBundle, error) {
	caps := make([]Capability, 0, len(tokens))
	for _, tok := range tokens {
		c := Capability(strings.ToLower(strings.TrimSpace(tok)))
		if !c.Valid() {
			return CapabilityBundle{}, fmt.Errorf("unknown capability %q", tok)
		}
		caps = append(caps, c)
	}
	return NewBundle(caps...), nil
}

// Has reports whether c is in the bundle.
func (b CapabilityBundle) Has(c Capability) bool {
	bit := c.bit()
	return bit != 0 && b.bits&bit != 0
}

// Tokens returns the bundle's capabilities in canonical order.
func (b CapabilityBundle) Tokens() []Capability {
	var out []Capability
	for _, c := range allCapabilities {
		if b.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

// Len returns the number of capabilities in the bundle.
func (b CapabilityBundle) Len() int {
	return len(b.Tokens())
}

// IsEmpty reports whether the bundle grants nothing.
func (b CapabilityBundle) IsEmpty() bool {
	return b.bits == 0
}

// String returns the comma-separated tokens, e.g. "read_file,list_directory".
func (b CapabilityBundle) String() string {
	tokens := b.Tokens()
	parts := make([]string, len(tokens))
	for i, c := range tokens {
		parts[i] = string(c)
	}
	return strings.Join(parts, ",")
}

// MarshalText implements encoding.TextMarshaler.
func (b CapabilityBundle) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *CapabilityBundle) UnmarshalText(text []byte) error {
	if len(strings.TrimSpace(string(text))) == 0 {
		*b = CapabilityBundle{}
		return nil
	}
	parsed, err := ParseBundle(strings.Split(string(text), ","))
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}
