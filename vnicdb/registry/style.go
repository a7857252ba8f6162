package registry

import (
	"fmt"
	"net"
	"strings"

	"github.com/canonical/vnicdb/shared/validate"
)

// Style identifies the virtualization stack NICs are generated for.
type Style string

// Supported styles.
const (
	StyleQEMU    Style = "qemu"
	StyleLibvirt Style = "libvirt"
)

// Styles lists the supported styles.
var Styles = []Style{StyleQEMU, StyleLibvirt}

var stylePrefixes = map[Style]string{
	StyleQEMU:    "9a",
	StyleLibvirt: "52:54:00",
}

// ParseStyle returns the style with the given name.
func ParseStyle(name string) (Style, error) {
	style := Style(name)
	_, ok := stylePrefixes[style]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownStyle, name)
	}

	return style, nil
}

// Prefix returns the leading bytes of MAC addresses generated for the style.
func (s Style) Prefix() (string, error) {
	prefix, ok := stylePrefixes[s]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownStyle, string(s))
	}

	return prefix, nil
}

// parsePrefix converts a colon separated MAC prefix into bytes.
func parsePrefix(prefix string) (net.HardwareAddr, error) {
	err := validate.IsMACPrefix(prefix)
	if err != nil {
		return nil, err
	}

	// Pad to a full address for the parser and keep only the prefix.
	parts := strings.Split(prefix, ":")
	padded := prefix + strings.Repeat(":00", 6-len(parts))

	hwaddr, err := net.ParseMAC(padded)
	if err != nil {
		return nil, err
	}

	return hwaddr[:len(parts)], nil
}
