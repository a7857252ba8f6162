package validate

import (
	"fmt"
	"net"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"
)

// stringInSlice checks whether the supplied string is present in the supplied slice.
func stringInSlice(key string, list []string) bool {
	return slices.Contains(list, key)
}

// Required returns function that runs one or more validators, all must pass without error.
func Required(validators ...func(value string) error) func(value string) error {
	return func(value string) error {
		for _, validator := range validators {
			err := validator(value)
			if err != nil {
				return err
			}
		}

		return nil
	}
}

// Optional wraps Required() function to make it return nil if value is empty string.
func Optional(validators ...func(value string) error) func(value string) error {
	return func(value string) error {
		if value == "" {
			return nil
		}

		return Required(validators...)(value)
	}
}

// IsInt64 validates whether the string can be converted to an int64.
func IsInt64(value string) error {
	_, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fmt.Errorf("Invalid value for an integer %q", value)
	}

	return nil
}

// IsPositiveInt64 validates whether the string can be converted to an int64 greater than zero.
func IsPositiveInt64(value string) error {
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fmt.Errorf("Invalid value for an integer %q", value)
	}

	if n <= 0 {
		return fmt.Errorf("Invalid value for a positive integer %q", value)
	}

	return nil
}

// IsBool validates if string can be understood as a bool.
func IsBool(value string) error {
	if !stringInSlice(strings.ToLower(value), []string{"true", "false", "yes", "no", "1", "0", "on", "off"}) {
		return fmt.Errorf("Invalid value for a boolean %q", value)
	}

	return nil
}

// IsOneOf checks whether the string is present in the supplied slice of strings.
func IsOneOf(valid ...string) func(value string) error {
	return func(value string) error {
		if !stringInSlice(value, valid) {
			return fmt.Errorf("Invalid value %q (not one of %s)", value, valid)
		}

		return nil
	}
}

// IsAny accepts all strings as valid.
func IsAny(value string) error {
	return nil
}

// IsNotEmpty requires a non-empty string.
func IsNotEmpty(value string) error {
	if value == "" {
		return fmt.Errorf("Required value")
	}

	return nil
}

// IsDuration validates whether the string is a positive Go duration.
func IsDuration(value string) error {
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("Invalid duration %q", value)
	}

	if d <= 0 {
		return fmt.Errorf("Duration must be positive %q", value)
	}

	return nil
}

// IsNetworkMAC validates an Ethernet MAC address. e.g. "00:00:5e:00:53:01".
func IsNetworkMAC(value string) error {
	_, err := net.ParseMAC(value)

	// Check is valid Ethernet MAC length and delimiter.
	if err != nil || len(value) != 17 || strings.ContainsAny(value, "-.") {
		return fmt.Errorf("Invalid MAC address, must be 6 bytes of hex separated by colons")
	}

	return nil
}

// IsMACPrefix validates the leading bytes of a MAC address. e.g. "9a" or "52:54:00".
// Between 1 and 5 bytes are accepted and the address must be unicast.
func IsMACPrefix(value string) error {
	parts := strings.Split(value, ":")
	if value == "" || len(parts) > 5 {
		return fmt.Errorf("Invalid MAC prefix %q, must be 1 to 5 bytes of hex separated by colons", value)
	}

	for _, part := range parts {
		if len(part) != 2 {
			return fmt.Errorf("Invalid MAC prefix %q, must be 1 to 5 bytes of hex separated by colons", value)
		}

		_, err := strconv.ParseUint(part, 16, 8)
		if err != nil {
			return fmt.Errorf("Invalid MAC prefix %q, must be 1 to 5 bytes of hex separated by colons", value)
		}
	}

	first, _ := strconv.ParseUint(parts[0], 16, 8)
	if first&0x01 != 0 {
		return fmt.Errorf("Invalid MAC prefix %q, multicast addresses can't be used", value)
	}

	return nil
}

// IsInterfaceName validates a host network interface name.
func IsInterfaceName(value string) error {
	// Validate the length.
	if len(value) < 2 {
		return fmt.Errorf("Network interface is too short (minimum 2 characters)")
	}

	if len(value) > 15 {
		return fmt.Errorf("Network interface is too long (maximum 15 characters)")
	}

	// Validate the character set.
	match, _ := regexp.MatchString(`^[-_a-zA-Z0-9.]+$`, value)
	if !match {
		return fmt.Errorf("Network interface contains invalid characters")
	}

	return nil
}

// IsNetworkAddress validates an IP (v4 or v6) address string.
func IsNetworkAddress(value string) error {
	ip := net.ParseIP(value)
	if ip == nil {
		return fmt.Errorf("Not an IP address %q", value)
	}

	return nil
}
