package registry

import (
	"errors"
	"fmt"
)

// ErrUnknownStyle is returned for a virtualization style without a MAC prefix.
var ErrUnknownStyle = errors.New("Unknown virtualization style")

// ErrMACInUse is returned when explicitly assigning an address already owned by another NIC.
var ErrMACInUse = errors.New("MAC address already in use")

// ErrMACExhausted is returned when no free MAC address could be generated
// within the configured number of attempts.
type ErrMACExhausted struct {
	Prefix   string
	Attempts int
	VM       string
	NIC      string
}

// Error returns the error string.
func (e ErrMACExhausted) Error() string {
	return fmt.Sprintf("No free MAC address with prefix %q after %d attempts for NIC %q of VM %q", e.Prefix, e.Attempts, e.NIC, e.VM)
}
