// Package config holds the settings of vnicdb.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/canonical/vnicdb/shared/validate"
)

// DefaultPath is the settings file read when none is given.
const DefaultPath = "/etc/vnicdb/config.yaml"

// SettingsSchema defines the available settings keys.
var SettingsSchema = Schema{
	// Location of the shared NIC store, the lock file sits next to it.
	"store.path":          {Default: "/var/lib/vnicdb/address_pool.db", Validator: validate.IsNotEmpty},
	"store.lock_timeout":  {Type: Duration, Default: "30s"},
	"store.lock_interval": {Type: Duration, Default: "100ms", Validator: isPositiveDuration},
	"mac.attempts":        {Type: Int64, Default: "1024", Validator: validate.IsPositiveInt64},
	"mac.style":           {Default: "qemu", Validator: validate.IsOneOf("qemu", "libvirt")},
	"mac.prefix":          {Validator: validate.Optional(validate.IsMACPrefix)},
}

func isPositiveDuration(value string) error {
	d, err := time.ParseDuration(value)
	if err != nil {
		return err
	}

	if d <= 0 {
		return fmt.Errorf("Duration must be positive")
	}

	return nil
}

// Settings is the typed view of the settings Map.
type Settings struct {
	m Map
}

// NewSettings loads the given values on top of the defaults.
func NewSettings(values map[string]string) (*Settings, error) {
	m, err := Load(SettingsSchema, values)
	if err != nil {
		return nil, err
	}

	return &Settings{m: m}, nil
}

// LoadFile reads settings from a YAML file. A missing file yields the defaults.
func LoadFile(path string) (*Settings, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewSettings(nil)
		}

		return nil, fmt.Errorf("Failed reading settings file: %w", err)
	}

	values := map[string]string{}
	err = yaml.Unmarshal(content, &values)
	if err != nil {
		return nil, fmt.Errorf("Failed parsing settings file %q: %w", path, err)
	}

	return NewSettings(values)
}

// Change applies overrides, typically coming from command line flags.
func (s *Settings) Change(values map[string]string) error {
	_, err := s.m.Change(values)
	return err
}

// Dump returns the settings differing from their default.
func (s *Settings) Dump() map[string]string {
	return s.m.Dump()
}

// StorePath returns the path of the NIC store.
func (s *Settings) StorePath() string {
	return s.m.GetString("store.path")
}

// LockTimeout returns how long to wait for the store lock.
func (s *Settings) LockTimeout() time.Duration {
	return s.m.GetDuration("store.lock_timeout")
}

// LockInterval returns how often to poll the store lock.
func (s *Settings) LockInterval() time.Duration {
	return s.m.GetDuration("store.lock_interval")
}

// MACAttempts returns how many candidates to try per generated MAC address.
func (s *Settings) MACAttempts() int {
	return int(s.m.GetInt64("mac.attempts"))
}

// MACStyle returns the virtualization style generated addresses are for.
func (s *Settings) MACStyle() string {
	return s.m.GetString("mac.style")
}

// MACPrefix returns the configured MAC prefix override, if any.
func (s *Settings) MACPrefix() string {
	return s.m.GetString("mac.prefix")
}
