// Package params implements the flat test parameter space that NICs are declared in.
//
// Objects such as VMs and NICs are listed by space separated keys ("vms",
// "nics") and any parameter may be overridden for a single object by
// suffixing its key with "_<object name>".
package params

import (
	"maps"
	"strings"

	"github.com/kballard/go-shellquote"

	"github.com/canonical/vnicdb/shared/logger"
)

// Params is a flat set of test parameters.
type Params map[string]string

// Get returns the value of key, or def if unset.
func (p Params) Get(key string, def string) string {
	value, ok := p[key]
	if !ok {
		return def
	}

	return value
}

// Objects returns the object names listed under key.
func (p Params) Objects(key string) []string {
	value := strings.TrimSpace(p[key])
	if value == "" {
		return nil
	}

	names, err := shellquote.Split(value)
	if err != nil {
		logger.Warn("Failed parsing object list, splitting on whitespace", logger.Ctx{"key": key, "value": value, "err": err})
		return strings.Fields(value)
	}

	return names
}

// ObjectParams returns the parameters as seen by the named object: every
// "<key>_<name>" entry shadows "<key>".
func (p Params) ObjectParams(name string) Params {
	suffix := "_" + name
	out := p.Copy()

	for k, v := range p {
		if len(k) > len(suffix) && strings.HasSuffix(k, suffix) {
			out[strings.TrimSuffix(k, suffix)] = v
		}
	}

	return out
}

// Copy returns a shallow copy of the parameters.
func (p Params) Copy() Params {
	out := make(Params, len(p))
	maps.Copy(out, p)

	return out
}
