// Package registry keeps the identity of every virtual NIC of a VM in sync
// between the test parameters and the host wide store.
package registry

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/canonical/vnicdb/shared/logger"
	"github.com/canonical/vnicdb/vnicdb/db"
	"github.com/canonical/vnicdb/vnicdb/nic"
	"github.com/canonical/vnicdb/vnicdb/params"
)

// DefaultAttempts is the default number of candidates tried when generating a MAC address.
const DefaultAttempts = 1024

// BridgeManager attaches host interfaces to bridges.
type BridgeManager interface {
	AddIf(ctx context.Context, bridge string, ifname string) error
	DelIf(ctx context.Context, bridge string, ifname string) error
}

// Registry is the identity registry of the NICs of one VM.
//
// Every mutation runs a locked load, update and save cycle against the
// store. Reads are served from the list kept after the last cycle.
type Registry struct {
	store  *db.Store
	params params.Params
	vmName string
	key    string

	style    Style
	prefix   string
	attempts int
	random   io.Reader
	bridges  BridgeManager

	logger logger.Logger

	mu   sync.Mutex
	nics *nic.List
}

// Option configures a Registry.
type Option func(*Registry)

// WithStyle selects the virtualization style, and so the MAC prefix.
func WithStyle(style Style) Option {
	return func(r *Registry) {
		r.style = style
	}
}

// WithPrefix overrides the MAC prefix of the style.
func WithPrefix(prefix string) Option {
	return func(r *Registry) {
		r.prefix = prefix
	}
}

// WithAttempts sets how many candidates are tried per generated MAC address.
func WithAttempts(attempts int) Option {
	return func(r *Registry) {
		r.attempts = attempts
	}
}

// WithRandom sets the source of random bytes for generated addresses and names.
func WithRandom(random io.Reader) Option {
	return func(r *Registry) {
		r.random = random
	}
}

// WithBridgeManager sets the manager notified when a NIC changes bridge.
func WithBridgeManager(bridges BridgeManager) Option {
	return func(r *Registry) {
		r.bridges = bridges
	}
}

// New builds the registry of a VM.
//
// The NICs stored under key are loaded and the NICs declared for vmName in p
// are merged on top of them, filling only the fields that aren't stored yet.
// The result is saved back before returning.
func New(ctx context.Context, store *db.Store, p params.Params, vmName string, key string, options ...Option) (*Registry, error) {
	r := &Registry{
		store:    store,
		params:   p,
		vmName:   vmName,
		key:      key,
		style:    StyleQEMU,
		attempts: DefaultAttempts,
		random:   rand.Reader,
	}

	for _, option := range options {
		option(r)
	}

	if r.prefix == "" {
		prefix, err := r.style.Prefix()
		if err != nil {
			return nil, err
		}

		r.prefix = prefix
	}

	_, err := parsePrefix(r.prefix)
	if err != nil {
		return nil, err
	}

	if r.attempts < 1 {
		return nil, fmt.Errorf("Invalid number of MAC generation attempts %d", r.attempts)
	}

	r.logger = logger.AddContext(logger.Ctx{"vm": vmName, "key": key})

	declared, err := params.NICs(p, vmName)
	if err != nil {
		return nil, fmt.Errorf("Failed loading declared NICs of %q: %w", vmName, err)
	}

	err = store.WithLock(ctx, func(ctx context.Context) error {
		l, err := store.Load(ctx, key)
		if err != nil {
			return err
		}

		l.Merge(declared)

		err = store.Save(ctx, key, l)
		if err != nil {
			return err
		}

		r.nics = l
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.logger.Debug("Loaded NIC registry", logger.Ctx{"nics": r.nics.Len()})

	return r, nil
}

// VMName returns the name of the VM.
func (r *Registry) VMName() string {
	return r.vmName
}

// Key returns the store key of the VM.
func (r *Registry) Key() string {
	return r.key
}

// Prefix returns the prefix of generated MAC addresses.
func (r *Registry) Prefix() string {
	return r.prefix
}

// NICs returns a copy of the current NIC list.
func (r *Registry) NICs() *nic.List {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.nics.Clone()
}

// Get returns the named NIC record.
func (r *Registry) Get(name string) (nic.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.nics.Get(name)
}

// GetMAC returns the MAC address of the named NIC, empty if unset.
func (r *Registry) GetMAC(name string) (string, error) {
	rec, err := r.Get(name)
	if err != nil {
		return "", err
	}

	return rec.MAC, nil
}

// Field returns the value of a field of the named NIC.
func (r *Registry) Field(name string, field string) (string, error) {
	rec, err := r.Get(name)
	if err != nil {
		return "", err
	}

	return rec.Get(field)
}

// NICByMAC returns the name of the NIC using the given MAC address.
func (r *Registry) NICByMAC(mac string) (string, error) {
	normalized, err := nic.NormalizeMAC(mac)
	if err != nil {
		return "", err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	name, ok := r.nics.MACs()[normalized]
	if !ok {
		return "", fmt.Errorf("%w: no NIC with MAC %q", nic.ErrNotFound, normalized)
	}

	return name, nil
}

// errUnchanged aborts an update without writing to the store.
var errUnchanged = errors.New("unchanged")

// update runs f on the freshly loaded NIC list under the store lock and
// saves the result. f only changes what it was asked to; the rest of the list
// is what the store holds, so changes made by other handles are kept.
func (r *Registry) update(ctx context.Context, f func(ctx context.Context, l *nic.List) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.store.WithLock(ctx, func(ctx context.Context) error {
		l, err := r.store.Load(ctx, r.key)
		if err != nil {
			return err
		}

		err = f(ctx, l)
		if errors.Is(err, errUnchanged) {
			r.nics = l
			return nil
		}

		if err != nil {
			return err
		}

		err = r.store.Save(ctx, r.key, l)
		if err != nil {
			return err
		}

		r.nics = l
		return nil
	})
}

// SetMAC assigns a MAC address to the named NIC.
//
// The address must be valid, not owned by any other NIC in the store and not
// declared for another NIC in the parameters. Replacing an assigned address is logged.
func (r *Registry) SetMAC(ctx context.Context, name string, mac string) error {
	normalized, err := nic.NormalizeMAC(mac)
	if err != nil {
		return fmt.Errorf("Invalid MAC address %q: %w", mac, err)
	}

	return r.update(ctx, func(ctx context.Context, l *nic.List) error {
		rec, err := l.Get(name)
		if err != nil {
			return err
		}

		if rec.MAC == normalized {
			return errUnchanged
		}

		err = r.checkMACFree(ctx, l, name, normalized)
		if err != nil {
			return err
		}

		if rec.MAC != "" {
			r.logger.Warn("Overwriting assigned MAC address", logger.Ctx{"nic": name, "old": rec.MAC, "new": normalized})
		}

		rec.MAC = normalized
		r.logger.Debug("Assigned MAC address", logger.Ctx{"nic": name, "mac": normalized})

		return l.Set(name, rec)
	})
}

// FreeMAC releases the MAC address of the named NIC. Freeing a NIC without
// an address does nothing.
func (r *Registry) FreeMAC(ctx context.Context, name string) error {
	return r.update(ctx, func(ctx context.Context, l *nic.List) error {
		rec, err := l.Get(name)
		if err != nil {
			return err
		}

		if rec.MAC == "" {
			return errUnchanged
		}

		r.logger.Debug("Freed MAC address", logger.Ctx{"nic": name, "mac": rec.MAC})
		rec.MAC = ""

		return l.Set(name, rec)
	})
}

// SetField changes a field of the named NIC. An empty value unsets it.
//
// Moving a NIC that has a host interface to another bridge detaches it from
// the old bridge and attaches it to the new one.
func (r *Registry) SetField(ctx context.Context, name string, field string, value string) error {
	switch field {
	case nic.FieldMAC:
		if value == "" {
			return r.FreeMAC(ctx, name)
		}

		return r.SetMAC(ctx, name, value)
	case nic.FieldName:
		return fmt.Errorf("%w: %q", nic.ErrImmutableName, name)
	}

	_, err := nic.Record{}.Get(field)
	if err != nil {
		return err
	}

	validator, ok := nic.Rules[field]
	if ok && value != "" {
		err := validator(value)
		if err != nil {
			return fmt.Errorf("Invalid value for NIC field %q: %w", field, err)
		}
	}

	var before nic.Record
	err = r.update(ctx, func(ctx context.Context, l *nic.List) error {
		rec, err := l.Get(name)
		if err != nil {
			return err
		}

		before = rec

		current, _ := rec.Get(field)
		if current == value {
			return errUnchanged
		}

		err = rec.Set(field, value)
		if err != nil {
			return err
		}

		r.logger.Debug("Changed NIC field", logger.Ctx{"nic": name, "field": field, "value": value})

		return l.Set(name, rec)
	})
	if err != nil {
		return err
	}

	if field == nic.FieldNetDst && before.NetDst != value {
		return r.moveBridge(ctx, before.Ifname, before.NetDst, value)
	}

	return nil
}

// moveBridge detaches ifname from the old bridge and attaches it to the new one.
func (r *Registry) moveBridge(ctx context.Context, ifname string, oldBridge string, newBridge string) error {
	if r.bridges == nil || ifname == "" {
		return nil
	}

	if oldBridge != "" {
		err := r.bridges.DelIf(ctx, oldBridge, ifname)
		if err != nil {
			return fmt.Errorf("Failed removing %q from bridge %q: %w", ifname, oldBridge, err)
		}
	}

	if newBridge != "" {
		err := r.bridges.AddIf(ctx, newBridge, ifname)
		if err != nil {
			return fmt.Errorf("Failed adding %q to bridge %q: %w", ifname, newBridge, err)
		}
	}

	return nil
}

// AppendNIC adds a NIC at the end of the list.
func (r *Registry) AppendNIC(ctx context.Context, rec nic.Record) error {
	err := rec.Validate()
	if err != nil {
		return err
	}

	rec.SetMAC(rec.MAC)

	return r.update(ctx, func(ctx context.Context, l *nic.List) error {
		if rec.MAC != "" {
			err := r.checkMACFree(ctx, l, rec.Name, rec.MAC)
			if err != nil {
				return err
			}
		}

		err := l.Append(rec)
		if err != nil {
			return err
		}

		r.logger.Debug("Added NIC", logger.Ctx{"nic": rec.Name})
		return nil
	})
}

// RemoveNIC deletes the named NIC, releasing its MAC address.
func (r *Registry) RemoveNIC(ctx context.Context, name string) error {
	return r.update(ctx, func(ctx context.Context, l *nic.List) error {
		err := l.Delete(name)
		if err != nil {
			return err
		}

		r.logger.Debug("Removed NIC", logger.Ctx{"nic": name})
		return nil
	})
}
