package registry

import (
	"context"
	"fmt"
	"io"
	"net"

	"github.com/canonical/vnicdb/shared/logger"
	"github.com/canonical/vnicdb/vnicdb/nic"
	"github.com/canonical/vnicdb/vnicdb/params"
)

// GenerateMAC assigns a new random MAC address to the named NIC and returns it.
//
// Candidates start with the registry prefix and must not be recorded in the
// store or declared for any VM in the parameters. An address already assigned
// to the NIC is freed first.
func (r *Registry) GenerateMAC(ctx context.Context, name string) (string, error) {
	current, err := r.GetMAC(name)
	if err != nil {
		return "", err
	}

	if current != "" {
		r.logger.Warn("Freeing assigned MAC address before generating a new one", logger.Ctx{"nic": name, "mac": current})

		err = r.FreeMAC(ctx, name)
		if err != nil {
			return "", err
		}
	}

	prefix, err := parsePrefix(r.prefix)
	if err != nil {
		return "", err
	}

	var mac string
	err = r.update(ctx, func(ctx context.Context, l *nic.List) error {
		rec, err := l.Get(name)
		if err != nil {
			return err
		}

		used, err := r.macIndex(ctx, l)
		if err != nil {
			return err
		}

		for range r.attempts {
			candidate, err := r.candidate(prefix)
			if err != nil {
				return err
			}

			_, ok := used[candidate]
			if ok {
				continue
			}

			mac = candidate
			rec.MAC = candidate

			return l.Set(name, rec)
		}

		exhausted := ErrMACExhausted{Prefix: r.prefix, Attempts: r.attempts, VM: r.vmName, NIC: name}
		r.logger.Error("Failed generating MAC address", logger.Ctx{"nic": name, "prefix": r.prefix, "attempts": r.attempts})

		return exhausted
	})
	if err != nil {
		return "", err
	}

	r.logger.Debug("Generated MAC address", logger.Ctx{"nic": name, "mac": mac})

	return mac, nil
}

// candidate completes the prefix with random bytes.
func (r *Registry) candidate(prefix net.HardwareAddr) (string, error) {
	hwaddr := make(net.HardwareAddr, 6)
	copy(hwaddr, prefix)

	_, err := io.ReadFull(r.random, hwaddr[len(prefix):])
	if err != nil {
		return "", fmt.Errorf("Failed reading random bytes: %w", err)
	}

	return hwaddr.String(), nil
}

// macIndex returns every MAC address in use, mapped to its owner: the ones
// recorded in the store, the ones declared in the parameters for any VM and
// the ones of the given list.
func (r *Registry) macIndex(ctx context.Context, l *nic.List) (map[string]string, error) {
	used, err := r.store.MACs(ctx)
	if err != nil {
		return nil, err
	}

	for mac, owner := range params.DeclaredMACs(r.params) {
		_, ok := used[mac]
		if !ok {
			used[mac] = owner
		}
	}

	for mac, name := range l.MACs() {
		used[mac] = r.key + "/" + name
	}

	return used, nil
}

// checkMACFree fails with ErrMACInUse if mac is recorded for another NIC or
// declared in the parameters for another NIC.
func (r *Registry) checkMACFree(ctx context.Context, l *nic.List, name string, mac string) error {
	recorded, err := r.store.MACs(ctx)
	if err != nil {
		return err
	}

	for other, otherName := range l.MACs() {
		recorded[other] = r.key + "/" + otherName
	}

	owner, ok := recorded[mac]
	if ok && owner != r.key+"/"+name {
		return fmt.Errorf("%w: %q is assigned to %q", ErrMACInUse, mac, owner)
	}

	// The parameters may declare the address for this very NIC.
	owner, ok = params.DeclaredMACs(r.params)[mac]
	if ok && owner != r.vmName+"/"+name && owner != "/"+name {
		return fmt.Errorf("%w: %q is declared for %q", ErrMACInUse, mac, owner)
	}

	return nil
}
