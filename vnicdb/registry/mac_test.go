package registry_test

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canonical/vnicdb/vnicdb/nic"
	"github.com/canonical/vnicdb/vnicdb/params"
	"github.com/canonical/vnicdb/vnicdb/registry"
)

func TestGenerateMAC(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	random := bytes.NewReader([]byte{0xde, 0xad, 0xbe, 0xef, 0x01})
	r, err := registry.New(ctx, s, params.Params{"nics": "eth0"}, "vm1", "host:vm1", registry.WithRandom(random))
	require.NoError(t, err)

	mac, err := r.GenerateMAC(ctx, "eth0")
	require.NoError(t, err)
	assert.Equal(t, "9a:de:ad:be:ef:01", mac)

	eth0, err := stored(t, s, "host:vm1").Get("eth0")
	require.NoError(t, err)
	assert.Equal(t, mac, eth0.MAC)

	_, err = r.GenerateMAC(ctx, "eth9")
	assert.ErrorIs(t, err, nic.ErrNotFound)
}

// Addresses recorded in the store or declared for any VM are skipped.
func TestGenerateMAC_SkipsUsed(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	seed(t, s, "host:vm3", nic.Record{Name: "eth0", MAC: "9a:00:00:00:00:01"})

	p := params.Params{
		"vms":          "vm1 vm2",
		"nics":         "eth0",
		"mac_eth0_vm2": "9a:00:00:00:00:02",
	}

	random := bytes.NewReader([]byte{1, 2, 3})
	r, err := registry.New(ctx, s, p, "vm1", "host:vm1", registry.WithPrefix("9a:00:00:00:00"), registry.WithRandom(random))
	require.NoError(t, err)

	mac, err := r.GenerateMAC(ctx, "eth0")
	require.NoError(t, err)
	assert.Equal(t, "9a:00:00:00:00:03", mac)
}

// Generating for a NIC with an address frees the old one first.
func TestGenerateMAC_Replaces(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	random := bytes.NewReader([]byte{7})
	p := params.Params{"nics": "eth0", "mac": "9a:00:00:00:00:01"}
	r, err := registry.New(ctx, s, p, "vm1", "host:vm1", registry.WithPrefix("9a:00:00:00:00"), registry.WithRandom(random))
	require.NoError(t, err)

	mac, err := r.GenerateMAC(ctx, "eth0")
	require.NoError(t, err)
	assert.Equal(t, "9a:00:00:00:00:07", mac)

	name, err := r.NICByMAC(mac)
	require.NoError(t, err)
	assert.Equal(t, "eth0", name)
}

func TestGenerateMAC_Exhausted(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	// Take every address reachable from the prefix.
	records := make([]nic.Record, 0, 256)
	for i := range 256 {
		records = append(records, nic.Record{Name: fmt.Sprintf("eth%d", i), MAC: fmt.Sprintf("9a:00:00:00:00:%02x", i)})
	}

	seed(t, s, "host:vm2", records...)

	r, err := registry.New(ctx, s, params.Params{"nics": "eth0"}, "vm1", "host:vm1", registry.WithPrefix("9a:00:00:00:00"), registry.WithAttempts(64))
	require.NoError(t, err)

	_, err = r.GenerateMAC(ctx, "eth0")

	var exhausted registry.ErrMACExhausted
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, registry.ErrMACExhausted{Prefix: "9a:00:00:00:00", Attempts: 64, VM: "vm1", NIC: "eth0"}, exhausted)

	mac, err := r.GetMAC("eth0")
	require.NoError(t, err)
	assert.Equal(t, "", mac)

	eth0, err := stored(t, s, "host:vm1").Get("eth0")
	require.NoError(t, err)
	assert.Equal(t, "", eth0.MAC)
}

func TestGenerateMAC_RandomError(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	r, err := registry.New(ctx, s, params.Params{"nics": "eth0"}, "vm1", "host:vm1", registry.WithRandom(bytes.NewReader(nil)))
	require.NoError(t, err)

	_, err = r.GenerateMAC(ctx, "eth0")
	assert.ErrorContains(t, err, "Failed reading random bytes")
}

// Registries of many VMs generating at once, each through its own store
// handle, never hand out the same address twice.
func TestGenerateMAC_ConcurrentUnique(t *testing.T) {
	path := filepath.Join(t.TempDir(), "address_pool.db")
	ctx := context.Background()

	const vms = 8
	const nicsPerVM = 4

	p := params.Params{"nics": "eth0 eth1 eth2 eth3"}

	var wg sync.WaitGroup
	results := make(chan string, vms*nicsPerVM)
	errs := make(chan error, vms)

	for i := range vms {
		s := openStore(t, path)
		vmName := fmt.Sprintf("vm%d", i)

		wg.Add(1)
		go func() {
			defer wg.Done()

			r, err := registry.New(ctx, s, p, vmName, registry.Key(s.HostID(), vmName), registry.WithPrefix("9a:00:00:00:00"))
			if err != nil {
				errs <- err
				return
			}

			for name := range r.NICs().Names() {
				mac, err := r.GenerateMAC(ctx, name)
				if err != nil {
					errs <- err
					return
				}

				results <- mac
			}
		}()
	}

	wg.Wait()
	close(results)
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	seen := map[string]bool{}
	for mac := range results {
		assert.False(t, seen[mac], "MAC %s handed out twice", mac)
		seen[mac] = true
	}

	assert.Len(t, seen, vms*nicsPerVM)

	s := openStore(t, path)
	err := s.WithLock(ctx, func(ctx context.Context) error {
		macs, err := s.MACs(ctx)
		require.NoError(t, err)
		assert.Len(t, macs, vms*nicsPerVM)
		return nil
	})
	require.NoError(t, err)
}
