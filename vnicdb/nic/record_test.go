package nic_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canonical/vnicdb/vnicdb/nic"
)

func TestFromMap(t *testing.T) {
	cases := []struct {
		title  string
		values map[string]string
		result nic.Record
	}{
		{
			`plain fields`,
			map[string]string{"nic_name": "eth0", "nic_model": "virtio", "netdst": "virbr0"},
			nic.Record{Name: "eth0", Model: "virtio", NetDst: "virbr0"},
		},
		{
			`MAC is normalized`,
			map[string]string{"nic_name": "eth0", "mac": "9A:01:02:03:04:05"},
			nic.Record{Name: "eth0", MAC: "9a:01:02:03:04:05"},
		},
		{
			`invalid MAC is dropped`,
			map[string]string{"nic_name": "eth0", "mac": "not-a-mac"},
			nic.Record{Name: "eth0"},
		},
		{
			`partial MAC is dropped`,
			map[string]string{"nic_name": "eth0", "mac": "9a:01"},
			nic.Record{Name: "eth0"},
		},
		{
			`driver extras`,
			map[string]string{"nic_name": "nic1", "ifname": "t0-abcdef", "queues": "4", "tapfds": "10:11"},
			nic.Record{Name: "nic1", Ifname: "t0-abcdef", Queues: "4", TapFDs: "10:11"},
		},
	}

	for _, c := range cases {
		t.Run(c.title, func(t *testing.T) {
			r, err := nic.FromMap(c.values)
			require.NoError(t, err)
			assert.Equal(t, c.result, r)
		})
	}
}

func TestFromMap_UnknownField(t *testing.T) {
	_, err := nic.FromMap(map[string]string{"nic_name": "eth0", "colour": "red", "bogus": "1"})
	assert.ErrorIs(t, err, nic.ErrUnknownField)
	assert.EqualError(t, err, "No such NIC field: bogus, colour")
}

func TestFromMap_FieldCase(t *testing.T) {
	_, err := nic.FromMap(map[string]string{"nic_name": "eth0", "MAC": "not-a-mac"})
	assert.ErrorIs(t, err, nic.ErrUnknownField)

	_, err = nic.FromMap(map[string]string{"nic_name": "eth0", "NIC_Model": "virtio"})
	assert.EqualError(t, err, "No such NIC field: NIC_Model")
}

func TestRecord_GetSet(t *testing.T) {
	r := nic.Record{Name: "eth0"}

	require.NoError(t, r.Set(nic.FieldModel, "e1000"))
	value, err := r.Get(nic.FieldModel)
	require.NoError(t, err)
	assert.Equal(t, "e1000", value)

	require.NoError(t, r.Set(nic.FieldMAC, "9a:00:00:00:00:01"))
	assert.Equal(t, "9a:00:00:00:00:01", r.MAC)

	// An invalid MAC is treated as absent.
	require.NoError(t, r.Set(nic.FieldMAC, "garbage"))
	assert.Equal(t, "", r.MAC)

	err = r.Set("speed", "1000")
	assert.ErrorIs(t, err, nic.ErrUnknownField)

	_, err = r.Get("speed")
	assert.ErrorIs(t, err, nic.ErrUnknownField)
}

func TestRecord_Map(t *testing.T) {
	r := nic.Record{Name: "eth0", Model: "virtio"}
	r.SetMAC("9a:01:02:03:04:05")

	values := r.Map()
	assert.Equal(t, map[string]string{"nic_name": "eth0", "mac": "9a:01:02:03:04:05", "nic_model": "virtio"}, values)

	back, err := nic.FromMap(values)
	require.NoError(t, err)
	assert.Equal(t, r, back)
}

func TestRecord_Fill(t *testing.T) {
	r := nic.Record{Name: "eth0", MAC: "9a:01:02:03:04:05"}
	r.Fill(nic.Record{Name: "other", MAC: "9a:0b:0b:0b:0b:0b", Model: "virtio"})

	assert.Equal(t, nic.Record{Name: "eth0", MAC: "9a:01:02:03:04:05", Model: "virtio"}, r)
}

func TestRecord_HardwareAddr(t *testing.T) {
	r := nic.Record{Name: "eth0"}
	assert.Nil(t, r.HardwareAddr())

	r.SetMAC("9a:01:02:03:04:05")
	assert.Equal(t, "9a:01:02:03:04:05", r.HardwareAddr().String())
}

func TestRecord_Validate(t *testing.T) {
	cases := []struct {
		title string
		rec   nic.Record
		ok    bool
	}{
		{`minimal`, nic.Record{Name: "eth0"}, true},
		{`no name`, nic.Record{Model: "virtio"}, false},
		{`bad ip`, nic.Record{Name: "eth0", IP: "10.0.0"}, false},
		{`bad ifname`, nic.Record{Name: "eth0", Ifname: "way-too-long-interface"}, false},
		{`bad queues`, nic.Record{Name: "eth0", Queues: "0"}, false},
		{`full`, nic.Record{Name: "eth0", MAC: "9a:01:02:03:04:05", IP: "10.0.0.2", Ifname: "t0-abc", Queues: "2", VLAN: "10"}, true},
	}

	for _, c := range cases {
		t.Run(c.title, func(t *testing.T) {
			err := c.rec.Validate()
			if c.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
