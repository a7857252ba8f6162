package nic

import (
	"fmt"
	"net"
	"sort"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/canonical/vnicdb/shared/logger"
	"github.com/canonical/vnicdb/shared/validate"
)

// NIC record field names, as used in test parameters and in the store.
const (
	FieldName              = "nic_name"
	FieldMAC               = "mac"
	FieldModel             = "nic_model"
	FieldIP                = "ip"
	FieldNetType           = "nettype"
	FieldNetDst            = "netdst"
	FieldIfname            = "ifname"
	FieldDeviceID          = "device_id"
	FieldNetdevID          = "netdev_id"
	FieldVLAN              = "vlan"
	FieldTapFDs            = "tapfds"
	FieldTapFDIDs          = "tapfd_ids"
	FieldVhostFDs          = "vhostfds"
	FieldQueues            = "queues"
	FieldRomfile           = "romfile"
	FieldNICExtraParams    = "nic_extra_params"
	FieldNetdevExtraParams = "netdev_extra_params"
)

// Fields lists every NIC record field in serialization order.
var Fields = []string{
	FieldName,
	FieldMAC,
	FieldModel,
	FieldIP,
	FieldNetType,
	FieldNetDst,
	FieldIfname,
	FieldDeviceID,
	FieldNetdevID,
	FieldVLAN,
	FieldTapFDs,
	FieldTapFDIDs,
	FieldVhostFDs,
	FieldQueues,
	FieldRomfile,
	FieldNICExtraParams,
	FieldNetdevExtraParams,
}

// Record is the identity and attachment information of one virtual NIC.
//
// An empty string means the field is unset.
type Record struct {
	Name    string `json:"nic_name"`
	MAC     string `json:"mac"`
	Model   string `json:"nic_model"`
	IP      string `json:"ip"`
	NetType string `json:"nettype"`
	NetDst  string `json:"netdst"`

	// Driver specific extras.
	Ifname            string `json:"ifname"`
	DeviceID          string `json:"device_id"`
	NetdevID          string `json:"netdev_id"`
	VLAN              string `json:"vlan"`
	TapFDs            string `json:"tapfds"`
	TapFDIDs          string `json:"tapfd_ids"`
	VhostFDs          string `json:"vhostfds"`
	Queues            string `json:"queues"`
	Romfile           string `json:"romfile"`
	NICExtraParams    string `json:"nic_extra_params"`
	NetdevExtraParams string `json:"netdev_extra_params"`
}

// FromMap builds a Record from a field to value mapping.
//
// Unknown fields are rejected with ErrUnknownField. An invalid MAC address is
// dropped with a warning rather than stored.
func FromMap(values map[string]string) (Record, error) {
	r := Record{}

	input := make(map[string]any, len(values))
	for k, v := range values {
		input[k] = v
	}

	mac, ok := values[FieldMAC]
	if ok {
		delete(input, FieldMAC)
	}

	md := mapstructure.Metadata{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:   "json",
		Result:    &r,
		Metadata:  &md,
		MatchName: func(mapKey string, fieldName string) bool { return mapKey == fieldName },
	})
	if err != nil {
		return Record{}, fmt.Errorf("Error creating decoder: %w", err)
	}

	err = decoder.Decode(input)
	if err != nil {
		return Record{}, fmt.Errorf("Error decoding NIC fields: %w", err)
	}

	if len(md.Unused) > 0 {
		sort.Strings(md.Unused)
		return Record{}, fmt.Errorf("%w: %s", ErrUnknownField, strings.Join(md.Unused, ", "))
	}

	if ok {
		r.SetMAC(mac)
	}

	return r, nil
}

// NormalizeMAC validates the given address and returns its canonical lower-case form.
func NormalizeMAC(value string) (string, error) {
	err := validate.IsNetworkMAC(value)
	if err != nil {
		return "", err
	}

	hwaddr, err := net.ParseMAC(value)
	if err != nil {
		return "", err
	}

	return hwaddr.String(), nil
}

// SetMAC stores the given MAC address. An empty or invalid value leaves the
// field unset, invalid ones are logged.
func (r *Record) SetMAC(value string) {
	if value == "" {
		r.MAC = ""
		return
	}

	mac, err := NormalizeMAC(value)
	if err != nil {
		logger.Warn("Ignoring invalid MAC address", logger.Ctx{"nic": r.Name, "mac": value, "err": err})
		r.MAC = ""
		return
	}

	r.MAC = mac
}

// HardwareAddr returns the MAC address in binary form, or nil if unset.
func (r Record) HardwareAddr() net.HardwareAddr {
	if r.MAC == "" {
		return nil
	}

	hwaddr, err := net.ParseMAC(r.MAC)
	if err != nil {
		return nil
	}

	return hwaddr
}

// value returns a pointer to the storage of the named field.
func (r *Record) value(field string) *string {
	switch field {
	case FieldName:
		return &r.Name
	case FieldMAC:
		return &r.MAC
	case FieldModel:
		return &r.Model
	case FieldIP:
		return &r.IP
	case FieldNetType:
		return &r.NetType
	case FieldNetDst:
		return &r.NetDst
	case FieldIfname:
		return &r.Ifname
	case FieldDeviceID:
		return &r.DeviceID
	case FieldNetdevID:
		return &r.NetdevID
	case FieldVLAN:
		return &r.VLAN
	case FieldTapFDs:
		return &r.TapFDs
	case FieldTapFDIDs:
		return &r.TapFDIDs
	case FieldVhostFDs:
		return &r.VhostFDs
	case FieldQueues:
		return &r.Queues
	case FieldRomfile:
		return &r.Romfile
	case FieldNICExtraParams:
		return &r.NICExtraParams
	case FieldNetdevExtraParams:
		return &r.NetdevExtraParams
	}

	return nil
}

// Get returns the value of the named field.
func (r Record) Get(field string) (string, error) {
	v := r.value(field)
	if v == nil {
		return "", fmt.Errorf("%w: %s", ErrUnknownField, field)
	}

	return *v, nil
}

// Set changes the value of the named field. An empty value unsets it.
func (r *Record) Set(field string, value string) error {
	v := r.value(field)
	if v == nil {
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}

	if field == FieldMAC {
		r.SetMAC(value)
		return nil
	}

	*v = value
	return nil
}

// Map returns the fields currently holding a value.
func (r Record) Map() map[string]string {
	values := map[string]string{}
	for _, field := range Fields {
		v := *r.value(field)
		if v != "" {
			values[field] = v
		}
	}

	return values
}

// Fill sets every unset field from other, leaving fields that already hold a value untouched.
func (r *Record) Fill(other Record) {
	for _, field := range Fields {
		if field == FieldName {
			continue
		}

		v := r.value(field)
		if *v == "" {
			*v = *other.value(field)
		}
	}
}

// Validate runs the field validators against the record.
func (r Record) Validate() error {
	return validateFields(Rules, r.Map())
}

// Rules holds the validators applied to explicitly supplied NIC fields.
var Rules = map[string]func(value string) error{
	FieldName:   validate.IsNotEmpty,
	FieldMAC:    validate.Optional(validate.IsNetworkMAC),
	FieldIP:     validate.Optional(validate.IsNetworkAddress),
	FieldIfname: validate.Optional(validate.IsInterfaceName),
	FieldVLAN:   validate.Optional(validate.IsInt64),
	FieldQueues: validate.Optional(validate.IsPositiveInt64),
}
