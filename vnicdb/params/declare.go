package params

import (
	"github.com/canonical/vnicdb/shared/logger"
	"github.com/canonical/vnicdb/vnicdb/nic"
)

// NICs builds the NIC list declared for the given VM.
//
// Each name listed in the VM's "nics" parameter becomes one record whose
// fields are taken from the NIC's view of the parameters.
func NICs(p Params, vmName string) (*nic.List, error) {
	vmParams := p.ObjectParams(vmName)

	l := &nic.List{}
	for _, name := range vmParams.Objects("nics") {
		nicParams := vmParams.ObjectParams(name)

		values := map[string]string{nic.FieldName: name}
		for _, field := range nic.Fields {
			if field == nic.FieldName {
				continue
			}

			value := nicParams[field]
			if value != "" {
				values[field] = value
			}
		}

		r, err := nic.FromMap(values)
		if err != nil {
			return nil, err
		}

		err = l.Append(r)
		if err != nil {
			return nil, err
		}
	}

	return l, nil
}

// DeclaredMACs returns every valid MAC address explicitly declared for the
// NICs of any VM listed in "vms" (or of the top level "nics" if no VM is
// listed), mapped to the "<vm>/<nic>" declaring it.
func DeclaredMACs(p Params) map[string]string {
	macs := map[string]string{}

	vms := p.Objects("vms")
	if len(vms) == 0 {
		vms = []string{""}
	}

	for _, vmName := range vms {
		vmParams := p
		if vmName != "" {
			vmParams = p.ObjectParams(vmName)
		}

		for _, name := range vmParams.Objects("nics") {
			value := vmParams.ObjectParams(name)[nic.FieldMAC]
			if value == "" {
				continue
			}

			mac, err := nic.NormalizeMAC(value)
			if err != nil {
				logger.Debug("Skipping invalid declared MAC", logger.Ctx{"vm": vmName, "nic": name, "mac": value})
				continue
			}

			macs[mac] = vmName + "/" + name
		}
	}

	return macs
}
