package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	cli "github.com/canonical/vnicdb/shared/cmd"
	"github.com/canonical/vnicdb/shared/validate"
	"github.com/canonical/vnicdb/vnicdb/nic"
)

type cmdAdd struct {
	global *cmdGlobal
}

func (c *cmdAdd) Command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "add <vm> <nic> [<field>=<value>...]"
	cmd.Short = "Add a NIC to a VM"
	cmd.Long = cli.FormatSection("Description", `Add a NIC to a VM

The NIC is appended after the existing ones.`)
	cmd.Example = cli.FormatSection("", `vnicdb add vm1 nic2 nic_model=virtio netdst=virbr0`)
	cmd.RunE = c.Run

	return cmd
}

func (c *cmdAdd) Run(cmd *cobra.Command, args []string) error {
	exit, err := c.global.checkArgs(cmd, args, 2, -1)
	if exit {
		return err
	}

	values, err := parseAssignments(args[2:])
	if err != nil {
		return err
	}

	values[nic.FieldName] = args[1]

	mac, ok := values[nic.FieldMAC]
	if ok && mac != "" {
		err := validate.IsNetworkMAC(mac)
		if err != nil {
			return fmt.Errorf("Invalid MAC address %q: %w", mac, err)
		}
	}

	rec, err := nic.FromMap(values)
	if err != nil {
		return err
	}

	r, err := c.global.registry(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	return r.AppendNIC(cmd.Context(), rec)
}

func cutAssignment(arg string) (string, string, bool) {
	field, value, ok := strings.Cut(arg, "=")
	if !ok || field == "" {
		return "", "", false
	}

	return field, value, true
}

// parseAssignments turns field=value arguments into a NIC field map.
func parseAssignments(args []string) (map[string]string, error) {
	values := map[string]string{}
	for _, arg := range args {
		field, value, ok := cutAssignment(arg)
		if !ok {
			return nil, fmt.Errorf("Invalid field assignment %q, expected <field>=<value>", arg)
		}

		if field == nic.FieldName {
			return nil, fmt.Errorf("The %q field is taken from the NIC argument", nic.FieldName)
		}

		values[field] = value
	}

	return values, nil
}
