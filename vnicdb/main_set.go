package main

import (
	"github.com/spf13/cobra"

	cli "github.com/canonical/vnicdb/shared/cmd"
	"github.com/canonical/vnicdb/vnicdb/nic"
)

type cmdSet struct {
	global *cmdGlobal
}

func (c *cmdSet) Command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "set <vm> <nic> <field> <value>"
	cmd.Short = "Set a field of a NIC"
	cmd.Long = cli.FormatSection("Description", `Set a field of a NIC

Setting "mac" reserves the address for the NIC. Setting "netdst" moves the
NIC's host interface to the new bridge.`)
	cmd.RunE = c.Run

	return cmd
}

func (c *cmdSet) Run(cmd *cobra.Command, args []string) error {
	exit, err := c.global.checkArgs(cmd, args, 4, 4)
	if exit {
		return err
	}

	r, err := c.global.registry(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if args[2] == nic.FieldMAC {
		return r.SetMAC(cmd.Context(), args[1], args[3])
	}

	return r.SetField(cmd.Context(), args[1], args[2], args[3])
}
