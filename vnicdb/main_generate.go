package main

import (
	"fmt"

	"github.com/spf13/cobra"

	cli "github.com/canonical/vnicdb/shared/cmd"
)

type cmdGenerate struct {
	global *cmdGlobal

	flagIfname bool
}

func (c *cmdGenerate) Command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "generate <vm> <nic>"
	cmd.Short = "Generate a MAC address for a NIC"
	cmd.Long = cli.FormatSection("Description", `Generate a MAC address for a NIC

Any address the NIC already has is released first. The new address is unique
across the store and the declared test parameters.`)
	cmd.RunE = c.Run
	cmd.Flags().BoolVar(&c.flagIfname, "ifname", false, "Also generate a host interface name")

	return cmd
}

func (c *cmdGenerate) Run(cmd *cobra.Command, args []string) error {
	exit, err := c.global.checkArgs(cmd, args, 2, 2)
	if exit {
		return err
	}

	r, err := c.global.registry(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	mac, err := r.GenerateMAC(cmd.Context(), args[1])
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(c.global.out, mac)

	if c.flagIfname {
		ifname, err := r.GenerateIfname(cmd.Context(), args[1])
		if err != nil {
			return err
		}

		_, _ = fmt.Fprintln(c.global.out, ifname)
	}

	return nil
}
