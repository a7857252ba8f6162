package main

import (
	"github.com/spf13/cobra"
)

type cmdFree struct {
	global *cmdGlobal
}

func (c *cmdFree) Command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "free <vm> <nic>"
	cmd.Short = "Release the MAC address of a NIC"
	cmd.RunE = c.Run

	return cmd
}

func (c *cmdFree) Run(cmd *cobra.Command, args []string) error {
	exit, err := c.global.checkArgs(cmd, args, 2, 2)
	if exit {
		return err
	}

	r, err := c.global.registry(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	return r.FreeMAC(cmd.Context(), args[1])
}
