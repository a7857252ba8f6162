package main

import (
	"github.com/spf13/cobra"
)

type cmdRemove struct {
	global *cmdGlobal
}

func (c *cmdRemove) Command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "remove <vm> <nic>"
	cmd.Aliases = []string{"rm"}
	cmd.Short = "Remove a NIC from a VM"
	cmd.RunE = c.Run

	return cmd
}

func (c *cmdRemove) Run(cmd *cobra.Command, args []string) error {
	exit, err := c.global.checkArgs(cmd, args, 2, 2)
	if exit {
		return err
	}

	r, err := c.global.registry(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	return r.RemoveNIC(cmd.Context(), args[1])
}
