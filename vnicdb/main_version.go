package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/canonical/vnicdb/shared/version"
	"github.com/canonical/vnicdb/vnicdb/db"
)

type cmdVersion struct {
	global *cmdGlobal
}

func (c *cmdVersion) Command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "version"
	cmd.Short = "Show the vnicdb and store schema versions"
	cmd.RunE = c.Run

	return cmd
}

func (c *cmdVersion) Run(cmd *cobra.Command, args []string) error {
	exit, err := c.global.checkArgs(cmd, args, 0, 0)
	if exit {
		return err
	}

	_, _ = fmt.Fprintf(c.global.out, "Version: %s\n", version.Version)
	_, _ = fmt.Fprintf(c.global.out, "Store schema: %d\n", db.Schema().Version())

	return nil
}
