package main

import (
	"github.com/spf13/cobra"

	cli "github.com/canonical/vnicdb/shared/cmd"
)

type cmdShow struct {
	global *cmdGlobal

	flagFormat string
}

func (c *cmdShow) Command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "show <vm>"
	cmd.Short = "Show the NICs of a VM"
	cmd.Long = cli.FormatSection("Description", `Show the NICs of a VM

The declared NICs from the test parameters are merged with the stored ones
and the result is written back to the store.`)
	cmd.RunE = c.Run
	cmd.Flags().StringVarP(&c.flagFormat, "format", "f", cli.TableFormatTable, "Format (csv|table|compact|yaml)"+"``")

	return cmd
}

func (c *cmdShow) Run(cmd *cobra.Command, args []string) error {
	exit, err := c.global.checkArgs(cmd, args, 1, 1)
	if exit {
		return err
	}

	r, err := c.global.registry(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	header := []string{"NAME", "MAC", "MODEL", "IP", "NETTYPE", "NETDST", "IFNAME"}
	data := [][]string{}
	for _, rec := range r.NICs().All() {
		data = append(data, []string{rec.Name, rec.MAC, rec.Model, rec.IP, rec.NetType, rec.NetDst, rec.Ifname})
	}

	return cli.RenderTable(c.global.out, c.flagFormat, header, data, r.NICs().Maps())
}
