package main

import (
	"context"
	"sort"

	"github.com/spf13/cobra"

	cli "github.com/canonical/vnicdb/shared/cmd"
	"github.com/canonical/vnicdb/vnicdb/params"
)

type cmdMACs struct {
	global *cmdGlobal

	flagFormat string
}

func (c *cmdMACs) Command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "macs"
	cmd.Short = "List the MAC addresses in use"
	cmd.Long = cli.FormatSection("Description", `List the MAC addresses in use

Both the addresses recorded in the store and the ones declared in the
test parameters are listed, along with their owner.`)
	cmd.RunE = c.Run
	cmd.Flags().StringVarP(&c.flagFormat, "format", "f", cli.TableFormatTable, "Format (csv|table|compact|yaml)"+"``")

	return cmd
}

func (c *cmdMACs) Run(cmd *cobra.Command, args []string) error {
	exit, err := c.global.checkArgs(cmd, args, 0, 0)
	if exit {
		return err
	}

	store, err := c.global.openStore(cmd.Context())
	if err != nil {
		return err
	}

	macs := map[string]string{}
	err = store.WithLock(cmd.Context(), func(ctx context.Context) error {
		var err error
		macs, err = store.MACs(ctx)
		return err
	})
	if err != nil {
		return err
	}

	for mac, owner := range params.DeclaredMACs(c.global.params) {
		_, ok := macs[mac]
		if !ok {
			macs[mac] = owner
		}
	}

	keys := make([]string, 0, len(macs))
	for mac := range macs {
		keys = append(keys, mac)
	}

	sort.Strings(keys)

	data := [][]string{}
	for _, mac := range keys {
		data = append(data, []string{mac, macs[mac]})
	}

	return cli.RenderTable(c.global.out, c.flagFormat, []string{"MAC", "OWNER"}, data, macs)
}
