package main

import (
	"context"
	"sort"
	"strconv"

	"github.com/fvbommel/sortorder"
	"github.com/spf13/cobra"

	cli "github.com/canonical/vnicdb/shared/cmd"
)

type cmdList struct {
	global *cmdGlobal

	flagFormat string
}

func (c *cmdList) Command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "list"
	cmd.Short = "List the stored VM entries"
	cmd.Long = cli.FormatSection("Description", `List the stored VM entries`)
	cmd.RunE = c.Run
	cmd.Flags().StringVarP(&c.flagFormat, "format", "f", cli.TableFormatTable, "Format (csv|table|compact|yaml)"+"``")

	return cmd
}

func (c *cmdList) Run(cmd *cobra.Command, args []string) error {
	exit, err := c.global.checkArgs(cmd, args, 0, 0)
	if exit {
		return err
	}

	store, err := c.global.openStore(cmd.Context())
	if err != nil {
		return err
	}

	counts := map[string]int{}
	err = store.WithLock(cmd.Context(), func(ctx context.Context) error {
		keys, err := store.Keys(ctx)
		if err != nil {
			return err
		}

		for _, key := range keys {
			l, err := store.Load(ctx, key)
			if err != nil {
				return err
			}

			counts[key] = l.Len()
		}

		return nil
	})
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(counts))
	for key := range counts {
		keys = append(keys, key)
	}

	sort.Sort(sortorder.Natural(keys))

	data := [][]string{}
	for _, key := range keys {
		data = append(data, []string{key, strconv.Itoa(counts[key])})
	}

	return cli.RenderTable(c.global.out, c.flagFormat, []string{"KEY", "NICS"}, data, counts)
}
