package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	cli "github.com/canonical/vnicdb/shared/cmd"
)

type cmdForget struct {
	global *cmdGlobal

	flagForce bool
}

func (c *cmdForget) Command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "forget <key>"
	cmd.Short = "Delete a stored VM entry"
	cmd.Long = cli.FormatSection("Description", `Delete a stored VM entry

All MAC addresses held by the entry are released.`)
	cmd.RunE = c.Run
	cmd.Flags().BoolVarP(&c.flagForce, "force", "f", false, "Don't ask for confirmation")

	return cmd
}

func (c *cmdForget) Run(cmd *cobra.Command, args []string) error {
	exit, err := c.global.checkArgs(cmd, args, 1, 1)
	if exit {
		return err
	}

	key := args[0]

	if !c.flagForce {
		asker := cli.NewAsker(c.global.stdin, c.global.out)
		ok, err := asker.AskBool(fmt.Sprintf("Forget all NICs stored under %q? (yes/no) [default=no]: ", key), "no")
		if err != nil {
			return err
		}

		if !ok {
			return nil
		}
	}

	store, err := c.global.openStore(cmd.Context())
	if err != nil {
		return err
	}

	return store.WithLock(cmd.Context(), func(ctx context.Context) error {
		return store.Delete(ctx, key)
	})
}
