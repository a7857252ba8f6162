package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/canonical/vnicdb/shared/logger"
	"github.com/canonical/vnicdb/shared/version"
	"github.com/canonical/vnicdb/vnicdb/bridge"
	"github.com/canonical/vnicdb/vnicdb/config"
	"github.com/canonical/vnicdb/vnicdb/db"
	"github.com/canonical/vnicdb/vnicdb/params"
	"github.com/canonical/vnicdb/vnicdb/registry"
)

type cmdGlobal struct {
	cmd   *cobra.Command
	stdin io.Reader
	out   io.Writer

	settings *config.Settings
	params   params.Params
	store    *db.Store

	flagConfig  string
	flagStore   string
	flagParams  string
	flagStyle   string
	flagKey     string
	flagLogFile string
	flagDebug   bool
	flagVerbose bool
	flagVersion bool
	flagHelp    bool
}

func main() {
	app := newApp(os.Stdin, os.Stdout)

	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func newApp(stdin io.Reader, out io.Writer) *cobra.Command {
	// vnicdb command (main)
	app := &cobra.Command{}
	app.Use = "vnicdb"
	app.Short = "Virtual NIC identity registry"
	app.Long = `Description:
  Virtual NIC identity registry

  Keeps track of the MAC addresses, interface names and network attachment
  of the NICs of every test VM on the host, across processes.
`
	app.SilenceUsage = true
	app.CompletionOptions = cobra.CompletionOptions{DisableDefaultCmd: true}
	app.SetOut(out)

	// Global flags
	globalCmd := cmdGlobal{cmd: app, stdin: stdin, out: out}
	app.PersistentFlags().StringVar(&globalCmd.flagConfig, "config", config.DefaultPath, "Settings file"+"``")
	app.PersistentFlags().StringVar(&globalCmd.flagStore, "store", "", "Path to the NIC store (overrides store.path)"+"``")
	app.PersistentFlags().StringVarP(&globalCmd.flagParams, "params", "p", "", "Test parameters file declaring the VM NICs"+"``")
	app.PersistentFlags().StringVar(&globalCmd.flagStyle, "style", "", "Virtualization style of generated MAC addresses (qemu or libvirt)"+"``")
	app.PersistentFlags().StringVar(&globalCmd.flagKey, "key", "", "Store key of the VM (defaults to <host id>:<vm>)"+"``")
	app.PersistentFlags().StringVar(&globalCmd.flagLogFile, "logfile", "", "Path to the log file"+"``")
	app.PersistentFlags().BoolVarP(&globalCmd.flagDebug, "debug", "d", false, "Show all debug messages")
	app.PersistentFlags().BoolVarP(&globalCmd.flagVerbose, "verbose", "v", false, "Show all information messages")
	app.PersistentFlags().BoolVar(&globalCmd.flagVersion, "version", false, "Print version number")
	app.PersistentFlags().BoolVarP(&globalCmd.flagHelp, "help", "h", false, "Print help")

	// Version handling
	app.SetVersionTemplate("{{.Version}}\n")
	app.Version = version.Version

	app.PersistentPreRunE = globalCmd.PreRun
	app.PersistentPostRunE = globalCmd.PostRun

	// show sub-command
	showCmd := cmdShow{global: &globalCmd}
	app.AddCommand(showCmd.Command())

	// list sub-command
	listCmd := cmdList{global: &globalCmd}
	app.AddCommand(listCmd.Command())

	// macs sub-command
	macsCmd := cmdMACs{global: &globalCmd}
	app.AddCommand(macsCmd.Command())

	// generate sub-command
	generateCmd := cmdGenerate{global: &globalCmd}
	app.AddCommand(generateCmd.Command())

	// set sub-command
	setCmd := cmdSet{global: &globalCmd}
	app.AddCommand(setCmd.Command())

	// free sub-command
	freeCmd := cmdFree{global: &globalCmd}
	app.AddCommand(freeCmd.Command())

	// add sub-command
	addCmd := cmdAdd{global: &globalCmd}
	app.AddCommand(addCmd.Command())

	// remove sub-command
	removeCmd := cmdRemove{global: &globalCmd}
	app.AddCommand(removeCmd.Command())

	// forget sub-command
	forgetCmd := cmdForget{global: &globalCmd}
	app.AddCommand(forgetCmd.Command())

	// version sub-command
	versionCmd := cmdVersion{global: &globalCmd}
	app.AddCommand(versionCmd.Command())

	return app
}

// PreRun sets up logging and loads the settings and test parameters.
func (c *cmdGlobal) PreRun(cmd *cobra.Command, args []string) error {
	err := logger.InitLogger(c.flagLogFile, c.flagVerbose, c.flagDebug)
	if err != nil {
		return err
	}

	c.settings, err = config.LoadFile(c.flagConfig)
	if err != nil {
		return err
	}

	overrides := map[string]string{}
	if c.flagStore != "" {
		overrides["store.path"] = c.flagStore
	}

	if c.flagStyle != "" {
		overrides["mac.style"] = c.flagStyle
	}

	err = c.settings.Change(overrides)
	if err != nil {
		return err
	}

	c.params = params.Params{}
	if c.flagParams != "" {
		c.params, err = params.Load(c.flagParams)
		if err != nil {
			return err
		}
	}

	return nil
}

// PostRun closes the store if a command opened it.
func (c *cmdGlobal) PostRun(cmd *cobra.Command, args []string) error {
	if c.store == nil {
		return nil
	}

	err := c.store.Close()
	c.store = nil

	return err
}

// openStore opens the NIC store once per command.
func (c *cmdGlobal) openStore(ctx context.Context) (*db.Store, error) {
	if c.store != nil {
		return c.store, nil
	}

	store, err := db.Open(ctx, c.settings.StorePath(), db.WithLockTimeout(c.settings.LockTimeout()), db.WithLockInterval(c.settings.LockInterval()))
	if err != nil {
		return nil, err
	}

	c.store = store
	return store, nil
}

// registry builds the NIC registry of the given VM.
func (c *cmdGlobal) registry(ctx context.Context, vmName string) (*registry.Registry, error) {
	store, err := c.openStore(ctx)
	if err != nil {
		return nil, err
	}

	style, err := registry.ParseStyle(c.settings.MACStyle())
	if err != nil {
		return nil, err
	}

	key := c.flagKey
	if key == "" {
		key = registry.Key(store.HostID(), vmName)
	}

	options := []registry.Option{
		registry.WithStyle(style),
		registry.WithAttempts(c.settings.MACAttempts()),
		registry.WithBridgeManager(bridge.NewManager()),
	}

	if c.settings.MACPrefix() != "" {
		options = append(options, registry.WithPrefix(c.settings.MACPrefix()))
	}

	return registry.New(ctx, store, c.params, vmName, key, options...)
}

// checkArgs validates the number of arguments, printing the help on mismatch.
func (c *cmdGlobal) checkArgs(cmd *cobra.Command, args []string, minArgs int, maxArgs int) (bool, error) {
	if len(args) < minArgs || (maxArgs != -1 && len(args) > maxArgs) {
		_ = cmd.Help()

		if len(args) == 0 {
			return true, nil
		}

		return true, fmt.Errorf("Invalid number of arguments")
	}

	return false, nil
}
