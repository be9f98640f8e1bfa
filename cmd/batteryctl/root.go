package main

import (
	"errors"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"batterycode-go/drivers/acerbat"
)

// env carries what every subcommand needs once options are loaded.
type env struct {
	opts *Options
	log  *zap.Logger
	out  io.Writer
}

// handle opens the bus and binds it to the controller.
func (e *env) handle() (acerbat.Handle, func() error, error) {
	bus, closeFn, err := openBus(e.opts)
	if err != nil {
		return acerbat.Handle{}, nil, err
	}
	h := acerbat.Handle{Bus: bus, Addr: e.opts.Addr, Diag: zapDiagnostics{log: e.log.Named("acerbat")}}
	return h, closeFn, nil
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := NewOptions()
	e := &env{opts: opts, out: out, log: zap.NewNop()}
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "batteryctl",
		Short: "Smart-battery controller telemetry",
		Long: `batteryctl reads the battery controller on a Linux I2C adapter.

Settings come from flags, BATTERY_* environment variables (BATTERY_BUS,
BATTERY_ADDR, BATTERY_LOG_LEVEL, ...) and an optional --config file, in
that order of precedence.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.Load(viper.New(), cmd.Flags(), cfgFile); err != nil {
				return err
			}
			if errs := opts.Validate(); len(errs) > 0 {
				return errors.Join(errs...)
			}
			log, err := NewLogger(opts.Log)
			if err != nil {
				return err
			}
			e.log = log
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = e.log.Sync()
		},
	}
	rootCmd.SetOut(out)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Config file (yaml, toml or json).")
	opts.AddFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(
		newPropsCmd(e),
		newGetCmd(e),
		newDumpCmd(e),
		newServeCmd(e),
	)
	return rootCmd
}

// Execute runs the root command
func Execute() error {
	return newRootCmd(nil).Execute()
}
