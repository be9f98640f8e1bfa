package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"batterycode-go/drivers/acerbat"
)

var errUnknownProperty = errors.New("unknown property")

func newGetCmd(e *env) *cobra.Command {
	var uevent bool
	cmd := &cobra.Command{
		Use:   "get <property>...",
		Short: "Query properties, e.g. 'get capacity status'",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			props := make([]acerbat.Property, 0, len(args))
			for _, name := range args {
				p, ok := acerbat.ParseProperty(name)
				if !ok {
					return fmt.Errorf("%w: %s", errUnknownProperty, name)
				}
				props = append(props, p)
			}

			h, closeFn, err := e.handle()
			if err != nil {
				return err
			}
			defer closeFn()

			var failed error
			for _, p := range props {
				v, err := acerbat.GetProperty(h, p)
				if err != nil {
					e.log.Debug("property skipped", zap.Stringer("property", p), zap.Error(err))
					failed = errors.Join(failed, fmt.Errorf("%s: %w", p, err))
					continue
				}
				if uevent {
					fmt.Fprintf(cmd.OutOrStdout(), "POWER_SUPPLY_%s=%s\n", strings.ToUpper(p.String()), p.Format(v))
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", p, p.Format(v))
				}
			}
			return failed
		},
	}
	cmd.Flags().BoolVar(&uevent, "uevent", false, "Print POWER_SUPPLY_<NAME>=<value> lines.")
	return cmd
}
