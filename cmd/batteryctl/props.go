package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"batterycode-go/drivers/acerbat"
)

func newPropsCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "props",
		Short: "List the properties the battery answers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, p := range acerbat.Properties() {
				fmt.Fprintln(cmd.OutOrStdout(), p.String())
			}
			return nil
		},
	}
}
