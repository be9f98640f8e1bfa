package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"batterycode-go/drivers/acerbat"
)

// dumpRow is the JSON shape of one dump.
type dumpRow struct {
	Raw      rawRegs          `json:"raw"`
	Snapshot acerbat.Snapshot `json:"snapshot"`
	Status   string           `json:"status"`
	Level    string           `json:"level"`
}

type rawRegs struct {
	Status       uint8  `json:"status"`
	Energy       uint16 `json:"energy"`
	Voltage      uint16 `json:"voltage"`
	Rate         uint16 `json:"rate"`
	StatusFailed bool   `json:"status_failed,omitempty"`
}

func newDumpCmd(e *env) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Read every register once and print raw and derived values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			h, closeFn, err := e.handle()
			if err != nil {
				return err
			}
			defer closeFn()

			raw := acerbat.ReadRaw(h)
			s := raw.Snapshot()
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(dumpRow{
					Raw:      rawRegs{raw.Status, raw.Energy, raw.Voltage, raw.Rate, raw.StatusFailed},
					Snapshot: s,
					Status:   s.Status.String(),
					Level:    s.Level.String(),
				})
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "register\traw\n")
			fmt.Fprintf(tw, "%s\t0x%02X\n", acerbat.RegStatus, raw.Status)
			fmt.Fprintf(tw, "%s\t0x%04X\n", acerbat.RegEnergy, raw.Energy)
			fmt.Fprintf(tw, "%s\t0x%04X\n", acerbat.RegVoltage, raw.Voltage)
			fmt.Fprintf(tw, "%s\t0x%04X\n", acerbat.RegRate, raw.Rate)
			fmt.Fprintf(tw, "\t\n")
			fmt.Fprintf(tw, "metric\tvalue\n")
			fmt.Fprintf(tw, "status\t%s\n", s.Status)
			fmt.Fprintf(tw, "capacity\t%d%%\n", s.Capacity)
			fmt.Fprintf(tw, "capacity_level\t%s\n", s.Level)
			fmt.Fprintf(tw, "energy_now\t%d mWh\n", s.EnergyNow_mWh)
			fmt.Fprintf(tw, "energy_full\t%d mWh\n", s.EnergyFull_mWh)
			fmt.Fprintf(tw, "voltage_now\t%d mV\n", s.Voltage_mV)
			fmt.Fprintf(tw, "rate\t%d mW\n", s.Rate_mW)
			fmt.Fprintf(tw, "current_now\t%d mA\n", s.Current_mA)
			fmt.Fprintf(tw, "time_to_empty\t%d\n", s.TimeToEmpty)
			fmt.Fprintf(tw, "time_to_full\t%d\n", s.TimeToFull)
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON.")
	return cmd
}
