package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kilianp07/fleetco2/core/emissions"
	"github.com/kilianp07/fleetco2/pkg/export"
)

func newFactorsCmd() *cobra.Command {
	var asJSON bool
	c := &cobra.Command{
		Use:   "factors",
		Short: "Print the emission factor table",
		RunE: func(cmd *cobra.Command, args []string) error {
			entries := emissions.DefaultFactors().Entries()
			if asJSON {
				return export.WriteJSON(cmd.OutOrStdout(), entries)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "FUEL\tKG CO2/L")
			for _, f := range entries {
				fmt.Fprintf(tw, "%s\t%g\n", f.FuelType, f.KgCO2PerLiter)
			}
			return tw.Flush()
		},
	}
	c.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return c
}
