package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"time-release-helper/internal/estimator"
)

func newEstimateCmd(a *app) *cobra.Command {
	var live bool

	cmd := &cobra.Command{
		Use:   "estimate DATE",
		Short: "Estimate the unlock block for a calendar date (YYYY-MM-DD)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := a.network()
			if err != nil {
				return err
			}
			reg, err := a.registry(cmd.Context(), n, live)
			if err != nil {
				return err
			}
			block, err := a.resolveDate(reg, n, args[0])
			if err != nil {
				return err
			}

			d, _ := time.Parse(time.DateOnly, args[0])
			unlockAt := estimator.NormalizeDate(d.Year(), d.Month(), d.Day())

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Network:     %s\n", n.Name)
			fmt.Fprintf(out, "Unlocks at:  %s\n", unlockAt.Format(time.RFC3339))
			fmt.Fprintf(out, "Block:       %d\n", block)
			return nil
		},
	}
	cmd.Flags().BoolVar(&live, "live", false, "Refresh the chain reference from the node first")
	return cmd
}
