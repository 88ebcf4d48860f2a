package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"time-release-helper/internal/units"
)

func newUnitsCmd(_ *app) *cobra.Command {
	var (
		decimals uint8
		symbol   string
	)

	cmd := &cobra.Command{
		Use:   "units PLANCK",
		Short: "Show a planck amount in UNIT and mUNIT",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := units.ParsePlanck(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, units.FormatUnit(amount, decimals, symbol))
			fmt.Fprintln(out, units.FormatMilliUnit(amount, decimals, symbol))
			return nil
		},
	}
	cmd.Flags().Uint8Var(&decimals, "decimals", units.DefaultDecimals, "Token decimals")
	cmd.Flags().StringVar(&symbol, "symbol", "UNIT", "Token symbol")
	return cmd
}
