package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"time-release-helper/internal/models"
)

func newBalanceCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "balance ADDRESS",
		Short: "Show the free balance of an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := a.network()
			if err != nil {
				return err
			}
			cc, client, err := a.connect(cmd.Context(), n)
			if err != nil {
				return err
			}
			defer client.Close()

			balance, err := cc.FreeBalance(cmd.Context(), models.Signatory(args[0]))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", cc.FormatBalance(balance), cc.Unit)
			return nil
		},
	}
}
