package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"time-release-helper/internal/config"
	"time-release-helper/internal/logger"
)

func main() {
	// console logger until the configured level is known
	logger.Init("info")

	defer func() {
		if r := recover(); r != nil {
			logger.GetLogger().Error().Interface("panic", r).Msg("Application panicked, recovering")
			os.Exit(2)
		}
	}()

	cfg, err := config.Load()
	if err != nil {
		logger.GetLogger().Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger.Init(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = newRootCmd(cfg).ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	app := &app{cfg: cfg}

	root := &cobra.Command{
		Use:           "time-release-helper",
		Short:         "Prepare and submit time-locked transfers",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVarP(&app.networkName, "network", "n", "Frequency", "Network name from the registry")
	root.PersistentFlags().StringVar(&app.endpoint, "endpoint", "", "Node websocket endpoint (defaults to RPC_ENDPOINT or the network endpoint)")

	root.AddCommand(
		newEstimateCmd(app),
		newMultisigCmd(app),
		newTransferCmd(app),
		newBalanceCmd(app),
		newUnitsCmd(app),
	)
	return root
}
