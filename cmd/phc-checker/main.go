package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"phc-checker/internal/app"
	"phc-checker/internal/config"
	"phc-checker/internal/observability"
	"phc-checker/internal/storage/filelog"
)

var (
	configPath   string
	historyLimit int
)

var rootCmd = &cobra.Command{
	Use:           "phc-checker",
	Short:         "Check the PHC news listing for a new item",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		defer logger.Sync()

		ctx, cancel := app.GracefulShutdown(context.Background(), logger)
		defer cancel()

		orch, cleanup, err := app.Build(cfg, logger, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		defer cleanup()

		_, err = orch.Run(ctx)
		return err
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Print the latest check log entries",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		defer logger.Sync()

		store := filelog.NewStore(cfg.CheckLog.Dir, logger)
		entries, err := store.Entries(context.Background(), cfg.Site.Name)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "no check log at %s\n", store.Path(cfg.Site.Name))
			return nil
		}

		app.NewConsole(cmd.OutOrStdout()).History(entries, historyLimit)
		return nil
	},
}

// setup загружает конфиг и поднимает логгер
func setup() (*config.Config, *observability.Logger, error) {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	obs := cfg.Observability
	logger, err := observability.NewLogger(observability.Options{
		LogPath:    obs.LogPath,
		LogLevel:   obs.LogLevel,
		MaxSizeMB:  obs.MaxSizeMB,
		MaxBackups: obs.MaxBackups,
		MaxAgeDays: obs.MaxAgeDays,
		Console:    obs.LogPath == "",
	})
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}

	return cfg, logger, nil
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file (.yaml or .toml)")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of entries to show (0 = all)")
	rootCmd.AddCommand(historyCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
