package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"IdeaScanner/internal/app"
	"IdeaScanner/internal/config"
	"IdeaScanner/internal/logging"
)

var Version = "dev"

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:           "ideascanner",
		Short:         "IdeaScanner - turns discussion threads into scored product ideas",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv("IDEASCANNER_CONFIG"), "Path to YAML config")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(workerCmd())
	rootCmd.AddCommand(syncCmd())
	rootCmd.AddCommand(watchCmd())
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(digestCmd())
	rootCmd.AddCommand(syncMocksCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// withApp loads config, builds the application and closes it after fn.
func withApp(ctx context.Context, fn func(*app.Application) error) error {
	cfg, err := config.LoadFile(configPath)
	if err != nil {
		return err
	}
	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := application.Close(context.Background()); err != nil {
			logger.Warn("close", "err", err)
		}
	}()
	return fn(application)
}
