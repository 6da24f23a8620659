package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"tribunal/internal/app/bootstrap"
	"tribunal/internal/platform/config"

	"github.com/spf13/cobra"
)

// Worker process entrypoint.
// Data flow:
// 1) Load config.
// 2) Build app wiring.
// 3) Run the deadline sweeper and outbox relay on the poll interval. Only
// meaningful against a shared ledger (postgres).
func main() {
	var (
		configFile string
		debug      bool
	)
	rootCmd := &cobra.Command{
		Use:           "tribunal-worker",
		Short:         "Deadline sweeper and outbox relay",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return err
			}
			cfg.Debug = cfg.Debug || debug

			app, err := bootstrap.BuildWorker(cfg)
			if err != nil {
				return err
			}
			defer func() {
				if err := app.Close(); err != nil {
					log.Printf("worker shutdown close failed: %v", err)
				}
			}()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return app.Run(ctx)
		},
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "D", false, "enable debug logging")

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		log.Fatalf("tribunal worker stopped with error: %v", err)
	}
}
