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

// API process entrypoint.
// Data flow:
// 1) Load config.
// 2) Build app wiring (ports + adapters + use cases).
// 3) Start HTTP server, with the outbox relay and deadline sweeper embedded
// unless disabled.
func main() {
	var (
		configFile string
		debug      bool
	)
	rootCmd := &cobra.Command{
		Use:           "tribunal-api",
		Short:         "Weighted consensus voting API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return err
			}
			cfg.Debug = cfg.Debug || debug

			app, err := bootstrap.BuildAPI(cfg)
			if err != nil {
				return err
			}
			defer func() {
				if err := app.Close(); err != nil {
					log.Printf("api shutdown close failed: %v", err)
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
		log.Fatalf("tribunal api stopped with error: %v", err)
	}
}
