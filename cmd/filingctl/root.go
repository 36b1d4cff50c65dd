package main

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"filing-rag-api/internal/config"
	einocallback "filing-rag-api/internal/infrastructure/eino/callback"
	"filing-rag-api/internal/wire"
	"filing-rag-api/pkg/logger"
	"filing-rag-api/pkg/tracer"
)

var (
	configDir string
	logLevel  string

	cfg        *config.Config
	components *wire.Components
	cleanups   []func()
)

var rootCmd = &cobra.Command{
	Use:           "filingctl",
	Short:         "Ingest 10-K filings and ask questions about them",
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return setup(cmd.Context())
	},
	PersistentPostRun: func(*cobra.Command, []string) {
		teardown()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config", config.DefaultDir, "configuration directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override the configured log level")
}

func setup(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	_ = godotenv.Load()

	loaded, err := config.LoadFrom(configDir)
	if err != nil {
		return err
	}
	cfg = loaded

	level := cfg.Observability.Logging.Level
	if logLevel != "" {
		level = logLevel
	}
	logger.Init(level, cfg.Observability.Logging.Format)

	shutdown, err := tracer.Init(ctx, tracer.Config{
		ServiceName: cfg.App.Name + "-cli",
		Endpoint:    cfg.Observability.Tracing.Endpoint,
		SampleRate:  cfg.Observability.Tracing.SampleRate,
		Enabled:     cfg.Observability.Tracing.Enabled,
	})
	if err != nil {
		return err
	}
	cleanups = append(cleanups, func() { _ = shutdown(context.Background()) })

	einocallback.Init()

	c, cleanup, err := wire.InitializeComponents(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize components: %w", err)
	}
	components = c
	cleanups = append(cleanups, cleanup)
	return nil
}

func teardown() {
	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i]()
	}
	cleanups = nil
}
