// Interview daemon - drives AI-probed follow-up conversations over one
// continuous recording.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/probewise/interview/internal/bootstrap"
	"github.com/probewise/interview/internal/config"
)

func main() {
	var (
		configPath string
		logLevel   string
	)

	root := &cobra.Command{
		Use:   "interviewd",
		Short: "AI-probed interview conversation daemon",
		RunE: func(cmd *cobra.Command, _ []string) error {
			setupLogging(logLevel)

			cfg, err := config.LoadFile(configPath)
			if err != nil {
				return err
			}

			app, err := bootstrap.New(cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return app.Run(ctx)
		},
	}

	root.Flags().StringVarP(&configPath, "config", "c", "", "path to YAML config file (env vars provide defaults)")
	root.Flags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")

	if err := root.Execute(); err != nil {
		slog.Error("daemon failed", "error", err)
		os.Exit(1)
	}
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
}
