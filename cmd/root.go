// Package cmd defines and implements the CLI commands for the extractify
// executable.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/thecodingpenguins/extractify/internal/api"
	"github.com/thecodingpenguins/extractify/internal/config"
	"github.com/thecodingpenguins/extractify/internal/logging"
	"github.com/thecodingpenguins/extractify/internal/metrics"
)

var cfgFile string

// appKeyType is the key for storing the app in the command context.
type appKeyType string

const appKey appKeyType = "app"

// app bundles the long-lived collaborators every subcommand needs.
type app struct {
	cfg     config.Config
	logger  *zap.Logger
	service *api.Service
}

func (a *app) close() {
	if a.service != nil {
		if err := a.service.Close(); err != nil {
			a.logger.Warn("close service failed", zap.Error(err))
		}
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

// newApp is the application factory. It is a variable so tests can replace
// it with a stub factory.
var newApp = func(ctx context.Context) (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	metrics.Init()
	service, err := api.NewService(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("init service: %w", err)
	}
	return &app{cfg: cfg, logger: logger, service: service}, nil
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extractify",
		Short: "A polite same-host crawler and named-entity extractor.",
		Long: `extractify crawls a single website breadth-first within polite bounds,
then runs a multi-pass extraction pipeline over the saved pages to produce
a ranked, deduplicated list of named entities.`,

		SilenceUsage: true,

		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := newApp(cmd.Context())
			if err != nil {
				return fmt.Errorf("initialize application services: %w", err)
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey, appInstance))
			return nil
		},

		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if appInstance, ok := cmd.Context().Value(appKey).(*app); ok && appInstance != nil {
				appInstance.close()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default uses built-in defaults plus EXTRACTIFY_* env)")

	cmd.AddCommand(newCrawlCmd())
	cmd.AddCommand(newExtractCmd())
	cmd.AddCommand(newCancelCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func resolveApp(ctx context.Context) (*app, error) {
	appInstance, ok := ctx.Value(appKey).(*app)
	if !ok || appInstance == nil {
		return nil, errors.New("application services not initialized")
	}
	return appInstance, nil
}

// Execute is the main entry point.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "extractify: %v\n", err)
		os.Exit(1)
	}
}
