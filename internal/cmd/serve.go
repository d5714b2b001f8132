package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/xiaot623/gogo/ecosystem/internal/bus"
	"github.com/xiaot623/gogo/ecosystem/internal/config"
	"github.com/xiaot623/gogo/ecosystem/internal/domain"
	"github.com/xiaot623/gogo/ecosystem/internal/ecosystem"
	"github.com/xiaot623/gogo/ecosystem/internal/logger"
	"github.com/xiaot623/gogo/ecosystem/internal/repository"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the hub, aggregator and scheduler",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), configPath(root))
		},
	}
}

func configPath(root *rootOptions) string {
	if root.configFile != "" {
		return root.configFile
	}
	return os.Getenv("ECOSYSTEM_CONFIG")
}

func runServe(ctx context.Context, path string) error {
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStartupFailure, err)
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("starting ecosystem",
		"ecosystem_id", cfg.EcosystemID,
		"hub_port", cfg.HubPort,
		"orchestrator_port", cfg.OrchestratorPort,
		"agents", len(cfg.Agents),
		"daily_target", cfg.Targets.Daily)

	deps := ecosystem.Deps{Logger: log}

	if cfg.DatabaseURL != "" {
		store, err := repository.NewSQLiteStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("%w: %w", domain.ErrStartupFailure, err)
		}
		defer store.Close()
		deps.Store = store
	}

	if cfg.NATSURL != "" {
		dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		mirror, err := bus.Connect(dialCtx, cfg.NATSURL, log)
		cancel()
		if err != nil {
			log.Warn("relay mirror disabled", "error", err)
		} else {
			defer mirror.Close()
			deps.Mirror = mirror
		}
	}

	ctrl, err := ecosystem.New(ctx, cfg, deps)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStartupFailure, err)
	}
	if err := ctrl.Run(ctx); err != nil {
		return err
	}
	log.Info("ecosystem stopped")
	return nil
}
