package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/typerush/internal/config"
	"github.com/verte-zerg/typerush/internal/server"
	"github.com/verte-zerg/typerush/internal/store"
	"github.com/verte-zerg/typerush/internal/telemetry"
)

const serviceName = "typerush-gateway"

var serveEnvFile string

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP persistence gateway",
		Long:  "Run the HTTP persistence gateway. Settings come from TYPERUSH_* environment variables and an optional .env file.",
		Args:  cobra.NoArgs,
		RunE:  runServeCmd,
	}
	cmd.Flags().StringVar(&serveEnvFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	return cmd
}

func runServeCmd(_ *cobra.Command, _ []string) error {
	cfg, err := config.LoadServerConfig(serveEnvFile)
	if err != nil {
		return fmt.Errorf("failed to load server config: %w", err)
	}
	if cfg.Production {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := telemetry.Setup(ctx, serviceName, cfg.OTelEndpoint, cfg.OTelEnabled)
	if err != nil {
		logErrf("failed to set up tracing, continuing without it: %v\n", err)
	}
	defer func() {
		if serr := shutdown(context.Background()); serr != nil {
			logErrf("failed to flush traces: %v\n", serr)
		}
	}()

	st, err := openServerStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore(st)

	if err := server.New(st, cfg).Run(ctx); err != nil {
		return fmt.Errorf("server stopped: %w", err)
	}
	logErrln("gateway stopped")
	return nil
}

func openServerStore(cfg config.ServerConfig) (*store.Store, error) {
	var (
		st  *store.Store
		err error
	)
	if cfg.DBDriver == store.DriverSQLite {
		st, err = store.Open(cfg.DBDSN)
	} else {
		st, err = store.OpenDSN(cfg.DBDriver, cfg.DBDSN)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", cfg.DBDriver, err)
	}
	return st, nil
}
