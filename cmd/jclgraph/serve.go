package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/codewithboateng/jclgraph/internal/analysis"
	"github.com/codewithboateng/jclgraph/internal/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve stored runs over the HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default from config, :8080)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, closeLog, err := setup(cmd, "serve")
	if err != nil {
		return err
	}
	defer closeLog()
	if cmd.Flags().Changed("addr") {
		cfg.API.Addr, _ = cmd.Flags().GetString("addr")
	}

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	reg, err := analysis.NewRegistry(cfg.Rules.SeverityThreshold, cfg.Rules.Disabled, cfg.Rules.Packs)
	if err != nil {
		return err
	}

	s := &api.Server{
		DB:              db,
		UserStore:       db,
		Rules:           reg,
		Logger:          logger,
		AllowedOrigins:  cfg.API.AllowedOrigins,
		SessionDuration: cfg.SessionDuration(),
	}
	srv := &http.Server{
		Addr:              cfg.API.Addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		logger.Info("api listening", "addr", cfg.API.Addr, "db", cfg.Database.DSN)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	logger.Info("api shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
