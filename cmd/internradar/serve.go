package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/internradar/internradar/internal/auth"
	"github.com/internradar/internradar/internal/digest"
	"github.com/internradar/internradar/internal/model"
	"github.com/internradar/internradar/internal/scheduler"
	"github.com/internradar/internradar/internal/server"
	"github.com/internradar/internradar/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the API server and refresh daemon",
	Long:  "Serves the REST API, refreshes the posting snapshot on schedule, and delivers digests and alerts; blocks until SIGINT/SIGTERM.",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("config loaded",
		"addr", cfg.Server.Addr,
		"refresh_interval", cfg.Cache.RefreshInterval.String(),
		"page_offsets", len(cfg.Provider.PageOffsets),
		"digest_schedule", cfg.Notification.DigestSchedule,
	)

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	agg := buildAggregator(cfg, logger)
	notifications := setupNotificationService(cfg, st, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Instant alerts fire whenever a refresh cycle surfaces postings that were
	// not in the previous snapshot.
	onNew := func(ctx context.Context, postings []model.Posting) {
		if _, err := notifications.SendAlert(ctx, postings); err != nil {
			logger.Error("alert delivery failed", "error", err)
		}
	}
	sched := scheduler.New(agg, cfg.Cache.RefreshInterval, cfg.Cache.DegradedInterval, onNew, logger)

	digestCron := digest.New(agg, notifications, cfg.Notification.DigestSchedule, logger)
	if err := digestCron.Start(); err != nil {
		logger.Error("failed to start digest schedule", "error", err)
		os.Exit(1)
	}
	defer digestCron.Stop()

	api := server.New(agg, st,
		auth.NewHasher(cfg.Server.BcryptCost),
		auth.NewTokenService(cfg.Server.JWTSecret, cfg.Server.TokenTTL),
		logger,
	)
	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server listening", "addr", cfg.Server.Addr)
		errCh <- httpServer.ListenAndServe()
	}()

	go func() {
		if err := sched.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("scheduler error", "error", err)
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api server error", "error", err)
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("goodbye")
	return nil
}
