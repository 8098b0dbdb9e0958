package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/internradar/internradar/internal/digest"
	"github.com/internradar/internradar/internal/store"
)

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Notification subcommands",
}

var notifyDigestCmd = &cobra.Command{
	Use:   "digest",
	Short: "Send the daily digest now",
	Long:  "Fetches the current postings and sends the digest to every subscriber immediately, outside the cron schedule.",
	RunE:  runNotifyDigest,
}

func init() {
	rootCmd.AddCommand(notifyCmd)
	notifyCmd.AddCommand(notifyDigestCmd)
}

func runNotifyDigest(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

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

	d := digest.New(agg, notifications, cfg.Notification.DigestSchedule, logger)
	sent, err := d.RunNow(ctx)
	if err != nil {
		logger.Error("digest delivery failed", "error", err)
		os.Exit(1)
	}
	logger.Info("digest sent", "subscribers", sent)
	return nil
}
