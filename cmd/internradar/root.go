package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/internradar/internradar/internal/aggregator"
	"github.com/internradar/internradar/internal/config"
	"github.com/internradar/internradar/internal/filter"
	"github.com/internradar/internradar/internal/notifier"
	"github.com/internradar/internradar/internal/provider"
	"github.com/internradar/internradar/internal/ratelimit"
	"github.com/internradar/internradar/internal/retry"
	"github.com/internradar/internradar/internal/store"
)

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "internradar",
	Short: "CS internship radar",
	Long:  "InternRadar aggregates CS internship postings, filters out the noise, and serves them over a REST API with digests and alerts.",
	// Default to `serve` so the bare binary runs the daemon.
	RunE: runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: INTERNRADAR_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// loadConfig resolves the config path and parses it.
// Priority: explicit path arg > INTERNRADAR_CONFIG env var > "./config.yaml"
func loadConfig(path string) (*config.Config, error) {
	// Secrets referenced from config.yaml (${RAPIDAPI_KEY} etc.) may live in
	// a local .env file.
	_ = godotenv.Load()

	if path == "" {
		if env := os.Getenv("INTERNRADAR_CONFIG"); env != "" {
			path = env
		} else {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func setupLogger(dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}

// buildAggregator assembles the fetch pipeline: provider client wrapped with
// retries, then rate limiting, feeding the classifier and snapshot cache.
func buildAggregator(cfg *config.Config, logger *slog.Logger) *aggregator.Aggregator {
	httpClient := &http.Client{Timeout: cfg.Provider.RequestTimeout}

	fetcher := retry.NewFetcher(
		provider.NewClient(cfg.Provider.Host, cfg.Provider.APIKey, cfg.Provider.TitleFilter, cfg.Provider.LocationFilter, httpClient),
		cfg.Provider.MaxRetries,
		cfg.Provider.RetryBaseDelay,
		logger,
	)
	limited := ratelimit.NewFetcher(fetcher, ratelimit.NewLimiter(cfg.Provider.MinDelay))

	classifier := filter.NewClassifier(cfg.Filters)

	return aggregator.New(limited, classifier, aggregator.Config{
		Offsets:          cfg.Provider.PageOffsets,
		RefreshInterval:  cfg.Cache.RefreshInterval,
		DegradedInterval: cfg.Cache.DegradedInterval,
	}, logger)
}

// setupNotificationService picks the email and SMS channels from config.
// Twilio credentials take precedence for SMS; otherwise texts route through
// carrier email gateways when real SMTP is configured.
func setupNotificationService(cfg *config.Config, st *store.Store, logger *slog.Logger) *notifier.Service {
	var email notifier.EmailSender
	switch cfg.Notification.Type {
	case "smtp":
		email = notifier.NewSMTPSender(cfg.Notification.SMTPHost, cfg.Notification.SMTPPort,
			cfg.Notification.EmailUser, cfg.Notification.EmailPassword)
		logger.Info("using smtp email sender", "host", cfg.Notification.SMTPHost)
	default:
		email = notifier.NewLogEmailSender(logger)
	}

	var sms notifier.SMSSender
	switch {
	case cfg.Notification.TwilioAccountSID != "" && cfg.Notification.TwilioAuthToken != "":
		sms = notifier.NewTwilioSender(cfg.Notification.TwilioAccountSID, cfg.Notification.TwilioAuthToken,
			cfg.Notification.TwilioPhoneNumber, http.DefaultClient)
		logger.Info("using twilio sms sender")
	case cfg.Notification.Type == "smtp":
		sms = notifier.NewGatewaySender(email)
		logger.Info("using carrier gateway sms sender")
	}

	return notifier.NewService(st, email, sms, logger)
}
