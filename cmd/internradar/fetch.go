package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/internradar/internradar/internal/filter"
)

var fetchJSON bool

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Run one fetch cycle, print results, exit",
	Long:  "One-shot cycle: fetches every configured page, classifies the listings, prints the outcome, and exits without touching the snapshot.",
	RunE:  runFetch,
}

func init() {
	fetchCmd.Flags().BoolVar(&fetchJSON, "json", false, "print accepted postings as JSON")
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	agg := buildAggregator(cfg, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reviewed, stats := agg.ReviewCycle(ctx)

	if fetchJSON {
		accepted := make([]any, 0, stats.Accepted)
		for _, r := range reviewed {
			if r.Result.Decision == filter.Accepted {
				accepted = append(accepted, r.Posting)
			}
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(accepted); err != nil {
			logger.Error("encoding postings failed", "error", err)
			os.Exit(1)
		}
		return nil
	}

	for _, r := range reviewed {
		if r.Result.Decision != filter.Accepted {
			continue
		}
		logger.Info("accepted",
			"title", r.Posting.Title,
			"company", r.Posting.Company,
			"location", r.Posting.Location,
			"posted", r.Posting.PostedDate,
		)
	}
	logger.Info("fetch complete",
		"processed", stats.Processed,
		"accepted", stats.Accepted,
		"excluded_keyword", stats.ExcludedKeyword,
		"not_internship", stats.NotInternship,
		"no_cs_keyword", stats.NoCSKeyword,
	)
	return nil
}
