package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/internradar/internradar/internal/audit"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Review filter decisions interactively (TUI)",
	Long:  "Runs one fetch cycle and opens a split-pane TUI showing every listing alongside its filter decision, for tuning the keyword vocabularies.",
	RunE:  runAuditCmd,
}

func init() {
	rootCmd.AddCommand(auditCmd)
}

func runAuditCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// The TUI owns the terminal; pipeline log output before the alt-screen
	// starts corrupts the display.
	silentLogger := slog.New(slog.NewTextHandler(io.Discard, nil))
	agg := buildAggregator(cfg, silentLogger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Println("Fetching listings...")
	reviewed, stats := agg.ReviewCycle(ctx)
	if len(reviewed) == 0 {
		fmt.Println("No listings fetched. Check the API key and network, or run with --debug via `internradar fetch`.")
		os.Exit(1)
	}

	return audit.Run(reviewed, stats)
}
