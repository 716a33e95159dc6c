package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ledgerlog/ledger/pkg/config"
	"github.com/ledgerlog/ledger/pkg/log"
	"github.com/ledgerlog/ledger/pkg/metrics"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

var configPath string

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Ledger - multi-tenant log analytics platform",
	Long: `Ledger ingests, stores and analyzes structured logs for many
tenants: an authenticated HTTP gateway feeds per-project queues,
storage workers bulk-insert into partitioned PostgreSQL, and
aggregation jobs keep dashboards and caches warm.

Each subcommand runs one service of the platform.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"Ledger version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file")

	rootCmd.AddCommand(gatewayCmd)
	rootCmd.AddCommand(accountCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(workerCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(analyticsCmd)
	rootCmd.AddCommand(migrateCmd)
}

// loadConfig reads configuration and initializes logging for a
// service process.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	log.Init(log.Config{
		Level:      log.Level(cfg.LogLevel),
		JSONOutput: cfg.Environment == "production",
	})
	metrics.SetVersion(Version)
	return cfg, nil
}

// signalCh delivers SIGINT and SIGTERM
func signalCh() <-chan os.Signal {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	return sigCh
}
