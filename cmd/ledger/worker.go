package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ledgerlog/ledger/pkg/analytics"
	"github.com/ledgerlog/ledger/pkg/kv"
	"github.com/ledgerlog/ledger/pkg/log"
	"github.com/ledgerlog/ledger/pkg/partition"
	"github.com/ledgerlog/ledger/pkg/queue"
	"github.com/ledgerlog/ledger/pkg/storage"
	"github.com/ledgerlog/ledger/pkg/worker"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the storage worker pool",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		db, err := storage.Connect(cmd.Context(), cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()

		cache := kv.New(cfg.Redis)
		defer cache.Close()
		if err := cache.Ping(cmd.Context()); err != nil {
			return fmt.Errorf("redis unreachable: %w", err)
		}

		pool := worker.NewPool(db,
			queue.New(cache, cfg.Queue.MaxDepth),
			partition.NewManager(db),
			cfg.Queue)
		pool.Start(cmd.Context())

		sig := <-signalCh()
		logger := log.WithService("worker")
		logger.Info().
			Str("signal", sig.String()).
			Msg("received signal, draining workers")
		pool.Stop()
		return nil
	},
}

var analyticsCmd = &cobra.Command{
	Use:   "analytics",
	Short: "Run the aggregation jobs and cache warmers",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		db, err := storage.Connect(cmd.Context(), cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()

		cache := kv.New(cfg.Redis)
		defer cache.Close()
		if err := cache.Ping(cmd.Context()); err != nil {
			return fmt.Errorf("redis unreachable: %w", err)
		}

		svc := analytics.NewService(db.Pool, cache, cfg.Aggregation)
		svc.Start(cmd.Context())

		sig := <-signalCh()
		logger := log.WithService("analytics")
		logger.Info().
			Str("signal", sig.String()).
			Msg("received signal, stopping jobs")
		svc.Stop()
		return nil
	},
}
