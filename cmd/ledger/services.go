package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ledgerlog/ledger/pkg/account"
	"github.com/ledgerlog/ledger/pkg/ingest"
	"github.com/ledgerlog/ledger/pkg/kv"
	"github.com/ledgerlog/ledger/pkg/log"
	"github.com/ledgerlog/ledger/pkg/partition"
	"github.com/ledgerlog/ledger/pkg/query"
	"github.com/ledgerlog/ledger/pkg/queue"
	"github.com/ledgerlog/ledger/pkg/rpc"
	"github.com/ledgerlog/ledger/pkg/storage"
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Run the account RPC service",
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

		srv := rpc.NewServer("account", cfg.GRPC)
		srv.GRPC().RegisterService(&rpc.AccountServiceDesc,
			account.NewServer(account.NewStore(db), cache, cfg.Security, cfg.Cache))

		return runRPCService(srv, "account", fmt.Sprintf(":%d", cfg.GRPC.AccountPort))
	},
}

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Run the ingestion RPC service and partition scheduler",
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

		q := queue.New(cache, cfg.Queue.MaxDepth)
		srv := rpc.NewServer("ingest", cfg.GRPC)
		srv.GRPC().RegisterService(&rpc.IngestServiceDesc,
			ingest.NewServer(cfg.Validation, q, ingest.NewPublisher(cache), cache))

		var scheduler *partition.Scheduler
		if cfg.Partitions.SchedulerEnabled {
			scheduler = partition.NewScheduler(partition.NewManager(db), cfg.Partitions.MonthsAhead)
			scheduler.Start(cmd.Context())
			defer scheduler.Stop()
		}

		return runRPCService(srv, "ingest", fmt.Sprintf(":%d", cfg.GRPC.IngestPort))
	},
}

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Run the query RPC service",
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

		srv := rpc.NewServer("query", cfg.GRPC)
		srv.GRPC().RegisterService(&rpc.QueryServiceDesc,
			query.NewServer(query.NewStore(db.Pool), cache))

		return runRPCService(srv, "query", fmt.Sprintf(":%d", cfg.GRPC.QueryPort))
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the SQL schema",
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

		if err := db.Migrate(cmd.Context()); err != nil {
			return err
		}

		mgr := partition.NewManager(db)
		if err := mgr.EnsureAhead(cmd.Context(), cfg.Partitions.MonthsAhead); err != nil {
			return err
		}

		fmt.Println("schema applied")
		return nil
	},
}

// runRPCService serves until SIGINT/SIGTERM, then stops gracefully
func runRPCService(srv *rpc.Server, name, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(addr)
	}()

	select {
	case sig := <-signalCh():
		logger := log.WithService(name)
		logger.Info().
			Str("signal", sig.String()).
			Msg("received signal, shutting down")
	case err := <-errCh:
		if err != nil {
			return err
		}
	}
	srv.Stop()
	return nil
}
