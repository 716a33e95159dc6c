package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ledgerlog/ledger/pkg/gateway"
	"github.com/ledgerlog/ledger/pkg/kv"
	"github.com/ledgerlog/ledger/pkg/log"
	"github.com/ledgerlog/ledger/pkg/rpcpool"
)

var gatewayCmd = &cobra.Command{
	Use:   "gateway",
	Short: "Run the public HTTP gateway",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		cache := kv.New(cfg.Redis)
		defer cache.Close()
		if err := cache.Ping(cmd.Context()); err != nil {
			return fmt.Errorf("redis unreachable: %w", err)
		}

		pools, err := rpcpool.NewManager(cfg)
		if err != nil {
			return fmt.Errorf("failed to dial downstream services: %w", err)
		}
		defer pools.Close()

		gw := gateway.New(cfg, pools, cache)
		errCh := make(chan error, 1)
		go func() {
			errCh <- gw.Start()
		}()

		select {
		case sig := <-signalCh():
			logger := log.WithComponent("gateway")
			logger.Info().
				Str("signal", sig.String()).
				Msg("received signal, shutting down")
		case err := <-errCh:
			if err != nil {
				return err
			}
		}

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return gw.Stop(ctx)
	},
}
