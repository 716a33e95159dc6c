package rpc

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"github.com/ledgerlog/ledger/pkg/log"
)

// LoggingInterceptor creates a gRPC unary interceptor that logs each
// call with its duration and status code.
func LoggingInterceptor(service string) grpc.UnaryServerInterceptor {
	logger := log.WithService(service)
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		evt := logger.Debug()
		if err != nil {
			evt = logger.Warn().Str("code", status.Code(err).String()).Err(err)
		}
		evt.Str("method", info.FullMethod).
			Dur("duration", time.Since(start)).
			Msg("rpc call")

		return resp, err
	}
}
