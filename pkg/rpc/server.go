package rpc

import (
	"fmt"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"

	"github.com/ledgerlog/ledger/pkg/config"
	"github.com/ledgerlog/ledger/pkg/log"
)

// Server wraps a grpc.Server with its listener lifecycle
type Server struct {
	name       string
	grpcServer *grpc.Server
}

// NewServer creates a gRPC server configured with ledger defaults:
// keepalive enforcement, generous message sizes and the logging
// interceptor. Register service descs on GRPC() before Start.
func NewServer(name string, cfg config.GRPC) *Server {
	srv := grpc.NewServer(
		grpc.MaxRecvMsgSize(cfg.MaxMessageBytes),
		grpc.MaxSendMsgSize(cfg.MaxMessageBytes),
		grpc.KeepaliveParams(keepalive.ServerParameters{
			Time:    time.Duration(cfg.KeepaliveTimeMs) * time.Millisecond,
			Timeout: time.Duration(cfg.KeepaliveTimeout) * time.Millisecond,
		}),
		grpc.KeepaliveEnforcementPolicy(keepalive.EnforcementPolicy{
			MinTime:             5 * time.Second,
			PermitWithoutStream: true,
		}),
		grpc.UnaryInterceptor(LoggingInterceptor(name)),
	)
	return &Server{name: name, grpcServer: srv}
}

// GRPC exposes the underlying server for service registration
func (s *Server) GRPC() *grpc.Server {
	return s.grpcServer
}

// Start begins serving on the given address. Blocks until Stop.
func (s *Server) Start(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	logger := log.WithService(s.name)
	logger.Info().Str("addr", addr).Msg("rpc server listening")
	if err := s.grpcServer.Serve(listener); err != nil {
		return fmt.Errorf("rpc server error: %w", err)
	}
	return nil
}

// Stop gracefully stops the server, draining in-flight calls
func (s *Server) Stop() {
	s.grpcServer.GracefulStop()
	logger := log.WithService(s.name)
	logger.Info().Msg("rpc server stopped")
}

// Dial opens a client connection with keepalive pings and the msgpack
// codec as the default content subtype.
func Dial(addr string, cfg config.GRPC) (*grpc.ClientConn, error) {
	conn, err := grpc.NewClient(addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                time.Duration(cfg.KeepaliveTimeMs) * time.Millisecond,
			Timeout:             time.Duration(cfg.KeepaliveTimeout) * time.Millisecond,
			PermitWithoutStream: true,
		}),
		grpc.WithDefaultCallOptions(
			grpc.MaxCallRecvMsgSize(cfg.MaxMessageBytes),
			grpc.MaxCallSendMsgSize(cfg.MaxMessageBytes),
			grpc.CallContentSubtype(CodecName),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", addr, err)
	}
	return conn, nil
}
