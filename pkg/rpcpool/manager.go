package rpcpool

import (
	"fmt"

	"github.com/ledgerlog/ledger/pkg/config"
	"github.com/ledgerlog/ledger/pkg/rpc"
)

// Downstream service names, also used as circuit breaker keys
const (
	ServiceAccount = "account"
	ServiceIngest  = "ingest"
	ServiceQuery   = "query"
)

// Manager owns one pool per downstream service the gateway talks to
type Manager struct {
	account *Pool
	ingest  *Pool
	query   *Pool
}

// NewManager dials all downstream pools
func NewManager(cfg *config.Config) (*Manager, error) {
	account, err := New(ServiceAccount, cfg.Gateway.AccountAddr, cfg.GRPC.PoolSize, cfg.GRPC)
	if err != nil {
		return nil, err
	}
	ingest, err := New(ServiceIngest, cfg.Gateway.IngestAddr, cfg.GRPC.PoolSize, cfg.GRPC)
	if err != nil {
		account.Close()
		return nil, err
	}
	query, err := New(ServiceQuery, cfg.Gateway.QueryAddr, cfg.GRPC.PoolSize, cfg.GRPC)
	if err != nil {
		account.Close()
		ingest.Close()
		return nil, err
	}
	return &Manager{account: account, ingest: ingest, query: query}, nil
}

// Account returns a typed client on the next account connection
func (m *Manager) Account() *rpc.AccountClient {
	return rpc.NewAccountClient(m.account.Conn())
}

// Ingest returns a typed client on the next ingestion connection
func (m *Manager) Ingest() *rpc.IngestClient {
	return rpc.NewIngestClient(m.ingest.Conn())
}

// Query returns a typed client on the next query connection
func (m *Manager) Query() *rpc.QueryClient {
	return rpc.NewQueryClient(m.query.Conn())
}

// Stats snapshots all pools keyed by service name
func (m *Manager) Stats() map[string]Stats {
	return map[string]Stats{
		ServiceAccount: m.account.Stats(),
		ServiceIngest:  m.ingest.Stats(),
		ServiceQuery:   m.query.Stats(),
	}
}

// Close tears down all pools
func (m *Manager) Close() {
	m.account.Close()
	m.ingest.Close()
	m.query.Close()
}

// String implements fmt.Stringer for startup logging
func (m *Manager) String() string {
	return fmt.Sprintf("rpc pools: account=%d ingest=%d query=%d",
		m.account.Stats().Size, m.ingest.Stats().Size, m.query.Stats().Size)
}
