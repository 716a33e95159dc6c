package rpcpool

import (
	"fmt"
	"sync/atomic"

	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"

	"github.com/ledgerlog/ledger/pkg/config"
	"github.com/ledgerlog/ledger/pkg/rpc"
)

// Pool holds a fixed set of client connections to one downstream
// service. Calls rotate through the connections round-robin; gRPC
// multiplexes streams per connection, so the pool exists to spread
// load across TCP connections, not to serialize access.
type Pool struct {
	name  string
	addr  string
	conns []*grpc.ClientConn
	next  atomic.Uint64
	calls atomic.Int64
}

// Stats is a point-in-time snapshot of one pool
type Stats struct {
	Name        string `json:"name"`
	Target      string `json:"target"`
	Size        int    `json:"size"`
	Calls       int64  `json:"calls"`
	ReadyConns  int    `json:"ready_conns"`
}

// New dials size connections to addr
func New(name, addr string, size int, cfg config.GRPC) (*Pool, error) {
	if size < 1 {
		size = 1
	}
	p := &Pool{name: name, addr: addr, conns: make([]*grpc.ClientConn, 0, size)}
	for i := 0; i < size; i++ {
		conn, err := rpc.Dial(addr, cfg)
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("failed to build %s pool: %w", name, err)
		}
		p.conns = append(p.conns, conn)
	}
	return p, nil
}

// Conn returns the next connection in round-robin order
func (p *Pool) Conn() *grpc.ClientConn {
	p.calls.Add(1)
	idx := p.next.Add(1) % uint64(len(p.conns))
	return p.conns[idx]
}

// Stats snapshots the pool counters
func (p *Pool) Stats() Stats {
	ready := 0
	for _, conn := range p.conns {
		if conn.GetState() == connectivity.Ready {
			ready++
		}
	}
	return Stats{
		Name:       p.name,
		Target:     p.addr,
		Size:       len(p.conns),
		Calls:      p.calls.Load(),
		ReadyConns: ready,
	}
}

// Close tears down every connection in the pool
func (p *Pool) Close() {
	for _, conn := range p.conns {
		_ = conn.Close()
	}
}
