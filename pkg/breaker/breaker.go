package breaker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sony/gobreaker"

	"github.com/ledgerlog/ledger/pkg/config"
	"github.com/ledgerlog/ledger/pkg/log"
	"github.com/ledgerlog/ledger/pkg/metrics"
)

// Rejection errors surfaced to callers without invoking the wrapped
// function.
var (
	// ErrOpen is returned while the breaker is open
	ErrOpen = errors.New("circuit breaker open")
	// ErrRecovering is returned when the half-open probe budget is spent
	ErrRecovering = errors.New("circuit breaker recovering")
)

// Breaker guards calls to one downstream service. It wraps gobreaker
// with the counters the stats endpoint exposes.
type Breaker struct {
	name string
	cb   *gobreaker.CircuitBreaker

	totalCalls    atomic.Int64
	failedCalls   atomic.Int64
	rejectedCalls atomic.Int64
	lastFailure   atomic.Int64 // unix nanos, 0 = never
}

// Stats is a point-in-time snapshot of one breaker
type Stats struct {
	Name          string    `json:"name"`
	State         string    `json:"state"`
	TotalCalls    int64     `json:"total_calls"`
	FailedCalls   int64     `json:"failed_calls"`
	RejectedCalls int64     `json:"rejected_calls"`
	LastFailure   time.Time `json:"last_failure,omitempty"`
}

func newBreaker(name string, cfg config.Breaker) *Breaker {
	b := &Breaker{name: name}

	b.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: uint32(cfg.HalfOpenMaxCalls),
		Timeout:     time.Duration(cfg.RecoveryTimeoutS) * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(cfg.FailureThreshold)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger := log.WithComponent("breaker")
			logger.Info().
				Str("service", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state change")
			metrics.BreakerState.WithLabelValues(name).Set(stateGauge(to))
		},
	})
	metrics.BreakerState.WithLabelValues(name).Set(stateGauge(gobreaker.StateClosed))
	return b
}

func stateGauge(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	default:
		return 2
	}
}

// Execute runs fn through the breaker. When the breaker is open the
// call fast-fails with ErrOpen; when the half-open probe budget is
// exhausted it fast-fails with ErrRecovering. Only errors returned by
// fn itself count as failures.
func (b *Breaker) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		b.totalCalls.Add(1)
		if err := fn(ctx); err != nil {
			b.failedCalls.Add(1)
			b.lastFailure.Store(time.Now().UnixNano())
			return nil, err
		}
		return nil, nil
	})

	switch {
	case errors.Is(err, gobreaker.ErrOpenState):
		b.rejectedCalls.Add(1)
		metrics.BreakerRejections.WithLabelValues(b.name).Inc()
		return ErrOpen
	case errors.Is(err, gobreaker.ErrTooManyRequests):
		b.rejectedCalls.Add(1)
		metrics.BreakerRejections.WithLabelValues(b.name).Inc()
		return ErrRecovering
	}
	return err
}

// State returns the current breaker state as a string
func (b *Breaker) State() string {
	return b.cb.State().String()
}

// Stats returns a snapshot of the breaker's counters
func (b *Breaker) Stats() Stats {
	s := Stats{
		Name:          b.name,
		State:         b.cb.State().String(),
		TotalCalls:    b.totalCalls.Load(),
		FailedCalls:   b.failedCalls.Load(),
		RejectedCalls: b.rejectedCalls.Load(),
	}
	if ns := b.lastFailure.Load(); ns != 0 {
		s.LastFailure = time.Unix(0, ns)
	}
	return s
}

// Registry holds one breaker per downstream service
type Registry struct {
	mu       sync.Mutex
	cfg      config.Breaker
	breakers map[string]*Breaker
}

// NewRegistry creates a breaker registry with shared settings
func NewRegistry(cfg config.Breaker) *Registry {
	return &Registry{
		cfg:      cfg,
		breakers: make(map[string]*Breaker),
	}
}

// Get returns the breaker for a service, creating it on first use
func (r *Registry) Get(service string) *Breaker {
	r.mu.Lock()
	defer r.mu.Unlock()

	if b, ok := r.breakers[service]; ok {
		return b
	}
	b := newBreaker(service, r.cfg)
	r.breakers[service] = b
	return b
}

// Stats snapshots every registered breaker
func (r *Registry) Stats() map[string]Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]Stats, len(r.breakers))
	for name, b := range r.breakers {
		out[name] = b.Stats()
	}
	return out
}
