package analytics

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ledgerlog/ledger/pkg/log"
	"github.com/ledgerlog/ledger/pkg/metrics"
)

// JobFunc is one scheduled unit of work
type JobFunc func(ctx context.Context) error

type job struct {
	name     string
	interval time.Duration
	fn       JobFunc
	inFlight atomic.Bool
}

// Scheduler runs each registered job on its own interval. A tick that
// arrives while the previous run is still in flight is skipped, and a
// tick delayed past the misfire grace is dropped rather than fired
// late, so a stalled job never causes a burst of catch-up runs.
type Scheduler struct {
	jobs    []*job
	misfire time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler creates a scheduler with the given misfire grace
func NewScheduler(misfireGrace time.Duration) *Scheduler {
	return &Scheduler{misfire: misfireGrace}
}

// Add registers a job to run every interval
func (s *Scheduler) Add(name string, interval time.Duration, fn JobFunc) {
	s.jobs = append(s.jobs, &job{name: name, interval: interval, fn: fn})
}

// Start launches one goroutine per job
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	for _, j := range s.jobs {
		s.wg.Add(1)
		go s.run(ctx, j)
	}
	logger := log.WithComponent("analytics")
	logger.Info().
		Int("jobs", len(s.jobs)).
		Msg("aggregation scheduler started")
}

// Stop cancels all jobs and waits for in-flight runs to finish
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	logger := log.WithComponent("analytics")
	logger.Info().Msg("aggregation scheduler stopped")
}

func (s *Scheduler) run(ctx context.Context, j *job) {
	defer s.wg.Done()

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	next := time.Now().Add(j.interval)
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			late := now.Sub(next)
			next = now.Add(j.interval)
			if late > s.misfire {
				logger := log.WithComponent("analytics")
				logger.Warn().
					Str("job", j.name).
					Dur("late", late).
					Msg("skipping misfired run")
				metrics.AggregationRuns.WithLabelValues(j.name, "misfired").Inc()
				continue
			}
			s.fire(ctx, j)
		}
	}
}

func (s *Scheduler) fire(ctx context.Context, j *job) {
	if !j.inFlight.CompareAndSwap(false, true) {
		logger := log.WithComponent("analytics")
		logger.Warn().
			Str("job", j.name).
			Msg("previous run still in flight, skipping")
		metrics.AggregationRuns.WithLabelValues(j.name, "overlapped").Inc()
		return
	}
	defer j.inFlight.Store(false)

	start := time.Now()
	err := j.fn(ctx)
	metrics.AggregationDuration.WithLabelValues(j.name).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.AggregationRuns.WithLabelValues(j.name, "error").Inc()
		logger := log.WithComponent("analytics")
		logger.Error().
			Str("job", j.name).
			Err(err).
			Msg("aggregation job failed")
		return
	}
	metrics.AggregationRuns.WithLabelValues(j.name, "ok").Inc()
	logger := log.WithComponent("analytics")
	logger.Debug().
		Str("job", j.name).
		Dur("took", time.Since(start)).
		Msg("aggregation job completed")
}
