package partition

import (
	"context"
	"time"

	"github.com/ledgerlog/ledger/pkg/log"
)

// Scheduler keeps partitions created ahead of arrivals. It runs once
// at start and then daily.
type Scheduler struct {
	manager     *Manager
	monthsAhead int
	stopCh      chan struct{}
	doneCh      chan struct{}
}

// NewScheduler creates a partition scheduler
func NewScheduler(manager *Manager, monthsAhead int) *Scheduler {
	return &Scheduler{
		manager:     manager,
		monthsAhead: monthsAhead,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}
}

// Start begins the daily run loop
func (s *Scheduler) Start(ctx context.Context) {
	go func() {
		defer close(s.doneCh)

		s.run(ctx)

		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.run(ctx)
			case <-s.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop halts the scheduler and waits for the loop to exit
func (s *Scheduler) Stop() {
	close(s.stopCh)
	<-s.doneCh
}

func (s *Scheduler) run(ctx context.Context) {
	logger := log.WithComponent("partition-scheduler")
	if err := s.manager.EnsureAhead(ctx, s.monthsAhead); err != nil {
		logger.Error().Err(err).Msg("partition pre-creation failed")
		return
	}
	logger.Debug().Int("months_ahead", s.monthsAhead).Msg("partitions ensured")
}
