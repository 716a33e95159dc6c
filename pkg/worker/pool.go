package worker

import (
	"context"
	"sync"
	"time"

	"github.com/ledgerlog/ledger/pkg/config"
	"github.com/ledgerlog/ledger/pkg/log"
	"github.com/ledgerlog/ledger/pkg/metrics"
	"github.com/ledgerlog/ledger/pkg/partition"
	"github.com/ledgerlog/ledger/pkg/queue"
	"github.com/ledgerlog/ledger/pkg/storage"
	"github.com/ledgerlog/ledger/pkg/types"
)

// maxCommitAttempts bounds retries of one batch before it is returned
// to the queue for a later cycle.
const maxCommitAttempts = 3

// Pool runs the storage workers that drain project queues into the
// partitioned logs table.
type Pool struct {
	db         *storage.DB
	queue      *queue.Queue
	partitions *partition.Manager
	cfg        config.Queue

	wg     sync.WaitGroup
	stopCh chan struct{}
}

// NewPool creates a storage worker pool
func NewPool(db *storage.DB, q *queue.Queue, partitions *partition.Manager, cfg config.Queue) *Pool {
	return &Pool{
		db:         db,
		queue:      q,
		partitions: partitions,
		cfg:        cfg,
		stopCh:     make(chan struct{}),
	}
}

// Start launches the configured number of workers
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.cfg.WorkerCount; i++ {
		p.wg.Add(1)
		go p.run(ctx, i)
	}
	logger := log.WithComponent("worker")
	logger.Info().
		Int("workers", p.cfg.WorkerCount).
		Int("batch_size", p.cfg.BatchSize).
		Msg("storage workers started")
}

// Stop signals the workers to finish their in-flight batches and
// waits for them to exit.
func (p *Pool) Stop() {
	close(p.stopCh)
	p.wg.Wait()
	logger := log.WithComponent("worker")
	logger.Info().Msg("storage workers stopped")
}

func (p *Pool) run(ctx context.Context, id int) {
	defer p.wg.Done()
	logger := log.WithWorkerID(id)

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		default:
		}

		worked, err := p.cycle(ctx, id)
		if err != nil {
			logger.Error().Err(err).Msg("worker cycle failed")
		}
		if !worked {
			// back off to avoid busy-looping on empty queues
			select {
			case <-time.After(time.Duration(p.cfg.IdleSleepMs) * time.Millisecond):
			case <-p.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}
}

// cycle discovers active queues and drains one batch from each.
// Returns whether any batch was processed.
func (p *Pool) cycle(ctx context.Context, id int) (bool, error) {
	projects, err := p.queue.DiscoverProjects(ctx)
	if err != nil {
		return false, err
	}

	worked := false
	for _, projectID := range projects {
		select {
		case <-p.stopCh:
			return worked, nil
		case <-ctx.Done():
			return worked, nil
		default:
		}

		batch, err := p.queue.PopBatch(ctx, projectID, p.cfg.BatchSize)
		if err != nil {
			logger := log.WithWorkerID(id)
			logger.Error().
				Int64("project_id", projectID).
				Err(err).
				Msg("failed to pop batch")
			continue
		}
		if len(batch) == 0 {
			continue
		}
		worked = true
		p.storeWithRetry(ctx, id, projectID, batch)
	}
	return worked, nil
}

// storeWithRetry commits a batch, retrying transient failures. After
// maxCommitAttempts the batch goes back on the queue rather than
// being dropped.
func (p *Pool) storeWithRetry(ctx context.Context, id int, projectID int64, batch []*types.LogEvent) {
	logger := log.WithWorkerID(id)

	for attempt := 1; attempt <= maxCommitAttempts; attempt++ {
		timer := metrics.NewTimer()
		err := p.storeBatch(ctx, projectID, batch)
		if err == nil {
			timer.ObserveDuration(metrics.BatchStoreDuration)
			metrics.BatchesStored.Inc()
			metrics.LogsStored.Add(float64(len(batch)))
			logger.Debug().
				Int64("project_id", projectID).
				Int("count", len(batch)).
				Msg("batch committed")
			return
		}

		metrics.BatchRetries.Inc()
		logger.Warn().
			Int64("project_id", projectID).
			Int("attempt", attempt).
			Err(err).
			Msg("batch commit failed")

		select {
		case <-time.After(time.Duration(p.cfg.RetryDelayMs) * time.Millisecond):
		case <-p.stopCh:
			attempt = maxCommitAttempts // requeue and bail below
		case <-ctx.Done():
			attempt = maxCommitAttempts
		}
	}

	// ctx may already be cancelled during shutdown; the requeue gets
	// its own deadline so the batch is not lost.
	requeueCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.queue.Requeue(requeueCtx, projectID, batch); err != nil {
		logger.Error().
			Int64("project_id", projectID).
			Int("count", len(batch)).
			Err(err).
			Msg("failed to requeue batch; records lost")
	}
}
