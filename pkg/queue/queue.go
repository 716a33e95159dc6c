package queue

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/ledgerlog/ledger/pkg/kv"
	"github.com/ledgerlog/ledger/pkg/log"
	"github.com/ledgerlog/ledger/pkg/types"
)

const queueKeyPrefix = "queue:logs:"

// Queue manages the per-project FIFO log queues in the KV store.
// Records are msgpack-encoded LogEvents; producers LPUSH and storage
// workers RPOP, so records leave in arrival order.
type Queue struct {
	client   *kv.Client
	maxDepth int64
}

// New creates a queue service. maxDepth bounds every project queue;
// enqueues beyond it fail with types.ErrQueueFull.
func New(client *kv.Client, maxDepth int) *Queue {
	return &Queue{client: client, maxDepth: int64(maxDepth)}
}

// Key returns the queue key for a project
func Key(projectID int64) string {
	return fmt.Sprintf("%s%d", queueKeyPrefix, projectID)
}

// Enqueue appends one log event to the project's queue
func (q *Queue) Enqueue(ctx context.Context, projectID int64, ev *types.LogEvent) error {
	return q.EnqueueBatch(ctx, projectID, []*types.LogEvent{ev})
}

// EnqueueBatch appends events in order with a single multi-value push.
// The depth guard runs once for the whole batch: if the queue is
// already at max depth the entire batch is refused.
func (q *Queue) EnqueueBatch(ctx context.Context, projectID int64, evs []*types.LogEvent) error {
	if len(evs) == 0 {
		return nil
	}

	key := Key(projectID)
	depth, err := q.client.Raw().LLen(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("failed to check queue depth: %w", err)
	}
	if depth >= q.maxDepth {
		return types.ErrQueueFull
	}

	values := make([]interface{}, 0, len(evs))
	for _, ev := range evs {
		data, err := msgpack.Marshal(ev)
		if err != nil {
			return fmt.Errorf("failed to encode log record: %w", err)
		}
		values = append(values, data)
	}

	if err := q.client.Raw().LPush(ctx, key, values...).Err(); err != nil {
		return fmt.Errorf("failed to enqueue logs: %w", err)
	}
	return nil
}

// Requeue returns popped events to the tail of the queue so they are
// picked up again next cycle. Used by workers after a failed commit;
// it bypasses the depth guard because dropping popped data is worse
// than briefly exceeding the bound.
func (q *Queue) Requeue(ctx context.Context, projectID int64, evs []*types.LogEvent) error {
	if len(evs) == 0 {
		return nil
	}
	values := make([]interface{}, 0, len(evs))
	// tail order: last event pushed first so the batch drains FIFO again
	for i := len(evs) - 1; i >= 0; i-- {
		data, err := msgpack.Marshal(evs[i])
		if err != nil {
			return fmt.Errorf("failed to encode log record: %w", err)
		}
		values = append(values, data)
	}
	if err := q.client.Raw().RPush(ctx, Key(projectID), values...).Err(); err != nil {
		return fmt.Errorf("failed to requeue logs: %w", err)
	}
	return nil
}

// Depth returns the current queue depth for a project
func (q *Queue) Depth(ctx context.Context, projectID int64) (int64, error) {
	depth, err := q.client.Raw().LLen(ctx, Key(projectID)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read queue depth: %w", err)
	}
	return depth, nil
}

// PopBatch atomically removes up to max records from the project's
// queue, oldest first. Records that fail to decode are dropped with a
// warning; a poison record must not wedge the queue.
func (q *Queue) PopBatch(ctx context.Context, projectID int64, max int) ([]*types.LogEvent, error) {
	raw, err := q.client.Raw().RPopCount(ctx, Key(projectID), max).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to pop log batch: %w", err)
	}

	evs := make([]*types.LogEvent, 0, len(raw))
	for _, item := range raw {
		var ev types.LogEvent
		if err := msgpack.Unmarshal([]byte(item), &ev); err != nil {
			logger := log.WithComponent("queue")
			logger.Warn().
				Int64("project_id", projectID).
				Err(err).
				Msg("dropping undecodable queue record")
			continue
		}
		evs = append(evs, &ev)
	}
	return evs, nil
}

// DiscoverProjects scans for queues that currently exist and returns
// their project IDs. Workers use this to find active queues without a
// central registry.
func (q *Queue) DiscoverProjects(ctx context.Context) ([]int64, error) {
	var (
		cursor   uint64
		projects []int64
	)
	for {
		keys, next, err := q.client.Raw().Scan(ctx, cursor, queueKeyPrefix+"*", 100).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to scan queues: %w", err)
		}
		for _, key := range keys {
			idStr := strings.TrimPrefix(key, queueKeyPrefix)
			id, err := strconv.ParseInt(idStr, 10, 64)
			if err != nil {
				continue
			}
			projects = append(projects, id)
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return projects, nil
}
