package queue

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerlog/ledger/pkg/kv"
	"github.com/ledgerlog/ledger/pkg/types"
)

func testQueue(t *testing.T, maxDepth int) (*Queue, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := kv.NewWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { client.Close() })
	return New(client, maxDepth), mr
}

func event(msg string) *types.LogEvent {
	return &types.LogEvent{
		ProjectID:      42,
		EventTimestamp: time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC),
		Level:          types.LevelInfo,
		LogType:        types.TypeLogger,
		Message:        msg,
	}
}

func TestEnqueuePopFIFO(t *testing.T) {
	q, _ := testQueue(t, 100)
	ctx := context.Background()

	require.NoError(t, q.EnqueueBatch(ctx, 42, []*types.LogEvent{
		event("first"), event("second"), event("third"),
	}))

	got, err := q.PopBatch(ctx, 42, 10)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "first", got[0].Message)
	assert.Equal(t, "second", got[1].Message)
	assert.Equal(t, "third", got[2].Message)
}

func TestEnqueueAcrossBatchesStaysOrdered(t *testing.T) {
	q, _ := testQueue(t, 100)
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, 42, event("a")))
	require.NoError(t, q.EnqueueBatch(ctx, 42, []*types.LogEvent{event("b"), event("c")}))

	got, err := q.PopBatch(ctx, 42, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Message)
	assert.Equal(t, "b", got[1].Message)

	rest, err := q.PopBatch(ctx, 42, 2)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, "c", rest[0].Message)
}

func TestEnqueueDepthGuard(t *testing.T) {
	q, _ := testQueue(t, 2)
	ctx := context.Background()

	require.NoError(t, q.EnqueueBatch(ctx, 42, []*types.LogEvent{event("a"), event("b")}))

	err := q.Enqueue(ctx, 42, event("c"))
	assert.ErrorIs(t, err, types.ErrQueueFull)

	depth, err := q.Depth(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(2), depth)
}

func TestRequeueDrainsBeforeNewWork(t *testing.T) {
	q, _ := testQueue(t, 100)
	ctx := context.Background()

	require.NoError(t, q.EnqueueBatch(ctx, 42, []*types.LogEvent{event("a"), event("b")}))

	popped, err := q.PopBatch(ctx, 42, 2)
	require.NoError(t, err)
	require.Len(t, popped, 2)

	require.NoError(t, q.Enqueue(ctx, 42, event("c")))
	require.NoError(t, q.Requeue(ctx, 42, popped))

	got, err := q.PopBatch(ctx, 42, 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "a", got[0].Message)
	assert.Equal(t, "b", got[1].Message)
	assert.Equal(t, "c", got[2].Message)
}

func TestRequeueBypassesDepthGuard(t *testing.T) {
	q, _ := testQueue(t, 1)
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, 42, event("a")))
	popped, err := q.PopBatch(ctx, 42, 1)
	require.NoError(t, err)

	require.NoError(t, q.Enqueue(ctx, 42, event("b")))
	// queue is at max depth, but popped data must never be dropped
	require.NoError(t, q.Requeue(ctx, 42, popped))

	depth, err := q.Depth(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(2), depth)
}

func TestPopBatchEmptyQueue(t *testing.T) {
	q, _ := testQueue(t, 100)

	got, err := q.PopBatch(context.Background(), 42, 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestPopBatchDropsPoisonRecords(t *testing.T) {
	q, mr := testQueue(t, 100)
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, 42, event("good")))
	mr.Lpush(Key(42), "not msgpack")

	got, err := q.PopBatch(ctx, 42, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "good", got[0].Message)
}

func TestDiscoverProjects(t *testing.T) {
	q, _ := testQueue(t, 100)
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, 1, event("a")))
	require.NoError(t, q.Enqueue(ctx, 2, event("b")))

	projects, err := q.DiscoverProjects(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{1, 2}, projects)
}
