package analytics

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSchedulerRunsJobOnInterval(t *testing.T) {
	s := NewScheduler(time.Second)
	var runs atomic.Int64
	s.Add("counter", 20*time.Millisecond, func(ctx context.Context) error {
		runs.Add(1)
		return nil
	})

	s.Start(context.Background())
	time.Sleep(110 * time.Millisecond)
	s.Stop()

	assert.GreaterOrEqual(t, runs.Load(), int64(2))
}

func TestSchedulerRunsJobsIndependently(t *testing.T) {
	s := NewScheduler(time.Second)
	var fast, slow atomic.Int64
	s.Add("fast", 15*time.Millisecond, func(ctx context.Context) error {
		fast.Add(1)
		return nil
	})
	s.Add("slow", 60*time.Millisecond, func(ctx context.Context) error {
		slow.Add(1)
		return nil
	})

	s.Start(context.Background())
	time.Sleep(140 * time.Millisecond)
	s.Stop()

	assert.Greater(t, fast.Load(), slow.Load())
	assert.GreaterOrEqual(t, slow.Load(), int64(1))
}

func TestSchedulerStopWaitsForInFlightRun(t *testing.T) {
	s := NewScheduler(time.Second)
	var finished atomic.Bool
	s.Add("sleepy", 10*time.Millisecond, func(ctx context.Context) error {
		time.Sleep(50 * time.Millisecond)
		finished.Store(true)
		return nil
	})

	s.Start(context.Background())
	time.Sleep(20 * time.Millisecond) // let the first run begin
	s.Stop()

	assert.True(t, finished.Load(), "Stop returned before the running job finished")
}

func TestSchedulerStopWithoutStart(t *testing.T) {
	s := NewScheduler(time.Second)
	s.Add("never", time.Hour, func(ctx context.Context) error { return nil })
	s.Stop()
}

func TestFireSkipsOverlappingRun(t *testing.T) {
	s := NewScheduler(time.Second)
	var runs atomic.Int64
	j := &job{name: "busy", interval: time.Minute, fn: func(ctx context.Context) error {
		runs.Add(1)
		return nil
	}}

	j.inFlight.Store(true)
	s.fire(context.Background(), j)
	assert.Zero(t, runs.Load())

	j.inFlight.Store(false)
	s.fire(context.Background(), j)
	assert.Equal(t, int64(1), runs.Load())
}

func TestFireToleratesJobError(t *testing.T) {
	s := NewScheduler(time.Second)
	j := &job{name: "flaky", interval: time.Minute, fn: func(ctx context.Context) error {
		return errors.New("source table locked")
	}}

	s.fire(context.Background(), j)
	assert.False(t, j.inFlight.Load(), "in-flight flag must clear after a failed run")
}
