package breaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerlog/ledger/pkg/config"
)

var errBoom = errors.New("boom")

func testConfig() config.Breaker {
	return config.Breaker{
		FailureThreshold: 3,
		RecoveryTimeoutS: 1,
		HalfOpenMaxCalls: 2,
	}
}

func failN(t *testing.T, b *Breaker, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		err := b.Execute(context.Background(), func(ctx context.Context) error { return errBoom })
		require.ErrorIs(t, err, errBoom)
	}
}

func TestBreakerStaysClosedUnderThreshold(t *testing.T) {
	b := newBreaker("test", testConfig())

	failN(t, b, 2)
	assert.Equal(t, "closed", b.State())

	err := b.Execute(context.Background(), func(ctx context.Context) error { return nil })
	require.NoError(t, err)
	// success resets the consecutive failure count
	failN(t, b, 2)
	assert.Equal(t, "closed", b.State())
}

func TestBreakerOpensAtThreshold(t *testing.T) {
	b := newBreaker("test", testConfig())

	failN(t, b, 3)
	assert.Equal(t, "open", b.State())

	err := b.Execute(context.Background(), func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrOpen)
}

func TestBreakerOpenRejectsWithoutCalling(t *testing.T) {
	b := newBreaker("test", testConfig())
	failN(t, b, 3)

	called := false
	err := b.Execute(context.Background(), func(ctx context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrOpen)
	assert.False(t, called)

	stats := b.Stats()
	assert.Equal(t, int64(1), stats.RejectedCalls)
	assert.Equal(t, int64(3), stats.FailedCalls)
}

func TestBreakerHalfOpenSuccessCloses(t *testing.T) {
	b := newBreaker("test", testConfig())
	failN(t, b, 3)

	time.Sleep(1100 * time.Millisecond)

	err := b.Execute(context.Background(), func(ctx context.Context) error { return nil })
	require.NoError(t, err)
	// one more success finishes the half-open probe window
	err = b.Execute(context.Background(), func(ctx context.Context) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, "closed", b.State())
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	b := newBreaker("test", testConfig())
	failN(t, b, 3)

	time.Sleep(1100 * time.Millisecond)

	err := b.Execute(context.Background(), func(ctx context.Context) error { return errBoom })
	require.ErrorIs(t, err, errBoom)
	assert.Equal(t, "open", b.State())

	err = b.Execute(context.Background(), func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrOpen)
}

func TestRegistryReusesBreakers(t *testing.T) {
	r := NewRegistry(testConfig())

	a := r.Get("account")
	b := r.Get("account")
	assert.Same(t, a, b)

	other := r.Get("ingest")
	assert.NotSame(t, a, other)

	stats := r.Stats()
	assert.Len(t, stats, 2)
	assert.Contains(t, stats, "account")
	assert.Contains(t, stats, "ingest")
}
