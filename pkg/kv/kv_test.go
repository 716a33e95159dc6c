package kv

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerlog/ledger/pkg/types"
)

func testClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := NewWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { client.Close() })
	return client, mr
}

func TestKeyValidationRoundTrip(t *testing.T) {
	client, _ := testClient(t)
	ctx := context.Background()

	rec := &types.KeyValidation{
		Valid:              true,
		KeyID:              7,
		ProjectID:          42,
		AccountID:          3,
		RateLimitPerMinute: 100,
		RateLimitPerHour:   5000,
		DailyQuota:         100000,
	}
	hash := HashKey("ledger_abc123")

	require.NoError(t, client.SetKeyValidation(ctx, hash, rec, 5*time.Minute, 15*time.Minute))

	got, _, err := client.GetKeyValidation(ctx, hash)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(42), got.ProjectID)
	assert.Equal(t, 100, got.RateLimitPerMinute)
	assert.True(t, got.Valid)
}

func TestKeyValidationMiss(t *testing.T) {
	client, _ := testClient(t)

	got, refresh, err := client.GetKeyValidation(context.Background(), HashKey("unknown"))
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.False(t, refresh)
}

func TestStaleKeyValidationSurvivesFreshExpiry(t *testing.T) {
	client, mr := testClient(t)
	ctx := context.Background()

	rec := &types.KeyValidation{Valid: true, ProjectID: 42}
	hash := HashKey("ledger_abc123")
	require.NoError(t, client.SetKeyValidation(ctx, hash, rec, 5*time.Minute, 15*time.Minute))

	// fresh entry expires, stale copy remains
	mr.FastForward(6 * time.Minute)

	fresh, _, err := client.GetKeyValidation(ctx, hash)
	require.NoError(t, err)
	assert.Nil(t, fresh)

	stale, err := client.GetStaleKeyValidation(ctx, hash)
	require.NoError(t, err)
	require.NotNil(t, stale)
	assert.Equal(t, int64(42), stale.ProjectID)
}

func TestDeleteKeyValidationRemovesBothCopies(t *testing.T) {
	client, _ := testClient(t)
	ctx := context.Background()

	hash := HashKey("ledger_abc123")
	require.NoError(t, client.SetKeyValidation(ctx, hash, &types.KeyValidation{Valid: true}, time.Minute, 10*time.Minute))
	require.NoError(t, client.DeleteKeyValidation(ctx, hash))

	fresh, _, err := client.GetKeyValidation(ctx, hash)
	require.NoError(t, err)
	assert.Nil(t, fresh)

	stale, err := client.GetStaleKeyValidation(ctx, hash)
	require.NoError(t, err)
	assert.Nil(t, stale)
}

func TestDailyUsageCounter(t *testing.T) {
	client, _ := testClient(t)
	ctx := context.Background()
	day := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)

	total, err := client.IncrementDailyUsage(ctx, 42, day, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(10), total)

	total, err = client.IncrementDailyUsage(ctx, 42, day, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(15), total)

	got, err := client.GetDailyUsage(ctx, 42, day)
	require.NoError(t, err)
	assert.Equal(t, int64(15), got)

	// other projects and other days are independent
	other, err := client.GetDailyUsage(ctx, 43, day)
	require.NoError(t, err)
	assert.Zero(t, other)
}

func TestCheckRateLimitWithinLimits(t *testing.T) {
	client, _ := testClient(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		d, err := client.CheckRateLimit(ctx, 42, 3, 100)
		require.NoError(t, err)
		assert.True(t, d.Allowed, "request %d should be allowed", i+1)
	}
}

func TestCheckRateLimitMinuteWindowRejects(t *testing.T) {
	client, _ := testClient(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := client.CheckRateLimit(ctx, 42, 3, 100)
		require.NoError(t, err)
	}

	d, err := client.CheckRateLimit(ctx, 42, 3, 100)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, "minute", d.Window)
	assert.Equal(t, 60, d.RetryAfterSeconds)
}

func TestCheckRateLimitHourWindowTakesPrecedence(t *testing.T) {
	client, _ := testClient(t)
	ctx := context.Background()

	// exhaust an hour limit smaller than the minute limit
	for i := 0; i < 5; i++ {
		_, err := client.CheckRateLimit(ctx, 42, 100, 5)
		require.NoError(t, err)
	}

	d, err := client.CheckRateLimit(ctx, 42, 100, 5)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, "hour", d.Window)
	assert.Equal(t, 3600, d.RetryAfterSeconds)
}

func TestCheckRateLimitFailsOpen(t *testing.T) {
	client, mr := testClient(t)
	mr.Close()

	d, err := client.CheckRateLimit(context.Background(), 42, 3, 100)
	assert.Error(t, err)
	assert.True(t, d.Allowed, "limiter must fail open when the store is down")
}

func TestPublishSubscribe(t *testing.T) {
	client, _ := testClient(t)
	ctx := context.Background()

	sub := client.Subscribe(ctx, ErrorTopic(42))
	defer sub.Close()
	_, err := sub.Receive(ctx) // subscription confirmation
	require.NoError(t, err)

	require.NoError(t, client.Publish(ctx, ErrorTopic(42), []byte(`{"level":"error"}`)))

	select {
	case msg := <-sub.Channel():
		assert.Equal(t, `{"level":"error"}`, msg.Payload)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for notification")
	}
}
