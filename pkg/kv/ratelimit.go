package kv

import (
	"context"
	"fmt"
	"time"
)

// Rate-limit windows are fixed: one minute and one hour.
const (
	minuteWindow = 60
	hourWindow   = 3600
)

// Decision is the outcome of a rate-limit check
type Decision struct {
	Allowed     bool
	MinuteCount int64
	HourCount   int64
	// RetryAfterSeconds and Window are set only when rejected
	RetryAfterSeconds int
	Window            string
}

// CheckRateLimit runs one dual fixed-window round for the project:
// INCR+EXPIRE on the minute bucket and the hour bucket in a single
// pipelined round-trip. The request is allowed iff both counters are
// within their limits.
//
// On KV failure the limiter fails open: the error is returned for
// logging but Allowed is true. Rejecting traffic because the limiter
// store is down would turn a cache outage into a full outage.
func (c *Client) CheckRateLimit(ctx context.Context, projectID int64, perMinute, perHour int) (Decision, error) {
	now := time.Now().Unix()
	minKey := fmt.Sprintf("%s%d:min:%d", keyPrefixRateLimit, projectID, now/minuteWindow)
	hourKey := fmt.Sprintf("%s%d:hour:%d", keyPrefixRateLimit, projectID, now/hourWindow)

	pipe := c.rdb.Pipeline()
	minCmd := pipe.Incr(ctx, minKey)
	pipe.Expire(ctx, minKey, minuteWindow*time.Second)
	hourCmd := pipe.Incr(ctx, hourKey)
	pipe.Expire(ctx, hourKey, hourWindow*time.Second)

	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{Allowed: true}, fmt.Errorf("rate limit check failed: %w", err)
	}

	d := Decision{
		Allowed:     true,
		MinuteCount: minCmd.Val(),
		HourCount:   hourCmd.Val(),
	}

	if d.HourCount > int64(perHour) {
		d.Allowed = false
		d.RetryAfterSeconds = hourWindow
		d.Window = "hour"
	} else if d.MinuteCount > int64(perMinute) {
		d.Allowed = false
		d.RetryAfterSeconds = minuteWindow
		d.Window = "minute"
	}
	return d, nil
}
