package ingest

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerlog/ledger/pkg/config"
	"github.com/ledgerlog/ledger/pkg/types"
)

func testValidation() config.Validation {
	return config.Validation{
		MaxMessageLength:      100,
		MaxErrorMessageLength: 80,
		MaxStackTraceLength:   500,
		MaxAttributesBytes:    200,
		MaxErrorTypeLength:    40,
		MaxBatchSize:          10,
		FutureToleranceMin:    5,
	}
}

func validEvent(now time.Time) *types.LogEvent {
	return &types.LogEvent{
		ProjectID:      1,
		EventTimestamp: now.Add(-time.Minute),
		Level:          types.LevelInfo,
		LogType:        types.TypeLogger,
		Message:        "request handled",
	}
}

func TestEnrichStampsIngestionTimestamp(t *testing.T) {
	e := NewEnricher(testValidation())
	now := time.Now()
	ev := validEvent(now)

	require.NoError(t, e.Enrich(ev, now))
	assert.Equal(t, now.UTC(), ev.IngestionTimestamp)
	assert.Empty(t, ev.ErrorFingerprint)
}

func TestEnrichAppliesDefaults(t *testing.T) {
	e := NewEnricher(testValidation())
	now := time.Now()
	ev := &types.LogEvent{ProjectID: 1, EventTimestamp: now}

	require.NoError(t, e.Enrich(ev, now))
	assert.Equal(t, types.LevelInfo, ev.Level)
	assert.Equal(t, types.TypeLogger, ev.LogType)
	assert.Equal(t, types.ImportanceStandard, ev.Importance)
}

func TestEnrichRequiresTimestamp(t *testing.T) {
	e := NewEnricher(testValidation())
	ev := validEvent(time.Now())
	ev.EventTimestamp = time.Time{}

	err := e.Enrich(ev, time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timestamp")
}

func TestEnrichFutureTolerance(t *testing.T) {
	e := NewEnricher(testValidation())
	now := time.Now()

	ev := validEvent(now)
	ev.EventTimestamp = now.Add(4 * time.Minute)
	assert.NoError(t, e.Enrich(ev, now), "within tolerance")

	ev = validEvent(now)
	ev.EventTimestamp = now.Add(6 * time.Minute)
	err := e.Enrich(ev, now)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "future")
}

func TestEnrichRejectsUnknownLevel(t *testing.T) {
	e := NewEnricher(testValidation())
	now := time.Now()
	ev := validEvent(now)
	ev.Level = "verbose"

	err := e.Enrich(ev, now)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "level")
}

func TestEnrichRejectsUnknownLogType(t *testing.T) {
	e := NewEnricher(testValidation())
	now := time.Now()
	ev := validEvent(now)
	ev.LogType = "telemetry"

	err := e.Enrich(ev, now)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log type")
}

func TestEnrichFieldCaps(t *testing.T) {
	cfg := testValidation()
	e := NewEnricher(cfg)
	now := time.Now()

	cases := []struct {
		name   string
		mutate func(*types.LogEvent)
		field  string
	}{
		{"message", func(ev *types.LogEvent) {
			ev.Message = strings.Repeat("m", cfg.MaxMessageLength+1)
		}, "message"},
		{"error_message", func(ev *types.LogEvent) {
			ev.ErrorMessage = strings.Repeat("e", cfg.MaxErrorMessageLength+1)
		}, "error_message"},
		{"stack_trace", func(ev *types.LogEvent) {
			ev.StackTrace = strings.Repeat("s", cfg.MaxStackTraceLength+1)
		}, "stack_trace"},
		{"error_type", func(ev *types.LogEvent) {
			ev.ErrorType = strings.Repeat("t", cfg.MaxErrorTypeLength+1)
		}, "error_type"},
		{"attributes", func(ev *types.LogEvent) {
			ev.Attributes = map[string]interface{}{
				"blob": strings.Repeat("a", cfg.MaxAttributesBytes),
			}
		}, "attributes"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ev := validEvent(now)
			tc.mutate(ev)
			err := e.Enrich(ev, now)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.field)
		})
	}
}

func TestEnrichExceptionRequiresErrorFields(t *testing.T) {
	e := NewEnricher(testValidation())
	now := time.Now()

	ev := validEvent(now)
	ev.LogType = types.TypeException
	ev.ErrorType = "ValueError"
	err := e.Enrich(ev, now)
	require.Error(t, err, "missing error_message")

	ev = validEvent(now)
	ev.LogType = types.TypeException
	ev.ErrorType = "ValueError"
	ev.ErrorMessage = "bad input"
	require.NoError(t, e.Enrich(ev, now))
	assert.Len(t, ev.ErrorFingerprint, 64)
}

func TestEnrichEndpointRequiresAttributes(t *testing.T) {
	e := NewEnricher(testValidation())
	now := time.Now()

	ev := validEvent(now)
	ev.LogType = types.TypeEndpoint
	ev.Attributes = map[string]interface{}{
		"method": "GET", "path": "/v1/items", "status_code": 200,
	}
	err := e.Enrich(ev, now)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duration_ms")

	ev.Attributes["duration_ms"] = 12.5
	assert.NoError(t, e.Enrich(ev, now))
}

// Endpoint attributes feed numeric casts in the hourly rollups, so a
// wrong-typed value has to be rejected at the door rather than poison
// the aggregation later.
func TestEnrichEndpointAttributeTypes(t *testing.T) {
	e := NewEnricher(testValidation())
	now := time.Now()

	endpointEvent := func(attrs map[string]interface{}) *types.LogEvent {
		ev := validEvent(now)
		ev.LogType = types.TypeEndpoint
		ev.Attributes = map[string]interface{}{
			"method": "GET", "path": "/v1/items", "status_code": 200, "duration_ms": 12.5,
		}
		for k, v := range attrs {
			ev.Attributes[k] = v
		}
		return ev
	}

	cases := []struct {
		name    string
		attrs   map[string]interface{}
		wantErr string
	}{
		{"status_code as string", map[string]interface{}{"status_code": "abc"}, "status_code"},
		{"status_code fractional", map[string]interface{}{"status_code": 200.5}, "status_code"},
		{"duration_ms as string", map[string]interface{}{"duration_ms": "12.5"}, "duration_ms"},
		{"method as number", map[string]interface{}{"method": 1}, "method"},
		{"path empty", map[string]interface{}{"path": ""}, "path"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := e.Enrich(endpointEvent(tc.attrs), now)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}

	// JSON decodes every number as float64; integral floats are fine.
	ok := []map[string]interface{}{
		{"status_code": float64(404)},
		{"status_code": int64(500)},
		{"duration_ms": 12},
		{"duration_ms": int64(0)},
	}
	for _, attrs := range ok {
		assert.NoError(t, e.Enrich(endpointEvent(attrs), now))
	}
}
