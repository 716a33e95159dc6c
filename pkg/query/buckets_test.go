package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerlog/ledger/pkg/types"
)

func metricRow(date string, hour int, logs, errors int64, avg, min, max, p95, p99 float64) types.AggregatedMetric {
	return types.AggregatedMetric{
		ProjectID:     1,
		Date:          date,
		Hour:          hour,
		MetricType:    types.MetricTypeEndpoint,
		LogCount:      logs,
		ErrorCount:    errors,
		AvgDurationMs: avg,
		MinDurationMs: min,
		MaxDurationMs: max,
		P95DurationMs: p95,
		P99DurationMs: p99,
	}
}

func TestAssembleBucketsZeroFillsGaps(t *testing.T) {
	start := time.Date(2026, 8, 12, 0, 0, 0, 0, time.UTC)
	end := start.Add(4 * time.Hour)

	rows := []types.AggregatedMetric{
		metricRow("20260812", 1, 10, 2, 100, 50, 200, 180, 195),
	}
	buckets := AssembleBuckets(rows, start, end, Hourly)
	require.Len(t, buckets, 4)

	assert.Equal(t, "2026-08-12T00:00", buckets[0].Bucket)
	assert.Zero(t, buckets[0].LogCount)
	assert.Zero(t, buckets[0].AvgDurationMs)

	assert.Equal(t, "2026-08-12T01:00", buckets[1].Bucket)
	assert.Equal(t, int64(10), buckets[1].LogCount)
	assert.Equal(t, int64(2), buckets[1].ErrorCount)
	assert.Equal(t, 100.0, buckets[1].AvgDurationMs)

	assert.Zero(t, buckets[2].LogCount)
	assert.Zero(t, buckets[3].LogCount)
}

func TestAssembleBucketsRollsUpHoursIntoDays(t *testing.T) {
	start := time.Date(2026, 8, 12, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 2)

	rows := []types.AggregatedMetric{
		metricRow("20260812", 9, 10, 1, 100, 20, 300, 250, 290),
		metricRow("20260812", 10, 30, 3, 200, 40, 500, 450, 490),
		metricRow("20260813", 0, 5, 0, 80, 10, 150, 140, 148),
	}
	buckets := AssembleBuckets(rows, start, end, Daily)
	require.Len(t, buckets, 2)

	day1 := buckets[0]
	assert.Equal(t, "2026-08-12", day1.Bucket)
	assert.Equal(t, int64(40), day1.LogCount)
	assert.Equal(t, int64(4), day1.ErrorCount)
	assert.Equal(t, 150.0, day1.AvgDurationMs, "avg of hourly avgs")
	assert.Equal(t, 20.0, day1.MinDurationMs, "min of mins")
	assert.Equal(t, 500.0, day1.MaxDurationMs, "max of maxes")
	assert.Equal(t, 350.0, day1.P95DurationMs, "percentiles averaged")
	assert.Equal(t, 390.0, day1.P99DurationMs)

	day2 := buckets[1]
	assert.Equal(t, int64(5), day2.LogCount)
	assert.Equal(t, 80.0, day2.AvgDurationMs)
}

func TestAssembleBucketsSkipsEmptyRowsInDurationStats(t *testing.T) {
	start := time.Date(2026, 8, 12, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)

	rows := []types.AggregatedMetric{
		metricRow("20260812", 3, 0, 0, 0, 0, 0, 0, 0), // quiet route marker
		metricRow("20260812", 4, 8, 0, 120, 60, 240, 220, 235),
	}
	buckets := AssembleBuckets(rows, start, end, Daily)
	require.Len(t, buckets, 1)

	assert.Equal(t, int64(8), buckets[0].LogCount)
	assert.Equal(t, 120.0, buckets[0].AvgDurationMs, "zero-count rows do not dilute the average")
	assert.Equal(t, 60.0, buckets[0].MinDurationMs)
}

func TestAssembleBucketsIgnoresRowsOutsideRange(t *testing.T) {
	start := time.Date(2026, 8, 12, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)

	rows := []types.AggregatedMetric{
		metricRow("20260811", 23, 99, 0, 10, 10, 10, 10, 10),
		metricRow("20260812", 0, 7, 0, 10, 10, 10, 10, 10),
	}
	buckets := AssembleBuckets(rows, start, end, Daily)
	require.Len(t, buckets, 1)
	assert.Equal(t, int64(7), buckets[0].LogCount)
}
