package query

import (
	"time"

	"github.com/ledgerlog/ledger/pkg/rpc"
	"github.com/ledgerlog/ledger/pkg/types"
)

// bucketAccumulator folds hourly metric rows into one reply bucket
type bucketAccumulator struct {
	logCount   int64
	errorCount int64
	avgSum     float64
	p95Sum     float64
	p99Sum     float64
	minMs      float64
	maxMs      float64
	rows       int64 // rows contributing duration data
}

func (b *bucketAccumulator) add(m types.AggregatedMetric) {
	b.logCount += m.LogCount
	b.errorCount += m.ErrorCount
	if m.LogCount == 0 {
		return
	}
	if b.rows == 0 || m.MinDurationMs < b.minMs {
		b.minMs = m.MinDurationMs
	}
	if m.MaxDurationMs > b.maxMs {
		b.maxMs = m.MaxDurationMs
	}
	b.avgSum += m.AvgDurationMs
	b.p95Sum += m.P95DurationMs
	b.p99Sum += m.P99DurationMs
	b.rows++
}

// AssembleBuckets turns hourly metric rows into the dense bucket series
// for [start, end): every expected bucket appears, zero-filled when no
// row falls in it. Sub-bucket duration stats are rolled up with avg for
// means, min for mins, max for maxes; percentiles are averaged.
func AssembleBuckets(rows []types.AggregatedMetric, start, end time.Time, g Granularity) []rpc.MetricBucket {
	starts := Buckets(start, end, g)
	acc := make(map[string]*bucketAccumulator, len(starts))
	for _, t := range starts {
		acc[BucketLabel(t, g)] = &bucketAccumulator{}
	}

	for _, m := range rows {
		t, err := rowTime(m)
		if err != nil {
			continue
		}
		label := BucketLabel(alignBucket(t, g), g)
		if a, ok := acc[label]; ok {
			a.add(m)
		}
	}

	out := make([]rpc.MetricBucket, 0, len(starts))
	for _, t := range starts {
		a := acc[BucketLabel(t, g)]
		b := rpc.MetricBucket{
			Bucket:     BucketLabel(t, g),
			LogCount:   a.logCount,
			ErrorCount: a.errorCount,
		}
		if a.rows > 0 {
			b.AvgDurationMs = a.avgSum / float64(a.rows)
			b.P95DurationMs = a.p95Sum / float64(a.rows)
			b.P99DurationMs = a.p99Sum / float64(a.rows)
			b.MinDurationMs = a.minMs
			b.MaxDurationMs = a.maxMs
		}
		out = append(out, b)
	}
	return out
}

// rowTime reconstructs the hour start of a metric row from its
// YYYYMMDD date key and hour column.
func rowTime(m types.AggregatedMetric) (time.Time, error) {
	day, err := time.ParseInLocation("20060102", m.Date, time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	return day.Add(time.Duration(m.Hour) * time.Hour), nil
}
