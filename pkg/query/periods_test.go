package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Wednesday 2026-08-12, mid-afternoon UTC
var fixedNow = time.Date(2026, 8, 12, 15, 30, 0, 0, time.UTC)

func TestResolvePeriodNamed(t *testing.T) {
	cases := []struct {
		period      string
		start, end  time.Time
		granularity Granularity
	}{
		{"today",
			time.Date(2026, 8, 12, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 8, 13, 0, 0, 0, 0, time.UTC),
			Hourly},
		{"last7days",
			time.Date(2026, 8, 6, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 8, 13, 0, 0, 0, 0, time.UTC),
			Daily},
		{"last30days",
			time.Date(2026, 7, 14, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 8, 13, 0, 0, 0, 0, time.UTC),
			Daily},
		{"currentWeek",
			time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC), // Monday
			time.Date(2026, 8, 17, 0, 0, 0, 0, time.UTC),
			Daily},
		{"currentMonth",
			time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
			Daily},
		{"currentYear",
			time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC),
			Monthly},
	}
	for _, tc := range cases {
		t.Run(tc.period, func(t *testing.T) {
			start, end, g, err := ResolvePeriod(tc.period, nil, nil, fixedNow)
			require.NoError(t, err)
			assert.Equal(t, tc.start, start)
			assert.Equal(t, tc.end, end)
			assert.Equal(t, tc.granularity, g)
		})
	}
}

func TestResolvePeriodCurrentWeekOnSunday(t *testing.T) {
	sunday := time.Date(2026, 8, 16, 10, 0, 0, 0, time.UTC)
	start, _, _, err := ResolvePeriod("currentWeek", nil, nil, sunday)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC), start)
}

func TestResolvePeriodCustomGranularityThresholds(t *testing.T) {
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		span time.Duration
		want Granularity
	}{
		{6 * time.Hour, Hourly},
		{24 * time.Hour, Hourly},
		{25 * time.Hour, Daily},
		{30 * 24 * time.Hour, Daily},
		{31 * 24 * time.Hour, Weekly},
		{180 * 24 * time.Hour, Weekly},
		{181 * 24 * time.Hour, Monthly},
	}
	for _, tc := range cases {
		to := from.Add(tc.span)
		_, _, g, err := ResolvePeriod("", &from, &to, fixedNow)
		require.NoError(t, err)
		assert.Equal(t, tc.want, g, "span %v", tc.span)
	}
}

func TestResolvePeriodCustomRequiresBothBounds(t *testing.T) {
	from := fixedNow.Add(-time.Hour)
	_, _, _, err := ResolvePeriod("", &from, nil, fixedNow)
	assert.Error(t, err)
	_, _, _, err = ResolvePeriod("", nil, nil, fixedNow)
	assert.Error(t, err)
}

func TestResolvePeriodCustomRejectsInvertedRange(t *testing.T) {
	from := fixedNow
	to := fixedNow.Add(-time.Hour)
	_, _, _, err := ResolvePeriod("", &from, &to, fixedNow)
	assert.Error(t, err)

	to = from
	_, _, _, err = ResolvePeriod("", &from, &to, fixedNow)
	assert.Error(t, err)
}

func TestResolvePeriodUnknownName(t *testing.T) {
	_, _, _, err := ResolvePeriod("fortnight", nil, nil, fixedNow)
	assert.Error(t, err)
}

func TestBucketsHourly(t *testing.T) {
	start := time.Date(2026, 8, 12, 0, 0, 0, 0, time.UTC)
	buckets := Buckets(start, start.AddDate(0, 0, 1), Hourly)
	require.Len(t, buckets, 24)
	assert.Equal(t, start, buckets[0])
	assert.Equal(t, start.Add(23*time.Hour), buckets[23])
}

func TestBucketsDailyAlignsPartialDays(t *testing.T) {
	start := time.Date(2026, 8, 6, 14, 0, 0, 0, time.UTC)
	end := time.Date(2026, 8, 9, 3, 0, 0, 0, time.UTC)
	buckets := Buckets(start, end, Daily)
	require.Len(t, buckets, 4)
	assert.Equal(t, time.Date(2026, 8, 6, 0, 0, 0, 0, time.UTC), buckets[0])
	assert.Equal(t, time.Date(2026, 8, 9, 0, 0, 0, 0, time.UTC), buckets[3])
}

func TestBucketsWeeklyStartMonday(t *testing.T) {
	// 2026-08-12 is a Wednesday
	start := time.Date(2026, 8, 12, 0, 0, 0, 0, time.UTC)
	buckets := Buckets(start, start.AddDate(0, 0, 14), Weekly)
	require.NotEmpty(t, buckets)
	assert.Equal(t, time.Monday, buckets[0].Weekday())
	assert.Equal(t, time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC), buckets[0])
}

func TestBucketsMonthly(t *testing.T) {
	start := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	buckets := Buckets(start, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), Monthly)
	require.Len(t, buckets, 3)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), buckets[0])
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), buckets[2])
}

func TestBucketLabel(t *testing.T) {
	ts := time.Date(2026, 8, 12, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, "2026-08-12T09:00", BucketLabel(ts, Hourly))
	assert.Equal(t, "2026-08-12", BucketLabel(ts, Daily))
}
