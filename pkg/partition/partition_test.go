package partition

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestName(t *testing.T) {
	assert.Equal(t, "logs_2026_08", Name(time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)))
	assert.Equal(t, "logs_2026_01", Name(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "logs_2025_12", Name(time.Date(2025, 12, 31, 23, 59, 59, 0, time.UTC)))
}

func TestNameNormalizesZone(t *testing.T) {
	zone := time.FixedZone("UTC+9", 9*3600)
	// 2026-09-01 03:00 +09:00 is still August in UTC
	assert.Equal(t, "logs_2026_08", Name(time.Date(2026, 9, 1, 3, 0, 0, 0, zone)))
}

func TestMonthRange(t *testing.T) {
	from, to := MonthRange(time.Date(2026, 8, 25, 10, 30, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), to)
}

func TestMonthRangeDecemberWraps(t *testing.T) {
	from, to := MonthRange(time.Date(2025, 12, 15, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), to)
}

func TestMonthsAheadCoversEveryMonth(t *testing.T) {
	tests := []struct {
		name   string
		now    time.Time
		months int
		want   []string
	}{
		{
			name:   "month-end base does not skip short months",
			now:    time.Date(2026, 1, 31, 12, 0, 0, 0, time.UTC),
			months: 3,
			want:   []string{"logs_2026_01", "logs_2026_02", "logs_2026_03", "logs_2026_04"},
		},
		{
			name:   "mid-month base",
			now:    time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC),
			months: 2,
			want:   []string{"logs_2026_08", "logs_2026_09", "logs_2026_10"},
		},
		{
			name:   "wraps across the year boundary",
			now:    time.Date(2025, 11, 30, 23, 59, 59, 0, time.UTC),
			months: 3,
			want:   []string{"logs_2025_11", "logs_2025_12", "logs_2026_01", "logs_2026_02"},
		},
		{
			name:   "zero months ahead covers the current month only",
			now:    time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
			months: 0,
			want:   []string{"logs_2026_03"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := make([]string, 0, len(tt.want))
			for _, m := range monthsAhead(tt.now, tt.months) {
				got = append(got, Name(m))
			}
			assert.Equal(t, tt.want, got)
		})
	}
}
