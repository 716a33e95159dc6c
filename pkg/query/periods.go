package query

import (
	"time"

	"github.com/ledgerlog/ledger/pkg/types"
)

// Granularity of metric buckets in a reply
type Granularity string

const (
	Hourly  Granularity = "hourly"
	Daily   Granularity = "daily"
	Weekly  Granularity = "weekly"
	Monthly Granularity = "monthly"
)

// Custom-range thresholds for deriving granularity from duration.
const (
	maxHourlyRange = 24 * time.Hour
	maxDailyRange  = 30 * 24 * time.Hour
	maxWeeklyRange = 180 * 24 * time.Hour
)

// ResolvePeriod turns a named period, or a custom from/to range, into
// concrete bounds and a granularity.
//
// Named periods: today (hourly), last7days, last30days, currentWeek,
// currentMonth (daily), currentYear (monthly). Custom ranges derive
// granularity from duration.
func ResolvePeriod(period string, from, to *time.Time, now time.Time) (time.Time, time.Time, Granularity, error) {
	now = now.UTC()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	switch period {
	case "today":
		return startOfDay, startOfDay.AddDate(0, 0, 1), Hourly, nil
	case "last7days":
		return startOfDay.AddDate(0, 0, -6), startOfDay.AddDate(0, 0, 1), Daily, nil
	case "last30days":
		return startOfDay.AddDate(0, 0, -29), startOfDay.AddDate(0, 0, 1), Daily, nil
	case "currentWeek":
		weekday := int(now.Weekday())
		if weekday == 0 {
			weekday = 7 // weeks start Monday
		}
		start := startOfDay.AddDate(0, 0, -(weekday - 1))
		return start, start.AddDate(0, 0, 7), Daily, nil
	case "currentMonth":
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(0, 1, 0), Daily, nil
	case "currentYear":
		start := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(1, 0, 0), Monthly, nil
	case "":
		// custom range
	default:
		return time.Time{}, time.Time{}, "", types.NewValidationError("period", "is not a recognized period")
	}

	if from == nil || to == nil {
		return time.Time{}, time.Time{}, "", types.NewValidationError("period", "period or periodFrom/periodTo is required")
	}
	start, end := from.UTC(), to.UTC()
	if !end.After(start) {
		return time.Time{}, time.Time{}, "", types.NewValidationError("periodTo", "must be after periodFrom")
	}

	switch duration := end.Sub(start); {
	case duration <= maxHourlyRange:
		return start, end, Hourly, nil
	case duration <= maxDailyRange:
		return start, end, Daily, nil
	case duration <= maxWeeklyRange:
		return start, end, Weekly, nil
	default:
		return start, end, Monthly, nil
	}
}

// Buckets enumerates the dense bucket starts covering [start, end)
func Buckets(start, end time.Time, g Granularity) []time.Time {
	var out []time.Time
	for t := alignBucket(start, g); t.Before(end); t = nextBucket(t, g) {
		out = append(out, t)
	}
	return out
}

// alignBucket snaps t down to its bucket start
func alignBucket(t time.Time, g Granularity) time.Time {
	t = t.UTC()
	switch g {
	case Hourly:
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, time.UTC)
	case Daily:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	case Weekly:
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		weekday := int(day.Weekday())
		if weekday == 0 {
			weekday = 7
		}
		return day.AddDate(0, 0, -(weekday - 1))
	default:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
}

func nextBucket(t time.Time, g Granularity) time.Time {
	switch g {
	case Hourly:
		return t.Add(time.Hour)
	case Daily:
		return t.AddDate(0, 0, 1)
	case Weekly:
		return t.AddDate(0, 0, 7)
	default:
		return t.AddDate(0, 1, 0)
	}
}

// BucketLabel renders the reply key for a bucket start
func BucketLabel(t time.Time, g Granularity) string {
	if g == Hourly {
		return t.Format("2006-01-02T15:00")
	}
	return t.Format("2006-01-02")
}
