package analytics

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPreviousHour(t *testing.T) {
	now := time.Date(2026, 8, 25, 14, 37, 12, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 8, 25, 13, 0, 0, 0, time.UTC), previousHour(now))
}

// The rollup queries only cast attribute values matching these
// patterns; everything else aggregates as NULL. Clients write
// arbitrary JSON into attributes, so one bad value must never take
// down the hour for every tenant.
func TestRollupCastGuards(t *testing.T) {
	intRe := regexp.MustCompile(intPattern)
	numRe := regexp.MustCompile(numericPattern)

	tests := []struct {
		value       string
		wantInt     bool
		wantNumeric bool
	}{
		{"200", true, true},
		{"0", true, true},
		{"404", true, true},
		{"12.5", false, true},
		{"-3", false, true},
		{"-3.25", false, true},
		{"", false, false},
		{"abc", false, false},
		{"200 OK", false, false},
		{"12,5", false, false},
		{"NaN", false, false},
		{"1e3", false, false},
		{".5", false, false},
		{"12.", false, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.wantInt, intRe.MatchString(tt.value), "int guard on %q", tt.value)
		assert.Equal(t, tt.wantNumeric, numRe.MatchString(tt.value), "numeric guard on %q", tt.value)
	}
}
