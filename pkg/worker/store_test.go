package worker

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerlog/ledger/pkg/types"
)

func exceptionEvent(fingerprint, message string, ts time.Time) *types.LogEvent {
	return &types.LogEvent{
		ProjectID:        1,
		EventTimestamp:   ts,
		Level:            types.LevelError,
		LogType:          types.TypeException,
		ErrorType:        "ValueError",
		ErrorMessage:     message,
		StackTrace:       "trace for " + message,
		ErrorFingerprint: fingerprint,
	}
}

func TestGroupFingerprintsCountsAndBounds(t *testing.T) {
	base := time.Date(2026, 8, 12, 10, 0, 0, 0, time.UTC)
	batch := []*types.LogEvent{
		exceptionEvent("fp-a", "first", base),
		exceptionEvent("fp-a", "second", base.Add(2*time.Minute)),
		exceptionEvent("fp-a", "earlier", base.Add(-time.Minute)),
		exceptionEvent("fp-b", "other", base),
	}
	groups := groupFingerprints(batch, []int64{101, 102, 103, 104})
	require.Len(t, groups, 2)

	a := groups["fp-a"]
	assert.Equal(t, int64(3), a.count)
	assert.Equal(t, base.Add(-time.Minute), a.firstSeen)
	assert.Equal(t, base.Add(2*time.Minute), a.lastSeen)
	assert.Equal(t, "second", a.errorMessage, "message follows the latest occurrence")

	b := groups["fp-b"]
	assert.Equal(t, int64(1), b.count)
}

func TestGroupFingerprintsSampleFromFirstOccurrence(t *testing.T) {
	base := time.Now().UTC()
	batch := []*types.LogEvent{
		exceptionEvent("fp-a", "one", base),
		exceptionEvent("fp-a", "two", base.Add(time.Minute)),
	}
	groups := groupFingerprints(batch, []int64{11, 12})

	a := groups["fp-a"]
	require.NotNil(t, a.sampleLogID)
	assert.Equal(t, int64(11), *a.sampleLogID)
	assert.Equal(t, "trace for one", a.sampleStack)
}

func TestGroupFingerprintsSkipsNonExceptions(t *testing.T) {
	batch := []*types.LogEvent{
		{ProjectID: 1, EventTimestamp: time.Now(), LogType: types.TypeLogger},
		exceptionEvent("fp-a", "boom", time.Now()),
	}
	groups := groupFingerprints(batch, []int64{1, 2})
	require.Len(t, groups, 1)
	assert.Equal(t, int64(2), *groups["fp-a"].sampleLogID)
}

func TestGroupFingerprintsTolerateMissingIds(t *testing.T) {
	batch := []*types.LogEvent{
		exceptionEvent("fp-a", "boom", time.Now()),
	}
	groups := groupFingerprints(batch, nil)
	require.Len(t, groups, 1)
	assert.Nil(t, groups["fp-a"].sampleLogID)
}

func TestBuildInsertPlaceholders(t *testing.T) {
	base := time.Now().UTC()
	batch := []*types.LogEvent{
		exceptionEvent("fp-a", "one", base),
		exceptionEvent("fp-b", "two", base),
	}
	stmt, args, err := buildInsert(batch)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(stmt, "INSERT INTO logs ("))
	assert.True(t, strings.HasSuffix(stmt, " RETURNING id"))
	assert.Len(t, args, 2*len(insertColumns))
	assert.Contains(t, stmt, "$1")
	assert.Contains(t, stmt, "$36")
	assert.NotContains(t, stmt, "$37")
}

func TestBuildInsertNullsEmptyStrings(t *testing.T) {
	ev := &types.LogEvent{
		ProjectID:      1,
		EventTimestamp: time.Now(),
		Level:          types.LevelInfo,
		LogType:        types.TypeLogger,
		Message:        "hello",
	}
	_, args, err := buildInsert([]*types.LogEvent{ev})
	require.NoError(t, err)

	// environment (index 6) is empty and must travel as NULL
	assert.Nil(t, args[6])
	assert.Equal(t, "hello", args[8])
}

func TestNullIfEmpty(t *testing.T) {
	assert.Nil(t, nullIfEmpty(""))
	assert.Equal(t, "x", nullIfEmpty("x"))
}
