package rpc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerlog/ledger/pkg/types"
)

func TestCodecName(t *testing.T) {
	assert.Equal(t, "msgpack", codec{}.Name())
}

func TestCodecRoundTripLogEvent(t *testing.T) {
	c := codec{}
	in := &types.LogEvent{
		ProjectID:        7,
		EventTimestamp:   time.Date(2026, 8, 12, 10, 30, 0, 0, time.UTC),
		Level:            types.LevelError,
		LogType:          types.TypeException,
		Message:          "boom",
		ErrorType:        "ValueError",
		ErrorMessage:     "bad input",
		ErrorFingerprint: "abc123",
		Attributes:       map[string]interface{}{"path": "/v1/items"},
	}

	data, err := c.Marshal(in)
	require.NoError(t, err)

	var out types.LogEvent
	require.NoError(t, c.Unmarshal(data, &out))
	assert.Equal(t, in.ProjectID, out.ProjectID)
	assert.True(t, in.EventTimestamp.Equal(out.EventTimestamp))
	assert.Equal(t, in.Level, out.Level)
	assert.Equal(t, in.ErrorFingerprint, out.ErrorFingerprint)
	assert.Equal(t, "/v1/items", out.Attributes["path"])
}

func TestCodecOmitsEmptyOptionalFields(t *testing.T) {
	c := codec{}
	full, err := c.Marshal(&types.LogEvent{
		ProjectID:      1,
		EventTimestamp: time.Now(),
		Level:          types.LevelInfo,
		LogType:        types.TypeLogger,
		StackTrace:     "very long trace",
	})
	require.NoError(t, err)

	bare, err := c.Marshal(&types.LogEvent{
		ProjectID:      1,
		EventTimestamp: time.Now(),
		Level:          types.LevelInfo,
		LogType:        types.TypeLogger,
	})
	require.NoError(t, err)
	assert.Less(t, len(bare), len(full))
}
