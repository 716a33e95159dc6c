package gateway

import (
	"bufio"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerlog/ledger/pkg/types"
)

func TestWantsNotification(t *testing.T) {
	errNote := &types.Notification{Level: "error", LogType: "exception"}
	infoNote := &types.Notification{Level: "info", LogType: "logger"}

	t.Run("no preference delivers", func(t *testing.T) {
		assert.True(t, wantsNotification(nil, errNote))
	})

	t.Run("disabled drops everything", func(t *testing.T) {
		pref := &types.NotificationPreference{Enabled: false, Levels: []string{"error"}}
		assert.False(t, wantsNotification(pref, errNote))
	})

	t.Run("empty filters deliver everything", func(t *testing.T) {
		pref := &types.NotificationPreference{Enabled: true}
		assert.True(t, wantsNotification(pref, errNote))
		assert.True(t, wantsNotification(pref, infoNote))
	})

	t.Run("level filter", func(t *testing.T) {
		pref := &types.NotificationPreference{Enabled: true, Levels: []string{"error", "critical"}}
		assert.True(t, wantsNotification(pref, errNote))
		assert.False(t, wantsNotification(pref, infoNote))
	})

	t.Run("type filter matches independently", func(t *testing.T) {
		pref := &types.NotificationPreference{Enabled: true, Levels: []string{"critical"}, Types: []string{"exception"}}
		assert.True(t, wantsNotification(pref, errNote), "type match delivers even without level match")
		assert.False(t, wantsNotification(pref, infoNote))
	})
}

func TestWriteEventFraming(t *testing.T) {
	w := httptest.NewRecorder()
	writeEvent(w, w, "error_notification", map[string]interface{}{"level": "error"})

	body := w.Body.String()
	assert.True(t, strings.HasPrefix(body, "event: error_notification\ndata: "))
	assert.True(t, strings.HasSuffix(body, "\n\n"))

	// a reader must see exactly one event
	scanner := bufio.NewScanner(strings.NewReader(body))
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], `"level":"error"`)
}
