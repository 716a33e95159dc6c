package ingest

import (
	"context"
	"encoding/json"

	"github.com/ledgerlog/ledger/pkg/kv"
	"github.com/ledgerlog/ledger/pkg/log"
	"github.com/ledgerlog/ledger/pkg/metrics"
	"github.com/ledgerlog/ledger/pkg/types"
)

// notificationMessageLimit caps the message field carried in a
// notification; full text stays in the log row.
const notificationMessageLimit = 1000

// Publisher pushes qualifying log events to the per-project error
// topics the SSE fan-out subscribes to.
type Publisher struct {
	client *kv.Client
}

// NewPublisher creates a notification publisher
func NewPublisher(client *kv.Client) *Publisher {
	return &Publisher{client: client}
}

// Qualifies reports whether an event produces a notification
func Qualifies(ev *types.LogEvent) bool {
	if ev.Level == types.LevelError || ev.Level == types.LevelCritical {
		return true
	}
	return ev.LogType == types.TypeException
}

// PublishIfQualifying emits a notification for ev when it qualifies.
// Publish failures are logged and swallowed: a broken notification
// path must never reject ingestion.
func (p *Publisher) PublishIfQualifying(ctx context.Context, ev *types.LogEvent) {
	if !Qualifies(ev) {
		return
	}

	message := ev.Message
	if len(message) > notificationMessageLimit {
		message = message[:notificationMessageLimit]
	}

	n := types.Notification{
		ProjectID:   ev.ProjectID,
		Level:       string(ev.Level),
		LogType:     string(ev.LogType),
		Message:     message,
		ErrorType:   ev.ErrorType,
		Timestamp:   ev.EventTimestamp,
		Fingerprint: ev.ErrorFingerprint,
		Attributes:  ev.Attributes,
		SDKVersion:  ev.SDKVersion,
		Platform:    ev.Platform,
	}

	payload, err := json.Marshal(n)
	if err != nil {
		logger := log.WithComponent("publisher")
		logger.Warn().Err(err).Msg("failed to encode notification")
		return
	}

	if err := p.client.Publish(ctx, kv.ErrorTopic(ev.ProjectID), payload); err != nil {
		logger := log.WithComponent("publisher")
		logger.Warn().
			Int64("project_id", ev.ProjectID).
			Err(err).
			Msg("failed to publish notification")
		return
	}
	metrics.NotificationsPublished.Inc()
}
