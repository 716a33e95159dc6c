package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ledgerlog/ledger/pkg/kv"
	"github.com/ledgerlog/ledger/pkg/log"
	"github.com/ledgerlog/ledger/pkg/metrics"
	"github.com/ledgerlog/ledger/pkg/rpc"
	"github.com/ledgerlog/ledger/pkg/types"
)

// handleNotificationStream streams error notifications for every
// project the caller may see as server-sent events. The stream opens
// with a "connected" event, relays each notification as
// "error_notification" and heartbeats on an interval so intermediaries
// keep the connection alive.
func (g *Gateway) handleNotificationStream(w http.ResponseWriter, r *http.Request) {
	p := PrincipalFrom(r.Context())
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	projects, err := g.streamProjects(r, p)
	if err != nil {
		writeRPCError(w, err)
		return
	}
	if len(projects) == 0 {
		writeError(w, http.StatusForbidden, "no projects to stream")
		return
	}
	prefs := g.streamPreferences(r, p)

	topics := make([]string, 0, len(projects))
	for _, id := range projects {
		topics = append(topics, kv.ErrorTopic(id))
	}
	sub := g.cache.Subscribe(r.Context(), topics...)
	defer sub.Close()

	w.Header().Set("Content-Type", "text/event-stream; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	metrics.SSEClients.Inc()
	defer metrics.SSEClients.Dec()

	writeEvent(w, flusher, "connected", map[string]interface{}{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"projects":  projects,
	})

	heartbeat := time.NewTicker(time.Duration(g.cfg.Gateway.HeartbeatS) * time.Second)
	defer heartbeat.Stop()

	ch := sub.Channel()
	for {
		select {
		case <-r.Context().Done():
			return
		case msg, open := <-ch:
			if !open {
				return
			}
			var n types.Notification
			if err := json.Unmarshal([]byte(msg.Payload), &n); err != nil {
				logger := log.WithComponent("gateway")
				logger.Warn().Err(err).Msg("dropping undecodable notification")
				continue
			}
			if !wantsNotification(prefs[n.ProjectID], &n) {
				continue
			}
			writeEvent(w, flusher, "error_notification", &n)
		case <-heartbeat.C:
			writeEvent(w, flusher, "heartbeat", map[string]string{
				"timestamp": time.Now().UTC().Format(time.RFC3339),
			})
		}
	}
}

// streamProjects resolves which projects a client is subscribed to
func (g *Gateway) streamProjects(r *http.Request, p *Principal) ([]int64, error) {
	if p.HasProject() {
		return []int64{p.ProjectID}, nil
	}

	ctx, cancel := g.callCtx(r)
	defer cancel()

	var reply *rpc.ProjectListReply
	err := g.accountCall(ctx, func(ctx context.Context) error {
		var callErr error
		reply, callErr = g.pools.Account().ListProjects(ctx, &rpc.ListProjectsRequest{AccountID: p.AccountID})
		return callErr
	})
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(reply.Projects))
	for _, proj := range reply.Projects {
		ids = append(ids, proj.ID)
	}
	return ids, nil
}

// streamPreferences loads the account's delivery rules. A lookup
// failure means no filtering, not a dead stream.
func (g *Gateway) streamPreferences(r *http.Request, p *Principal) map[int64]*types.NotificationPreference {
	ctx, cancel := g.callCtx(r)
	defer cancel()

	var reply *rpc.PreferencesReply
	err := g.accountCall(ctx, func(ctx context.Context) error {
		var callErr error
		reply, callErr = g.pools.Account().GetNotificationPreferences(ctx, &rpc.PreferencesRequest{AccountID: p.AccountID})
		return callErr
	})
	if err != nil {
		logger := log.WithComponent("gateway")
		logger.Warn().Err(err).Msg("preferences unavailable, streaming unfiltered")
		return nil
	}

	prefs := make(map[int64]*types.NotificationPreference, len(reply.Preferences))
	for i := range reply.Preferences {
		prefs[reply.Preferences[i].ProjectID] = &reply.Preferences[i]
	}
	return prefs
}

// wantsNotification applies a project's delivery rules. No preference
// record means deliver everything.
func wantsNotification(pref *types.NotificationPreference, n *types.Notification) bool {
	if pref == nil {
		return true
	}
	if !pref.Enabled {
		return false
	}
	if len(pref.Levels) == 0 && len(pref.Types) == 0 {
		return true
	}
	return containsString(pref.Levels, n.Level) || containsString(pref.Types, n.LogType)
}

func containsString(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func writeEvent(w http.ResponseWriter, flusher http.Flusher, name string, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, payload)
	flusher.Flush()
}

// handleNotificationHealth reports whether the pub/sub backbone is up
func (g *Gateway) handleNotificationHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := g.callCtx(r)
	defer cancel()

	status := "healthy"
	code := http.StatusOK
	if err := g.cache.Ping(ctx); err != nil {
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]string{
		"status":  status,
		"channel": "sse",
	})
}
