package gateway

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ledgerlog/ledger/pkg/rpc"
	"github.com/ledgerlog/ledger/pkg/rpcpool"
)

// queryCall runs fn against the query service behind its breaker
func (g *Gateway) queryCall(ctx context.Context, fn func(ctx context.Context) error) error {
	return g.breakers.Get(rpcpool.ServiceQuery).Execute(ctx, fn)
}

// projectScope resolves the project a read request targets. API-key
// principals are bound to their own project; session principals name
// one with ?project_id= and must own it.
func (g *Gateway) projectScope(w http.ResponseWriter, r *http.Request) (int64, bool) {
	p := PrincipalFrom(r.Context())
	requested := r.URL.Query().Get("project_id")

	if p.HasProject() {
		if requested != "" {
			if id, err := strconv.ParseInt(requested, 10, 64); err != nil || id != p.ProjectID {
				writeError(w, http.StatusForbidden, "key is not scoped to this project")
				return 0, false
			}
		}
		return p.ProjectID, true
	}

	id, err := strconv.ParseInt(requested, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "project_id is required")
		return 0, false
	}
	if !g.ownsProject(r, p.AccountID, id) {
		writeError(w, http.StatusForbidden, "project does not belong to this account")
		return 0, false
	}
	return id, true
}

func (g *Gateway) ownsProject(r *http.Request, accountID, projectID int64) bool {
	ctx, cancel := g.callCtx(r)
	defer cancel()

	var reply *rpc.ProjectListReply
	err := g.accountCall(ctx, func(ctx context.Context) error {
		var callErr error
		reply, callErr = g.pools.Account().ListProjects(ctx, &rpc.ListProjectsRequest{AccountID: accountID})
		return callErr
	})
	if err != nil {
		return false
	}
	for _, proj := range reply.Projects {
		if proj.ID == projectID {
			return true
		}
	}
	return false
}

func parseTimeParam(r *http.Request, name string) *time.Time {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil
	}
	return &t
}

func parseIntParam(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

func (g *Gateway) handleQueryLogs(w http.ResponseWriter, r *http.Request) {
	projectID, ok := g.projectScope(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()

	ctx, cancel := g.callCtx(r)
	defer cancel()

	var reply *rpc.LogListReply
	err := g.queryCall(ctx, func(ctx context.Context) error {
		var callErr error
		reply, callErr = g.pools.Query().QueryLogs(ctx, &rpc.QueryLogsRequest{
			ProjectID:   projectID,
			From:        parseTimeParam(r, "from"),
			To:          parseTimeParam(r, "to"),
			Level:       q.Get("level"),
			LogType:     q.Get("log_type"),
			Environment: q.Get("environment"),
			Fingerprint: q.Get("fingerprint"),
			Limit:       parseIntParam(r, "limit", 50),
			Offset:      parseIntParam(r, "offset", 0),
		})
		return callErr
	})
	if err != nil {
		writeRPCError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func (g *Gateway) handleSearchLogs(w http.ResponseWriter, r *http.Request) {
	projectID, ok := g.projectScope(w, r)
	if !ok {
		return
	}

	ctx, cancel := g.callCtx(r)
	defer cancel()

	var reply *rpc.LogListReply
	err := g.queryCall(ctx, func(ctx context.Context) error {
		var callErr error
		reply, callErr = g.pools.Query().SearchLogs(ctx, &rpc.SearchLogsRequest{
			ProjectID: projectID,
			Query:     r.URL.Query().Get("q"),
			From:      parseTimeParam(r, "from"),
			To:        parseTimeParam(r, "to"),
			Limit:     parseIntParam(r, "limit", 50),
			Offset:    parseIntParam(r, "offset", 0),
		})
		return callErr
	})
	if err != nil {
		writeRPCError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func (g *Gateway) handleGetLog(w http.ResponseWriter, r *http.Request) {
	projectID, ok := g.projectScope(w, r)
	if !ok {
		return
	}
	logID, err := strconv.ParseInt(chi.URLParam(r, "logID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid log id")
		return
	}

	ctx, cancel := g.callCtx(r)
	defer cancel()

	var reply *rpc.LogReply
	err = g.queryCall(ctx, func(ctx context.Context) error {
		var callErr error
		reply, callErr = g.pools.Query().GetLog(ctx, &rpc.GetLogRequest{
			LogID:     logID,
			ProjectID: projectID,
		})
		return callErr
	})
	if err != nil {
		writeRPCError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reply.Log)
}

func (g *Gateway) handleErrorList(w http.ResponseWriter, r *http.Request) {
	projectID, ok := g.projectScope(w, r)
	if !ok {
		return
	}

	ctx, cancel := g.callCtx(r)
	defer cancel()

	var reply *rpc.LogListReply
	err := g.queryCall(ctx, func(ctx context.Context) error {
		var callErr error
		reply, callErr = g.pools.Query().GetErrorList(ctx, &rpc.ErrorListRequest{
			ProjectID: projectID,
			Period:    r.URL.Query().Get("period"),
			From:      parseTimeParam(r, "periodFrom"),
			To:        parseTimeParam(r, "periodTo"),
			Limit:     parseIntParam(r, "limit", 50),
			Offset:    parseIntParam(r, "offset", 0),
		})
		return callErr
	})
	if err != nil {
		writeRPCError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func (g *Gateway) handleAggregatedMetrics(w http.ResponseWriter, r *http.Request) {
	projectID, ok := g.projectScope(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()

	ctx, cancel := g.callCtx(r)
	defer cancel()

	var reply *rpc.AggregatedMetricsReply
	err := g.queryCall(ctx, func(ctx context.Context) error {
		var callErr error
		reply, callErr = g.pools.Query().GetAggregatedMetrics(ctx, &rpc.AggregatedMetricsRequest{
			ProjectID:    projectID,
			MetricType:   q.Get("type"),
			Period:       q.Get("period"),
			From:         parseTimeParam(r, "periodFrom"),
			To:           parseTimeParam(r, "periodTo"),
			EndpointPath: q.Get("endpointPath"),
		})
		return callErr
	})
	if err != nil {
		writeRPCError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

// cachedMetricsHandler adapts one warmed-snapshot reader into a
// handler. A cold cache returns found=false with empty data.
func (g *Gateway) cachedMetricsHandler(read func(ctx context.Context, projectID int64) (interface{}, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, ok := g.projectScope(w, r)
		if !ok {
			return
		}

		ctx, cancel := g.callCtx(r)
		defer cancel()

		var reply interface{}
		err := g.queryCall(ctx, func(ctx context.Context) error {
			var callErr error
			reply, callErr = read(ctx, projectID)
			return callErr
		})
		if err != nil {
			writeRPCError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, reply)
	}
}

// queryCached dispatches to the matching snapshot RPC by kind
func (g *Gateway) queryCached(ctx context.Context, projectID int64, kind string) (interface{}, error) {
	req := &rpc.CachedMetricsRequest{ProjectID: projectID}
	switch kind {
	case "error_rate":
		return g.pools.Query().GetErrorRate(ctx, req)
	case "log_volume":
		return g.pools.Query().GetLogVolume(ctx, req)
	case "top_errors":
		return g.pools.Query().GetTopErrors(ctx, req)
	default:
		return g.pools.Query().GetUsageStats(ctx, req)
	}
}
