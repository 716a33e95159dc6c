package gateway

import (
	"context"
	"net/http"

	"github.com/ledgerlog/ledger/pkg/rpc"
	"github.com/ledgerlog/ledger/pkg/rpcpool"
	"github.com/ledgerlog/ledger/pkg/types"
)

// ingestCall runs fn against the ingest service behind its breaker
func (g *Gateway) ingestCall(ctx context.Context, fn func(ctx context.Context) error) error {
	return g.breakers.Get(rpcpool.ServiceIngest).Execute(ctx, fn)
}

// requireProject rejects session-token requests on project-scoped
// endpoints.
func requireProject(w http.ResponseWriter, r *http.Request) (*Principal, bool) {
	p := PrincipalFrom(r.Context())
	if p == nil || !p.HasProject() {
		writeError(w, http.StatusForbidden, "an API key with project scope is required")
		return nil, false
	}
	return p, true
}

func (g *Gateway) handleIngestSingle(w http.ResponseWriter, r *http.Request) {
	p, ok := requireProject(w, r)
	if !ok {
		return
	}
	var ev types.LogEvent
	if !g.decodeBody(w, r, &ev) {
		return
	}

	ctx, cancel := g.callCtx(r)
	defer cancel()

	var reply *rpc.IngestLogReply
	err := g.ingestCall(ctx, func(ctx context.Context) error {
		var callErr error
		reply, callErr = g.pools.Ingest().IngestLog(ctx, &rpc.IngestLogRequest{
			ProjectID: p.ProjectID,
			Log:       &ev,
		})
		return callErr
	})
	if err != nil {
		writeRPCError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"accepted": 1,
		"message":  reply.Message,
	})
}

func (g *Gateway) handleIngestBatch(w http.ResponseWriter, r *http.Request) {
	p, ok := requireProject(w, r)
	if !ok {
		return
	}
	var body struct {
		Logs []*types.LogEvent `json:"logs"`
	}
	if !g.decodeBody(w, r, &body) {
		return
	}

	ctx, cancel := g.callCtx(r)
	defer cancel()

	var reply *rpc.IngestBatchReply
	err := g.ingestCall(ctx, func(ctx context.Context) error {
		var callErr error
		reply, callErr = g.pools.Ingest().IngestLogBatch(ctx, &rpc.IngestBatchRequest{
			ProjectID: p.ProjectID,
			Logs:      body.Logs,
		})
		return callErr
	})
	if err != nil {
		writeRPCError(w, err)
		return
	}

	resp := map[string]interface{}{
		"accepted": reply.Queued,
		"rejected": reply.Failed,
	}
	if reply.Error != "" {
		resp["errors"] = reply.Error
	}
	writeJSON(w, http.StatusAccepted, resp)
}

func (g *Gateway) handleQueueDepth(w http.ResponseWriter, r *http.Request) {
	p, ok := requireProject(w, r)
	if !ok {
		return
	}

	ctx, cancel := g.callCtx(r)
	defer cancel()

	var reply *rpc.QueueDepthReply
	err := g.ingestCall(ctx, func(ctx context.Context) error {
		var callErr error
		reply, callErr = g.pools.Ingest().GetQueueDepth(ctx, &rpc.QueueDepthRequest{ProjectID: p.ProjectID})
		return callErr
	})
	if err != nil {
		writeRPCError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"project_id":  p.ProjectID,
		"queue_depth": reply.Depth,
	})
}
