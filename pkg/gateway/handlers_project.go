package gateway

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ledgerlog/ledger/pkg/rpc"
)

// apiKeyWarning accompanies every created key; the plaintext is shown
// exactly once and never stored.
const apiKeyWarning = "Store this key securely. It will not be shown again."

func (g *Gateway) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	p := PrincipalFrom(r.Context())
	var body struct {
		Name        string `json:"name"`
		Slug        string `json:"slug"`
		Environment string `json:"environment"`
	}
	if !g.decodeBody(w, r, &body) {
		return
	}

	ctx, cancel := g.callCtx(r)
	defer cancel()

	var reply *rpc.ProjectReply
	err := g.accountCall(ctx, func(ctx context.Context) error {
		var callErr error
		reply, callErr = g.pools.Account().CreateProject(ctx, &rpc.CreateProjectRequest{
			AccountID:   p.AccountID,
			Name:        body.Name,
			Slug:        body.Slug,
			Environment: body.Environment,
		})
		return callErr
	})
	if err != nil {
		writeRPCError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, reply)
}

func (g *Gateway) handleListProjects(w http.ResponseWriter, r *http.Request) {
	p := PrincipalFrom(r.Context())

	ctx, cancel := g.callCtx(r)
	defer cancel()

	var reply *rpc.ProjectListReply
	err := g.accountCall(ctx, func(ctx context.Context) error {
		var callErr error
		reply, callErr = g.pools.Account().ListProjects(ctx, &rpc.ListProjectsRequest{AccountID: p.AccountID})
		return callErr
	})
	if err != nil {
		writeRPCError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func (g *Gateway) handleGetProject(w http.ResponseWriter, r *http.Request) {
	p := PrincipalFrom(r.Context())
	slug := chi.URLParam(r, "slug")

	ctx, cancel := g.callCtx(r)
	defer cancel()

	var reply *rpc.ProjectReply
	err := g.accountCall(ctx, func(ctx context.Context) error {
		var callErr error
		reply, callErr = g.pools.Account().GetProjectBySlug(ctx, &rpc.GetProjectBySlugRequest{
			AccountID: p.AccountID,
			Slug:      slug,
		})
		return callErr
	})
	if err != nil {
		writeRPCError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func (g *Gateway) handleCreateApiKey(w http.ResponseWriter, r *http.Request) {
	p := PrincipalFrom(r.Context())
	projectID, err := strconv.ParseInt(chi.URLParam(r, "projectID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid project id")
		return
	}
	var body struct {
		Name string `json:"name"`
	}
	if !g.decodeBody(w, r, &body) {
		return
	}

	ctx, cancel := g.callCtx(r)
	defer cancel()

	var reply *rpc.CreateApiKeyReply
	err = g.accountCall(ctx, func(ctx context.Context) error {
		var callErr error
		reply, callErr = g.pools.Account().CreateApiKey(ctx, &rpc.CreateApiKeyRequest{
			AccountID: p.AccountID,
			ProjectID: projectID,
			Name:      body.Name,
		})
		return callErr
	})
	if err != nil {
		writeRPCError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"key_id":     reply.KeyID,
		"full_key":   reply.FullKey,
		"key_prefix": reply.KeyPrefix,
		"warning":    apiKeyWarning,
	})
}

func (g *Gateway) handleListApiKeys(w http.ResponseWriter, r *http.Request) {
	p := PrincipalFrom(r.Context())
	projectID, err := strconv.ParseInt(chi.URLParam(r, "projectID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid project id")
		return
	}

	ctx, cancel := g.callCtx(r)
	defer cancel()

	var reply *rpc.ApiKeyListReply
	err = g.accountCall(ctx, func(ctx context.Context) error {
		var callErr error
		reply, callErr = g.pools.Account().ListApiKeys(ctx, &rpc.ListApiKeysRequest{
			AccountID: p.AccountID,
			ProjectID: projectID,
		})
		return callErr
	})
	if err != nil {
		writeRPCError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func (g *Gateway) handleRevokeApiKey(w http.ResponseWriter, r *http.Request) {
	p := PrincipalFrom(r.Context())
	keyID, err := strconv.ParseInt(chi.URLParam(r, "keyID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid key id")
		return
	}

	ctx, cancel := g.callCtx(r)
	defer cancel()

	var reply *rpc.RevokeApiKeyReply
	err = g.accountCall(ctx, func(ctx context.Context) error {
		var callErr error
		reply, callErr = g.pools.Account().RevokeApiKey(ctx, &rpc.RevokeApiKeyRequest{
			AccountID: p.AccountID,
			KeyID:     keyID,
		})
		return callErr
	})
	if err != nil {
		writeRPCError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func (g *Gateway) handleDailyUsage(w http.ResponseWriter, r *http.Request) {
	p := PrincipalFrom(r.Context())
	projectID := p.ProjectID
	if projectID == 0 {
		id, err := strconv.ParseInt(r.URL.Query().Get("project_id"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "project_id is required")
			return
		}
		projectID = id
	}
	date := r.URL.Query().Get("date")
	if date == "" {
		date = time.Now().UTC().Format("20060102")
	}

	ctx, cancel := g.callCtx(r)
	defer cancel()

	var reply *rpc.DailyUsageReply
	err := g.accountCall(ctx, func(ctx context.Context) error {
		var callErr error
		reply, callErr = g.pools.Account().GetDailyUsage(ctx, &rpc.DailyUsageRequest{
			ProjectID: projectID,
			Date:      date,
		})
		return callErr
	})
	if err != nil {
		writeRPCError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}
