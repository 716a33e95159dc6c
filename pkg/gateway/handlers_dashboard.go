package gateway

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ledgerlog/ledger/pkg/rpc"
	"github.com/ledgerlog/ledger/pkg/types"
)

func (g *Gateway) handleListPanels(w http.ResponseWriter, r *http.Request) {
	p := PrincipalFrom(r.Context())

	ctx, cancel := g.callCtx(r)
	defer cancel()

	var reply *rpc.PanelListReply
	err := g.accountCall(ctx, func(ctx context.Context) error {
		var callErr error
		reply, callErr = g.pools.Account().GetDashboardPanels(ctx, &rpc.PanelListRequest{AccountID: p.AccountID})
		return callErr
	})
	if err != nil {
		writeRPCError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func (g *Gateway) handleCreatePanel(w http.ResponseWriter, r *http.Request) {
	p := PrincipalFrom(r.Context())
	var panel types.DashboardPanel
	if !g.decodeBody(w, r, &panel) {
		return
	}

	ctx, cancel := g.callCtx(r)
	defer cancel()

	var reply *rpc.PanelReply
	err := g.accountCall(ctx, func(ctx context.Context) error {
		var callErr error
		reply, callErr = g.pools.Account().CreateDashboardPanel(ctx, &rpc.CreatePanelRequest{
			AccountID: p.AccountID,
			Panel:     panel,
		})
		return callErr
	})
	if err != nil {
		writeRPCError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, reply)
}

func (g *Gateway) handleUpdatePanel(w http.ResponseWriter, r *http.Request) {
	p := PrincipalFrom(r.Context())
	var panel types.DashboardPanel
	if !g.decodeBody(w, r, &panel) {
		return
	}

	ctx, cancel := g.callCtx(r)
	defer cancel()

	var reply *rpc.PanelReply
	err := g.accountCall(ctx, func(ctx context.Context) error {
		var callErr error
		reply, callErr = g.pools.Account().UpdateDashboardPanel(ctx, &rpc.UpdatePanelRequest{
			AccountID: p.AccountID,
			PanelID:   chi.URLParam(r, "panelID"),
			Panel:     panel,
		})
		return callErr
	})
	if err != nil {
		writeRPCError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func (g *Gateway) handleDeletePanel(w http.ResponseWriter, r *http.Request) {
	p := PrincipalFrom(r.Context())

	ctx, cancel := g.callCtx(r)
	defer cancel()

	err := g.accountCall(ctx, func(ctx context.Context) error {
		_, callErr := g.pools.Account().DeleteDashboardPanel(ctx, &rpc.DeletePanelRequest{
			AccountID: p.AccountID,
			PanelID:   chi.URLParam(r, "panelID"),
		})
		return callErr
	})
	if err != nil {
		writeRPCError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (g *Gateway) handleGetPreferences(w http.ResponseWriter, r *http.Request) {
	p := PrincipalFrom(r.Context())

	ctx, cancel := g.callCtx(r)
	defer cancel()

	var reply *rpc.PreferencesReply
	err := g.accountCall(ctx, func(ctx context.Context) error {
		var callErr error
		reply, callErr = g.pools.Account().GetNotificationPreferences(ctx, &rpc.PreferencesRequest{AccountID: p.AccountID})
		return callErr
	})
	if err != nil {
		writeRPCError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func (g *Gateway) handlePutPreferences(w http.ResponseWriter, r *http.Request) {
	p := PrincipalFrom(r.Context())
	var body struct {
		Preferences []types.NotificationPreference `json:"preferences"`
	}
	if !g.decodeBody(w, r, &body) {
		return
	}

	ctx, cancel := g.callCtx(r)
	defer cancel()

	err := g.accountCall(ctx, func(ctx context.Context) error {
		_, callErr := g.pools.Account().PutNotificationPreferences(ctx, &rpc.PutPreferencesRequest{
			AccountID:   p.AccountID,
			Preferences: body.Preferences,
		})
		return callErr
	})
	if err != nil {
		writeRPCError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
