package gateway

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/ledgerlog/ledger/pkg/rpc"
	"github.com/ledgerlog/ledger/pkg/rpcpool"
)

// decodeBody parses a JSON request body under the configured size cap
func (g *Gateway) decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, int64(g.cfg.Gateway.BodyLimitMB)<<20)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// accountCall runs fn against the account service behind its breaker
func (g *Gateway) accountCall(ctx context.Context, fn func(ctx context.Context) error) error {
	return g.breakers.Get(rpcpool.ServiceAccount).Execute(ctx, fn)
}

func (g *Gateway) handleRegister(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}
	if !g.decodeBody(w, r, &body) {
		return
	}

	ctx, cancel := g.callCtx(r)
	defer cancel()

	var reply *rpc.AccountReply
	err := g.accountCall(ctx, func(ctx context.Context) error {
		var callErr error
		reply, callErr = g.pools.Account().Register(ctx, &rpc.RegisterRequest{
			Email:    body.Email,
			Password: body.Password,
			Name:     body.Name,
		})
		return callErr
	})
	if err != nil {
		writeRPCError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, reply)
}

func (g *Gateway) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !g.decodeBody(w, r, &body) {
		return
	}

	ctx, cancel := g.callCtx(r)
	defer cancel()

	var reply *rpc.LoginReply
	err := g.accountCall(ctx, func(ctx context.Context) error {
		var callErr error
		reply, callErr = g.pools.Account().Login(ctx, &rpc.LoginRequest{
			Email:    body.Email,
			Password: body.Password,
		})
		return callErr
	})
	if err != nil {
		writeRPCError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func (g *Gateway) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	if !g.decodeBody(w, r, &body) {
		return
	}

	ctx, cancel := g.callCtx(r)
	defer cancel()

	var reply *rpc.LoginReply
	err := g.accountCall(ctx, func(ctx context.Context) error {
		var callErr error
		reply, callErr = g.pools.Account().Refresh(ctx, &rpc.RefreshRequest{RefreshToken: body.RefreshToken})
		return callErr
	})
	if err != nil {
		writeRPCError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func (g *Gateway) handleLogout(w http.ResponseWriter, r *http.Request) {
	p := PrincipalFrom(r.Context())
	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	// body is optional; absent means "revoke all sessions"
	_ = json.NewDecoder(r.Body).Decode(&body)

	ctx, cancel := g.callCtx(r)
	defer cancel()

	err := g.accountCall(ctx, func(ctx context.Context) error {
		_, callErr := g.pools.Account().Logout(ctx, &rpc.LogoutRequest{
			AccountID:    p.AccountID,
			RefreshToken: body.RefreshToken,
		})
		return callErr
	})
	if err != nil {
		writeRPCError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (g *Gateway) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	p := PrincipalFrom(r.Context())

	ctx, cancel := g.callCtx(r)
	defer cancel()

	var reply *rpc.AccountReply
	err := g.accountCall(ctx, func(ctx context.Context) error {
		var callErr error
		reply, callErr = g.pools.Account().GetAccount(ctx, &rpc.GetAccountRequest{AccountID: p.AccountID})
		return callErr
	})
	if err != nil {
		writeRPCError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func (g *Gateway) handleUpdateName(w http.ResponseWriter, r *http.Request) {
	p := PrincipalFrom(r.Context())
	var body struct {
		Name string `json:"name"`
	}
	if !g.decodeBody(w, r, &body) {
		return
	}

	ctx, cancel := g.callCtx(r)
	defer cancel()

	var reply *rpc.AccountReply
	err := g.accountCall(ctx, func(ctx context.Context) error {
		var callErr error
		reply, callErr = g.pools.Account().UpdateName(ctx, &rpc.UpdateNameRequest{
			AccountID: p.AccountID,
			Name:      body.Name,
		})
		return callErr
	})
	if err != nil {
		writeRPCError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func (g *Gateway) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	p := PrincipalFrom(r.Context())
	var body struct {
		OldPassword string `json:"old_password"`
		NewPassword string `json:"new_password"`
	}
	if !g.decodeBody(w, r, &body) {
		return
	}

	ctx, cancel := g.callCtx(r)
	defer cancel()

	err := g.accountCall(ctx, func(ctx context.Context) error {
		_, callErr := g.pools.Account().ChangePassword(ctx, &rpc.ChangePasswordRequest{
			AccountID:   p.AccountID,
			OldPassword: body.OldPassword,
			NewPassword: body.NewPassword,
		})
		return callErr
	})
	if err != nil {
		writeRPCError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
