package gateway

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/ledgerlog/ledger/pkg/account"
	"github.com/ledgerlog/ledger/pkg/breaker"
	"github.com/ledgerlog/ledger/pkg/config"
	"github.com/ledgerlog/ledger/pkg/kv"
	"github.com/ledgerlog/ledger/pkg/log"
	"github.com/ledgerlog/ledger/pkg/metrics"
	"github.com/ledgerlog/ledger/pkg/rpcpool"
)

// Gateway is the public HTTP edge: REST surface, authentication,
// rate limiting, circuit breaking and SSE fan-out in one process.
type Gateway struct {
	cfg      *config.Config
	pools    *rpcpool.Manager
	breakers *breaker.Registry
	cache    *kv.Client
	tokens   *account.TokenIssuer
	srv      *http.Server
}

// New assembles the gateway from its dependencies
func New(cfg *config.Config, pools *rpcpool.Manager, cache *kv.Client) *Gateway {
	g := &Gateway{
		cfg:      cfg,
		pools:    pools,
		breakers: breaker.NewRegistry(cfg.Breaker),
		cache:    cache,
		tokens:   account.NewTokenIssuer(cfg.Security),
	}
	g.srv = &http.Server{
		Addr:         cfg.Gateway.ListenAddr,
		Handler:      g.router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // SSE streams stay open
		IdleTimeout:  120 * time.Second,
	}
	return g
}

func (g *Gateway) router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(g.observe)
	r.Use(g.authenticate)
	r.Use(g.rateLimit)

	r.Get("/health", g.handleHealth)
	r.Get("/health/deep", g.handleHealthDeep)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	r.Get("/internal/stats", g.handleStats)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/accounts", func(r chi.Router) {
			r.Post("/register", g.handleRegister)
			r.Post("/login", g.handleLogin)
			r.Post("/refresh", g.handleRefresh)
			r.Post("/logout", g.handleLogout)
			r.Get("/me", g.handleGetAccount)
			r.Patch("/me/name", g.handleUpdateName)
			r.Post("/me/password", g.handleChangePassword)
		})

		r.Route("/projects", func(r chi.Router) {
			r.Post("/", g.handleCreateProject)
			r.Get("/", g.handleListProjects)
			r.Get("/{slug}", g.handleGetProject)
			r.Post("/{projectID}/api-keys", g.handleCreateApiKey)
			r.Get("/{projectID}/api-keys", g.handleListApiKeys)
		})
		r.Delete("/api-keys/{keyID}", g.handleRevokeApiKey)
		r.Get("/usage/daily", g.handleDailyUsage)

		r.Route("/dashboard/panels", func(r chi.Router) {
			r.Get("/", g.handleListPanels)
			r.Post("/", g.handleCreatePanel)
			r.Put("/{panelID}", g.handleUpdatePanel)
			r.Delete("/{panelID}", g.handleDeletePanel)
		})

		r.Route("/ingest", func(r chi.Router) {
			r.Post("/single", g.handleIngestSingle)
			r.Post("/batch", g.handleIngestBatch)
		})
		r.Get("/queue/depth", g.handleQueueDepth)

		r.Route("/logs", func(r chi.Router) {
			r.Get("/", g.handleQueryLogs)
			r.Get("/search", g.handleSearchLogs)
			r.Get("/{logID}", g.handleGetLog)
		})
		r.Get("/errors/list", g.handleErrorList)

		r.Route("/metrics", func(r chi.Router) {
			r.Get("/aggregated", g.handleAggregatedMetrics)
			r.Get("/error-rate", g.cachedMetricsHandler(func(ctx context.Context, projectID int64) (interface{}, error) {
				return g.queryCached(ctx, projectID, "error_rate")
			}))
			r.Get("/log-volume", g.cachedMetricsHandler(func(ctx context.Context, projectID int64) (interface{}, error) {
				return g.queryCached(ctx, projectID, "log_volume")
			}))
			r.Get("/top-errors", g.cachedMetricsHandler(func(ctx context.Context, projectID int64) (interface{}, error) {
				return g.queryCached(ctx, projectID, "top_errors")
			}))
			r.Get("/usage-stats", g.cachedMetricsHandler(func(ctx context.Context, projectID int64) (interface{}, error) {
				return g.queryCached(ctx, projectID, "usage_stats")
			}))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/stream", g.handleNotificationStream)
			r.Get("/health", g.handleNotificationHealth)
			r.Get("/preferences", g.handleGetPreferences)
			r.Put("/preferences", g.handlePutPreferences)
		})
	})

	return r
}

// Start runs the HTTP server until the listener fails or Stop is
// called.
func (g *Gateway) Start() error {
	logger := log.WithComponent("gateway")
	logger.Info().
		Str("addr", g.cfg.Gateway.ListenAddr).
		Msg("gateway listening")
	if err := g.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("gateway server failed: %w", err)
	}
	return nil
}

// Stop shuts the server down gracefully
func (g *Gateway) Stop(ctx context.Context) error {
	logger := log.WithComponent("gateway")
	logger.Info().Msg("gateway shutting down")
	return g.srv.Shutdown(ctx)
}

// callCtx derives the per-call deadline for downstream RPCs
func (g *Gateway) callCtx(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), time.Duration(g.cfg.GRPC.RequestTimeoutS)*time.Second)
}
