package gateway

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/ledgerlog/ledger/pkg/account"
	"github.com/ledgerlog/ledger/pkg/breaker"
	"github.com/ledgerlog/ledger/pkg/log"
	"github.com/ledgerlog/ledger/pkg/metrics"
	"github.com/ledgerlog/ledger/pkg/rpc"
	"github.com/ledgerlog/ledger/pkg/rpcpool"
	"github.com/ledgerlog/ledger/pkg/types"
)

// publicPaths bypass authentication and rate limiting
var publicPaths = map[string]bool{
	"/health":                      true,
	"/health/deep":                 true,
	"/metrics":                     true,
	"/internal/stats":              true,
	"/api/v1/accounts/register":    true,
	"/api/v1/accounts/login":       true,
	"/api/v1/accounts/refresh":     true,
	"/api/v1/notifications/health": true,
}

func isPublic(path string) bool {
	return publicPaths[path] || strings.HasPrefix(path, "/docs")
}

// observe records request count and latency per route
func (g *Gateway) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		metrics.HTTPRequestsTotal.WithLabelValues(
			r.Method, r.URL.Path, strconv.Itoa(ww.Status())).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(
			r.Method, r.URL.Path).Observe(time.Since(start).Seconds())
	})
}

// authenticate resolves the request credential to a Principal.
//
// Credential order: X-API-Key header, then Authorization Bearer
// (API key when it carries a key prefix, session token otherwise),
// then a bare Authorization value treated as an API key.
func (g *Gateway) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isPublic(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		credential, isKey := extractCredential(r)
		if credential == "" {
			writeError(w, http.StatusUnauthorized, "missing credential")
			return
		}

		var (
			principal *Principal
			err       error
		)
		if isKey {
			principal, err = g.resolveApiKey(r.Context(), credential)
		} else {
			principal, err = g.resolveSession(credential)
		}
		if err != nil {
			g.writeAuthError(w, err)
			return
		}

		if principal.HasProject() {
			if ok := g.checkQuota(r.Context(), principal); !ok {
				writeError(w, http.StatusPaymentRequired, "daily quota exceeded")
				return
			}
		}

		next.ServeHTTP(w, r.WithContext(withPrincipal(r.Context(), principal)))
	})
}

func extractCredential(r *http.Request) (credential string, isKey bool) {
	if v := r.Header.Get("X-API-Key"); v != "" {
		return v, true
	}
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return "", false
	}
	if v, found := strings.CutPrefix(auth, "Bearer "); found {
		return v, account.LooksLikeApiKey(v)
	}
	return auth, true
}

// errStaleUnavailable marks an auth failure where the downstream was
// unreachable and no stale cache entry existed.
var errStaleUnavailable = errors.New("authentication service unavailable")

func (g *Gateway) writeAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errStaleUnavailable):
		writeError(w, http.StatusServiceUnavailable, "service temporarily unavailable")
	case errors.Is(err, types.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, "invalid credential")
	default:
		writeRPCError(w, err)
	}
}

// resolveApiKey validates an API-key secret: fresh cache first, then
// the account service behind its breaker, then the stale cache when
// the service is unreachable.
func (g *Gateway) resolveApiKey(ctx context.Context, secret string) (*Principal, error) {
	hash := account.HashKey(secret)

	rec, refresh, err := g.cache.GetKeyValidation(ctx, hash)
	if err != nil {
		logger := log.WithComponent("gateway")
		logger.Warn().Err(err).Msg("api key cache read failed")
	}
	if rec != nil {
		metrics.AuthCacheHits.WithLabelValues("hit").Inc()
		if refresh {
			go g.revalidateKey(secret, hash)
		}
		return principalFromRecord(rec)
	}
	metrics.AuthCacheHits.WithLabelValues("miss").Inc()

	reply, err := g.validateRemote(ctx, secret)
	switch {
	case err == nil:
		go g.cacheValidation(hash, reply)
		return principalFromRecord(reply)
	case errors.Is(err, breaker.ErrOpen), errors.Is(err, breaker.ErrRecovering), rpc.IsUnavailable(err):
		stale, staleErr := g.cache.GetStaleKeyValidation(ctx, hash)
		if staleErr == nil && stale != nil {
			metrics.AuthCacheHits.WithLabelValues("stale").Inc()
			logger := log.WithComponent("gateway")
			logger.Warn().
				Int64("project_id", stale.ProjectID).
				Msg("account service unreachable, serving stale key validation")
			return principalFromRecord(stale)
		}
		return nil, errStaleUnavailable
	default:
		return nil, err
	}
}

func (g *Gateway) validateRemote(ctx context.Context, secret string) (*types.KeyValidation, error) {
	var reply *types.KeyValidation
	err := g.breakers.Get(rpcpool.ServiceAccount).Execute(ctx, func(ctx context.Context) error {
		var callErr error
		reply, callErr = g.pools.Account().ValidateApiKey(ctx, &rpc.ValidateApiKeyRequest{Key: secret})
		return callErr
	})
	if err != nil {
		return nil, err
	}
	return reply, nil
}

func principalFromRecord(rec *types.KeyValidation) (*Principal, error) {
	if !rec.Valid {
		return nil, types.ErrUnauthenticated
	}
	return &Principal{
		AccountID:          rec.AccountID,
		ProjectID:          rec.ProjectID,
		KeyID:              rec.KeyID,
		RateLimitPerMinute: rec.RateLimitPerMinute,
		RateLimitPerHour:   rec.RateLimitPerHour,
		DailyQuota:         rec.DailyQuota,
		CurrentUsage:       rec.CurrentUsage,
	}, nil
}

// cacheValidation populates the cache off the request path. Invalid
// keys are cached too, so repeated garbage does not hammer the
// account service.
func (g *Gateway) cacheValidation(hash string, rec *types.KeyValidation) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := g.cache.SetKeyValidation(ctx, hash, rec,
		time.Duration(g.cfg.Cache.ApiKeyTTLSeconds)*time.Second,
		time.Duration(g.cfg.Cache.StaleTTLSeconds)*time.Second); err != nil {
		logger := log.WithComponent("gateway")
		logger.Warn().Err(err).Msg("failed to cache key validation")
	}
}

// revalidateKey refreshes a nearly expired cache entry in the
// background so hot keys never miss.
func (g *Gateway) revalidateKey(secret, hash string) {
	ctx, cancel := context.WithTimeout(context.Background(),
		time.Duration(g.cfg.GRPC.RequestTimeoutS)*time.Second)
	defer cancel()
	reply, err := g.validateRemote(ctx, secret)
	if err != nil {
		return
	}
	g.cacheValidation(hash, reply)
}

func (g *Gateway) resolveSession(token string) (*Principal, error) {
	claims, err := g.tokens.VerifyAccess(token)
	if err != nil {
		return nil, types.ErrUnauthenticated
	}
	return &Principal{
		AccountID:          claims.AccountID,
		RateLimitPerMinute: g.cfg.Security.DefaultRatePerMin,
		RateLimitPerHour:   g.cfg.Security.DefaultRatePerHour,
		DailyQuota:         g.cfg.Security.DefaultDailyQuota,
	}, nil
}

// checkQuota enforces the daily ingestion quota on every
// project-scoped request. The live KV counter wins over the cached
// record; on KV failure the cached usage decides (fail-open toward
// the older number).
func (g *Gateway) checkQuota(ctx context.Context, p *Principal) bool {
	if p.DailyQuota <= 0 {
		return true
	}
	usage := p.CurrentUsage
	if live, err := g.cache.GetDailyUsage(ctx, p.ProjectID, time.Now().UTC()); err == nil && live > usage {
		usage = live
	}
	return usage < p.DailyQuota
}

// rateLimit enforces the per-minute and per-hour windows for
// project-scoped requests. Limit headers are set on every
// authenticated project request, allowed or not; rejections add
// Retry-After and the remaining budget. KV failures fail open.
func (g *Gateway) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := PrincipalFrom(r.Context())
		if p == nil || !p.HasProject() {
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Limit-Minute", strconv.Itoa(p.RateLimitPerMinute))
		w.Header().Set("X-RateLimit-Limit-Hour", strconv.Itoa(p.RateLimitPerHour))

		decision, err := g.cache.CheckRateLimit(r.Context(), p.ProjectID, p.RateLimitPerMinute, p.RateLimitPerHour)
		if err != nil {
			logger := log.WithComponent("gateway")
			logger.Warn().Err(err).Msg("rate limit check failed, allowing request")
			next.ServeHTTP(w, r)
			return
		}
		if !decision.Allowed {
			metrics.RateLimitRejections.WithLabelValues(decision.Window).Inc()
			w.Header().Set("Retry-After", strconv.Itoa(decision.RetryAfterSeconds))
			w.Header().Set("X-RateLimit-Remaining-Minute",
				strconv.Itoa(remaining(p.RateLimitPerMinute, decision.MinuteCount)))
			w.Header().Set("X-RateLimit-Remaining-Hour",
				strconv.Itoa(remaining(p.RateLimitPerHour, decision.HourCount)))
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func remaining(limit int, count int64) int {
	if rest := int64(limit) - count; rest > 0 {
		return int(rest)
	}
	return 0
}
