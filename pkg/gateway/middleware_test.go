package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerlog/ledger/pkg/account"
	"github.com/ledgerlog/ledger/pkg/config"
	"github.com/ledgerlog/ledger/pkg/kv"
	"github.com/ledgerlog/ledger/pkg/types"
)

func testGateway(t *testing.T) (*Gateway, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	cache := kv.NewWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { cache.Close() })
	return New(config.Default(), nil, cache), mr
}

// okHandler records the principal it saw
func okHandler(got **Principal) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*got = PrincipalFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func cacheKey(t *testing.T, g *Gateway, secret string, rec *types.KeyValidation) {
	t.Helper()
	require.NoError(t, g.cache.SetKeyValidation(context.Background(),
		account.HashKey(secret), rec, 5*time.Minute, 15*time.Minute))
}

func validRecord() *types.KeyValidation {
	return &types.KeyValidation{
		Valid:              true,
		KeyID:              3,
		ProjectID:          7,
		AccountID:          42,
		RateLimitPerMinute: 100,
		RateLimitPerHour:   5000,
		DailyQuota:         100000,
		CurrentUsage:       10,
	}
}

func TestIsPublic(t *testing.T) {
	assert.True(t, isPublic("/health"))
	assert.True(t, isPublic("/metrics"))
	assert.True(t, isPublic("/api/v1/accounts/login"))
	assert.True(t, isPublic("/docs/openapi.json"))
	assert.False(t, isPublic("/api/v1/logs"))
	assert.False(t, isPublic("/api/v1/ingest/single"))
}

func TestExtractCredential(t *testing.T) {
	mk := func(header, value string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/api/v1/logs", nil)
		if header != "" {
			r.Header.Set(header, value)
		}
		return r
	}

	cred, isKey := extractCredential(mk("X-API-Key", "ledger_abc"))
	assert.Equal(t, "ledger_abc", cred)
	assert.True(t, isKey)

	cred, isKey = extractCredential(mk("Authorization", "Bearer ledger_abc"))
	assert.Equal(t, "ledger_abc", cred)
	assert.True(t, isKey)

	cred, isKey = extractCredential(mk("Authorization", "Bearer eyJhbGciOi.e30.sig"))
	assert.Equal(t, "eyJhbGciOi.e30.sig", cred)
	assert.False(t, isKey)

	cred, isKey = extractCredential(mk("Authorization", "ledger_bare"))
	assert.Equal(t, "ledger_bare", cred)
	assert.True(t, isKey)

	cred, _ = extractCredential(mk("", ""))
	assert.Empty(t, cred)
}

func TestAuthenticateMissingCredential(t *testing.T) {
	g, _ := testGateway(t)
	var p *Principal
	h := g.authenticate(okHandler(&p))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/logs", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Nil(t, p)
}

func TestAuthenticatePublicPathBypasses(t *testing.T) {
	g, _ := testGateway(t)
	var p *Principal
	h := g.authenticate(okHandler(&p))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, p)
}

func TestAuthenticateCachedApiKey(t *testing.T) {
	g, _ := testGateway(t)
	cacheKey(t, g, "ledger_secret1", validRecord())

	var p *Principal
	h := g.authenticate(okHandler(&p))

	r := httptest.NewRequest(http.MethodPost, "/api/v1/ingest/single", nil)
	r.Header.Set("X-API-Key", "ledger_secret1")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, p)
	assert.Equal(t, int64(7), p.ProjectID)
	assert.Equal(t, int64(42), p.AccountID)
	assert.True(t, p.HasProject())
}

func TestAuthenticateCachedInvalidKey(t *testing.T) {
	g, _ := testGateway(t)
	cacheKey(t, g, "ledger_revoked", &types.KeyValidation{Valid: false, Error: "revoked"})

	var p *Principal
	h := g.authenticate(okHandler(&p))

	r := httptest.NewRequest(http.MethodGet, "/api/v1/logs", nil)
	r.Header.Set("X-API-Key", "ledger_revoked")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthenticateSessionToken(t *testing.T) {
	g, _ := testGateway(t)
	token, err := g.tokens.MintAccess(42, "dev@example.com")
	require.NoError(t, err)

	var p *Principal
	h := g.authenticate(okHandler(&p))

	r := httptest.NewRequest(http.MethodGet, "/api/v1/projects/", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, p)
	assert.Equal(t, int64(42), p.AccountID)
	assert.False(t, p.HasProject())
}

func TestAuthenticateQuotaExceeded(t *testing.T) {
	g, _ := testGateway(t)
	rec := validRecord()
	rec.DailyQuota = 100
	rec.CurrentUsage = 100
	cacheKey(t, g, "ledger_over", rec)

	var p *Principal
	h := g.authenticate(okHandler(&p))

	r := httptest.NewRequest(http.MethodPost, "/api/v1/ingest/single", nil)
	r.Header.Set("X-API-Key", "ledger_over")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, http.StatusPaymentRequired, w.Code)
}

func TestAuthenticateQuotaUsesLiveCounter(t *testing.T) {
	g, _ := testGateway(t)
	rec := validRecord()
	rec.DailyQuota = 100
	rec.CurrentUsage = 10 // cached record looks fine
	cacheKey(t, g, "ledger_live", rec)

	// live counter is already over quota
	_, err := g.cache.IncrementDailyUsage(context.Background(), rec.ProjectID, time.Now().UTC(), 200)
	require.NoError(t, err)

	h := g.authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	r := httptest.NewRequest(http.MethodPost, "/api/v1/ingest/single", nil)
	r.Header.Set("X-API-Key", "ledger_live")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, http.StatusPaymentRequired, w.Code)
}

func TestRateLimitSkipsSessionPrincipals(t *testing.T) {
	g, _ := testGateway(t)
	h := g.rateLimit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	p := &Principal{AccountID: 42} // no project scope
	r := httptest.NewRequest(http.MethodGet, "/api/v1/projects/", nil)
	r = r.WithContext(withPrincipal(r.Context(), p))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("X-RateLimit-Limit-Minute"))
}

func TestRateLimitSetsHeaders(t *testing.T) {
	g, _ := testGateway(t)
	h := g.rateLimit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	p := &Principal{ProjectID: 7, RateLimitPerMinute: 100, RateLimitPerHour: 5000}
	r := httptest.NewRequest(http.MethodPost, "/api/v1/ingest/single", nil)
	r = r.WithContext(withPrincipal(r.Context(), p))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "100", w.Header().Get("X-RateLimit-Limit-Minute"))
	assert.Equal(t, "5000", w.Header().Get("X-RateLimit-Limit-Hour"))
}

func TestRateLimitRejectsOverMinuteLimit(t *testing.T) {
	g, _ := testGateway(t)
	h := g.rateLimit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	p := &Principal{ProjectID: 7, RateLimitPerMinute: 2, RateLimitPerHour: 5000}
	send := func() *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodPost, "/api/v1/ingest/single", nil)
		r = r.WithContext(withPrincipal(r.Context(), p))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		return w
	}

	assert.Equal(t, http.StatusOK, send().Code)
	assert.Equal(t, http.StatusOK, send().Code)

	w := send()
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining-Minute"))
}

func TestRateLimitFailsOpenOnKVError(t *testing.T) {
	g, mr := testGateway(t)
	mr.Close()

	h := g.rateLimit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	p := &Principal{ProjectID: 7, RateLimitPerMinute: 1, RateLimitPerHour: 1}
	r := httptest.NewRequest(http.MethodPost, "/api/v1/ingest/single", nil)
	r = r.WithContext(withPrincipal(r.Context(), p))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRemaining(t *testing.T) {
	assert.Equal(t, 5, remaining(10, 5))
	assert.Equal(t, 0, remaining(10, 10))
	assert.Equal(t, 0, remaining(10, 15))
}
