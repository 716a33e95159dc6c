package gateway

import (
	"net/http"
	"time"
)

var startTime = time.Now()

func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"uptime":  time.Since(startTime).String(),
		"service": "gateway",
	})
}

// handleHealthDeep checks the KV store and summarizes downstream
// connectivity via the pool and breaker state.
func (g *Gateway) handleHealthDeep(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := g.callCtx(r)
	defer cancel()

	components := map[string]string{}
	healthy := true

	if err := g.cache.Ping(ctx); err != nil {
		components["redis"] = "unhealthy: " + err.Error()
		healthy = false
	} else {
		components["redis"] = "healthy"
	}

	for name, stats := range g.pools.Stats() {
		if stats.ReadyConns == 0 {
			components["pool:"+name] = "no ready connections"
			healthy = false
		} else {
			components["pool:"+name] = "healthy"
		}
	}

	for name, stats := range g.breakers.Stats() {
		components["breaker:"+name] = stats.State
		if stats.State == "open" {
			healthy = false
		}
	}

	status, code := "healthy", http.StatusOK
	if !healthy {
		status, code = "degraded", http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]interface{}{
		"status":     status,
		"components": components,
	})
}

// handleStats exposes breaker, pool and cache counters for operators
func (g *Gateway) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"uptime_seconds": int64(time.Since(startTime).Seconds()),
		"breakers":       g.breakers.Stats(),
		"pools":          g.pools.Stats(),
		"cache": map[string]interface{}{
			"api_key_ttl_s": g.cfg.Cache.ApiKeyTTLSeconds,
			"stale_ttl_s":   g.cfg.Cache.StaleTTLSeconds,
		},
	})
}
