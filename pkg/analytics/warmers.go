package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ledgerlog/ledger/pkg/kv"
	"github.com/ledgerlog/ledger/pkg/log"
	"github.com/ledgerlog/ledger/pkg/query"
)

const topErrorsLimit = 10

// Warmer precomputes per-project metric snapshots and writes them to
// the KV cache so the query path can serve them without touching SQL.
type Warmer struct {
	pool  *pgxpool.Pool
	cache *kv.Client
	ttl   time.Duration
}

// NewWarmer creates the cache warmer jobs
func NewWarmer(pool *pgxpool.Pool, cache *kv.Client, ttl time.Duration) *Warmer {
	return &Warmer{pool: pool, cache: cache, ttl: ttl}
}

// activeProjects lists the projects the warmers iterate
func (w *Warmer) activeProjects(ctx context.Context) ([]int64, error) {
	rows, err := w.pool.Query(ctx, `SELECT id FROM projects ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan project id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// forEachProject runs fn per project, logging per-project failures
// without aborting the sweep. One slow or broken project must not
// starve the rest.
func (w *Warmer) forEachProject(ctx context.Context, jobName string, fn func(ctx context.Context, projectID int64) error) error {
	ids, err := w.activeProjects(ctx)
	if err != nil {
		return err
	}
	var failed int
	for _, id := range ids {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(ctx, id); err != nil {
			failed++
			logger := log.WithComponent("analytics")
			logger.Warn().
				Str("job", jobName).
				Int64("project_id", id).
				Err(err).
				Msg("cache warm failed for project")
		}
	}
	if failed > 0 {
		return fmt.Errorf("%s failed for %d of %d projects", jobName, failed, len(ids))
	}
	return nil
}

// WarmErrorRate snapshots the error rate over the trailing five
// minutes per project.
func (w *Warmer) WarmErrorRate(ctx context.Context) error {
	return w.forEachProject(ctx, "error_rate", func(ctx context.Context, projectID int64) error {
		now := time.Now().UTC()
		var total, errors int64
		err := w.pool.QueryRow(ctx, `
			SELECT COUNT(*),
			       COUNT(*) FILTER (WHERE level IN ('error', 'critical'))
			FROM logs
			WHERE project_id = $1 AND event_timestamp >= $2`,
			projectID, now.Add(-5*time.Minute)).Scan(&total, &errors)
		if err != nil {
			return err
		}

		rate := 0.0
		if total > 0 {
			rate = float64(errors) / float64(total)
		}
		snapshot := map[string]interface{}{
			"project_id":  projectID,
			"interval":    query.IntervalErrorRate,
			"total_logs":  total,
			"error_logs":  errors,
			"error_rate":  rate,
			"computed_at": now.Format(time.RFC3339),
		}
		return w.cache.SetJSON(ctx, kv.MetricsKey(query.KindErrorRate, projectID, query.IntervalErrorRate), snapshot, w.ttl)
	})
}

// WarmLogVolume snapshots per-level log counts over the trailing hour
func (w *Warmer) WarmLogVolume(ctx context.Context) error {
	return w.forEachProject(ctx, "log_volume", func(ctx context.Context, projectID int64) error {
		now := time.Now().UTC()
		rows, err := w.pool.Query(ctx, `
			SELECT level, COUNT(*)
			FROM logs
			WHERE project_id = $1 AND event_timestamp >= $2
			GROUP BY level`,
			projectID, now.Add(-time.Hour))
		if err != nil {
			return err
		}
		defer rows.Close()

		byLevel := map[string]int64{}
		var total int64
		for rows.Next() {
			var (
				level string
				count int64
			)
			if err := rows.Scan(&level, &count); err != nil {
				return err
			}
			byLevel[level] = count
			total += count
		}
		if err := rows.Err(); err != nil {
			return err
		}

		snapshot := map[string]interface{}{
			"project_id":  projectID,
			"interval":    query.IntervalLogVolume,
			"total_logs":  total,
			"by_level":    byLevel,
			"computed_at": now.Format(time.RFC3339),
		}
		return w.cache.SetJSON(ctx, kv.MetricsKey(query.KindLogVolume, projectID, query.IntervalLogVolume), snapshot, w.ttl)
	})
}

// WarmTopErrors snapshots the most frequent error groups seen in the
// trailing 24 hours.
func (w *Warmer) WarmTopErrors(ctx context.Context) error {
	return w.forEachProject(ctx, "top_errors", func(ctx context.Context, projectID int64) error {
		now := time.Now().UTC()
		rows, err := w.pool.Query(ctx, `
			SELECT fingerprint, error_type, error_message,
			       occurrence_count, first_seen, last_seen, status
			FROM error_groups
			WHERE project_id = $1 AND last_seen >= $2
			ORDER BY occurrence_count DESC, last_seen DESC
			LIMIT $3`,
			projectID, now.Add(-24*time.Hour), topErrorsLimit)
		if err != nil {
			return err
		}
		defer rows.Close()

		groups := []map[string]interface{}{}
		for rows.Next() {
			var (
				fingerprint, errType, errMsg, status string
				count                                int64
				firstSeen, lastSeen                  time.Time
			)
			if err := rows.Scan(&fingerprint, &errType, &errMsg, &count, &firstSeen, &lastSeen, &status); err != nil {
				return err
			}
			groups = append(groups, map[string]interface{}{
				"fingerprint":      fingerprint,
				"error_type":       errType,
				"error_message":    errMsg,
				"occurrence_count": count,
				"first_seen":       firstSeen.Format(time.RFC3339),
				"last_seen":        lastSeen.Format(time.RFC3339),
				"status":           status,
			})
		}
		if err := rows.Err(); err != nil {
			return err
		}

		snapshot := map[string]interface{}{
			"project_id":  projectID,
			"top_errors":  groups,
			"computed_at": now.Format(time.RFC3339),
		}
		return w.cache.SetJSON(ctx, kv.MetricsKey(query.KindTopErrors, projectID, ""), snapshot, w.ttl)
	})
}

// WarmUsageStats snapshots today's usage against the project quota
func (w *Warmer) WarmUsageStats(ctx context.Context) error {
	return w.forEachProject(ctx, "usage_stats", func(ctx context.Context, projectID int64) error {
		now := time.Now().UTC()
		var (
			quota    int64
			ingested int64
			queried  int64
			storage  int64
		)
		err := w.pool.QueryRow(ctx, `
			SELECT p.daily_quota,
			       COALESCE(u.logs_ingested, 0),
			       COALESCE(u.logs_queried, 0),
			       COALESCE(u.storage_bytes, 0)
			FROM projects p
			LEFT JOIN daily_usage u
			  ON u.project_id = p.id AND u.usage_date = $2
			WHERE p.id = $1`,
			projectID, now.Format("2006-01-02")).Scan(&quota, &ingested, &queried, &storage)
		if err != nil {
			return err
		}

		pct := 0.0
		if quota > 0 {
			pct = float64(ingested) / float64(quota) * 100
		}
		snapshot := map[string]interface{}{
			"project_id":     projectID,
			"date":           now.Format("20060102"),
			"logs_ingested":  ingested,
			"logs_queried":   queried,
			"storage_bytes":  storage,
			"daily_quota":    quota,
			"quota_used_pct": pct,
			"computed_at":    now.Format(time.RFC3339),
		}
		return w.cache.SetJSON(ctx, kv.MetricsKey(query.KindUsageStats, projectID, ""), snapshot, w.ttl)
	})
}
