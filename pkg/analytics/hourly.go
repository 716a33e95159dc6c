package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ledgerlog/ledger/pkg/log"
)

// Aggregator computes the hourly rollups for the previous completed
// hour. All writes are UPSERTs on the metric uniqueness key, so
// re-running an hour is harmless.
type Aggregator struct {
	pool *pgxpool.Pool
}

// NewAggregator creates the hourly rollup jobs over an open pool
func NewAggregator(pool *pgxpool.Pool) *Aggregator {
	return &Aggregator{pool: pool}
}

// previousHour returns the start of the last fully completed hour
func previousHour(now time.Time) time.Time {
	return now.UTC().Truncate(time.Hour).Add(-time.Hour)
}

const upsertMetricSuffix = `
	ON CONFLICT (project_id, date_key, hour, metric_type,
	             endpoint_method, endpoint_path, log_level, log_type)
	DO UPDATE SET
		log_count       = EXCLUDED.log_count,
		error_count     = EXCLUDED.error_count,
		avg_duration_ms = EXCLUDED.avg_duration_ms,
		min_duration_ms = EXCLUDED.min_duration_ms,
		max_duration_ms = EXCLUDED.max_duration_ms,
		p95_duration_ms = EXCLUDED.p95_duration_ms,
		p99_duration_ms = EXCLUDED.p99_duration_ms`

// intPattern and numericPattern decide which attribute values are safe
// to cast. Anything else becomes NULL in the rollup instead of aborting
// the whole statement with a cast error.
const (
	intPattern     = `^[0-9]+$`
	numericPattern = `^-?[0-9]+(\.[0-9]+)?$`

	statusCodeExpr = `CASE WHEN attributes->>'status_code' ~ '` + intPattern + `'
			THEN (attributes->>'status_code')::int END`
	durationExpr = `CASE WHEN attributes->>'duration_ms' ~ '` + numericPattern + `'
			THEN (attributes->>'duration_ms')::double precision END`
)

// RunEndpointMetrics rolls up endpoint logs of the previous hour by
// (project, method, path): request count, error count (status >= 400)
// and the duration distribution including p95/p99.
func (a *Aggregator) RunEndpointMetrics(ctx context.Context) error {
	hour := previousHour(time.Now())
	tag, err := a.pool.Exec(ctx, `
		INSERT INTO aggregated_metrics
			(project_id, date_key, hour, metric_type,
			 endpoint_method, endpoint_path, log_level, log_type,
			 log_count, error_count,
			 avg_duration_ms, min_duration_ms, max_duration_ms,
			 p95_duration_ms, p99_duration_ms)
		SELECT
			project_id, $1, $2, 'endpoint',
			method, path, '', '',
			COUNT(*),
			COUNT(*) FILTER (WHERE status_code >= 400),
			COALESCE(AVG(duration_ms), 0),
			COALESCE(MIN(duration_ms), 0),
			COALESCE(MAX(duration_ms), 0),
			COALESCE(percentile_cont(0.95) WITHIN GROUP (ORDER BY duration_ms), 0),
			COALESCE(percentile_cont(0.99) WITHIN GROUP (ORDER BY duration_ms), 0)
		FROM (
			SELECT
				project_id,
				COALESCE(attributes->>'method', '') AS method,
				COALESCE(attributes->>'path', '') AS path,
				`+statusCodeExpr+` AS status_code,
				`+durationExpr+` AS duration_ms
			FROM logs
			WHERE log_type = 'endpoint'
			  AND event_timestamp >= $3 AND event_timestamp < $4
		) endpoint_logs
		GROUP BY project_id, method, path`+upsertMetricSuffix,
		hour.Format("20060102"), hour.Hour(), hour, hour.Add(time.Hour))
	if err != nil {
		return fmt.Errorf("endpoint metrics rollup failed: %w", err)
	}
	logger := log.WithComponent("analytics")
	logger.Debug().
		Time("hour", hour).
		Int64("rows", tag.RowsAffected()).
		Msg("endpoint metrics rolled up")
	return nil
}

// RunExceptionMetrics counts exception logs of the previous hour per
// project. The dimensional columns stay empty; every exception counts
// as an error.
func (a *Aggregator) RunExceptionMetrics(ctx context.Context) error {
	hour := previousHour(time.Now())
	_, err := a.pool.Exec(ctx, `
		INSERT INTO aggregated_metrics
			(project_id, date_key, hour, metric_type,
			 endpoint_method, endpoint_path, log_level, log_type,
			 log_count, error_count,
			 avg_duration_ms, min_duration_ms, max_duration_ms,
			 p95_duration_ms, p99_duration_ms)
		SELECT
			project_id, $1, $2, 'exception', '', '', '', '',
			COUNT(*), COUNT(*), 0, 0, 0, 0, 0
		FROM logs
		WHERE log_type = 'exception'
		  AND event_timestamp >= $3 AND event_timestamp < $4
		GROUP BY project_id`+upsertMetricSuffix,
		hour.Format("20060102"), hour.Hour(), hour, hour.Add(time.Hour))
	if err != nil {
		return fmt.Errorf("exception metrics rollup failed: %w", err)
	}
	return nil
}

// RunLogVolumeMetrics rolls up all logs of the previous hour by
// (project, level, log-type); only error and critical rows count
// toward error_count.
func (a *Aggregator) RunLogVolumeMetrics(ctx context.Context) error {
	hour := previousHour(time.Now())
	_, err := a.pool.Exec(ctx, `
		INSERT INTO aggregated_metrics
			(project_id, date_key, hour, metric_type,
			 endpoint_method, endpoint_path, log_level, log_type,
			 log_count, error_count,
			 avg_duration_ms, min_duration_ms, max_duration_ms,
			 p95_duration_ms, p99_duration_ms)
		SELECT
			project_id, $1, $2, 'log_volume', '', '', level, log_type,
			COUNT(*),
			COUNT(*) FILTER (WHERE level IN ('error', 'critical')),
			0, 0, 0, 0, 0
		FROM logs
		WHERE event_timestamp >= $3 AND event_timestamp < $4
		GROUP BY project_id, level, log_type`+upsertMetricSuffix,
		hour.Format("20060102"), hour.Hour(), hour, hour.Add(time.Hour))
	if err != nil {
		return fmt.Errorf("log volume rollup failed: %w", err)
	}
	return nil
}

// RunBottleneckMetrics computes per-route latency summaries for every
// project that logged anything in the previous hour and has a
// non-empty route list. Routes with no traffic still get a zero row so
// dashboards can tell "quiet" from "not measured".
func (a *Aggregator) RunBottleneckMetrics(ctx context.Context) error {
	hour := previousHour(time.Now())

	rows, err := a.pool.Query(ctx, `
		SELECT p.id, p.available_routes
		FROM projects p
		WHERE p.available_routes <> '[]'::jsonb
		  AND EXISTS (
			SELECT 1 FROM logs l
			WHERE l.project_id = p.id
			  AND l.event_timestamp >= $1 AND l.event_timestamp < $2
		  )`, hour, hour.Add(time.Hour))
	if err != nil {
		return fmt.Errorf("failed to list projects for bottleneck rollup: %w", err)
	}
	defer rows.Close()

	type target struct {
		projectID int64
		routes    []string
	}
	var targets []target
	for rows.Next() {
		var (
			t   target
			raw []byte
		)
		if err := rows.Scan(&t.projectID, &raw); err != nil {
			return fmt.Errorf("failed to scan project routes: %w", err)
		}
		if err := json.Unmarshal(raw, &t.routes); err != nil {
			logger := log.WithComponent("analytics")
			logger.Warn().
				Int64("project_id", t.projectID).
				Err(err).
				Msg("skipping project with undecodable routes")
			continue
		}
		targets = append(targets, t)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read project routes: %w", err)
	}

	for _, t := range targets {
		for _, route := range t.routes {
			if err := a.upsertBottleneck(ctx, t.projectID, route, hour); err != nil {
				return err
			}
		}
	}
	return nil
}

func (a *Aggregator) upsertBottleneck(ctx context.Context, projectID int64, route string, hour time.Time) error {
	_, err := a.pool.Exec(ctx, `
		INSERT INTO bottleneck_metrics
			(project_id, date_key, hour, route,
			 log_count, min_duration_ms, max_duration_ms,
			 avg_duration_ms, median_duration_ms)
		SELECT
			$1, $2, $3, $4,
			COUNT(*),
			COALESCE(MIN(duration_ms), 0),
			COALESCE(MAX(duration_ms), 0),
			COALESCE(AVG(duration_ms), 0),
			COALESCE(percentile_cont(0.5) WITHIN GROUP (ORDER BY duration_ms), 0)
		FROM (
			SELECT `+durationExpr+` AS duration_ms
			FROM logs
			WHERE project_id = $1
			  AND log_type = 'endpoint'
			  AND attributes->>'path' = $4
			  AND event_timestamp >= $5 AND event_timestamp < $6
		) route_logs
		ON CONFLICT (project_id, date_key, hour, route)
		DO UPDATE SET
			log_count          = EXCLUDED.log_count,
			min_duration_ms    = EXCLUDED.min_duration_ms,
			max_duration_ms    = EXCLUDED.max_duration_ms,
			avg_duration_ms    = EXCLUDED.avg_duration_ms,
			median_duration_ms = EXCLUDED.median_duration_ms`,
		projectID, hour.Format("20060102"), hour.Hour(), route, hour, hour.Add(time.Hour))
	if err != nil {
		return fmt.Errorf("bottleneck rollup failed for route %s: %w", route, err)
	}
	return nil
}
