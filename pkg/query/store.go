package query

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ledgerlog/ledger/pkg/types"
)

const (
	defaultPageSize = 50
	maxPageSize     = 1000
)

// logColumns are the columns read back for every log row, in scan order.
const logColumns = `id, project_id, event_timestamp, ingestion_timestamp,
	level, log_type, importance,
	COALESCE(environment, ''), COALESCE(release, ''), COALESCE(message, ''),
	COALESCE(error_type, ''), COALESCE(error_message, ''), COALESCE(stack_trace, ''),
	attributes, COALESCE(sdk_version, ''), COALESCE(platform, ''), COALESCE(platform_version, ''),
	COALESCE(processing_time_ms, 0), COALESCE(error_fingerprint, '')`

// Store reads log rows and aggregated metrics from the SQL store
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a read store over an open pool
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// LogFilters narrows a log query. Zero values mean "no constraint".
type LogFilters struct {
	From        *time.Time
	To          *time.Time
	Level       string
	LogType     string
	Environment string
	Fingerprint string
}

// Page bounds a paginated read
type Page struct {
	Limit  int
	Offset int
}

func (p Page) normalize() Page {
	if p.Limit <= 0 {
		p.Limit = defaultPageSize
	}
	if p.Limit > maxPageSize {
		p.Limit = maxPageSize
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// QueryLogs returns a newest-first page of a project's logs plus the
// total match count.
func (s *Store) QueryLogs(ctx context.Context, projectID int64, f LogFilters, page Page) ([]*types.LogEvent, int64, error) {
	where, args := buildWhere(projectID, f)
	return s.pageLogs(ctx, where, args, page)
}

// SearchLogs returns newest-first logs whose message, error message or
// error type contains the query string, case-insensitively.
func (s *Store) SearchLogs(ctx context.Context, projectID int64, query string, f LogFilters, page Page) ([]*types.LogEvent, int64, error) {
	where, args := buildWhere(projectID, f)
	pattern := "%" + escapeLike(query) + "%"
	args = append(args, pattern)
	n := len(args)
	where = append(where, fmt.Sprintf(
		"(message ILIKE $%d OR error_message ILIKE $%d OR error_type ILIKE $%d)", n, n, n))
	return s.pageLogs(ctx, where, args, page)
}

// GetLog returns one log row iff it belongs to the project
func (s *Store) GetLog(ctx context.Context, logID, projectID int64) (*types.LogEvent, error) {
	row := s.pool.QueryRow(ctx,
		"SELECT "+logColumns+" FROM logs WHERE id = $1 AND project_id = $2", logID, projectID)
	ev, err := scanLog(row)
	if err == pgx.ErrNoRows {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get log: %w", err)
	}
	return ev, nil
}

// ErrorLogs returns newest-first logs with level error or critical over
// the range.
func (s *Store) ErrorLogs(ctx context.Context, projectID int64, from, to time.Time, page Page) ([]*types.LogEvent, int64, error) {
	where := []string{"project_id = $1", "event_timestamp >= $2", "event_timestamp < $3",
		"level IN ('error', 'critical')"}
	args := []interface{}{projectID, from, to}
	return s.pageLogs(ctx, where, args, page)
}

func (s *Store) pageLogs(ctx context.Context, where []string, args []interface{}, page Page) ([]*types.LogEvent, int64, error) {
	page = page.normalize()
	cond := strings.Join(where, " AND ")

	var total int64
	if err := s.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM logs WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count logs: %w", err)
	}

	sql := fmt.Sprintf(
		"SELECT %s FROM logs WHERE %s ORDER BY event_timestamp DESC, id DESC LIMIT $%d OFFSET $%d",
		logColumns, cond, len(args)+1, len(args)+2)
	rows, err := s.pool.Query(ctx, sql, append(args, page.Limit, page.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query logs: %w", err)
	}
	defer rows.Close()

	var logs []*types.LogEvent
	for rows.Next() {
		ev, err := scanLog(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan log row: %w", err)
		}
		logs = append(logs, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to read log rows: %w", err)
	}
	return logs, total, nil
}

func buildWhere(projectID int64, f LogFilters) ([]string, []interface{}) {
	where := []string{"project_id = $1"}
	args := []interface{}{projectID}
	add := func(cond string, val interface{}) {
		args = append(args, val)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.From != nil {
		add("event_timestamp >= $%d", *f.From)
	}
	if f.To != nil {
		add("event_timestamp < $%d", *f.To)
	}
	if f.Level != "" {
		add("level = $%d", f.Level)
	}
	if f.LogType != "" {
		add("log_type = $%d", f.LogType)
	}
	if f.Environment != "" {
		add("environment = $%d", f.Environment)
	}
	if f.Fingerprint != "" {
		add("error_fingerprint = $%d", f.Fingerprint)
	}
	return where, args
}

// escapeLike neutralizes LIKE metacharacters in user search input
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func scanLog(row pgx.Row) (*types.LogEvent, error) {
	var (
		ev    types.LogEvent
		attrs []byte
	)
	if err := row.Scan(
		&ev.ID, &ev.ProjectID, &ev.EventTimestamp, &ev.IngestionTimestamp,
		&ev.Level, &ev.LogType, &ev.Importance,
		&ev.Environment, &ev.Release, &ev.Message,
		&ev.ErrorType, &ev.ErrorMessage, &ev.StackTrace,
		&attrs, &ev.SDKVersion, &ev.Platform, &ev.PlatformVersion,
		&ev.ProcessingTimeMs, &ev.ErrorFingerprint,
	); err != nil {
		return nil, err
	}
	if len(attrs) > 0 {
		if err := json.Unmarshal(attrs, &ev.Attributes); err != nil {
			return nil, fmt.Errorf("failed to decode attributes: %w", err)
		}
	}
	return &ev, nil
}

// AggregatedRows reads the hourly metric rows feeding a bucketed reply.
// Rows come back date/hour ordered; bucket assembly happens in memory.
func (s *Store) AggregatedRows(ctx context.Context, projectID int64, metricType string, start, end time.Time, endpointPath string) ([]types.AggregatedMetric, error) {
	where := []string{
		"project_id = $1", "metric_type = $2",
		"(date_key || lpad(hour::text, 2, '0'))::bigint >= $3",
		"(date_key || lpad(hour::text, 2, '0'))::bigint < $4",
	}
	args := []interface{}{
		projectID, metricType,
		dateHourKey(start), dateHourKey(end),
	}
	if endpointPath != "" {
		args = append(args, endpointPath)
		where = append(where, fmt.Sprintf("endpoint_path = $%d", len(args)))
	}

	rows, err := s.pool.Query(ctx, `
		SELECT project_id, date_key, hour, metric_type,
		       endpoint_method, endpoint_path, log_level, log_type,
		       log_count, error_count,
		       avg_duration_ms, min_duration_ms, max_duration_ms,
		       p95_duration_ms, p99_duration_ms
		FROM aggregated_metrics
		WHERE `+strings.Join(where, " AND ")+`
		ORDER BY date_key, hour`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query aggregated metrics: %w", err)
	}
	defer rows.Close()

	var out []types.AggregatedMetric
	for rows.Next() {
		var m types.AggregatedMetric
		if err := rows.Scan(
			&m.ProjectID, &m.Date, &m.Hour, &m.MetricType,
			&m.EndpointMethod, &m.EndpointPath, &m.LogLevel, &m.LogType,
			&m.LogCount, &m.ErrorCount,
			&m.AvgDurationMs, &m.MinDurationMs, &m.MaxDurationMs,
			&m.P95DurationMs, &m.P99DurationMs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan metric row: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read metric rows: %w", err)
	}
	return out, nil
}

// dateHourKey collapses a timestamp to the sortable YYYYMMDDHH integer
// used to range over (date, hour) pairs.
func dateHourKey(t time.Time) int64 {
	t = t.UTC()
	return int64(t.Year())*1000000 + int64(t.Month())*10000 + int64(t.Day())*100 + int64(t.Hour())
}
