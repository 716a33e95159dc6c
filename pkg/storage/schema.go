package storage

import (
	"context"
	"fmt"
)

// schema holds the bootstrap DDL, applied in order by Migrate. Every
// statement is idempotent; the migrate command can run on every deploy.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		id            BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		email         TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		display_name  TEXT NOT NULL DEFAULT '',
		plan          TEXT NOT NULL DEFAULT 'free'
		              CHECK (plan IN ('free', 'pro', 'enterprise')),
		status        TEXT NOT NULL DEFAULT 'active'
		              CHECK (status IN ('active', 'suspended', 'deleted')),
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id         BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		account_id BIGINT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
		token_hash TEXT NOT NULL,
		expires_at TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_refresh_tokens_account
		ON refresh_tokens (account_id)`,

	`CREATE TABLE IF NOT EXISTS projects (
		id               BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		account_id       BIGINT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
		name             TEXT NOT NULL,
		slug             TEXT NOT NULL UNIQUE
		                 CHECK (slug ~ '^[a-z0-9_-]+$'),
		environment      TEXT NOT NULL DEFAULT 'production'
		                 CHECK (environment IN ('production', 'staging', 'dev')),
		retention_days   INT NOT NULL DEFAULT 30
		                 CHECK (retention_days BETWEEN 1 AND 365),
		daily_quota      BIGINT NOT NULL DEFAULT 1000000
		                 CHECK (daily_quota >= 1000),
		available_routes JSONB NOT NULL DEFAULT '[]',
		created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_projects_account
		ON projects (account_id)`,

	`CREATE TABLE IF NOT EXISTS api_keys (
		id                    BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		project_id            BIGINT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		key_prefix            TEXT NOT NULL,
		key_hash              TEXT NOT NULL UNIQUE,
		display_name          TEXT NOT NULL DEFAULT '',
		status                TEXT NOT NULL DEFAULT 'active'
		                      CHECK (status IN ('active', 'revoked')),
		expires_at            TIMESTAMPTZ,
		rate_limit_per_minute INT NOT NULL CHECK (rate_limit_per_minute >= 10),
		rate_limit_per_hour   INT NOT NULL CHECK (rate_limit_per_hour >= 100),
		last_used_at          TIMESTAMPTZ,
		created_at            TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_api_keys_project
		ON api_keys (project_id)`,

	`CREATE TABLE IF NOT EXISTS daily_usage (
		project_id    BIGINT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		usage_date    DATE NOT NULL,
		logs_ingested BIGINT NOT NULL DEFAULT 0,
		logs_queried  BIGINT NOT NULL DEFAULT 0,
		storage_bytes BIGINT NOT NULL DEFAULT 0,
		PRIMARY KEY (project_id, usage_date)
	)`,

	`CREATE TABLE IF NOT EXISTS user_dashboards (
		account_id BIGINT PRIMARY KEY REFERENCES accounts(id) ON DELETE CASCADE,
		panels     JSONB NOT NULL DEFAULT '[]',
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS notification_preferences (
		account_id BIGINT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
		project_id BIGINT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		enabled    BOOLEAN NOT NULL DEFAULT true,
		levels     JSONB NOT NULL DEFAULT '["error", "critical"]',
		types      JSONB NOT NULL DEFAULT '[]',
		PRIMARY KEY (account_id, project_id)
	)`,

	`CREATE TABLE IF NOT EXISTS logs (
		id                  BIGINT GENERATED ALWAYS AS IDENTITY,
		project_id          BIGINT NOT NULL,
		event_timestamp     TIMESTAMPTZ NOT NULL,
		ingestion_timestamp TIMESTAMPTZ NOT NULL DEFAULT now(),
		level               TEXT NOT NULL
		                    CHECK (level IN ('debug', 'info', 'warning', 'error', 'critical')),
		log_type            TEXT NOT NULL
		                    CHECK (log_type IN ('console', 'logger', 'exception',
		                                        'network', 'database', 'endpoint', 'custom')),
		importance          TEXT NOT NULL DEFAULT 'standard'
		                    CHECK (importance IN ('critical', 'high', 'standard', 'low')),
		environment         TEXT,
		release             TEXT,
		message             TEXT,
		error_type          TEXT,
		error_message       TEXT,
		stack_trace         TEXT,
		attributes          JSONB,
		sdk_version         TEXT,
		platform            TEXT,
		platform_version    TEXT,
		processing_time_ms  DOUBLE PRECISION,
		error_fingerprint   TEXT,
		PRIMARY KEY (id, event_timestamp)
	) PARTITION BY RANGE (event_timestamp)`,
	`CREATE INDEX IF NOT EXISTS idx_logs_project_time
		ON logs (project_id, event_timestamp DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_logs_project_errors
		ON logs (project_id, level, event_timestamp DESC)
		WHERE level IN ('error', 'critical')`,
	`CREATE INDEX IF NOT EXISTS idx_logs_project_fingerprint
		ON logs (project_id, error_fingerprint, event_timestamp DESC)
		WHERE error_fingerprint IS NOT NULL`,
	`CREATE INDEX IF NOT EXISTS idx_logs_attributes
		ON logs USING GIN (attributes)`,

	`CREATE TABLE IF NOT EXISTS error_groups (
		id                 BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		project_id         BIGINT NOT NULL,
		fingerprint        TEXT NOT NULL,
		error_type         TEXT NOT NULL DEFAULT '',
		error_message      TEXT NOT NULL DEFAULT '',
		first_seen         TIMESTAMPTZ NOT NULL,
		last_seen          TIMESTAMPTZ NOT NULL,
		occurrence_count   BIGINT NOT NULL DEFAULT 0,
		status             TEXT NOT NULL DEFAULT 'unresolved'
		                   CHECK (status IN ('unresolved', 'resolved', 'ignored', 'muted')),
		sample_log_id      BIGINT,
		sample_stack_trace TEXT,
		UNIQUE (project_id, fingerprint)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_error_groups_last_seen
		ON error_groups (project_id, last_seen DESC)`,

	`CREATE TABLE IF NOT EXISTS aggregated_metrics (
		id              BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		project_id      BIGINT NOT NULL,
		date_key        TEXT NOT NULL,
		hour            INT NOT NULL CHECK (hour BETWEEN 0 AND 23),
		metric_type     TEXT NOT NULL
		                CHECK (metric_type IN ('exception', 'endpoint', 'log_volume')),
		endpoint_method TEXT NOT NULL DEFAULT '',
		endpoint_path   TEXT NOT NULL DEFAULT '',
		log_level       TEXT NOT NULL DEFAULT '',
		log_type        TEXT NOT NULL DEFAULT '',
		log_count       BIGINT NOT NULL DEFAULT 0,
		error_count     BIGINT NOT NULL DEFAULT 0,
		avg_duration_ms DOUBLE PRECISION NOT NULL DEFAULT 0,
		min_duration_ms DOUBLE PRECISION NOT NULL DEFAULT 0,
		max_duration_ms DOUBLE PRECISION NOT NULL DEFAULT 0,
		p95_duration_ms DOUBLE PRECISION NOT NULL DEFAULT 0,
		p99_duration_ms DOUBLE PRECISION NOT NULL DEFAULT 0,
		UNIQUE (project_id, date_key, hour, metric_type,
		        endpoint_method, endpoint_path, log_level, log_type)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_aggregated_metrics_lookup
		ON aggregated_metrics (project_id, metric_type, date_key)`,

	`CREATE TABLE IF NOT EXISTS bottleneck_metrics (
		project_id         BIGINT NOT NULL,
		date_key           TEXT NOT NULL,
		hour               INT NOT NULL CHECK (hour BETWEEN 0 AND 23),
		route              TEXT NOT NULL,
		log_count          BIGINT NOT NULL DEFAULT 0,
		min_duration_ms    DOUBLE PRECISION NOT NULL DEFAULT 0,
		max_duration_ms    DOUBLE PRECISION NOT NULL DEFAULT 0,
		avg_duration_ms    DOUBLE PRECISION NOT NULL DEFAULT 0,
		median_duration_ms DOUBLE PRECISION NOT NULL DEFAULT 0,
		PRIMARY KEY (project_id, date_key, hour, route)
	)`,
}

// Migrate applies the bootstrap schema
func (db *DB) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := db.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}
	return nil
}
