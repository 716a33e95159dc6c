package rpc

import (
	"time"

	"github.com/ledgerlog/ledger/pkg/types"
)

// Empty is the zero-field reply
type Empty struct{}

// --- account service ---

type RegisterRequest struct {
	Email    string `msgpack:"email" json:"email"`
	Password string `msgpack:"password" json:"password"`
	Name     string `msgpack:"name" json:"name"`
}

type LoginRequest struct {
	Email    string `msgpack:"email" json:"email"`
	Password string `msgpack:"password" json:"password"`
}

type LoginReply struct {
	AccessToken      string `msgpack:"access_token" json:"access_token"`
	RefreshToken     string `msgpack:"refresh_token" json:"refresh_token"`
	TokenType        string `msgpack:"token_type" json:"token_type"`
	ExpiresInSeconds int    `msgpack:"expires_in" json:"expires_in"`
	AccountID        int64  `msgpack:"account_id" json:"account_id"`
	Email            string `msgpack:"email" json:"email"`
	Name             string `msgpack:"name" json:"name"`
}

type RefreshRequest struct {
	RefreshToken string `msgpack:"refresh_token" json:"refresh_token"`
}

type LogoutRequest struct {
	AccountID    int64  `msgpack:"account_id" json:"account_id"`
	RefreshToken string `msgpack:"refresh_token,omitempty" json:"refresh_token,omitempty"`
}

type GetAccountRequest struct {
	AccountID int64 `msgpack:"account_id" json:"account_id"`
}

type AccountReply struct {
	ID        int64     `msgpack:"id" json:"id"`
	Email     string    `msgpack:"email" json:"email"`
	Name      string    `msgpack:"name" json:"name"`
	Plan      string    `msgpack:"plan" json:"plan"`
	Status    string    `msgpack:"status" json:"status"`
	CreatedAt time.Time `msgpack:"created_at" json:"created_at"`
}

type UpdateNameRequest struct {
	AccountID int64  `msgpack:"account_id" json:"account_id"`
	Name      string `msgpack:"name" json:"name"`
}

type ChangePasswordRequest struct {
	AccountID   int64  `msgpack:"account_id" json:"account_id"`
	OldPassword string `msgpack:"old_password" json:"old_password"`
	NewPassword string `msgpack:"new_password" json:"new_password"`
}

type CreateProjectRequest struct {
	AccountID   int64  `msgpack:"account_id" json:"account_id"`
	Name        string `msgpack:"name" json:"name"`
	Slug        string `msgpack:"slug" json:"slug"`
	Environment string `msgpack:"environment" json:"environment"`
}

type ProjectReply struct {
	ID              int64     `msgpack:"id" json:"id"`
	AccountID       int64     `msgpack:"account_id" json:"account_id"`
	Name            string    `msgpack:"name" json:"name"`
	Slug            string    `msgpack:"slug" json:"slug"`
	Environment     string    `msgpack:"environment" json:"environment"`
	RetentionDays   int       `msgpack:"retention_days" json:"retention_days"`
	DailyQuota      int64     `msgpack:"daily_quota" json:"daily_quota"`
	AvailableRoutes []string  `msgpack:"available_routes" json:"available_routes"`
	CreatedAt       time.Time `msgpack:"created_at" json:"created_at"`
}

type ListProjectsRequest struct {
	AccountID int64 `msgpack:"account_id" json:"account_id"`
}

type ProjectListReply struct {
	Projects []*ProjectReply `msgpack:"projects" json:"projects"`
}

type GetProjectBySlugRequest struct {
	AccountID int64  `msgpack:"account_id" json:"account_id"`
	Slug      string `msgpack:"slug" json:"slug"`
}

type CreateApiKeyRequest struct {
	AccountID int64  `msgpack:"account_id" json:"account_id"`
	ProjectID int64  `msgpack:"project_id" json:"project_id"`
	Name      string `msgpack:"name" json:"name"`
}

type CreateApiKeyReply struct {
	KeyID     int64  `msgpack:"key_id" json:"key_id"`
	FullKey   string `msgpack:"full_key" json:"full_key"`
	KeyPrefix string `msgpack:"key_prefix" json:"key_prefix"`
}

type ValidateApiKeyRequest struct {
	Key string `msgpack:"key" json:"key"`
}

type RevokeApiKeyRequest struct {
	AccountID int64 `msgpack:"account_id" json:"account_id"`
	KeyID     int64 `msgpack:"key_id" json:"key_id"`
}

type RevokeApiKeyReply struct {
	Success bool   `msgpack:"success" json:"success"`
	Message string `msgpack:"message" json:"message"`
}

type ListApiKeysRequest struct {
	AccountID int64 `msgpack:"account_id" json:"account_id"`
	ProjectID int64 `msgpack:"project_id" json:"project_id"`
}

type ApiKeySummary struct {
	ID         int64      `msgpack:"id" json:"id"`
	ProjectID  int64      `msgpack:"project_id" json:"project_id"`
	KeyPrefix  string     `msgpack:"key_prefix" json:"key_prefix"`
	Name       string     `msgpack:"name" json:"name"`
	Status     string     `msgpack:"status" json:"status"`
	LastUsedAt *time.Time `msgpack:"last_used_at,omitempty" json:"last_used_at,omitempty"`
	CreatedAt  time.Time  `msgpack:"created_at" json:"created_at"`
}

type ApiKeyListReply struct {
	Keys []*ApiKeySummary `msgpack:"keys" json:"keys"`
}

type DailyUsageRequest struct {
	ProjectID int64  `msgpack:"project_id" json:"project_id"`
	Date      string `msgpack:"date" json:"date"` // YYYYMMDD
}

type DailyUsageReply struct {
	ProjectID    int64  `msgpack:"project_id" json:"project_id"`
	Date         string `msgpack:"date" json:"date"`
	LogsIngested int64  `msgpack:"logs_ingested" json:"logs_ingested"`
	LogsQueried  int64  `msgpack:"logs_queried" json:"logs_queried"`
	StorageBytes int64  `msgpack:"storage_bytes" json:"storage_bytes"`
}

type PanelListRequest struct {
	AccountID int64 `msgpack:"account_id" json:"account_id"`
}

type PanelListReply struct {
	Panels []types.DashboardPanel `msgpack:"panels" json:"panels"`
}

type CreatePanelRequest struct {
	AccountID int64                `msgpack:"account_id" json:"account_id"`
	Panel     types.DashboardPanel `msgpack:"panel" json:"panel"`
}

type UpdatePanelRequest struct {
	AccountID int64                `msgpack:"account_id" json:"account_id"`
	PanelID   string               `msgpack:"panel_id" json:"panel_id"`
	Panel     types.DashboardPanel `msgpack:"panel" json:"panel"`
}

type DeletePanelRequest struct {
	AccountID int64  `msgpack:"account_id" json:"account_id"`
	PanelID   string `msgpack:"panel_id" json:"panel_id"`
}

type PanelReply struct {
	Panel types.DashboardPanel `msgpack:"panel" json:"panel"`
}

type PreferencesRequest struct {
	AccountID int64 `msgpack:"account_id" json:"account_id"`
}

type PreferencesReply struct {
	Preferences []types.NotificationPreference `msgpack:"preferences" json:"preferences"`
}

type PutPreferencesRequest struct {
	AccountID   int64                          `msgpack:"account_id" json:"account_id"`
	Preferences []types.NotificationPreference `msgpack:"preferences" json:"preferences"`
}

// --- ingest service ---

type IngestLogRequest struct {
	ProjectID int64           `msgpack:"project_id" json:"project_id"`
	Log       *types.LogEvent `msgpack:"log" json:"log"`
}

type IngestLogReply struct {
	Success bool   `msgpack:"success" json:"success"`
	Message string `msgpack:"message" json:"message"`
}

type IngestBatchRequest struct {
	ProjectID int64             `msgpack:"project_id" json:"project_id"`
	Logs      []*types.LogEvent `msgpack:"logs" json:"logs"`
}

type IngestBatchReply struct {
	Success bool   `msgpack:"success" json:"success"`
	Queued  int    `msgpack:"queued" json:"queued"`
	Failed  int    `msgpack:"failed" json:"failed"`
	Error   string `msgpack:"error,omitempty" json:"error,omitempty"`
}

type QueueDepthRequest struct {
	ProjectID int64 `msgpack:"project_id" json:"project_id"`
}

type QueueDepthReply struct {
	Depth int64 `msgpack:"depth" json:"depth"`
}

// --- query service ---

type QueryLogsRequest struct {
	ProjectID   int64      `msgpack:"project_id" json:"project_id"`
	From        *time.Time `msgpack:"from,omitempty" json:"from,omitempty"`
	To          *time.Time `msgpack:"to,omitempty" json:"to,omitempty"`
	Level       string     `msgpack:"level,omitempty" json:"level,omitempty"`
	LogType     string     `msgpack:"log_type,omitempty" json:"log_type,omitempty"`
	Environment string     `msgpack:"environment,omitempty" json:"environment,omitempty"`
	Fingerprint string     `msgpack:"fingerprint,omitempty" json:"fingerprint,omitempty"`
	Limit       int        `msgpack:"limit" json:"limit"`
	Offset      int        `msgpack:"offset" json:"offset"`
}

type SearchLogsRequest struct {
	ProjectID int64      `msgpack:"project_id" json:"project_id"`
	Query     string     `msgpack:"query" json:"query"`
	From      *time.Time `msgpack:"from,omitempty" json:"from,omitempty"`
	To        *time.Time `msgpack:"to,omitempty" json:"to,omitempty"`
	Limit     int        `msgpack:"limit" json:"limit"`
	Offset    int        `msgpack:"offset" json:"offset"`
}

type LogListReply struct {
	Logs    []*types.LogEvent `msgpack:"logs" json:"logs"`
	Total   int64             `msgpack:"total" json:"total"`
	HasMore bool              `msgpack:"has_more" json:"has_more"`
}

type GetLogRequest struct {
	LogID     int64 `msgpack:"log_id" json:"log_id"`
	ProjectID int64 `msgpack:"project_id" json:"project_id"`
}

type LogReply struct {
	Log *types.LogEvent `msgpack:"log" json:"log"`
}

type ErrorListRequest struct {
	ProjectID int64      `msgpack:"project_id" json:"project_id"`
	Period    string     `msgpack:"period,omitempty" json:"period,omitempty"`
	From      *time.Time `msgpack:"from,omitempty" json:"from,omitempty"`
	To        *time.Time `msgpack:"to,omitempty" json:"to,omitempty"`
	Limit     int        `msgpack:"limit" json:"limit"`
	Offset    int        `msgpack:"offset" json:"offset"`
}

type AggregatedMetricsRequest struct {
	ProjectID    int64      `msgpack:"project_id" json:"project_id"`
	MetricType   string     `msgpack:"metric_type" json:"metric_type"`
	Period       string     `msgpack:"period,omitempty" json:"period,omitempty"`
	From         *time.Time `msgpack:"from,omitempty" json:"from,omitempty"`
	To           *time.Time `msgpack:"to,omitempty" json:"to,omitempty"`
	EndpointPath string     `msgpack:"endpoint_path,omitempty" json:"endpoint_path,omitempty"`
}

// MetricBucket is one dense time bucket in an aggregated metrics reply
type MetricBucket struct {
	Bucket        string  `msgpack:"bucket" json:"bucket"` // e.g. "2026-08-25T14:00" or "2026-08-25"
	LogCount      int64   `msgpack:"log_count" json:"log_count"`
	ErrorCount    int64   `msgpack:"error_count" json:"error_count"`
	AvgDurationMs float64 `msgpack:"avg_duration_ms" json:"avg_duration_ms"`
	MinDurationMs float64 `msgpack:"min_duration_ms" json:"min_duration_ms"`
	MaxDurationMs float64 `msgpack:"max_duration_ms" json:"max_duration_ms"`
	P95DurationMs float64 `msgpack:"p95_duration_ms" json:"p95_duration_ms"`
	P99DurationMs float64 `msgpack:"p99_duration_ms" json:"p99_duration_ms"`
}

type AggregatedMetricsReply struct {
	Granularity string         `msgpack:"granularity" json:"granularity"`
	Buckets     []MetricBucket `msgpack:"buckets" json:"buckets"`
}

type CachedMetricsRequest struct {
	ProjectID int64 `msgpack:"project_id" json:"project_id"`
}

// CachedMetricsReply carries a warmed snapshot verbatim. Found is
// false when the cache is cold; the query path never computes.
type CachedMetricsReply struct {
	Found bool                   `msgpack:"found" json:"found"`
	Data  map[string]interface{} `msgpack:"data,omitempty" json:"data,omitempty"`
}
