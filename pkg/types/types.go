package types

import "time"

// Plan identifies the billing tier of an account
type Plan string

const (
	PlanFree       Plan = "free"
	PlanPro        Plan = "pro"
	PlanEnterprise Plan = "enterprise"
)

// AccountStatus represents the lifecycle state of an account
type AccountStatus string

const (
	AccountStatusActive    AccountStatus = "active"
	AccountStatusSuspended AccountStatus = "suspended"
	AccountStatusDeleted   AccountStatus = "deleted"
)

// Account is a tenant; it owns projects
type Account struct {
	ID           int64
	Email        string // stored case-folded, unique
	PasswordHash string
	DisplayName  string
	Plan         Plan
	Status       AccountStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Environment tags a project deployment target
type Environment string

const (
	EnvironmentProduction Environment = "production"
	EnvironmentStaging    Environment = "staging"
	EnvironmentDev        Environment = "dev"
)

// Project receives log events through its API keys
type Project struct {
	ID              int64
	AccountID       int64
	Name            string
	Slug            string // globally unique, lowercase alnum + hyphen + underscore
	Environment     Environment
	RetentionDays   int
	DailyQuota      int64
	AvailableRoutes []string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// KeyStatus represents the lifecycle state of an API key
type KeyStatus string

const (
	KeyStatusActive  KeyStatus = "active"
	KeyStatusRevoked KeyStatus = "revoked"
)

// ApiKey grants ingestion and query access to one project.
// The plaintext secret is shown exactly once at creation; only
// KeyHash (SHA-256 hex of the full secret) and KeyPrefix persist.
type ApiKey struct {
	ID                 int64
	ProjectID          int64
	KeyPrefix          string
	KeyHash            string
	DisplayName        string
	Status             KeyStatus
	ExpiresAt          *time.Time
	RateLimitPerMinute int
	RateLimitPerHour   int
	LastUsedAt         *time.Time
	CreatedAt          time.Time
}

// DailyUsage is one row per (project, calendar day)
type DailyUsage struct {
	ProjectID    int64
	Date         time.Time
	LogsIngested int64
	LogsQueried  int64
	StorageBytes int64
}

// PanelType selects what a dashboard panel renders
type PanelType string

const (
	PanelTypeLogs    PanelType = "logs"
	PanelTypeErrors  PanelType = "errors"
	PanelTypeMetrics PanelType = "metrics"
)

// DashboardPanel is one tile on an account's dashboard
type DashboardPanel struct {
	ID         string `msgpack:"id" json:"id"`
	Name       string `msgpack:"name" json:"name"`
	Index      int    `msgpack:"index" json:"index"`
	ProjectID  int64  `msgpack:"project_id" json:"project_id"`
	Type       PanelType `msgpack:"type" json:"type"`
	TimeWindow string `msgpack:"time_window" json:"time_window"`
}

// NotificationPreference holds per-project delivery rules for an account
type NotificationPreference struct {
	ProjectID int64    `msgpack:"project_id" json:"project_id"`
	Enabled   bool     `msgpack:"enabled" json:"enabled"`
	Levels    []string `msgpack:"levels" json:"levels"`
	Types     []string `msgpack:"types" json:"types"`
}

// LogLevel is the severity of a log event
type LogLevel string

const (
	LevelDebug    LogLevel = "debug"
	LevelInfo     LogLevel = "info"
	LevelWarning  LogLevel = "warning"
	LevelError    LogLevel = "error"
	LevelCritical LogLevel = "critical"
)

// ValidLevel reports whether s is a recognized log level
func ValidLevel(s string) bool {
	switch LogLevel(s) {
	case LevelDebug, LevelInfo, LevelWarning, LevelError, LevelCritical:
		return true
	}
	return false
}

// LogType classifies the origin of a log event
type LogType string

const (
	TypeConsole   LogType = "console"
	TypeLogger    LogType = "logger"
	TypeException LogType = "exception"
	TypeNetwork   LogType = "network"
	TypeDatabase  LogType = "database"
	TypeEndpoint  LogType = "endpoint"
	TypeCustom    LogType = "custom"
)

// ValidLogType reports whether s is a recognized log type
func ValidLogType(s string) bool {
	switch LogType(s) {
	case TypeConsole, TypeLogger, TypeException, TypeNetwork,
		TypeDatabase, TypeEndpoint, TypeCustom:
		return true
	}
	return false
}

// Importance is a producer-assigned priority hint
type Importance string

const (
	ImportanceCritical Importance = "critical"
	ImportanceHigh     Importance = "high"
	ImportanceStandard Importance = "standard"
	ImportanceLow      Importance = "low"
)

// LogEvent is the partitioned fact row. EventTimestamp is the
// partition key; the primary key is (ID, EventTimestamp).
type LogEvent struct {
	ID                 int64                  `msgpack:"id,omitempty" json:"id,omitempty"`
	ProjectID          int64                  `msgpack:"project_id" json:"project_id"`
	EventTimestamp     time.Time              `msgpack:"event_timestamp" json:"timestamp"`
	IngestionTimestamp time.Time              `msgpack:"ingestion_timestamp" json:"ingestion_timestamp,omitempty"`
	Level              LogLevel               `msgpack:"level" json:"level"`
	LogType            LogType                `msgpack:"log_type" json:"log_type"`
	Importance         Importance             `msgpack:"importance" json:"importance,omitempty"`
	Environment        string                 `msgpack:"environment,omitempty" json:"environment,omitempty"`
	Release            string                 `msgpack:"release,omitempty" json:"release,omitempty"`
	Message            string                 `msgpack:"message,omitempty" json:"message,omitempty"`
	ErrorType          string                 `msgpack:"error_type,omitempty" json:"error_type,omitempty"`
	ErrorMessage       string                 `msgpack:"error_message,omitempty" json:"error_message,omitempty"`
	StackTrace         string                 `msgpack:"stack_trace,omitempty" json:"stack_trace,omitempty"`
	Attributes         map[string]interface{} `msgpack:"attributes,omitempty" json:"attributes,omitempty"`
	SDKVersion         string                 `msgpack:"sdk_version,omitempty" json:"sdk_version,omitempty"`
	Platform           string                 `msgpack:"platform,omitempty" json:"platform,omitempty"`
	PlatformVersion    string                 `msgpack:"platform_version,omitempty" json:"platform_version,omitempty"`
	ProcessingTimeMs   float64                `msgpack:"processing_time_ms,omitempty" json:"processing_time_ms,omitempty"`
	ErrorFingerprint   string                 `msgpack:"error_fingerprint,omitempty" json:"error_fingerprint,omitempty"`
}

// ErrorGroupStatus represents the triage state of an error group
type ErrorGroupStatus string

const (
	ErrorGroupUnresolved ErrorGroupStatus = "unresolved"
	ErrorGroupResolved   ErrorGroupStatus = "resolved"
	ErrorGroupIgnored    ErrorGroupStatus = "ignored"
	ErrorGroupMuted      ErrorGroupStatus = "muted"
)

// ErrorGroup deduplicates exceptions by (project, fingerprint)
type ErrorGroup struct {
	ID               int64
	ProjectID        int64
	Fingerprint      string
	ErrorType        string
	ErrorMessage     string
	FirstSeen        time.Time
	LastSeen         time.Time
	OccurrenceCount  int64
	Status           ErrorGroupStatus
	SampleLogID      *int64
	SampleStackTrace string
}

// MetricType selects the rollup family of an aggregated metric row
type MetricType string

const (
	MetricTypeException MetricType = "exception"
	MetricTypeEndpoint  MetricType = "endpoint"
	MetricTypeLogVolume MetricType = "log_volume"
)

// AggregatedMetric is one hourly rollup cell. Optional dimensions are
// empty strings when not applicable; the uniqueness key folds NULLs
// to empty strings.
type AggregatedMetric struct {
	ID             int64
	ProjectID      int64
	Date           string // YYYYMMDD
	Hour           int    // 0..23
	MetricType     MetricType
	EndpointMethod string
	EndpointPath   string
	LogLevel       string
	LogType        string
	LogCount       int64
	ErrorCount     int64
	AvgDurationMs  float64
	MinDurationMs  float64
	MaxDurationMs  float64
	P95DurationMs  float64
	P99DurationMs  float64
}

// BottleneckMetric is an hourly per-route latency summary
type BottleneckMetric struct {
	ProjectID        int64
	Date             string // YYYYMMDD
	Hour             int
	Route            string
	LogCount         int64
	MinDurationMs    float64
	MaxDurationMs    float64
	AvgDurationMs    float64
	MedianDurationMs float64
}

// KeyValidation is the record cached by the gateway per API key.
// It carries everything auth and rate limiting need so that the hot
// path never touches the account store.
type KeyValidation struct {
	Valid              bool   `msgpack:"valid" json:"valid"`
	KeyID              int64  `msgpack:"key_id" json:"key_id"`
	ProjectID          int64  `msgpack:"project_id" json:"project_id"`
	AccountID          int64  `msgpack:"account_id" json:"account_id"`
	RateLimitPerMinute int    `msgpack:"rate_limit_per_minute" json:"rate_limit_per_minute"`
	RateLimitPerHour   int    `msgpack:"rate_limit_per_hour" json:"rate_limit_per_hour"`
	DailyQuota         int64  `msgpack:"daily_quota" json:"daily_quota"`
	RetentionDays      int    `msgpack:"retention_days" json:"retention_days"`
	CurrentUsage       int64  `msgpack:"current_usage" json:"current_usage"`
	Error              string `msgpack:"error,omitempty" json:"error,omitempty"`
}

// Notification is the message published to a project's error topic
type Notification struct {
	ProjectID   int64                  `msgpack:"project_id" json:"project_id"`
	Level       string                 `msgpack:"level" json:"level"`
	LogType     string                 `msgpack:"log_type" json:"log_type"`
	Message     string                 `msgpack:"message" json:"message"` // truncated to 1000 chars
	ErrorType   string                 `msgpack:"error_type,omitempty" json:"error_type,omitempty"`
	Timestamp   time.Time              `msgpack:"timestamp" json:"timestamp"`
	Fingerprint string                 `msgpack:"fingerprint,omitempty" json:"fingerprint,omitempty"`
	Attributes  map[string]interface{} `msgpack:"attributes,omitempty" json:"attributes,omitempty"`
	SDKVersion  string                 `msgpack:"sdk_version,omitempty" json:"sdk_version,omitempty"`
	Platform    string                 `msgpack:"platform,omitempty" json:"platform,omitempty"`
}
