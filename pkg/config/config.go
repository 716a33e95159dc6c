package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the full configuration tree for a ledger process. It is
// loaded once at startup and immutable afterwards.
type Config struct {
	Environment string `yaml:"environment" validate:"oneof=production staging dev"`
	Debug       bool   `yaml:"debug"`
	LogLevel    string `yaml:"log_level" validate:"oneof=debug info warn error"`

	Database    Database    `yaml:"database"`
	Redis       Redis       `yaml:"redis"`
	GRPC        GRPC        `yaml:"grpc"`
	Gateway     Gateway     `yaml:"gateway"`
	Cache       Cache       `yaml:"cache"`
	Breaker     Breaker     `yaml:"circuit_breaker"`
	Validation  Validation  `yaml:"validation"`
	Queue       Queue       `yaml:"queue"`
	Partitions  Partitions  `yaml:"partitions"`
	Aggregation Aggregation `yaml:"aggregation"`
	Security    Security    `yaml:"security"`
}

// Database configures the PostgreSQL pool
type Database struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port" validate:"min=1,max=65535"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	PoolSize int    `yaml:"pool_size" validate:"min=5,max=100"`
	Overflow int    `yaml:"overflow" validate:"min=0,max=50"`
}

// DSN renders the pgx connection string
func (d Database) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s", d.User, d.Password, d.Host, d.Port, d.Name)
}

// Redis configures the KV store client
type Redis struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port" validate:"min=1,max=65535"`
	DB       int    `yaml:"db" validate:"min=0,max=15"`
	Password string `yaml:"password"`
	MaxConns int    `yaml:"max_connections" validate:"min=1,max=200"`
}

// Addr renders host:port
func (r Redis) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// GRPC configures RPC listeners and client pools
type GRPC struct {
	AccountPort      int `yaml:"account_port" validate:"min=1,max=65535"`
	IngestPort       int `yaml:"ingest_port" validate:"min=1,max=65535"`
	QueryPort        int `yaml:"query_port" validate:"min=1,max=65535"`
	PoolSize         int `yaml:"pool_size" validate:"min=1,max=50"`
	KeepaliveTimeMs  int `yaml:"keepalive_time_ms" validate:"min=1000"`
	KeepaliveTimeout int `yaml:"keepalive_timeout_ms" validate:"min=1000"`
	RequestTimeoutS  int `yaml:"request_timeout_s" validate:"min=1,max=120"`
	MaxMessageBytes  int `yaml:"max_message_bytes" validate:"min=1048576"`
}

// Gateway configures the public HTTP edge
type Gateway struct {
	ListenAddr  string `yaml:"listen_addr"`
	AccountAddr string `yaml:"account_addr"`
	IngestAddr  string `yaml:"ingest_addr"`
	QueryAddr   string `yaml:"query_addr"`
	HeartbeatS  int    `yaml:"sse_heartbeat_s" validate:"min=5,max=300"`
	BodyLimitMB int    `yaml:"request_body_mb" validate:"min=1,max=50"`
}

// Cache configures TTLs on the gateway's KV caches
type Cache struct {
	ApiKeyTTLSeconds    int `yaml:"api_key_ttl_s" validate:"min=60,max=3600"`
	StaleTTLSeconds     int `yaml:"stale_ttl_s" validate:"min=300,max=1800"`
	DashboardTTLSeconds int `yaml:"dashboard_ttl_s" validate:"min=60,max=3600"`
}

// Breaker configures the per-downstream circuit breakers
type Breaker struct {
	FailureThreshold int `yaml:"failure_threshold" validate:"min=3,max=20"`
	RecoveryTimeoutS int `yaml:"recovery_timeout_s" validate:"min=10,max=300"`
	HalfOpenMaxCalls int `yaml:"half_open_max_calls" validate:"min=1,max=10"`
}

// Validation caps applied by the ingestion enricher
type Validation struct {
	MaxMessageLength      int `yaml:"max_message_length" validate:"min=1"`
	MaxErrorMessageLength int `yaml:"max_error_message_length" validate:"min=1"`
	MaxStackTraceLength   int `yaml:"max_stack_trace_length" validate:"min=1"`
	MaxAttributesBytes    int `yaml:"max_attributes_bytes" validate:"min=1"`
	MaxErrorTypeLength    int `yaml:"max_error_type_length" validate:"min=1"`
	MaxBatchSize          int `yaml:"max_batch_size" validate:"min=1,max=10000"`
	FutureToleranceMin    int `yaml:"future_tolerance_minutes" validate:"min=0,max=1440"`
}

// Queue configures per-project queues and storage workers
type Queue struct {
	MaxDepth     int `yaml:"max_depth" validate:"min=10000,max=1000000"`
	PopTimeoutS  int `yaml:"pop_timeout_s" validate:"min=5,max=300"`
	BatchSize    int `yaml:"batch_size" validate:"min=100,max=10000"`
	WorkerCount  int `yaml:"worker_count" validate:"min=1,max=50"`
	IdleSleepMs  int `yaml:"idle_sleep_ms" validate:"min=100,max=60000"`
	RetryDelayMs int `yaml:"retry_delay_ms" validate:"min=100,max=60000"`
}

// Partitions configures pre-creation of log partitions
type Partitions struct {
	MonthsAhead      int  `yaml:"months_ahead" validate:"min=1,max=24"`
	SchedulerEnabled bool `yaml:"scheduler_enabled"`
}

// Aggregation configures job intervals, in minutes unless noted
type Aggregation struct {
	ErrorRateMin       int `yaml:"error_rate_interval_min" validate:"min=1,max=60"`
	LogVolumeMin       int `yaml:"log_volume_interval_min" validate:"min=1,max=60"`
	TopErrorsMin       int `yaml:"top_errors_interval_min" validate:"min=5,max=120"`
	UsageStatsMin      int `yaml:"usage_stats_interval_min" validate:"min=1,max=60"`
	AggregatedMin      int `yaml:"aggregated_metrics_interval_min" validate:"min=1,max=120"`
	AvailableRoutesMin int `yaml:"available_routes_interval_min" validate:"min=5,max=1440"`
	MisfireGraceS      int `yaml:"misfire_grace_s" validate:"min=10,max=300"`
	CacheTTLSeconds    int `yaml:"cache_ttl_s" validate:"min=60,max=3600"`
}

// Security configures tokens, hashing and default limits
type Security struct {
	JWTSecret          string `yaml:"jwt_secret" validate:"min=32"`
	AccessTTLMinutes   int    `yaml:"access_ttl_min" validate:"min=5,max=1440"`
	RefreshTTLDays     int    `yaml:"refresh_ttl_days" validate:"min=1,max=30"`
	BcryptRounds       int    `yaml:"bcrypt_rounds" validate:"min=10,max=14"`
	DefaultRatePerMin  int    `yaml:"default_rate_per_minute" validate:"min=10,max=100000"`
	DefaultRatePerHour int    `yaml:"default_rate_per_hour" validate:"min=100,max=10000000"`
	DefaultDailyQuota  int64  `yaml:"default_daily_quota" validate:"min=1000,max=100000000"`
}

// Default returns a Config populated with every default value
func Default() *Config {
	return &Config{
		Environment: "dev",
		LogLevel:    "info",
		Database: Database{
			Host:     "localhost",
			Port:     5432,
			Name:     "ledger",
			User:     "ledger",
			Password: "ledger",
			PoolSize: 20,
			Overflow: 10,
		},
		Redis: Redis{
			Host:     "localhost",
			Port:     6379,
			DB:       0,
			MaxConns: 50,
		},
		GRPC: GRPC{
			AccountPort:      50051,
			IngestPort:       50052,
			QueryPort:        50053,
			PoolSize:         10,
			KeepaliveTimeMs:  10000,
			KeepaliveTimeout: 5000,
			RequestTimeoutS:  5,
			MaxMessageBytes:  10 * 1024 * 1024,
		},
		Gateway: Gateway{
			ListenAddr:  ":8080",
			AccountAddr: "localhost:50051",
			IngestAddr:  "localhost:50052",
			QueryAddr:   "localhost:50053",
			HeartbeatS:  30,
			BodyLimitMB: 5,
		},
		Cache: Cache{
			ApiKeyTTLSeconds:    300,
			StaleTTLSeconds:     900,
			DashboardTTLSeconds: 300,
		},
		Breaker: Breaker{
			FailureThreshold: 5,
			RecoveryTimeoutS: 30,
			HalfOpenMaxCalls: 3,
		},
		Validation: Validation{
			MaxMessageLength:      10000,
			MaxErrorMessageLength: 5000,
			MaxStackTraceLength:   50000,
			MaxAttributesBytes:    100000,
			MaxErrorTypeLength:    255,
			MaxBatchSize:          1000,
			FutureToleranceMin:    5,
		},
		Queue: Queue{
			MaxDepth:     100000,
			PopTimeoutS:  30,
			BatchSize:    1000,
			WorkerCount:  5,
			IdleSleepMs:  1000,
			RetryDelayMs: 2000,
		},
		Partitions: Partitions{
			MonthsAhead:      6,
			SchedulerEnabled: true,
		},
		Aggregation: Aggregation{
			ErrorRateMin:       5,
			LogVolumeMin:       5,
			TopErrorsMin:       15,
			UsageStatsMin:      1,
			AggregatedMin:      60,
			AvailableRoutesMin: 60,
			MisfireGraceS:      60,
			CacheTTLSeconds:    600,
		},
		Security: Security{
			JWTSecret:          "dev-only-secret-change-me-0123456789ab",
			AccessTTLMinutes:   15,
			RefreshTTLDays:     7,
			BcryptRounds:       12,
			DefaultRatePerMin:  1000,
			DefaultRatePerHour: 50000,
			DefaultDailyQuota:  1000000,
		},
	}
}

// Load reads the YAML config at path (optional), applies LEDGER_*
// environment overrides, then validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnv(cfg)

	if cfg.Environment == "production" && cfg.JWTSecretIsDefault() {
		return nil, fmt.Errorf("jwt_secret must be set in production")
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// JWTSecretIsDefault reports whether the dev placeholder secret is in use
func (c *Config) JWTSecretIsDefault() bool {
	return c.Security.JWTSecret == Default().Security.JWTSecret
}

func applyEnv(cfg *Config) {
	envStr("LEDGER_ENVIRONMENT", &cfg.Environment)
	envStr("LEDGER_LOG_LEVEL", &cfg.LogLevel)
	envBool("LEDGER_DEBUG", &cfg.Debug)

	envStr("LEDGER_DB_HOST", &cfg.Database.Host)
	envInt("LEDGER_DB_PORT", &cfg.Database.Port)
	envStr("LEDGER_DB_NAME", &cfg.Database.Name)
	envStr("LEDGER_DB_USER", &cfg.Database.User)
	envStr("LEDGER_DB_PASSWORD", &cfg.Database.Password)
	envInt("LEDGER_DB_POOL_SIZE", &cfg.Database.PoolSize)

	envStr("LEDGER_REDIS_HOST", &cfg.Redis.Host)
	envInt("LEDGER_REDIS_PORT", &cfg.Redis.Port)
	envInt("LEDGER_REDIS_DB", &cfg.Redis.DB)
	envStr("LEDGER_REDIS_PASSWORD", &cfg.Redis.Password)

	envStr("LEDGER_GATEWAY_LISTEN", &cfg.Gateway.ListenAddr)
	envStr("LEDGER_ACCOUNT_ADDR", &cfg.Gateway.AccountAddr)
	envStr("LEDGER_INGEST_ADDR", &cfg.Gateway.IngestAddr)
	envStr("LEDGER_QUERY_ADDR", &cfg.Gateway.QueryAddr)

	envStr("LEDGER_JWT_SECRET", &cfg.Security.JWTSecret)
	envInt("LEDGER_WORKER_COUNT", &cfg.Queue.WorkerCount)
	envInt("LEDGER_QUEUE_MAX_DEPTH", &cfg.Queue.MaxDepth)
}

func envStr(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envBool(key string, dst *bool) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
