package kv

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ledgerlog/ledger/pkg/config"
	"github.com/ledgerlog/ledger/pkg/types"
)

// Key namespaces. All KV access goes through this package; callers
// never touch raw keys.
const (
	keyPrefixApiKey      = "api_key:"
	keyPrefixApiKeyStale = "api_key:stale:"
	keyPrefixUsage       = "usage:"
	keyPrefixRateLimit   = "ratelimit:"
	keyPrefixMetrics     = "metrics:"
	keyPrefixDashboard   = "dashboard:panels:"
	topicPrefixErrors    = "notifications:errors:"
)

// refreshWindow is the remaining-TTL threshold under which a cached
// key validation may be refreshed early to avoid expiry stampedes.
const refreshWindow = 30 * time.Second

// refreshProbability is the per-read chance of an early refresh once
// inside the refresh window.
const refreshProbability = 0.1

// Client wraps the Redis connection with the typed operations used
// across the platform: the API-key validation cache, daily usage
// counters, metric snapshot caches and pub/sub topics.
type Client struct {
	rdb *redis.Client
}

// New connects to Redis using the given configuration
func New(cfg config.Redis) *Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		DB:       cfg.DB,
		Password: cfg.Password,
		PoolSize: cfg.MaxConns,
	})
	return &Client{rdb: rdb}
}

// NewWithClient wraps an existing Redis client (used by tests)
func NewWithClient(rdb *redis.Client) *Client {
	return &Client{rdb: rdb}
}

// Ping verifies connectivity
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close releases the connection pool
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Raw exposes the underlying client to sibling packages (queue)
func (c *Client) Raw() *redis.Client {
	return c.rdb
}

// HashKey returns the cache key hash for an API-key secret
func HashKey(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// GetKeyValidation reads a cached key validation record. The second
// return reports whether the caller should refresh the entry early
// (probabilistic, only when the TTL is nearly exhausted). A cache
// miss returns (nil, false, nil).
func (c *Client) GetKeyValidation(ctx context.Context, hash string) (*types.KeyValidation, bool, error) {
	key := keyPrefixApiKey + hash

	pipe := c.rdb.Pipeline()
	getCmd := pipe.Get(ctx, key)
	ttlCmd := pipe.TTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read key validation: %w", err)
	}

	var rec types.KeyValidation
	if err := json.Unmarshal([]byte(getCmd.Val()), &rec); err != nil {
		return nil, false, fmt.Errorf("failed to decode key validation: %w", err)
	}

	refresh := ttlCmd.Val() > 0 && ttlCmd.Val() < refreshWindow && rand.Float64() < refreshProbability
	return &rec, refresh, nil
}

// SetKeyValidation caches a key validation record with the given TTL,
// plus a longer-lived stale copy the gateway may fall back to when the
// account service is unreachable.
func (c *Client) SetKeyValidation(ctx context.Context, hash string, rec *types.KeyValidation, ttl, staleTTL time.Duration) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode key validation: %w", err)
	}
	pipe := c.rdb.Pipeline()
	pipe.Set(ctx, keyPrefixApiKey+hash, data, ttl)
	if staleTTL > ttl {
		pipe.Set(ctx, keyPrefixApiKeyStale+hash, data, staleTTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to cache key validation: %w", err)
	}
	return nil
}

// GetStaleKeyValidation reads the long-TTL stale copy of a validation
// record. A miss returns (nil, nil).
func (c *Client) GetStaleKeyValidation(ctx context.Context, hash string) (*types.KeyValidation, error) {
	data, err := c.rdb.Get(ctx, keyPrefixApiKeyStale+hash).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read stale key validation: %w", err)
	}
	var rec types.KeyValidation
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode stale key validation: %w", err)
	}
	return &rec, nil
}

// DeleteKeyValidation invalidates one cached key, fresh and stale
// copies both. Revocation deletes only the revoked key's entries,
// never the whole namespace.
func (c *Client) DeleteKeyValidation(ctx context.Context, hash string) error {
	return c.rdb.Del(ctx, keyPrefixApiKey+hash, keyPrefixApiKeyStale+hash).Err()
}

// IncrementDailyUsage adds n ingested logs to the project's counter
// for the given day and returns the new total. The counter lives for
// 48 hours so late writers near midnight still land.
func (c *Client) IncrementDailyUsage(ctx context.Context, projectID int64, day time.Time, n int64) (int64, error) {
	key := usageKey(projectID, day)

	pipe := c.rdb.Pipeline()
	incrCmd := pipe.IncrBy(ctx, key, n)
	pipe.Expire(ctx, key, 48*time.Hour)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to increment daily usage: %w", err)
	}
	return incrCmd.Val(), nil
}

// GetDailyUsage reads the project's usage counter for the given day.
// A missing counter reads as zero.
func (c *Client) GetDailyUsage(ctx context.Context, projectID int64, day time.Time) (int64, error) {
	n, err := c.rdb.Get(ctx, usageKey(projectID, day)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read daily usage: %w", err)
	}
	return n, nil
}

func usageKey(projectID int64, day time.Time) string {
	return fmt.Sprintf("%s%d:%s", keyPrefixUsage, projectID, day.UTC().Format("20060102"))
}

// MetricsKey builds a metric snapshot cache key, e.g.
// metrics:error_rate:42:5min.
func MetricsKey(kind string, projectID int64, interval string) string {
	if interval == "" {
		return fmt.Sprintf("%s%s:%d", keyPrefixMetrics, kind, projectID)
	}
	return fmt.Sprintf("%s%s:%d:%s", keyPrefixMetrics, kind, projectID, interval)
}

// DashboardKey builds the panel cache key for an account
func DashboardKey(accountID int64) string {
	return fmt.Sprintf("%s%d", keyPrefixDashboard, accountID)
}

// SetJSON caches any value as JSON with a TTL
func (c *Client) SetJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode cache value: %w", err)
	}
	if err := c.rdb.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write cache key %s: %w", key, err)
	}
	return nil
}

// GetJSON reads a cached JSON value into dst. Returns false on miss.
func (c *Client) GetJSON(ctx context.Context, key string, dst interface{}) (bool, error) {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read cache key %s: %w", key, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("failed to decode cache key %s: %w", key, err)
	}
	return true, nil
}

// Delete removes cache keys
func (c *Client) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}

// ErrorTopic returns the pub/sub topic for a project's error stream
func ErrorTopic(projectID int64) string {
	return fmt.Sprintf("%s%d", topicPrefixErrors, projectID)
}

// Publish sends a payload on a pub/sub topic
func (c *Client) Publish(ctx context.Context, topic string, payload []byte) error {
	return c.rdb.Publish(ctx, topic, payload).Err()
}

// Subscribe opens a pub/sub subscription on the given topics. The
// caller owns the returned subscription and must Close it.
func (c *Client) Subscribe(ctx context.Context, topics ...string) *redis.PubSub {
	return c.rdb.Subscribe(ctx, topics...)
}
