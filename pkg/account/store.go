package account

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ledgerlog/ledger/pkg/storage"
	"github.com/ledgerlog/ledger/pkg/types"
)

// uniqueViolation is the SQLSTATE for duplicate email, slug or
// fingerprint inserts.
const uniqueViolation = "23505"

// Store is the SQL access layer of the account service
type Store struct {
	db *storage.DB
}

// NewStore creates the account store
func NewStore(db *storage.DB) *Store {
	return &Store{db: db}
}

func isUnique(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// --- accounts ---

// CreateAccount inserts a new account. Email is stored case-folded;
// duplicates surface as types.ErrConflict.
func (s *Store) CreateAccount(ctx context.Context, email, passwordHash, name string) (*types.Account, error) {
	a := &types.Account{}
	err := s.db.Pool.QueryRow(ctx, `
		INSERT INTO accounts (email, password_hash, display_name)
		VALUES ($1, $2, $3)
		RETURNING id, email, display_name, plan, status, created_at, updated_at`,
		email, passwordHash, name,
	).Scan(&a.ID, &a.Email, &a.DisplayName, &a.Plan, &a.Status, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if isUnique(err) {
			return nil, fmt.Errorf("email %s: %w", email, types.ErrConflict)
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}
	return a, nil
}

// GetAccountByEmail fetches an active account by case-folded email
func (s *Store) GetAccountByEmail(ctx context.Context, email string) (*types.Account, error) {
	a := &types.Account{}
	err := s.db.Pool.QueryRow(ctx, `
		SELECT id, email, password_hash, display_name, plan, status, created_at, updated_at
		FROM accounts WHERE email = $1 AND status <> 'deleted'`,
		email,
	).Scan(&a.ID, &a.Email, &a.PasswordHash, &a.DisplayName, &a.Plan, &a.Status, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch account: %w", err)
	}
	return a, nil
}

// GetAccountByID fetches an account by id
func (s *Store) GetAccountByID(ctx context.Context, id int64) (*types.Account, error) {
	a := &types.Account{}
	err := s.db.Pool.QueryRow(ctx, `
		SELECT id, email, password_hash, display_name, plan, status, created_at, updated_at
		FROM accounts WHERE id = $1 AND status <> 'deleted'`,
		id,
	).Scan(&a.ID, &a.Email, &a.PasswordHash, &a.DisplayName, &a.Plan, &a.Status, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch account: %w", err)
	}
	return a, nil
}

// UpdateAccountName changes the display name
func (s *Store) UpdateAccountName(ctx context.Context, id int64, name string) error {
	tag, err := s.db.Pool.Exec(ctx, `
		UPDATE accounts SET display_name = $2, updated_at = now() WHERE id = $1`,
		id, name,
	)
	if err != nil {
		return fmt.Errorf("failed to update account name: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrNotFound
	}
	return nil
}

// UpdateAccountPassword replaces the stored password hash
func (s *Store) UpdateAccountPassword(ctx context.Context, id int64, passwordHash string) error {
	tag, err := s.db.Pool.Exec(ctx, `
		UPDATE accounts SET password_hash = $2, updated_at = now() WHERE id = $1`,
		id, passwordHash,
	)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrNotFound
	}
	return nil
}

// --- refresh tokens ---

// SaveRefreshToken stores a refresh token hash
func (s *Store) SaveRefreshToken(ctx context.Context, accountID int64, tokenHash string, expiresAt time.Time) error {
	_, err := s.db.Pool.Exec(ctx, `
		INSERT INTO refresh_tokens (account_id, token_hash, expires_at)
		VALUES ($1, $2, $3)`,
		accountID, tokenHash, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save refresh token: %w", err)
	}
	return nil
}

// CheckRefreshToken reports whether an unexpired token hash exists
// for the account.
func (s *Store) CheckRefreshToken(ctx context.Context, accountID int64, tokenHash string) (bool, error) {
	var exists bool
	err := s.db.Pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM refresh_tokens
			WHERE account_id = $1 AND token_hash = $2 AND expires_at > now()
		)`,
		accountID, tokenHash,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check refresh token: %w", err)
	}
	return exists, nil
}

// DeleteRefreshTokens removes refresh tokens for an account. With an
// empty hash every token is dropped (logout-everywhere).
func (s *Store) DeleteRefreshTokens(ctx context.Context, accountID int64, tokenHash string) error {
	var err error
	if tokenHash == "" {
		_, err = s.db.Pool.Exec(ctx,
			`DELETE FROM refresh_tokens WHERE account_id = $1`, accountID)
	} else {
		_, err = s.db.Pool.Exec(ctx,
			`DELETE FROM refresh_tokens WHERE account_id = $1 AND token_hash = $2`,
			accountID, tokenHash)
	}
	if err != nil {
		return fmt.Errorf("failed to delete refresh tokens: %w", err)
	}
	return nil
}

// --- projects ---

// CreateProject inserts a project; slug collisions surface as
// types.ErrConflict.
func (s *Store) CreateProject(ctx context.Context, accountID int64, name, slug string, env types.Environment, quota int64) (*types.Project, error) {
	p := &types.Project{AvailableRoutes: []string{}}
	var routes []byte
	err := s.db.Pool.QueryRow(ctx, `
		INSERT INTO projects (account_id, name, slug, environment, daily_quota)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, account_id, name, slug, environment, retention_days,
		          daily_quota, available_routes, created_at, updated_at`,
		accountID, name, slug, env, quota,
	).Scan(&p.ID, &p.AccountID, &p.Name, &p.Slug, &p.Environment,
		&p.RetentionDays, &p.DailyQuota, &routes, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if isUnique(err) {
			return nil, fmt.Errorf("slug %s: %w", slug, types.ErrConflict)
		}
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	_ = json.Unmarshal(routes, &p.AvailableRoutes)
	return p, nil
}

func scanProject(row pgx.Row) (*types.Project, error) {
	p := &types.Project{}
	var routes []byte
	err := row.Scan(&p.ID, &p.AccountID, &p.Name, &p.Slug, &p.Environment,
		&p.RetentionDays, &p.DailyQuota, &routes, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch project: %w", err)
	}
	if err := json.Unmarshal(routes, &p.AvailableRoutes); err != nil {
		p.AvailableRoutes = []string{}
	}
	return p, nil
}

const projectColumns = `id, account_id, name, slug, environment, retention_days,
	daily_quota, available_routes, created_at, updated_at`

// ListProjects returns all projects owned by an account
func (s *Store) ListProjects(ctx context.Context, accountID int64) ([]*types.Project, error) {
	rows, err := s.db.Pool.Query(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE account_id = $1 ORDER BY id`,
		accountID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []*types.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// GetProjectBySlug fetches one project by its globally unique slug
func (s *Store) GetProjectBySlug(ctx context.Context, slug string) (*types.Project, error) {
	return scanProject(s.db.Pool.QueryRow(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE slug = $1`, slug))
}

// GetProjectByID fetches one project by id
func (s *Store) GetProjectByID(ctx context.Context, id int64) (*types.Project, error) {
	return scanProject(s.db.Pool.QueryRow(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = $1`, id))
}

// --- api keys ---

// InsertApiKey stores a freshly minted key
func (s *Store) InsertApiKey(ctx context.Context, key *types.ApiKey) (int64, error) {
	var id int64
	err := s.db.Pool.QueryRow(ctx, `
		INSERT INTO api_keys
			(project_id, key_prefix, key_hash, display_name,
			 rate_limit_per_minute, rate_limit_per_hour)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		key.ProjectID, key.KeyPrefix, key.KeyHash, key.DisplayName,
		key.RateLimitPerMinute, key.RateLimitPerHour,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert api key: %w", err)
	}
	return id, nil
}

// GetApiKeyByHash fetches a key by its stored hash, the hot path of
// ValidateApiKey. One indexed lookup regardless of key count.
func (s *Store) GetApiKeyByHash(ctx context.Context, hash string) (*types.ApiKey, error) {
	k := &types.ApiKey{}
	err := s.db.Pool.QueryRow(ctx, `
		SELECT id, project_id, key_prefix, key_hash, display_name, status,
		       expires_at, rate_limit_per_minute, rate_limit_per_hour,
		       last_used_at, created_at
		FROM api_keys WHERE key_hash = $1`,
		hash,
	).Scan(&k.ID, &k.ProjectID, &k.KeyPrefix, &k.KeyHash, &k.DisplayName, &k.Status,
		&k.ExpiresAt, &k.RateLimitPerMinute, &k.RateLimitPerHour,
		&k.LastUsedAt, &k.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch api key: %w", err)
	}
	return k, nil
}

// GetApiKeyByID fetches one key by id
func (s *Store) GetApiKeyByID(ctx context.Context, id int64) (*types.ApiKey, error) {
	k := &types.ApiKey{}
	err := s.db.Pool.QueryRow(ctx, `
		SELECT id, project_id, key_prefix, key_hash, display_name, status,
		       expires_at, rate_limit_per_minute, rate_limit_per_hour,
		       last_used_at, created_at
		FROM api_keys WHERE id = $1`,
		id,
	).Scan(&k.ID, &k.ProjectID, &k.KeyPrefix, &k.KeyHash, &k.DisplayName, &k.Status,
		&k.ExpiresAt, &k.RateLimitPerMinute, &k.RateLimitPerHour,
		&k.LastUsedAt, &k.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch api key: %w", err)
	}
	return k, nil
}

// RevokeApiKey flips a key to revoked; the row stays for audit
func (s *Store) RevokeApiKey(ctx context.Context, id int64) error {
	tag, err := s.db.Pool.Exec(ctx,
		`UPDATE api_keys SET status = 'revoked' WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to revoke api key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrNotFound
	}
	return nil
}

// ListApiKeys returns all keys of a project, newest first
func (s *Store) ListApiKeys(ctx context.Context, projectID int64) ([]*types.ApiKey, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT id, project_id, key_prefix, key_hash, display_name, status,
		       expires_at, rate_limit_per_minute, rate_limit_per_hour,
		       last_used_at, created_at
		FROM api_keys WHERE project_id = $1 ORDER BY created_at DESC`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list api keys: %w", err)
	}
	defer rows.Close()

	var keys []*types.ApiKey
	for rows.Next() {
		k := &types.ApiKey{}
		err := rows.Scan(&k.ID, &k.ProjectID, &k.KeyPrefix, &k.KeyHash, &k.DisplayName,
			&k.Status, &k.ExpiresAt, &k.RateLimitPerMinute, &k.RateLimitPerHour,
			&k.LastUsedAt, &k.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan api key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// TouchApiKey advances last_used_at; runs out of band of validation
func (s *Store) TouchApiKey(ctx context.Context, id int64) error {
	_, err := s.db.Pool.Exec(ctx,
		`UPDATE api_keys SET last_used_at = now() WHERE id = $1`, id)
	return err
}

// --- daily usage ---

// GetDailyUsage reads one (project, day) usage row; zero row on miss
func (s *Store) GetDailyUsage(ctx context.Context, projectID int64, day time.Time) (*types.DailyUsage, error) {
	u := &types.DailyUsage{ProjectID: projectID, Date: day}
	err := s.db.Pool.QueryRow(ctx, `
		SELECT logs_ingested, logs_queried, storage_bytes
		FROM daily_usage WHERE project_id = $1 AND usage_date = $2`,
		projectID, day,
	).Scan(&u.LogsIngested, &u.LogsQueried, &u.StorageBytes)
	if errors.Is(err, pgx.ErrNoRows) {
		return u, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch daily usage: %w", err)
	}
	return u, nil
}

// --- dashboards ---

// GetDashboardPanels reads the panel list for an account
func (s *Store) GetDashboardPanels(ctx context.Context, accountID int64) ([]types.DashboardPanel, error) {
	var data []byte
	err := s.db.Pool.QueryRow(ctx,
		`SELECT panels FROM user_dashboards WHERE account_id = $1`, accountID,
	).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return []types.DashboardPanel{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch dashboard: %w", err)
	}

	var panels []types.DashboardPanel
	if err := json.Unmarshal(data, &panels); err != nil {
		return nil, fmt.Errorf("failed to decode dashboard panels: %w", err)
	}
	return panels, nil
}

// PutDashboardPanels replaces the whole panel list
func (s *Store) PutDashboardPanels(ctx context.Context, accountID int64, panels []types.DashboardPanel) error {
	data, err := json.Marshal(panels)
	if err != nil {
		return fmt.Errorf("failed to encode dashboard panels: %w", err)
	}
	_, err = s.db.Pool.Exec(ctx, `
		INSERT INTO user_dashboards (account_id, panels)
		VALUES ($1, $2)
		ON CONFLICT (account_id) DO UPDATE SET
			panels = EXCLUDED.panels, updated_at = now()`,
		accountID, data,
	)
	if err != nil {
		return fmt.Errorf("failed to store dashboard panels: %w", err)
	}
	return nil
}

// --- notification preferences ---

// GetNotificationPreferences reads all per-project rules for an account
func (s *Store) GetNotificationPreferences(ctx context.Context, accountID int64) ([]types.NotificationPreference, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT project_id, enabled, levels, types
		FROM notification_preferences WHERE account_id = $1 ORDER BY project_id`,
		accountID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch notification preferences: %w", err)
	}
	defer rows.Close()

	var prefs []types.NotificationPreference
	for rows.Next() {
		var (
			p      types.NotificationPreference
			levels []byte
			kinds  []byte
		)
		if err := rows.Scan(&p.ProjectID, &p.Enabled, &levels, &kinds); err != nil {
			return nil, fmt.Errorf("failed to scan notification preference: %w", err)
		}
		_ = json.Unmarshal(levels, &p.Levels)
		_ = json.Unmarshal(kinds, &p.Types)
		prefs = append(prefs, p)
	}
	return prefs, rows.Err()
}

// PutNotificationPreferences upserts per-project rules
func (s *Store) PutNotificationPreferences(ctx context.Context, accountID int64, prefs []types.NotificationPreference) error {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, p := range prefs {
		levels, _ := json.Marshal(p.Levels)
		kinds, _ := json.Marshal(p.Types)
		_, err := tx.Exec(ctx, `
			INSERT INTO notification_preferences (account_id, project_id, enabled, levels, types)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (account_id, project_id) DO UPDATE SET
				enabled = EXCLUDED.enabled,
				levels  = EXCLUDED.levels,
				types   = EXCLUDED.types`,
			accountID, p.ProjectID, p.Enabled, levels, kinds,
		)
		if err != nil {
			return fmt.Errorf("failed to store notification preference: %w", err)
		}
	}
	return tx.Commit(ctx)
}
