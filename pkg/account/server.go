package account

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/ledgerlog/ledger/pkg/config"
	"github.com/ledgerlog/ledger/pkg/kv"
	"github.com/ledgerlog/ledger/pkg/log"
	"github.com/ledgerlog/ledger/pkg/rpc"
	"github.com/ledgerlog/ledger/pkg/types"
)

var (
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	slugPattern  = regexp.MustCompile(`^[a-z0-9_-]+$`)
)

// Server implements rpc.AccountServer
type Server struct {
	store  *Store
	tokens *TokenIssuer
	cache  *kv.Client
	sec    config.Security
	ttl    config.Cache
}

// NewServer creates the account RPC server
func NewServer(store *Store, cache *kv.Client, sec config.Security, ttl config.Cache) *Server {
	return &Server{
		store:  store,
		tokens: NewTokenIssuer(sec),
		cache:  cache,
		sec:    sec,
		ttl:    ttl,
	}
}

func accountReply(a *types.Account) *rpc.AccountReply {
	return &rpc.AccountReply{
		ID:        a.ID,
		Email:     a.Email,
		Name:      a.DisplayName,
		Plan:      string(a.Plan),
		Status:    string(a.Status),
		CreatedAt: a.CreatedAt,
	}
}

func projectReply(p *types.Project) *rpc.ProjectReply {
	return &rpc.ProjectReply{
		ID:              p.ID,
		AccountID:       p.AccountID,
		Name:            p.Name,
		Slug:            p.Slug,
		Environment:     string(p.Environment),
		RetentionDays:   p.RetentionDays,
		DailyQuota:      p.DailyQuota,
		AvailableRoutes: p.AvailableRoutes,
		CreatedAt:       p.CreatedAt,
	}
}

// Register creates a new account
func (s *Server) Register(ctx context.Context, in *rpc.RegisterRequest) (*rpc.AccountReply, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if !emailPattern.MatchString(email) {
		return nil, rpc.StatusError(types.NewValidationError("email", "is not a valid address"))
	}
	if len(in.Password) < 8 {
		return nil, rpc.StatusError(types.NewValidationError("password", "must be at least 8 characters"))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.sec.BcryptRounds)
	if err != nil {
		return nil, rpc.StatusError(fmt.Errorf("failed to hash password: %w", err))
	}

	a, err := s.store.CreateAccount(ctx, email, string(hash), strings.TrimSpace(in.Name))
	if err != nil {
		return nil, rpc.StatusError(err)
	}

	logger := log.WithService("account")
	logger.Info().Int64("account_id", a.ID).Msg("account registered")
	return accountReply(a), nil
}

// Login verifies credentials and mints a token pair
func (s *Server) Login(ctx context.Context, in *rpc.LoginRequest) (*rpc.LoginReply, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))

	a, err := s.store.GetAccountByEmail(ctx, email)
	if err != nil {
		// identical response for unknown email and bad password
		return nil, rpc.StatusError(types.ErrUnauthenticated)
	}
	if a.Status != types.AccountStatusActive {
		return nil, rpc.StatusError(types.ErrForbidden)
	}
	if bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(in.Password)) != nil {
		return nil, rpc.StatusError(types.ErrUnauthenticated)
	}

	return s.mintTokenPair(ctx, a)
}

// Refresh exchanges a valid refresh token for a new token pair
func (s *Server) Refresh(ctx context.Context, in *rpc.RefreshRequest) (*rpc.LoginReply, error) {
	accountID, secret, err := SplitRefresh(in.RefreshToken)
	if err != nil {
		return nil, rpc.StatusError(err)
	}

	ok, err := s.store.CheckRefreshToken(ctx, accountID, HashKey(secret))
	if err != nil {
		return nil, rpc.StatusError(err)
	}
	if !ok {
		return nil, rpc.StatusError(types.ErrUnauthenticated)
	}

	a, err := s.store.GetAccountByID(ctx, accountID)
	if err != nil {
		return nil, rpc.StatusError(types.ErrUnauthenticated)
	}

	// rotate: the used token is consumed
	if err := s.store.DeleteRefreshTokens(ctx, accountID, HashKey(secret)); err != nil {
		return nil, rpc.StatusError(err)
	}
	return s.mintTokenPair(ctx, a)
}

func (s *Server) mintTokenPair(ctx context.Context, a *types.Account) (*rpc.LoginReply, error) {
	access, err := s.tokens.MintAccess(a.ID, a.Email)
	if err != nil {
		return nil, rpc.StatusError(err)
	}
	refresh, refreshHash, err := s.tokens.MintRefresh(a.ID)
	if err != nil {
		return nil, rpc.StatusError(err)
	}
	if err := s.store.SaveRefreshToken(ctx, a.ID, refreshHash, time.Now().Add(s.tokens.RefreshTTL())); err != nil {
		return nil, rpc.StatusError(err)
	}

	return &rpc.LoginReply{
		AccessToken:      access,
		RefreshToken:     refresh,
		TokenType:        "bearer",
		ExpiresInSeconds: int(s.tokens.AccessTTL().Seconds()),
		AccountID:        a.ID,
		Email:            a.Email,
		Name:             a.DisplayName,
	}, nil
}

// Logout drops the presented refresh token, or all of them
func (s *Server) Logout(ctx context.Context, in *rpc.LogoutRequest) (*rpc.Empty, error) {
	hash := ""
	if in.RefreshToken != "" {
		if _, secret, err := SplitRefresh(in.RefreshToken); err == nil {
			hash = HashKey(secret)
		}
	}
	if err := s.store.DeleteRefreshTokens(ctx, in.AccountID, hash); err != nil {
		return nil, rpc.StatusError(err)
	}
	return &rpc.Empty{}, nil
}

// GetAccount returns the account profile
func (s *Server) GetAccount(ctx context.Context, in *rpc.GetAccountRequest) (*rpc.AccountReply, error) {
	a, err := s.store.GetAccountByID(ctx, in.AccountID)
	if err != nil {
		return nil, rpc.StatusError(err)
	}
	return accountReply(a), nil
}

// UpdateName changes the display name
func (s *Server) UpdateName(ctx context.Context, in *rpc.UpdateNameRequest) (*rpc.AccountReply, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, rpc.StatusError(types.NewValidationError("name", "is required"))
	}
	if err := s.store.UpdateAccountName(ctx, in.AccountID, name); err != nil {
		return nil, rpc.StatusError(err)
	}
	a, err := s.store.GetAccountByID(ctx, in.AccountID)
	if err != nil {
		return nil, rpc.StatusError(err)
	}
	return accountReply(a), nil
}

// ChangePassword verifies the old password, stores the new hash and
// invalidates every refresh token.
func (s *Server) ChangePassword(ctx context.Context, in *rpc.ChangePasswordRequest) (*rpc.Empty, error) {
	if len(in.NewPassword) < 8 {
		return nil, rpc.StatusError(types.NewValidationError("new_password", "must be at least 8 characters"))
	}

	a, err := s.store.GetAccountByID(ctx, in.AccountID)
	if err != nil {
		return nil, rpc.StatusError(err)
	}
	if bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(in.OldPassword)) != nil {
		return nil, rpc.StatusError(types.ErrUnauthenticated)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), s.sec.BcryptRounds)
	if err != nil {
		return nil, rpc.StatusError(fmt.Errorf("failed to hash password: %w", err))
	}
	if err := s.store.UpdateAccountPassword(ctx, in.AccountID, string(hash)); err != nil {
		return nil, rpc.StatusError(err)
	}
	_ = s.store.DeleteRefreshTokens(ctx, in.AccountID, "")
	return &rpc.Empty{}, nil
}

// CreateProject creates a project under the calling account
func (s *Server) CreateProject(ctx context.Context, in *rpc.CreateProjectRequest) (*rpc.ProjectReply, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, rpc.StatusError(types.NewValidationError("name", "is required"))
	}
	slug := strings.ToLower(strings.TrimSpace(in.Slug))
	if !slugPattern.MatchString(slug) {
		return nil, rpc.StatusError(types.NewValidationError("slug",
			"must be lowercase letters, digits, hyphens or underscores"))
	}
	env := types.Environment(in.Environment)
	switch env {
	case types.EnvironmentProduction, types.EnvironmentStaging, types.EnvironmentDev:
	case "":
		env = types.EnvironmentProduction
	default:
		return nil, rpc.StatusError(types.NewValidationError("environment", "is invalid"))
	}

	p, err := s.store.CreateProject(ctx, in.AccountID, in.Name, slug, env, s.sec.DefaultDailyQuota)
	if err != nil {
		return nil, rpc.StatusError(err)
	}
	return projectReply(p), nil
}

// ListProjects lists the account's projects
func (s *Server) ListProjects(ctx context.Context, in *rpc.ListProjectsRequest) (*rpc.ProjectListReply, error) {
	projects, err := s.store.ListProjects(ctx, in.AccountID)
	if err != nil {
		return nil, rpc.StatusError(err)
	}
	reply := &rpc.ProjectListReply{Projects: make([]*rpc.ProjectReply, 0, len(projects))}
	for _, p := range projects {
		reply.Projects = append(reply.Projects, projectReply(p))
	}
	return reply, nil
}

// GetProjectBySlug fetches one project, enforcing ownership
func (s *Server) GetProjectBySlug(ctx context.Context, in *rpc.GetProjectBySlugRequest) (*rpc.ProjectReply, error) {
	p, err := s.store.GetProjectBySlug(ctx, strings.ToLower(in.Slug))
	if err != nil {
		return nil, rpc.StatusError(err)
	}
	if p.AccountID != in.AccountID {
		return nil, rpc.StatusError(types.ErrForbidden)
	}
	return projectReply(p), nil
}

// CreateApiKey mints a key for a project the caller owns. The
// plaintext appears in this reply and nowhere else, ever.
func (s *Server) CreateApiKey(ctx context.Context, in *rpc.CreateApiKeyRequest) (*rpc.CreateApiKeyReply, error) {
	p, err := s.store.GetProjectByID(ctx, in.ProjectID)
	if err != nil {
		return nil, rpc.StatusError(err)
	}
	if p.AccountID != in.AccountID {
		return nil, rpc.StatusError(types.ErrForbidden)
	}

	plaintext, prefix, hash, err := MintKey()
	if err != nil {
		return nil, rpc.StatusError(err)
	}

	id, err := s.store.InsertApiKey(ctx, &types.ApiKey{
		ProjectID:          in.ProjectID,
		KeyPrefix:          prefix,
		KeyHash:            hash,
		DisplayName:        in.Name,
		RateLimitPerMinute: s.sec.DefaultRatePerMin,
		RateLimitPerHour:   s.sec.DefaultRatePerHour,
	})
	if err != nil {
		return nil, rpc.StatusError(err)
	}

	return &rpc.CreateApiKeyReply{KeyID: id, FullKey: plaintext, KeyPrefix: prefix}, nil
}

// ValidateApiKey resolves a key secret to its validation record: one
// indexed lookup on the stored hash. Invalid keys return valid=false
// rather than an error so the gateway can cache the outcome shape.
func (s *Server) ValidateApiKey(ctx context.Context, in *rpc.ValidateApiKeyRequest) (*types.KeyValidation, error) {
	k, err := s.store.GetApiKeyByHash(ctx, HashKey(in.Key))
	if err != nil {
		return &types.KeyValidation{Valid: false, Error: "invalid api key"}, nil
	}
	if k.Status != types.KeyStatusActive {
		return &types.KeyValidation{Valid: false, Error: "api key revoked"}, nil
	}
	if k.ExpiresAt != nil && k.ExpiresAt.Before(time.Now()) {
		return &types.KeyValidation{Valid: false, Error: "api key expired"}, nil
	}

	p, err := s.store.GetProjectByID(ctx, k.ProjectID)
	if err != nil {
		return nil, rpc.StatusError(err)
	}

	usage, err := s.store.GetDailyUsage(ctx, p.ID, time.Now().UTC().Truncate(24*time.Hour))
	if err != nil {
		return nil, rpc.StatusError(err)
	}

	// advance last_used_at off the hot path
	go func(id int64) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := s.store.TouchApiKey(ctx, id); err != nil {
			logger := log.WithService("account")
			logger.Warn().Err(err).Msg("failed to touch api key")
		}
	}(k.ID)

	return &types.KeyValidation{
		Valid:              true,
		KeyID:              k.ID,
		ProjectID:          p.ID,
		AccountID:          p.AccountID,
		RateLimitPerMinute: k.RateLimitPerMinute,
		RateLimitPerHour:   k.RateLimitPerHour,
		DailyQuota:         p.DailyQuota,
		RetentionDays:      p.RetentionDays,
		CurrentUsage:       usage.LogsIngested,
	}, nil
}

// RevokeApiKey flips the key to revoked and invalidates exactly that
// key's cache entry.
func (s *Server) RevokeApiKey(ctx context.Context, in *rpc.RevokeApiKeyRequest) (*rpc.RevokeApiKeyReply, error) {
	k, err := s.store.GetApiKeyByID(ctx, in.KeyID)
	if err != nil {
		return nil, rpc.StatusError(err)
	}
	p, err := s.store.GetProjectByID(ctx, k.ProjectID)
	if err != nil {
		return nil, rpc.StatusError(err)
	}
	if p.AccountID != in.AccountID {
		return nil, rpc.StatusError(types.ErrForbidden)
	}

	if err := s.store.RevokeApiKey(ctx, in.KeyID); err != nil {
		return nil, rpc.StatusError(err)
	}
	if err := s.cache.DeleteKeyValidation(ctx, k.KeyHash); err != nil {
		logger := log.WithService("account")
		logger.Warn().Err(err).Msg("failed to invalidate key cache")
	}

	return &rpc.RevokeApiKeyReply{Success: true, Message: "api key revoked"}, nil
}

// ListApiKeys lists a project's keys (prefix only, never hashes)
func (s *Server) ListApiKeys(ctx context.Context, in *rpc.ListApiKeysRequest) (*rpc.ApiKeyListReply, error) {
	p, err := s.store.GetProjectByID(ctx, in.ProjectID)
	if err != nil {
		return nil, rpc.StatusError(err)
	}
	if p.AccountID != in.AccountID {
		return nil, rpc.StatusError(types.ErrForbidden)
	}

	keys, err := s.store.ListApiKeys(ctx, in.ProjectID)
	if err != nil {
		return nil, rpc.StatusError(err)
	}

	reply := &rpc.ApiKeyListReply{Keys: make([]*rpc.ApiKeySummary, 0, len(keys))}
	for _, k := range keys {
		reply.Keys = append(reply.Keys, &rpc.ApiKeySummary{
			ID:         k.ID,
			ProjectID:  k.ProjectID,
			KeyPrefix:  k.KeyPrefix,
			Name:       k.DisplayName,
			Status:     string(k.Status),
			LastUsedAt: k.LastUsedAt,
			CreatedAt:  k.CreatedAt,
		})
	}
	return reply, nil
}

// GetDailyUsage reads a project's usage row for one day
func (s *Server) GetDailyUsage(ctx context.Context, in *rpc.DailyUsageRequest) (*rpc.DailyUsageReply, error) {
	day, err := time.Parse("20060102", in.Date)
	if err != nil {
		return nil, rpc.StatusError(types.NewValidationError("date", "must be YYYYMMDD"))
	}
	u, err := s.store.GetDailyUsage(ctx, in.ProjectID, day)
	if err != nil {
		return nil, rpc.StatusError(err)
	}
	return &rpc.DailyUsageReply{
		ProjectID:    u.ProjectID,
		Date:         in.Date,
		LogsIngested: u.LogsIngested,
		LogsQueried:  u.LogsQueried,
		StorageBytes: u.StorageBytes,
	}, nil
}
