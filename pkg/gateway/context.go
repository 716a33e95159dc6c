package gateway

import (
	"context"
)

type contextKey int

const principalKey contextKey = iota

// Principal is the authenticated identity attached to a request.
// API-key requests carry a project scope; session-token requests carry
// only the account.
type Principal struct {
	AccountID          int64
	ProjectID          int64 // 0 for session tokens
	KeyID              int64
	RateLimitPerMinute int
	RateLimitPerHour   int
	DailyQuota         int64
	CurrentUsage       int64
}

// HasProject reports whether the request is project-scoped
func (p *Principal) HasProject() bool {
	return p.ProjectID != 0
}

func withPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFrom returns the request principal, or nil on public paths
func PrincipalFrom(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey).(*Principal)
	return p
}
