package account

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerlog/ledger/pkg/config"
	"github.com/ledgerlog/ledger/pkg/types"
)

func testIssuer() *TokenIssuer {
	return NewTokenIssuer(config.Security{
		JWTSecret:        "test-secret-not-for-production",
		AccessTTLMinutes: 15,
		RefreshTTLDays:   30,
	})
}

func TestAccessTokenRoundTrip(t *testing.T) {
	issuer := testIssuer()
	signed, err := issuer.MintAccess(42, "dev@example.com")
	require.NoError(t, err)

	claims, err := issuer.VerifyAccess(signed)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.AccountID)
	assert.Equal(t, "dev@example.com", claims.Email)
}

func TestVerifyAccessRejectsWrongSecret(t *testing.T) {
	signed, err := testIssuer().MintAccess(42, "dev@example.com")
	require.NoError(t, err)

	other := NewTokenIssuer(config.Security{
		JWTSecret:        "a-different-secret",
		AccessTTLMinutes: 15,
		RefreshTTLDays:   30,
	})
	_, err = other.VerifyAccess(signed)
	assert.ErrorIs(t, err, types.ErrUnauthenticated)
}

func TestVerifyAccessRejectsExpired(t *testing.T) {
	issuer := testIssuer()
	issuer.accessTTL = -time.Minute

	signed, err := issuer.MintAccess(42, "dev@example.com")
	require.NoError(t, err)

	_, err = issuer.VerifyAccess(signed)
	assert.ErrorIs(t, err, types.ErrUnauthenticated)
}

func TestVerifyAccessRejectsWrongType(t *testing.T) {
	issuer := testIssuer()
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "42",
		"type": "refresh",
		"iat":  now.Unix(),
		"exp":  now.Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString(issuer.secret)
	require.NoError(t, err)

	_, err = issuer.VerifyAccess(signed)
	assert.ErrorIs(t, err, types.ErrUnauthenticated)
}

func TestVerifyAccessRejectsGarbage(t *testing.T) {
	_, err := testIssuer().VerifyAccess("not.a.token")
	assert.ErrorIs(t, err, types.ErrUnauthenticated)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	token, storedHash, err := testIssuer().MintRefresh(42)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(token, "42."))

	accountID, secret, err := SplitRefresh(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), accountID)
	assert.Equal(t, storedHash, HashKey(secret))
}

func TestSplitRefreshRejectsMalformed(t *testing.T) {
	for _, token := range []string{"", "nodot", "abc.secret", ".secret"} {
		_, _, err := SplitRefresh(token)
		assert.ErrorIs(t, err, types.ErrUnauthenticated, token)
	}
}
