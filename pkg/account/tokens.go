package account

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ledgerlog/ledger/pkg/config"
	"github.com/ledgerlog/ledger/pkg/types"
)

// TokenIssuer mints and verifies session credentials: short-lived
// HS256 access tokens and opaque refresh tokens stored hashed.
type TokenIssuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// Claims carried by an access token
type Claims struct {
	AccountID int64
	Email     string
}

// NewTokenIssuer creates a token issuer from security configuration
func NewTokenIssuer(cfg config.Security) *TokenIssuer {
	return &TokenIssuer{
		secret:     []byte(cfg.JWTSecret),
		accessTTL:  time.Duration(cfg.AccessTTLMinutes) * time.Minute,
		refreshTTL: time.Duration(cfg.RefreshTTLDays) * 24 * time.Hour,
	}
}

// AccessTTL returns the access token lifetime
func (t *TokenIssuer) AccessTTL() time.Duration {
	return t.accessTTL
}

// RefreshTTL returns the refresh token lifetime
func (t *TokenIssuer) RefreshTTL() time.Duration {
	return t.refreshTTL
}

// MintAccess signs a new access token for the account
func (t *TokenIssuer) MintAccess(accountID int64, email string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   strconv.FormatInt(accountID, 10),
		"email": email,
		"type":  "access",
		"iat":   now.Unix(),
		"exp":   now.Add(t.accessTTL).Unix(),
	})
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, nil
}

// VerifyAccess validates signature, expiry and the type claim, and
// returns the token's identity claims.
func (t *TokenIssuer) VerifyAccess(tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", tok.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return nil, types.ErrUnauthenticated
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, types.ErrUnauthenticated
	}
	if typ, _ := claims["type"].(string); typ != "access" {
		return nil, types.ErrUnauthenticated
	}

	sub, _ := claims["sub"].(string)
	accountID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return nil, types.ErrUnauthenticated
	}
	email, _ := claims["email"].(string)

	return &Claims{AccountID: accountID, Email: email}, nil
}

// MintRefresh generates an opaque refresh token. The returned token
// embeds the account id so the server can find the stored hash; only
// the secret half is hashed at rest.
func (t *TokenIssuer) MintRefresh(accountID int64) (string, string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", "", fmt.Errorf("failed to generate refresh token: %w", err)
	}
	secret := base64.RawURLEncoding.EncodeToString(raw)
	token := fmt.Sprintf("%d.%s", accountID, secret)
	return token, HashKey(secret), nil
}

// SplitRefresh parses a refresh token into its account id and secret
func SplitRefresh(token string) (int64, string, error) {
	idStr, secret, found := strings.Cut(token, ".")
	if !found {
		return 0, "", types.ErrUnauthenticated
	}
	accountID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return 0, "", types.ErrUnauthenticated
	}
	return accountID, secret, nil
}
