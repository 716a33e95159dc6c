package account

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
)

// API keys are printable tokens: a fixed human prefix followed by 32
// URL-safe random characters. The stored key_prefix is the first 20
// characters of the plaintext, shown in UIs; the secret itself is
// persisted only as its SHA-256 hash.
const (
	keyHumanPrefix  = "ledger_"
	keyRandomChars  = 32
	keyPrefixLength = 20
)

// MintKey generates a fresh API key. Returns the plaintext (shown to
// the user exactly once), the stored prefix and the stored hash.
func MintKey() (plaintext, prefix, hash string, err error) {
	// 24 random bytes give 32 base64url chars
	raw := make([]byte, 24)
	if _, err = rand.Read(raw); err != nil {
		return "", "", "", fmt.Errorf("failed to generate key material: %w", err)
	}
	random := base64.RawURLEncoding.EncodeToString(raw)[:keyRandomChars]

	plaintext = keyHumanPrefix + random
	prefix = plaintext[:keyPrefixLength]
	hash = HashKey(plaintext)
	return plaintext, prefix, hash, nil
}

// HashKey returns the stored hash of a full API-key secret
func HashKey(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}

// LooksLikeApiKey reports whether a bearer credential is an API key
// rather than a session token.
func LooksLikeApiKey(credential string) bool {
	return strings.HasPrefix(credential, keyHumanPrefix) ||
		strings.HasPrefix(credential, "ak_live_")
}
