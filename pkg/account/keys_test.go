package account

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMintKeyShape(t *testing.T) {
	plaintext, prefix, hash, err := MintKey()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(plaintext, "ledger_"))
	assert.Len(t, plaintext, len("ledger_")+32)
	assert.Equal(t, plaintext[:20], prefix)
	assert.Regexp(t, "^[0-9a-f]{64}$", hash)
	assert.Equal(t, HashKey(plaintext), hash)
}

func TestMintKeyUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		plaintext, _, _, err := MintKey()
		require.NoError(t, err)
		assert.False(t, seen[plaintext])
		seen[plaintext] = true
	}
}

func TestHashKeyDeterministic(t *testing.T) {
	assert.Equal(t, HashKey("ledger_abc"), HashKey("ledger_abc"))
	assert.NotEqual(t, HashKey("ledger_abc"), HashKey("ledger_abd"))
}

func TestLooksLikeApiKey(t *testing.T) {
	assert.True(t, LooksLikeApiKey("ledger_h7sKq"))
	assert.True(t, LooksLikeApiKey("ak_live_h7sKq"))
	assert.False(t, LooksLikeApiKey("eyJhbGciOiJIUzI1NiJ9.e30.sig"))
	assert.False(t, LooksLikeApiKey(""))
}
