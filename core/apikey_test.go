package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSecret(t *testing.T) {
	secret, prefix, hash, err := GenerateSecret()
	require.NoError(t, err)

	assert.Len(t, secret, 43) // 32 bytes, base64 raw URL encoding
	assert.Equal(t, secret[:KeyPrefixLength], prefix)
	assert.Equal(t, HashSecret(secret), hash)
	assert.NotEqual(t, secret, hash)
}

func TestGenerateSecretUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		secret, _, _, err := GenerateSecret()
		require.NoError(t, err)
		require.False(t, seen[secret])
		seen[secret] = true
	}
}

func TestValidScopes(t *testing.T) {
	assert.True(t, ValidScopes([]ScopeType{ScopeAccountsRead}))
	assert.True(t, ValidScopes([]ScopeType{ScopeAccountsRead, ScopeWebhooksWrite}))
	assert.False(t, ValidScopes(nil))
	assert.False(t, ValidScopes([]ScopeType{}))
	assert.False(t, ValidScopes([]ScopeType{"accounts:admin"}))
	assert.False(t, ValidScopes([]ScopeType{ScopeAccountsRead, "bogus"}))
}

func TestMissingScopes(t *testing.T) {
	granted := []ScopeType{ScopeAccountsRead}

	assert.Empty(t, MissingScopes([]ScopeType{ScopeAccountsRead}, granted))
	assert.Equal(t, []ScopeType{ScopeAccountsWrite}, MissingScopes([]ScopeType{ScopeAccountsWrite}, granted))
	assert.Equal(t,
		[]ScopeType{ScopeAccountsWrite, ScopeWebhooksRead},
		MissingScopes([]ScopeType{ScopeAccountsRead, ScopeAccountsWrite, ScopeWebhooksRead}, granted))
	assert.Empty(t, MissingScopes(nil, granted))
}

func TestApiKeyLive(t *testing.T) {
	now := time.Now()
	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)

	key := &ApiKey{IsActive: true, ExpiresAt: &future}
	assert.True(t, key.Live(now))

	key = &ApiKey{IsActive: true}
	assert.True(t, key.Live(now), "nil expiry never expires")

	key = &ApiKey{IsActive: true, ExpiresAt: &past}
	assert.False(t, key.Live(now), "expired key is not live")

	key = &ApiKey{IsActive: false, ExpiresAt: &future}
	assert.False(t, key.Live(now))

	key = &ApiKey{IsActive: true, Revoked: true, ExpiresAt: &future}
	assert.False(t, key.Live(now))
}
