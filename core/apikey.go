package core

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"time"
)

// ScopeType is a named permission unit attached to an API key.
type ScopeType string

const (
	ScopeAccountsRead  ScopeType = "accounts:read"
	ScopeAccountsWrite ScopeType = "accounts:write"
	ScopeWebhooksRead  ScopeType = "webhooks:read"
	ScopeWebhooksWrite ScopeType = "webhooks:write"
)

// ScopeUniverse is the closed set of valid scopes.
var ScopeUniverse = map[ScopeType]struct{}{
	ScopeAccountsRead:  {},
	ScopeAccountsWrite: {},
	ScopeWebhooksRead:  {},
	ScopeWebhooksWrite: {},
}

// ValidScopes reports whether scopes is non-empty and every element belongs
// to the scope universe.
func ValidScopes(scopes []ScopeType) bool {
	if len(scopes) == 0 {
		return false
	}
	for _, s := range scopes {
		if _, ok := ScopeUniverse[s]; !ok {
			return false
		}
	}
	return true
}

// MissingScopes returns the required scopes absent from granted, preserving
// the order of required. An empty result means the grant satisfies the
// requirement.
func MissingScopes(required, granted []ScopeType) []ScopeType {
	have := make(map[ScopeType]struct{}, len(granted))
	for _, s := range granted {
		have[s] = struct{}{}
	}
	var missing []ScopeType
	for _, s := range required {
		if _, ok := have[s]; !ok {
			missing = append(missing, s)
		}
	}
	return missing
}

// ApiKey is a capability token record. The raw secret is emitted exactly once
// at issuance; only the display prefix and the hash are ever stored.
type ApiKey struct {
	ID         string
	Name       string
	KeyPrefix  string
	HashedKey  string
	OwnerID    string
	Scopes     []ScopeType
	CreatedAt  time.Time
	ExpiresAt  *time.Time
	IsActive   bool
	Revoked    bool
	RevokedAt  *time.Time
	LastUsedAt *time.Time
}

// Live reports the effective liveness of the key at the given instant:
// active, not revoked, and not past its expiry.
func (k *ApiKey) Live(now time.Time) bool {
	if !k.IsActive || k.Revoked {
		return false
	}
	if k.ExpiresAt != nil && !k.ExpiresAt.After(now) {
		return false
	}
	return true
}

// KeyPrefixLength is the number of leading secret characters kept for display.
const KeyPrefixLength = 8

// GenerateSecret draws a 256-bit random secret and returns it together with
// its display prefix and storage hash.
func GenerateSecret() (secret, prefix, hash string, err error) {
	raw := make([]byte, 32)
	if _, err = rand.Read(raw); err != nil {
		return "", "", "", err
	}
	secret = base64.RawURLEncoding.EncodeToString(raw)
	return secret, secret[:KeyPrefixLength], HashSecret(secret), nil
}

// HashSecret derives the one-way lookup hash for a presented secret.
func HashSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}
