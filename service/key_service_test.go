package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/layer-3/liaison/adapters/store"
	"github.com/layer-3/liaison/core"
	"github.com/layer-3/liaison/ports"
)

func newKeyService() (*KeyService, *store.MemoryKeyStore) {
	keys := store.NewMemoryKeyStore()
	return NewKeyService(keys, nil), keys
}

func TestIssueReturnsSecretOnce(t *testing.T) {
	svc, keys := newKeyService()
	ctx := context.Background()

	secret, key, err := svc.Issue(ctx, "owner-1", "ci key", []core.ScopeType{core.ScopeAccountsRead}, 30)
	require.NoError(t, err)

	assert.Equal(t, secret[:core.KeyPrefixLength], key.KeyPrefix)
	assert.Equal(t, core.HashSecret(secret), key.HashedKey)
	assert.True(t, key.IsActive)
	require.NotNil(t, key.ExpiresAt)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 30), *key.ExpiresAt, time.Minute)

	// The stored record never retains the raw secret.
	stored, err := keys.GetByID(ctx, key.ID, "owner-1")
	require.NoError(t, err)
	assert.NotContains(t, stored.HashedKey, secret)
	assert.Equal(t, core.HashSecret(secret), stored.HashedKey)
}

func TestIssueRejectsBadArguments(t *testing.T) {
	svc, _ := newKeyService()
	ctx := context.Background()

	_, _, err := svc.Issue(ctx, "owner-1", "k", []core.ScopeType{core.ScopeAccountsRead}, 0)
	assert.ErrorIs(t, err, core.ErrInvalidArgument)

	_, _, err = svc.Issue(ctx, "owner-1", "k", []core.ScopeType{core.ScopeAccountsRead}, 366)
	assert.ErrorIs(t, err, core.ErrInvalidArgument)

	_, _, err = svc.Issue(ctx, "owner-1", "k", nil, 30)
	assert.ErrorIs(t, err, core.ErrInvalidArgument)

	_, _, err = svc.Issue(ctx, "owner-1", "k", []core.ScopeType{"bogus:scope"}, 30)
	assert.ErrorIs(t, err, core.ErrInvalidArgument)
}

func TestValidateByHashOnly(t *testing.T) {
	svc, _ := newKeyService()
	ctx := context.Background()

	secret, key, err := svc.Issue(ctx, "owner-1", "k", []core.ScopeType{core.ScopeAccountsRead}, 30)
	require.NoError(t, err)

	got, err := svc.Validate(ctx, secret)
	require.NoError(t, err)
	assert.Equal(t, key.ID, got.ID)
	require.NotNil(t, got.LastUsedAt, "validation records last use")

	// Presenting the stored hash instead of the secret must not authenticate.
	_, err = svc.Validate(ctx, key.HashedKey)
	assert.ErrorIs(t, err, core.ErrUnauthorized)

	_, err = svc.Validate(ctx, "not-a-key")
	assert.ErrorIs(t, err, core.ErrUnauthorized)

	_, err = svc.Validate(ctx, "")
	assert.ErrorIs(t, err, core.ErrUnauthorized)
}

func TestValidateRejectsExpiredAndRevokedAlike(t *testing.T) {
	svc, keys := newKeyService()
	ctx := context.Background()

	expiredSecret, expiredKey, err := svc.Issue(ctx, "owner-1", "expired", []core.ScopeType{core.ScopeAccountsRead}, 1)
	require.NoError(t, err)
	past := time.Now().Add(-time.Hour)
	expiredKey.ExpiresAt = &past
	require.NoError(t, keys.Update(ctx, expiredKey))

	revokedSecret, revokedKey, err := svc.Issue(ctx, "owner-1", "revoked", []core.ScopeType{core.ScopeAccountsRead}, 30)
	require.NoError(t, err)
	require.NoError(t, svc.Revoke(ctx, revokedKey.ID, "owner-1"))

	_, expiredErr := svc.Validate(ctx, expiredSecret)
	_, revokedErr := svc.Validate(ctx, revokedSecret)

	assert.ErrorIs(t, expiredErr, core.ErrUnauthorized)
	assert.ErrorIs(t, revokedErr, core.ErrUnauthorized)
}

func TestRevokeIdempotent(t *testing.T) {
	svc, _ := newKeyService()
	ctx := context.Background()

	_, key, err := svc.Issue(ctx, "owner-1", "k", []core.ScopeType{core.ScopeAccountsRead}, 30)
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(ctx, key.ID, "owner-1"))

	first, err := svc.Get(ctx, key.ID, "owner-1")
	require.NoError(t, err)
	require.True(t, first.Revoked)
	require.NotNil(t, first.RevokedAt)

	require.NoError(t, svc.Revoke(ctx, key.ID, "owner-1"))

	second, err := svc.Get(ctx, key.ID, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, first.RevokedAt.Unix(), second.RevokedAt.Unix(), "second revoke leaves state unchanged")
	assert.False(t, second.IsActive)
}

func TestRevokeUnknownKey(t *testing.T) {
	svc, _ := newKeyService()

	err := svc.Revoke(context.Background(), "missing", "owner-1")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestRevokeScopedToOwner(t *testing.T) {
	svc, _ := newKeyService()
	ctx := context.Background()

	_, key, err := svc.Issue(ctx, "owner-1", "k", []core.ScopeType{core.ScopeAccountsRead}, 30)
	require.NoError(t, err)

	err = svc.Revoke(ctx, key.ID, "owner-2")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestAuthorizeScopeEnforcement(t *testing.T) {
	svc, _ := newKeyService()
	ctx := context.Background()

	secret, _, err := svc.Issue(ctx, "owner-1", "reader", []core.ScopeType{core.ScopeAccountsRead}, 30)
	require.NoError(t, err)

	key, err := svc.Authorize(ctx, secret, core.ScopeAccountsRead)
	require.NoError(t, err)
	assert.Equal(t, "owner-1", key.OwnerID)

	_, err = svc.Authorize(ctx, secret, core.ScopeAccountsWrite)
	assert.ErrorIs(t, err, core.ErrForbidden)

	_, err = svc.Authorize(ctx, secret, core.ScopeAccountsRead, core.ScopeWebhooksRead)
	assert.ErrorIs(t, err, core.ErrForbidden)
}

func TestAuthorizeRevokedKeyIsUnauthorized(t *testing.T) {
	svc, _ := newKeyService()
	ctx := context.Background()

	secret, key, err := svc.Issue(ctx, "owner-1", "k", []core.ScopeType{core.ScopeAccountsRead}, 30)
	require.NoError(t, err)
	require.NoError(t, svc.Revoke(ctx, key.ID, "owner-1"))

	_, err = svc.Authorize(ctx, secret, core.ScopeAccountsRead)
	assert.ErrorIs(t, err, core.ErrUnauthorized)
}

func TestListFilters(t *testing.T) {
	svc, keys := newKeyService()
	ctx := context.Background()

	_, live, err := svc.Issue(ctx, "owner-1", "live", []core.ScopeType{core.ScopeAccountsRead}, 30)
	require.NoError(t, err)

	_, expired, err := svc.Issue(ctx, "owner-1", "expired", []core.ScopeType{core.ScopeAccountsRead}, 1)
	require.NoError(t, err)
	past := time.Now().Add(-time.Hour)
	expired.ExpiresAt = &past
	require.NoError(t, keys.Update(ctx, expired))

	_, revoked, err := svc.Issue(ctx, "owner-1", "revoked", []core.ScopeType{core.ScopeAccountsRead}, 30)
	require.NoError(t, err)
	require.NoError(t, svc.Revoke(ctx, revoked.ID, "owner-1"))

	listed, total, err := svc.List(ctx, "owner-1", ports.KeyListFilter{})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	assert.Equal(t, live.ID, listed[0].ID)

	_, total, err = svc.List(ctx, "owner-1", ports.KeyListFilter{ShowExpired: true})
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	_, total, err = svc.List(ctx, "owner-1", ports.KeyListFilter{ShowExpired: true, ShowRevoked: true})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
}
