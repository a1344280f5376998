package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/layer-3/liaison/core"
	"github.com/layer-3/liaison/ports"
)

func newKey(id, owner string) *core.ApiKey {
	return &core.ApiKey{
		ID:        id,
		Name:      "key " + id,
		KeyPrefix: "prefix01",
		HashedKey: "hash-" + id,
		OwnerID:   owner,
		Scopes:    []core.ScopeType{core.ScopeAccountsRead},
		CreatedAt: time.Now(),
		IsActive:  true,
	}
}

func TestMemoryKeyStoreLookups(t *testing.T) {
	s := NewMemoryKeyStore()
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, newKey("k1", "owner-1")))

	byHash, err := s.GetByHash(ctx, "hash-k1")
	require.NoError(t, err)
	assert.Equal(t, "k1", byHash.ID)

	_, err = s.GetByHash(ctx, "hash-missing")
	assert.ErrorIs(t, err, core.ErrNotFound)

	byID, err := s.GetByID(ctx, "k1", "owner-1")
	require.NoError(t, err)
	assert.Equal(t, "k1", byID.ID)

	_, err = s.GetByID(ctx, "k1", "other-owner")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestMemoryKeyStoreReturnsCopies(t *testing.T) {
	s := NewMemoryKeyStore()
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, newKey("k1", "owner-1")))

	first, err := s.GetByID(ctx, "k1", "owner-1")
	require.NoError(t, err)
	first.Name = "mutated"
	first.Scopes[0] = "mutated:scope"

	second, err := s.GetByID(ctx, "k1", "owner-1")
	require.NoError(t, err)
	assert.Equal(t, "key k1", second.Name)
	assert.Equal(t, core.ScopeAccountsRead, second.Scopes[0])
}

func TestMemoryKeyStoreListPagination(t *testing.T) {
	s := NewMemoryKeyStore()
	ctx := context.Background()

	for _, id := range []string{"k1", "k2", "k3"} {
		require.NoError(t, s.Create(ctx, newKey(id, "owner-1")))
	}
	require.NoError(t, s.Create(ctx, newKey("other", "owner-2")))

	keys, total, err := s.List(ctx, "owner-1", ports.KeyListFilter{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, keys, 2)
	assert.Equal(t, "k1", keys[0].ID)

	keys, total, err = s.List(ctx, "owner-1", ports.KeyListFilter{Skip: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, keys, 1)
	assert.Equal(t, "k3", keys[0].ID)

	keys, total, err = s.List(ctx, "owner-1", ports.KeyListFilter{Skip: 10, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Empty(t, keys)
}

func TestMemoryKeyStoreUpdateUnknown(t *testing.T) {
	s := NewMemoryKeyStore()

	err := s.Update(context.Background(), newKey("ghost", "owner-1"))
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestMemoryCheckpointStoreTTL(t *testing.T) {
	s := NewMemoryCheckpointStore()
	ctx := context.Background()

	checkpoint := &core.Checkpoint{
		ID:        "cp-1",
		AccountID: "acct-1",
		Kind:      core.ChallengeOTP,
		Metadata:  map[string]string{"csrf_token": "csrf-1"},
		CreatedAt: time.Now(),
	}
	require.NoError(t, s.Save(ctx, checkpoint, 10*time.Millisecond))

	got, err := s.Get(ctx, "acct-1")
	require.NoError(t, err)
	assert.Equal(t, "cp-1", got.ID)

	time.Sleep(20 * time.Millisecond)

	_, err = s.Get(ctx, "acct-1")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestMemoryCheckpointStoreDelete(t *testing.T) {
	s := NewMemoryCheckpointStore()
	ctx := context.Background()

	checkpoint := &core.Checkpoint{ID: "cp-1", AccountID: "acct-1", Kind: core.ChallengeOTP}
	require.NoError(t, s.Save(ctx, checkpoint, time.Minute))
	require.NoError(t, s.Delete(ctx, "acct-1"))

	_, err := s.Get(ctx, "acct-1")
	assert.ErrorIs(t, err, core.ErrNotFound)

	// Deleting an absent checkpoint is not an error.
	assert.NoError(t, s.Delete(ctx, "acct-1"))
}

func TestMemoryAccountStoreOwnerScoped(t *testing.T) {
	s := NewMemoryAccountStore()
	ctx := context.Background()

	account := &core.LinkedAccount{
		ID:               "acct-1",
		OwnerID:          "owner-1",
		Name:             "user@example.com",
		Provider:         "LINKEDIN",
		CreatedAt:        time.Now(),
		ConnectionParams: map[string]string{"identifier": "user@example.com"},
	}
	require.NoError(t, s.Save(ctx, account))

	got, err := s.Get(ctx, "acct-1", "owner-1")
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", got.Name)

	_, err = s.Get(ctx, "acct-1", "owner-2")
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = s.Get(ctx, "missing", "owner-1")
	assert.ErrorIs(t, err, core.ErrNotFound)
}
