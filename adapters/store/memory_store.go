package store

import (
	"context"
	"sync"
	"time"

	"github.com/layer-3/liaison/core"
	"github.com/layer-3/liaison/ports"
)

// MemoryKeyStore is an in-memory implementation of the KeyStore interface.
type MemoryKeyStore struct {
	mu     sync.RWMutex
	keys   map[string]*core.ApiKey
	byHash map[string]string
	// order preserves per-owner insertion order for listings
	order map[string][]string
}

// NewMemoryKeyStore creates a new in-memory key store
func NewMemoryKeyStore() *MemoryKeyStore {
	return &MemoryKeyStore{
		keys:   make(map[string]*core.ApiKey),
		byHash: make(map[string]string),
		order:  make(map[string][]string),
	}
}

// Create stores a new API key record
func (s *MemoryKeyStore) Create(ctx context.Context, key *core.ApiKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := cloneKey(key)
	s.keys[cp.ID] = cp
	s.byHash[cp.HashedKey] = cp.ID
	s.order[cp.OwnerID] = append(s.order[cp.OwnerID], cp.ID)
	return nil
}

// GetByHash looks a key up by its secret hash
func (s *MemoryKeyStore) GetByHash(ctx context.Context, hash string) (*core.ApiKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byHash[hash]
	if !ok {
		return nil, core.ErrNotFound
	}
	return cloneKey(s.keys[id]), nil
}

// GetByID looks a key up by id, scoped to its owner
func (s *MemoryKeyStore) GetByID(ctx context.Context, id, ownerID string) (*core.ApiKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key, ok := s.keys[id]
	if !ok || key.OwnerID != ownerID {
		return nil, core.ErrNotFound
	}
	return cloneKey(key), nil
}

// List returns the owner's keys after filtering, plus the filtered total
func (s *MemoryKeyStore) List(ctx context.Context, ownerID string, filter ports.KeyListFilter) ([]*core.ApiKey, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	var matched []*core.ApiKey
	for _, id := range s.order[ownerID] {
		key := s.keys[id]
		if !filter.ShowExpired && key.ExpiresAt != nil && !key.ExpiresAt.After(now) {
			continue
		}
		if !filter.ShowRevoked && key.Revoked {
			continue
		}
		matched = append(matched, key)
	}

	total := len(matched)
	if filter.Skip >= total {
		return nil, total, nil
	}
	matched = matched[filter.Skip:]
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}

	out := make([]*core.ApiKey, len(matched))
	for i, key := range matched {
		out[i] = cloneKey(key)
	}
	return out, total, nil
}

// Update replaces a stored key record
func (s *MemoryKeyStore) Update(ctx context.Context, key *core.ApiKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.keys[key.ID]; !ok {
		return core.ErrNotFound
	}
	s.keys[key.ID] = cloneKey(key)
	return nil
}

func cloneKey(key *core.ApiKey) *core.ApiKey {
	cp := *key
	cp.Scopes = append([]core.ScopeType(nil), key.Scopes...)
	if key.ExpiresAt != nil {
		t := *key.ExpiresAt
		cp.ExpiresAt = &t
	}
	if key.RevokedAt != nil {
		t := *key.RevokedAt
		cp.RevokedAt = &t
	}
	if key.LastUsedAt != nil {
		t := *key.LastUsedAt
		cp.LastUsedAt = &t
	}
	return &cp
}

// MemoryCheckpointStore is an in-memory implementation of the CheckpointStore
// interface.
type MemoryCheckpointStore struct {
	mu      sync.RWMutex
	entries map[string]checkpointEntry
}

type checkpointEntry struct {
	checkpoint *core.Checkpoint
	expiresAt  time.Time
}

// NewMemoryCheckpointStore creates a new in-memory checkpoint store
func NewMemoryCheckpointStore() *MemoryCheckpointStore {
	return &MemoryCheckpointStore{entries: make(map[string]checkpointEntry)}
}

// Save stores a pending checkpoint keyed by linked-account id
func (s *MemoryCheckpointStore) Save(ctx context.Context, checkpoint *core.Checkpoint, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[checkpoint.AccountID] = checkpointEntry{
		checkpoint: cloneCheckpoint(checkpoint),
		expiresAt:  time.Now().Add(ttl),
	}
	return nil
}

// Get retrieves a pending checkpoint by linked-account id
func (s *MemoryCheckpointStore) Get(ctx context.Context, accountID string) (*core.Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[accountID]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, core.ErrNotFound
	}
	return cloneCheckpoint(entry.checkpoint), nil
}

// Delete removes a pending checkpoint
func (s *MemoryCheckpointStore) Delete(ctx context.Context, accountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, accountID)
	return nil
}

func cloneCheckpoint(checkpoint *core.Checkpoint) *core.Checkpoint {
	cp := *checkpoint
	cp.Metadata = make(map[string]string, len(checkpoint.Metadata))
	for k, v := range checkpoint.Metadata {
		cp.Metadata[k] = v
	}
	return &cp
}

// MemoryAccountStore is an in-memory implementation of the AccountStore
// interface.
type MemoryAccountStore struct {
	mu       sync.RWMutex
	accounts map[string]*core.LinkedAccount
}

// NewMemoryAccountStore creates a new in-memory account store
func NewMemoryAccountStore() *MemoryAccountStore {
	return &MemoryAccountStore{accounts: make(map[string]*core.LinkedAccount)}
}

// Save stores a linked-account record
func (s *MemoryAccountStore) Save(ctx context.Context, account *core.LinkedAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.accounts[account.ID] = cloneAccount(account)
	return nil
}

// Get retrieves a linked account by id, scoped to its owner
func (s *MemoryAccountStore) Get(ctx context.Context, id, ownerID string) (*core.LinkedAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.accounts[id]
	if !ok || account.OwnerID != ownerID {
		return nil, core.ErrNotFound
	}
	return cloneAccount(account), nil
}

func cloneAccount(account *core.LinkedAccount) *core.LinkedAccount {
	cp := *account
	cp.ConnectionParams = make(map[string]string, len(account.ConnectionParams))
	for k, v := range account.ConnectionParams {
		cp.ConnectionParams[k] = v
	}
	cp.Sources = append([]core.Source(nil), account.Sources...)
	cp.Groups = append([]string(nil), account.Groups...)
	return &cp
}
