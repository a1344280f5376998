package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/layer-3/liaison/core"
	"github.com/layer-3/liaison/ports"
)

const (
	keyPrefix        = "liaison:apikey:"
	keyHashPrefix    = "liaison:apikey:hash:"
	keyOwnerPrefix   = "liaison:apikey:owner:"
	checkpointPrefix = "liaison:checkpoint:"
	accountPrefix    = "liaison:account:"
)

// RedisKeyStore is a Redis implementation of the KeyStore interface. Records
// are stored as JSON with a secondary hash index and a per-owner id list.
type RedisKeyStore struct {
	client *redis.Client
}

// NewRedisKeyStore creates a new Redis key store
func NewRedisKeyStore(client *redis.Client) *RedisKeyStore {
	return &RedisKeyStore{client: client}
}

// Create stores a new API key record
func (s *RedisKeyStore) Create(ctx context.Context, key *core.ApiKey) error {
	payload, err := json.Marshal(key)
	if err != nil {
		return fmt.Errorf("failed to marshal key: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, keyPrefix+key.ID, payload, 0)
	pipe.Set(ctx, keyHashPrefix+key.HashedKey, key.ID, 0)
	pipe.RPush(ctx, keyOwnerPrefix+key.OwnerID, key.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store key: %w", err)
	}
	return nil
}

// GetByHash looks a key up by its secret hash
func (s *RedisKeyStore) GetByHash(ctx context.Context, hash string) (*core.ApiKey, error) {
	id, err := s.client.Get(ctx, keyHashPrefix+hash).Result()
	if err == redis.Nil {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve key hash: %w", err)
	}
	return s.get(ctx, id)
}

// GetByID looks a key up by id, scoped to its owner
func (s *RedisKeyStore) GetByID(ctx context.Context, id, ownerID string) (*core.ApiKey, error) {
	key, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if key.OwnerID != ownerID {
		return nil, core.ErrNotFound
	}
	return key, nil
}

func (s *RedisKeyStore) get(ctx context.Context, id string) (*core.ApiKey, error) {
	payload, err := s.client.Get(ctx, keyPrefix+id).Bytes()
	if err == redis.Nil {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch key: %w", err)
	}

	var key core.ApiKey
	if err := json.Unmarshal(payload, &key); err != nil {
		return nil, fmt.Errorf("failed to unmarshal key: %w", err)
	}
	return &key, nil
}

// List returns the owner's keys after filtering, plus the filtered total
func (s *RedisKeyStore) List(ctx context.Context, ownerID string, filter ports.KeyListFilter) ([]*core.ApiKey, int, error) {
	ids, err := s.client.LRange(ctx, keyOwnerPrefix+ownerID, 0, -1).Result()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list keys: %w", err)
	}

	now := time.Now()
	var matched []*core.ApiKey
	for _, id := range ids {
		key, err := s.get(ctx, id)
		if err != nil {
			if err == core.ErrNotFound {
				continue
			}
			return nil, 0, err
		}
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
	return matched, total, nil
}

// Update replaces a stored key record
func (s *RedisKeyStore) Update(ctx context.Context, key *core.ApiKey) error {
	exists, err := s.client.Exists(ctx, keyPrefix+key.ID).Result()
	if err != nil {
		return fmt.Errorf("failed to check key existence: %w", err)
	}
	if exists == 0 {
		return core.ErrNotFound
	}

	payload, err := json.Marshal(key)
	if err != nil {
		return fmt.Errorf("failed to marshal key: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+key.ID, payload, 0).Err(); err != nil {
		return fmt.Errorf("failed to update key: %w", err)
	}
	return nil
}

// RedisCheckpointStore is a Redis implementation of the CheckpointStore
// interface. Entries carry a TTL so abandoned checkpoints expire on their own.
type RedisCheckpointStore struct {
	client *redis.Client
}

// NewRedisCheckpointStore creates a new Redis checkpoint store
func NewRedisCheckpointStore(client *redis.Client) *RedisCheckpointStore {
	return &RedisCheckpointStore{client: client}
}

// Save stores a pending checkpoint keyed by linked-account id
func (s *RedisCheckpointStore) Save(ctx context.Context, checkpoint *core.Checkpoint, ttl time.Duration) error {
	payload, err := json.Marshal(checkpoint)
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint: %w", err)
	}
	if err := s.client.Set(ctx, checkpointPrefix+checkpoint.AccountID, payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store checkpoint: %w", err)
	}
	return nil
}

// Get retrieves a pending checkpoint by linked-account id
func (s *RedisCheckpointStore) Get(ctx context.Context, accountID string) (*core.Checkpoint, error) {
	payload, err := s.client.Get(ctx, checkpointPrefix+accountID).Bytes()
	if err == redis.Nil {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch checkpoint: %w", err)
	}

	var checkpoint core.Checkpoint
	if err := json.Unmarshal(payload, &checkpoint); err != nil {
		return nil, fmt.Errorf("failed to unmarshal checkpoint: %w", err)
	}
	return &checkpoint, nil
}

// Delete removes a pending checkpoint
func (s *RedisCheckpointStore) Delete(ctx context.Context, accountID string) error {
	if err := s.client.Del(ctx, checkpointPrefix+accountID).Err(); err != nil {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}
	return nil
}

// RedisAccountStore is a Redis implementation of the AccountStore interface.
type RedisAccountStore struct {
	client *redis.Client
}

// NewRedisAccountStore creates a new Redis account store
func NewRedisAccountStore(client *redis.Client) *RedisAccountStore {
	return &RedisAccountStore{client: client}
}

// Save stores a linked-account record
func (s *RedisAccountStore) Save(ctx context.Context, account *core.LinkedAccount) error {
	payload, err := json.Marshal(account)
	if err != nil {
		return fmt.Errorf("failed to marshal account: %w", err)
	}
	if err := s.client.Set(ctx, accountPrefix+account.ID, payload, 0).Err(); err != nil {
		return fmt.Errorf("failed to store account: %w", err)
	}
	return nil
}

// Get retrieves a linked account by id, scoped to its owner
func (s *RedisAccountStore) Get(ctx context.Context, id, ownerID string) (*core.LinkedAccount, error) {
	payload, err := s.client.Get(ctx, accountPrefix+id).Bytes()
	if err == redis.Nil {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch account: %w", err)
	}

	var account core.LinkedAccount
	if err := json.Unmarshal(payload, &account); err != nil {
		return nil, fmt.Errorf("failed to unmarshal account: %w", err)
	}
	if account.OwnerID != ownerID {
		return nil, core.ErrNotFound
	}
	return &account, nil
}
