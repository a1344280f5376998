package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/layer-3/liaison/core"
	"github.com/layer-3/liaison/ports"
)

const (
	// MinExpiryDays and MaxExpiryDays bound the key expiry window.
	MinExpiryDays = 1
	MaxExpiryDays = 365
)

// KeyService issues, validates and revokes scoped API keys and enforces
// scope requirements on presented secrets.
type KeyService struct {
	keys   ports.KeyStore
	events ports.EventPublisher
}

// NewKeyService creates a new key service
func NewKeyService(keys ports.KeyStore, events ports.EventPublisher) *KeyService {
	return &KeyService{keys: keys, events: events}
}

// Issue generates a new API key for the owner. The returned secret is the
// only copy that will ever exist; the stored record keeps its prefix and
// hash only.
func (s *KeyService) Issue(ctx context.Context, ownerID, name string, scopes []core.ScopeType, expiryDays int) (string, *core.ApiKey, error) {
	if expiryDays < MinExpiryDays || expiryDays > MaxExpiryDays {
		return "", nil, fmt.Errorf("%w: expiry days must be between %d and %d", core.ErrInvalidArgument, MinExpiryDays, MaxExpiryDays)
	}
	if !core.ValidScopes(scopes) {
		return "", nil, fmt.Errorf("%w: at least one valid scope is required", core.ErrInvalidArgument)
	}

	secret, prefix, hash, err := core.GenerateSecret()
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate secret: %w", err)
	}

	now := time.Now()
	expiresAt := now.AddDate(0, 0, expiryDays)
	key := &core.ApiKey{
		ID:        uuid.New().String(),
		Name:      name,
		KeyPrefix: prefix,
		HashedKey: hash,
		OwnerID:   ownerID,
		Scopes:    append([]core.ScopeType(nil), scopes...),
		CreatedAt: now,
		ExpiresAt: &expiresAt,
		IsActive:  true,
	}

	if err := s.keys.Create(ctx, key); err != nil {
		return "", nil, fmt.Errorf("failed to store key: %w", err)
	}

	if s.events != nil {
		_ = s.events.PublishKeyIssued(ctx, key.ID, ownerID, key.Scopes)
	}

	return secret, key, nil
}

// Validate looks a key up by the hash of the presented secret and checks its
// liveness. On success the key's last_used_at is advanced; that write is
// last-write-wins under concurrent validations.
func (s *KeyService) Validate(ctx context.Context, presentedSecret string) (*core.ApiKey, error) {
	if presentedSecret == "" {
		return nil, core.ErrUnauthorized
	}

	key, err := s.keys.GetByHash(ctx, core.HashSecret(presentedSecret))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, core.ErrUnauthorized
		}
		return nil, fmt.Errorf("failed to look up key: %w", err)
	}

	if !key.Live(time.Now()) {
		return nil, core.ErrUnauthorized
	}

	now := time.Now()
	key.LastUsedAt = &now
	if err := s.keys.Update(ctx, key); err != nil {
		return nil, fmt.Errorf("failed to record key use: %w", err)
	}

	return key, nil
}

// Authorize validates the presented secret and checks that the key grants
// every required scope. The returned key is used by callers for attribution.
func (s *KeyService) Authorize(ctx context.Context, presentedSecret string, required ...core.ScopeType) (*core.ApiKey, error) {
	key, err := s.Validate(ctx, presentedSecret)
	if err != nil {
		return nil, err
	}

	if missing := core.MissingScopes(required, key.Scopes); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %v", core.ErrForbidden, missing)
	}
	return key, nil
}

// Revoke deactivates a key. Revoking an already-revoked key is a no-op
// success; keys are never deleted.
func (s *KeyService) Revoke(ctx context.Context, keyID, ownerID string) error {
	key, err := s.keys.GetByID(ctx, keyID, ownerID)
	if err != nil {
		return err
	}

	if key.Revoked {
		return nil
	}

	now := time.Now()
	key.Revoked = true
	key.RevokedAt = &now
	key.IsActive = false
	if err := s.keys.Update(ctx, key); err != nil {
		return fmt.Errorf("failed to revoke key: %w", err)
	}

	if s.events != nil {
		_ = s.events.PublishKeyRevoked(ctx, key.ID, ownerID)
	}
	return nil
}

// List returns the owner's keys after filtering, plus the filtered total.
func (s *KeyService) List(ctx context.Context, ownerID string, filter ports.KeyListFilter) ([]*core.ApiKey, int, error) {
	if filter.Limit <= 0 {
		filter.Limit = 100
	}
	return s.keys.List(ctx, ownerID, filter)
}

// Get fetches one key record scoped to its owner.
func (s *KeyService) Get(ctx context.Context, keyID, ownerID string) (*core.ApiKey, error) {
	return s.keys.GetByID(ctx, keyID, ownerID)
}
