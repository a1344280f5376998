package ports

import (
	"context"
	"time"

	"github.com/layer-3/liaison/core"
)

// KeyListFilter narrows and paginates key listings.
type KeyListFilter struct {
	Skip        int
	Limit       int
	ShowExpired bool
	ShowRevoked bool
}

// KeyStore persists API key records.
type KeyStore interface {
	Create(ctx context.Context, key *core.ApiKey) error

	// GetByHash looks a key up by the hash of its secret. Returns
	// core.ErrNotFound when no record matches.
	GetByHash(ctx context.Context, hash string) (*core.ApiKey, error)

	// GetByID looks a key up by id, scoped to its owner.
	GetByID(ctx context.Context, id, ownerID string) (*core.ApiKey, error)

	// List returns the owner's keys after filtering, plus the total count
	// matching the filter before pagination.
	List(ctx context.Context, ownerID string, filter KeyListFilter) ([]*core.ApiKey, int, error)

	Update(ctx context.Context, key *core.ApiKey) error
}

// CheckpointStore holds pending checkpoints between the initial challenge and
// its resolution, keyed by linked-account id. Entries expire after ttl.
type CheckpointStore interface {
	Save(ctx context.Context, checkpoint *core.Checkpoint, ttl time.Duration) error
	Get(ctx context.Context, accountID string) (*core.Checkpoint, error)
	Delete(ctx context.Context, accountID string) error
}

// AccountStore persists linked-account records.
type AccountStore interface {
	Save(ctx context.Context, account *core.LinkedAccount) error
	Get(ctx context.Context, id, ownerID string) (*core.LinkedAccount, error)
}
