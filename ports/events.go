package ports

import (
	"context"

	"github.com/layer-3/liaison/core"
)

// EventPublisher emits structured events at the service's extension points.
// Publishing failures are reported but never fail the operation that
// triggered them.
type EventPublisher interface {
	PublishChallengeClassified(ctx context.Context, accountID string, kind core.ChallengeKind, challengeURL string) error
	PublishAuthOutcome(ctx context.Context, accountID string, status core.OutcomeStatus) error
	PublishKeyIssued(ctx context.Context, keyID, ownerID string, scopes []core.ScopeType) error
	PublishKeyRevoked(ctx context.Context, keyID, ownerID string) error
}
