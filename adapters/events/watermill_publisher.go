package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	"github.com/layer-3/liaison/core"
	"github.com/layer-3/liaison/ports"
)

// Topics used for service events.
const (
	TopicChallengeClassified = "liaison.challenge.classified"
	TopicAuthOutcome         = "liaison.auth.outcome"
	TopicKeyIssued           = "liaison.apikey.issued"
	TopicKeyRevoked          = "liaison.apikey.revoked"
)

// ChallengeClassifiedEvent is emitted when a provider challenge is classified.
type ChallengeClassifiedEvent struct {
	AccountID    string    `json:"account_id"`
	Kind         string    `json:"kind"`
	ChallengeURL string    `json:"challenge_url"`
	At           time.Time `json:"at"`
}

// AuthOutcomeEvent is emitted when an authentication attempt completes.
type AuthOutcomeEvent struct {
	AccountID string    `json:"account_id"`
	Status    string    `json:"status"`
	At        time.Time `json:"at"`
}

// KeyIssuedEvent is emitted when an API key is issued.
type KeyIssuedEvent struct {
	KeyID   string    `json:"key_id"`
	OwnerID string    `json:"owner_id"`
	Scopes  []string  `json:"scopes"`
	At      time.Time `json:"at"`
}

// KeyRevokedEvent is emitted when an API key is revoked.
type KeyRevokedEvent struct {
	KeyID   string    `json:"key_id"`
	OwnerID string    `json:"owner_id"`
	At      time.Time `json:"at"`
}

// WatermillPublisher implements the EventPublisher interface using Watermill
type WatermillPublisher struct {
	publisher message.Publisher
}

// NewWatermillPublisher creates a new Watermill publisher
func NewWatermillPublisher(publisher message.Publisher) ports.EventPublisher {
	return &WatermillPublisher{publisher: publisher}
}

func (p *WatermillPublisher) publish(topic string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(uuid.New().String(), payload)
	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// PublishChallengeClassified publishes a challenge-classified event
func (p *WatermillPublisher) PublishChallengeClassified(ctx context.Context, accountID string, kind core.ChallengeKind, challengeURL string) error {
	return p.publish(TopicChallengeClassified, ChallengeClassifiedEvent{
		AccountID:    accountID,
		Kind:         string(kind),
		ChallengeURL: challengeURL,
		At:           time.Now(),
	})
}

// PublishAuthOutcome publishes an authentication-outcome event
func (p *WatermillPublisher) PublishAuthOutcome(ctx context.Context, accountID string, status core.OutcomeStatus) error {
	return p.publish(TopicAuthOutcome, AuthOutcomeEvent{
		AccountID: accountID,
		Status:    string(status),
		At:        time.Now(),
	})
}

// PublishKeyIssued publishes a key-issued event
func (p *WatermillPublisher) PublishKeyIssued(ctx context.Context, keyID, ownerID string, scopes []core.ScopeType) error {
	names := make([]string, len(scopes))
	for i, s := range scopes {
		names[i] = string(s)
	}
	return p.publish(TopicKeyIssued, KeyIssuedEvent{
		KeyID:   keyID,
		OwnerID: ownerID,
		Scopes:  names,
		At:      time.Now(),
	})
}

// PublishKeyRevoked publishes a key-revoked event
func (p *WatermillPublisher) PublishKeyRevoked(ctx context.Context, keyID, ownerID string) error {
	return p.publish(TopicKeyRevoked, KeyRevokedEvent{
		KeyID:   keyID,
		OwnerID: ownerID,
		At:      time.Now(),
	})
}
