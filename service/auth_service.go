package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/layer-3/liaison/core"
	"github.com/layer-3/liaison/ports"
)

const (
	// DefaultMaxAttempts is the checkpoint attempt ceiling when none is configured.
	DefaultMaxAttempts = 3

	// DefaultCheckpointTTL bounds how long a pending checkpoint stays resolvable.
	DefaultCheckpointTTL = 15 * time.Minute

	// DefaultProviderTimeout bounds one authenticate/resolve round trip.
	DefaultProviderTimeout = 30 * time.Second

	providerName = "LINKEDIN"
)

// Checkpoint metadata keys owned by the service rather than the provider.
const (
	metaOwnerID    = "owner_id"
	metaIdentifier = "identifier"
)

// AuthService drives provider authentication attempts and checkpoint
// resolution. One Connect or ResolveCheckpoint call performs at most two
// provider round trips; resolution attempts are serialized per account id.
type AuthService struct {
	provider    ports.ProviderClient
	checkpoints ports.CheckpointStore
	accounts    ports.AccountStore
	events      ports.EventPublisher

	maxAttempts   int
	checkpointTTL time.Duration
	timeout       time.Duration

	mu       sync.Mutex
	inflight map[string]struct{}
}

// AuthOption configures an AuthService.
type AuthOption func(*AuthService)

// WithMaxAttempts sets the checkpoint attempt ceiling.
func WithMaxAttempts(n int) AuthOption {
	return func(s *AuthService) { s.maxAttempts = n }
}

// WithCheckpointTTL sets how long pending checkpoints remain resolvable.
func WithCheckpointTTL(ttl time.Duration) AuthOption {
	return func(s *AuthService) { s.checkpointTTL = ttl }
}

// WithProviderTimeout sets the per-call deadline applied when the caller
// context carries none.
func WithProviderTimeout(d time.Duration) AuthOption {
	return func(s *AuthService) { s.timeout = d }
}

// NewAuthService creates a new authentication service
func NewAuthService(
	provider ports.ProviderClient,
	checkpoints ports.CheckpointStore,
	accounts ports.AccountStore,
	events ports.EventPublisher,
	opts ...AuthOption,
) *AuthService {
	s := &AuthService{
		provider:      provider,
		checkpoints:   checkpoints,
		accounts:      accounts,
		events:        events,
		maxAttempts:   DefaultMaxAttempts,
		checkpointTTL: DefaultCheckpointTTL,
		timeout:       DefaultProviderTimeout,
		inflight:      make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Connect performs one login attempt against the provider using the supplied
// credential and returns the outcome. On a challenge outcome the pending
// checkpoint has been stored under the returned account id.
func (s *AuthService) Connect(ctx context.Context, ownerID string, credential core.Credential) (core.AuthOutcome, error) {
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	switch cred := credential.(type) {
	case core.PasswordCredential:
		return s.connectWithPassword(ctx, ownerID, cred)
	case core.CookieCredential:
		return s.connectWithCookies(ctx, ownerID, cred)
	default:
		return core.AuthOutcome{}, fmt.Errorf("%w: unsupported credential kind", core.ErrInvalidArgument)
	}
}

func (s *AuthService) connectWithPassword(ctx context.Context, ownerID string, cred core.PasswordCredential) (core.AuthOutcome, error) {
	res, err := s.provider.LoginWithCredentials(ctx, cred.Identifier, cred.Secret, loginOptions(cred.Meta))
	if err != nil {
		return s.failure(ctx, "", providerFailure(ctx, err)), nil
	}

	switch res.Result {
	case ports.LoginResultChallenge:
		accountID := uuid.New().String()
		checkpoint := s.newCheckpoint(ctx, accountID, ownerID, cred.Identifier, res.ChallengeURL, res.ChallengeMetadata, res.RawPayload, 0)
		if err := s.checkpoints.Save(ctx, checkpoint, s.checkpointTTL); err != nil {
			return core.AuthOutcome{}, fmt.Errorf("failed to store checkpoint: %w", err)
		}
		return s.challengePending(ctx, checkpoint), nil

	case ports.LoginResultPass:
		account := s.newAccount(uuid.New().String(), ownerID, cred.Identifier, res.AccessToken, res.PremiumToken)
		if err := s.accounts.Save(ctx, account); err != nil {
			return core.AuthOutcome{}, fmt.Errorf("failed to store account: %w", err)
		}
		return s.success(ctx, account.ID), nil

	default:
		return s.failure(ctx, "", core.ErrAuthenticationFailed), nil
	}
}

func (s *AuthService) connectWithCookies(ctx context.Context, ownerID string, cred core.CookieCredential) (core.AuthOutcome, error) {
	// Cookie credentials are pre-authenticated; a single identity probe
	// either confirms them or fails the attempt. This path never yields a
	// checkpoint.
	if err := s.provider.ProbeWithCookies(ctx, cred.AccessToken, cred.PremiumToken, loginOptions(cred.Meta)); err != nil {
		return s.failure(ctx, "", providerFailure(ctx, err)), nil
	}

	account := s.newAccount(uuid.New().String(), ownerID, "", cred.AccessToken, cred.PremiumToken)
	if err := s.accounts.Save(ctx, account); err != nil {
		return core.AuthOutcome{}, fmt.Errorf("failed to store account: %w", err)
	}
	return s.success(ctx, account.ID), nil
}

// ResolveCheckpoint submits a verification code for the pending checkpoint of
// the given account. Concurrent resolution attempts for the same account are
// rejected with ErrConflict.
func (s *AuthService) ResolveCheckpoint(ctx context.Context, linkedAccountID, code string) (core.AuthOutcome, error) {
	if !s.acquire(linkedAccountID) {
		return s.failure(ctx, linkedAccountID, core.ErrConflict), nil
	}
	defer s.release(linkedAccountID)

	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	checkpoint, err := s.checkpoints.Get(ctx, linkedAccountID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return s.failure(ctx, linkedAccountID, core.ErrNotFound), nil
		}
		return core.AuthOutcome{}, fmt.Errorf("failed to load checkpoint: %w", err)
	}

	if checkpoint.Attempts >= s.maxAttempts {
		return s.failure(ctx, linkedAccountID, core.ErrTooManyAttempts), nil
	}

	res, err := s.provider.SolveCheckpoint(ctx, checkpoint.URL, checkpoint.Metadata, code)
	if err != nil {
		// The checkpoint is left untouched: a failed or cancelled round
		// trip never becomes observable as a new checkpoint.
		return s.failure(ctx, linkedAccountID, providerFailure(ctx, err)), nil
	}

	switch res.Status {
	case ports.VerifyAccepted:
		if err := s.checkpoints.Delete(ctx, linkedAccountID); err != nil {
			return core.AuthOutcome{}, fmt.Errorf("failed to close checkpoint: %w", err)
		}
		account := s.newAccount(linkedAccountID, checkpoint.Metadata[metaOwnerID], checkpoint.Metadata[metaIdentifier], res.AccessToken, res.PremiumToken)
		if err := s.accounts.Save(ctx, account); err != nil {
			return core.AuthOutcome{}, fmt.Errorf("failed to store account: %w", err)
		}
		return s.success(ctx, linkedAccountID), nil

	case ports.VerifyChallenge:
		next := s.newCheckpoint(ctx, linkedAccountID, checkpoint.Metadata[metaOwnerID], checkpoint.Metadata[metaIdentifier],
			res.ChallengeURL, res.ChallengeMetadata, res.RawPayload, checkpoint.Attempts+1)
		if err := s.checkpoints.Save(ctx, next, s.checkpointTTL); err != nil {
			return core.AuthOutcome{}, fmt.Errorf("failed to store checkpoint: %w", err)
		}
		return s.challengePending(ctx, next), nil

	default:
		checkpoint.Attempts++
		if err := s.checkpoints.Save(ctx, checkpoint, s.checkpointTTL); err != nil {
			return core.AuthOutcome{}, fmt.Errorf("failed to record attempt: %w", err)
		}
		return s.failure(ctx, linkedAccountID, core.ErrChallengeRejected), nil
	}
}

// GetAccount fetches a linked-account record scoped to its owner.
func (s *AuthService) GetAccount(ctx context.Context, id, ownerID string) (*core.LinkedAccount, error) {
	return s.accounts.Get(ctx, id, ownerID)
}

func (s *AuthService) acquire(accountID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inflight[accountID]; busy {
		return false
	}
	s.inflight[accountID] = struct{}{}
	return true
}

func (s *AuthService) release(accountID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, accountID)
}

func (s *AuthService) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok || s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *AuthService) newCheckpoint(ctx context.Context, accountID, ownerID, identifier, challengeURL string, metadata map[string]string, payload map[string]any, attempts int) *core.Checkpoint {
	kind := core.ClassifyChallenge(challengeURL, payload)

	meta := make(map[string]string, len(metadata)+2)
	for k, v := range metadata {
		meta[k] = v
	}
	meta[metaOwnerID] = ownerID
	if identifier != "" {
		meta[metaIdentifier] = identifier
	}

	if s.events != nil {
		// Event publishing never fails the attempt.
		_ = s.events.PublishChallengeClassified(ctx, accountID, kind, challengeURL)
	}

	return &core.Checkpoint{
		ID:        uuid.New().String(),
		AccountID: accountID,
		Kind:      kind,
		URL:       challengeURL,
		Metadata:  meta,
		CreatedAt: time.Now(),
		Attempts:  attempts,
	}
}

func (s *AuthService) newAccount(id, ownerID, identifier, accessToken, premiumToken string) *core.LinkedAccount {
	params := map[string]string{}
	if identifier != "" {
		params["identifier"] = identifier
	}
	if accessToken != "" {
		params["access_token"] = accessToken
	}
	if premiumToken != "" {
		params["premium_token"] = premiumToken
	}

	name := identifier
	if name == "" {
		name = "Linked account"
	}

	return &core.LinkedAccount{
		ID:               id,
		OwnerID:          ownerID,
		Name:             name,
		Provider:         providerName,
		CreatedAt:        time.Now(),
		ConnectionParams: params,
		Sources:          []core.Source{{ID: "primary", Status: "OK"}},
		Groups:           []string{},
	}
}

func (s *AuthService) success(ctx context.Context, accountID string) core.AuthOutcome {
	s.publishOutcome(ctx, accountID, core.OutcomeSuccess)
	return core.AuthOutcome{Status: core.OutcomeSuccess, AccountID: accountID}
}

func (s *AuthService) challengePending(ctx context.Context, checkpoint *core.Checkpoint) core.AuthOutcome {
	s.publishOutcome(ctx, checkpoint.AccountID, core.OutcomeChallengePending)
	return core.AuthOutcome{
		Status:     core.OutcomeChallengePending,
		AccountID:  checkpoint.AccountID,
		Checkpoint: checkpoint,
	}
}

func (s *AuthService) failure(ctx context.Context, accountID string, reason error) core.AuthOutcome {
	s.publishOutcome(ctx, accountID, core.OutcomeFailure)
	return core.AuthOutcome{Status: core.OutcomeFailure, AccountID: accountID, Reason: reason}
}

func (s *AuthService) publishOutcome(ctx context.Context, accountID string, status core.OutcomeStatus) {
	if s.events == nil {
		return
	}
	// Event publishing never fails the attempt.
	_ = s.events.PublishAuthOutcome(ctx, accountID, status)
}

// providerFailure folds a provider client error into the failure taxonomy.
func providerFailure(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled), ctx.Err() != nil:
		return core.ErrTimeout
	case errors.Is(err, core.ErrUnexpectedProviderResponse):
		return core.ErrUnexpectedProviderResponse
	default:
		return core.ErrAuthenticationFailed
	}
}

func loginOptions(meta core.CredentialMeta) ports.LoginOptions {
	return ports.LoginOptions{
		Country:          meta.Country,
		UserAgent:        meta.UserAgent,
		DisabledFeatures: meta.DisabledFeatures,
	}
}
