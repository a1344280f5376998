package ports

import "context"

// Login result values reported by the provider.
const (
	LoginResultPass      = "PASS"
	LoginResultChallenge = "CHALLENGE"
)

// LoginOptions carries optional connection metadata forwarded to the provider.
type LoginOptions struct {
	Country          string
	UserAgent        string
	DisabledFeatures []string
}

// LoginResponse is the interpreted outcome of one credential login round trip.
type LoginResponse struct {
	// Result is the provider's login_result field (PASS, CHALLENGE, or a
	// provider-specific failure value).
	Result string

	// Set when Result == PASS.
	AccessToken  string
	PremiumToken string

	// Set when Result == CHALLENGE.
	ChallengeURL string
	// Metadata extracted from the challenge payload: challenge_id,
	// session_id, csrf_token, requires_phone, requires_captcha.
	ChallengeMetadata map[string]string

	// RawPayload is the decoded response body, used for classification hints.
	RawPayload map[string]any
}

// VerifyStatus is the outcome of submitting a checkpoint verification code.
type VerifyStatus string

const (
	VerifyAccepted  VerifyStatus = "ACCEPTED"
	VerifyChallenge VerifyStatus = "CHALLENGE"
	VerifyRejected  VerifyStatus = "REJECTED"
)

// VerifyResponse is the interpreted outcome of one checkpoint round trip.
type VerifyResponse struct {
	Status VerifyStatus

	// Set when Status == CHALLENGE.
	ChallengeURL      string
	ChallengeMetadata map[string]string
	RawPayload        map[string]any

	// Set when Status == ACCEPTED and the provider re-issues session tokens.
	AccessToken  string
	PremiumToken string
}

// ProviderClient performs the network round trips against the third-party
// platform. Implementations hold their own HTTP client; no process-wide
// session state is shared between instances.
type ProviderClient interface {
	// LoginWithCredentials opens a fresh provider session and submits the
	// identifier and secret.
	LoginWithCredentials(ctx context.Context, identifier, secret string, opts LoginOptions) (*LoginResponse, error)

	// ProbeWithCookies installs the supplied session tokens and performs a
	// single authenticated identity call. A nil error means the tokens are
	// valid.
	ProbeWithCookies(ctx context.Context, accessToken, premiumToken string, opts LoginOptions) error

	// SolveCheckpoint submits a verification code against the checkpoint's
	// challenge URL.
	SolveCheckpoint(ctx context.Context, challengeURL string, metadata map[string]string, code string) (*VerifyResponse, error)
}
