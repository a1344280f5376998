package core

import (
	"net/url"
	"strings"
	"time"
)

// ChallengeKind is the canonical classification of a provider checkpoint.
type ChallengeKind string

const (
	ChallengeOTP                  ChallengeKind = "OTP"
	ChallengePhoneRegister        ChallengeKind = "PHONE_REGISTER"
	ChallengeTwoFactor            ChallengeKind = "TWO_FACTOR"
	ChallengeCaptcha              ChallengeKind = "CAPTCHA"
	ChallengeInAppValidation      ChallengeKind = "IN_APP_VALIDATION"
	ChallengeEmailVerification    ChallengeKind = "EMAIL_VERIFICATION"
	ChallengeSecurityVerification ChallengeKind = "SECURITY_VERIFICATION"
	ChallengeRateLimit            ChallengeKind = "RATE_LIMIT"
	ChallengeUnknown              ChallengeKind = "UNKNOWN"
)

// Checkpoint is a pending provider-issued verification challenge blocking
// authentication completion. It is created when a login attempt yields a
// challenge and consumed when the verification code is submitted.
type Checkpoint struct {
	ID        string
	AccountID string
	Kind      ChallengeKind
	URL       string
	Metadata  map[string]string
	CreatedAt time.Time
	Attempts  int
}

// Path pattern groups checked against the challenge URL, in precedence order.
// The direct-login-submit check runs first because the generic login-submit
// group would otherwise shadow it.
var (
	phonePatterns = []string{
		"/checkpoint/lg/phone-challenge",
		"/checkpoint/phone",
		"/phone-register",
		"/add-phone",
		"/checkpoint/lg/add-phone-number",
	}
	twoFactorPatterns = []string{
		"/two-step-verification",
		"/checkpoint/lg/login-two-factor",
		"/checkpoint/lg/two-factor-auth",
		"/uas/two-factor-auth-checkpoint",
	}
	captchaPatterns = []string{
		"/captcha",
		"/checkpoint/challenge/captcha",
		"/checkpoint/lg/captcha-challenge",
		"/uas/captcha-submit",
	}
	inAppPatterns = []string{
		"/checkpoint/lg/login-in-app",
		"/mobile-app",
		"/checkpoint/lg/app-challenge",
		"/checkpoint/lg/mobile-validation",
	}
	emailPatterns = []string{
		"/checkpoint/lg/email-pin-challenge",
		"/checkpoint/lg/verify-email",
		"/email-verification",
	}
	securityPatterns = []string{
		"/checkpoint/lg/login-submit",
		"/checkpoint/lg/security-challenge",
		"/checkpoint/challenge/verify",
	}
	rateLimitPatterns = []string{
		"/checkpoint/lg/rate-limit",
		"/checkpoint/lg/suspicious-activity",
	}
)

// ClassifyChallenge maps a provider challenge URL, plus the raw response
// payload when available, to a ChallengeKind. Matching is deterministic:
// URL path rules are checked in a fixed precedence order and the first match
// wins; payload hints are only consulted when no path rule fires.
func ClassifyChallenge(challengeURL string, payload map[string]any) ChallengeKind {
	parsed, err := url.Parse(challengeURL)
	if err == nil {
		path := strings.ToLower(parsed.Path)
		query := parsed.Query()

		switch {
		case strings.Contains(path, "/checkpoint/lg/direct-login-submit"):
			// OTP sent to the account email.
			return ChallengeOTP
		case matchAny(path, phonePatterns):
			return ChallengePhoneRegister
		case matchAny(path, twoFactorPatterns):
			return ChallengeTwoFactor
		case matchAny(path, captchaPatterns):
			return ChallengeCaptcha
		case matchAny(path, inAppPatterns):
			return ChallengeInAppValidation
		case matchAny(path, emailPatterns):
			return ChallengeEmailVerification
		case matchAny(path, securityPatterns):
			// Ambiguous checkpoint; the detailed-login-result parameter
			// distinguishes an OTP prompt from a generic security wall.
			if query.Has("addDetailedLoginResult") {
				return ChallengeOTP
			}
			return ChallengeSecurityVerification
		case matchAny(path, rateLimitPatterns):
			return ChallengeRateLimit
		}
	}

	if payload != nil {
		switch {
		case truthy(payload["phoneNumber"]):
			return ChallengePhoneRegister
		case truthy(payload["captchaImage"]) || truthy(payload["captchaRequired"]):
			return ChallengeCaptcha
		case truthy(payload["twoFactorRequired"]):
			return ChallengeTwoFactor
		case truthy(payload["emailVerificationRequired"]):
			return ChallengeEmailVerification
		}
	}

	return ChallengeUnknown
}

func matchAny(path string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(path, p) {
			return true
		}
	}
	return false
}

// truthy interprets the loose hint fields providers put in challenge payloads.
func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t != "" && t != "false"
	case nil:
		return false
	default:
		return true
	}
}
