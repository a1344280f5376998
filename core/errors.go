package core

import "errors"

var (
	// ErrAuthenticationFailed is returned when the provider rejects the credential
	// or reports a non-pass, non-challenge login result.
	ErrAuthenticationFailed = errors.New("provider authentication failed")

	// ErrChallengeRejected is returned when a verification code is invalid or expired.
	ErrChallengeRejected = errors.New("verification code rejected")

	// ErrTooManyAttempts is returned once the checkpoint attempt ceiling is exceeded.
	ErrTooManyAttempts = errors.New("too many checkpoint attempts")

	// ErrTimeout is returned when a provider round trip exceeds the caller deadline.
	ErrTimeout = errors.New("provider request timed out")

	// ErrConflict is returned when a checkpoint is already being resolved.
	ErrConflict = errors.New("checkpoint resolution already in progress")

	// ErrUnexpectedProviderResponse is returned on a malformed provider payload.
	ErrUnexpectedProviderResponse = errors.New("unexpected provider response")

	// ErrUnauthorized is returned when an API key is missing or invalid.
	ErrUnauthorized = errors.New("invalid or missing API key")

	// ErrForbidden is returned when a valid API key lacks a required scope.
	ErrForbidden = errors.New("API key missing required scope")

	// ErrNotFound is returned when a key, checkpoint or account is unknown.
	ErrNotFound = errors.New("not found")

	// ErrInvalidArgument is returned on bad scopes, expiry or request payloads.
	ErrInvalidArgument = errors.New("invalid argument")
)
