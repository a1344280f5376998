// Package provider implements the ProviderClient port against the third-party
// platform's authentication endpoints.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"

	"github.com/layer-3/liaison/core"
	"github.com/layer-3/liaison/ports"
)

const (
	sessionCookie     = "li_at"
	premiumCookie     = "li_a"
	correlationCookie = "JSESSIONID"

	defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.114 Safari/537.36"
)

// Config holds the provider endpoints. Both URLs must be absolute.
type Config struct {
	// AuthBaseURL hosts the login and checkpoint endpoints.
	AuthBaseURL string
	// APIBaseURL hosts the authenticated identity endpoint used by the
	// cookie probe.
	APIBaseURL string
}

// Client talks to the provider over an injected HTTP client. Each login
// attempt runs on its own cookie jar; nothing is shared between calls.
type Client struct {
	base *http.Client
	cfg  Config
}

// NewClient creates a provider client. httpClient must not be nil; its
// timeout and transport settings are reused for every session.
func NewClient(httpClient *http.Client, cfg Config) *Client {
	return &Client{base: httpClient, cfg: cfg}
}

// newSession copies the base client with a fresh cookie jar so concurrent
// authentication attempts cannot observe each other's cookies.
func (c *Client) newSession() *http.Client {
	jar, _ := cookiejar.New(nil)
	sess := *c.base
	sess.Jar = jar
	return &sess
}

func (c *Client) setHeaders(req *http.Request, opts ports.LoginOptions) {
	ua := opts.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("X-Li-Lang", "en_US")
	req.Header.Set("X-Restli-Protocol-Version", "2.0.0")
	if opts.Country != "" {
		req.Header.Set("X-Li-Country", opts.Country)
	}
}

// LoginWithCredentials implements ports.ProviderClient.
func (c *Client) LoginWithCredentials(ctx context.Context, identifier, secret string, opts ports.LoginOptions) (*ports.LoginResponse, error) {
	sess := c.newSession()
	authURL, err := url.Parse(c.cfg.AuthBaseURL + "/uas/authenticate")
	if err != nil {
		return nil, fmt.Errorf("invalid auth base url: %w", err)
	}

	// Seed the session cookies before submitting the credential.
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, authURL.String(), nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req, opts)
	res, err := sess.Do(req)
	if err != nil {
		return nil, err
	}
	res.Body.Close()

	form := url.Values{
		"session_key":      {identifier},
		"session_password": {secret},
		"JSESSIONID":       {cookieValue(sess.Jar.Cookies(authURL), correlationCookie)},
	}

	req, err = http.NewRequestWithContext(ctx, http.MethodPost, authURL.String(), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	c.setHeaders(req, opts)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err = sess.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("login returned status %d: %w", res.StatusCode, core.ErrAuthenticationFailed)
	}

	var payload map[string]any
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding login response: %w", core.ErrUnexpectedProviderResponse)
	}

	result, _ := payload["login_result"].(string)
	switch result {
	case ports.LoginResultChallenge:
		challengeURL, _ := payload["challenge_url"].(string)
		return &ports.LoginResponse{
			Result:            ports.LoginResultChallenge,
			ChallengeURL:      challengeURL,
			ChallengeMetadata: challengeMetadata(payload),
			RawPayload:        payload,
		}, nil

	case ports.LoginResultPass:
		cookies := sess.Jar.Cookies(authURL)
		accessToken := cookieValue(cookies, sessionCookie)
		if accessToken == "" {
			return nil, fmt.Errorf("no session token issued: %w", core.ErrAuthenticationFailed)
		}
		return &ports.LoginResponse{
			Result:       ports.LoginResultPass,
			AccessToken:  accessToken,
			PremiumToken: cookieValue(cookies, premiumCookie),
			RawPayload:   payload,
		}, nil

	default:
		return &ports.LoginResponse{Result: result, RawPayload: payload}, nil
	}
}

// ProbeWithCookies implements ports.ProviderClient.
func (c *Client) ProbeWithCookies(ctx context.Context, accessToken, premiumToken string, opts ports.LoginOptions) error {
	sess := c.newSession()
	apiURL, err := url.Parse(c.cfg.APIBaseURL)
	if err != nil {
		return fmt.Errorf("invalid api base url: %w", err)
	}

	cookies := []*http.Cookie{{Name: sessionCookie, Value: accessToken}}
	if premiumToken != "" {
		cookies = append(cookies, &http.Cookie{Name: premiumCookie, Value: premiumToken})
	}
	sess.Jar.SetCookies(apiURL, cookies)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.APIBaseURL+"/me", nil)
	if err != nil {
		return err
	}
	c.setHeaders(req, opts)

	res, err := sess.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("identity probe returned status %d: %w", res.StatusCode, core.ErrAuthenticationFailed)
	}
	return nil
}

// SolveCheckpoint implements ports.ProviderClient.
func (c *Client) SolveCheckpoint(ctx context.Context, challengeURL string, metadata map[string]string, code string) (*ports.VerifyResponse, error) {
	sess := c.newSession()
	target, err := url.Parse(challengeURL)
	if err != nil {
		return nil, fmt.Errorf("invalid challenge url: %w", err)
	}

	form := url.Values{"pin": {code}}
	if csrf := metadata["csrf_token"]; csrf != "" {
		form.Set("csrfToken", csrf)
	}
	if sid := metadata["session_id"]; sid != "" {
		form.Set("pSIdString", sid)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.String(), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	c.setHeaders(req, ports.LoginOptions{})
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := sess.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode >= http.StatusBadRequest && res.StatusCode < http.StatusInternalServerError {
		return &ports.VerifyResponse{Status: ports.VerifyRejected}, nil
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("checkpoint returned status %d: %w", res.StatusCode, core.ErrUnexpectedProviderResponse)
	}

	var payload map[string]any
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding checkpoint response: %w", core.ErrUnexpectedProviderResponse)
	}

	switch result, _ := payload["login_result"].(string); result {
	case ports.LoginResultPass:
		cookies := sess.Jar.Cookies(target)
		return &ports.VerifyResponse{
			Status:       ports.VerifyAccepted,
			AccessToken:  cookieValue(cookies, sessionCookie),
			PremiumToken: cookieValue(cookies, premiumCookie),
		}, nil
	case ports.LoginResultChallenge:
		nextURL, _ := payload["challenge_url"].(string)
		return &ports.VerifyResponse{
			Status:            ports.VerifyChallenge,
			ChallengeURL:      nextURL,
			ChallengeMetadata: challengeMetadata(payload),
			RawPayload:        payload,
		}, nil
	default:
		return &ports.VerifyResponse{Status: ports.VerifyRejected, RawPayload: payload}, nil
	}
}

// challengeMetadata extracts the optional challenge hints from a provider
// payload into a flat string map.
func challengeMetadata(payload map[string]any) map[string]string {
	meta := make(map[string]string)
	if v, ok := payload["challenge_id"].(string); ok && v != "" {
		meta["challenge_id"] = v
	}
	if v, ok := payload["pSIdString"].(string); ok && v != "" {
		meta["session_id"] = v
	}
	if v, ok := payload["csrfToken"].(string); ok && v != "" {
		meta["csrf_token"] = v
	}
	if v, ok := payload["requiresPhone"].(bool); ok {
		meta["requires_phone"] = strconv.FormatBool(v)
	}
	if v, ok := payload["requiresCaptcha"].(bool); ok {
		meta["requires_captcha"] = strconv.FormatBool(v)
	}
	return meta
}

func cookieValue(cookies []*http.Cookie, name string) string {
	for _, c := range cookies {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}
