package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/layer-3/liaison/core"
	"github.com/layer-3/liaison/service"
)

// AccountHandlers contains HTTP handlers for account-linking endpoints
type AccountHandlers struct {
	authService *service.AuthService
}

// NewAccountHandlers creates new account handlers
func NewAccountHandlers(authService *service.AuthService) *AccountHandlers {
	return &AccountHandlers{authService: authService}
}

// connectRequest is the discriminated union body of POST /accounts. AuthType
// selects the credential variant and is validated before any variant field
// is read.
type connectRequest struct {
	Provider string `json:"provider" binding:"required"`
	AuthType string `json:"auth_type" binding:"required"`

	// credentials variant
	Username string `json:"username"`
	Password string `json:"password"`

	// cookie variant
	AccessToken  string `json:"access_token"`
	PremiumToken string `json:"premium_token"`

	// shared metadata
	Country          string   `json:"country"`
	UserAgent        string   `json:"user_agent"`
	DisabledFeatures []string `json:"disabled_features"`
}

func (r *connectRequest) credential() (core.Credential, error) {
	meta := core.CredentialMeta{
		Country:          r.Country,
		UserAgent:        r.UserAgent,
		DisabledFeatures: r.DisabledFeatures,
	}

	switch core.CredentialKind(r.AuthType) {
	case core.CredentialPassword:
		if r.Username == "" || r.Password == "" {
			return nil, errors.New("username and password are required")
		}
		return core.PasswordCredential{Identifier: r.Username, Secret: r.Password, Meta: meta}, nil
	case core.CredentialCookie:
		if r.AccessToken == "" {
			return nil, errors.New("access_token is required")
		}
		return core.CookieCredential{AccessToken: r.AccessToken, PremiumToken: r.PremiumToken, Meta: meta}, nil
	default:
		return nil, errors.New("unknown auth_type")
	}
}

type checkpointSolveRequest struct {
	AccountID string `json:"account_id" binding:"required"`
	Code      string `json:"code" binding:"required"`
}

// accountCreatedResponse is returned once authentication completes.
type accountCreatedResponse struct {
	Object    string `json:"object"`
	AccountID string `json:"account_id"`
}

// checkpointResponse is returned while authentication is blocked on a
// provider challenge.
type checkpointResponse struct {
	Object     string         `json:"object"`
	AccountID  string         `json:"account_id"`
	Checkpoint map[string]any `json:"checkpoint"`
}

type accountResponse struct {
	Object           string            `json:"object"`
	Type             string            `json:"type"`
	ID               string            `json:"id"`
	Name             string            `json:"name"`
	CreatedAt        time.Time         `json:"created_at"`
	ConnectionParams map[string]string `json:"connection_params"`
	Sources          []core.Source     `json:"sources"`
	Groups           []string          `json:"groups"`
}

// Connect handles POST /accounts
func (h *AccountHandlers) Connect(c *gin.Context) {
	var req connectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Invalid request body"})
		return
	}

	credential, err := req.credential()
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	outcome, err := h.authService.Connect(c.Request.Context(), c.GetString(ContextUserID), credential)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to connect account"})
		return
	}

	h.renderOutcome(c, outcome, http.StatusCreated)
}

// SolveCheckpoint handles POST /accounts/checkpoint
func (h *AccountHandlers) SolveCheckpoint(c *gin.Context) {
	var req checkpointSolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Invalid request body"})
		return
	}

	outcome, err := h.authService.ResolveCheckpoint(c.Request.Context(), req.AccountID, req.Code)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve checkpoint"})
		return
	}

	h.renderOutcome(c, outcome, http.StatusOK)
}

// Get handles GET /accounts/:id
func (h *AccountHandlers) Get(c *gin.Context) {
	account, err := h.authService.GetAccount(c.Request.Context(), c.Param("id"), c.GetString(ContextUserID))
	if err != nil {
		status, msg := statusFromError(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	// Session tokens stay internal; only the identifier is echoed back.
	params := map[string]string{}
	if id, ok := account.ConnectionParams["identifier"]; ok {
		params["identifier"] = id
	}

	c.JSON(http.StatusOK, accountResponse{
		Object:           "Account",
		Type:             account.Provider,
		ID:               account.ID,
		Name:             account.Name,
		CreatedAt:        account.CreatedAt,
		ConnectionParams: params,
		Sources:          account.Sources,
		Groups:           account.Groups,
	})
}

// renderOutcome maps an AuthOutcome onto the wire: successStatus for a
// terminal success, 202 for a pending checkpoint, taxonomy mapping otherwise.
func (h *AccountHandlers) renderOutcome(c *gin.Context, outcome core.AuthOutcome, successStatus int) {
	switch outcome.Status {
	case core.OutcomeSuccess:
		c.JSON(successStatus, accountCreatedResponse{Object: "AccountCreated", AccountID: outcome.AccountID})

	case core.OutcomeChallengePending:
		c.JSON(http.StatusAccepted, checkpointResponse{
			Object:    "Checkpoint",
			AccountID: outcome.AccountID,
			Checkpoint: map[string]any{
				"type": string(outcome.Checkpoint.Kind),
				"url":  outcome.Checkpoint.URL,
			},
		})

	default:
		status, msg := statusFromError(outcome.Reason)
		c.JSON(status, gin.H{"error": msg})
	}
}

// statusFromError maps the domain error taxonomy onto HTTP status codes.
// Provider-internal detail never reaches the response body.
func statusFromError(err error) (int, string) {
	switch {
	case errors.Is(err, core.ErrAuthenticationFailed):
		return http.StatusUnauthorized, "Provider authentication failed"
	case errors.Is(err, core.ErrUnauthorized):
		return http.StatusUnauthorized, "Invalid or missing API key"
	case errors.Is(err, core.ErrForbidden):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound, "Not found"
	case errors.Is(err, core.ErrConflict):
		return http.StatusConflict, "Checkpoint resolution already in progress"
	case errors.Is(err, core.ErrChallengeRejected):
		return http.StatusUnprocessableEntity, "Verification code rejected"
	case errors.Is(err, core.ErrInvalidArgument):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, core.ErrTooManyAttempts):
		return http.StatusTooManyRequests, "Too many checkpoint attempts"
	case errors.Is(err, core.ErrTimeout):
		return http.StatusGatewayTimeout, "Provider request timed out"
	default:
		return http.StatusInternalServerError, "Unexpected provider response"
	}
}
