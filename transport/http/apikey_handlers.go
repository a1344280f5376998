package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/layer-3/liaison/core"
	"github.com/layer-3/liaison/ports"
	"github.com/layer-3/liaison/service"
)

// KeyHandlers contains HTTP handlers for API key management endpoints
type KeyHandlers struct {
	keyService *service.KeyService
}

// NewKeyHandlers creates new API key handlers
func NewKeyHandlers(keyService *service.KeyService) *KeyHandlers {
	return &KeyHandlers{keyService: keyService}
}

type createKeyRequest struct {
	Name       string   `json:"name" binding:"required"`
	Scopes     []string `json:"scopes" binding:"required"`
	ExpiryDays int      `json:"expiry_days" binding:"required"`
}

// keyCreatedResponse carries the one-time raw secret plus metadata.
type keyCreatedResponse struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Key       string     `json:"key"`
	KeyPrefix string     `json:"key_prefix"`
	Scopes    []string   `json:"scopes"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// keyPublic is the retrievable representation of a key: prefix only, never
// the secret or its hash.
type keyPublic struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	KeyPrefix  string     `json:"key_prefix"`
	Scopes     []string   `json:"scopes"`
	CreatedAt  time.Time  `json:"created_at"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	IsActive   bool       `json:"is_active"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
}

type keyListResponse struct {
	Data  []keyPublic `json:"data"`
	Count int         `json:"count"`
}

// Create handles POST /api-keys
func (h *KeyHandlers) Create(c *gin.Context) {
	var req createKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Invalid request body"})
		return
	}

	scopes := make([]core.ScopeType, len(req.Scopes))
	for i, s := range req.Scopes {
		scopes[i] = core.ScopeType(s)
	}

	secret, key, err := h.keyService.Issue(c.Request.Context(), c.GetString(ContextUserID), req.Name, scopes, req.ExpiryDays)
	if err != nil {
		status, msg := statusFromError(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusCreated, keyCreatedResponse{
		ID:        key.ID,
		Name:      key.Name,
		Key:       secret,
		KeyPrefix: key.KeyPrefix,
		Scopes:    scopeNames(key.Scopes),
		CreatedAt: key.CreatedAt,
		ExpiresAt: key.ExpiresAt,
	})
}

// List handles GET /api-keys
func (h *KeyHandlers) List(c *gin.Context) {
	filter := ports.KeyListFilter{
		Skip:        queryInt(c, "skip", 0),
		Limit:       queryInt(c, "limit", 100),
		ShowExpired: c.Query("show_expired") == "true",
		ShowRevoked: c.Query("show_revoked") == "true",
	}

	keys, total, err := h.keyService.List(c.Request.Context(), c.GetString(ContextUserID), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list keys"})
		return
	}

	data := make([]keyPublic, len(keys))
	for i, key := range keys {
		data[i] = publicKey(key)
	}
	c.JSON(http.StatusOK, keyListResponse{Data: data, Count: total})
}

// Get handles GET /api-keys/:id
func (h *KeyHandlers) Get(c *gin.Context) {
	key, err := h.keyService.Get(c.Request.Context(), c.Param("id"), c.GetString(ContextUserID))
	if err != nil {
		status, msg := statusFromError(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}
	c.JSON(http.StatusOK, publicKey(key))
}

// Revoke handles DELETE /api-keys/:id
func (h *KeyHandlers) Revoke(c *gin.Context) {
	if err := h.keyService.Revoke(c.Request.Context(), c.Param("id"), c.GetString(ContextUserID)); err != nil {
		status, msg := statusFromError(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}
	c.Status(http.StatusNoContent)
}

func publicKey(key *core.ApiKey) keyPublic {
	return keyPublic{
		ID:         key.ID,
		Name:       key.Name,
		KeyPrefix:  key.KeyPrefix,
		Scopes:     scopeNames(key.Scopes),
		CreatedAt:  key.CreatedAt,
		ExpiresAt:  key.ExpiresAt,
		IsActive:   key.Live(time.Now()),
		LastUsedAt: key.LastUsedAt,
	}
}

func scopeNames(scopes []core.ScopeType) []string {
	names := make([]string, len(scopes))
	for i, s := range scopes {
		names[i] = string(s)
	}
	return names
}

func queryInt(c *gin.Context, name string, fallback int) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil || v < 0 {
		return fallback
	}
	return v
}
