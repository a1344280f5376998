package http

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/layer-3/liaison/core"
	"github.com/layer-3/liaison/service"
)

// Context keys set by the middlewares for downstream handlers.
const (
	ContextUserID = "userID"
	ContextAPIKey = "apiKey"
)

// APIKeyHeader carries the capability secret on integration endpoints.
const APIKeyHeader = "X-API-Key"

// UserAuthMiddleware validates the bearer token issued by the identity
// service and puts the user id in the request context. Token issuance is not
// this service's concern; only HS256 tokens signed with the shared secret
// are accepted.
func UserAuthMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header"})
			return
		}

		token, err := jwt.ParseWithClaims(auth[7:], &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return secret, nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		subject, err := token.Claims.GetSubject()
		if err != nil || subject == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token subject"})
			return
		}

		c.Set(ContextUserID, subject)
		c.Next()
	}
}

// RequireScopes validates the X-API-Key header and enforces the required
// scopes. A missing or invalid key aborts with 401, a valid key lacking a
// scope with 403. The validated key record is put in the context for
// attribution.
func RequireScopes(keys *service.KeyService, required ...core.ScopeType) gin.HandlerFunc {
	return func(c *gin.Context) {
		key, err := keys.Authorize(c.Request.Context(), c.GetHeader(APIKeyHeader), required...)
		if err != nil {
			status, msg := statusFromError(err)
			c.AbortWithStatusJSON(status, gin.H{"error": msg})
			return
		}

		c.Set(ContextAPIKey, key)
		c.Set(ContextUserID, key.OwnerID)
		c.Next()
	}
}
