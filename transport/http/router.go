package http

import (
	"github.com/gin-gonic/gin"

	"github.com/layer-3/liaison/core"
	"github.com/layer-3/liaison/service"
)

// SetupRouter sets up the Gin router. Management endpoints are guarded by the
// user bearer token; integration endpoints by scoped API keys.
func SetupRouter(authService *service.AuthService, keyService *service.KeyService, userTokenSecret []byte) *gin.Engine {
	router := gin.Default()

	accounts := NewAccountHandlers(authService)
	keys := NewKeyHandlers(keyService)

	user := router.Group("/", UserAuthMiddleware(userTokenSecret))
	{
		user.POST("/accounts", accounts.Connect)
		user.POST("/accounts/checkpoint", accounts.SolveCheckpoint)
		user.GET("/accounts/:id", accounts.Get)

		user.POST("/api-keys", keys.Create)
		user.GET("/api-keys", keys.List)
		user.GET("/api-keys/:id", keys.Get)
		user.DELETE("/api-keys/:id", keys.Revoke)
	}

	integration := router.Group("/integration")
	{
		integration.GET("/accounts/:id",
			RequireScopes(keyService, core.ScopeAccountsRead), accounts.Get)
		integration.POST("/accounts",
			RequireScopes(keyService, core.ScopeAccountsWrite), accounts.Connect)
		integration.POST("/accounts/checkpoint",
			RequireScopes(keyService, core.ScopeAccountsWrite), accounts.SolveCheckpoint)
	}

	return router
}
