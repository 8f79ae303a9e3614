package v1

import (
	"github.com/gin-gonic/gin"

	"github.com/coder4-c/survivor-support/internal/infrastructure/auth"
	"github.com/coder4-c/survivor-support/internal/interfaces/httpserver/handlers"
)

// Routes encapsulates versioned route registration.
type Routes struct {
	handlers *handlers.Provider
	auth     *auth.Validator
}

func NewRoutes(provider *handlers.Provider, authValidator *auth.Validator) *Routes {
	return &Routes{handlers: provider, auth: authValidator}
}

// Register attaches all v1 routes under the /v1 prefix. Retrieval routes are
// gated by the access token in the path, admin routes by bearer auth.
func (r *Routes) Register(router gin.IRouter) {
	group := router.Group("/v1")

	group.POST("/evidence/upload", r.handlers.Evidence.Upload)
	group.GET("/evidence/download/:token", r.handlers.Evidence.Download)
	group.GET("/evidence/metadata/:token", r.handlers.Evidence.Metadata)
	group.POST("/support", r.handlers.Support.Create)
	group.POST("/chat", r.handlers.Chat.Chat)

	admin := group.Group("/", r.auth.Middleware())
	admin.DELETE("/evidence/:id", r.handlers.Evidence.Delete)
	admin.POST("/evidence/cleanup", r.handlers.Evidence.Cleanup)
	admin.GET("/evidence/stats", r.handlers.Evidence.Stats)
	admin.GET("/support", r.handlers.Support.List)
	admin.PATCH("/support/:id", r.handlers.Support.Update)
}
