// Package http provides the HTTP server infrastructure, including the Module
// interface every bounded context implements for route registration.
package http

import (
	"github.com/gin-gonic/gin"

	"estateflow_backend/platform/config"
)

// Module represents a bounded context that can register its HTTP routes.
type Module interface {
	// Name returns the module's identifier for logging purposes.
	Name() string
	// RegisterRoutes mounts the module's routes on the provided router context.
	RegisterRoutes(ctx *RouterContext)
}

// RouterContext provides shared dependencies for module route registration.
type RouterContext struct {
	// Engine is the root Gin engine for modules that need engine-level access.
	Engine *gin.Engine
	// V1 is the /api/v1 route group. Routes here still need a gateway chain.
	V1 *gin.RouterGroup
	// Admin is the /api/v1/admin group, behind JWT auth plus the admin role.
	Admin *gin.RouterGroup
	// Gateway returns the API-key middleware chain for a required permission:
	// usage logging, bearer auth, permission check, then rate limiting.
	Gateway func(permission string) []gin.HandlerFunc
	// Config is the JWT configuration for modules that need scoped access.
	Config config.JWTConfig
}
