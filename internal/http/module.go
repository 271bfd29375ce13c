// Package http provides HTTP server infrastructure including the Module interface
// that every feature module implements for route registration.
package http

import (
	"crm_search_backend/platform/config"

	"github.com/gin-gonic/gin"
)

// Module is a feature that mounts its own routes, keeping the router free of
// endpoint knowledge.
type Module interface {
	// Name identifies the module in logs.
	Name() string
	// RegisterRoutes mounts the module's routes using the shared groups.
	RegisterRoutes(ctx *RouterContext)
}

// RouterContext carries the route groups modules mount on.
type RouterContext struct {
	// Engine is the root Gin engine.
	Engine *gin.Engine
	// V1 is the rate limited /api/v1 group.
	V1 *gin.RouterGroup
	// Protected is V1 behind JWT authentication.
	Protected *gin.RouterGroup
	// Admin is /api/v1/admin, restricted to the admin role.
	Admin *gin.RouterGroup
	// Config is the JWT configuration for modules adding their own auth.
	Config config.JWTConfig
}
