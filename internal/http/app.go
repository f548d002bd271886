package http

import (
	"context"

	"github.com/gin-gonic/gin"

	"estateflow_backend/platform/config"
	"estateflow_backend/platform/logger"
)

// RouterConfig combines the config interfaces the router needs.
type RouterConfig interface {
	config.HTTPConfig
	config.JWTConfig
}

// HealthChecker exposes minimal functionality for readiness checks.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// App holds the fully initialized application dependencies. main.go is the
// composition root; it populates this and hands it to the router.
type App struct {
	Config  RouterConfig
	Logger  *logger.Logger
	Health  HealthChecker
	Gateway func(permission string) []gin.HandlerFunc
	Modules []Module
}
