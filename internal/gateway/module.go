// Package gateway: module wiring for the API-key gateway bounded context.
package gateway

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	apphttp "estateflow_backend/internal/http"
	"estateflow_backend/platform/config"
	"estateflow_backend/platform/logger"
	"estateflow_backend/platform/validator"
)

// Module is the gateway bounded context implementing http.Module.
type Module struct {
	middleware *Middleware
	handler    *Handler
}

func NewModule(pool *pgxpool.Pool, redisClient *redis.Client, cfg config.RateLimitConfig, val *validator.Validator, log *logger.Logger) *Module {
	repo := NewRepository(pool)
	limiter := NewRateLimiter(redisClient, cfg)
	return &Module{
		middleware: NewMiddleware(repo, limiter, log),
		handler:    NewHandler(repo, val, log),
	}
}

func (m *Module) Name() string {
	return "gateway"
}

// Chain exposes the middleware stack for other modules' gateway-protected
// routes.
func (m *Module) Chain(permission string) []gin.HandlerFunc {
	return m.middleware.Chain(permission)
}

// RegisterRoutes mounts the admin key management surface. The request chain
// itself is consumed by other modules through Chain.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	keys := ctx.Admin.Group("/gateway/keys")
	keys.POST("", m.handler.CreateKey)
	keys.GET("", m.handler.ListKeys)
	keys.DELETE("/:keyID", m.handler.RevokeKey)
}

var _ apphttp.Module = (*Module)(nil)
