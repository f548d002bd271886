package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	apphttp "estateflow_backend/internal/http"
	"estateflow_backend/platform/httpkit"
)

// New builds the Gin engine, wires the shared middleware and lets every
// module register its routes.
func New(app *apphttp.App) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(httpkit.RequestLogger(app.Logger))
	engine.Use(httpkit.SecurityHeaders())
	engine.Use(corsMiddleware(app))

	engine.GET("/api/health", func(c *gin.Context) {
		if app.Health != nil {
			if err := app.Health.Ping(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := engine.Group("/api/v1")

	// Brute-force protection for the JWT-guarded admin surface. Key-gated
	// routes carry their own per-key limiter instead.
	adminLimiter := httpkit.NewIPRateLimiter(rate.Every(time.Second), 20, app.Logger)

	admin := v1.Group("/admin")
	admin.Use(adminLimiter.RateLimit())
	admin.Use(httpkit.AuthRequired(app.Config))
	admin.Use(httpkit.RequireRole("admin"))

	ctx := &apphttp.RouterContext{
		Engine:  engine,
		V1:      v1,
		Admin:   admin,
		Gateway: app.Gateway,
		Config:  app.Config,
	}
	for _, module := range app.Modules {
		module.RegisterRoutes(ctx)
		app.Logger.Info("registered module routes", "module", module.Name())
	}

	return engine
}

func corsMiddleware(app *apphttp.App) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"X-RateLimit-Remaining"},
		AllowCredentials: app.Config.GetCORSAllowCreds(),
		MaxAge:           12 * time.Hour,
	}
	if app.Config.GetCORSAllowAll() {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	} else {
		cfg.AllowOrigins = app.Config.GetCORSOrigins()
	}
	return cors.New(cfg)
}
