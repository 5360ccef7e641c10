// Package router assembles the Gin engine from the registered modules.
package router

import (
	"net/http"
	"strings"

	apphttp "nexus_crm_backend/internal/http"
	"nexus_crm_backend/platform/httpkit"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// New builds the Gin engine: shared middleware, health endpoints, route
// groups, and every module's routes.
func New(app *apphttp.App) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(httpkit.RequestLogger(app.Logger))
	engine.Use(httpkit.SecurityHeaders())
	engine.Use(corsMiddleware(app))

	// Global soft limit; the public intake endpoint carries its own stricter one.
	globalLimiter := httpkit.NewIPRateLimiter(rate.Limit(50), 100, app.Logger)
	engine.Use(globalLimiter.RateLimit())

	engine.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET("/api/ready", func(c *gin.Context) {
		if err := app.Health.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	authMiddleware := httpkit.AuthRequired(app.Config)

	v1 := engine.Group("/api/v1")
	protected := v1.Group("")
	protected.Use(authMiddleware)
	admin := v1.Group("/admin")
	admin.Use(authMiddleware, httpkit.RequireRole("admin"))

	ctx := &apphttp.RouterContext{
		Engine:            engine,
		V1:                v1,
		Protected:         protected,
		Admin:             admin,
		Config:            app.Config,
		AuthMiddleware:    authMiddleware,
		IntakeRateLimiter: httpkit.NewIntakeRateLimiter(app.Logger),
	}

	for _, module := range app.Modules {
		module.RegisterRoutes(ctx)
		app.Logger.Debug("module routes registered", "module", module.Name())
	}

	return engine
}

func corsMiddleware(app *apphttp.App) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: app.Config.GetCORSAllowCreds(),
	}

	if app.Config.GetCORSAllowAll() {
		cfg.AllowOriginFunc = func(string) bool { return true }
	} else if origins := app.Config.GetCORSOrigins(); len(origins) > 0 {
		cfg.AllowOrigins = origins
	} else {
		cfg.AllowOriginFunc = func(origin string) bool {
			return strings.HasPrefix(origin, "http://localhost")
		}
	}

	return cors.New(cfg)
}
