package server

import (
	"context"
	"net/http"
	"ticketing-admin-svc/src/internal/dependency"
	"ticketing-admin-svc/src/internal/middleware"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger reports whether a backing service is reachable.
type Pinger func(ctx context.Context) error

func SetupRoutes(deps *dependency.Manager) {
	router := deps.Router
	router.Use(enableCORS)

	checks := map[string]Pinger{
		"mongodb": func(ctx context.Context) error { return deps.Mongodb.Client.Ping(ctx, nil) },
		"redis":   func(ctx context.Context) error { return deps.Redis.Client.Ping(ctx).Err() },
	}
	setupHealthEndpoint(router, deps.Config.App.Name, deps.Config.App.Version, deps.Config.Audit.Publisher, checks)
	setupPublicRoutes(router, deps)
	setupAdminRoutes(router, deps)
}

func setupHealthEndpoint(router *gin.Engine, name, version, publisher string, checks map[string]Pinger) {
	router.GET("/health", func(c *gin.Context) {
		log.Debug("Health check endpoint requested")

		body := gin.H{
			"status":    "ok",
			"service":   name,
			"version":   version,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		}
		for component, ping := range checks {
			status := "ok"
			if err := ping(c.Request.Context()); err != nil {
				log.WithError(err).WithField("component", component).Warn("Health check failed")
				status = "error"
			}
			body[component] = status
		}

		c.JSON(http.StatusOK, body)
	})

	router.GET("/health/detailed", func(c *gin.Context) {
		log.Debug("Detailed health check endpoint requested")

		databases := gin.H{}
		for component, ping := range checks {
			databases[component] = getStatus(ping(c.Request.Context()) == nil)
		}

		c.JSON(http.StatusOK, gin.H{
			"status":  "operational",
			"service": name,
			"version": version,
			"components": gin.H{
				"database": databases,
				"services": gin.H{
					"auth":            "operational",
					"support":         "operational",
					"audit":           "operational",
					"audit_publisher": publisher,
				},
			},
		})
	})
}

func setupPublicRoutes(router *gin.Engine, deps *dependency.Manager) {
	router.GET("/api/v1/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"api_version": "v1",
			"status":      "operational",
			"service":     deps.Config.App.Name,
		})
	})

	authMiddleware := middleware.NewAuthMiddleware(deps.Tokens, deps.CacheService, deps.SessionRepo)

	authGroup := router.Group("/api/v1/auth")
	{
		authGroup.POST("/login",
			setRouteName("login"),
			deps.AuthHandler.Login)

		authGroup.POST("/logout",
			setRouteName("logout"),
			authMiddleware.RequireAuth(),
			deps.AuthHandler.Logout)
	}
}

func setupAdminRoutes(router *gin.Engine, deps *dependency.Manager) {
	authMiddleware := middleware.NewAuthMiddleware(deps.Tokens, deps.CacheService, deps.SessionRepo)

	// route name first so auth failures are logged against it
	admin := router.Group("/api/v1/admin")
	{
		admin.GET("/audit-logs",
			setRouteName("getAuditLogs"),
			authMiddleware.RequireAuth(),
			authMiddleware.RequireAdminRights(),
			deps.AuditHandler.GetAuditLogs)

		admin.GET("/venues",
			setRouteName("listVenues"),
			authMiddleware.RequireAuth(),
			authMiddleware.RequireAdminRights(),
			deps.VenueHandler.ListVenues)

		supportVenue := admin.Group("/support/venue")
		supportVenue.GET("/current",
			setRouteName("getCurrentSupportSession"),
			authMiddleware.RequireAuth(),
			authMiddleware.RequireAdminRights(),
			deps.SupportHandler.GetCurrent)

		supportVenue.POST("/start",
			setRouteName("startSupportSession"),
			authMiddleware.RequireAuth(),
			authMiddleware.RequireAdminRights(),
			deps.SupportHandler.Start)

		supportVenue.POST("/end",
			setRouteName("endSupportSession"),
			authMiddleware.RequireAuth(),
			authMiddleware.RequireAdminRights(),
			deps.SupportHandler.End)

		supportVenue.POST("/switch",
			setRouteName("switchSupportSession"),
			authMiddleware.RequireAuth(),
			authMiddleware.RequireAdminRights(),
			deps.SupportHandler.Switch)
	}
}

func setRouteName(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("route_name", name)
		c.Next()
	}
}

func enableCORS(c *gin.Context) {
	c.Header("Access-Control-Allow-Origin", "*")
	c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
	c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")

	if c.Request.Method == http.MethodOptions {
		c.AbortWithStatus(http.StatusNoContent)
		return
	}

	c.Next()
}

func getStatus(b bool) string {
	if b {
		return "connected"
	}
	return "disconnected"
}
