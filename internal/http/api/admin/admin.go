package admin

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shiftwise/shiftwise/internal/capacity"
	"github.com/shiftwise/shiftwise/internal/config"
	handlers "github.com/shiftwise/shiftwise/internal/http/api/admin/handlers"
	"github.com/shiftwise/shiftwise/internal/models"
	"github.com/shiftwise/shiftwise/internal/ratelimit"
	"github.com/shiftwise/shiftwise/internal/security"
	"gorm.io/gorm"
)

// RegisterAdminRoutes registers admin routes, middleware, and handlers.
func RegisterAdminRoutes(r *gin.Engine, conn *gorm.DB, jwtCfg config.JWTConfig, reconcileCfg config.ReconcileConfig, limiter ratelimit.Limiter) {
	if r == nil || conn == nil {
		return
	}

	healthHandler := handlers.NewHealthHandler(conn)
	r.GET("/healthz", healthHandler.Healthz)

	adminGroup := r.Group("/v0/admin")

	authHandler := handlers.NewAuthHandler(conn, jwtCfg)
	adminGroup.POST("/login", authHandler.Login)

	authed := adminGroup.Group("")
	authed.Use(adminAuthMiddleware(conn, jwtCfg))

	oracle := capacity.NewOracle(conn)
	gate := capacity.NewGate(oracle)
	scanner := capacity.NewScanner(conn)
	reconciler := capacity.NewReconciler(conn, reconcileCfg.Workers)

	capacityHandler := handlers.NewCapacityHandler(oracle)
	authed.GET("/organizations/:id/capacity", capacityHandler.Get)

	accountHandler := handlers.NewAccountHandler(conn, gate)
	authed.POST("/organizations/:id/managers", accountHandler.CreateManager)
	authed.POST("/organizations/:id/workers", accountHandler.CreateWorker)

	auditLogHandler := handlers.NewAuditLogHandler(conn)
	authed.GET("/audit-logs", auditLogHandler.List)

	privileged := authed.Group("")
	privileged.Use(superAdminMiddleware())

	reconcileHandler := handlers.NewReconcileHandler(reconciler, scanner)
	privileged.POST("/reconcile", rateLimitMiddleware(limiter, reconcileCfg.RateLimit), reconcileHandler.Trigger)
	privileged.GET("/discrepancies", reconcileHandler.Discrepancies)
}

// adminAuthMiddleware validates admin JWTs and loads admin context.
func adminAuthMiddleware(conn *gorm.DB, jwtCfg config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == authHeader {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			return
		}
		token = strings.TrimSpace(token)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "empty token"})
			return
		}

		claims, errJWT := security.ParseAdminToken(jwtCfg.Secret, token)
		if errJWT != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		var admin models.Admin
		if errFind := conn.WithContext(c.Request.Context()).First(&admin, claims.AdminID).Error; errFind != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "admin not found"})
			return
		}
		if !admin.Active {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin disabled"})
			return
		}

		c.Set("adminID", admin.ID)
		c.Set("adminUsername", admin.Username)
		c.Set("adminIsSuperAdmin", admin.IsSuperAdmin)
		c.Next()
	}
}

// superAdminMiddleware blocks admins without the super-administrator flag.
func superAdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !c.GetBool("adminIsSuperAdmin") {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "super administrator required"})
			return
		}
		c.Next()
	}
}

// rateLimitMiddleware enforces a fixed-window limit keyed by admin ID.
func rateLimitMiddleware(limiter ratelimit.Limiter, limit int) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil || limit <= 0 {
			c.Next()
			return
		}
		key := "admin:" + c.GetString("adminUsername")
		result, errAllow := limiter.Allow(c.Request.Context(), key, limit, time.Now().UTC())
		if errAllow != nil {
			// Limiter backend failure must not block privileged operations.
			c.Next()
			return
		}
		if !result.Allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
