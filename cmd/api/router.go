package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"library-backend/internal/shared/middleware"
	"library-backend/internal/shared/response"
	"library-backend/pkg/container"
)

func SetupRouter(c *container.Container) *gin.Engine {
	router := gin.New()

	// Global middlewares
	router.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.CORS(),
	)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthCheckHandler(c))

		setupTitleRoutes(v1, c)
		setupLoanRoutes(v1, c)
		setupAdminRoutes(v1, c)
		setupRealtimeRoutes(v1, c)
	}

	return router
}

// ========================================
// TITLE ROUTES (public read)
// ========================================
func setupTitleRoutes(v1 *gin.RouterGroup, c *container.Container) {
	titles := v1.Group("/titles")
	{
		titles.GET("", c.TitleHandler.ListTitles)
		titles.GET("/:id", c.TitleHandler.GetTitle)
	}
}

// ========================================
// LOAN ROUTES
// ========================================
func setupLoanRoutes(v1 *gin.RouterGroup, c *container.Container) {
	loans := v1.Group("/loans")
	loans.Use(middleware.AuthMiddleware(c.JWTManager))
	{
		loans.POST("/borrow", c.LoanHandler.Borrow)
		loans.PUT("/:id/return", c.LoanHandler.Return)
		loans.GET("/my", c.LoanHandler.MyLoans)
	}
}

// ========================================
// ADMIN ROUTES
// ========================================
func setupAdminRoutes(v1 *gin.RouterGroup, c *container.Container) {
	admin := v1.Group("/admin")
	admin.Use(middleware.AuthMiddleware(c.JWTManager), middleware.AdminMiddleware())
	{
		admin.POST("/titles", c.TitleHandler.CreateTitle)
		admin.PUT("/titles/:id", c.TitleHandler.UpdateTitle)
		admin.DELETE("/titles/:id", c.TitleHandler.DeleteTitle)
		admin.GET("/titles/:id/loans", c.LoanHandler.TitleLoans)
		admin.POST("/reconcile", reconcileHandler(c))
	}
}

// ========================================
// REALTIME ROUTES
// ========================================
func setupRealtimeRoutes(v1 *gin.RouterGroup, c *container.Container) {
	rt := v1.Group("/realtime")
	{
		rt.GET("/stream", c.RealtimeHandler.Stream)
		rt.GET("/presence", c.RealtimeHandler.Presence)
	}
}

// reconcileHandler queues an immediate drift check
func reconcileHandler(appCtx *container.Container) gin.HandlerFunc {
	return func(c *gin.Context) {
		if appCtx.Enqueuer == nil {
			response.ErrorResponse(c, http.StatusServiceUnavailable, "SYS_002", "Background jobs are disabled")
			return
		}
		if err := appCtx.Enqueuer.EnqueueReconcile(c.Request.Context(), appCtx.Config.Worker.DriftLimit); err != nil {
			response.InternalServerError(c, "Failed to queue reconciliation")
			return
		}
		response.Success(c, http.StatusAccepted, gin.H{"queued": true})
	}
}

// ========================================
// HEALTH CHECK HANDLER
// ========================================
func healthCheckHandler(appCtx *container.Container) gin.HandlerFunc {
	return func(c *gin.Context) {
		health := gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
			"version":   appCtx.Config.App.Version,
			"store":     appCtx.Config.Ledger.StoreDriver,
			"online":    appCtx.Hub.Online(),
		}

		// Check database
		dbStatus := "ok"
		if appCtx.DB == nil {
			dbStatus = "memory"
		} else {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()

			if err := appCtx.DB.Ping(ctx); err != nil {
				dbStatus = fmt.Sprintf("error: %v", err)
				health["status"] = "degraded"
			}
		}

		// Check redis
		redisStatus := "ok"
		if appCtx.Cache == nil {
			redisStatus = "disabled"
		} else {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()

			if err := appCtx.Cache.Ping(ctx); err != nil {
				redisStatus = fmt.Sprintf("error: %v", err)
			}
		}

		health["services"] = gin.H{
			"database": dbStatus,
			"redis":    redisStatus,
		}

		statusCode := http.StatusOK
		if health["status"] != "ok" {
			statusCode = http.StatusServiceUnavailable
		}

		c.JSON(statusCode, health)
	}
}
