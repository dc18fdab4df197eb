package api

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/playmatatu/carrom/internal/api/handlers"
	"github.com/playmatatu/carrom/internal/config"
	"github.com/playmatatu/carrom/internal/game"
	"github.com/playmatatu/carrom/internal/middleware"
	"github.com/playmatatu/carrom/internal/ws"
)

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, db *sqlx.DB, cfg *config.Config, manager *game.BoardManager, hub *ws.Hub) {
	router.Use(middleware.CORSMiddleware(cfg))

	// No-cache in development so the renderer always sees fresh snapshots
	if cfg.Environment != "production" {
		router.Use(func(c *gin.Context) {
			c.Header("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
			c.Header("Pragma", "no-cache")
			c.Header("Expires", "0")
			c.Next()
		})
		log.Println("[DEV MODE] No-cache headers enabled for all routes")
	}

	router.GET("/health", handlers.HealthCheck(manager))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", handlers.HealthCheck(manager))

		// Board endpoints
		v1.POST("/boards", handlers.CreateBoard(manager))
		boards := v1.Group("/boards/:token")
		{
			// the socket checks its own session query parameter after the origin check
			boards.GET("/ws", middleware.WebSocketCORSCheck(cfg), handlers.HandleBoardWebSocket(hub, manager))

			viewer := boards.Group("", handlers.RequireViewer(manager))
			viewer.GET("", handlers.GetBoardState(manager))
			viewer.GET("/launches", handlers.GetBoardLaunches(db))
		}

		// Admin endpoints
		adminGroup := v1.Group("/admin", handlers.RequireAdmin(db))
		{
			adminGroup.GET("/boards", handlers.GetAdminBoards(manager, hub))
			adminGroup.DELETE("/boards/:token", handlers.AdminCloseBoard(db, manager))
			adminGroup.GET("/config", handlers.GetAdminRuntimeConfig(db))
			adminGroup.PUT("/config/:key", handlers.UpdateAdminRuntimeConfig(db, manager))
			adminGroup.GET("/audit", handlers.GetAdminAuditLogs(db))
		}
	}
}
