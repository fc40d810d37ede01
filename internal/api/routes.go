package api

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/voidrush/backend/internal/api/handlers"
	"github.com/voidrush/backend/internal/config"
	"github.com/voidrush/backend/internal/middleware"
)

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, db *sqlx.DB, rdb *redis.Client, cfg *config.Config) {
	router.Use(middleware.CORSMiddleware(cfg))

	// No-cache headers in development so stale snapshots never mask a
	// progression bug.
	if cfg.Environment != "production" {
		router.Use(func(c *gin.Context) {
			c.Header("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
			c.Header("Pragma", "no-cache")
			c.Header("Expires", "0")
			c.Next()
		})
		log.Println("[DEV MODE] No-cache headers enabled for all routes")
	}

	root := router.Group("/api/voidrush")
	{
		root.GET("/health", handlers.HealthCheck(db))
		root.GET("/time", handlers.TimeCheck)

		root.POST("/auth/bootstrap", handlers.Bootstrap(db, rdb, cfg))

		// Public read surface
		root.GET("/leaderboard", handlers.Leaderboard(db, cfg))
		root.GET("/season", handlers.SeasonGet(db, cfg))

		// Bearer-gated progression surface
		progression := root.Group("/progression")
		progression.Use(handlers.AuthMiddleware(cfg))
		progression.Use(handlers.RateLimitMiddleware(rdb, cfg))
		{
			progression.GET("/snapshot", handlers.SnapshotGet(db, cfg))
			progression.POST("/snapshot", handlers.SnapshotPost(db, cfg))
			progression.GET("/daily", handlers.DailyGet(db, cfg))
			progression.POST("/match-result", handlers.MatchResult(db, cfg))
			progression.POST("/missions/claim", handlers.MissionClaim(db, cfg))
			progression.POST("/login-bonus/claim", handlers.LoginBonusClaim(db, cfg))
			progression.POST("/battlepass/exp", handlers.BattlePassExp(db, cfg))
			progression.POST("/battlepass/claim", handlers.BattlePassClaim(db, cfg))
			progression.POST("/gacha/pull", handlers.GachaPull(db, cfg))
		}

		// Operator surface
		ops := root.Group("/ops")
		ops.Use(handlers.OpsMiddleware(cfg))
		{
			ops.GET("/anomalies", handlers.OpsAnomalies(db, cfg))
			ops.POST("/daily-rollup", handlers.OpsDailyRollup(db, cfg))
			ops.GET("/rollups", handlers.OpsRollups(db, cfg))
			ops.POST("/season-rollover", handlers.OpsSeasonRollover(db, cfg))
		}
	}
}
