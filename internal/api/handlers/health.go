package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/voidrush/backend/internal/state"
)

var startTime = time.Now()

const version = "2.0.0"

// HealthCheck returns server health status
func HealthCheck(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		dbOK := db != nil && db.PingContext(c.Request.Context()) == nil
		c.JSON(http.StatusOK, gin.H{
			"status":      "ok",
			"service":     "voidrush-api",
			"version":     version,
			"uptime":      time.Since(startTime).String(),
			"dbAvailable": dbOK,
		})
	}
}

// TimeCheck exposes the server clock so clients can align day-bucketed
// features (missions, login bonus) with the server's UTC day.
func TimeCheck(c *gin.Context) {
	now := time.Now().UTC()
	c.JSON(http.StatusOK, gin.H{
		"ok":         true,
		"epochMs":    now.UnixMilli(),
		"iso":        now.Format(time.RFC3339),
		"serverDate": state.DayKey(now),
	})
}
