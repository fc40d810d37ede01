package handlers

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/voidrush/backend/internal/config"
	"github.com/voidrush/backend/internal/season"
	"github.com/voidrush/backend/internal/state"
	"github.com/voidrush/backend/internal/store"
)

// Leaderboard serves the ranked list for a season. The default reads the
// denormalized score columns of the active season; ?season= selects another
// season and ?archive=true re-aggregates it from the match-event log, which
// also covers seasons whose player rows have since been overwritten.
func Leaderboard(db *sqlx.DB, cfg *config.Config) gin.HandlerFunc {
	st := store.New(db)
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		dayKey := state.DayKey(time.Now())

		limit := 20
		if raw := c.Query("limit"); raw != "" {
			if parsed, err := strconv.Atoi(raw); err == nil {
				limit = parsed
			}
		}

		seasonID := c.Query("season")
		if seasonID == "" {
			active, err := season.EnsureActive(ctx, st, dayKey)
			if err != nil {
				fail(c, http.StatusServiceUnavailable, "db_unavailable", "season storage is unavailable", nil)
				return
			}
			seasonID = active.SeasonID
		}

		archive := c.Query("archive") == "true" || c.Query("archive") == "1"

		var (
			rows any
			err  error
		)
		if archive {
			rows, err = st.LeaderboardFromEvents(ctx, seasonID, limit)
		} else {
			rows, err = st.Leaderboard(ctx, seasonID, limit)
		}
		if err != nil {
			log.Printf("[LEADERBOARD] Query failed for season %s: %v", seasonID, err)
			fail(c, http.StatusServiceUnavailable, "db_unavailable", "leaderboard storage is unavailable", nil)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"ok":      true,
			"season":  seasonID,
			"archive": archive,
			"rows":    rows,
		})
	}
}

// SeasonGet returns the active season plus a short history of recent ones.
func SeasonGet(db *sqlx.DB, cfg *config.Config) gin.HandlerFunc {
	st := store.New(db)
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		dayKey := state.DayKey(time.Now())

		active, err := season.EnsureActive(ctx, st, dayKey)
		if err != nil {
			fail(c, http.StatusServiceUnavailable, "db_unavailable", "season storage is unavailable", nil)
			return
		}

		recent, err := st.ListSeasons(ctx, 12)
		if err != nil {
			log.Printf("[SEASON] Failed to list seasons: %v", err)
			recent = nil
		}

		c.JSON(http.StatusOK, gin.H{
			"ok":         true,
			"serverDate": dayKey,
			"season":     active,
			"recent":     recent,
		})
	}
}
