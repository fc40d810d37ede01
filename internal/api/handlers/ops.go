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

// OpsAnomalies lists recent anomaly flags for operator review.
func OpsAnomalies(db *sqlx.DB, cfg *config.Config) gin.HandlerFunc {
	st := store.New(db)
	return func(c *gin.Context) {
		limit := 100
		if raw := c.Query("limit"); raw != "" {
			if parsed, err := strconv.Atoi(raw); err == nil {
				limit = parsed
			}
		}

		rows, err := st.RecentAnomalies(c.Request.Context(), limit)
		if err != nil {
			log.Printf("[OPS] Failed to list anomalies: %v", err)
			fail(c, http.StatusServiceUnavailable, "db_unavailable", "anomaly storage is unavailable", nil)
			return
		}

		c.JSON(http.StatusOK, gin.H{"ok": true, "rows": rows})
	}
}

type dailyRollupRequest struct {
	SeasonID string `json:"seasonId"`
	DayKey   string `json:"dayKey"`
}

// OpsDailyRollup aggregates one day of match events into the rollup table.
// Defaults to the active season and yesterday's bucket; re-running a day
// overwrites its previous aggregate.
func OpsDailyRollup(db *sqlx.DB, cfg *config.Config) gin.HandlerFunc {
	st := store.New(db)
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		var req dailyRollupRequest
		_ = c.ShouldBindJSON(&req)

		dayKey := req.DayKey
		if dayKey == "" {
			dayKey = state.PrevDayKey(state.DayKey(time.Now()))
		}
		if _, err := time.Parse("2006-01-02", dayKey); err != nil {
			fail(c, http.StatusBadRequest, "invalid_day_key", "dayKey must be YYYY-MM-DD", nil)
			return
		}

		seasonID := req.SeasonID
		if seasonID == "" {
			active, err := season.EnsureActive(ctx, st, state.DayKey(time.Now()))
			if err != nil {
				fail(c, http.StatusServiceUnavailable, "db_unavailable", "season storage is unavailable", nil)
				return
			}
			seasonID = active.SeasonID
		}

		rollup, err := st.UpsertDailyRollup(ctx, seasonID, dayKey)
		if err != nil {
			log.Printf("[OPS] Daily rollup failed for %s/%s: %v", seasonID, dayKey, err)
			fail(c, http.StatusServiceUnavailable, "db_unavailable", "rollup storage is unavailable", nil)
			return
		}

		log.Printf("[OPS] Daily rollup %s/%s: %d matches, %d players", seasonID, dayKey, rollup.MatchCount, rollup.PlayerCount)
		c.JSON(http.StatusOK, gin.H{"ok": true, "rollup": rollup})
	}
}

// OpsRollups lists stored daily rollups, newest first.
func OpsRollups(db *sqlx.DB, cfg *config.Config) gin.HandlerFunc {
	st := store.New(db)
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		seasonID := c.Query("season")
		if seasonID == "" {
			active, err := season.EnsureActive(ctx, st, state.DayKey(time.Now()))
			if err != nil {
				fail(c, http.StatusServiceUnavailable, "db_unavailable", "season storage is unavailable", nil)
				return
			}
			seasonID = active.SeasonID
		}

		limit := 31
		if raw := c.Query("limit"); raw != "" {
			if parsed, err := strconv.Atoi(raw); err == nil {
				limit = parsed
			}
		}

		rows, err := st.ListDailyRollups(ctx, seasonID, limit)
		if err != nil {
			fail(c, http.StatusServiceUnavailable, "db_unavailable", "rollup storage is unavailable", nil)
			return
		}

		c.JSON(http.StatusOK, gin.H{"ok": true, "season": seasonID, "rows": rows})
	}
}

// OpsSeasonRollover forces rotation to the season covering today, closing the
// previously active one. A no-op when today's season is already active.
func OpsSeasonRollover(db *sqlx.DB, cfg *config.Config) gin.HandlerFunc {
	st := store.New(db)
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		dayKey := state.DayKey(time.Now())

		previous, err := st.GetActiveSeason(ctx)
		if err != nil {
			fail(c, http.StatusServiceUnavailable, "db_unavailable", "season storage is unavailable", nil)
			return
		}

		active, err := season.EnsureActive(ctx, st, dayKey)
		if err != nil {
			fail(c, http.StatusServiceUnavailable, "db_unavailable", "season storage is unavailable", nil)
			return
		}

		rotated := previous == nil || previous.SeasonID != active.SeasonID
		c.JSON(http.StatusOK, gin.H{
			"ok":      true,
			"rotated": rotated,
			"season":  active,
		})
	}
}
