package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/voidrush/backend/internal/analytics"
	"github.com/voidrush/backend/internal/anticheat"
	"github.com/voidrush/backend/internal/config"
	"github.com/voidrush/backend/internal/season"
	"github.com/voidrush/backend/internal/state"
	"github.com/voidrush/backend/internal/store"
)

// mutationContext is what a mutation function sees: the verified player, the
// UTC day bucket, the raw payload, and the resolved season. A match mutation
// additionally exposes its parsed match data for the anomaly detector.
type mutationContext struct {
	PlayerID string
	DayKey   string
	SeasonID string
	Payload  json.RawMessage
	RawMatch *state.MatchData
}

// mutationFunc applies one progression mutation to the working state and
// returns the result half of the response. Rule violations come back as
// *state.RuleError and turn into 400s with the rule code on the wire.
type mutationFunc func(ctx context.Context, st *store.Store, mc *mutationContext, working *state.PlayerState) (any, error)

// handleMutation is the shared mutate-and-persist pipeline behind every
// progression POST: replay check, season resolution, load, ensure daily
// missions, snapshot before, apply, detect anomalies, security decision,
// persist exactly once, cache the response under the request id.
func handleMutation(db *sqlx.DB, cfg *config.Config, eventType string, fn mutationFunc) gin.HandlerFunc {
	st := store.New(db)

	return func(c *gin.Context) {
		playerID, ok := requirePlayer(c)
		if !ok {
			return
		}

		ctx := c.Request.Context()
		env := readEnvelope(c)
		dayKey := state.DayKey(time.Now())

		if replayMutation(c, st, playerID, env.RequestID, dayKey) {
			return
		}

		active, err := season.EnsureActive(ctx, st, dayKey)
		if err != nil {
			log.Printf("[PROGRESSION] Season resolution failed for %s: %v", playerID, err)
			fail(c, http.StatusServiceUnavailable, "db_unavailable", "season storage is unavailable", nil)
			return
		}

		loaded, err := st.LoadPlayerState(ctx, playerID)
		if err != nil {
			log.Printf("[PROGRESSION] Failed to load state for %s: %v", playerID, err)
			fail(c, http.StatusServiceUnavailable, "db_unavailable", "player storage is unavailable", nil)
			return
		}

		working := loaded.State
		working.EnsureDailyMissions(playerID, dayKey)
		before := working.Clone()

		mc := &mutationContext{
			PlayerID: playerID,
			DayKey:   dayKey,
			SeasonID: active.SeasonID,
			Payload:  env.Payload,
		}

		result, err := fn(ctx, st, mc, working)
		if err != nil {
			var ruleErr *state.RuleError
			if errors.As(err, &ruleErr) {
				fail(c, http.StatusBadRequest, ruleErr.Code, "the requested operation failed", nil)
				return
			}
			log.Printf("[PROGRESSION] %s mutation failed for %s: %v", eventType, playerID, err)
			fail(c, http.StatusInternalServerError, "mutation_failed", "the requested operation failed", nil)
			return
		}

		flags := anticheat.Detect(anticheat.Input{
			EventType: eventType,
			MatchData: mc.RawMatch,
			Before:    before,
			After:     working,
		})
		if len(flags) > 0 {
			if err := st.InsertAnomalyFlags(ctx, playerID, active.SeasonID, flags); err != nil {
				log.Printf("[ANTICHEAT] Failed to record %d flags for %s: %v", len(flags), playerID, err)
			}
		}
		summary := anticheat.Summarize(flags)

		if anticheat.ShouldBlock(flags) {
			// The mutation never reaches storage, but the verdict is still
			// replay-cached so a retry of the same request id stays blocked.
			response := gin.H{
				"ok":         false,
				"accepted":   false,
				"error":      "security_block",
				"eventType":  eventType,
				"requestId":  nullableID(env.RequestID),
				"serverDate": dayKey,
				"season":     active.SeasonID,
				"security":   summary,
			}
			cacheReplay(ctx, st, playerID, env, c.FullPath(), eventType, response)
			analytics.Write(ctx, db, analytics.Point{
				Event:    eventType,
				SeasonID: active.SeasonID,
				PlayerID: playerID,
				Status:   "blocked",
				RuleID:   topRule(flags),
				DayKey:   dayKey,
				Value0:   float64(summary.HighestScore),
			})
			c.JSON(http.StatusForbidden, response)
			return
		}

		safe, score, err := st.SavePlayerState(ctx, playerID, active.SeasonID, working)
		if err != nil {
			log.Printf("[PROGRESSION] Failed to persist state for %s: %v", playerID, err)
			fail(c, http.StatusServiceUnavailable, "db_unavailable", "player storage is unavailable", nil)
			return
		}

		response := gin.H{
			"ok":         true,
			"accepted":   true,
			"eventType":  eventType,
			"requestId":  nullableID(env.RequestID),
			"serverDate": dayKey,
			"season":     active.SeasonID,
			"hasProfile": true,
			"security":   summary,
			"result":     result,
			"snapshot":   safe.Compact(),
		}
		cacheReplay(ctx, st, playerID, env, c.FullPath(), eventType, response)
		analytics.Write(ctx, db, analytics.Point{
			Event:    eventType,
			SeasonID: active.SeasonID,
			PlayerID: playerID,
			Status:   "accepted",
			DayKey:   dayKey,
			Value0:   float64(score),
		})
		c.JSON(http.StatusOK, response)
	}
}

// replayMutation serves a previously recorded response for this request id,
// with the snapshot refreshed to the player's current state. Returns true when
// the request was answered from the cache.
func replayMutation(c *gin.Context, st *store.Store, playerID, requestID, dayKey string) bool {
	if requestID == "" {
		return false
	}
	ctx := c.Request.Context()
	stored, err := st.GetRequestReplay(ctx, playerID, requestID)
	if err != nil {
		log.Printf("[PROGRESSION] Replay lookup failed for %s/%s: %v", playerID, requestID, err)
		return false
	}
	if stored == nil {
		return false
	}

	var response map[string]any
	if err := json.Unmarshal(stored, &response); err != nil {
		log.Printf("[PROGRESSION] Corrupt replay record for %s/%s: %v", playerID, requestID, err)
		return false
	}

	latest, err := st.LoadPlayerState(ctx, playerID)
	if err == nil && latest.Exists {
		if _, hasSnapshot := response["snapshot"]; hasSnapshot {
			response["snapshot"] = latest.State.Compact()
		}
	}
	response["replayed"] = true
	response["serverDate"] = dayKey

	status := http.StatusOK
	if accepted, ok := response["accepted"].(bool); ok && !accepted {
		status = http.StatusForbidden
	}
	c.JSON(status, response)
	return true
}

func cacheReplay(ctx context.Context, st *store.Store, playerID string, env envelope, path, eventType string, response any) {
	if env.RequestID == "" {
		return
	}
	if err := st.SaveRequestReplay(ctx, playerID, env.RequestID, path, eventType, env.Payload, response); err != nil {
		log.Printf("[PROGRESSION] Failed to cache replay for %s/%s: %v", playerID, env.RequestID, err)
	}
}

func nullableID(id string) any {
	if id == "" {
		return nil
	}
	return id
}

func topRule(flags []anticheat.Flag) string {
	rule := ""
	best := -1
	for _, f := range flags {
		if f.Score > best {
			best = f.Score
			rule = f.RuleID
		}
	}
	return rule
}

// MatchResult applies a finished match to the player's progression: derived
// credits and exp, stat aggregates, mission progress, and an append-only match
// event row for the archive leaderboard.
func MatchResult(db *sqlx.DB, cfg *config.Config) gin.HandlerFunc {
	return handleMutation(db, cfg, "match_result", func(ctx context.Context, st *store.Store, mc *mutationContext, working *state.PlayerState) (any, error) {
		var body struct {
			MatchData state.MatchData `json:"matchData"`
		}
		if len(mc.Payload) > 0 {
			_ = json.Unmarshal(mc.Payload, &body)
		}
		mc.RawMatch = &body.MatchData

		result := working.ApplyMatchResult(body.MatchData)
		working.FeedMatchIntoMissions(mc.PlayerID, mc.DayKey, body.MatchData)

		if err := st.InsertMatchEvent(ctx, mc.PlayerID, mc.SeasonID, result); err != nil {
			log.Printf("[PROGRESSION] Failed to record match event for %s: %v", mc.PlayerID, err)
		}
		return result, nil
	})
}

// BattlePassExp grants battle-pass experience earned from a cleared match.
func BattlePassExp(db *sqlx.DB, cfg *config.Config) gin.HandlerFunc {
	return handleMutation(db, cfg, "battlepass_exp", func(ctx context.Context, st *store.Store, mc *mutationContext, working *state.PlayerState) (any, error) {
		var body struct {
			Amount int64          `json:"amount"`
			Meta   map[string]any `json:"meta"`
		}
		if len(mc.Payload) > 0 {
			_ = json.Unmarshal(mc.Payload, &body)
		}
		return working.AddBattlePassExp(body.Amount, "match_clear", body.Meta), nil
	})
}

// BattlePassClaim pays out the reward of an unlocked battle-pass level.
func BattlePassClaim(db *sqlx.DB, cfg *config.Config) gin.HandlerFunc {
	return handleMutation(db, cfg, "battlepass_claim", func(ctx context.Context, st *store.Store, mc *mutationContext, working *state.PlayerState) (any, error) {
		var body struct {
			Level int `json:"level"`
		}
		if len(mc.Payload) > 0 {
			_ = json.Unmarshal(mc.Payload, &body)
		}
		return working.ClaimBattlePassReward(body.Level)
	})
}

// MissionClaim pays out a completed daily mission.
func MissionClaim(db *sqlx.DB, cfg *config.Config) gin.HandlerFunc {
	return handleMutation(db, cfg, "mission_claim", func(ctx context.Context, st *store.Store, mc *mutationContext, working *state.PlayerState) (any, error) {
		var body struct {
			MissionID string `json:"missionId"`
		}
		if len(mc.Payload) > 0 {
			_ = json.Unmarshal(mc.Payload, &body)
		}
		if body.MissionID == "" {
			return nil, &state.RuleError{Code: "mission_id_required"}
		}
		return working.ClaimMissionReward(mc.PlayerID, mc.DayKey, body.MissionID)
	})
}

// LoginBonusClaim pays today's login-streak reward.
func LoginBonusClaim(db *sqlx.DB, cfg *config.Config) gin.HandlerFunc {
	return handleMutation(db, cfg, "login_bonus_claim", func(ctx context.Context, st *store.Store, mc *mutationContext, working *state.PlayerState) (any, error) {
		return working.ClaimLoginBonus(mc.DayKey)
	})
}

// GachaPull records a gacha pull for auditing. Draw outcomes are decided
// client-side against the published rates; the server only keeps the trail.
func GachaPull(db *sqlx.DB, cfg *config.Config) gin.HandlerFunc {
	return handleMutation(db, cfg, "gacha_pull", func(ctx context.Context, st *store.Store, mc *mutationContext, working *state.PlayerState) (any, error) {
		var body struct {
			Mode  string            `json:"mode"`
			Pulls []json.RawMessage `json:"pulls"`
		}
		if len(mc.Payload) > 0 {
			_ = json.Unmarshal(mc.Payload, &body)
		}
		mode := body.Mode
		if mode == "" {
			mode = "unknown"
		}
		return gin.H{"recorded": true, "mode": mode, "pulls": len(body.Pulls)}, nil
	})
}

// SnapshotPost replaces the player's persisted state with a sanitized copy of
// the uploaded snapshot. Large unexplained jumps are flagged by the detector
// like any other mutation.
func SnapshotPost(db *sqlx.DB, cfg *config.Config) gin.HandlerFunc {
	return handleMutation(db, cfg, "snapshot_upload", func(ctx context.Context, st *store.Store, mc *mutationContext, working *state.PlayerState) (any, error) {
		var body struct {
			Snapshot json.RawMessage `json:"snapshot"`
			State    json.RawMessage `json:"state"`
			Reason   string          `json:"reason"`
		}
		if len(mc.Payload) > 0 {
			_ = json.Unmarshal(mc.Payload, &body)
		}

		raw := body.Snapshot
		if len(raw) == 0 {
			raw = body.State
		}
		if len(raw) == 0 {
			raw = mc.Payload
		}

		uploaded := state.Decode(raw)
		uploaded.EnsureDailyMissions(mc.PlayerID, mc.DayKey)
		*working = *uploaded

		reason := body.Reason
		if reason == "" {
			reason = "manual"
		}
		return gin.H{"reason": reason}, nil
	})
}

// SnapshotGet returns the player's current state, regenerating daily missions
// on read when the day has rolled over.
func SnapshotGet(db *sqlx.DB, cfg *config.Config) gin.HandlerFunc {
	st := store.New(db)
	return func(c *gin.Context) {
		playerID, ok := requirePlayer(c)
		if !ok {
			return
		}

		ctx := c.Request.Context()
		dayKey := state.DayKey(time.Now())

		loaded, err := st.LoadPlayerState(ctx, playerID)
		if err != nil {
			fail(c, http.StatusServiceUnavailable, "db_unavailable", "player storage is unavailable", nil)
			return
		}

		changed := false
		if loaded.Exists {
			changed = loaded.State.EnsureDailyMissions(playerID, dayKey)
			if changed {
				if err := persistRefreshed(ctx, st, playerID, dayKey, loaded.State); err != nil {
					log.Printf("[PROGRESSION] Failed to persist mission refresh for %s: %v", playerID, err)
				}
			}
		}

		var snapshot any
		if loaded.Exists {
			snapshot = loaded.State.Compact()
		}
		c.JSON(http.StatusOK, gin.H{
			"ok":         true,
			"hasProfile": loaded.Exists,
			"serverDate": dayKey,
			"snapshot":   snapshot,
			"changed":    changed,
		})
	}
}

// DailyGet returns today's missions, regenerating them on read when stale.
func DailyGet(db *sqlx.DB, cfg *config.Config) gin.HandlerFunc {
	st := store.New(db)
	return func(c *gin.Context) {
		playerID, ok := requirePlayer(c)
		if !ok {
			return
		}

		ctx := c.Request.Context()
		dayKey := state.DayKey(time.Now())

		loaded, err := st.LoadPlayerState(ctx, playerID)
		if err != nil {
			fail(c, http.StatusServiceUnavailable, "db_unavailable", "player storage is unavailable", nil)
			return
		}

		if !loaded.Exists {
			c.JSON(http.StatusOK, gin.H{
				"ok":         true,
				"hasProfile": false,
				"serverDate": dayKey,
				"missions":   []state.DailyMission{},
			})
			return
		}

		if loaded.State.EnsureDailyMissions(playerID, dayKey) {
			if err := persistRefreshed(ctx, st, playerID, dayKey, loaded.State); err != nil {
				log.Printf("[PROGRESSION] Failed to persist mission refresh for %s: %v", playerID, err)
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"ok":         true,
			"hasProfile": true,
			"serverDate": dayKey,
			"missions":   loaded.State.Missions.Daily,
		})
	}
}

// persistRefreshed saves a read-path mission regeneration under the active
// season, falling back to a season-less write when resolution fails.
func persistRefreshed(ctx context.Context, st *store.Store, playerID, dayKey string, ps *state.PlayerState) error {
	seasonID := ""
	if active, err := season.EnsureActive(ctx, st, dayKey); err == nil {
		seasonID = active.SeasonID
	}
	_, _, err := st.SavePlayerState(ctx, playerID, seasonID, ps)
	return err
}
