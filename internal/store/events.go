package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/voidrush/backend/internal/anticheat"
	"github.com/voidrush/backend/internal/models"
	"github.com/voidrush/backend/internal/state"
)

// InsertMatchEvent appends one match outcome to the audit log.
func (s *Store) InsertMatchEvent(ctx context.Context, playerID, seasonID string, result state.MatchResult) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO voidrush_match_events (player_id, season_id, domination_percent, kills, nodes_captured, credits_earned, exp_earned, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,NOW())`,
		playerID, seasonID, result.DominationPercent, result.Kills, result.NodesCaptured,
		result.CreditsEarned, result.ExpEarned)
	if err != nil {
		return fmt.Errorf("failed to insert match event: %w", err)
	}
	return nil
}

// InsertAnomalyFlags persists detection flags append-only for audit. Blocked
// and accepted requests both leave their flags here.
func (s *Store) InsertAnomalyFlags(ctx context.Context, playerID, seasonID string, flags []anticheat.Flag) error {
	for _, flag := range flags {
		detailJSON, err := json.Marshal(flag.Detail)
		if err != nil {
			detailJSON = []byte("{}")
		}
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO voidrush_anomaly_events (player_id, season_id, event_type, rule_id, severity, score, detail_json, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,NOW())`,
			playerID, seasonID, flag.EventType, flag.RuleID, flag.Severity, flag.Score, detailJSON)
		if err != nil {
			return fmt.Errorf("failed to insert anomaly flag: %w", err)
		}
	}
	return nil
}

// RecentAnomalies lists the latest persisted flags for the ops surface.
func (s *Store) RecentAnomalies(ctx context.Context, limit int) ([]models.AnomalyEvent, error) {
	if limit < 1 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}

	rows := []models.AnomalyEvent{}
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, player_id, season_id, event_type, rule_id, severity, score, detail_json, created_at
		FROM voidrush_anomaly_events
		ORDER BY created_at DESC, id DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch anomalies: %w", err)
	}
	return rows, nil
}

// LeaderboardFromEvents ranks players by re-aggregating the season's match
// events. Captured nodes weigh double, matching how live stats accumulate
// kills, and the final ordering uses the same score weighting as the live
// path.
func (s *Store) LeaderboardFromEvents(ctx context.Context, seasonID string, limit int) ([]models.LeaderboardEntry, error) {
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	var aggregates []struct {
		PlayerID       string    `db:"player_id"`
		MatchCount     int       `db:"match_count"`
		WeightedKills  int       `db:"weighted_kills"`
		BestDomination float64   `db:"best_domination"`
		WinCount       int       `db:"win_count"`
		LastPlayedAt   time.Time `db:"last_played_at"`
	}
	err := s.db.SelectContext(ctx, &aggregates, `
		SELECT
			player_id,
			COUNT(*) AS match_count,
			COALESCE(SUM(kills + nodes_captured * 2), 0) AS weighted_kills,
			COALESCE(MAX(domination_percent), 0) AS best_domination,
			COALESCE(SUM(CASE WHEN domination_percent > 35 THEN 1 ELSE 0 END), 0) AS win_count,
			MAX(created_at) AS last_played_at
		FROM voidrush_match_events
		WHERE season_id = $1
		GROUP BY player_id`, seasonID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate match events: %w", err)
	}

	entries := make([]models.LeaderboardEntry, 0, len(aggregates))
	for _, agg := range aggregates {
		entries = append(entries, models.LeaderboardEntry{
			PlayerID:       agg.PlayerID,
			TotalMatches:   agg.MatchCount,
			TotalKills:     agg.WeightedKills,
			BestDomination: agg.BestDomination,
			WinCount:       agg.WinCount,
			SeasonScore:    state.SeasonScoreFrom(agg.BestDomination, agg.WeightedKills, agg.WinCount),
			UpdatedAt:      agg.LastPlayedAt,
		})
	}

	sortLeaderboard(entries)
	if len(entries) > limit {
		entries = entries[:limit]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}

func sortLeaderboard(entries []models.LeaderboardEntry) {
	// Same tiebreak chain as the live query: score, kills, domination.
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.SeasonScore != b.SeasonScore {
			return a.SeasonScore > b.SeasonScore
		}
		if a.TotalKills != b.TotalKills {
			return a.TotalKills > b.TotalKills
		}
		return a.BestDomination > b.BestDomination
	})
}
