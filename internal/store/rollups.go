package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/voidrush/backend/internal/models"
)

// UpsertDailyRollup aggregates one UTC day of match events for a season into
// a single rollup row, keyed by (season, day). Safe to re-run: the upsert
// simply refreshes the aggregates.
func (s *Store) UpsertDailyRollup(ctx context.Context, seasonID, dayKey string) (*models.DailyRollup, error) {
	var agg struct {
		PlayerCount  int   `db:"player_count"`
		MatchCount   int   `db:"match_count"`
		TotalKills   int   `db:"total_kills"`
		TotalCredits int64 `db:"total_credits"`
		TotalExp     int64 `db:"total_exp"`
	}
	err := s.db.GetContext(ctx, &agg, `
		SELECT
			COUNT(DISTINCT player_id) AS player_count,
			COUNT(*) AS match_count,
			COALESCE(SUM(kills + nodes_captured * 2), 0) AS total_kills,
			COALESCE(SUM(credits_earned), 0) AS total_credits,
			COALESCE(SUM(exp_earned), 0) AS total_exp
		FROM voidrush_match_events
		WHERE season_id = $1 AND created_at >= $2::date AND created_at < $2::date + INTERVAL '1 day'`,
		seasonID, dayKey)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to aggregate day: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO voidrush_daily_rollups (season_id, day_key, player_count, match_count, total_kills, total_credits, total_exp, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,NOW())
		ON CONFLICT (season_id, day_key) DO UPDATE SET
			player_count = EXCLUDED.player_count,
			match_count = EXCLUDED.match_count,
			total_kills = EXCLUDED.total_kills,
			total_credits = EXCLUDED.total_credits,
			total_exp = EXCLUDED.total_exp,
			updated_at = NOW()`,
		seasonID, dayKey, agg.PlayerCount, agg.MatchCount, agg.TotalKills, agg.TotalCredits, agg.TotalExp)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert daily rollup: %w", err)
	}

	return &models.DailyRollup{
		SeasonID:     seasonID,
		DayKey:       dayKey,
		PlayerCount:  agg.PlayerCount,
		MatchCount:   agg.MatchCount,
		TotalKills:   agg.TotalKills,
		TotalCredits: agg.TotalCredits,
		TotalExp:     agg.TotalExp,
	}, nil
}

// ListDailyRollups returns a season's rollups, newest day first.
func (s *Store) ListDailyRollups(ctx context.Context, seasonID string, limit int) ([]models.DailyRollup, error) {
	if limit < 1 {
		limit = 31
	}
	if limit > 366 {
		limit = 366
	}

	rows := []models.DailyRollup{}
	err := s.db.SelectContext(ctx, &rows, `
		SELECT season_id, day_key, player_count, match_count, total_kills, total_credits, total_exp, updated_at
		FROM voidrush_daily_rollups
		WHERE season_id = $1
		ORDER BY day_key DESC
		LIMIT $2`, seasonID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list rollups: %w", err)
	}
	return rows, nil
}
