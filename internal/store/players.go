package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/voidrush/backend/internal/models"
	"github.com/voidrush/backend/internal/state"
)

// LoadedState is the result of a player-state read.
type LoadedState struct {
	Exists    bool
	State     *state.PlayerState
	UpdatedAt time.Time
}

// LoadPlayerState reads and sanitizes a player's persisted state. A missing
// row yields the default state with Exists=false.
func (s *Store) LoadPlayerState(ctx context.Context, playerID string) (*LoadedState, error) {
	var row models.PlayerRow
	err := s.db.GetContext(ctx, &row, `
		SELECT player_id, season_id, state_json, schema_version,
			season_score, total_matches, total_kills, best_domination, win_count,
			created_at, updated_at, last_seen_at
		FROM voidrush_players WHERE player_id=$1`, playerID)
	if errors.Is(err, sql.ErrNoRows) {
		return &LoadedState{Exists: false, State: state.Default(), UpdatedAt: time.Now().UTC()}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load player state: %w", err)
	}

	return &LoadedState{
		Exists:    true,
		State:     state.Decode(row.StateJSON),
		UpdatedAt: row.UpdatedAt,
	}, nil
}

// SavePlayerState sanitizes and upserts a player's state, refreshing the
// denormalized leaderboard columns in the same write. Concurrent writers for
// the same player race at this upsert; the last write wins.
func (s *Store) SavePlayerState(ctx context.Context, playerID, seasonID string, ps *state.PlayerState) (*state.PlayerState, int64, error) {
	safe := state.Sanitize(ps)
	score := safe.SeasonScore()

	stateJSON, err := json.Marshal(safe)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to encode player state: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO voidrush_players (
			player_id, schema_version, state_json,
			total_matches, total_kills, best_domination, win_count,
			season_score, season_id,
			created_at, updated_at, last_seen_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,NOW(),NOW(),NOW())
		ON CONFLICT (player_id) DO UPDATE SET
			schema_version = EXCLUDED.schema_version,
			state_json = EXCLUDED.state_json,
			total_matches = EXCLUDED.total_matches,
			total_kills = EXCLUDED.total_kills,
			best_domination = EXCLUDED.best_domination,
			win_count = EXCLUDED.win_count,
			season_score = EXCLUDED.season_score,
			season_id = EXCLUDED.season_id,
			updated_at = NOW(),
			last_seen_at = NOW()`,
		playerID, safe.SchemaVersion, stateJSON,
		safe.Stats.TotalMatches, safe.Stats.TotalKills, safe.Stats.BestDomination, safe.Stats.WinCount,
		score, seasonID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to save player state: %w", err)
	}

	return safe, score, nil
}

// Leaderboard returns the live ranked list from the denormalized player
// columns, scoped to one season.
func (s *Store) Leaderboard(ctx context.Context, seasonID string, limit int) ([]models.LeaderboardEntry, error) {
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	rows := []models.LeaderboardEntry{}
	err := s.db.SelectContext(ctx, &rows, `
		SELECT player_id, total_matches, total_kills, best_domination, win_count, season_score, updated_at
		FROM voidrush_players
		WHERE season_id = $1
		ORDER BY season_score DESC, total_kills DESC, best_domination DESC
		LIMIT $2`, seasonID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch leaderboard: %w", err)
	}

	for i := range rows {
		rows[i].Rank = i + 1
	}
	return rows, nil
}
