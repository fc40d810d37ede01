package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/voidrush/backend/internal/models"
)

// GetActiveSeason returns the current active season, or nil when none exists
// yet (fresh deployment).
func (s *Store) GetActiveSeason(ctx context.Context) (*models.Season, error) {
	var season models.Season
	err := s.db.GetContext(ctx, &season, `
		SELECT season_id, label, starts_on, ends_on, status, created_at, updated_at
		FROM voidrush_seasons WHERE status=$1
		ORDER BY starts_on DESC LIMIT 1`, models.SeasonActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load active season: %w", err)
	}
	return &season, nil
}

// ActivateSeason upserts the given season as active and demotes every other
// active season to closed, in one transaction. Idempotent: re-activating the
// already-active season is a no-op rollover.
func (s *Store) ActivateSeason(ctx context.Context, season models.Season) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin season rotation: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE voidrush_seasons SET status=$1, updated_at=NOW()
		WHERE status=$2 AND season_id != $3`,
		models.SeasonClosed, models.SeasonActive, season.SeasonID); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to close previous season: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO voidrush_seasons (season_id, label, starts_on, ends_on, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,NOW(),NOW())
		ON CONFLICT (season_id) DO UPDATE SET
			label = EXCLUDED.label,
			starts_on = EXCLUDED.starts_on,
			ends_on = EXCLUDED.ends_on,
			status = EXCLUDED.status,
			updated_at = NOW()`,
		season.SeasonID, season.Label, season.StartsOn, season.EndsOn, models.SeasonActive); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to upsert season: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit season rotation: %w", err)
	}
	return nil
}

// ListSeasons returns recent seasons, newest first.
func (s *Store) ListSeasons(ctx context.Context, limit int) ([]models.Season, error) {
	if limit < 1 {
		limit = 6
	}
	if limit > 50 {
		limit = 50
	}

	rows := []models.Season{}
	err := s.db.SelectContext(ctx, &rows, `
		SELECT season_id, label, starts_on, ends_on, status, created_at, updated_at
		FROM voidrush_seasons
		ORDER BY starts_on DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list seasons: %w", err)
	}
	return rows, nil
}
