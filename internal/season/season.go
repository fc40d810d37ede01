// Package season resolves "the active season" for a given day. There is no
// in-process season singleton: every resolution is a get-or-create-with-
// rotation against storage, so multiple stateless instances always agree.
package season

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/voidrush/backend/internal/models"
	"github.com/voidrush/backend/internal/store"
)

// WindowFor computes the calendar-month season containing the given UTC day.
// Season ids are "S" plus six digits (year and month), e.g. S202608.
func WindowFor(dayKey string) (models.Season, error) {
	t, err := time.Parse("2006-01-02", dayKey)
	if err != nil {
		return models.Season{}, fmt.Errorf("invalid day key %q: %w", dayKey, err)
	}

	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, -1)

	return models.Season{
		SeasonID: start.Format("S200601"),
		Label:    "Season " + start.Format("2006-01"),
		StartsOn: start.Format("2006-01-02"),
		EndsOn:   end.Format("2006-01-02"),
		Status:   models.SeasonActive,
	}, nil
}

// Contains reports whether the day falls inside the season window. Day keys
// compare lexicographically.
func Contains(season *models.Season, dayKey string) bool {
	return season != nil && season.StartsOn <= dayKey && dayKey <= season.EndsOn
}

// EnsureActive returns the active season covering dayKey, rotating if the day
// has moved outside the current window. Rollover both activates the new
// season and demotes the previous one to closed.
func EnsureActive(ctx context.Context, st *store.Store, dayKey string) (*models.Season, error) {
	active, err := st.GetActiveSeason(ctx)
	if err != nil {
		return nil, err
	}
	if Contains(active, dayKey) {
		return active, nil
	}

	next, err := WindowFor(dayKey)
	if err != nil {
		return nil, err
	}
	if err := st.ActivateSeason(ctx, next); err != nil {
		return nil, err
	}

	if active != nil {
		log.Printf("[SEASON] Rolled over %s -> %s (day %s)", active.SeasonID, next.SeasonID, dayKey)
	} else {
		log.Printf("[SEASON] Activated %s (day %s)", next.SeasonID, dayKey)
	}
	return &next, nil
}
