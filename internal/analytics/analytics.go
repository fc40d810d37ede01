// Package analytics records request telemetry points. Writes are best-effort:
// a failed insert is logged and swallowed, never surfaced to the client.
package analytics

import (
	"context"
	"log"

	"github.com/jmoiron/sqlx"
)

// Point is one telemetry datapoint.
type Point struct {
	Event    string
	SeasonID string
	PlayerID string
	Status   string
	RuleID   string
	DayKey   string
	Value0   float64
	Value1   float64
}

func truncate(s string, maxLen int) string {
	if len(s) > maxLen {
		return s[:maxLen]
	}
	return s
}

// Write inserts a datapoint. Errors never propagate; telemetry must not
// affect the response.
func Write(ctx context.Context, db *sqlx.DB, p Point) {
	if db == nil {
		return
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO voidrush_analytics_events (event_name, season_id, player_id, status, rule_id, day_key, value0, value1, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,NOW())`,
		truncate(p.Event, 64), truncate(p.SeasonID, 32), truncate(p.PlayerID, 128),
		truncate(p.Status, 32), truncate(p.RuleID, 64), truncate(p.DayKey, 16),
		p.Value0, p.Value1)
	if err != nil {
		log.Printf("[ANALYTICS] Failed to write point %s: %v", p.Event, err)
	}
}
