package models

import (
	"encoding/json"
	"time"
)

// PlayerRow is one row of voidrush_players: the serialized state blob plus
// denormalized score columns the leaderboard sorts on.
type PlayerRow struct {
	PlayerID       string          `db:"player_id" json:"player_id"`
	SchemaVersion  int             `db:"schema_version" json:"schema_version"`
	StateJSON      json.RawMessage `db:"state_json" json:"-"`
	TotalMatches   int             `db:"total_matches" json:"total_matches"`
	TotalKills     int             `db:"total_kills" json:"total_kills"`
	BestDomination float64         `db:"best_domination" json:"best_domination"`
	WinCount       int             `db:"win_count" json:"win_count"`
	SeasonScore    int64           `db:"season_score" json:"season_score"`
	SeasonID       string          `db:"season_id" json:"season_id"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
	LastSeenAt     time.Time       `db:"last_seen_at" json:"last_seen_at"`
}

// RequestReplay is one cached response keyed by (player, client request id).
// The unique constraint on that pair is what makes retried mutations
// exactly-once.
type RequestReplay struct {
	ID           int64           `db:"id" json:"id"`
	PlayerID     string          `db:"player_id" json:"player_id"`
	RequestID    string          `db:"request_id" json:"request_id"`
	Path         string          `db:"path" json:"path"`
	EventType    string          `db:"event_type" json:"event_type"`
	PayloadJSON  json.RawMessage `db:"payload_json" json:"-"`
	ResponseJSON json.RawMessage `db:"response_json" json:"-"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
}

// AnomalyEvent is one persisted anti-cheat flag, kept append-only for audit.
type AnomalyEvent struct {
	ID         int64           `db:"id" json:"id"`
	PlayerID   string          `db:"player_id" json:"player_id"`
	SeasonID   string          `db:"season_id" json:"season_id"`
	EventType  string          `db:"event_type" json:"event_type"`
	RuleID     string          `db:"rule_id" json:"rule_id"`
	Severity   string          `db:"severity" json:"severity"`
	Score      int             `db:"score" json:"score"`
	DetailJSON json.RawMessage `db:"detail_json" json:"detail"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}

// Season statuses. Exactly one season is active at a time; rollover demotes
// the previous one to closed.
const (
	SeasonActive    = "active"
	SeasonScheduled = "scheduled"
	SeasonClosed    = "closed"
)

// Season is one leaderboard season window.
type Season struct {
	SeasonID  string    `db:"season_id" json:"seasonId"`
	Label     string    `db:"label" json:"label"`
	StartsOn  string    `db:"starts_on" json:"startsOn"`
	EndsOn    string    `db:"ends_on" json:"endsOn"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"-"`
	UpdatedAt time.Time `db:"updated_at" json:"-"`
}

// Identity binds a player id to the hashed bootstrap proof that first claimed it.
type Identity struct {
	PlayerID   string    `db:"player_id" json:"player_id"`
	ProofHash  string    `db:"proof_hash" json:"-"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	LastSeenAt time.Time `db:"last_seen_at" json:"last_seen_at"`
}

// DailyRollup is the per-(season, day) aggregate of match events, produced by
// the ops rollup job as a single-shot idempotent upsert.
type DailyRollup struct {
	SeasonID      string    `db:"season_id" json:"seasonId"`
	DayKey        string    `db:"day_key" json:"dayKey"`
	PlayerCount   int       `db:"player_count" json:"playerCount"`
	MatchCount    int       `db:"match_count" json:"matchCount"`
	TotalKills    int       `db:"total_kills" json:"totalKills"`
	TotalCredits  int64     `db:"total_credits" json:"totalCredits"`
	TotalExp      int64     `db:"total_exp" json:"totalExp"`
	UpdatedAt     time.Time `db:"updated_at" json:"updatedAt"`
}

// LeaderboardEntry is one ranked row returned to clients.
type LeaderboardEntry struct {
	Rank           int       `db:"-" json:"rank"`
	PlayerID       string    `db:"player_id" json:"playerId"`
	TotalMatches   int       `db:"total_matches" json:"totalMatches"`
	TotalKills     int       `db:"total_kills" json:"totalKills"`
	BestDomination float64   `db:"best_domination" json:"bestDomination"`
	WinCount       int       `db:"win_count" json:"winCount"`
	SeasonScore    int64     `db:"season_score" json:"seasonScore"`
	UpdatedAt      time.Time `db:"updated_at" json:"updatedAt"`
}
