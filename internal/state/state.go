package state

import (
	"encoding/json"
	"time"
)

// CurrentSchemaVersion is stamped onto every sanitized snapshot.
const CurrentSchemaVersion = 2

const (
	ledgerMaxEntries       = 500
	expPerMetaLevelBase    = 1000
	expPerBattlePassLevel  = 500
	battlePassMaxLevel     = 30
	metaLevelUpGemBonus    = 50
	dailyMissionCount      = 3
	winDominationThreshold = 35.0
)

// RewardType discriminates currency grants in reward tables.
type RewardType string

const (
	RewardCredits RewardType = "credits"
	RewardGems    RewardType = "gems"
)

// LoginBonusReward is one entry of the 7-day login cycle.
type LoginBonusReward struct {
	Day    int        `json:"day"`
	Type   RewardType `json:"type"`
	Amount int64      `json:"amount"`
	Label  string     `json:"label"`
}

// LoginBonusTable cycles indefinitely: day 8 pays the day-1 reward again.
var LoginBonusTable = []LoginBonusReward{
	{Day: 1, Type: RewardCredits, Amount: 500, Label: "500 クレジット"},
	{Day: 2, Type: RewardGems, Amount: 10, Label: "10 ジェム"},
	{Day: 3, Type: RewardCredits, Amount: 1000, Label: "1000 クレジット"},
	{Day: 4, Type: RewardGems, Amount: 15, Label: "15 ジェム"},
	{Day: 5, Type: RewardCredits, Amount: 1500, Label: "1500 クレジット"},
	{Day: 6, Type: RewardGems, Amount: 25, Label: "25 ジェム"},
	{Day: 7, Type: RewardGems, Amount: 80, Label: "80 ジェム ★"},
}

// MissionDef describes one entry of the daily mission pool.
type MissionDef struct {
	ID           string     `json:"id"`
	Type         string     `json:"type"`
	Target       int        `json:"target"`
	RewardType   RewardType `json:"rewardType"`
	RewardAmount int64      `json:"rewardAmount"`
}

// MissionDefinitions is the fixed pool daily missions are rolled from.
var MissionDefinitions = []MissionDef{
	{ID: "play_3", Type: "matches", Target: 3, RewardType: RewardCredits, RewardAmount: 800},
	{ID: "kill_10", Type: "kills", Target: 10, RewardType: RewardCredits, RewardAmount: 600},
	{ID: "dom_50", Type: "bestDomination", Target: 50, RewardType: RewardGems, RewardAmount: 15},
	{ID: "kill_5_1", Type: "bestKillsSingle", Target: 5, RewardType: RewardGems, RewardAmount: 10},
	{ID: "node_2", Type: "nodes", Target: 2, RewardType: RewardCredits, RewardAmount: 500},
	{ID: "win_1", Type: "wins", Target: 1, RewardType: RewardGems, RewardAmount: 20},
}

// BattlePassReward is the claimable reward at one battle pass level.
type BattlePassReward struct {
	Level  int        `json:"level"`
	Type   RewardType `json:"type"`
	Amount int64      `json:"amount"`
}

var BattlePassRewards = []BattlePassReward{
	{Level: 1, Type: RewardCredits, Amount: 300},
	{Level: 2, Type: RewardGems, Amount: 10},
	{Level: 3, Type: RewardCredits, Amount: 500},
	{Level: 4, Type: RewardCredits, Amount: 500},
	{Level: 5, Type: RewardGems, Amount: 20},
	{Level: 6, Type: RewardCredits, Amount: 800},
	{Level: 7, Type: RewardCredits, Amount: 800},
	{Level: 8, Type: RewardGems, Amount: 25},
	{Level: 9, Type: RewardCredits, Amount: 1000},
	{Level: 10, Type: RewardGems, Amount: 50},
	{Level: 11, Type: RewardCredits, Amount: 1000},
	{Level: 12, Type: RewardGems, Amount: 15},
	{Level: 13, Type: RewardCredits, Amount: 1200},
	{Level: 14, Type: RewardCredits, Amount: 1200},
	{Level: 15, Type: RewardGems, Amount: 30},
	{Level: 16, Type: RewardCredits, Amount: 1500},
	{Level: 17, Type: RewardCredits, Amount: 1500},
	{Level: 18, Type: RewardGems, Amount: 35},
	{Level: 19, Type: RewardCredits, Amount: 2000},
	{Level: 20, Type: RewardGems, Amount: 80},
	{Level: 21, Type: RewardCredits, Amount: 2000},
	{Level: 22, Type: RewardGems, Amount: 20},
	{Level: 23, Type: RewardCredits, Amount: 2500},
	{Level: 24, Type: RewardCredits, Amount: 2500},
	{Level: 25, Type: RewardGems, Amount: 40},
	{Level: 26, Type: RewardCredits, Amount: 3000},
	{Level: 27, Type: RewardCredits, Amount: 3000},
	{Level: 28, Type: RewardGems, Amount: 50},
	{Level: 29, Type: RewardCredits, Amount: 5000},
	{Level: 30, Type: RewardGems, Amount: 150},
}

// LoginBonus tracks the consecutive-login streak.
type LoginBonus struct {
	LastLoginDate string `json:"lastLoginDate"`
	Streak        int    `json:"streak"`
}

// DailyMission is one rolled mission with live progress.
type DailyMission struct {
	ID       string `json:"id"`
	Progress int    `json:"progress"`
	Claimed  bool   `json:"claimed"`
}

// Missions groups the rolled daily set and its regeneration gate.
type Missions struct {
	Daily         []DailyMission `json:"daily"`
	LastResetDate string         `json:"lastResetDate"`
}

// Stats are aggregate counters derived from match results.
type Stats struct {
	TotalMatches       int     `json:"totalMatches"`
	TotalKills         int     `json:"totalKills"`
	TotalNodesCaptured int     `json:"totalNodesCaptured"`
	BestDomination     float64 `json:"bestDomination"`
	BestKills          int     `json:"bestKills"`
	WinCount           int     `json:"winCount"`
}

// CharacterProgress is per-character progression.
type CharacterProgress struct {
	Level     int `json:"level"`
	Exp       int `json:"exp"`
	DupeCount int `json:"dupeCount"`
	Uncap     int `json:"uncap"`
}

// BattlePass tracks seasonal pass level, carry exp and claimed levels.
type BattlePass struct {
	Level   int   `json:"level"`
	Exp     int   `json:"exp"`
	Claimed []int `json:"claimed"`
}

// Notifications are pass-through UI hint flags.
type Notifications struct {
	UnclaimedMissions int  `json:"unclaimedMissions"`
	LoginBonusPending bool `json:"loginBonusPending"`
}

// LedgerEntry is one append-only economy audit record.
type LedgerEntry struct {
	Timestamp string         `json:"timestamp"`
	Category  string         `json:"category"`
	Source    string         `json:"source"`
	Amount    int64          `json:"amount"`
	Before    int64          `json:"before"`
	After     int64          `json:"after"`
	Meta      map[string]any `json:"meta,omitempty"`
}

// PlayerState is the canonical persisted progression snapshot for one player.
type PlayerState struct {
	SchemaVersion       int                          `json:"schemaVersion"`
	Level               int                          `json:"level"`
	Exp                 int64                        `json:"exp"`
	Credits             int64                        `json:"credits"`
	Gems                int64                        `json:"gems"`
	UnlockedCharacters  []int                        `json:"unlockedCharacters"`
	SelectedCharacterID int                          `json:"selectedCharacterId"`
	Upgrades            map[string]int               `json:"upgrades"`
	LoginBonus          LoginBonus                   `json:"loginBonus"`
	Missions            Missions                     `json:"missions"`
	Stats               Stats                        `json:"stats"`
	CharacterData       map[string]CharacterProgress `json:"characterData"`
	PityCounter         int                          `json:"pityCounter"`
	BattlePass          BattlePass                   `json:"battlePass"`
	TutorialDone        bool                         `json:"tutorialDone"`
	Notifications       Notifications                `json:"notifications"`
	EconomyLedger       []LedgerEntry                `json:"economyLedger"`
}

var upgradeKeys = []string{"hp", "speed", "magnet"}

// Default returns the state a brand-new player starts with.
func Default() *PlayerState {
	return &PlayerState{
		SchemaVersion:       CurrentSchemaVersion,
		Level:               1,
		Exp:                 0,
		Credits:             2000,
		Gems:                500,
		UnlockedCharacters:  []int{1},
		SelectedCharacterID: 1,
		Upgrades:            map[string]int{"hp": 0, "speed": 0, "magnet": 0},
		LoginBonus:          LoginBonus{},
		Missions:            Missions{Daily: []DailyMission{}},
		Stats:               Stats{},
		CharacterData:       map[string]CharacterProgress{},
		PityCounter:         0,
		BattlePass:          BattlePass{Claimed: []int{}},
		TutorialDone:        false,
		Notifications:       Notifications{},
		EconomyLedger:       []LedgerEntry{},
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt64(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Sanitize normalizes an arbitrary snapshot into a well-formed one. It is total
// and idempotent: Sanitize(Sanitize(x)) == Sanitize(x), and a zero or garbage
// input still yields a playable state. Every load and every save route through
// it, which is the defense against adversarial client payloads.
func Sanitize(raw *PlayerState) *PlayerState {
	s := Default()
	if raw == nil {
		return s
	}

	s.SchemaVersion = CurrentSchemaVersion
	s.Level = clampInt(orInt(raw.Level, 1), 1, 999)
	s.Exp = clampInt64(raw.Exp, 0, 1e9)
	s.Credits = clampInt64(raw.Credits, 0, 1e12)
	s.Gems = clampInt64(raw.Gems, 0, 1e9)

	// Unlocked characters: deduped, clamped, never empty.
	seen := map[int]bool{}
	chars := []int{}
	for _, v := range raw.UnlockedCharacters {
		id := clampInt(v, 1, 999)
		if !seen[id] {
			seen[id] = true
			chars = append(chars, id)
		}
	}
	if len(chars) == 0 {
		chars = []int{1}
	}
	s.UnlockedCharacters = chars

	s.SelectedCharacterID = clampInt(orInt(raw.SelectedCharacterID, 1), 1, 999)
	if !containsInt(s.UnlockedCharacters, s.SelectedCharacterID) {
		s.SelectedCharacterID = s.UnlockedCharacters[0]
	}

	for _, key := range upgradeKeys {
		s.Upgrades[key] = clampInt(raw.Upgrades[key], 0, 999)
	}

	s.LoginBonus.LastLoginDate = raw.LoginBonus.LastLoginDate
	s.LoginBonus.Streak = clampInt(raw.LoginBonus.Streak, 0, 100000)

	s.Missions.LastResetDate = raw.Missions.LastResetDate
	daily := []DailyMission{}
	for _, item := range raw.Missions.Daily {
		if item.ID == "" {
			continue
		}
		daily = append(daily, DailyMission{
			ID:       item.ID,
			Progress: clampInt(item.Progress, 0, 1e9),
			Claimed:  item.Claimed,
		})
	}
	s.Missions.Daily = daily

	s.Stats.TotalMatches = clampInt(raw.Stats.TotalMatches, 0, 1e9)
	s.Stats.TotalKills = clampInt(raw.Stats.TotalKills, 0, 1e9)
	s.Stats.TotalNodesCaptured = clampInt(raw.Stats.TotalNodesCaptured, 0, 1e9)
	s.Stats.BestDomination = clampFloat(raw.Stats.BestDomination, 0, 100)
	s.Stats.BestKills = clampInt(raw.Stats.BestKills, 0, 1e6)
	s.Stats.WinCount = clampInt(raw.Stats.WinCount, 0, s.Stats.TotalMatches)

	for key, cd := range raw.CharacterData {
		if key == "" {
			continue
		}
		s.CharacterData[key] = CharacterProgress{
			Level:     clampInt(orInt(cd.Level, 1), 1, 999),
			Exp:       clampInt(cd.Exp, 0, 1e9),
			DupeCount: clampInt(cd.DupeCount, 0, 1e6),
			Uncap:     clampInt(cd.Uncap, 0, 5),
		}
	}

	s.PityCounter = clampInt(raw.PityCounter, 0, 60)

	s.BattlePass.Level = clampInt(raw.BattlePass.Level, 0, battlePassMaxLevel)
	s.BattlePass.Exp = clampInt(raw.BattlePass.Exp, 0, expPerBattlePassLevel-1)
	seenBP := map[int]bool{}
	claimed := []int{}
	for _, v := range raw.BattlePass.Claimed {
		lvl := clampInt(v, 1, battlePassMaxLevel)
		if !seenBP[lvl] {
			seenBP[lvl] = true
			claimed = append(claimed, lvl)
		}
	}
	s.BattlePass.Claimed = claimed

	s.TutorialDone = raw.TutorialDone
	s.Notifications = Notifications{
		UnclaimedMissions: clampInt(raw.Notifications.UnclaimedMissions, 0, 1000),
		LoginBonusPending: raw.Notifications.LoginBonusPending,
	}

	ledger := raw.EconomyLedger
	if len(ledger) > ledgerMaxEntries {
		ledger = ledger[len(ledger)-ledgerMaxEntries:]
	}
	s.EconomyLedger = append(s.EconomyLedger, ledger...)

	return s
}

// orInt treats a missing (zero) value as the given default. Zero is not a
// legal value for any field this is applied to.
func orInt(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

func containsInt(values []int, target int) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

// Decode parses a stored or uploaded snapshot and sanitizes it. Parse errors
// are not fatal: whatever decoded before the error is kept, the rest falls
// back to defaults.
func Decode(data []byte) *PlayerState {
	var raw PlayerState
	if len(data) > 0 {
		_ = json.Unmarshal(data, &raw)
	}
	return Sanitize(&raw)
}

// Clone deep-copies a state via a JSON round trip. Used to capture the
// "before" snapshot ahead of a mutation.
func (s *PlayerState) Clone() *PlayerState {
	data, err := json.Marshal(s)
	if err != nil {
		return Default()
	}
	var out PlayerState
	if err := json.Unmarshal(data, &out); err != nil {
		return Default()
	}
	return Sanitize(&out)
}

// Compact returns the sanitized view sent back to clients.
func (s *PlayerState) Compact() *PlayerState {
	return Sanitize(s)
}

// DayKey formats a time as the UTC day bucket used for missions, login bonus
// and rollups.
func DayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// PrevDayKey returns the day key for the UTC day before the given one.
// A malformed input yields an empty string, which never matches a stored date.
func PrevDayKey(dayKey string) string {
	t, err := time.Parse("2006-01-02", dayKey)
	if err != nil {
		return ""
	}
	return t.AddDate(0, 0, -1).Format("2006-01-02")
}
