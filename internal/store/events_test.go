package store

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/voidrush/backend/internal/models"
	"github.com/voidrush/backend/internal/state"
)

func TestSortLeaderboardTiebreaks(t *testing.T) {
	entries := []models.LeaderboardEntry{
		{PlayerID: "player_low00000", SeasonScore: 100},
		{PlayerID: "player_kills000", SeasonScore: 500, TotalKills: 40},
		{PlayerID: "player_dom00000", SeasonScore: 500, TotalKills: 40, BestDomination: 70},
		{PlayerID: "player_top00000", SeasonScore: 900},
	}

	sortLeaderboard(entries)

	order := make([]string, len(entries))
	for i, e := range entries {
		order[i] = e.PlayerID
	}
	assert.Equal(t, []string{
		"player_top00000",
		"player_dom00000", // wins the domination tiebreak at equal score+kills
		"player_kills000",
		"player_low00000",
	}, order)
}

func TestArchiveScoreMatchesLiveScore(t *testing.T) {
	// The archive path aggregates raw match events; the live path reads
	// accumulated stats. Both must produce identical scores for identical
	// match history.
	s := state.Default()
	matches := []state.MatchData{
		{DominationPercent: 52, Kills: 8, NodesCaptured: 2},
		{DominationPercent: 30, Kills: 3, NodesCaptured: 0},
		{DominationPercent: 71.5, Kills: 12, NodesCaptured: 4},
	}

	weightedKills := 0
	bestDom := 0.0
	wins := 0
	for _, m := range matches {
		s.ApplyMatchResult(m)
		weightedKills += m.Kills + m.NodesCaptured*2
		if m.DominationPercent > bestDom {
			bestDom = m.DominationPercent
		}
		if m.DominationPercent > 35 {
			wins++
		}
	}

	assert.Equal(t, s.SeasonScore(), state.SeasonScoreFrom(bestDom, weightedKills, wins))
}
