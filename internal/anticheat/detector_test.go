package anticheat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voidrush/backend/internal/state"
)

func snapshotPair(creditsDelta, gemsDelta int64) (*state.PlayerState, *state.PlayerState) {
	before := state.Default()
	after := before.Clone()
	after.Credits += creditsDelta
	after.Gems += gemsDelta
	return before, after
}

func ruleIDs(flags []Flag) []string {
	ids := make([]string, 0, len(flags))
	for _, f := range flags {
		ids = append(ids, f.RuleID)
	}
	return ids
}

func TestDetectNoFlagsOnModestDeltas(t *testing.T) {
	before, after := snapshotPair(5000, 100)
	flags := Detect(Input{EventType: "match_result", Before: before, After: after})
	assert.Empty(t, flags)
}

func TestDetectNilSnapshots(t *testing.T) {
	assert.Empty(t, Detect(Input{EventType: "match_result"}))
}

func TestDetectCreditsSpike(t *testing.T) {
	before, after := snapshotPair(150000, 0)
	flags := Detect(Input{EventType: "match_result", Before: before, After: after})
	require.Len(t, flags, 1)
	assert.Equal(t, "credits_spike", flags[0].RuleID)
	assert.Equal(t, SeverityWarn, flags[0].Severity)
	// round(150000/4000) = 38
	assert.Equal(t, 38, flags[0].Score)

	// Critical spikes are floored at the blocking score.
	before, after = snapshotPair(250000, 0)
	flags = Detect(Input{EventType: "match_result", Before: before, After: after})
	require.Len(t, flags, 1)
	assert.Equal(t, SeverityCritical, flags[0].Severity)
	assert.Equal(t, 90, flags[0].Score)
	assert.True(t, ShouldBlock(flags))
}

func TestDetectGemsSpike(t *testing.T) {
	before, after := snapshotPair(0, 4000)
	flags := Detect(Input{EventType: "match_result", Before: before, After: after})
	require.Len(t, flags, 1)
	assert.Equal(t, "gems_spike", flags[0].RuleID)
	assert.Equal(t, SeverityWarn, flags[0].Severity)

	before, after = snapshotPair(0, 7000)
	flags = Detect(Input{EventType: "match_result", Before: before, After: after})
	require.Len(t, flags, 1)
	assert.Equal(t, SeverityCritical, flags[0].Severity)
}

func TestDetectSeasonScoreSpike(t *testing.T) {
	before := state.Default()
	after := before.Clone()
	after.Stats.TotalMatches = 100
	after.Stats.WinCount = 80 // +8000 score

	flags := Detect(Input{EventType: "match_result", Before: before, After: after})
	require.Len(t, flags, 1)
	assert.Equal(t, "season_score_spike", flags[0].RuleID)
	assert.Equal(t, SeverityWarn, flags[0].Severity)
}

func TestDetectMatchPayloadRules(t *testing.T) {
	before, after := snapshotPair(0, 0)

	flags := Detect(Input{
		EventType: "match_result",
		MatchData: &state.MatchData{Kills: 100, NodesCaptured: 25, DominationPercent: 120},
		Before:    before,
		After:     after,
	})

	ids := ruleIDs(flags)
	assert.Contains(t, ids, "match_high_kills")
	assert.Contains(t, ids, "match_high_nodes")
	assert.Contains(t, ids, "match_domination_out_of_range")

	for _, f := range flags {
		switch f.RuleID {
		case "match_high_kills":
			assert.Equal(t, SeverityWarn, f.Severity)
			assert.Equal(t, 100, f.Score)
		case "match_high_nodes":
			assert.Equal(t, SeverityWarn, f.Severity)
			assert.Equal(t, 50, f.Score)
		case "match_domination_out_of_range":
			assert.Equal(t, SeverityCritical, f.Severity)
			assert.Equal(t, 100, f.Score)
		}
	}
}

func TestDetectMatchKillsCritical(t *testing.T) {
	before, after := snapshotPair(0, 0)
	flags := Detect(Input{
		EventType: "match_result",
		MatchData: &state.MatchData{Kills: 150, DominationPercent: 50},
		Before:    before,
		After:     after,
	})
	require.Len(t, flags, 1)
	assert.Equal(t, SeverityCritical, flags[0].Severity)
}

func TestDetectNegativeDomination(t *testing.T) {
	before, after := snapshotPair(0, 0)
	flags := Detect(Input{
		EventType: "match_result",
		MatchData: &state.MatchData{DominationPercent: -1},
		Before:    before,
		After:     after,
	})
	require.Len(t, flags, 1)
	assert.Equal(t, "match_domination_out_of_range", flags[0].RuleID)
	assert.Equal(t, SeverityCritical, flags[0].Severity)
}

func TestDetectSnapshotLargeJump(t *testing.T) {
	before, after := snapshotPair(60000, 0)
	flags := Detect(Input{EventType: "snapshot_upload", Before: before, After: after})
	require.Len(t, flags, 1)
	assert.Equal(t, "snapshot_large_jump", flags[0].RuleID)
	assert.Equal(t, SeverityWarn, flags[0].Severity)
	assert.Equal(t, 75, flags[0].Score)

	// The same delta on a non-snapshot event does not trip the rule.
	flags = Detect(Input{EventType: "match_result", Before: before, After: after})
	assert.Empty(t, flags)
}

func TestSummarize(t *testing.T) {
	assert.Equal(t, Summary{Flagged: false, Count: 0, HighestSeverity: "none", HighestScore: 0}, Summarize(nil))

	summary := Summarize([]Flag{
		{Severity: SeverityWarn, Score: 40},
		{Severity: SeverityCritical, Score: 95},
		{Severity: SeverityWarn, Score: 60},
	})
	assert.True(t, summary.Flagged)
	assert.Equal(t, 3, summary.Count)
	assert.Equal(t, SeverityCritical, summary.HighestSeverity)
	assert.Equal(t, 95, summary.HighestScore)
}

func TestShouldBlockPerFlag(t *testing.T) {
	// Critical with score 90+ blocks.
	assert.True(t, ShouldBlock([]Flag{{Severity: SeverityCritical, Score: 90}}))
	// Critical below the score bar does not.
	assert.False(t, ShouldBlock([]Flag{{Severity: SeverityCritical, Score: 89}}))
	// High score alone without critical severity does not.
	assert.False(t, ShouldBlock([]Flag{{Severity: SeverityWarn, Score: 100}}))
	// The decision is per flag, never cumulative across flags.
	assert.False(t, ShouldBlock([]Flag{
		{Severity: SeverityWarn, Score: 100},
		{Severity: SeverityCritical, Score: 50},
	}))
}

func TestBlockedSnapshotUploadScenario(t *testing.T) {
	before, after := snapshotPair(250000, 0)
	flags := Detect(Input{EventType: "snapshot_upload", Before: before, After: after})

	// 250k credits trips both the generic credits rule (critical, 100) and
	// the snapshot jump rule (warn, 75); the critical one decides.
	ids := ruleIDs(flags)
	assert.Contains(t, ids, "credits_spike")
	assert.Contains(t, ids, "snapshot_large_jump")
	assert.True(t, ShouldBlock(flags))
}
