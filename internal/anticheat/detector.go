// Package anticheat screens progression mutations by comparing before/after
// state snapshots and the raw client payload against independent threshold
// rules. Each rule emits at most one severity-scored flag; a request is only
// blocked outright on a high-confidence critical flag.
package anticheat

import (
	"math"

	"github.com/voidrush/backend/internal/state"
)

// Severity levels, ordered none < warn < critical.
const (
	SeverityWarn     = "warn"
	SeverityCritical = "critical"
)

// blockScoreThreshold is the minimum score at which a critical flag rejects
// the mutation outright.
const blockScoreThreshold = 90

// Flag is one triggered anomaly rule.
type Flag struct {
	EventType string         `json:"eventType"`
	RuleID    string         `json:"ruleId"`
	Severity  string         `json:"severity"`
	Score     int            `json:"score"`
	Detail    map[string]any `json:"detail"`
}

// Input carries everything a detection run looks at.
type Input struct {
	EventType string
	MatchData *state.MatchData
	Before    *state.PlayerState
	After     *state.PlayerState
}

func clampScore(v int) int {
	if v < 1 {
		return 1
	}
	if v > 100 {
		return 100
	}
	return v
}

// spikeScore scales a delta into the 1..100 band. Critical spikes are floored
// at the block threshold so a delta past the critical bar always blocks,
// regardless of how the divisor rounds.
func spikeScore(delta int64, divisor float64, severity string) int {
	score := int(math.Round(float64(delta) / divisor))
	if severity == SeverityCritical && score < blockScoreThreshold {
		score = blockScoreThreshold
	}
	return clampScore(score)
}

// Detect runs every rule over the snapshots and payload. It is a pure
// function of its input; persistence of the flags is the caller's concern.
func Detect(in Input) []Flag {
	flags := []Flag{}
	if in.Before == nil || in.After == nil {
		return flags
	}

	creditsDelta := in.After.Credits - in.Before.Credits
	gemsDelta := in.After.Gems - in.Before.Gems
	scoreDelta := in.After.SeasonScore() - in.Before.SeasonScore()

	if creditsDelta > 100000 {
		severity := SeverityWarn
		if creditsDelta > 200000 {
			severity = SeverityCritical
		}
		flags = append(flags, Flag{
			EventType: in.EventType,
			RuleID:    "credits_spike",
			Severity:  severity,
			Score:     spikeScore(creditsDelta, 4000, severity),
			Detail:    map[string]any{"creditsDelta": creditsDelta},
		})
	}

	if gemsDelta > 3000 {
		severity := SeverityWarn
		if gemsDelta > 6000 {
			severity = SeverityCritical
		}
		flags = append(flags, Flag{
			EventType: in.EventType,
			RuleID:    "gems_spike",
			Severity:  severity,
			Score:     spikeScore(gemsDelta, 120, severity),
			Detail:    map[string]any{"gemsDelta": gemsDelta},
		})
	}

	if scoreDelta > 6000 {
		severity := SeverityWarn
		if scoreDelta > 12000 {
			severity = SeverityCritical
		}
		flags = append(flags, Flag{
			EventType: in.EventType,
			RuleID:    "season_score_spike",
			Severity:  severity,
			Score:     spikeScore(scoreDelta, 150, severity),
			Detail:    map[string]any{"scoreDelta": scoreDelta},
		})
	}

	if in.EventType == "match_result" && in.MatchData != nil {
		rawKills := in.MatchData.Kills
		rawNodes := in.MatchData.NodesCaptured
		rawDom := in.MatchData.DominationPercent

		if rawKills > 80 {
			severity := SeverityWarn
			if rawKills > 120 {
				severity = SeverityCritical
			}
			flags = append(flags, Flag{
				EventType: in.EventType,
				RuleID:    "match_high_kills",
				Severity:  severity,
				Score:     clampScore(rawKills),
				Detail:    map[string]any{"rawKills": rawKills},
			})
		}

		if rawNodes > 20 {
			flags = append(flags, Flag{
				EventType: in.EventType,
				RuleID:    "match_high_nodes",
				Severity:  SeverityWarn,
				Score:     clampScore(rawNodes * 2),
				Detail:    map[string]any{"rawNodes": rawNodes},
			})
		}

		if rawDom > 100 || rawDom < 0 {
			flags = append(flags, Flag{
				EventType: in.EventType,
				RuleID:    "match_domination_out_of_range",
				Severity:  SeverityCritical,
				Score:     100,
				Detail:    map[string]any{"rawDom": rawDom},
			})
		}
	}

	if in.EventType == "snapshot_upload" {
		if creditsDelta > 50000 || gemsDelta > 1500 || scoreDelta > 3000 {
			flags = append(flags, Flag{
				EventType: in.EventType,
				RuleID:    "snapshot_large_jump",
				Severity:  SeverityWarn,
				Score:     75,
				Detail: map[string]any{
					"creditsDelta": creditsDelta,
					"gemsDelta":    gemsDelta,
					"scoreDelta":   scoreDelta,
				},
			})
		}
	}

	return flags
}

// Summary reduces a flag list for the response envelope.
type Summary struct {
	Flagged         bool   `json:"flagged"`
	Count           int    `json:"count"`
	HighestSeverity string `json:"highestSeverity"`
	HighestScore    int    `json:"highestScore"`
}

var severityRank = map[string]int{"none": 0, SeverityWarn: 1, SeverityCritical: 2}

// Summarize reports the worst severity and score across all flags.
func Summarize(flags []Flag) Summary {
	if len(flags) == 0 {
		return Summary{Flagged: false, Count: 0, HighestSeverity: "none", HighestScore: 0}
	}

	highest := "none"
	highestScore := 0
	for _, f := range flags {
		sev := f.Severity
		if sev == "" {
			sev = SeverityWarn
		}
		if severityRank[sev] > severityRank[highest] {
			highest = sev
		}
		score := int(math.Min(math.Max(float64(f.Score), 0), 100))
		if score > highestScore {
			highestScore = score
		}
	}

	return Summary{Flagged: true, Count: len(flags), HighestSeverity: highest, HighestScore: highestScore}
}

// ShouldBlock decides whether the mutation is rejected. Flags are judged
// independently: only a critical flag scoring 90 or higher blocks; several
// moderate warns never combine into a block.
func ShouldBlock(flags []Flag) bool {
	for _, f := range flags {
		if f.Severity == SeverityCritical && f.Score >= blockScoreThreshold {
			return true
		}
	}
	return false
}
