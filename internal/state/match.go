package state

import "math"

// MatchData is the client-reported outcome of one match.
type MatchData struct {
	DominationPercent float64 `json:"dominationPercent"`
	Kills             int     `json:"kills"`
	NodesCaptured     int     `json:"nodesCaptured"`
}

// MatchResult is the server-computed economy effect of a match.
type MatchResult struct {
	DominationPercent float64 `json:"dominationPercent"`
	Kills             int     `json:"kills"`
	WeightedKills     int     `json:"weightedKills"`
	NodesCaptured     int     `json:"nodesCaptured"`
	CreditsEarned     int64   `json:"creditsEarned"`
	ExpEarned         int64   `json:"expEarned"`
}

// ApplyMatchResult clamps the reported numbers to sane maximums, grants the
// derived credits and exp, and updates every aggregate stat counter. Captured
// nodes count double toward kills. A match with domination above 35 counts as
// a win.
func (s *PlayerState) ApplyMatchResult(data MatchData) MatchResult {
	dom := clampFloat(data.DominationPercent, 0, 100)
	kills := clampInt(data.Kills, 0, 2000)
	nodes := clampInt(data.NodesCaptured, 0, 1000)
	weightedKills := kills + nodes*2

	creditsEarned := int64(math.Floor(dom*10)) + int64(weightedKills)*50
	expEarned := int64(math.Floor(dom*5)) + int64(weightedKills)*20

	meta := map[string]any{
		"domination": dom,
		"kills":      weightedKills,
		"nodes":      nodes,
	}
	s.AddCredits(creditsEarned, "match_result", meta)
	s.AddMetaExp(expEarned, "match_result", meta)

	s.Stats.TotalMatches++
	s.Stats.TotalKills += weightedKills
	s.Stats.TotalNodesCaptured += nodes
	if dom > s.Stats.BestDomination {
		s.Stats.BestDomination = dom
	}
	if weightedKills > s.Stats.BestKills {
		s.Stats.BestKills = weightedKills
	}
	if dom > winDominationThreshold {
		s.Stats.WinCount++
	}

	return MatchResult{
		DominationPercent: dom,
		Kills:             kills,
		WeightedKills:     weightedKills,
		NodesCaptured:     nodes,
		CreditsEarned:     creditsEarned,
		ExpEarned:         expEarned,
	}
}
