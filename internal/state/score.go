package state

import "math"

// SeasonScore is the canonical leaderboard ranking key.
func (s *PlayerState) SeasonScore() int64 {
	return SeasonScoreFrom(s.Stats.BestDomination, s.Stats.TotalKills, s.Stats.WinCount)
}

// SeasonScoreFrom computes the same score from raw aggregates. The live
// player-state path and the match-event rollup path both rank with this exact
// weighting; they must never diverge.
func SeasonScoreFrom(bestDomination float64, totalKills, winCount int) int64 {
	dominationScore := int64(math.Round(bestDomination * 10))
	killsScore := int64(totalKills) * 2
	winScore := int64(winCount) * 100
	return dominationScore + killsScore + winScore
}
