package state

import "testing"

func TestApplyMatchResultFormulas(t *testing.T) {
	s := Default()

	result := s.ApplyMatchResult(MatchData{
		DominationPercent: 50,
		Kills:             10,
		NodesCaptured:     2,
	})

	// weightedKills = 10 + 2*2 = 14
	if result.WeightedKills != 14 {
		t.Errorf("weightedKills = %d, want 14", result.WeightedKills)
	}
	// credits = floor(50*10) + 14*50 = 1200
	if result.CreditsEarned != 1200 {
		t.Errorf("creditsEarned = %d, want 1200", result.CreditsEarned)
	}
	// exp = floor(50*5) + 14*20 = 530
	if result.ExpEarned != 530 {
		t.Errorf("expEarned = %d, want 530", result.ExpEarned)
	}

	if s.Credits != 2000+1200 {
		t.Errorf("credits = %d, want 3200", s.Credits)
	}
	if s.Stats.TotalMatches != 1 {
		t.Errorf("totalMatches = %d, want 1", s.Stats.TotalMatches)
	}
	if s.Stats.TotalKills != 14 {
		t.Errorf("totalKills = %d, want weighted 14", s.Stats.TotalKills)
	}
	if s.Stats.WinCount != 1 {
		t.Errorf("winCount = %d, want 1 (dom 50 > 35)", s.Stats.WinCount)
	}
	if s.Stats.BestDomination != 50 {
		t.Errorf("bestDomination = %v, want 50", s.Stats.BestDomination)
	}
}

func TestApplyMatchResultLoss(t *testing.T) {
	s := Default()
	s.ApplyMatchResult(MatchData{DominationPercent: 35, Kills: 1})
	if s.Stats.WinCount != 0 {
		t.Errorf("winCount = %d, want 0 (dom 35 is not a win)", s.Stats.WinCount)
	}
}

func TestApplyMatchResultClampsInput(t *testing.T) {
	s := Default()
	result := s.ApplyMatchResult(MatchData{
		DominationPercent: 900,
		Kills:             1 << 20,
		NodesCaptured:     -5,
	})

	if result.DominationPercent != 100 {
		t.Errorf("domination = %v, want clamped 100", result.DominationPercent)
	}
	if result.Kills != 2000 {
		t.Errorf("kills = %d, want clamped 2000", result.Kills)
	}
	if result.NodesCaptured != 0 {
		t.Errorf("nodes = %d, want clamped 0", result.NodesCaptured)
	}
}

func TestSeasonScore(t *testing.T) {
	s := Default()
	s.Stats.BestDomination = 62.4
	s.Stats.TotalKills = 30
	s.Stats.WinCount = 3

	// round(62.4*10) + 30*2 + 3*100 = 624 + 60 + 300
	if got := s.SeasonScore(); got != 984 {
		t.Errorf("seasonScore = %d, want 984", got)
	}
	if got := SeasonScoreFrom(62.4, 30, 3); got != 984 {
		t.Errorf("SeasonScoreFrom = %d, want 984", got)
	}
}
