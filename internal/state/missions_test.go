package state

import (
	"reflect"
	"testing"
)

func TestRollDailyMissionsDeterministic(t *testing.T) {
	a := RollDailyMissions("player_alpha0001", "2026-08-30")
	b := RollDailyMissions("player_alpha0001", "2026-08-30")
	if !reflect.DeepEqual(a, b) {
		t.Errorf("same player+day rolled different sets:\n a=%v\n b=%v", a, b)
	}

	if len(a) != dailyMissionCount {
		t.Fatalf("rolled %d missions, want %d", len(a), dailyMissionCount)
	}
	seen := map[string]bool{}
	for _, m := range a {
		if seen[m.ID] {
			t.Errorf("mission %q rolled twice", m.ID)
		}
		seen[m.ID] = true
		if findMissionDef(m.ID) == nil {
			t.Errorf("mission %q not in the definition pool", m.ID)
		}
	}
}

func TestRollDailyMissionsVariesByDayAndPlayer(t *testing.T) {
	base := RollDailyMissions("player_alpha0001", "2026-08-30")

	differs := false
	for _, day := range []string{"2026-08-31", "2026-09-01", "2026-09-02", "2026-09-03", "2026-09-04"} {
		if !reflect.DeepEqual(base, RollDailyMissions("player_alpha0001", day)) {
			differs = true
			break
		}
	}
	if !differs {
		t.Error("five consecutive days all rolled the identical set")
	}
}

func TestEnsureDailyMissionsRegeneratesOncePerDay(t *testing.T) {
	s := Default()

	if !s.EnsureDailyMissions("player_alpha0001", "2026-08-30") {
		t.Fatal("first ensure should regenerate")
	}
	s.Missions.Daily[0].Progress = 99

	if s.EnsureDailyMissions("player_alpha0001", "2026-08-30") {
		t.Error("same-day ensure should be a no-op")
	}
	if s.Missions.Daily[0].Progress != 99 {
		t.Error("same-day ensure wiped progress")
	}

	if !s.EnsureDailyMissions("player_alpha0001", "2026-08-31") {
		t.Error("next-day ensure should regenerate")
	}
	if s.Missions.Daily[0].Progress != 0 {
		t.Error("day rollover kept stale progress")
	}
}

func TestClaimMissionRewardFlow(t *testing.T) {
	s := Default()
	s.EnsureDailyMissions("player_alpha0001", "2026-08-30")

	missionID := s.Missions.Daily[0].ID
	def := findMissionDef(missionID)

	// Not completed yet.
	if _, err := s.ClaimMissionReward("player_alpha0001", "2026-08-30", missionID); err == nil {
		t.Fatal("claim of incomplete mission succeeded")
	} else if re, ok := err.(*RuleError); !ok || re.Code != "mission_not_completed" {
		t.Errorf("error = %v, want mission_not_completed", err)
	}

	s.Missions.Daily[0].Progress = def.Target
	result, err := s.ClaimMissionReward("player_alpha0001", "2026-08-30", missionID)
	if err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	if result.RewardAmount != def.RewardAmount || result.RewardType != def.RewardType {
		t.Errorf("result = %+v, want reward %d %s", result, def.RewardAmount, def.RewardType)
	}

	// Second claim is refused.
	if _, err := s.ClaimMissionReward("player_alpha0001", "2026-08-30", missionID); err == nil {
		t.Fatal("double claim succeeded")
	} else if re, ok := err.(*RuleError); !ok || re.Code != "mission_not_claimable" {
		t.Errorf("error = %v, want mission_not_claimable", err)
	}
}

func TestClaimUnknownMission(t *testing.T) {
	s := Default()
	_, err := s.ClaimMissionReward("player_alpha0001", "2026-08-30", "no_such_mission")
	if re, ok := err.(*RuleError); !ok || re.Code != "mission_not_claimable" {
		t.Errorf("error = %v, want mission_not_claimable", err)
	}
}

func TestFeedMatchIntoMissions(t *testing.T) {
	s := Default()
	s.EnsureDailyMissions("player_alpha0001", "2026-08-30")

	// Force a known mission set so every progress rule is exercised.
	s.Missions.Daily = []DailyMission{
		{ID: "play_3"}, {ID: "kill_10"}, {ID: "dom_50"},
		{ID: "kill_5_1"}, {ID: "node_2"}, {ID: "win_1"},
	}

	s.FeedMatchIntoMissions("player_alpha0001", "2026-08-30", MatchData{
		DominationPercent: 62.9,
		Kills:             7,
		NodesCaptured:     3,
	})

	want := map[string]int{
		"play_3":   1,
		"kill_10":  7,
		"dom_50":   62, // best-of, truncated
		"kill_5_1": 7,
		"node_2":   3,
		"win_1":    1, // dom > 35
	}
	for _, m := range s.Missions.Daily {
		if m.Progress != want[m.ID] {
			t.Errorf("%s progress = %d, want %d", m.ID, m.Progress, want[m.ID])
		}
	}

	// Claimed missions stop accumulating.
	s.Missions.Daily[1].Claimed = true
	s.FeedMatchIntoMissions("player_alpha0001", "2026-08-30", MatchData{Kills: 5})
	if s.Missions.Daily[1].Progress != 7 {
		t.Errorf("claimed mission kept accumulating: %d", s.Missions.Daily[1].Progress)
	}
}
