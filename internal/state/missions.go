package state

import "hash/fnv"

// missionRand is the xorshift32 generator behind daily mission rolls. Seeding
// it from a stable hash of (playerId, dayKey) makes the selection reproducible
// so a replayed or re-regenerated day always yields the same mission set.
type missionRand struct {
	x uint32
}

func newMissionRand(playerID, dayKey string) *missionRand {
	h := fnv.New32a()
	h.Write([]byte(playerID + ":" + dayKey + ":missions"))
	return &missionRand{x: h.Sum32()}
}

func (r *missionRand) next() float64 {
	r.x ^= r.x << 13
	r.x ^= r.x >> 17
	r.x ^= r.x << 5
	return float64(r.x%100000) / 100000
}

// RollDailyMissions picks the daily mission subset from the definition pool
// without repetition, deterministically for a given (playerID, dayKey).
func RollDailyMissions(playerID, dayKey string) []DailyMission {
	rand := newMissionRand(playerID, dayKey)
	pool := make([]MissionDef, len(MissionDefinitions))
	copy(pool, MissionDefinitions)

	selected := []DailyMission{}
	for len(selected) < dailyMissionCount && len(pool) > 0 {
		idx := int(rand.next() * float64(len(pool)))
		def := pool[idx]
		pool = append(pool[:idx], pool[idx+1:]...)
		selected = append(selected, DailyMission{ID: def.ID})
	}
	return selected
}

// EnsureDailyMissions regenerates the daily set when the day has rolled over.
// Reports whether the state changed.
func (s *PlayerState) EnsureDailyMissions(playerID, dayKey string) bool {
	if s.Missions.LastResetDate == dayKey && len(s.Missions.Daily) > 0 {
		return false
	}
	s.Missions.Daily = RollDailyMissions(playerID, dayKey)
	s.Missions.LastResetDate = dayKey
	return true
}

func findMissionDef(id string) *MissionDef {
	for i := range MissionDefinitions {
		if MissionDefinitions[i].ID == id {
			return &MissionDefinitions[i]
		}
	}
	return nil
}

// MissionClaimResult reports a successful mission reward claim.
type MissionClaimResult struct {
	MissionID    string     `json:"missionId"`
	RewardType   RewardType `json:"rewardType"`
	RewardAmount int64      `json:"rewardAmount"`
}

// ClaimMissionReward pays out a completed, unclaimed daily mission. Fails with
// a coded rule error and leaves the state untouched otherwise.
func (s *PlayerState) ClaimMissionReward(playerID, dayKey, missionID string) (*MissionClaimResult, error) {
	s.EnsureDailyMissions(playerID, dayKey)

	var mission *DailyMission
	for i := range s.Missions.Daily {
		if s.Missions.Daily[i].ID == missionID {
			mission = &s.Missions.Daily[i]
			break
		}
	}
	if mission == nil || mission.Claimed {
		return nil, ruleError("mission_not_claimable")
	}

	def := findMissionDef(missionID)
	if def == nil {
		return nil, ruleError("mission_not_found")
	}
	if mission.Progress < def.Target {
		return nil, ruleError("mission_not_completed")
	}

	mission.Claimed = true
	meta := map[string]any{"missionId": def.ID}
	if def.RewardType == RewardCredits {
		s.AddCredits(def.RewardAmount, "mission_reward", meta)
	} else {
		s.AddGems(def.RewardAmount, "mission_reward", meta)
	}

	return &MissionClaimResult{
		MissionID:    def.ID,
		RewardType:   def.RewardType,
		RewardAmount: def.RewardAmount,
	}, nil
}

// FeedMatchIntoMissions advances daily mission progress from one match result.
// Claimed missions stop accumulating.
func (s *PlayerState) FeedMatchIntoMissions(playerID, dayKey string, data MatchData) {
	s.EnsureDailyMissions(playerID, dayKey)

	kills := clampInt(data.Kills, 0, 2000)
	dom := clampFloat(data.DominationPercent, 0, 100)
	nodes := clampInt(data.NodesCaptured, 0, 1000)

	for i := range s.Missions.Daily {
		mission := &s.Missions.Daily[i]
		def := findMissionDef(mission.ID)
		if def == nil || mission.Claimed {
			continue
		}
		switch def.Type {
		case "matches":
			mission.Progress++
		case "kills":
			mission.Progress += kills
		case "bestDomination":
			if int(dom) > mission.Progress {
				mission.Progress = int(dom)
			}
		case "bestKillsSingle":
			if kills > mission.Progress {
				mission.Progress = kills
			}
		case "nodes":
			mission.Progress += nodes
		case "wins":
			if dom > winDominationThreshold {
				mission.Progress++
			}
		}
	}
}
