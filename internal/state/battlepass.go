package state

// BattlePassExpResult reports a battle pass exp grant.
type BattlePassExpResult struct {
	Amount      int64 `json:"amount"`
	LevelBefore int   `json:"levelBefore"`
	LevelAfter  int   `json:"levelAfter"`
	ExpAfter    int   `json:"expAfter"`
}

// AddBattlePassExp grants pass exp with the same carry-over loop as meta
// leveling, except the level caps at 30 and leftover exp clamps below one
// level's worth at the cap.
func (s *PlayerState) AddBattlePassExp(amount int64, source string, meta map[string]any) BattlePassExpResult {
	safeAmount := clampInt64(amount, 0, 5000)
	beforeExp := s.BattlePass.Exp
	beforeLevel := s.BattlePass.Level

	s.BattlePass.Exp += int(safeAmount)
	for s.BattlePass.Exp >= expPerBattlePassLevel && s.BattlePass.Level < battlePassMaxLevel {
		s.BattlePass.Exp -= expPerBattlePassLevel
		s.BattlePass.Level++
	}
	if s.BattlePass.Level >= battlePassMaxLevel && s.BattlePass.Exp > expPerBattlePassLevel-1 {
		s.BattlePass.Exp = expPerBattlePassLevel - 1
	}

	merged := map[string]any{}
	for k, v := range meta {
		merged[k] = v
	}
	merged["levelBefore"] = beforeLevel
	merged["levelAfter"] = s.BattlePass.Level
	s.appendLedger(LedgerEntry{
		Category: "battlepass_exp",
		Source:   source,
		Amount:   safeAmount,
		Before:   int64(beforeExp),
		After:    int64(s.BattlePass.Exp),
		Meta:     merged,
	})

	return BattlePassExpResult{
		Amount:      safeAmount,
		LevelBefore: beforeLevel,
		LevelAfter:  s.BattlePass.Level,
		ExpAfter:    s.BattlePass.Exp,
	}
}

// BattlePassClaimResult reports a successful level reward claim.
type BattlePassClaimResult struct {
	Level  int              `json:"level"`
	Reward BattlePassReward `json:"reward"`
}

// ClaimBattlePassReward pays out the reward for an unlocked, unclaimed level.
func (s *PlayerState) ClaimBattlePassReward(level int) (*BattlePassClaimResult, error) {
	safeLevel := clampInt(level, 1, battlePassMaxLevel)
	if s.BattlePass.Level < safeLevel {
		return nil, ruleError("battlepass_level_locked")
	}
	if containsInt(s.BattlePass.Claimed, safeLevel) {
		return nil, ruleError("battlepass_already_claimed")
	}

	var reward *BattlePassReward
	for i := range BattlePassRewards {
		if BattlePassRewards[i].Level == safeLevel {
			reward = &BattlePassRewards[i]
			break
		}
	}
	if reward == nil {
		return nil, ruleError("battlepass_reward_not_found")
	}

	meta := map[string]any{"level": safeLevel}
	if reward.Type == RewardCredits {
		s.AddCredits(reward.Amount, "battlepass_reward", meta)
	} else {
		s.AddGems(reward.Amount, "battlepass_reward", meta)
	}
	s.BattlePass.Claimed = append(s.BattlePass.Claimed, safeLevel)

	return &BattlePassClaimResult{Level: safeLevel, Reward: *reward}, nil
}
