package state

// LoginBonusClaimResult reports a successful streak claim.
type LoginBonusClaimResult struct {
	DayIndex int              `json:"dayIndex"`
	Streak   int              `json:"streak"`
	Reward   LoginBonusReward `json:"reward"`
}

// ClaimLoginBonus pays the streak reward for dayKey. A claim on the day right
// after the previous one extends the streak; any gap resets it to 1. The
// reward table cycles, so streaks beyond its length wrap around.
func (s *PlayerState) ClaimLoginBonus(dayKey string) (*LoginBonusClaimResult, error) {
	last := s.LoginBonus.LastLoginDate
	if last == dayKey {
		return nil, ruleError("already_claimed_today")
	}

	streak := clampInt(s.LoginBonus.Streak, 0, 100000)
	if last != "" && last == PrevDayKey(dayKey) {
		streak++
	} else {
		streak = 1
	}

	dayIndex := (streak - 1) % len(LoginBonusTable)
	reward := LoginBonusTable[dayIndex]

	meta := map[string]any{"day": dayIndex + 1, "streak": streak}
	if reward.Type == RewardCredits {
		s.AddCredits(reward.Amount, "login_bonus", meta)
	} else {
		s.AddGems(reward.Amount, "login_bonus", meta)
	}

	s.LoginBonus.LastLoginDate = dayKey
	s.LoginBonus.Streak = streak

	return &LoginBonusClaimResult{DayIndex: dayIndex, Streak: streak, Reward: reward}, nil
}
