package state

import "time"

// appendLedger pushes one audit entry, trimming the ledger to its cap.
func (s *PlayerState) appendLedger(entry LedgerEntry) {
	if entry.Timestamp == "" {
		entry.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	s.EconomyLedger = append(s.EconomyLedger, entry)
	if len(s.EconomyLedger) > ledgerMaxEntries {
		s.EconomyLedger = s.EconomyLedger[len(s.EconomyLedger)-ledgerMaxEntries:]
	}
}

// AddCredits applies a credit grant (or spend, when negative) with a floor at
// zero, and records the realized delta in the economy ledger. Returns the
// delta actually applied.
func (s *PlayerState) AddCredits(amount int64, source string, meta map[string]any) int64 {
	before := s.Credits
	s.Credits += amount
	if s.Credits < 0 {
		s.Credits = 0
	}
	delta := s.Credits - before
	if delta != 0 {
		s.appendLedger(LedgerEntry{
			Category: "credits",
			Source:   source,
			Amount:   delta,
			Before:   before,
			After:    s.Credits,
			Meta:     meta,
		})
	}
	return delta
}

// AddGems is the gem counterpart of AddCredits.
func (s *PlayerState) AddGems(amount int64, source string, meta map[string]any) int64 {
	before := s.Gems
	s.Gems += amount
	if s.Gems < 0 {
		s.Gems = 0
	}
	delta := s.Gems - before
	if delta != 0 {
		s.appendLedger(LedgerEntry{
			Category: "gems",
			Source:   source,
			Amount:   delta,
			Before:   before,
			After:    s.Gems,
			Meta:     meta,
		})
	}
	return delta
}

// AddMetaExp grants meta-progression exp and runs the level-up carry loop:
// each level costs level*1000 exp and pays a fixed gem bonus. The loop must
// keep going so a single large grant can advance several levels.
func (s *PlayerState) AddMetaExp(amount int64, source string, meta map[string]any) {
	safeAmount := clampInt64(amount, 0, 1e6)
	before := s.Exp
	s.Exp += safeAmount

	expNeeded := int64(s.Level) * expPerMetaLevelBase
	for s.Exp >= expNeeded {
		s.Level++
		s.Exp -= expNeeded
		s.AddGems(metaLevelUpGemBonus, "meta_levelup_bonus", map[string]any{"level": s.Level})
		expNeeded = int64(s.Level) * expPerMetaLevelBase
	}

	merged := map[string]any{}
	for k, v := range meta {
		merged[k] = v
	}
	merged["level"] = s.Level
	s.appendLedger(LedgerEntry{
		Category: "meta_exp",
		Source:   source,
		Amount:   safeAmount,
		Before:   before,
		After:    s.Exp,
		Meta:     merged,
	})
}
