package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/voidrush/backend/internal/models"
)

// GetIdentity loads the identity record for a player, or nil when the player
// has never bootstrapped.
func (s *Store) GetIdentity(ctx context.Context, playerID string) (*models.Identity, error) {
	var identity models.Identity
	err := s.db.GetContext(ctx, &identity, `
		SELECT player_id, proof_hash, created_at, last_seen_at
		FROM voidrush_identities WHERE player_id=$1`, playerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load identity: %w", err)
	}
	return &identity, nil
}

// CreateIdentity records the first proof for a player id. Two concurrent
// bootstraps race here; the loser keeps the winner's record, so the caller
// re-reads and verifies after a duplicate.
func (s *Store) CreateIdentity(ctx context.Context, playerID, proofHash string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO voidrush_identities (player_id, proof_hash, created_at, last_seen_at)
		VALUES ($1,$2,NOW(),NOW())
		ON CONFLICT (player_id) DO NOTHING`, playerID, proofHash)
	if err != nil {
		return false, fmt.Errorf("failed to create identity: %w", err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return false, nil
	}
	return inserted > 0, nil
}

// TouchIdentity refreshes last_seen_at after a successful token issue.
func (s *Store) TouchIdentity(ctx context.Context, playerID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE voidrush_identities SET last_seen_at=NOW() WHERE player_id=$1`, playerID)
	if err != nil {
		return fmt.Errorf("failed to touch identity: %w", err)
	}
	return nil
}
