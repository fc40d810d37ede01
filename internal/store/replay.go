package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/voidrush/backend/internal/models"
)

// GetRequestReplay returns the stored response for (playerID, requestID), or
// nil when this request id has not been seen.
func (s *Store) GetRequestReplay(ctx context.Context, playerID, requestID string) (json.RawMessage, error) {
	if requestID == "" {
		return nil, nil
	}

	var row models.RequestReplay
	err := s.db.GetContext(ctx, &row, `
		SELECT id, player_id, request_id, path, event_type, payload_json, response_json, created_at
		FROM voidrush_requests WHERE player_id=$1 AND request_id=$2`,
		playerID, requestID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read request replay: %w", err)
	}
	return row.ResponseJSON, nil
}

// SaveRequestReplay caches the response under the client request id. A
// duplicate insert means a concurrent retry already recorded it; that is
// treated as success, not an error.
func (s *Store) SaveRequestReplay(ctx context.Context, playerID, requestID, path, eventType string, payload, response any) error {
	if requestID == "" {
		return nil
	}

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		payloadJSON = []byte("{}")
	}
	responseJSON, err := json.Marshal(response)
	if err != nil {
		return fmt.Errorf("failed to encode replay response: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO voidrush_requests (player_id, request_id, path, event_type, payload_json, response_json, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,NOW())`,
		playerID, requestID, path, eventType, payloadJSON, responseJSON)
	if err != nil {
		if isUniqueViolation(err) {
			return nil
		}
		return fmt.Errorf("failed to save request replay: %w", err)
	}
	return nil
}
