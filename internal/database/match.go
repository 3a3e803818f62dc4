package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/unohall/server/internal/uno"
)

// MatchRecorder persists settled match ledgers; it implements
// uno.ResultRecorder.
type MatchRecorder struct{}

// RecordMatch stores one finished match: the room, its mode, the number of
// rounds played and the final per-player scores as JSON.
func (MatchRecorder) RecordMatch(ctx context.Context, roomID string, status uno.Status) error {
	scores, err := json.Marshal(status.Scores)
	if err != nil {
		return fmt.Errorf("database: failed to marshal match scores: %w", err)
	}
	_, err = DB.Exec(ctx, `
		INSERT INTO matches (room_id, mode, rounds, scores, finished_at)
		VALUES ($1, $2, $3, $4, NOW())
	`, roomID, string(status.Mode), status.Rounds, scores)
	if err != nil {
		return fmt.Errorf("database: failed to insert match result: %w", err)
	}
	return nil
}
