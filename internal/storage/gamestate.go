package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/averyhale/saga-engine/pkg/chat"
	"github.com/averyhale/saga-engine/pkg/state"
)

// Live game states expire after a day of inactivity; named save slots
// do not expire.
const gameStateTTL = 24 * time.Hour

func gameKey(id uuid.UUID) string {
	return "game:" + id.String()
}

func (r *RedisStorage) SaveGameState(ctx context.Context, id uuid.UUID, gs *state.GameState) error {
	data, err := marshalForSave(gs)
	if err != nil {
		r.logger.Error("Failed to marshal game state", "game_id", id, "error", err)
		return fmt.Errorf("failed to marshal game state: %w", err)
	}

	if err := r.client.Set(ctx, gameKey(id), data, gameStateTTL).Err(); err != nil {
		r.logger.Error("Failed to save game state", "game_id", id, "error", err)
		return fmt.Errorf("failed to save game state: %w", err)
	}
	return nil
}

func (r *RedisStorage) LoadGameState(ctx context.Context, id uuid.UUID) (*state.GameState, error) {
	data, err := r.client.Get(ctx, gameKey(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		r.logger.Error("Failed to load game state", "game_id", id, "error", err)
		return nil, fmt.Errorf("failed to load game state: %w", err)
	}

	return unmarshalSaved([]byte(data))
}

func (r *RedisStorage) DeleteGameState(ctx context.Context, id uuid.UUID) error {
	if err := r.client.Del(ctx, gameKey(id)).Err(); err != nil {
		r.logger.Error("Failed to delete game state", "game_id", id, "error", err)
		return fmt.Errorf("failed to delete game state: %w", err)
	}
	return nil
}

// marshalForSave stamps saved_at and serializes with audio payloads
// stripped from the transcript. The in-memory state is not mutated
// beyond the timestamp.
func marshalForSave(gs *state.GameState) ([]byte, error) {
	gs.SavedAt = time.Now().UTC()
	saved := *gs
	saved.Transcript = chat.StripAudio(gs.Transcript)
	return json.Marshal(&saved)
}

// unmarshalSaved deserializes a save blob and runs the load migrations.
func unmarshalSaved(data []byte) (*state.GameState, error) {
	var gs state.GameState
	if err := json.Unmarshal(data, &gs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal game state: %w", err)
	}
	Migrate(&gs)
	return &gs, nil
}
