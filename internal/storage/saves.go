package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/averyhale/saga-engine/pkg/state"
)

// Save slots live under save:{user}:{slot}, with a per-user index hash
// at saveindex:{user} holding listing metadata so List never loads full
// states.

func slotKey(userID, slot string) string {
	return "save:" + userID + ":" + slot
}

func indexKey(userID string) string {
	return "saveindex:" + userID
}

func (r *RedisStorage) SaveSlot(ctx context.Context, userID, slot string, gs *state.GameState) error {
	if userID == "" || slot == "" {
		return fmt.Errorf("user and slot are required")
	}

	data, err := marshalForSave(gs)
	if err != nil {
		return fmt.Errorf("failed to marshal save: %w", err)
	}

	meta := SaveMeta{
		Slot:       slot,
		GameID:     gs.ID,
		PlayerName: gs.PlayerName,
		WorldID:    gs.WorldID,
		Chapter:    gs.Chapter,
		SceneCount: gs.SceneCount,
		SavedAt:    gs.SavedAt,
	}
	metaData, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to marshal save metadata: %w", err)
	}

	if err := r.client.Set(ctx, slotKey(userID, slot), data, 0).Err(); err != nil {
		r.logger.Error("Failed to write save slot", "user", userID, "slot", slot, "error", err)
		return fmt.Errorf("failed to write save slot: %w", err)
	}
	if err := r.client.HSet(ctx, indexKey(userID), slot, metaData).Err(); err != nil {
		r.logger.Error("Failed to update save index", "user", userID, "slot", slot, "error", err)
		return fmt.Errorf("failed to update save index: %w", err)
	}
	return nil
}

func (r *RedisStorage) LoadSlot(ctx context.Context, userID, slot string) (*state.GameState, error) {
	data, err := r.client.Get(ctx, slotKey(userID, slot)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read save slot: %w", err)
	}
	return unmarshalSaved([]byte(data))
}

func (r *RedisStorage) ListSlots(ctx context.Context, userID string) ([]SaveMeta, error) {
	entries, err := r.client.HGetAll(ctx, indexKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read save index: %w", err)
	}

	metas := make([]SaveMeta, 0, len(entries))
	for slot, raw := range entries {
		var meta SaveMeta
		if err := json.Unmarshal([]byte(raw), &meta); err != nil {
			r.logger.Warn("Skipping corrupt save index entry", "user", userID, "slot", slot, "error", err)
			continue
		}
		metas = append(metas, meta)
	}
	sort.Slice(metas, func(i, j int) bool {
		return metas[i].SavedAt.After(metas[j].SavedAt)
	})
	return metas, nil
}

func (r *RedisStorage) DeleteSlot(ctx context.Context, userID, slot string) error {
	if err := r.client.Del(ctx, slotKey(userID, slot)).Err(); err != nil {
		return fmt.Errorf("failed to delete save slot: %w", err)
	}
	if err := r.client.HDel(ctx, indexKey(userID), slot).Err(); err != nil {
		return fmt.Errorf("failed to update save index: %w", err)
	}
	return nil
}
