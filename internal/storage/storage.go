package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/averyhale/saga-engine/pkg/state"
	"github.com/averyhale/saga-engine/pkg/story"
)

// SaveMeta is a save-slot listing entry: enough to render a load menu
// without deserializing the full state.
type SaveMeta struct {
	Slot       string    `json:"slot"`
	GameID     uuid.UUID `json:"game_id"`
	PlayerName string    `json:"player_name"`
	WorldID    string    `json:"world_id,omitempty"`
	Chapter    int       `json:"chapter"`
	SceneCount int       `json:"scene_count"`
	SavedAt    time.Time `json:"saved_at"`
}

// Storage combines game-state persistence (Redis) with world seed
// loading (filesystem).
type Storage interface {
	// Health and lifecycle
	Ping(ctx context.Context) error
	Close() error

	// Live session state, keyed by game id. Load returns (nil, nil)
	// when the id is unknown.
	SaveGameState(ctx context.Context, id uuid.UUID, gs *state.GameState) error
	LoadGameState(ctx context.Context, id uuid.UUID) (*state.GameState, error)
	DeleteGameState(ctx context.Context, id uuid.UUID) error

	// Named save slots, keyed by (user, slot).
	SaveSlot(ctx context.Context, userID, slot string, gs *state.GameState) error
	LoadSlot(ctx context.Context, userID, slot string) (*state.GameState, error)
	ListSlots(ctx context.Context, userID string) ([]SaveMeta, error)
	DeleteSlot(ctx context.Context, userID, slot string) error

	// World seeds (filesystem-backed)
	ListWorlds(ctx context.Context) ([]story.World, error)
	GetWorld(ctx context.Context, worldID string) (*story.World, error)
}
