package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/averyhale/saga-engine/pkg/state"
	"github.com/averyhale/saga-engine/pkg/story"
)

// MockStorage is an in-memory Storage for testing.
type MockStorage struct {
	mu         sync.RWMutex
	gamestates map[uuid.UUID]*state.GameState
	slots      map[string]*state.GameState
	slotMeta   map[string]map[string]SaveMeta
	worlds     map[string]story.World
	pingError  error
}

// Ensure MockStorage implements Storage interface
var _ Storage = (*MockStorage)(nil)

func NewMockStorage() *MockStorage {
	return &MockStorage{
		gamestates: make(map[uuid.UUID]*state.GameState),
		slots:      make(map[string]*state.GameState),
		slotMeta:   make(map[string]map[string]SaveMeta),
		worlds:     make(map[string]story.World),
	}
}

// SetPingError configures the mock to fail on ping with the given error.
func (m *MockStorage) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

// AddWorld registers a world seed for GetWorld/ListWorlds.
func (m *MockStorage) AddWorld(w story.World) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.worlds[w.ID] = w
}

func (m *MockStorage) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingError
}

func (m *MockStorage) Close() error { return nil }

func (m *MockStorage) SaveGameState(ctx context.Context, id uuid.UUID, gs *state.GameState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	gs.SavedAt = time.Now().UTC()
	m.gamestates[id] = gs
	return nil
}

func (m *MockStorage) LoadGameState(ctx context.Context, id uuid.UUID) (*state.GameState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.gamestates[id], nil
}

func (m *MockStorage) DeleteGameState(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.gamestates, id)
	return nil
}

func (m *MockStorage) SaveSlot(ctx context.Context, userID, slot string, gs *state.GameState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	gs.SavedAt = time.Now().UTC()
	m.slots[userID+":"+slot] = gs
	if m.slotMeta[userID] == nil {
		m.slotMeta[userID] = make(map[string]SaveMeta)
	}
	m.slotMeta[userID][slot] = SaveMeta{
		Slot:       slot,
		GameID:     gs.ID,
		PlayerName: gs.PlayerName,
		WorldID:    gs.WorldID,
		Chapter:    gs.Chapter,
		SceneCount: gs.SceneCount,
		SavedAt:    gs.SavedAt,
	}
	return nil
}

func (m *MockStorage) LoadSlot(ctx context.Context, userID, slot string) (*state.GameState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.slots[userID+":"+slot], nil
}

func (m *MockStorage) ListSlots(ctx context.Context, userID string) ([]SaveMeta, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	metas := make([]SaveMeta, 0, len(m.slotMeta[userID]))
	for _, meta := range m.slotMeta[userID] {
		metas = append(metas, meta)
	}
	sort.Slice(metas, func(i, j int) bool {
		return metas[i].SavedAt.After(metas[j].SavedAt)
	})
	return metas, nil
}

func (m *MockStorage) DeleteSlot(ctx context.Context, userID, slot string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.slots, userID+":"+slot)
	delete(m.slotMeta[userID], slot)
	return nil
}

func (m *MockStorage) ListWorlds(ctx context.Context) ([]story.World, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	worlds := make([]story.World, 0, len(m.worlds))
	for _, w := range m.worlds {
		worlds = append(worlds, w)
	}
	sort.Slice(worlds, func(i, j int) bool { return worlds[i].ID < worlds[j].ID })
	return worlds, nil
}

func (m *MockStorage) GetWorld(ctx context.Context, worldID string) (*story.World, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	w, ok := m.worlds[worldID]
	if !ok {
		return nil, fmt.Errorf("world not found: %s", worldID)
	}
	return &w, nil
}
