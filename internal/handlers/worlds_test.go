package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/averyhale/saga-engine/internal/storage"
	"github.com/averyhale/saga-engine/pkg/story"
)

func newWorldsHarness() (*WorldsHandler, *storage.MockStorage) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := storage.NewMockStorage()
	return NewWorldsHandler(store, logger), store
}

func TestWorldsHandler_List(t *testing.T) {
	h, store := newWorldsHarness()
	store.AddWorld(story.World{ID: "harbor", Name: "The Drowned Harbor", Intro: "x"})
	store.AddWorld(story.World{ID: "frontier", Name: "The Red Frontier", Intro: "y"})

	req := httptest.NewRequest(http.MethodGet, "/v1/worlds", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var worlds []story.World
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&worlds))
	require.Len(t, worlds, 2)
	assert.Equal(t, "frontier", worlds[0].ID, "catalog should list worlds sorted by ID")
	assert.Equal(t, "harbor", worlds[1].ID)
}

func TestWorldsHandler_Get(t *testing.T) {
	h, store := newWorldsHarness()
	store.AddWorld(story.World{ID: "harbor", Name: "The Drowned Harbor", Tone: "mystery", Intro: "x"})

	req := httptest.NewRequest(http.MethodGet, "/v1/worlds/harbor", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var world story.World
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&world))
	assert.Equal(t, "The Drowned Harbor", world.Name)
	assert.Equal(t, "mystery", world.Tone)

	req = httptest.NewRequest(http.MethodGet, "/v1/worlds/atlantis", nil)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestWorldsHandler_MethodNotAllowed(t *testing.T) {
	h, _ := newWorldsHarness()
	req := httptest.NewRequest(http.MethodPost, "/v1/worlds", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}
