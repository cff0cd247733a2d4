package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/averyhale/saga-engine/internal/engine"
	"github.com/averyhale/saga-engine/internal/storage"
	"github.com/averyhale/saga-engine/internal/worker"
	"github.com/averyhale/saga-engine/pkg/chat"
	"github.com/averyhale/saga-engine/pkg/state"
)

// GamesHandler serves the game lifecycle routes:
//
//	POST   /v1/games               - create a game and narrate its opening
//	GET    /v1/games/{id}          - fetch state
//	DELETE /v1/games/{id}          - delete state
//	POST   /v1/games/{id}/turn     - process one turn
//	POST   /v1/games/{id}/burn     - accept the pending momentum burn
//	POST   /v1/games/{id}/chapter  - close the chapter and open the next
//	POST   /v1/games/{id}/epilogue - narrate the closing scene
//	GET    /v1/games/{id}/recap    - "previously on" text for a resume
type GamesHandler struct {
	engine  *engine.Engine
	storage storage.Storage
	runner  *worker.Runner
	locks   *worker.SessionLocks
	logger  *slog.Logger
}

func NewGamesHandler(eng *engine.Engine, store storage.Storage, runner *worker.Runner, locks *worker.SessionLocks, logger *slog.Logger) *GamesHandler {
	return &GamesHandler{engine: eng, storage: store, runner: runner, locks: locks, logger: logger}
}

// TurnResponse pairs the resolved turn with the updated snapshot fields
// clients render.
type TurnResponse struct {
	*engine.TurnResult
	GameID uuid.UUID        `json:"game_id"`
	State  *state.GameState `json:"state,omitempty"`
}

func (h *GamesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/games"), "/")

	if path == "" {
		if r.Method != http.MethodPost {
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		h.handleCreate(w, r)
		return
	}

	idStr, action, _ := strings.Cut(path, "/")
	gameID, err := uuid.Parse(idStr)
	if err != nil {
		h.logger.Warn("Invalid game ID", "id", idStr, "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid game ID format")
		return
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		h.handleGet(w, r, gameID)
	case action == "" && r.Method == http.MethodDelete:
		h.handleDelete(w, r, gameID)
	case action == "turn" && r.Method == http.MethodPost:
		h.handleTurn(w, r, gameID)
	case action == "burn" && r.Method == http.MethodPost:
		h.handleBurn(w, r, gameID)
	case action == "chapter" && r.Method == http.MethodPost:
		h.handleChapter(w, r, gameID)
	case action == "epilogue" && r.Method == http.MethodPost:
		h.handleEpilogue(w, r, gameID)
	case action == "recap" && r.Method == http.MethodGet:
		h.handleRecap(w, r, gameID)
	default:
		writeError(w, h.logger, http.StatusNotFound, "Not found")
	}
}

func (h *GamesHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var setup engine.GameSetup
	if err := json.NewDecoder(r.Body).Decode(&setup); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}

	if setup.WorldID != "" && setup.WorldIntro == "" {
		world, err := h.storage.GetWorld(r.Context(), setup.WorldID)
		if err != nil {
			writeError(w, h.logger, http.StatusBadRequest, "Unknown world: "+setup.WorldID)
			return
		}
		setup.WorldIntro = world.Intro
		if setup.Tone == "" {
			setup.Tone = world.Tone
		}
		if world.KidFriendly {
			setup.KidFriendly = true
		}
	}

	gs, result, err := h.engine.NewGame(r.Context(), setup)
	if err != nil {
		h.logger.Error("Failed to create game", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	h.runner.Bump(gs.ID)
	if err := h.storage.SaveGameState(r.Context(), gs.ID, gs); err != nil {
		h.logger.Error("Failed to save new game", "game_id", gs.ID, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to save game")
		return
	}

	writeJSON(w, h.logger, http.StatusCreated, TurnResponse{TurnResult: result, GameID: gs.ID, State: gs})
}

func (h *GamesHandler) handleGet(w http.ResponseWriter, r *http.Request, gameID uuid.UUID) {
	gs, err := h.storage.LoadGameState(r.Context(), gameID)
	if err != nil {
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load game")
		return
	}
	if gs == nil {
		writeError(w, h.logger, http.StatusNotFound, "Game not found")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, gs)
}

func (h *GamesHandler) handleDelete(w http.ResponseWriter, r *http.Request, gameID uuid.UUID) {
	h.runner.Bump(gameID)
	if err := h.storage.DeleteGameState(r.Context(), gameID); err != nil {
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to delete game")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *GamesHandler) handleTurn(w http.ResponseWriter, r *http.Request, gameID uuid.UUID) {
	var req chat.TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	h.withSession(w, r, gameID, func(gs *state.GameState) (*engine.TurnResult, error) {
		return h.engine.ProcessTurn(r.Context(), gs, req.Input)
	})
}

func (h *GamesHandler) handleBurn(w http.ResponseWriter, r *http.Request, gameID uuid.UUID) {
	h.withSession(w, r, gameID, func(gs *state.GameState) (*engine.TurnResult, error) {
		return h.engine.BurnMomentum(r.Context(), gs)
	})
}

func (h *GamesHandler) handleChapter(w http.ResponseWriter, r *http.Request, gameID uuid.UUID) {
	h.withSession(w, r, gameID, func(gs *state.GameState) (*engine.TurnResult, error) {
		tone := ""
		if gs.WorldID != "" {
			if world, err := h.storage.GetWorld(r.Context(), gs.WorldID); err == nil {
				tone = world.Tone
			}
		}
		result, err := h.engine.StartChapter(r.Context(), gs, tone)
		if err == nil {
			// A new chapter invalidates any in-flight director work.
			h.runner.Bump(gameID)
		}
		return result, err
	})
}

func (h *GamesHandler) handleEpilogue(w http.ResponseWriter, r *http.Request, gameID uuid.UUID) {
	var req chat.TurnRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, h.logger, http.StatusBadRequest, "Invalid request body")
			return
		}
	}
	h.withSession(w, r, gameID, func(gs *state.GameState) (*engine.TurnResult, error) {
		return h.engine.Epilogue(r.Context(), gs, req.Input)
	})
}

func (h *GamesHandler) handleRecap(w http.ResponseWriter, r *http.Request, gameID uuid.UUID) {
	gs, err := h.storage.LoadGameState(r.Context(), gameID)
	if err != nil {
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load game")
		return
	}
	if gs == nil {
		writeError(w, h.logger, http.StatusNotFound, "Game not found")
		return
	}
	// A recap marks a resume point; stale director passes are dropped.
	h.runner.Bump(gameID)
	recap := h.engine.Recap(r.Context(), gs)
	writeJSON(w, h.logger, http.StatusOK, map[string]string{"recap": recap})
}

// withSession runs one engine operation under the session lock: load,
// mutate, save, and schedule the director pass when the turn calls for
// one. A held lock means a turn is already in flight — 409.
func (h *GamesHandler) withSession(w http.ResponseWriter, r *http.Request, gameID uuid.UUID, fn func(gs *state.GameState) (*engine.TurnResult, error)) {
	if !h.locks.TryLock(gameID) {
		writeError(w, h.logger, http.StatusConflict, "A turn is already in progress for this game")
		return
	}
	defer h.locks.Unlock(gameID)

	gs, err := h.storage.LoadGameState(r.Context(), gameID)
	if err != nil {
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load game")
		return
	}
	if gs == nil {
		writeError(w, h.logger, http.StatusNotFound, "Game not found")
		return
	}

	result, err := fn(gs)
	if err != nil {
		h.logger.Error("Engine operation failed", "game_id", gameID, "error", err)
		writeError(w, h.logger, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := h.storage.SaveGameState(r.Context(), gameID, gs); err != nil {
		h.logger.Error("Failed to save game", "game_id", gameID, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to save game")
		return
	}

	if result.DirectorNeeded {
		h.runner.Schedule(gameID, gs.NPCs.FlaggedForReflection())
	}

	writeJSON(w, h.logger, http.StatusOK, TurnResponse{TurnResult: result, GameID: gameID, State: gs})
}
