package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/averyhale/saga-engine/internal/storage"
	"github.com/averyhale/saga-engine/internal/worker"
)

// SavesHandler serves named save slots:
//
//	GET    /v1/saves?user=         - list a user's slots
//	GET    /v1/saves/{slot}?user=  - restore a slot as the live game
//	PUT    /v1/saves/{slot}?user=  - write the live game into a slot
//	DELETE /v1/saves/{slot}?user=  - delete a slot
type SavesHandler struct {
	storage storage.Storage
	runner  *worker.Runner
	logger  *slog.Logger
}

func NewSavesHandler(store storage.Storage, runner *worker.Runner, logger *slog.Logger) *SavesHandler {
	return &SavesHandler{storage: store, runner: runner, logger: logger}
}

type saveRequest struct {
	GameID uuid.UUID `json:"game_id"`
}

func (h *SavesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user")
	if userID == "" {
		writeError(w, h.logger, http.StatusBadRequest, "user query parameter is required")
		return
	}

	slot := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/saves"), "/")

	switch {
	case slot == "" && r.Method == http.MethodGet:
		h.handleList(w, r, userID)
	case slot != "" && r.Method == http.MethodGet:
		h.handleRestore(w, r, userID, slot)
	case slot != "" && r.Method == http.MethodPut:
		h.handleWrite(w, r, userID, slot)
	case slot != "" && r.Method == http.MethodDelete:
		h.handleDelete(w, r, userID, slot)
	default:
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (h *SavesHandler) handleList(w http.ResponseWriter, r *http.Request, userID string) {
	metas, err := h.storage.ListSlots(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to list saves")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, metas)
}

func (h *SavesHandler) handleRestore(w http.ResponseWriter, r *http.Request, userID, slot string) {
	gs, err := h.storage.LoadSlot(r.Context(), userID, slot)
	if err != nil {
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load save")
		return
	}
	if gs == nil {
		writeError(w, h.logger, http.StatusNotFound, "Save not found")
		return
	}

	// The restored state becomes the live session again.
	h.runner.Bump(gs.ID)
	if err := h.storage.SaveGameState(r.Context(), gs.ID, gs); err != nil {
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to restore game")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, gs)
}

func (h *SavesHandler) handleWrite(w http.ResponseWriter, r *http.Request, userID, slot string) {
	var req saveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.GameID == uuid.Nil {
		writeError(w, h.logger, http.StatusBadRequest, "game_id is required")
		return
	}

	gs, err := h.storage.LoadGameState(r.Context(), req.GameID)
	if err != nil {
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load game")
		return
	}
	if gs == nil {
		writeError(w, h.logger, http.StatusNotFound, "Game not found")
		return
	}

	if err := h.storage.SaveSlot(r.Context(), userID, slot, gs); err != nil {
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to write save")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SavesHandler) handleDelete(w http.ResponseWriter, r *http.Request, userID, slot string) {
	if err := h.storage.DeleteSlot(r.Context(), userID, slot); err != nil {
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to delete save")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
