package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/averyhale/saga-engine/internal/storage"
)

// WorldsHandler serves the world seed catalog:
//
//	GET /v1/worlds      - list worlds
//	GET /v1/worlds/{id} - one world
type WorldsHandler struct {
	storage storage.Storage
	logger  *slog.Logger
}

func NewWorldsHandler(store storage.Storage, logger *slog.Logger) *WorldsHandler {
	return &WorldsHandler{storage: store, logger: logger}
}

func (h *WorldsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	worldID := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/worlds"), "/")
	if worldID == "" {
		worlds, err := h.storage.ListWorlds(r.Context())
		if err != nil {
			writeError(w, h.logger, http.StatusInternalServerError, "Failed to list worlds")
			return
		}
		writeJSON(w, h.logger, http.StatusOK, worlds)
		return
	}

	world, err := h.storage.GetWorld(r.Context(), worldID)
	if err != nil {
		writeError(w, h.logger, http.StatusNotFound, "World not found")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, world)
}
