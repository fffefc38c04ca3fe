package chat

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	chatservice "github.com/divyamcodes2/Chat-and-Chai/internal/service/chat"
	"github.com/divyamcodes2/Chat-and-Chai/pkg/utils"
)

// Handler serves the REST surface backing the chat page: the room list and
// identity seeding for new visitors.
type Handler struct {
	rooms *chatservice.Directory
}

// New creates the chat REST handler.
func New(rooms *chatservice.Directory) *Handler {
	return &Handler{rooms: rooms}
}

// RegisterRoutes mounts the chat REST routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/rooms", h.handleListRooms)
	r.Post("/session", h.handleCreateSession)
}

// handleListRooms returns the fixed set of chat rooms.
func (h *Handler) handleListRooms(w http.ResponseWriter, _ *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string][]string{"rooms": h.rooms.Names()})
}

// handleCreateSession hands the client a display name: the requested one when
// present, otherwise a generated guest name.
func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Username string `json:"username"`
	}

	if r.Body != nil {
		// An empty body is fine; the client just gets a guest name.
		_ = json.NewDecoder(r.Body).Decode(&payload)
	}

	username := strings.TrimSpace(payload.Username)
	if username == "" {
		username = guestUsername()
	}

	utils.RespondJSON(w, http.StatusCreated, map[string]string{"username": username})
}
