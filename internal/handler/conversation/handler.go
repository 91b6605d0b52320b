package conversation

import (
	"context"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	model "github.com/tanuki-create/voicechat/internal/model/conversation"
	"github.com/tanuki-create/voicechat/internal/store"
	"github.com/tanuki-create/voicechat/pkg/utils"
)

// Mirror reads the persisted conversation records.
type Mirror interface {
	LoadConversation(ctx context.Context, sessionID string) (*model.Record, error)
}

// Handler serves the durable conversation mirror for audit and later
// retrieval. It never touches live session state.
type Handler struct {
	mirror Mirror
}

// New creates the audit retrieval handler.
func New(mirror Mirror) *Handler {
	return &Handler{mirror: mirror}
}

// RegisterRoutes wires the retrieval endpoint.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/conversations/{sessionID}", h.handleGet)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		utils.RespondError(w, http.StatusBadRequest, "sessionID is required")
		return
	}

	record, err := h.mirror.LoadConversation(r.Context(), sessionID)
	if err != nil {
		if store.IsNotFound(err) {
			utils.RespondError(w, http.StatusNotFound, "conversation not found")
			return
		}
		log.Printf("[conversation] load failed session=%s: %v", sessionID, err)
		utils.RespondError(w, http.StatusInternalServerError, "failed to load conversation")
		return
	}

	utils.RespondJSON(w, http.StatusOK, record)
}
