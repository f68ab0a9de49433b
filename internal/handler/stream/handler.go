package stream

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	chatService "github.com/saarthi/companion/backend/internal/service/chat"
	"github.com/saarthi/companion/backend/internal/store"
	"github.com/saarthi/companion/backend/pkg/utils"
)

// Handler reports chat turn progress via Server-Sent Events.
type Handler struct {
	chatSvc *chatService.Service
}

// New creates a new stream handler
func New(chatSvc *chatService.Service) *Handler {
	return &Handler{chatSvc: chatSvc}
}

// RegisterRoutes 注册流式对话路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat/stream", h.handleStream)
}

// StreamResponse is the payload of every event on the stream.
type StreamResponse struct {
	Stage chatService.Stage  `json:"stage,omitempty"`
	Reply *chatService.Reply `json:"reply,omitempty"`
	Error string             `json:"error,omitempty"`
}

// handleStream runs one turn, emitting a "stage" event per completed stage and
// a final "reply" or "error" event.
func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	var turn chatService.Turn
	if err := json.NewDecoder(r.Body).Decode(&turn); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Missing data")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	if turn.Message == "" || turn.ChatID == "" || turn.Persona == "" {
		utils.RespondError(w, http.StatusBadRequest, "Missing data")
		return
	}

	utils.SetupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)

	reply, err := h.chatSvc.Run(r.Context(), turn, func(stage chatService.Stage) {
		utils.SendSSEEvent(w, flusher, "stage", StreamResponse{Stage: stage})
	})
	if err != nil {
		log.Printf("[stream] turn failed for chat=%s: %v", turn.ChatID, err)
		utils.SendSSEEvent(w, flusher, "error", StreamResponse{Error: clientMessage(err)})
		return
	}

	utils.SendSSEEvent(w, flusher, "reply", StreamResponse{Reply: &reply})
}

func clientMessage(err error) string {
	switch {
	case errors.Is(err, store.ErrSessionNotFound):
		return "chat not found"
	case errors.Is(err, store.ErrInvalidChatID):
		return "invalid chat id"
	}
	return "internal error"
}
