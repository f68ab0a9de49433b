package chat

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

// Handler 聊天服务的HTTP处理器
type Handler struct {
	chatSvc *chatService.Service
}

// New 创建聊天处理器
func New(chatSvc *chatService.Service) *Handler {
	return &Handler{chatSvc: chatSvc}
}

// RegisterRoutes 注册聊天相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/chats", h.handleListChats)
	r.Get("/chats/{chatId}", h.handleGetHistory)
	r.Delete("/chats/{chatId}", h.handleDeleteChat)
	r.Post("/new_chat", h.handleNewChat)
	r.Post("/chat", h.handleChat)
}

func (h *Handler) handleListChats(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.chatSvc.ListChats())
}

func (h *Handler) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.chatSvc.History(r.Context(), chi.URLParam(r, "chatId"))
	if err != nil {
		respondTurnError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, history)
}

func (h *Handler) handleDeleteChat(w http.ResponseWriter, r *http.Request) {
	result := h.chatSvc.DeleteChat(r.Context(), chi.URLParam(r, "chatId"))
	status := http.StatusOK
	if !result.OK() {
		status = http.StatusInternalServerError
	}
	utils.RespondJSON(w, status, result)
}

func (h *Handler) handleNewChat(w http.ResponseWriter, r *http.Request) {
	session, err := h.chatSvc.NewChat(r.Context())
	if err != nil {
		respondTurnError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, session)
}

// handleChat 处理一轮对话
func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var turn chatService.Turn
	if err := json.NewDecoder(r.Body).Decode(&turn); err != nil {
		respondTurnError(w, chatService.ErrMissingData)
		return
	}

	reply, err := h.chatSvc.SendMessage(r.Context(), turn)
	if err != nil {
		respondTurnError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, reply)
}

// internalErrorMessage hides upstream and I/O details from clients; they are logged.
const internalErrorMessage = "internal error"

func respondTurnError(w http.ResponseWriter, err error) {
	status, message := errorStatus(err)
	utils.RespondError(w, status, message)
}

// errorStatus maps service errors to an HTTP status and client-facing message.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, chatService.ErrMissingData):
		return http.StatusBadRequest, "Missing data"
	case errors.Is(err, store.ErrInvalidChatID):
		return http.StatusBadRequest, "invalid chat id"
	case errors.Is(err, store.ErrSessionNotFound):
		return http.StatusNotFound, "chat not found"
	}

	var turnErr *chatService.TurnError
	if errors.As(err, &turnErr) {
		log.Printf("[chat] turn failed at %s: %v", turnErr.Stage, turnErr.Err)
		return http.StatusInternalServerError, internalErrorMessage
	}

	log.Printf("[chat] request failed: %v", err)
	return http.StatusInternalServerError, internalErrorMessage
}
