package handlers

import (
	"log/slog"
	"net/http"

	"github.com/TheRajesh1612/Aura-ChatBot/internal/service"
)

// ChatHandler serves the assistant endpoint
type ChatHandler struct {
	chatService *service.ChatService
	logger      *slog.Logger
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chatService *service.ChatService, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{chatService: chatService, logger: logger}
}

type chatRequest struct {
	Message string `json:"message"`
}

// Chat handles POST /chat
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, r, h.logger, http.StatusInternalServerError, ErrSomethingWentWrong, err)
		return
	}

	reply := h.chatService.Reply(r.Context(), req.Message)
	respondJSON(w, http.StatusOK, envelope{
		"success": true,
		"text":    reply.Text,
		"id":      reply.ID,
		"sender":  reply.Sender,
	})
}

// Liveness handles GET /
func Liveness(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(LivenessMessage))
}
