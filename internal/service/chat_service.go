package service

import (
	"context"
	"fmt"
	"time"

	"github.com/TheRajesh1612/Aura-ChatBot/internal/models"
)

// ChatService produces the assistant's replies. There is no model behind it
// yet: every reply echoes the user's message.
type ChatService struct {
	now func() time.Time
}

// NewChatService creates a new chat service
func NewChatService() *ChatService {
	return &ChatService{now: time.Now}
}

// Reply answers a single user message
func (s *ChatService) Reply(_ context.Context, message string) *models.ChatReply {
	return &models.ChatReply{
		ID:     s.now().UnixMilli(),
		Text:   fmt.Sprintf("You said: %s. Wait I'm thinking...", message),
		Sender: models.SenderBot,
	}
}
