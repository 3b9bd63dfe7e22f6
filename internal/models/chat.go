package models

import "time"

// Sender identifies who wrote a chat message
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// ChatReply is the bot's answer to a single message
type ChatReply struct {
	ID     int64
	Text   string
	Sender Sender
}

// ChatMessage is one entry of a locally stored transcript
type ChatMessage struct {
	ID        string
	ChatID    string
	Text      string
	Sender    Sender
	Timestamp time.Time
}

// ChatSummary is the per-conversation entry shown in the history list
type ChatSummary struct {
	ID        string
	UserEmail string
	Title     string
	Date      string
	Preview   string
	UpdatedAt time.Time
}
