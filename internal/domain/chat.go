package domain

import "time"

// ChatMessage is one entry of a conversation log
type ChatMessage struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId"`
	Content        string    `json:"content"`
	Timestamp      time.Time `json:"timestamp"`
	SenderID       string    `json:"senderId"`
	SenderName     string    `json:"senderName,omitempty"`
	SenderAvatar   string    `json:"senderAvatar,omitempty"` // image URL
}

// PostMessageRequest is the body accepted when appending to a conversation
type PostMessageRequest struct {
	Content      string `json:"content" binding:"required"`
	SenderID     string `json:"senderId" binding:"required"`
	SenderName   string `json:"senderName,omitempty"`
	SenderAvatar string `json:"senderAvatar,omitempty"`
}
