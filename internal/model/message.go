// Package model defines data structures for the chat server.
package model

import (
	"fmt"
	"time"
)

// Role represents the role of a message sender.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ParseRole validates a stored role string.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleSystem, RoleUser, RoleAssistant:
		return Role(s), nil
	}
	return "", fmt.Errorf("invalid role %q", s)
}

// Message is a single conversation message. Content is immutable once
// created; messages are only appended or deleted in bulk. The persistent
// store owns the authoritative record and assigns Timestamp at insertion;
// the in-memory window holds copies.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// SendMessageRequest is the request to send a new chat message.
type SendMessageRequest struct {
	Content string `json:"content"`
}

// LoginRequest is the request to authenticate with the master password.
type LoginRequest struct {
	Password string `json:"password"`
}

// LoginResponse carries the session bearer token.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ListMessagesResponse is the response for listing messages.
type ListMessagesResponse struct {
	Messages []Message `json:"messages"`
	Total    int       `json:"total"`
}

// TokenEvent is a streaming token SSE event.
type TokenEvent struct {
	Token string `json:"token"`
	Index int    `json:"index"`
}

// MessageCompleteEvent signals that the assistant turn finished and was
// persisted.
type MessageCompleteEvent struct {
	Message      Message `json:"message"`
	ChunkIndex   int     `json:"chunk_index,omitempty"`
	ChunkCount   int     `json:"chunk_count,omitempty"`
	AutoAdvanced bool    `json:"auto_advanced,omitempty"`
}

// ErrorEvent is an SSE error event. Partial assistant output preceding the
// error is discarded, never persisted.
type ErrorEvent struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
