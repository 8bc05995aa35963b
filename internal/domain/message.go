// Package domain contains core domain types for the LapakChat relay.
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Role identifies which side of the support conversation a session is on.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// ParseRole converts a wire-level role string into a Role.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUser:
		return RoleUser, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// Valid reports whether the role is one of the two known variants.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// SenderType identifies who authored a message. Unlike Role it includes
// the automated responder, which never owns a session.
type SenderType string

const (
	SenderUser  SenderType = "USER"
	SenderAdmin SenderType = "ADMIN"
	SenderBot   SenderType = "BOT"
)

// Valid reports whether the sender type is one of the three known variants.
func (s SenderType) Valid() bool {
	return s == SenderUser || s == SenderAdmin || s == SenderBot
}

// Message is a single chat message. Immutable once constructed; the
// receiver is optional and referenced by id only, so the target session
// may be gone by the time the message is routed.
type Message struct {
	ID         string     `json:"id"`
	SenderID   string     `json:"sender_id"`
	SenderType SenderType `json:"sender_type"`
	ReceiverID string     `json:"receiver_id,omitempty"`
	Content    string     `json:"content"`
	Timestamp  string     `json:"timestamp"`
}

// NewBotMessage builds a bot-authored message addressed to a user.
func NewBotMessage(receiverID, content string) Message {
	return Message{
		ID:         uuid.NewString(),
		SenderID:   "bot",
		SenderType: SenderBot,
		ReceiverID: receiverID,
		Content:    content,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}
}

// Ack is the response to a send: it reflects "accepted for routing",
// not end-to-end delivery.
type Ack struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
