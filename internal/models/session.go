// internal/models/session.go
package models

import "time"

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is a single message in a conversation.
type Turn struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// ConversationHistory is the ordered list of turns for one session. It is
// never truncated or summarized here.
type ConversationHistory []Turn

// Append returns the history with the given turns added at the end.
func (h ConversationHistory) Append(turns ...Turn) ConversationHistory {
	return append(h, turns...)
}

// Last returns the most recent turn, if any.
func (h ConversationHistory) Last() (Turn, bool) {
	if len(h) == 0 {
		return Turn{}, false
	}
	return h[len(h)-1], true
}

// Session is the persisted state of one conversation. Known holds entity
// values learned in earlier turns, such as the user's ID.
type Session struct {
	ID        string              `json:"id"`
	History   ConversationHistory `json:"history"`
	Known     EntityBag           `json:"known,omitempty"`
	CreatedAt time.Time           `json:"createdAt"`
	UpdatedAt time.Time           `json:"updatedAt"`
}

// NewSession returns an empty session.
func NewSession(id string, now time.Time) *Session {
	return &Session{
		ID:        id,
		History:   ConversationHistory{},
		Known:     EntityBag{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}
