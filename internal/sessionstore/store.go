// Package sessionstore persists each agent's conversation history as one
// JSON file under ~/.slashbot/agents/.
package sessionstore

import (
	"time"

	"github.com/nextlevelbuilder/slashbot/internal/providers"
)

// Session holds the conversation state for one agent.
type Session struct {
	Key      string              `json:"key"`
	Messages []providers.Message `json:"messages"`
	Created  time.Time           `json:"created"`
	Updated  time.Time           `json:"updated"`
}

// Info is lightweight session metadata for listing.
type Info struct {
	Key          string    `json:"key"`
	MessageCount int       `json:"messageCount"`
	Created      time.Time `json:"created"`
	Updated      time.Time `json:"updated"`
}

// Store manages conversation history persistence, one session per agent.
// GetOrCreate/AddMessage/GetHistory/CompressHistory implement the history
// retention rule: retain message 0 plus the last maxContextMessages
// messages; the turn engine owns when to call CompressHistory, the store
// only owns storage.
type Store interface {
	GetOrCreate(key string) *Session
	AddMessage(key string, msg providers.Message)
	GetHistory(key string) []providers.Message
	// SetSystemMessage replaces message 0 with msg when message 0 is a
	// system message, and otherwise inserts msg at index 0. Rebuilt whenever project context, personality, or
	// work directory changes so index 0 is always the current system
	// message.
	SetSystemMessage(key string, msg providers.Message)
	// CompressHistory retains message 0 plus the last maxContextMessages
	// messages, discarding the rest. Idempotent and deterministic.
	CompressHistory(key string, maxContextMessages int)
	Reset(key string)
	Delete(key string) error
	List() []Info
	Save(key string) error
}
