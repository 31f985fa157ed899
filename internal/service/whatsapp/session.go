package whatsapp

import (
	"sync"

	"github.com/mamadbah2/stockledger/pkg/clients/anthropic"
)

const defaultMaxTurns = 6

// SessionManager keeps the recent question/command turns per sender so
// follow-up questions can be resolved.
type SessionManager struct {
	sessions map[string][]anthropic.Message
	maxTurns int
	mu       sync.RWMutex
}

// NewSessionManager creates a new session manager.
func NewSessionManager(maxTurns int) *SessionManager {
	if maxTurns <= 0 {
		maxTurns = defaultMaxTurns
	}
	return &SessionManager{
		sessions: make(map[string][]anthropic.Message),
		maxTurns: maxTurns,
	}
}

// History returns a copy of the sender's recent turns.
func (sm *SessionManager) History(userID string) []anthropic.Message {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return append([]anthropic.Message(nil), sm.sessions[userID]...)
}

// Record appends one question and the command it was translated into.
func (sm *SessionManager) Record(userID, question, command string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	turns := append(sm.sessions[userID],
		anthropic.Message{Role: "user", Content: question},
		anthropic.Message{Role: "assistant", Content: command})
	if excess := len(turns) - 2*sm.maxTurns; excess > 0 {
		turns = append([]anthropic.Message(nil), turns[excess:]...)
	}
	sm.sessions[userID] = turns
}

// ClearSession removes a user's session.
func (sm *SessionManager) ClearSession(userID string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	delete(sm.sessions, userID)
}
