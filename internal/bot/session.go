// internal/bot/session.go
package bot

import "sync"

// PendingAction is the one piece of conversational context the menus
// need: whether the next coin selection completes an all-in buy or an
// all-out sell.
type PendingAction int

const (
	ActionNone PendingAction = iota
	ActionBuyAll
	ActionSellAll
)

// Session is per-conversation state, keyed by chat id. Nothing here
// survives a restart.
type Session struct {
	Pending PendingAction
}

// Sessions hands out per-chat sessions, safely across goroutines.
type Sessions struct {
	mu     sync.Mutex
	byChat map[int64]*Session
}

// NewSessions creates an empty session store.
func NewSessions() *Sessions {
	return &Sessions{byChat: make(map[int64]*Session)}
}

// SetPending records the action the next coin selection should
// complete for this chat.
func (s *Sessions) SetPending(chatID int64, action PendingAction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.byChat[chatID]
	if !ok {
		sess = &Session{}
		s.byChat[chatID] = sess
	}
	sess.Pending = action
}

// TakePending returns the chat's pending action and clears it: a
// selection consumes its context exactly once.
func (s *Sessions) TakePending(chatID int64) PendingAction {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.byChat[chatID]
	if !ok {
		return ActionNone
	}
	action := sess.Pending
	sess.Pending = ActionNone
	return action
}

// Pending reports the chat's pending action without consuming it.
func (s *Sessions) Pending(chatID int64) PendingAction {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.byChat[chatID]; ok {
		return sess.Pending
	}
	return ActionNone
}
