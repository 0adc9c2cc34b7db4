package memory

import (
	"context"
	"sync"

	"github.com/dhanalakshmipoojary/quiz-managment/internal/app"
)

// SessionStore is an in-memory implementation of app.SessionRepository.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*app.Session),
	}
}

func (s *SessionStore) Put(_ context.Context, session *app.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID()] = session
	return nil
}

func (s *SessionStore) Get(sessionID string) (*app.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	return session, ok
}

func (s *SessionStore) Delete(_ context.Context, sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}

func (s *SessionStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// DraftStore is an in-memory implementation of app.DraftRepository.
type DraftStore struct {
	mu     sync.RWMutex
	drafts map[string]*app.QuizBuilder
}

func NewDraftStore() *DraftStore {
	return &DraftStore{drafts: make(map[string]*app.QuizBuilder)}
}

func (s *DraftStore) Put(draft *app.QuizBuilder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts[draft.ID()] = draft
}

func (s *DraftStore) Get(draftID string) (*app.QuizBuilder, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	draft, ok := s.drafts[draftID]
	return draft, ok
}

func (s *DraftStore) Delete(draftID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, draftID)
}
