package store

import (
	"context"
	"sync"

	"kudakan-telegram/models"
)

type memoryEntry struct {
	token    string
	session  *models.Session
	lastView string
}

// Memory is an in-process Store used in tests and when running without a
// database (state then lives only as long as the process).
type Memory struct {
	mu sync.Mutex
	m  map[int64]*memoryEntry
}

func NewMemory() *Memory {
	return &Memory{m: make(map[int64]*memoryEntry)}
}

func (s *Memory) entry(chatID int64) *memoryEntry {
	e, ok := s.m[chatID]
	if !ok {
		e = &memoryEntry{lastView: ViewHome}
		s.m[chatID] = e
	}
	return e
}

func (s *Memory) Token(ctx context.Context, chatID int64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entry(chatID).token, nil
}

func (s *Memory) SetToken(ctx context.Context, chatID int64, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entry(chatID).token = token
	return nil
}

func (s *Memory) Session(ctx context.Context, chatID int64) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entry(chatID).session, nil
}

func (s *Memory) SetSession(ctx context.Context, chatID int64, sess *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entry(chatID).session = sess
	return nil
}

func (s *Memory) LastView(ctx context.Context, chatID int64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entry(chatID).lastView, nil
}

func (s *Memory) SetLastView(ctx context.Context, chatID int64, view string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entry(chatID).lastView = view
	return nil
}

func (s *Memory) Clear(ctx context.Context, chatID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, chatID)
	return nil
}
