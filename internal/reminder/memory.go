package reminder

import (
	"context"
	"sync"
	"time"
)

type MemoryStore struct {
	mu    sync.RWMutex
	items []Reminder
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

func (s *MemoryStore) Add(_ context.Context, task, when string) (Reminder, error) {
	r, err := newReminder(task, when, s.now())
	if err != nil {
		return Reminder{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, r)
	return r, nil
}

func (s *MemoryStore) List(_ context.Context) ([]Reminder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Reminder(nil), s.items...), nil
}
