package reminder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileStore keeps every reminder in a single JSON array file. The file is the
// source of truth: it is read on every List and rewritten on every Add.
type FileStore struct {
	path string
	mu   sync.RWMutex
	now  func() time.Time
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, now: time.Now}
}

func (s *FileStore) Add(_ context.Context, task, when string) (Reminder, error) {
	r, err := newReminder(task, when, s.now())
	if err != nil {
		return Reminder{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// An unreadable file is never overwritten.
	items, err := s.read()
	if err != nil {
		return Reminder{}, err
	}
	items = append(items, r)

	if err := s.write(items); err != nil {
		return Reminder{}, err
	}
	return r, nil
}

func (s *FileStore) List(_ context.Context) ([]Reminder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read()
}

func (s *FileStore) read() ([]Reminder, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read reminders: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	var items []Reminder
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode reminders %s: %w", s.path, err)
	}
	return items, nil
}

func (s *FileStore) write(items []Reminder) error {
	data, err := json.MarshalIndent(items, "", "    ")
	if err != nil {
		return fmt.Errorf("encode reminders: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".reminders-*.json")
	if err != nil {
		return fmt.Errorf("write reminders: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write reminders: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write reminders: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("write reminders: %w", err)
	}
	return nil
}
