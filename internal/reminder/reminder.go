package reminder

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrEmptyTask = errors.New("reminder task is empty")

type Reminder struct {
	ID        string    `json:"id"`
	Task      string    `json:"task"`
	When      string    `json:"when,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is an append-only, insertion-ordered reminder collection.
type Store interface {
	Add(ctx context.Context, task, when string) (Reminder, error)
	List(ctx context.Context) ([]Reminder, error)
}

func newReminder(task, when string, now time.Time) (Reminder, error) {
	task = strings.TrimSpace(task)
	if task == "" {
		return Reminder{}, ErrEmptyTask
	}
	return Reminder{
		ID:        uuid.NewString(),
		Task:      task,
		When:      strings.TrimSpace(when),
		CreatedAt: now.UTC().Truncate(time.Second),
	}, nil
}
