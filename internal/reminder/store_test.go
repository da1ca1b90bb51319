package reminder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stores(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()

	sq, err := NewSQLiteStore(filepath.Join(dir, "reminders.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sq.Close() })

	return map[string]Store{
		"memory": NewMemoryStore(),
		"file":   NewFileStore(filepath.Join(dir, "reminders.json")),
		"sqlite": sq,
	}
}

func TestStoreAddThenListKeepsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			empty, err := s.List(ctx)
			require.NoError(t, err)
			assert.Empty(t, empty)

			first, err := s.Add(ctx, "buy milk", "at 5 pm")
			require.NoError(t, err)
			assert.NotEmpty(t, first.ID)
			_, err = s.Add(ctx, "call mom", "")
			require.NoError(t, err)
			_, err = s.Add(ctx, "buy milk", "at 5 pm")
			require.NoError(t, err)

			got, err := s.List(ctx)
			require.NoError(t, err)
			require.Len(t, got, 3)
			assert.Equal(t, "buy milk", got[0].Task)
			assert.Equal(t, "at 5 pm", got[0].When)
			assert.Equal(t, first.ID, got[0].ID)
			assert.Equal(t, "call mom", got[1].Task)
			assert.Empty(t, got[1].When)
			assert.Equal(t, "buy milk", got[2].Task)
			assert.NotEqual(t, got[0].ID, got[2].ID)
		})
	}
}

func TestStoreRejectsEmptyTask(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Add(ctx, "   ", "tomorrow")
			assert.ErrorIs(t, err, ErrEmptyTask)

			got, err := s.List(ctx)
			require.NoError(t, err)
			assert.Empty(t, got)
		})
	}
}

func TestStoreConcurrentAdds(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			var wg sync.WaitGroup
			for i := 0; i < 20; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					_, err := s.Add(ctx, fmt.Sprintf("task %d", i), "")
					assert.NoError(t, err)
				}(i)
			}
			wg.Wait()

			got, err := s.List(ctx)
			require.NoError(t, err)
			assert.Len(t, got, 20)
		})
	}
}

func TestFileStorePersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "reminders.json")

	s := NewFileStore(path)
	s.now = func() time.Time { return time.Date(2024, 8, 15, 10, 0, 0, 0, time.UTC) }
	_, err := s.Add(ctx, "water plants", "tonight")
	require.NoError(t, err)

	got, err := NewFileStore(path).List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "water plants", got[0].Task)
	assert.True(t, got[0].CreatedAt.Equal(time.Date(2024, 8, 15, 10, 0, 0, 0, time.UTC)))
}

func TestFileStoreEmptyFileIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reminders.json")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	got, err := NewFileStore(path).List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFileStoreCorruptFileIsUnreadable(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "reminders.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	s := NewFileStore(path)
	_, err := s.List(ctx)
	assert.Error(t, err)

	_, err = s.Add(ctx, "feed cat", "")
	assert.Error(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{not json", string(data), "corrupt file must not be overwritten")
}

func TestFileStoreWriteFailure(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "missing-dir", "reminders.json"))
	_, err := s.Add(context.Background(), "feed cat", "")
	assert.Error(t, err)
}
