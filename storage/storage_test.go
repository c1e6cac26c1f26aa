package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lineStore interface {
	Load(ctx context.Context, key string) ([]string, error)
	Save(ctx context.Context, key string, lines []string) error
	Delete(ctx context.Context, key string) error
}

func exerciseStore(t *testing.T, s lineStore) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Load(ctx, "logs")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Save(ctx, "logs", []string{"a", "b"}))
	got, err := s.Load(ctx, "logs")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)

	require.NoError(t, s.Save(ctx, "logs", []string{"c"}))
	got, err = s.Load(ctx, "logs")
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, got)

	require.NoError(t, s.Delete(ctx, "logs"))
	_, err = s.Load(ctx, "logs")
	assert.ErrorIs(t, err, ErrNotFound)

	// deleting twice is fine
	assert.NoError(t, s.Delete(ctx, "logs"))
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestMemoryStore_SaveCopiesInput(t *testing.T) {
	s := NewMemoryStore()
	lines := []string{"x"}
	require.NoError(t, s.Save(context.Background(), "k", lines))
	lines[0] = "mutated"

	got, err := s.Load(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, got)
}

func TestBadgerStore(t *testing.T) {
	s, err := OpenBadger(filepath.Join(t.TempDir(), "db"))
	require.NoError(t, err)
	defer s.Close()

	exerciseStore(t, s)
}

func TestBadgerStore_KeysAreCaseInsensitive(t *testing.T) {
	s, err := OpenBadger(filepath.Join(t.TempDir(), "db"))
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	require.NoError(t, s.Save(ctx, "Pagecast_Logs", []string{"one"}))
	got, err := s.Load(ctx, "pagecast_logs")
	require.NoError(t, err)
	assert.Equal(t, []string{"one"}, got)
}
