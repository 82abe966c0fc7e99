// ABOUTME: Tests for SQLite store implementation
// ABOUTME: Covers value CRUD, directory creation, isolation between sessions and pruning

package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewSQLiteStore_CreatesDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "subdir", "nested", "test.db")

	s, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(dbPath)
	assert.NoError(t, err, "database file should exist in nested directory")
}

func TestSQLiteStore_InMemory(t *testing.T) {
	s, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	require.NoError(t, s.Set(ctx, "slack-C1-U1", "chatOnGoing", []byte("true")))

	got, err := s.Get(ctx, "slack-C1-U1", "chatOnGoing")
	require.NoError(t, err)
	assert.Equal(t, []byte("true"), got)
}

func TestSQLiteStore_GetMissing(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Get(context.Background(), "slack-C1-U1", "nothing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStore_SetOverwrites(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "sess", "noResultsCount", []byte("1")))
	require.NoError(t, s.Set(ctx, "sess", "noResultsCount", []byte("2")))

	got, err := s.Get(ctx, "sess", "noResultsCount")
	require.NoError(t, err)
	assert.Equal(t, []byte("2"), got)
}

func TestSQLiteStore_SessionsAreIsolated(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "slack-C1-U1", "k", []byte("a")))
	require.NoError(t, s.Set(ctx, "slack-C1-U2", "k", []byte("b")))

	a, err := s.Get(ctx, "slack-C1-U1", "k")
	require.NoError(t, err)
	b, err := s.Get(ctx, "slack-C1-U2", "k")
	require.NoError(t, err)
	assert.Equal(t, "a", string(a))
	assert.Equal(t, "b", string(b))
}

func TestSQLiteStore_Delete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "sess", "k", []byte("v")))
	require.NoError(t, s.Delete(ctx, "sess", "k"))

	_, err := s.Get(ctx, "sess", "k")
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting again is fine
	assert.NoError(t, s.Delete(ctx, "sess", "k"))
}

func TestSQLiteStore_Prune(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "old", "k", []byte("v")))
	cutoff := time.Now().Add(10 * time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, s.Set(ctx, "fresh", "k", []byte("v")))

	n, err := s.Prune(ctx, cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = s.Get(ctx, "old", "k")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Get(ctx, "fresh", "k")
	assert.NoError(t, err)
}

func TestSQLiteStore_PruneKeepsSessionWithRecentKey(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "sess", "a", []byte("1")))
	cutoff := time.Now().Add(10 * time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, s.Set(ctx, "sess", "b", []byte("2")))

	n, err := s.Prune(ctx, cutoff)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = s.Get(ctx, "sess", "a")
	assert.NoError(t, err)
}
