package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	mgr, err := NewManager(context.Background(), filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = mgr.Close() })
	return mgr
}

func testEntry(connectionID, query string, success bool, at time.Time) Entry {
	return Entry{
		ID:              uuid.NewString(),
		ConnectionID:    connectionID,
		Database:        "app",
		Schema:          "public",
		Query:           query,
		Timestamp:       at,
		ExecutionTimeMS: 12,
		RowCount:        3,
		Success:         success,
	}
}

func TestSaveAndList(t *testing.T) {
	mgr := newTestManager(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, mgr.Save(ctx, testEntry("c1", "SELECT 1", true, now.Add(-time.Minute))))
	require.NoError(t, mgr.Save(ctx, testEntry("c1", "SELECT 2", true, now)))

	entries, err := mgr.Entries(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Newest first.
	assert.Equal(t, "SELECT 2", entries[0].Query)
	assert.Equal(t, "SELECT 1", entries[1].Query)
	assert.Equal(t, now, entries[0].Timestamp)
	assert.Equal(t, 3, entries[0].RowCount)
	assert.True(t, entries[0].Success)
}

func TestFilterByConnectionAndSuccess(t *testing.T) {
	mgr := newTestManager(t)
	ctx := context.Background()
	now := time.Now().UTC()

	failed := testEntry("c1", "SELECT broken", false, now)
	msg := "syntax error"
	failed.ErrorMessage = &msg
	require.NoError(t, mgr.Save(ctx, failed))
	require.NoError(t, mgr.Save(ctx, testEntry("c1", "SELECT ok", true, now)))
	require.NoError(t, mgr.Save(ctx, testEntry("c2", "SELECT other", true, now)))

	c1 := "c1"
	entries, err := mgr.Entries(ctx, Filter{ConnectionID: &c1})
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	yes := true
	entries, err = mgr.Entries(ctx, Filter{ConnectionID: &c1, SuccessOnly: &yes})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "SELECT ok", entries[0].Query)

	no := false
	entries, err = mgr.Entries(ctx, Filter{SuccessOnly: &no})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.NotNil(t, entries[0].ErrorMessage)
	assert.Equal(t, "syntax error", *entries[0].ErrorMessage)
}

func TestFilterByDateRange(t *testing.T) {
	mgr := newTestManager(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, mgr.Save(ctx, testEntry("c1", "old", true, now.Add(-2*time.Hour))))
	require.NoError(t, mgr.Save(ctx, testEntry("c1", "recent", true, now)))

	start := now.Add(-time.Hour)
	entries, err := mgr.Entries(ctx, Filter{StartDate: &start})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "recent", entries[0].Query)
}

func TestLimitAndOffset(t *testing.T) {
	mgr := newTestManager(t)
	ctx := context.Background()
	now := time.Now().UTC()

	for i := 0; i < 5; i++ {
		require.NoError(t, mgr.Save(ctx, testEntry("c1", "q", true, now.Add(time.Duration(i)*time.Second))))
	}

	limit := 2
	entries, err := mgr.Entries(ctx, Filter{Limit: &limit})
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	offset := 4
	entries, err = mgr.Entries(ctx, Filter{Limit: &limit, Offset: &offset})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSearch(t *testing.T) {
	mgr := newTestManager(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, mgr.Save(ctx, testEntry("c1", "SELECT name FROM users", true, now)))
	require.NoError(t, mgr.Save(ctx, testEntry("c1", "DELETE FROM sessions", true, now)))

	term := "users"
	entries, err := mgr.Search(ctx, Filter{SearchQuery: &term})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Query, "users")
}

func TestDeleteEntry(t *testing.T) {
	mgr := newTestManager(t)
	ctx := context.Background()

	entry := testEntry("c1", "SELECT 1", true, time.Now().UTC())
	require.NoError(t, mgr.Save(ctx, entry))
	require.NoError(t, mgr.Delete(ctx, entry.ID))

	entries, err := mgr.Entries(ctx, Filter{})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestClear(t *testing.T) {
	mgr := newTestManager(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, mgr.Save(ctx, testEntry("c1", "a", true, now)))
	require.NoError(t, mgr.Save(ctx, testEntry("c2", "b", true, now)))

	c1 := "c1"
	require.NoError(t, mgr.Clear(ctx, &c1))
	entries, err := mgr.Entries(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "c2", entries[0].ConnectionID)

	require.NoError(t, mgr.Clear(ctx, nil))
	entries, err = mgr.Entries(ctx, Filter{})
	require.NoError(t, err)
	assert.Empty(t, entries)
}
