package redisdb

import (
	"context"
	"strconv"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serialexp/dbui/pkg/config"
)

func newTestDriver(t *testing.T) (*miniredis.Miniredis, *Driver) {
	t.Helper()
	m := miniredis.RunT(t)
	port, err := strconv.Atoi(m.Port())
	require.NoError(t, err)
	cfg := config.NewConnectionConfig("test", config.Redis, m.Host(), uint16(port), "", "", nil, nil)
	drv, err := Open(context.Background(), &cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = drv.Close(context.Background()) })
	return m, drv
}

func TestExecuteQueryDatabaseArgument(t *testing.T) {
	m, drv := newTestDriver(t)
	ctx := context.Background()
	require.NoError(t, m.DB(3).Set("greeting", "from-db-3"))

	result, err := drv.ExecuteQuery(ctx, "GET greeting", "3")
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, "from-db-3", result.Rows[0][0])

	// The handle stays on the selected database.
	result, err = drv.ExecuteQuery(ctx, "GET greeting", "")
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, "from-db-3", result.Rows[0][0])

	// Selecting back to 0 no longer sees the key.
	result, err = drv.ExecuteQuery(ctx, "GET greeting", "0")
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)
	assert.Nil(t, result.Rows[0][0])
}

func TestExecuteQueryInvalidDatabaseArgument(t *testing.T) {
	_, drv := newTestDriver(t)

	_, err := drv.ExecuteQuery(context.Background(), "GET greeting", "primary")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid database index")
}

func TestExecuteQuerySelectCommand(t *testing.T) {
	m, drv := newTestDriver(t)
	ctx := context.Background()
	require.NoError(t, m.DB(2).Set("k", "v2"))

	result, err := drv.ExecuteQuery(ctx, "SELECT 2", "")
	require.NoError(t, err)
	assert.Equal(t, "Switched to database 2", result.Message)

	result, err = drv.ExecuteQuery(ctx, "GET k", "")
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, "v2", result.Rows[0][0])
}

func TestExecuteQueryServerError(t *testing.T) {
	_, drv := newTestDriver(t)

	result, err := drv.ExecuteQuery(context.Background(), "HGET onlykey", "")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(result.Message, "Server error:"), result.Message)
}

// browseCursor extracts the cursor from a continuation message.
func browseCursor(t *testing.T, message string) string {
	t.Helper()
	rest, ok := strings.CutPrefix(message, "Next cursor: ")
	require.True(t, ok, message)
	cursor, _, ok := strings.Cut(rest, " ")
	require.True(t, ok, message)
	return cursor
}

func TestBrowsePagination(t *testing.T) {
	m, drv := newTestDriver(t)
	ctx := context.Background()

	want := map[string]bool{}
	for _, k := range []string{"a", "b", "c", "d", "e", "f"} {
		require.NoError(t, m.Set(k, "v"))
		want[k] = true
	}

	seen := map[string]bool{}
	cursor := "0"
	for i := 0; i < 20; i++ {
		result, err := drv.ExecuteQuery(ctx, "BROWSE "+cursor+" COUNT 2", "")
		require.NoError(t, err)
		assert.Equal(t, []string{"key", "type"}, result.Columns)
		for _, row := range result.Rows {
			seen[row[0].(string)] = true
			assert.Equal(t, "string", row[1])
		}
		if result.Message == "Scan complete" {
			break
		}
		cursor = browseCursor(t, result.Message)
		assert.NotEqual(t, "0", cursor)
	}
	assert.Equal(t, want, seen)
}

func TestBrowseMatchAndType(t *testing.T) {
	m, drv := newTestDriver(t)
	ctx := context.Background()
	require.NoError(t, m.Set("user:1", "alice"))
	require.NoError(t, m.Set("user:2", "bob"))
	m.HSet("sessions", "s1", "live")

	result, err := drv.ExecuteQuery(ctx, `BROWSE MATCH user:*`, "")
	require.NoError(t, err)
	assert.Equal(t, "Scan complete", result.Message)
	require.Len(t, result.Rows, 2)
	for _, row := range result.Rows {
		assert.True(t, strings.HasPrefix(row[0].(string), "user:"))
		assert.Equal(t, "string", row[1])
	}

	result, err = drv.ExecuteQuery(ctx, "BROWSE TYPE hash", "")
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, "sessions", result.Rows[0][0])
	assert.Equal(t, "hash", result.Rows[0][1])
}

func TestBrowseDatabaseArgument(t *testing.T) {
	m, drv := newTestDriver(t)
	ctx := context.Background()
	require.NoError(t, m.DB(5).Set("only-in-5", "v"))

	result, err := drv.ExecuteQuery(ctx, "BROWSE", "5")
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, "only-in-5", result.Rows[0][0])
}
