package core

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestExecuteSQLWriteStatements(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	result, err := ExecuteSQL(ctx, db, "CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT)")
	require.NoError(t, err)
	assert.Equal(t, "0 row(s) affected.", result.Message)
	assert.Empty(t, result.Rows)

	result, err = ExecuteSQL(ctx, db, "INSERT INTO users (name) VALUES ('alice'), ('bob')")
	require.NoError(t, err)
	assert.Equal(t, "2 row(s) affected.", result.Message)
	assert.Equal(t, 0, result.RowCount)

	result, err = ExecuteSQL(ctx, db, "UPDATE users SET name = 'carol' WHERE name = 'alice'")
	require.NoError(t, err)
	assert.Equal(t, "1 row(s) affected.", result.Message)
}

func TestExecuteSQLSelect(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := ExecuteSQL(ctx, db, "CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT)")
	require.NoError(t, err)
	_, err = ExecuteSQL(ctx, db, "INSERT INTO users (name) VALUES ('alice'), ('bob')")
	require.NoError(t, err)

	result, err := ExecuteSQL(ctx, db, "SELECT id, name FROM users ORDER BY id")
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name"}, result.Columns)
	require.Len(t, result.Rows, 2)
	assert.Equal(t, 2, result.RowCount)
	assert.Empty(t, result.Message)
	assert.Equal(t, int64(1), result.Rows[0][0])
	assert.Equal(t, "alice", result.Rows[0][1])
	assert.True(t, result.Valid())
}

func TestExecuteSQLEmptyResultSet(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := ExecuteSQL(ctx, db, "CREATE TABLE users (id INTEGER PRIMARY KEY)")
	require.NoError(t, err)

	result, err := ExecuteSQL(ctx, db, "SELECT * FROM users")
	require.NoError(t, err)
	assert.Equal(t, "0 row(s) affected.", result.Message)
	assert.Empty(t, result.Rows)
	assert.Equal(t, 0, result.RowCount)
}

func TestExecuteSQLInsertReturning(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := ExecuteSQL(ctx, db, "CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT)")
	require.NoError(t, err)

	// RETURNING routes a write statement through the row-reading path.
	result, err := ExecuteSQL(ctx, db, "INSERT INTO users (name) VALUES ('alice') RETURNING id")
	require.NoError(t, err)
	assert.Equal(t, []string{"id"}, result.Columns)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, int64(1), result.Rows[0][0])
}

func TestExecuteSQLNullValues(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := ExecuteSQL(ctx, db, "CREATE TABLE t (v TEXT)")
	require.NoError(t, err)
	_, err = ExecuteSQL(ctx, db, "INSERT INTO t (v) VALUES (NULL)")
	require.NoError(t, err)

	result, err := ExecuteSQL(ctx, db, "SELECT v FROM t")
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)
	assert.Nil(t, result.Rows[0][0])
}

func TestExecuteSQLSyntaxError(t *testing.T) {
	db := openTestDB(t)

	_, err := ExecuteSQL(context.Background(), db, "SELEC nonsense")
	assert.Error(t, err)
}
