package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serialexp/dbui/pkg/dbuierrors"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestStoreEmptyOnFirstLoad(t *testing.T) {
	store := newTestStore(t)

	connections, err := store.LoadConnections()
	require.NoError(t, err)
	assert.Empty(t, connections)

	categories, err := store.LoadCategories()
	require.NoError(t, err)
	assert.Empty(t, categories)
}

func TestStoreConnectionRoundTrip(t *testing.T) {
	store := newTestStore(t)

	db := "mydb"
	cfg := NewConnectionConfig("prod", Postgres, "db.internal", 5432, "app", "secret", &db, nil)
	_, err := store.AddConnection(cfg)
	require.NoError(t, err)

	got, err := store.GetConnection(cfg.ID)
	require.NoError(t, err)
	assert.Equal(t, cfg.Name, got.Name)
	assert.Equal(t, Postgres, got.Type)
	assert.Equal(t, uint16(5432), got.Port)
	require.NotNil(t, got.Database)
	assert.Equal(t, "mydb", *got.Database)

	// A second store over the same directory sees the saved data.
	reopened, err := NewStore(store.Dir())
	require.NoError(t, err)
	connections, err := reopened.LoadConnections()
	require.NoError(t, err)
	require.Len(t, connections, 1)
	assert.Equal(t, cfg.ID, connections[0].ID)
}

func TestStoreUpdateConnection(t *testing.T) {
	store := newTestStore(t)

	cfg := NewConnectionConfig("old", MySQL, "localhost", 3306, "root", "", nil, nil)
	_, err := store.AddConnection(cfg)
	require.NoError(t, err)

	cfg.Name = "renamed"
	_, err = store.UpdateConnection(cfg)
	require.NoError(t, err)

	got, err := store.GetConnection(cfg.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Name)

	missing := cfg
	missing.ID = "missing"
	_, err = store.UpdateConnection(missing)
	assert.True(t, dbuierrors.IsNotFound(err))
}

func TestStoreRemoveConnection(t *testing.T) {
	store := newTestStore(t)

	cfg := NewConnectionConfig("gone", SQLite, "/tmp/x.db", 0, "", "", nil, nil)
	_, err := store.AddConnection(cfg)
	require.NoError(t, err)

	require.NoError(t, store.RemoveConnection(cfg.ID))
	_, err = store.GetConnection(cfg.ID)
	assert.True(t, dbuierrors.IsNotFound(err))

	assert.True(t, dbuierrors.IsNotFound(store.RemoveConnection(cfg.ID)))
}

func TestStoreRemoveCategoryClearsReferences(t *testing.T) {
	store := newTestStore(t)

	cat := NewCategory("staging", "#00ff00")
	_, err := store.AddCategory(cat)
	require.NoError(t, err)

	cfg := NewConnectionConfig("staging-db", Postgres, "localhost", 5432, "app", "", nil, &cat.ID)
	_, err = store.AddConnection(cfg)
	require.NoError(t, err)

	require.NoError(t, store.RemoveCategory(cat.ID))

	got, err := store.GetConnection(cfg.ID)
	require.NoError(t, err)
	assert.Nil(t, got.CategoryID)

	categories, err := store.LoadCategories()
	require.NoError(t, err)
	assert.Empty(t, categories)
}
