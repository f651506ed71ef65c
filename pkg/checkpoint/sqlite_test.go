package checkpoint

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/restlab/paged-collection-client/pkg/collection"
)

func newSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(SQLiteConfig{
		DataSourceName: filepath.Join(t.TempDir(), "checkpoints.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestNewSQLiteStore_RequiresDataSource(t *testing.T) {
	_, err := NewSQLiteStore(SQLiteConfig{})
	assert.Error(t, err)
}

func TestSQLiteStore_SaveLoad(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()

	cursor := collection.Cursor{
		Strategy: collection.StrategyMarker,
		Marker:   "m42",
		Valid:    true,
	}
	require.NoError(t, store.Save(ctx, "files-walk", cursor))

	got, err := store.Load(ctx, "files-walk")
	require.NoError(t, err)
	assert.Equal(t, cursor, got)
}

func TestSQLiteStore_SaveOverwrites(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()

	first := collection.Cursor{Strategy: collection.StrategyOffset, Offset: 100, Valid: true}
	second := collection.Cursor{Strategy: collection.StrategyOffset, Offset: 200, Valid: true}

	require.NoError(t, store.Save(ctx, "items", first))
	require.NoError(t, store.Save(ctx, "items", second))

	got, err := store.Load(ctx, "items")
	require.NoError(t, err)
	assert.Equal(t, second, got)
}

func TestSQLiteStore_LoadMissing(t *testing.T) {
	store := newSQLiteStore(t)

	_, err := store.Load(context.Background(), "never-saved")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStore_Delete(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()

	cursor := collection.Cursor{Strategy: collection.StrategyMarker, Marker: "m1", Valid: true}
	require.NoError(t, store.Save(ctx, "items", cursor))
	require.NoError(t, store.Delete(ctx, "items"))

	_, err := store.Load(ctx, "items")
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting a missing key is not an error.
	assert.NoError(t, store.Delete(ctx, "items"))
}

func TestSQLiteStore_KeysAreIndependent(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()

	a := collection.Cursor{Strategy: collection.StrategyMarker, Marker: "ma", Valid: true}
	b := collection.Cursor{Strategy: collection.StrategyOffset, Offset: 50, Valid: true}

	require.NoError(t, store.Save(ctx, "a", a))
	require.NoError(t, store.Save(ctx, "b", b))
	require.NoError(t, store.Delete(ctx, "a"))

	got, err := store.Load(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, b, got)
}

func TestSQLiteStore_CompletedCursorRoundTrip(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()

	// An invalid cursor marks a completed iteration and must survive a
	// round trip as-is so resuming tools can tell "done" from "missing".
	done := collection.Cursor{Strategy: collection.StrategyMarker, Valid: false}
	require.NoError(t, store.Save(ctx, "finished", done))

	got, err := store.Load(ctx, "finished")
	require.NoError(t, err)
	assert.False(t, got.Valid)
	assert.Equal(t, collection.StrategyMarker, got.Strategy)
}
