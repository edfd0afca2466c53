package snapshot

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryStoreReplaceAndSnapshot(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	uses, err := store.Snapshot(ctx, "g1")
	require.NoError(t, err)
	require.Empty(t, uses)

	require.NoError(t, store.Replace(ctx, "g1", map[string]int{"aaa": 5, "bbb": 2}))

	uses, err = store.Snapshot(ctx, "g1")
	require.NoError(t, err)
	require.Equal(t, map[string]int{"aaa": 5, "bbb": 2}, uses)

	// Mutating the returned map must not leak into the store.
	uses["aaa"] = 99
	again, err := store.Snapshot(ctx, "g1")
	require.NoError(t, err)
	require.Equal(t, 5, again["aaa"])
}

func TestMemoryStorePatchAndRemove(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Patch(ctx, "g1", "aaa", 0))
	require.NoError(t, store.Patch(ctx, "g1", "aaa", 3))

	uses, err := store.Snapshot(ctx, "g1")
	require.NoError(t, err)
	require.Equal(t, map[string]int{"aaa": 3}, uses)

	require.NoError(t, store.Remove(ctx, "g1", "aaa"))
	require.NoError(t, store.Remove(ctx, "g1", "never-seen"))
	require.NoError(t, store.Remove(ctx, "g2", "aaa"))

	uses, err = store.Snapshot(ctx, "g1")
	require.NoError(t, err)
	require.Empty(t, uses)
}

func TestMemoryStoreGuildIsolation(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Replace(ctx, "g1", map[string]int{"aaa": 1}))
	require.NoError(t, store.Replace(ctx, "g2", map[string]int{"aaa": 7}))

	uses, err := store.Snapshot(ctx, "g1")
	require.NoError(t, err)
	require.Equal(t, 1, uses["aaa"])

	uses, err = store.Snapshot(ctx, "g2")
	require.NoError(t, err)
	require.Equal(t, 7, uses["aaa"])
}
