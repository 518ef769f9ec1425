package statestore

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoelk-f/heatspace/access"
)

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()

	_, found := store.Get("temp-1")
	assert.False(t, found)

	pending := access.StoredRequestState{
		State:     access.StatePending,
		UpdatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.Set("temp-1", pending))

	got, found := store.Get("temp-1")
	require.True(t, found)
	assert.Equal(t, pending, got)

	all := store.All()
	assert.Len(t, all, 1)

	// Mutating the copy must not affect the store.
	all["temp-1"] = access.StoredRequestState{State: access.StateDenied}
	got, _ = store.Get("temp-1")
	assert.Equal(t, access.StatePending, got.State)
}

func TestFileStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "request-state.json")

	store, err := OpenFileStore(path)
	require.NoError(t, err)

	approved := access.StoredRequestState{
		State:     access.StateApproved,
		UpdatedAt: time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC),
		ExpiresAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.Set("temp-1", approved))
	require.NoError(t, store.Set("temp-2", access.StoredRequestState{
		State:     access.StatePending,
		UpdatedAt: time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC),
	}))

	// A fresh open sees everything the previous instance wrote.
	reopened, err := OpenFileStore(path)
	require.NoError(t, err)

	got, found := reopened.Get("temp-1")
	require.True(t, found)
	assert.Equal(t, access.StateApproved, got.State)
	assert.True(t, got.ExpiresAt.Equal(approved.ExpiresAt))
	assert.Len(t, reopened.All(), 2)
}

func TestOpenFileStore_MissingFileIsEmpty(t *testing.T) {
	store, err := OpenFileStore(filepath.Join(t.TempDir(), "does-not-exist.json"))
	require.NoError(t, err)
	assert.Empty(t, store.All())
}

func TestOpenFileStore_CorruptFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := OpenFileStore(path)
	assert.Error(t, err)
}
