package swap

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")

	store, err := NewStore(path)
	require.NoError(t, err)

	record := &Record{
		ID:          "swap-1",
		CreatedAt:   time.Now().UTC(),
		SourceToken: "USDC",
		DestToken:   "WAVE",
		Amount:      "1.5",
		Owner:       "owner-pubkey",
		Signatures:  []string{"sig-1"},
		OrderID:     "order-123",
		Status:      StatusCompleted,
	}
	require.NoError(t, store.Create(record))

	err = store.Create(&Record{ID: "swap-1"})
	require.Error(t, err, "duplicate ids are rejected")

	// A fresh store instance reads the same file back.
	reopened, err := NewStore(path)
	require.NoError(t, err)
	got, err := reopened.Get("swap-1")
	require.NoError(t, err)
	assert.Equal(t, "order-123", got.OrderID)
	assert.Equal(t, StatusCompleted, got.Status)
}

func TestStoreUpdateAndList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	store, err := NewStore(path)
	require.NoError(t, err)

	older := &Record{ID: "swap-1", CreatedAt: time.Now().Add(-time.Hour), Status: StatusFailed}
	newer := &Record{ID: "swap-2", CreatedAt: time.Now(), Status: StatusCompleted}
	require.NoError(t, store.Create(older))
	require.NoError(t, store.Create(newer))

	older.Status = StatusCompleted
	require.NoError(t, store.Update(older))

	records := store.List()
	require.Len(t, records, 2)
	assert.Equal(t, "swap-2", records[0].ID, "newest first")

	require.Error(t, store.Update(&Record{ID: "missing"}))
}
