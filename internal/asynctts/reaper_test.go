package asynctts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestReaperStartStopDoesNotPanic(t *testing.T) {
	store := newTestStore(t)
	r := NewReaper(store, 7*24*time.Hour, zap.NewNop())
	assert.NotPanics(t, func() {
		r.Start()
		r.Stop()
	})
}

func TestStoreReapDeletesOldTerminalRowsOnly(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Create(&Task{TaskID: "old"}))
	require.NoError(t, store.CompleteSuccess("old", "/tmp/old.wav", nil))
	require.NoError(t, store.db.Model(&Task{}).Where("task_id = ?", "old").
		Update("created_at", time.Now().Add(-10*24*time.Hour)).Error)

	require.NoError(t, store.Create(&Task{TaskID: "fresh"}))
	require.NoError(t, store.CompleteSuccess("fresh", "/tmp/fresh.wav", nil))

	require.NoError(t, store.Create(&Task{TaskID: "still-running"}))

	n, err := store.Reap(7 * 24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = store.Get("old")
	require.NoError(t, err)
	got, err := store.Get("old")
	require.NoError(t, err)
	assert.Nil(t, got)

	fresh, err := store.Get("fresh")
	require.NoError(t, err)
	assert.NotNil(t, fresh)

	running, err := store.Get("still-running")
	require.NoError(t, err)
	assert.NotNil(t, running)
}
