package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hype_trader/internal/core"
)

func TestRecordAndRecent(t *testing.T) {
	j, err := Open(filepath.Join(t.TempDir(), "decisions.db"))
	require.NoError(t, err)
	defer j.Close()

	ctx := context.Background()
	now := time.Date(2026, 8, 28, 15, 0, 0, 0, time.UTC)
	require.NoError(t, j.Record(ctx, core.JournalEntry{
		Time: now, Cycle: 1, Symbol: "AAPL", Action: "entry", Detail: "10 shares",
	}))
	require.NoError(t, j.Record(ctx, core.JournalEntry{
		Time: now.Add(time.Minute), Cycle: 2, Symbol: "AAPL", Action: "exit", Rule: "hard_stop",
	}))

	entries, err := j.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	// Newest first
	assert.Equal(t, "exit", entries[0].Action)
	assert.Equal(t, "hard_stop", entries[0].Rule)
	assert.Equal(t, int64(2), entries[0].Cycle)
	assert.Equal(t, "entry", entries[1].Action)
	assert.True(t, entries[1].Time.Equal(now))
}

func TestRecentLimit(t *testing.T) {
	j, err := Open(filepath.Join(t.TempDir(), "decisions.db"))
	require.NoError(t, err)
	defer j.Close()

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, j.Record(ctx, core.JournalEntry{
			Time: time.Now().UTC(), Cycle: int64(i), Symbol: "GME", Action: "hold",
		}))
	}

	entries, err := j.Recent(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
	assert.Equal(t, int64(4), entries[0].Cycle)
}

func TestNoopJournal(t *testing.T) {
	var j Noop
	assert.NoError(t, j.Record(context.Background(), core.JournalEntry{Symbol: "AAPL"}))
	assert.NoError(t, j.Close())
}
