package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signalbot/internal/model"
)

func openTemp(t *testing.T) *PositionStore {
	t.Helper()
	s, err := New(Config{DBPath: filepath.Join(t.TempDir(), "signals.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestPositionStore_EmptyCollection(t *testing.T) {
	s := openTemp(t)
	rec, err := s.Latest(context.Background(), "signals")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestPositionStore_LatestByTimestamp(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	entry := model.PositionRecord{ID: "a", Timestamp: 2000, Action: model.ActionEntry, Direction: model.DirectionUp, EntryPrice: 100, StopLoss: 98.5, TakeProfit: 103, Outcome: model.OutcomePending}
	exit := model.PositionRecord{ID: "b", Timestamp: 3000, Action: model.ActionExit, Direction: model.DirectionUp, EntryPrice: 103, Outcome: model.OutcomeWin, ProfitPct: 3}
	older := model.PositionRecord{ID: "c", Timestamp: 1000, Action: model.ActionEntry, Direction: model.DirectionDown, EntryPrice: 90}

	require.NoError(t, s.Append(ctx, "signals", entry))
	require.NoError(t, s.Append(ctx, "signals", exit))
	require.NoError(t, s.Append(ctx, "signals", older))

	got, err := s.Latest(ctx, "signals")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, exit, *got)

	recent, err := s.Recent(ctx, "signals", 10)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, []string{"b", "a", "c"}, []string{recent[0].ID, recent[1].ID, recent[2].ID})
}

func TestPositionStore_SameTimestampLastInsertWins(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, "signals", model.PositionRecord{ID: "first", Timestamp: 5000}))
	require.NoError(t, s.Append(ctx, "signals", model.PositionRecord{ID: "second", Timestamp: 5000}))

	got, err := s.Latest(ctx, "signals")
	require.NoError(t, err)
	assert.Equal(t, "second", got.ID)
}

func TestPositionStore_CollectionsAreIsolated(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, "btc", model.PositionRecord{ID: "x", Timestamp: 1}))

	got, err := s.Latest(ctx, "eth")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestPositionStore_LegacyRow(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	_, err := s.DB().Exec(`INSERT INTO positions (collection, ts, data) VALUES (?, ?, ?)`,
		"signals", 1700000000000, `{"timestamp":1700000000000,"direction":"UP","entryPrice":100,"signal_type":"UP"}`)
	require.NoError(t, err)

	got, err := s.Latest(ctx, "signals")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Empty(t, got.Action)
	assert.Equal(t, model.DirectionUp, got.Direction)
	assert.Equal(t, 100.0, got.EntryPrice)
}

func TestPositionStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "signals.db")
	ctx := context.Background()

	s, err := New(Config{DBPath: path})
	require.NoError(t, err)
	require.NoError(t, s.Append(ctx, "signals", model.PositionRecord{ID: "kept", Timestamp: 42}))
	require.NoError(t, s.Close())

	s, err = New(Config{DBPath: path})
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Latest(ctx, "signals")
	require.NoError(t, err)
	assert.Equal(t, "kept", got.ID)
}
