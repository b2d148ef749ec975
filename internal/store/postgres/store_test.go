package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signalbot/internal/model"
)

// openTest connects to POSTGRES_TEST_DSN and skips when it is unset.
func openTest(t *testing.T) *PositionStore {
	t.Helper()
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set")
	}
	s, err := New(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestPositionStore_RoundTrip(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	coll := fmt.Sprintf("test_%d", time.Now().UnixNano())

	got, err := s.Latest(ctx, coll)
	require.NoError(t, err)
	assert.Nil(t, got)

	entry := model.PositionRecord{ID: "a", Timestamp: 1000, Action: model.ActionEntry, Direction: model.DirectionUp, EntryPrice: 100, Outcome: model.OutcomePending}
	exit := model.PositionRecord{ID: "b", Timestamp: 2000, Action: model.ActionExit, Direction: model.DirectionUp, EntryPrice: 98.4, Outcome: model.OutcomeLoss, ProfitPct: -1.6}
	require.NoError(t, s.Append(ctx, coll, exit))
	require.NoError(t, s.Append(ctx, coll, entry))

	got, err = s.Latest(ctx, coll)
	require.NoError(t, err)
	assert.Equal(t, exit, *got)

	recent, err := s.Recent(ctx, coll, 5)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "a", recent[1].ID)
}

func TestPositionStore_SameTimestampLastInsertWins(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	coll := fmt.Sprintf("test_%d", time.Now().UnixNano())

	require.NoError(t, s.Append(ctx, coll, model.PositionRecord{ID: "first", Timestamp: 7}))
	require.NoError(t, s.Append(ctx, coll, model.PositionRecord{ID: "second", Timestamp: 7}))

	got, err := s.Latest(ctx, coll)
	require.NoError(t, err)
	assert.Equal(t, "second", got.ID)
}

func TestNew_BadDSN(t *testing.T) {
	_, err := New(context.Background(), "postgres://%zz")
	assert.Error(t, err)
}
