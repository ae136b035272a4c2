package decisions

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/voldca/internal/domain"
)

func TestWALStore_SaveAndRead(t *testing.T) {
	dir := t.TempDir()
	store, err := NewWALStore(dir)
	require.NoError(t, err)

	ts := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	skipped := domain.NewCycleEvent("a", ts, domain.Outcome{Asset: "BTC"}.Skip(domain.StageGated, "not due"))
	failed := domain.NewCycleEvent("b", ts, domain.Outcome{Asset: "ETH", FinalAmount: decimal.NewFromInt(40)}.
		Fail(domain.StageBalancing, "insufficient funds", assert.AnError))

	require.NoError(t, store.SaveCycle(skipped))
	require.NoError(t, store.SaveCycle(failed))
	require.Error(t, store.SaveCycle(domain.CycleEvent{}))

	all, err := store.EventsAfter(0, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].Event.ID)
	assert.Equal(t, domain.OutcomeFailed, all[1].Event.Status)
	assert.True(t, all[1].Event.FinalAmount.Equal(decimal.NewFromInt(40)))

	eth, err := store.EventsAfter(0, "eth")
	require.NoError(t, err)
	require.Len(t, eth, 1)
	assert.Equal(t, domain.StageBalancing, eth[0].Event.Stage)

	after, err := store.EventsAfter(store.CurrentIndex(), "")
	require.NoError(t, err)
	assert.Empty(t, after)

	last, ok, err := store.LastCycle("ETH")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "b", last.ID)

	_, ok, err = store.LastCycle("SOL")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Close())

	reopened, err := NewWALStore(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })
	assert.Equal(t, uint64(2), reopened.CurrentIndex())
}
