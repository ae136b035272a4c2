package history

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/voldca/internal/domain"
	"go.uber.org/zap"
)

type store interface {
	Load(ctx context.Context, asset string) ([]domain.TradeRecord, error)
	Append(ctx context.Context, asset string, rec domain.TradeRecord) error
}

func records(n int) []domain.TradeRecord {
	start := time.Date(2024, 1, 1, 9, 30, 15, 0, time.UTC)
	out := make([]domain.TradeRecord, n)
	for i := range out {
		out[i] = domain.TradeRecord{
			Timestamp:   start.AddDate(0, 0, 7*i),
			Asset:       "BTC",
			Price:       decimal.NewFromInt(int64(40000 + i*1000)),
			QuoteAmount: decimal.RequireFromString("125.5"),
			BaseAmount:  decimal.RequireFromString("0.00313"),
			Volatility:  float64(30 + i),
			ExternalRef: "0xabc",
		}
	}
	return out
}

func assertSameRecords(t *testing.T, want, got []domain.TradeRecord) {
	t.Helper()

	require.Len(t, got, len(want))
	for i := range want {
		assert.True(t, want[i].Timestamp.Equal(got[i].Timestamp), "timestamp %d", i)
		assert.Equal(t, want[i].Asset, got[i].Asset)
		assert.True(t, want[i].Price.Equal(got[i].Price), "price %d", i)
		assert.True(t, want[i].QuoteAmount.Equal(got[i].QuoteAmount), "quote %d", i)
		assert.True(t, want[i].BaseAmount.Equal(got[i].BaseAmount), "base %d", i)
		assert.InDelta(t, want[i].Volatility, got[i].Volatility, 1e-12)
		assert.Equal(t, want[i].ExternalRef, got[i].ExternalRef)
	}
}

func stores(t *testing.T) map[string]store {
	t.Helper()

	js, err := NewJSONStore(zap.NewNop(), t.TempDir())
	require.NoError(t, err)

	sq, err := NewSQLiteStore(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sq.Close() })

	return map[string]store{"json": js, "sqlite": sq}
}

func TestStores_RoundTrip(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			empty, err := s.Load(ctx, "BTC")
			require.NoError(t, err)
			assert.Empty(t, empty)

			want := records(5)
			for _, r := range want {
				require.NoError(t, s.Append(ctx, "BTC", r))
			}

			got, err := s.Load(ctx, "BTC")
			require.NoError(t, err)
			assertSameRecords(t, want, got)

			other, err := s.Load(ctx, "ETH")
			require.NoError(t, err)
			assert.Empty(t, other)
		})
	}
}

func TestJSONStore_RestoresBackupOnFailedWrite(t *testing.T) {
	dir := t.TempDir()
	s, err := NewJSONStore(zap.NewNop(), dir)
	require.NoError(t, err)
	ctx := context.Background()

	want := records(2)
	for _, r := range want {
		require.NoError(t, s.Append(ctx, "BTC", r))
	}

	// a directory in place of the temp file makes the write fail
	require.NoError(t, os.Mkdir(s.Path("BTC")+".tmp", 0o755))

	err = s.Append(ctx, "BTC", records(3)[2])
	require.Error(t, err)

	got, err := s.Load(ctx, "BTC")
	require.NoError(t, err)
	assertSameRecords(t, want, got)
}

func TestJSONStore_FallsBackToBackup(t *testing.T) {
	s, err := NewJSONStore(zap.NewNop(), t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	want := records(2)
	for _, r := range want {
		require.NoError(t, s.Append(ctx, "BTC", r))
	}

	// the backup holds the first record only
	require.NoError(t, os.WriteFile(s.Path("BTC"), []byte("{broken"), 0o644))

	got, err := s.Load(ctx, "BTC")
	require.NoError(t, err)
	assertSameRecords(t, want[:1], got)
}

func TestJSONStore_CorruptWithoutBackup(t *testing.T) {
	s, err := NewJSONStore(zap.NewNop(), t.TempDir())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(s.Path("BTC"), []byte("not json"), 0o644))

	_, err = s.Load(context.Background(), "BTC")
	require.Error(t, err)
}
