package internal

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vadiminshakov/voldca/config"
	"github.com/vadiminshakov/voldca/internal/clients"
)

func hyperliquidMeta(t *testing.T) string {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"universe":[],"marginTables":[],"tokens":[]}`))
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func simulateConfig(t *testing.T) config.Config {
	t.Helper()

	dir := t.TempDir()
	return config.Config{
		Platform:       config.PlatformSimulate,
		Quote:          "USDC",
		HyperliquidURL: hyperliquidMeta(t),
		HistoryBackend: config.HistorySQLite,
		HistoryPath:    filepath.Join(dir, "history.db"),
		JournalDir:     filepath.Join(dir, "journal"),
		SimulateDir:    filepath.Join(dir, "simulate"),
	}
}

func TestNewServices(t *testing.T) {
	cfg := simulateConfig(t)
	cfg.BinanceFallback = true
	cfg.BybitFallback = true

	s, err := NewServices(context.Background(), zap.NewNop(), cfg)
	require.NoError(t, err)
	assert.NotNil(t, s.Prices)
	assert.NotNil(t, s.History)
	assert.NotNil(t, s.Trader)
	assert.NotNil(t, s.Store)
	assert.NotNil(t, s.Journal)
	require.NoError(t, s.Close())
}

func TestNewServices_UnreachableRedis(t *testing.T) {
	cfg := simulateConfig(t)
	cfg.Cache.RedisAddr = "127.0.0.1:1"

	var (
		s   *Services
		err error
	)
	require.NotPanics(t, func() {
		s, err = NewServices(context.Background(), zap.NewNop(), cfg)
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis")
	assert.Nil(t, s)
}

func TestNewServices_LaterFailureReturnsError(t *testing.T) {
	cfg := simulateConfig(t)
	blocker := filepath.Join(t.TempDir(), "journal")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
	cfg.JournalDir = blocker

	var err error
	require.NotPanics(t, func() {
		_, err = NewServices(context.Background(), zap.NewNop(), cfg)
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decision journal")
}

func TestServicesClose(t *testing.T) {
	var order []string
	s := &Services{closers: []func() error{
		func() error { order = append(order, "cache"); return nil },
		func() error { order = append(order, "store"); return errors.New("busy") },
		func() error { order = append(order, "journal"); return nil },
	}}

	require.EqualError(t, s.Close(), "busy")
	assert.Equal(t, []string{"journal", "store", "cache"}, order)
	require.NoError(t, s.Close())

	var none *Services
	require.NoError(t, none.Close())
}

func TestSources_FallbackOrder(t *testing.T) {
	hl, err := clients.NewHyperliquidClient(context.Background(), "", hyperliquidMeta(t))
	require.NoError(t, err)

	names := func(fb fallbacks) []string {
		var out []string
		for _, n := range priceSources(hl, fb, nil) {
			out = append(out, n.Name)
		}
		for _, n := range historySources(hl, fb, nil) {
			out = append(out, n.Name)
		}
		return out
	}

	assert.Equal(t, []string{"hyperliquid", "hyperliquid"}, names(fallbacks{}))
	assert.Equal(t, []string{"hyperliquid", "bybit", "hyperliquid", "bybit"},
		names(fallbacks{bybit: clients.NewBybitPublicClient()}))
	assert.Equal(t, []string{"hyperliquid", "binance", "bybit", "hyperliquid", "binance", "bybit"},
		names(fallbacks{binance: clients.NewBinancePublicClient(), bybit: clients.NewBybitPublicClient()}))
}
