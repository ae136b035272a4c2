package clients

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// metaServer answers meta and spotMeta requests with empty universes.
func metaServer(t *testing.T) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"universe":[],"marginTables":[],"tokens":[]}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewHyperliquidClient(t *testing.T) {
	srv := metaServer(t)
	ctx := context.Background()

	// well-known test vector: private key 1
	const key = "0x0000000000000000000000000000000000000000000000000000000000000001"

	c, err := NewHyperliquidClient(ctx, key, srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "0x7E5F4552091A69125d5DfCb7b8C2659029395Bdf", c.AccountAddress())
	assert.True(t, c.CanTrade())
	assert.NotNil(t, c.Info())

	ro, err := NewHyperliquidClient(ctx, "", srv.URL)
	require.NoError(t, err)
	assert.False(t, ro.CanTrade())
	assert.NotEmpty(t, ro.AccountAddress())

	_, err = NewHyperliquidClient(ctx, "not-hex", srv.URL)
	require.Error(t, err)
}

func TestNewHyperliquidClient_UnreachableAPI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	var err error
	require.NotPanics(t, func() {
		_, err = NewHyperliquidClient(context.Background(), "", srv.URL)
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load hyperliquid metadata")
}
