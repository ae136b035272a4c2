package internal

import (
	"context"
	"strings"

	binance "github.com/adshao/go-binance/v2"
	bybit "github.com/hirokisan/bybit/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/voldca/config"
	"github.com/vadiminshakov/voldca/internal/cache"
	"github.com/vadiminshakov/voldca/internal/clients"
	"github.com/vadiminshakov/voldca/internal/domain"
	"github.com/vadiminshakov/voldca/internal/notifier"
	"github.com/vadiminshakov/voldca/internal/services/executor"
	"github.com/vadiminshakov/voldca/internal/services/market/collector"
	"github.com/vadiminshakov/voldca/internal/services/pricer"
	"github.com/vadiminshakov/voldca/internal/services/trader"
	"github.com/vadiminshakov/voldca/internal/storage/decisions"
	"github.com/vadiminshakov/voldca/internal/storage/history"
	"github.com/vadiminshakov/voldca/internal/storage/simstate"
)

type orderPlacer interface {
	PlaceOrder(ctx context.Context, req domain.OrderRequest) (domain.OrderResult, error)
}

// cachedTrader serves balances from the cache and places orders directly.
type cachedTrader struct {
	*trader.CachedBalance
	orders orderPlacer
}

func (t cachedTrader) PlaceOrder(ctx context.Context, req domain.OrderRequest) (domain.OrderResult, error) {
	return t.orders.PlaceOrder(ctx, req)
}

// Services are the collaborators shared by every asset.
type Services struct {
	Prices   executor.Pricer
	History  executor.PriceHistory
	Trader   executor.Trader
	Store    executor.TradeStore
	Journal  executor.Journal
	Cycles   CycleReader
	Notifier notifier.Notifier

	closers []func() error
}

// NewServices builds feeds, trader, stores and notifier from cfg.
func NewServices(ctx context.Context, l *zap.Logger, cfg config.Config) (_ *Services, err error) {
	s := &Services{}
	defer func() {
		if err != nil {
			_ = s.Close()
		}
	}()

	c, err := newCache(ctx, cfg.Cache)
	if err != nil {
		return nil, err
	}
	if closer, ok := c.(interface{ Close() error }); ok {
		s.closers = append(s.closers, closer.Close)
	}

	markets := make(map[string]string, len(cfg.Assets))
	for _, a := range cfg.Assets {
		markets[a.Symbol] = a.Market
	}

	privateKey := cfg.PrivateKey
	if cfg.Platform == config.PlatformSimulate {
		privateKey = ""
	}
	hl, err := clients.NewHyperliquidClient(ctx, privateKey, cfg.HyperliquidURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create hyperliquid client")
	}

	fb := fallbacks{}
	if cfg.BinanceFallback {
		fb.binance = clients.NewBinancePublicClient()
	}
	if cfg.BybitFallback {
		fb.bybit = clients.NewBybitPublicClient()
	}

	s.Prices = pricer.NewCached(pricer.NewChain(l, priceSources(hl, fb, markets)...), c, cfg.Cache.PriceTTL)
	s.History = collector.NewCached(collector.NewChain(l, nil, historySources(hl, fb, markets)...), c, cfg.Cache.HistoryTTL)

	if s.Trader, err = newTrader(l, cfg, hl, s.Prices, c); err != nil {
		return nil, err
	}

	switch cfg.HistoryBackend {
	case config.HistorySQLite:
		store, err := history.NewSQLiteStore(cfg.HistoryPath)
		if err != nil {
			return nil, errors.Wrap(err, "failed to open sqlite trade history")
		}
		s.closers = append(s.closers, store.Close)
		s.Store = store
	default:
		store, err := history.NewJSONStore(l, cfg.HistoryPath)
		if err != nil {
			return nil, errors.Wrap(err, "failed to open json trade history")
		}
		s.Store = store
	}

	journal, err := decisions.NewWALStore(cfg.JournalDir)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open decision journal")
	}
	s.closers = append(s.closers, journal.Close)
	s.Journal = journal
	s.Cycles = journal

	if cfg.TelegramToken != "" && cfg.TelegramChatID != "" {
		tg := notifier.NewTelegram(l, cfg.TelegramToken, cfg.TelegramChatID)
		s.closers = append(s.closers, func() error {
			tg.Wait()
			return nil
		})
		s.Notifier = tg
	} else {
		s.Notifier = notifier.Nop{}
	}

	return s, nil
}

// Close flushes notifications and closes stores, in reverse creation order.
func (s *Services) Close() error {
	if s == nil {
		return nil
	}
	var first error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	s.closers = nil
	return first
}

func newCache(ctx context.Context, cfg config.CacheConfig) (cache.Cache, error) {
	if cfg.RedisAddr == "" {
		return cache.NewMemory(), nil
	}

	c, err := cache.NewRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RedisPrefix)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to redis cache")
	}
	return c, nil
}

// fallbacks are the public market data clients tried after Hyperliquid.
type fallbacks struct {
	binance *binance.Client
	bybit   *bybit.Client
}

func priceSources(hl *clients.HyperliquidClient, fb fallbacks, markets map[string]string) []pricer.Named {
	sources := []pricer.Named{{Name: "hyperliquid", Source: pricer.NewHyperliquidPricer(hl.Info(), markets)}}
	if fb.binance != nil {
		sources = append(sources, pricer.Named{Name: "binance", Source: pricer.NewBinancePricer(fb.binance)})
	}
	if fb.bybit != nil {
		sources = append(sources, pricer.Named{Name: "bybit", Source: pricer.NewBybitPricer(fb.bybit)})
	}
	return sources
}

func historySources(hl *clients.HyperliquidClient, fb fallbacks, markets map[string]string) []collector.Named {
	sources := []collector.Named{{Name: "hyperliquid", Source: collector.NewHyperliquidHistory(hl.Info(), markets)}}
	if fb.binance != nil {
		sources = append(sources, collector.Named{Name: "binance", Source: collector.NewBinanceHistory(fb.binance)})
	}
	if fb.bybit != nil {
		sources = append(sources, collector.Named{Name: "bybit", Source: collector.NewBybitHistory(fb.bybit)})
	}
	return sources
}

// newTrader returns nil when the platform has no account to trade with.
func newTrader(l *zap.Logger, cfg config.Config, hl *clients.HyperliquidClient, prices executor.Pricer,
	c cache.Cache) (executor.Trader, error) {
	switch cfg.Platform {
	case config.PlatformSimulate:
		store, err := simstate.NewStore(cfg.SimulateDir, "wallet")
		if err != nil {
			return nil, errors.Wrap(err, "failed to open simulate state")
		}
		sim, err := trader.NewSimulateTrader(l, prices, store, map[string]decimal.Decimal{
			strings.ToUpper(cfg.Quote): cfg.SimulateBalance,
		})
		if err != nil {
			return nil, errors.Wrap(err, "failed to create simulate trader")
		}
		return sim, nil
	default:
		if !hl.CanTrade() {
			l.Warn("no hyperliquid private key configured, purchases will fail", zap.String("env", config.EnvPrivateKey))
			return nil, nil
		}
		hlTrader, err := trader.NewHyperliquidTrader(hl.Exchange(), hl.AccountAddress())
		if err != nil {
			return nil, errors.Wrap(err, "failed to create hyperliquid trader")
		}
		return cachedTrader{
			CachedBalance: trader.NewCachedBalance(hlTrader, c, cfg.Cache.BalanceTTL),
			orders:        hlTrader,
		}, nil
	}
}
