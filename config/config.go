// Package config loads the bot configuration from YAML.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/voldca/internal/domain"
	"gopkg.in/yaml.v3"
)

const (
	PlatformHyperliquid = "hyperliquid"
	PlatformSimulate    = "simulate"

	HistoryJSON   = "json"
	HistorySQLite = "sqlite"
)

// Env variables holding secrets.
const (
	EnvPrivateKey     = "HYPERLIQUID_PRIVATE_KEY"
	EnvTelegramToken  = "TELEGRAM_BOT_TOKEN"
	EnvTelegramChatID = "TELEGRAM_CHAT_ID"
)

// asset defaults
const (
	defaultBaseAmount       = "50"
	defaultMinAmount        = "25"
	defaultMaxAmount        = "100"
	defaultFrequency        = domain.FrequencyWeekly
	defaultVolatilityWindow = 30
	defaultLowVol           = 35
	defaultHighVol          = 85
	defaultSizeDecimals     = 5
	defaultSlippage         = "0.005"
	defaultMinNotional      = "10"

	defaultRSIPeriod     = 14
	defaultRSIOversold   = 30
	defaultRSIOverbought = 70
)

var defaultMAPeriods = []int{20, 50, 200}

var defaultDipThresholds = map[int]float64{20: 0.02, 50: 0.05, 200: 0.10}

// global defaults
const (
	defaultQuote       = "USDC"
	defaultHistoryDir  = "./data/history"
	defaultHistoryDB   = "./data/history.db"
	defaultJournalDir  = "./wal/decisions"
	defaultSchedule    = "0 0 9 * * *"
	defaultSimBalance  = "1000"
	defaultPriceTTL    = time.Minute
	defaultHistoryTTL  = 5 * time.Minute
	defaultBalanceTTL  = 30 * time.Second
	defaultRedisPrefix = "voldca:"
)

// Config is the validated bot configuration.
type Config struct {
	Platform       string
	Quote          string
	HyperliquidURL string
	// BinanceFallback adds Binance public market data behind the primary feeds.
	BinanceFallback bool
	// BybitFallback adds Bybit public market data after Binance.
	BybitFallback bool
	Parallel      bool
	Schedule      string

	HistoryBackend string
	HistoryPath    string
	JournalDir     string

	SimulateDir     string
	SimulateBalance decimal.Decimal

	Cache CacheConfig

	PrivateKey     string
	TelegramToken  string
	TelegramChatID string

	// Assets are ordered by symbol.
	Assets []domain.AssetConfig
}

// CacheConfig configures the feed caches. An empty RedisAddr selects the in-memory cache.
type CacheConfig struct {
	PriceTTL      time.Duration
	HistoryTTL    time.Duration
	BalanceTTL    time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
}

// EnabledAssets returns assets that are switched on.
func (c Config) EnabledAssets() []domain.AssetConfig {
	out := make([]domain.AssetConfig, 0, len(c.Assets))
	for _, a := range c.Assets {
		if a.Enabled {
			out = append(out, a)
		}
	}
	return out
}

// Asset returns the config of symbol.
func (c Config) Asset(symbol string) (domain.AssetConfig, bool) {
	symbol = strings.ToUpper(symbol)
	for _, a := range c.Assets {
		if a.Symbol == symbol {
			return a, true
		}
	}
	return domain.AssetConfig{}, false
}

type fileConfig struct {
	Platform        string               `yaml:"platform,omitempty"`
	Quote           string               `yaml:"quote,omitempty"`
	HyperliquidURL  string               `yaml:"hyperliquid_url,omitempty"`
	BinanceFallback *bool                `yaml:"binance_fallback,omitempty"`
	BybitFallback   *bool                `yaml:"bybit_fallback,omitempty"`
	Parallel        bool                 `yaml:"parallel,omitempty"`
	Schedule        string               `yaml:"schedule,omitempty"`
	History         historyFile          `yaml:"history,omitempty"`
	JournalDir      string               `yaml:"journal_dir,omitempty"`
	Simulate        simulateFile         `yaml:"simulate,omitempty"`
	Cache           cacheFile            `yaml:"cache,omitempty"`
	Assets          map[string]AssetFile `yaml:"assets"`
}

type historyFile struct {
	Backend string `yaml:"backend,omitempty"`
	Path    string `yaml:"path,omitempty"`
}

type simulateFile struct {
	Dir     string `yaml:"dir,omitempty"`
	Balance string `yaml:"balance,omitempty"`
}

type cacheFile struct {
	PriceTTL   time.Duration `yaml:"price_ttl,omitempty"`
	HistoryTTL time.Duration `yaml:"history_ttl,omitempty"`
	BalanceTTL time.Duration `yaml:"balance_ttl,omitempty"`
	Redis      redisFile     `yaml:"redis,omitempty"`
}

type redisFile struct {
	Addr     string `yaml:"addr,omitempty"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db,omitempty"`
	Prefix   string `yaml:"prefix,omitempty"`
}

// AssetFile is one asset as written in the YAML file. Empty fields take defaults.
type AssetFile struct {
	Market           string   `yaml:"market,omitempty"`
	Enabled          *bool    `yaml:"enabled,omitempty"`
	BaseAmount       string   `yaml:"base_amount,omitempty"`
	MinAmount        string   `yaml:"min_amount,omitempty"`
	MaxAmount        string   `yaml:"max_amount,omitempty"`
	Frequency        string   `yaml:"frequency,omitempty"`
	VolatilityWindow int      `yaml:"volatility_window,omitempty"`
	LowVolThreshold  *float64 `yaml:"low_vol_threshold,omitempty"`
	HighVolThreshold *float64 `yaml:"high_vol_threshold,omitempty"`
	SizeDecimals     *int32   `yaml:"size_decimals,omitempty"`
	Slippage         string   `yaml:"slippage,omitempty"`
	MinOrderNotional string   `yaml:"min_order_notional,omitempty"`

	RSI              *RSIFile              `yaml:"rsi,omitempty"`
	MovingAverage    *MovingAverageFile    `yaml:"moving_average,omitempty"`
	DynamicFrequency *DynamicFrequencyFile `yaml:"dynamic_frequency,omitempty"`
}

// RSIFile enables the RSI filter when present and not disabled.
type RSIFile struct {
	Enabled    *bool    `yaml:"enabled,omitempty"`
	Period     int      `yaml:"period,omitempty"`
	Oversold   *float64 `yaml:"oversold,omitempty"`
	Overbought *float64 `yaml:"overbought,omitempty"`
	// Simple selects the rolling mean instead of Wilder smoothing.
	Simple bool `yaml:"simple,omitempty"`
}

type DipTierFile struct {
	UpTo       float64 `yaml:"up_to"`
	Multiplier float64 `yaml:"multiplier"`
}

// MovingAverageFile enables the dip detector when present and not disabled.
type MovingAverageFile struct {
	Enabled       *bool           `yaml:"enabled,omitempty"`
	Periods       []int           `yaml:"periods,omitempty"`
	DipThresholds map[int]float64 `yaml:"dip_thresholds,omitempty"`
	Kind          string          `yaml:"kind,omitempty"`
	Tiers         []DipTierFile   `yaml:"tiers,omitempty"`
}

// DynamicFrequencyFile enables the frequency advisor when present and not disabled.
type DynamicFrequencyFile struct {
	Enabled       *bool    `yaml:"enabled,omitempty"`
	LowThreshold  *float64 `yaml:"low_threshold,omitempty"`
	HighThreshold *float64 `yaml:"high_threshold,omitempty"`
}

// Load reads and validates the YAML file at path. Secrets come from the environment.
func Load(path string) (Config, error) {
	raw, err := readFile(path)
	if err != nil {
		return Config{}, err
	}

	cfg, err := raw.parse()
	if err != nil {
		return Config{}, errors.Wrapf(err, "invalid config %s", path)
	}

	cfg.PrivateKey = os.Getenv(EnvPrivateKey)
	cfg.TelegramToken = os.Getenv(EnvTelegramToken)
	cfg.TelegramChatID = os.Getenv(EnvTelegramChatID)

	return cfg, nil
}

// Update applies fn to the asset entry of symbol, creating it when missing, and writes the
// file back only when the edited asset still validates. A missing file is created.
func Update(path, symbol string, fn func(*AssetFile)) (domain.AssetConfig, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return domain.AssetConfig{}, errors.New("symbol is required")
	}

	raw, err := readFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return domain.AssetConfig{}, err
		}
		raw = &fileConfig{}
	}
	if raw.Assets == nil {
		raw.Assets = make(map[string]AssetFile)
	}

	asset := raw.Assets[symbol]
	fn(&asset)

	parsed, err := asset.parse(symbol)
	if err != nil {
		return domain.AssetConfig{}, err
	}
	raw.Assets[symbol] = asset

	// the rest of the file must still load after the edit
	if _, err := raw.parse(); err != nil {
		return domain.AssetConfig{}, err
	}

	if err := writeFile(path, raw); err != nil {
		return domain.AssetConfig{}, err
	}

	return parsed, nil
}

func readFile(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read config %s", path)
	}

	var raw fileConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrapf(err, "decode config %s", path)
	}
	return &raw, nil
}

func writeFile(path string, raw *fileConfig) error {
	data, err := yaml.Marshal(raw)
	if err != nil {
		return errors.Wrap(err, "encode config")
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, "create config dir")
		}
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Wrap(err, "write config temp file")
	}
	if err := os.Rename(tmp, path); err != nil {
		return errors.Wrap(err, "replace config")
	}
	return nil
}

func (f *fileConfig) parse() (Config, error) {
	cfg := Config{
		Platform:        strings.ToLower(orDefault(f.Platform, PlatformHyperliquid)),
		Quote:           strings.ToUpper(orDefault(f.Quote, defaultQuote)),
		HyperliquidURL:  f.HyperliquidURL,
		BinanceFallback: f.BinanceFallback == nil || *f.BinanceFallback,
		BybitFallback:   f.BybitFallback == nil || *f.BybitFallback,
		Parallel:        f.Parallel,
		Schedule:        orDefault(f.Schedule, defaultSchedule),
		HistoryBackend:  strings.ToLower(orDefault(f.History.Backend, HistoryJSON)),
		JournalDir:      orDefault(f.JournalDir, defaultJournalDir),
		SimulateDir:     f.Simulate.Dir,
		Cache: CacheConfig{
			PriceTTL:      orDefaultDuration(f.Cache.PriceTTL, defaultPriceTTL),
			HistoryTTL:    orDefaultDuration(f.Cache.HistoryTTL, defaultHistoryTTL),
			BalanceTTL:    orDefaultDuration(f.Cache.BalanceTTL, defaultBalanceTTL),
			RedisAddr:     f.Cache.Redis.Addr,
			RedisPassword: f.Cache.Redis.Password,
			RedisDB:       f.Cache.Redis.DB,
			RedisPrefix:   orDefault(f.Cache.Redis.Prefix, defaultRedisPrefix),
		},
	}

	switch cfg.Platform {
	case PlatformHyperliquid, PlatformSimulate:
	default:
		return Config{}, fmt.Errorf("unsupported platform: %s", cfg.Platform)
	}

	switch cfg.HistoryBackend {
	case HistoryJSON:
		cfg.HistoryPath = orDefault(f.History.Path, defaultHistoryDir)
	case HistorySQLite:
		cfg.HistoryPath = orDefault(f.History.Path, defaultHistoryDB)
	default:
		return Config{}, fmt.Errorf("unsupported history backend: %s", cfg.HistoryBackend)
	}

	balance, err := decimal.NewFromString(orDefault(f.Simulate.Balance, defaultSimBalance))
	if err != nil {
		return Config{}, fmt.Errorf("incorrect 'simulate.balance' param in yaml config, error: %w", err)
	}
	if balance.IsNegative() {
		return Config{}, fmt.Errorf("'simulate.balance' must not be negative")
	}
	cfg.SimulateBalance = balance

	if len(f.Assets) == 0 {
		return Config{}, fmt.Errorf("no assets configured")
	}

	symbols := make([]string, 0, len(f.Assets))
	for s := range f.Assets {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	seen := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		asset, err := f.Assets[s].parse(s)
		if err != nil {
			return Config{}, err
		}
		if seen[asset.Symbol] {
			return Config{}, fmt.Errorf("asset %s configured twice", asset.Symbol)
		}
		seen[asset.Symbol] = true
		cfg.Assets = append(cfg.Assets, asset)
	}

	return cfg, nil
}

func (a AssetFile) parse(symbol string) (domain.AssetConfig, error) {
	base, err := parseDecimal(symbol, "base_amount", a.BaseAmount, defaultBaseAmount)
	if err != nil {
		return domain.AssetConfig{}, err
	}
	minAmount, err := parseDecimal(symbol, "min_amount", a.MinAmount, defaultMinAmount)
	if err != nil {
		return domain.AssetConfig{}, err
	}
	maxAmount, err := parseDecimal(symbol, "max_amount", a.MaxAmount, defaultMaxAmount)
	if err != nil {
		return domain.AssetConfig{}, err
	}
	slippage, err := parseDecimal(symbol, "slippage", a.Slippage, defaultSlippage)
	if err != nil {
		return domain.AssetConfig{}, err
	}
	minNotional, err := parseDecimal(symbol, "min_order_notional", a.MinOrderNotional, defaultMinNotional)
	if err != nil {
		return domain.AssetConfig{}, err
	}

	freq := defaultFrequency
	if a.Frequency != "" {
		freq, err = domain.ParseFrequency(a.Frequency)
		if err != nil {
			return domain.AssetConfig{}, fmt.Errorf("incorrect 'frequency' param for %s in yaml config, error: %w", symbol, err)
		}
	}

	sizeDecimals := int32(defaultSizeDecimals)
	if a.SizeDecimals != nil {
		sizeDecimals = *a.SizeDecimals
	}

	cfg := domain.AssetConfig{
		Symbol:           symbol,
		Market:           a.Market,
		BaseAmount:       base,
		MinAmount:        minAmount,
		MaxAmount:        maxAmount,
		Frequency:        freq,
		VolatilityWindow: orDefaultInt(a.VolatilityWindow, defaultVolatilityWindow),
		LowVolThreshold:  orDefaultFloat(a.LowVolThreshold, defaultLowVol),
		HighVolThreshold: orDefaultFloat(a.HighVolThreshold, defaultHighVol),
		Enabled:          a.Enabled == nil || *a.Enabled,
		SizeDecimals:     sizeDecimals,
		Slippage:         slippage,
		MinOrderNotional: minNotional,
	}

	if r := a.RSI; r != nil && enabled(r.Enabled) {
		cfg.RSI = &domain.RSIConfig{
			Period:     orDefaultInt(r.Period, defaultRSIPeriod),
			Oversold:   orDefaultFloat(r.Oversold, defaultRSIOversold),
			Overbought: orDefaultFloat(r.Overbought, defaultRSIOverbought),
			Wilder:     !r.Simple,
		}
	}

	if m := a.MovingAverage; m != nil && enabled(m.Enabled) {
		ma := &domain.MovingAverageConfig{
			Periods:       m.Periods,
			DipThresholds: m.DipThresholds,
			Kind:          domain.MAKind(strings.ToLower(m.Kind)),
		}
		if len(ma.Periods) == 0 {
			ma.Periods = defaultMAPeriods
		}
		if len(ma.DipThresholds) == 0 {
			ma.DipThresholds = defaultDipThresholds
		}
		for _, t := range m.Tiers {
			ma.Tiers = append(ma.Tiers, domain.DipTier{UpTo: t.UpTo, Multiplier: t.Multiplier})
		}
		cfg.MovingAverage = ma
	}

	if d := a.DynamicFrequency; d != nil && enabled(d.Enabled) {
		cfg.DynamicFrequency = &domain.DynamicFrequencyConfig{
			LowThreshold:  orDefaultFloat(d.LowThreshold, defaultLowVol),
			HighThreshold: orDefaultFloat(d.HighThreshold, defaultHighVol),
		}
	}

	return domain.NewAssetConfig(cfg)
}

func parseDecimal(symbol, name, value, def string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(orDefault(value, def))
	if err != nil {
		return decimal.Zero, fmt.Errorf("incorrect '%s' param for %s in yaml config (must be a decimal), error: %w", name, symbol, err)
	}
	return d, nil
}

func enabled(flag *bool) bool {
	return flag == nil || *flag
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return strings.TrimSpace(v)
}

func orDefaultInt(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

// orDefaultFloat treats only a missing value as unset; an explicit 0 is kept.
func orDefaultFloat(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

func orDefaultDuration(v, def time.Duration) time.Duration {
	if v == 0 {
		return def
	}
	return v
}
