// Package config loads application configuration from YAML with
// environment variable overrides for deployment-sensitive values.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for the scanner service.
type Config struct {
	Environment string `yaml:"environment"`

	Server     ServerConfig     `yaml:"server"`
	Log        LogConfig        `yaml:"log"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Scanner    ScannerConfig    `yaml:"scanner"`
	Scoring    ScoringConfig    `yaml:"scoring"`
	Regime     RegimeConfig     `yaml:"regime"`
	Levels     LevelsConfig     `yaml:"levels"`
	Exchange   ExchangeConfig   `yaml:"exchange"`
	Cache      CacheConfig      `yaml:"cache"`
	Dispatch   DispatchConfig   `yaml:"dispatch"`
	Kafka      KafkaConfig      `yaml:"kafka"`
	ClickHouse ClickHouseConfig `yaml:"clickhouse"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	Outcome    OutcomeConfig    `yaml:"outcome"`
}

// ServerConfig controls the embedded HTTP API server.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// LogConfig controls structured logging output.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json or console
	Output string `yaml:"output"` // stdout or stderr
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// ScannerConfig describes the scan universe and cycle policy.
type ScannerConfig struct {
	Symbols               []string          `yaml:"symbols"`
	Categories            map[string]string `yaml:"categories"` // symbol -> category
	ReferenceSymbol       string            `yaml:"reference_symbol"`
	Interval              time.Duration     `yaml:"interval"`
	ScanTimeframe         string            `yaml:"scan_timeframe"`
	IntermediateTimeframe string            `yaml:"intermediate_timeframe"`
	HigherTimeframes      []string          `yaml:"higher_timeframes"`
	CandleLimit           int               `yaml:"candle_limit"`
	MinCandles            int               `yaml:"min_candles"`
	FetchTimeout          time.Duration     `yaml:"fetch_timeout"`
	Workers               int               `yaml:"workers"`
	MaxPerScan            int               `yaml:"max_per_scan"`
	MaxPerDay             int               `yaml:"max_per_day"`
	CategoryCaps          map[string]int    `yaml:"category_caps"` // category -> daily cap
	DefaultCategoryCap    int               `yaml:"default_category_cap"`
	Cooldown              time.Duration     `yaml:"cooldown"`
	DangerousHours        []int             `yaml:"dangerous_hours"` // UTC hours to skip
}

// ScoringConfig holds the confluence weights and veto thresholds.
type ScoringConfig struct {
	MinScore           int                `yaml:"min_score"`
	DirectionThreshold float64            `yaml:"direction_threshold"`
	MinConfluence      int                `yaml:"min_confluence"`
	Weights            map[string]float64 `yaml:"weights"`

	// RequiredPair must agree on one side before any signal is considered;
	// AlignedTimeframes must then match that side.
	RequiredPair      []string `yaml:"required_pair"`
	AlignedTimeframes []string `yaml:"aligned_timeframes"`

	RSIOversold     float64 `yaml:"rsi_oversold"`
	RSIOverbought   float64 `yaml:"rsi_overbought"`
	StochOversold   float64 `yaml:"stoch_oversold"`
	StochOverbought float64 `yaml:"stoch_overbought"`
	MaxExtensionPct float64 `yaml:"max_extension_pct"`

	OverrideScore    int     `yaml:"override_score"`
	RefOverrideScore int     `yaml:"ref_override_score"`
	RefRSILongMin    float64 `yaml:"ref_rsi_long_min"`
	RefRSIShortMax   float64 `yaml:"ref_rsi_short_max"`

	DojiBodyRatio        float64 `yaml:"doji_body_ratio"`
	BreakoutProximityPct float64 `yaml:"breakout_proximity_pct"`
	BreakoutBodyRatio    float64 `yaml:"breakout_body_ratio"`

	LeverageHighScore int `yaml:"leverage_high_score"`
	LeverageHigh      int `yaml:"leverage_high"`
	LeverageBase      int `yaml:"leverage_base"`
}

// RegimeConfig holds regime classification thresholds.
type RegimeConfig struct {
	ADXWeak         float64 `yaml:"adx_weak"`
	ADXStrong       float64 `yaml:"adx_strong"`
	VolatileATRPct  float64 `yaml:"volatile_atr_pct"`
	SwingWindow     int     `yaml:"swing_window"`
	SRLookback      int     `yaml:"sr_lookback"`
	VolumeAboveAvg  float64 `yaml:"volume_above_avg"`
	VolumeHigh      float64 `yaml:"volume_high"`
	VolumeExplosive float64 `yaml:"volume_explosive"`
}

// LevelsConfig holds stop and target placement multipliers.
type LevelsConfig struct {
	ATRStop      float64 `yaml:"atr_stop"`
	ATRTP1       float64 `yaml:"atr_tp1"`
	ATRTP2       float64 `yaml:"atr_tp2"`
	ATRTP3       float64 `yaml:"atr_tp3"`
	VolatileMult float64 `yaml:"volatile_mult"`

	PctStop float64 `yaml:"pct_stop"`
	PctTP1  float64 `yaml:"pct_tp1"`
	PctTP2  float64 `yaml:"pct_tp2"`
	PctTP3  float64 `yaml:"pct_tp3"`

	// MinStopPct floors the stop distance as a percentage of entry so
	// risk/reward stays finite when ATR collapses on a flat market.
	MinStopPct float64 `yaml:"min_stop_pct"`

	StructureBufferPct float64 `yaml:"structure_buffer_pct"`
}

// ExchangeConfig describes candle data sources in fallback order.
type ExchangeConfig struct {
	Sources   []SourceConfig `yaml:"sources"`
	Timeout   time.Duration  `yaml:"timeout"`
	RateLimit float64        `yaml:"rate_limit"` // requests per second per source
	RateBurst int            `yaml:"rate_burst"`
}

// SourceConfig is a single REST candle source.
type SourceConfig struct {
	Name       string `yaml:"name"`
	BaseURL    string `yaml:"base_url"`
	KlinesPath string `yaml:"klines_path"`
}

// CacheConfig controls candle caching between fetches.
type CacheConfig struct {
	Backend       string        `yaml:"backend"` // memory, redis or layered
	TTL           time.Duration `yaml:"ttl"`
	MemoryMaxSize int           `yaml:"memory_max_size"`
	Redis         RedisConfig   `yaml:"redis"`
}

// RedisConfig holds redis connection settings for the cache backend.
type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// DispatchConfig selects how accepted signals leave the scanner.
type DispatchConfig struct {
	Backend    string `yaml:"backend"` // direct or kafka
	BufferSize int    `yaml:"buffer_size"`
	MaxRPS     int    `yaml:"max_rps"`
}

// KafkaConfig holds broker settings for the kafka dispatch backend.
type KafkaConfig struct {
	Brokers      []string            `yaml:"brokers"`
	Topic        string              `yaml:"topic"`
	RequiredAcks string              `yaml:"required_acks"`
	Compression  string              `yaml:"compression"`
	Consumer     KafkaConsumerConfig `yaml:"consumer"`
}

// KafkaConsumerConfig holds settings for the in-process signal consumer.
type KafkaConsumerConfig struct {
	GroupID        string        `yaml:"group_id"`
	Workers        int           `yaml:"workers"`
	MaxRetries     int           `yaml:"max_retries"`
	CommitInterval time.Duration `yaml:"commit_interval"`
	DLQTopic       string        `yaml:"dlq_topic"`
}

// ClickHouseConfig holds connection settings for signal persistence.
type ClickHouseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	// AsyncInsert batches the one-row signal inserts server-side, which
	// suits the scan loop's write pattern of many small writes.
	AsyncInsert bool `yaml:"async_insert"`
}

// TelegramConfig holds bot credentials for signal delivery.
type TelegramConfig struct {
	Enabled bool          `yaml:"enabled"`
	APIBase string        `yaml:"api_base"`
	Token   string        `yaml:"token"`
	ChatID  string        `yaml:"chat_id"`
	Timeout time.Duration `yaml:"timeout"`
}

// OutcomeConfig controls periodic signal outcome resolution.
type OutcomeConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
	MaxAge   time.Duration `yaml:"max_age"`
}

// Load reads configuration from the given YAML file, applies defaults
// and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	cfg.applyDefaults()
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}

	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 15 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Log.Output == "" {
		c.Log.Output = "stdout"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}

	s := &c.Scanner
	if s.ReferenceSymbol == "" {
		s.ReferenceSymbol = "BTCUSDT"
	}
	if s.Interval == 0 {
		s.Interval = 60 * time.Second
	}
	if s.ScanTimeframe == "" {
		s.ScanTimeframe = "5m"
	}
	if s.IntermediateTimeframe == "" {
		s.IntermediateTimeframe = "15m"
	}
	if len(s.HigherTimeframes) == 0 {
		s.HigherTimeframes = []string{"1h", "4h"}
	}
	if s.CandleLimit == 0 {
		s.CandleLimit = 250
	}
	if s.MinCandles == 0 {
		s.MinCandles = 60
	}
	if s.FetchTimeout == 0 {
		s.FetchTimeout = 10 * time.Second
	}
	if s.Workers <= 0 {
		s.Workers = 4
	}
	if s.MaxPerScan == 0 {
		s.MaxPerScan = 3
	}
	if s.MaxPerDay == 0 {
		s.MaxPerDay = 15
	}
	if s.CategoryCaps == nil {
		s.CategoryCaps = map[string]int{"meme": 2}
	}
	if s.DefaultCategoryCap == 0 {
		s.DefaultCategoryCap = 3
	}
	if s.Cooldown == 0 {
		s.Cooldown = 300 * time.Second
	}
	if s.DangerousHours == nil {
		s.DangerousHours = []int{0, 8}
	}

	sc := &c.Scoring
	if sc.MinScore == 0 {
		sc.MinScore = 75
	}
	if sc.DirectionThreshold == 0 {
		sc.DirectionThreshold = 65
	}
	if sc.MinConfluence == 0 {
		sc.MinConfluence = 4
	}
	if sc.Weights == nil {
		sc.Weights = DefaultWeights()
	}
	if len(sc.RequiredPair) == 0 {
		sc.RequiredPair = []string{"15m", "1h"}
	}
	if len(sc.AlignedTimeframes) == 0 {
		sc.AlignedTimeframes = []string{"4h"}
	}
	if sc.RSIOversold == 0 {
		sc.RSIOversold = 30
	}
	if sc.RSIOverbought == 0 {
		sc.RSIOverbought = 70
	}
	if sc.StochOversold == 0 {
		sc.StochOversold = 20
	}
	if sc.StochOverbought == 0 {
		sc.StochOverbought = 80
	}
	if sc.MaxExtensionPct == 0 {
		sc.MaxExtensionPct = 2.5
	}
	if sc.OverrideScore == 0 {
		sc.OverrideScore = 85
	}
	if sc.RefOverrideScore == 0 {
		sc.RefOverrideScore = 90
	}
	if sc.RefRSILongMin == 0 {
		sc.RefRSILongMin = 45
	}
	if sc.RefRSIShortMax == 0 {
		sc.RefRSIShortMax = 55
	}
	if sc.DojiBodyRatio == 0 {
		sc.DojiBodyRatio = 0.3
	}
	if sc.BreakoutProximityPct == 0 {
		sc.BreakoutProximityPct = 0.2
	}
	if sc.BreakoutBodyRatio == 0 {
		sc.BreakoutBodyRatio = 0.5
	}
	if sc.LeverageHighScore == 0 {
		sc.LeverageHighScore = 85
	}
	if sc.LeverageHigh == 0 {
		sc.LeverageHigh = 20
	}
	if sc.LeverageBase == 0 {
		sc.LeverageBase = 15
	}

	r := &c.Regime
	if r.ADXWeak == 0 {
		r.ADXWeak = 20
	}
	if r.ADXStrong == 0 {
		r.ADXStrong = 25
	}
	if r.VolatileATRPct == 0 {
		r.VolatileATRPct = 3.0
	}
	if r.SwingWindow == 0 {
		r.SwingWindow = 2
	}
	if r.SRLookback == 0 {
		r.SRLookback = 50
	}
	if r.VolumeAboveAvg == 0 {
		r.VolumeAboveAvg = 1.3
	}
	if r.VolumeHigh == 0 {
		r.VolumeHigh = 2.0
	}
	if r.VolumeExplosive == 0 {
		r.VolumeExplosive = 3.0
	}

	l := &c.Levels
	if l.ATRStop == 0 {
		l.ATRStop = 0.6
	}
	if l.ATRTP1 == 0 {
		l.ATRTP1 = 0.8
	}
	if l.ATRTP2 == 0 {
		l.ATRTP2 = 1.5
	}
	if l.ATRTP3 == 0 {
		l.ATRTP3 = 2.5
	}
	if l.VolatileMult == 0 {
		l.VolatileMult = 1.5
	}
	if l.PctStop == 0 {
		l.PctStop = 0.5
	}
	if l.PctTP1 == 0 {
		l.PctTP1 = 0.6
	}
	if l.PctTP2 == 0 {
		l.PctTP2 = 1.2
	}
	if l.PctTP3 == 0 {
		l.PctTP3 = 2.0
	}
	if l.MinStopPct == 0 {
		l.MinStopPct = 0.1
	}
	if l.StructureBufferPct == 0 {
		l.StructureBufferPct = 0.1
	}

	e := &c.Exchange
	if len(e.Sources) == 0 {
		e.Sources = []SourceConfig{
			{Name: "binance", BaseURL: "https://api.binance.com", KlinesPath: "/api/v3/klines"},
			{Name: "binance-futures", BaseURL: "https://fapi.binance.com", KlinesPath: "/fapi/v1/klines"},
		}
	}
	for i := range e.Sources {
		if e.Sources[i].KlinesPath == "" {
			e.Sources[i].KlinesPath = "/api/v3/klines"
		}
	}
	if e.Timeout == 0 {
		e.Timeout = 10 * time.Second
	}
	if e.RateLimit == 0 {
		e.RateLimit = 10
	}
	if e.RateBurst == 0 {
		e.RateBurst = 20
	}

	if c.Cache.Backend == "" {
		c.Cache.Backend = "memory"
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = 45 * time.Second
	}
	if c.Cache.MemoryMaxSize == 0 {
		c.Cache.MemoryMaxSize = 2048
	}
	if c.Cache.Redis.Port == 0 {
		c.Cache.Redis.Port = 6379
	}
	if c.Cache.Redis.Prefix == "" {
		c.Cache.Redis.Prefix = "finscan"
	}

	if c.Dispatch.Backend == "" {
		c.Dispatch.Backend = "direct"
	}
	if c.Dispatch.BufferSize == 0 {
		c.Dispatch.BufferSize = 256
	}
	if c.Dispatch.MaxRPS == 0 {
		c.Dispatch.MaxRPS = 10
	}

	k := &c.Kafka
	if k.Topic == "" {
		k.Topic = "finscan.signals"
	}
	if k.RequiredAcks == "" {
		k.RequiredAcks = "all"
	}
	if k.Compression == "" {
		k.Compression = "snappy"
	}
	if k.Consumer.GroupID == "" {
		k.Consumer.GroupID = "finscan-dispatch"
	}
	if k.Consumer.Workers <= 0 {
		k.Consumer.Workers = 2
	}
	if k.Consumer.MaxRetries == 0 {
		k.Consumer.MaxRetries = 3
	}
	if k.Consumer.CommitInterval == 0 {
		k.Consumer.CommitInterval = time.Second
	}

	ch := &c.ClickHouse
	if ch.Host == "" {
		ch.Host = "localhost"
	}
	if ch.Port == 0 {
		ch.Port = 9000
	}
	if ch.Database == "" {
		ch.Database = "finscan"
	}
	if ch.Username == "" {
		ch.Username = "default"
	}

	if c.Telegram.APIBase == "" {
		c.Telegram.APIBase = "https://api.telegram.org"
	}
	if c.Telegram.Timeout == 0 {
		c.Telegram.Timeout = 10 * time.Second
	}

	if c.Outcome.Interval == 0 {
		c.Outcome.Interval = 5 * time.Minute
	}
	if c.Outcome.MaxAge == 0 {
		c.Outcome.MaxAge = 24 * time.Hour
	}
}

// applyEnv overrides deployment-sensitive values from the environment.
func (c *Config) applyEnv() {
	if v := os.Getenv("FINSCAN_ENV"); v != "" {
		c.Environment = v
	}
	if v := os.Getenv("FINSCAN_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("FINSCAN_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("FINSCAN_SYMBOLS"); v != "" {
		c.Scanner.Symbols = splitList(v)
	}
	if v := os.Getenv("FINSCAN_DISPATCH_BACKEND"); v != "" {
		c.Dispatch.Backend = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = splitList(v)
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := os.Getenv("CLICKHOUSE_PASSWORD"); v != "" {
		c.ClickHouse.Password = v
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		c.Cache.Redis.Host = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Cache.Redis.Password = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.Token = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Telegram.ChatID = v
	}
}

// Validate checks configuration invariants that defaults cannot repair.
func (c *Config) Validate() error {
	if len(c.Scanner.Symbols) == 0 {
		return fmt.Errorf("scanner: at least one symbol is required")
	}
	for _, sym := range c.Scanner.Symbols {
		if strings.TrimSpace(sym) == "" {
			return fmt.Errorf("scanner: empty symbol in list")
		}
	}
	for _, h := range c.Scanner.DangerousHours {
		if h < 0 || h > 23 {
			return fmt.Errorf("scanner: dangerous hour %d out of range", h)
		}
	}
	if c.Scoring.MinScore < 0 || c.Scoring.MinScore > 100 {
		return fmt.Errorf("scoring: min_score must be within [0,100], got %d", c.Scoring.MinScore)
	}
	for name, w := range c.Scoring.Weights {
		if w < 0 {
			return fmt.Errorf("scoring: weight %q must be non-negative, got %v", name, w)
		}
	}
	if c.Regime.ADXWeak >= c.Regime.ADXStrong {
		return fmt.Errorf("regime: adx_weak (%v) must be below adx_strong (%v)", c.Regime.ADXWeak, c.Regime.ADXStrong)
	}
	switch c.Dispatch.Backend {
	case "direct":
	case "kafka":
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka: brokers are required for the kafka dispatch backend")
		}
	default:
		return fmt.Errorf("dispatch: unknown backend %q (expected direct or kafka)", c.Dispatch.Backend)
	}
	switch c.Cache.Backend {
	case "memory", "none":
	case "redis", "layered":
		if c.Cache.Redis.Host == "" {
			return fmt.Errorf("cache: redis host is required for the %s backend", c.Cache.Backend)
		}
	default:
		return fmt.Errorf("cache: unknown backend %q", c.Cache.Backend)
	}
	if c.Telegram.Enabled {
		if c.Telegram.Token == "" {
			return fmt.Errorf("telegram: token is required when enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram: chat_id is required when enabled")
		}
	}
	return nil
}

// DefaultWeights returns the confluence voter weights used when the
// config file does not override them.
func DefaultWeights() map[string]float64 {
	return map[string]float64{
		"rsi_momentum":  20,
		"macd_cross":    20,
		"stochastic":    15,
		"ema_cross":     15,
		"momentum":      5,
		"tf_alignment":  15,
		"tf_15m_bonus":  10,
		"adx_bonus":     5,
		"btc_alignment": 5,
	}
}

// CategoryOf returns the configured category for a symbol, or "default".
func (s ScannerConfig) CategoryOf(symbol string) string {
	if cat, ok := s.Categories[symbol]; ok && cat != "" {
		return cat
	}
	return "default"
}

// CategoryCap returns the daily signal cap for a category.
func (s ScannerConfig) CategoryCap(category string) int {
	if n, ok := s.CategoryCaps[category]; ok {
		return n
	}
	return s.DefaultCategoryCap
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
