package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Backend struct {
		Type         string        `yaml:"type"` // tick sink: "kafka" or "clickhouse"
		BatchSize    int           `yaml:"batch_size"`
		BatchTimeout time.Duration `yaml:"batch_timeout"`
	} `yaml:"backend"`
	Kafka struct {
		Brokers          []string `yaml:"brokers"`
		Topic            string   `yaml:"topic"`
		LogsTopic        string   `yaml:"logs_topic"`
		TradeEventsTopic string   `yaml:"trade_events_topic"`
		RequiredAcks     int      `yaml:"required_acks"`
		Compression      string   `yaml:"compression"`
		Producer         struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id"`
			Workers    int           `yaml:"workers"`
			BufferSize int           `yaml:"buffer_size"`
			RetryMax   int           `yaml:"retry_max"`
			BackoffMin time.Duration `yaml:"backoff_min"`
			BackoffMax time.Duration `yaml:"backoff_max"`
			DLQTopic   string        `yaml:"dlq_topic"`
			MinBytes   int           `yaml:"min_bytes"`
			MaxBytes   int           `yaml:"max_bytes"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Binance struct {
		RESTBaseURL    string              `yaml:"rest_base_url"`
		WebSocketURL   string              `yaml:"websocket_url"`
		Symbols        []string            `yaml:"symbols"` // stream subscriptions
		QuoteAsset     string              `yaml:"quote_asset"`
		MinQuoteVolume float64             `yaml:"min_quote_volume"` // 24h, in quote units
		MaxUniverse    int                 `yaml:"max_universe"`
		Sectors        map[string][]string `yaml:"sectors"` // sector -> member symbols
		RequestDelay   time.Duration       `yaml:"request_delay"`
		ReconnectDelay time.Duration       `yaml:"reconnect_delay"`
		PingInterval   time.Duration       `yaml:"ping_interval"`
	} `yaml:"binance"`
	Telegram struct {
		Enabled bool   `yaml:"enabled"`
		Token   string `yaml:"token"`
		ChatID  int64  `yaml:"chat_id"`
	} `yaml:"telegram"`
	Scanner    ScannerConfig    `yaml:"scanner"`
	Lifecycle  LifecycleConfig  `yaml:"lifecycle"`
	Conviction ConvictionConfig `yaml:"conviction"`
	Divergence DivergenceConfig `yaml:"divergence"`
}

// ScannerConfig holds the discovery-side gates. Thresholds here were tuned
// empirically and are deliberately configuration, not constants.
type ScannerConfig struct {
	Interval         time.Duration `yaml:"interval"`
	HistoryDays      int           `yaml:"history_days"`
	ZWindow          int           `yaml:"z_window"`
	StructuralWindow int           `yaml:"structural_window"`
	DynamicWindow    int           `yaml:"dynamic_window"`
	HurstWindow      int           `yaml:"hurst_window"`
	MinCorrelation   float64       `yaml:"min_correlation"`
	MaxHalfLifeDays  float64       `yaml:"max_half_life_days"`
	MinHalfLifeDays  float64       `yaml:"min_half_life_days"` // 0 disables the floor
	HurstEntryMax    float64       `yaml:"hurst_entry_max"`
	TopKPerSector    int           `yaml:"top_k_per_sector"`
	CrossSector      bool          `yaml:"cross_sector"`
}

// LifecycleConfig holds the trade state machine thresholds.
type LifecycleConfig struct {
	Interval             time.Duration `yaml:"interval"`
	ConfirmDays          int           `yaml:"confirm_days"`
	ConfirmFraction      float64       `yaml:"confirm_fraction"`
	MaxConcurrentTrades  int           `yaml:"max_concurrent_trades"`
	MaxTradesPerAsset    int           `yaml:"max_trades_per_asset"`
	EntryCorrelationMin  float64       `yaml:"entry_correlation_min"`
	ExitZ                float64       `yaml:"exit_z"`
	StopZFloor           float64       `yaml:"stop_z_floor"`
	StopEntryMult        float64       `yaml:"stop_entry_mult"`
	StopHistMult         float64       `yaml:"stop_hist_mult"`
	PartialTakeProfitPct float64       `yaml:"partial_take_profit_pct"`
	FinalTakeProfitPct   float64       `yaml:"final_take_profit_pct"`
	DriftWarn            float64       `yaml:"drift_warn"`
	DriftCritical        float64       `yaml:"drift_critical"`
	TimeStopMult         float64       `yaml:"time_stop_mult"`
	ExitCorrelationFloor float64       `yaml:"exit_correlation_floor"`
	HurstExitMax         float64       `yaml:"hurst_exit_max"`
}

// ConvictionConfig mirrors the scorer weights so they are tunable from YAML.
type ConvictionConfig struct {
	Correlation   float64 `yaml:"correlation"`
	RSquared      float64 `yaml:"r_squared"`
	HalfLife      float64 `yaml:"half_life"`
	Hurst         float64 `yaml:"hurst"`
	Cointegration float64 `yaml:"cointegration"`
	BetaDrift     float64 `yaml:"beta_drift"`
	HalfLifeCap   float64 `yaml:"half_life_cap"`
	DriftCap      float64 `yaml:"drift_cap"`
}

// DivergenceConfig mirrors the entry-threshold calibration parameters.
type DivergenceConfig struct {
	Thresholds       []float64 `yaml:"thresholds"`
	RevertFraction   float64   `yaml:"revert_fraction"`
	MinEvents        int       `yaml:"min_events"`
	MinReversionRate float64   `yaml:"min_reversion_rate"`
	LooseEvents      int       `yaml:"loose_events"`
	LooseRate        float64   `yaml:"loose_rate"`
	FloorThreshold   float64   `yaml:"floor_threshold"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("BACKEND"); v != "" {
		c.Backend.Type = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := os.Getenv("SYMBOLS"); v != "" {
		c.Binance.Symbols = strings.Split(v, ",")
	}
	if v := os.Getenv("TELEGRAM_TOKEN"); v != "" {
		c.Telegram.Token = v
		c.Telegram.Enabled = true
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Telegram.ChatID = id
		}
	}

	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Binance.RESTBaseURL == "" {
		c.Binance.RESTBaseURL = "https://api.binance.com"
	}
	if c.Binance.WebSocketURL == "" {
		c.Binance.WebSocketURL = "wss://stream.binance.com:9443/stream"
	}
	if c.Binance.QuoteAsset == "" {
		c.Binance.QuoteAsset = "USDT"
	}
	if c.Binance.RequestDelay == 0 {
		c.Binance.RequestDelay = 250 * time.Millisecond
	}

	s := &c.Scanner
	if s.Interval == 0 {
		s.Interval = 6 * time.Hour
	}
	if s.HistoryDays == 0 {
		s.HistoryDays = 90
	}
	if s.ZWindow == 0 {
		s.ZWindow = 30
	}
	if s.StructuralWindow == 0 {
		s.StructuralWindow = 90
	}
	if s.DynamicWindow == 0 {
		s.DynamicWindow = 30
	}
	if s.HurstWindow == 0 {
		s.HurstWindow = 60
	}
	if s.MinCorrelation == 0 {
		s.MinCorrelation = 0.8
	}
	if s.MaxHalfLifeDays == 0 {
		s.MaxHalfLifeDays = 30
	}
	if s.HurstEntryMax == 0 {
		s.HurstEntryMax = 0.5
	}
	if s.TopKPerSector == 0 {
		s.TopKPerSector = 3
	}

	l := &c.Lifecycle
	if l.Interval == 0 {
		l.Interval = 15 * time.Minute
	}
	if l.ConfirmDays == 0 {
		l.ConfirmDays = 7
	}
	if l.ConfirmFraction == 0 {
		l.ConfirmFraction = 0.75
	}
	if l.MaxConcurrentTrades == 0 {
		l.MaxConcurrentTrades = 5
	}
	if l.MaxTradesPerAsset == 0 {
		l.MaxTradesPerAsset = 2
	}
	if l.EntryCorrelationMin == 0 {
		l.EntryCorrelationMin = 0.7
	}
	if l.ExitZ == 0 {
		l.ExitZ = 0.5
	}
	if l.StopZFloor == 0 {
		l.StopZFloor = 3.5
	}
	if l.StopEntryMult == 0 {
		l.StopEntryMult = 1.5
	}
	if l.StopHistMult == 0 {
		l.StopHistMult = 1.2
	}
	if l.PartialTakeProfitPct == 0 {
		l.PartialTakeProfitPct = 3.0
	}
	if l.FinalTakeProfitPct == 0 {
		l.FinalTakeProfitPct = 5.0
	}
	if l.DriftWarn == 0 {
		l.DriftWarn = 0.15
	}
	if l.DriftCritical == 0 {
		l.DriftCritical = 0.30
	}
	if l.TimeStopMult == 0 {
		l.TimeStopMult = 2.0
	}
	if l.ExitCorrelationFloor == 0 {
		l.ExitCorrelationFloor = 0.5
	}
	if l.HurstExitMax == 0 {
		l.HurstExitMax = 0.55
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Backend.Type == "" {
		return fmt.Errorf("backend.type is required")
	}
	if c.Backend.Type != "kafka" && c.Backend.Type != "clickhouse" {
		return fmt.Errorf("backend.type must be 'kafka' or 'clickhouse', got '%s'", c.Backend.Type)
	}
	if len(c.Binance.Sectors) == 0 {
		return fmt.Errorf("binance.sectors cannot be empty")
	}
	if c.Lifecycle.HurstExitMax < c.Scanner.HurstEntryMax {
		return fmt.Errorf("lifecycle.hurst_exit_max must not be below scanner.hurst_entry_max")
	}
	return nil
}
