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
		AllowedOrigins  []string      `yaml:"allowed_origins"`
	} `yaml:"server"`
	Logger struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"logger"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Database struct {
		Driver       string        `yaml:"driver"` // postgres or sqlite
		DSN          string        `yaml:"dsn"`
		MaxOpenConns int           `yaml:"max_open_conns"`
		MaxIdleConns int           `yaml:"max_idle_conns"`
		ConnLifetime time.Duration `yaml:"conn_lifetime"`
	} `yaml:"database"`
	History struct {
		Backend string `yaml:"backend"` // sql or clickhouse
	} `yaml:"history"`
	ClickHouse struct {
		Enabled          bool          `yaml:"enabled"`
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
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		PoolSize int    `yaml:"pool_size"`
	} `yaml:"redis"`
	Kafka struct {
		Enabled           bool     `yaml:"enabled"`
		Brokers           []string `yaml:"brokers"`
		EventsTopic       string   `yaml:"events_topic"`
		TransactionsTopic string   `yaml:"transactions_topic"`
		LogsTopic         string   `yaml:"logs_topic"`
		RequiredAcks      int      `yaml:"required_acks"`
		Compression       string   `yaml:"compression"`
		Producer          struct {
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
	Engine struct {
		HistoryDays         int     `yaml:"history_days"`
		ReorderHorizonDays  int     `yaml:"reorder_horizon_days"`
		SafetyStockDays     float64 `yaml:"safety_stock_days"`
		DefaultLeadTimeDays int     `yaml:"default_lead_time_days"`
		ZeroFill            bool    `yaml:"zero_fill"`
		PredictionHorizons  []int   `yaml:"prediction_horizons"`
		DefaultPriceScore   float64 `yaml:"default_price_score"`
	} `yaml:"engine"`
	Fraud struct {
		VelocityWindow      time.Duration `yaml:"velocity_window"`
		VelocityThreshold   int           `yaml:"velocity_threshold"`
		LargeAmount         float64       `yaml:"large_amount"`
		SuspiciousThreshold float64       `yaml:"suspicious_threshold"`
	} `yaml:"fraud"`
	Cache struct {
		PredictionsTTL time.Duration `yaml:"predictions_ttl"`
		LocalTTL       time.Duration `yaml:"local_ttl"`
		LockTTL        time.Duration `yaml:"lock_ttl"`
	} `yaml:"cache"`
	Scheduler struct {
		Enabled             bool          `yaml:"enabled"`
		QueueName           string        `yaml:"queue_name"`
		Workers             int           `yaml:"workers"`
		PredictionsInterval time.Duration `yaml:"predictions_interval"`
		SuggestionsInterval time.Duration `yaml:"suggestions_interval"`
		StockCheckInterval  time.Duration `yaml:"stock_check_interval"`
	} `yaml:"scheduler"`
	RateLimit struct {
		Enabled           bool `yaml:"enabled"`
		RequestsPerMinute int  `yaml:"requests_per_minute"`
		Burst             int  `yaml:"burst"`
	} `yaml:"rate_limit"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	c, err := read(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := read(path)
	if err != nil {
		return nil, err
	}
	c.applyEnv()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// Parse decodes YAML bytes, fills defaults and validates.
func Parse(b []byte) (*Config, error) {
	c, err := decode(b)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func read(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return decode(b)
}

func decode(b []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	c.applyDefaults()
	return &c, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("DATABASE_DRIVER"); v != "" {
		c.Database.Driver = v
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		c.Database.Driver = "postgres"
		c.Database.DSN = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Enabled = true
		c.Redis.Addr = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Enabled = true
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Enabled = true
		c.ClickHouse.Host = v
	}
	if v := os.Getenv("HISTORY_BACKEND"); v != "" {
		c.History.Backend = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Server.Port = p
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8000
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Logger.Level == "" {
		c.Logger.Level = "info"
	}
	if c.Logger.Output == "" {
		c.Logger.Output = "stdout"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.History.Backend == "" {
		c.History.Backend = "sql"
	}
	if c.Kafka.EventsTopic == "" {
		c.Kafka.EventsTopic = "techmart.events"
	}
	if c.Kafka.TransactionsTopic == "" {
		c.Kafka.TransactionsTopic = "techmart.transactions"
	}
	if c.Engine.HistoryDays == 0 {
		c.Engine.HistoryDays = 90
	}
	if c.Engine.ReorderHorizonDays == 0 {
		c.Engine.ReorderHorizonDays = 14
	}
	if c.Engine.SafetyStockDays == 0 {
		c.Engine.SafetyStockDays = 3
	}
	if c.Engine.DefaultLeadTimeDays == 0 {
		c.Engine.DefaultLeadTimeDays = 7
	}
	if len(c.Engine.PredictionHorizons) == 0 {
		c.Engine.PredictionHorizons = []int{7, 14}
	}
	if c.Engine.DefaultPriceScore == 0 {
		c.Engine.DefaultPriceScore = 0.4
	}
	if c.Fraud.VelocityWindow == 0 {
		c.Fraud.VelocityWindow = 10 * time.Minute
	}
	if c.Fraud.VelocityThreshold == 0 {
		c.Fraud.VelocityThreshold = 5
	}
	if c.Fraud.LargeAmount == 0 {
		c.Fraud.LargeAmount = 5000
	}
	if c.Fraud.SuspiciousThreshold == 0 {
		c.Fraud.SuspiciousThreshold = 0.6
	}
	if c.Cache.PredictionsTTL == 0 {
		c.Cache.PredictionsTTL = time.Hour
	}
	if c.Cache.LocalTTL == 0 {
		c.Cache.LocalTTL = time.Minute
	}
	if c.Cache.LockTTL == 0 {
		c.Cache.LockTTL = 30 * time.Second
	}
	if c.Scheduler.QueueName == "" {
		c.Scheduler.QueueName = "techmart:jobs"
	}
	if c.Scheduler.Workers == 0 {
		c.Scheduler.Workers = 2
	}
	if c.Scheduler.PredictionsInterval == 0 {
		c.Scheduler.PredictionsInterval = 6 * time.Hour
	}
	if c.Scheduler.SuggestionsInterval == 0 {
		c.Scheduler.SuggestionsInterval = 12 * time.Hour
	}
	if c.Scheduler.StockCheckInterval == 0 {
		c.Scheduler.StockCheckInterval = time.Hour
	}
	if c.RateLimit.RequestsPerMinute == 0 {
		c.RateLimit.RequestsPerMinute = 100
	}
	if c.RateLimit.Burst == 0 {
		c.RateLimit.Burst = c.RateLimit.RequestsPerMinute
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Database.Driver != "postgres" && c.Database.Driver != "sqlite" {
		return fmt.Errorf("database.driver must be 'postgres' or 'sqlite', got '%s'", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}
	switch c.History.Backend {
	case "sql":
	case "clickhouse":
		if !c.ClickHouse.Enabled {
			return fmt.Errorf("history.backend 'clickhouse' requires clickhouse.enabled")
		}
	default:
		return fmt.Errorf("history.backend must be 'sql' or 'clickhouse', got '%s'", c.History.Backend)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required when redis is enabled")
	}
	if c.Scheduler.Enabled && !c.Redis.Enabled {
		return fmt.Errorf("scheduler requires redis")
	}
	for _, h := range c.Engine.PredictionHorizons {
		if h < 1 || h > 90 {
			return fmt.Errorf("engine.prediction_horizons must be within 1..90, got %d", h)
		}
	}
	return nil
}
