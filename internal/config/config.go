package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/salewatch/salewatch/internal/holiday"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Engine   EngineConfig   `yaml:"engine"`
	Worker   WorkerConfig   `yaml:"worker"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig holds the HTTP API listener settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL                 string `yaml:"url"`
	MaxOpenConns        int    `yaml:"max_open_conns"`
	MaxIdleConns        int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMins int    `yaml:"conn_max_lifetime_minutes"`
}

// RedisConfig holds the optional Redis connection for distributed locks.
// An empty Addr falls back to Postgres advisory locks.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// EngineConfig groups the tunable thresholds of the prediction engine.
type EngineConfig struct {
	Dedup   DedupConfig   `yaml:"dedup"`
	Predict PredictConfig `yaml:"predict"`
	Verify  VerifyConfig  `yaml:"verify"`
	Suggest SuggestConfig `yaml:"suggest"`
}

// DedupConfig holds observation grouping thresholds.
type DedupConfig struct {
	DateProximityDays      int     `yaml:"date_proximity_days"`
	DiscountValueTolerance float64 `yaml:"discount_value_tolerance"`
	AnchorToleranceDays    int     `yaml:"anchor_tolerance_days"`
}

// PredictConfig holds prediction generation settings.
type PredictConfig struct {
	MinConfidence float64 `yaml:"min_confidence"`
	LeapPolicy    string  `yaml:"leap_policy"`
}

// VerifyConfig holds verification thresholds.
type VerifyConfig struct {
	GraceDays       int     `yaml:"grace_days"`
	MatchWindowDays int     `yaml:"match_window_days"`
	DiscountFloor   float64 `yaml:"discount_floor"`
}

// SuggestConfig holds suggestion generation settings.
type SuggestConfig struct {
	LookbackDays int `yaml:"lookback_days"`
}

// WorkerConfig holds pass execution settings.
type WorkerConfig struct {
	BrandConcurrency int `yaml:"brand_concurrency"`
	LockTTLMinutes   int `yaml:"lock_ttl_minutes"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads configuration from a YAML file and applies defaults. A
// missing file yields a default config, since everything important can
// arrive via environment overrides.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 20
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetimeMins == 0 {
		cfg.Database.ConnMaxLifetimeMins = 30
	}
	if cfg.Engine.Dedup.DateProximityDays == 0 {
		cfg.Engine.Dedup.DateProximityDays = 3
	}
	if cfg.Engine.Dedup.DiscountValueTolerance == 0 {
		cfg.Engine.Dedup.DiscountValueTolerance = 5.0
	}
	if cfg.Engine.Dedup.AnchorToleranceDays == 0 {
		cfg.Engine.Dedup.AnchorToleranceDays = 3
	}
	if cfg.Engine.Predict.MinConfidence == 0 {
		cfg.Engine.Predict.MinConfidence = 0.6
	}
	if cfg.Engine.Predict.LeapPolicy == "" {
		cfg.Engine.Predict.LeapPolicy = string(holiday.LeapClamp)
	}
	if cfg.Engine.Verify.GraceDays == 0 {
		cfg.Engine.Verify.GraceDays = 7
	}
	if cfg.Engine.Verify.MatchWindowDays == 0 {
		cfg.Engine.Verify.MatchWindowDays = 7
	}
	if cfg.Engine.Verify.DiscountFloor == 0 {
		cfg.Engine.Verify.DiscountFloor = 15.0
	}
	if cfg.Engine.Suggest.LookbackDays == 0 {
		cfg.Engine.Suggest.LookbackDays = 90
	}
	if cfg.Worker.BrandConcurrency == 0 {
		cfg.Worker.BrandConcurrency = 8
	}
	if cfg.Worker.LockTTLMinutes == 0 {
		cfg.Worker.LockTTLMinutes = 30
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}

	return &cfg, nil
}

// LoadFromEnv loads configuration with environment variable overrides.
// A .env file (if present) is loaded first, so secrets can live in .env
// locally and in real env vars in deployment.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate fails fast on configuration the engine cannot run with.
// Tolerance and threshold mistakes here would silently corrupt grouping
// and verification, so they abort the process at startup.
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("config: database url is required (DATABASE_URL or database.url)")
	}
	if c.Engine.Dedup.DateProximityDays < 0 {
		return fmt.Errorf("config: dedup date_proximity_days must not be negative")
	}
	if c.Engine.Dedup.DiscountValueTolerance < 0 {
		return fmt.Errorf("config: dedup discount_value_tolerance must not be negative")
	}
	if c.Engine.Predict.MinConfidence <= 0 || c.Engine.Predict.MinConfidence > 1 {
		return fmt.Errorf("config: predict min_confidence %.3f outside (0,1]", c.Engine.Predict.MinConfidence)
	}
	if !holiday.LeapPolicy(c.Engine.Predict.LeapPolicy).Valid() {
		return fmt.Errorf("config: predict leap_policy %q must be %q or %q",
			c.Engine.Predict.LeapPolicy, holiday.LeapClamp, holiday.LeapRoll)
	}
	if c.Engine.Verify.GraceDays < 0 || c.Engine.Verify.MatchWindowDays < 0 {
		return fmt.Errorf("config: verify day windows must not be negative")
	}
	if c.Engine.Verify.DiscountFloor < 0 || c.Engine.Verify.DiscountFloor > 100 {
		return fmt.Errorf("config: verify discount_floor %.1f outside [0,100]", c.Engine.Verify.DiscountFloor)
	}
	if c.Engine.Suggest.LookbackDays <= 0 {
		return fmt.Errorf("config: suggest lookback_days must be positive")
	}
	if c.Worker.BrandConcurrency <= 0 {
		return fmt.Errorf("config: worker brand_concurrency must be positive")
	}
	return nil
}

// LockTTL returns the worker lock TTL as a duration.
func (c *Config) LockTTL() time.Duration {
	return time.Duration(c.Worker.LockTTLMinutes) * time.Minute
}
