// Package config loads engine configuration from a YAML file with
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration object.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Aggregator AggregatorConfig `yaml:"aggregator"`
	Budget    BudgetConfig    `yaml:"budget"`
	Resources ResourcesConfig `yaml:"resources"`
	Features  FeaturesConfig  `yaml:"features"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type ServerConfig struct {
	Port         int `yaml:"port"`
	ReadTimeout  int `yaml:"read_timeout"`
	WriteTimeout int `yaml:"write_timeout"`
	IdleTimeout  int `yaml:"idle_timeout"`
}

type DatabaseConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	User           string `yaml:"user"`
	Password       string `yaml:"password"`
	DBName         string `yaml:"dbname"`
	SSLMode        string `yaml:"sslmode"`
	TimeZone       string `yaml:"timezone"`
	MigrationsPath string `yaml:"migrations_path"`
}

type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// AggregatorConfig holds the HTTP/browser target the engine crawls.
type AggregatorConfig struct {
	BaseURL       string `yaml:"base_url"`
	UserAgent     string `yaml:"user_agent"`
	TimeoutMs     int    `yaml:"timeout_ms"`
	RetryCount    int    `yaml:"retry_count"`
	ListPath      string `yaml:"list_path"`
	DetailPath    string `yaml:"detail_path"`
}

// BudgetConfig holds per-stage overrides for the Budget (all in ms, 0 means
// "use the built-in default").
type BudgetConfig struct {
	TotalMs        int `yaml:"total_ms"`
	CacheMs        int `yaml:"cache_ms"`
	FastPathMs     int `yaml:"fastpath_ms"`
	SlowPathMs     int `yaml:"slowpath_ms"`
	MinRemainingMs int `yaml:"min_remaining_ms"`
	BroadQueryFastPathMs int `yaml:"broad_query_fastpath_ms"`
}

// ResourcesConfig points at the static resource files.
type ResourcesConfig struct {
	Dir string `yaml:"dir"`
}

// FeaturesConfig holds runtime feature flags.
type FeaturesConfig struct {
	SlowPathEnabled bool `yaml:"slowpath_enabled"`
}

type LoggingConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	OutputPath string `yaml:"output_path"`
}

// Load reads the config file named by CONFIG_FILE (default config.yaml) and
// applies environment variable overrides on top.
func Load() (*Config, error) {
	path := os.Getenv("CONFIG_FILE")
	if path == "" {
		path = "config.yaml"
	}

	cfg := defaults()

	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080, ReadTimeout: 15, WriteTimeout: 15, IdleTimeout: 60},
		Database: DatabaseConfig{
			Host: "localhost", Port: 5432, User: "postgres", DBName: "pricesearch",
			SSLMode: "disable", TimeZone: "UTC", MigrationsPath: "migrations",
		},
		Redis: RedisConfig{Host: "localhost", Port: 6379},
		Aggregator: AggregatorConfig{
			BaseURL:    "https://aggregator.example.com",
			UserAgent:  "Mozilla/5.0 (compatible; PriceSearchEngine/1.0)",
			TimeoutMs:  3000,
			RetryCount: 0,
			ListPath:   "/search",
			DetailPath: "/product",
		},
		Budget: BudgetConfig{
			TotalMs: 12000, CacheMs: 500, FastPathMs: 4000, SlowPathMs: 6500,
			MinRemainingMs: 1000, BroadQueryFastPathMs: 10000,
		},
		Resources: ResourcesConfig{Dir: "src/resources/data"},
		Features:  FeaturesConfig{SlowPathEnabled: true},
		Logging:   LoggingConfig{Level: "info", Format: "json", OutputPath: "stdout"},
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ENVIRONMENT"); v != "" {
		// read but unused: it changes nothing in the loaded config and is
		// not logged.
		_ = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("DB_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = n
		}
	}
	if v := os.Getenv("DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("DB_NAME"); v != "" {
		cfg.Database.DBName = v
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		cfg.Redis.Host = v
	}
	if v := os.Getenv("REDIS_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Redis.Port = n
		}
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("AGGREGATOR_BASE_URL"); v != "" {
		cfg.Aggregator.BaseURL = v
	}
	if v := os.Getenv("AGGREGATOR_USER_AGENT"); v != "" {
		cfg.Aggregator.UserAgent = v
	}
	if v := os.Getenv("FEATURES_SLOWPATH_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Features.SlowPathEnabled = b
		}
	}
	if v := os.Getenv("BUDGET_TOTAL_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Budget.TotalMs = n
		}
	}
	if v := os.Getenv("BUDGET_FASTPATH_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Budget.FastPathMs = n
		}
	}
	if v := os.Getenv("BUDGET_SLOWPATH_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Budget.SlowPathMs = n
		}
	}
}

// Duration helpers, used when wiring into the Budget.

func (b BudgetConfig) Total() time.Duration        { return msOrDefault(b.TotalMs, 12000) }
func (b BudgetConfig) Cache() time.Duration        { return msOrDefault(b.CacheMs, 500) }
func (b BudgetConfig) FastPath() time.Duration     { return msOrDefault(b.FastPathMs, 4000) }
func (b BudgetConfig) SlowPath() time.Duration     { return msOrDefault(b.SlowPathMs, 6500) }
func (b BudgetConfig) MinRemaining() time.Duration { return msOrDefault(b.MinRemainingMs, 1000) }
func (b BudgetConfig) BroadQueryFastPath() time.Duration {
	return msOrDefault(b.BroadQueryFastPathMs, 10000)
}

func msOrDefault(ms int, def int) time.Duration {
	if ms <= 0 {
		ms = def
	}
	return time.Duration(ms) * time.Millisecond
}
