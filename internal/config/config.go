package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/vytor/sillychess/internal/logger"
)

type Config struct {
	Addr                 string  `yaml:"addr"`
	DBPath               string  `yaml:"db_path"`
	RedisURL             string  `yaml:"redis_url"`
	SessionTTLSec        int     `yaml:"session_ttl_sec"`
	StockfishPath        string  `yaml:"stockfish_path"`
	StockfishDepth       int     `yaml:"stockfish_depth"`
	EnginePoolSize       int     `yaml:"engine_pool_size"`
	SmartMoveProbability float64 `yaml:"smart_move_probability"`
	LogLevel             string  `yaml:"log_level"`
	LogFormat            string  `yaml:"log_format"`
	ArchiveWorkerCount   int     `yaml:"archive_worker_count"`
	ArchiveQueueSize     int     `yaml:"archive_queue_size"`
	SecureCookies        bool    `yaml:"secure_cookies"`
}

// Defaults returns the configuration used when neither a config file nor
// the environment provides a value.
func Defaults() Config {
	return Config{
		Addr:                 ":8080",
		DBPath:               "file:sillychess.db",
		SessionTTLSec:        6 * 3600,
		StockfishPath:        "stockfish",
		StockfishDepth:       15,
		EnginePoolSize:       2,
		SmartMoveProbability: 0.8,
		LogLevel:             "INFO",
		LogFormat:            "console",
		ArchiveWorkerCount:   1,
		ArchiveQueueSize:     64,
	}
}

// Load reads configuration from a .env file (if present), an optional YAML
// file named by CONFIG_FILE, and environment variables. Environment wins.
func Load() (Config, error) {
	// Ignore error so the app still starts when .env is absent in production.
	_ = godotenv.Load()

	cfg := Defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	cfg.Addr = envOr("ADDR", cfg.Addr)
	cfg.DBPath = envOr("DB_PATH", cfg.DBPath)
	cfg.RedisURL = envOr("REDIS_URL", cfg.RedisURL)
	cfg.SessionTTLSec = envIntOr("SESSION_TTL_SEC", cfg.SessionTTLSec)
	cfg.StockfishPath = envOr("STOCKFISH_PATH", cfg.StockfishPath)
	cfg.StockfishDepth = envIntOr("STOCKFISH_DEPTH", cfg.StockfishDepth)
	cfg.EnginePoolSize = envIntOr("ENGINE_POOL_SIZE", cfg.EnginePoolSize)
	cfg.SmartMoveProbability = envFloatOr("SMART_MOVE_PROBABILITY", cfg.SmartMoveProbability)
	cfg.LogLevel = envOr("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = envOr("LOG_FORMAT", cfg.LogFormat)
	cfg.ArchiveWorkerCount = envIntOr("ARCHIVE_WORKER_COUNT", cfg.ArchiveWorkerCount)
	cfg.ArchiveQueueSize = envIntOr("ARCHIVE_QUEUE_SIZE", cfg.ArchiveQueueSize)
	cfg.SecureCookies = envBoolOr("SECURE_COOKIES", cfg.SecureCookies)

	return cfg, cfg.Validate()
}

func loadFile(path string, cfg *Config) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("ADDR cannot be empty")
	}
	if strings.TrimSpace(c.DBPath) == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.SessionTTLSec <= 0 {
		return fmt.Errorf("SESSION_TTL_SEC must be positive, got %d", c.SessionTTLSec)
	}
	if c.StockfishDepth < 1 || c.StockfishDepth > 50 {
		return fmt.Errorf("STOCKFISH_DEPTH must be between 1 and 50, got %d", c.StockfishDepth)
	}
	if c.EnginePoolSize < 1 {
		return fmt.Errorf("ENGINE_POOL_SIZE must be at least 1, got %d", c.EnginePoolSize)
	}
	if c.SmartMoveProbability < 0 || c.SmartMoveProbability > 1 {
		return fmt.Errorf("SMART_MOVE_PROBABILITY must be between 0 and 1, got %v", c.SmartMoveProbability)
	}
	switch strings.ToUpper(c.LogLevel) {
	case "DEBUG", "INFO", "WARN", "WARNING", "ERROR":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of DEBUG, INFO, WARN, ERROR, got %q", c.LogLevel)
	}
	if c.ArchiveWorkerCount < 1 {
		return fmt.Errorf("ARCHIVE_WORKER_COUNT must be at least 1, got %d", c.ArchiveWorkerCount)
	}
	if c.ArchiveQueueSize < 1 {
		return fmt.Errorf("ARCHIVE_QUEUE_SIZE must be at least 1, got %d", c.ArchiveQueueSize)
	}
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
		logger.Warn("invalid value for %s=%q, using default %d", key, v, def)
	}
	return def
}

func envBoolOr(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
		logger.Warn("invalid value for %s=%q, using default %t", key, v, def)
	}
	return def
}

func envFloatOr(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		logger.Warn("invalid value for %s=%q, using default %v", key, v, def)
	}
	return def
}
