package common

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	LLM     LLMConfig
	Store   StoreConfig
	Dirs    DirsConfig
	Pricing PricingConfig
	Server  ServerConfig
	Log     LogConfig
}

// LLMConfig holds LLM-related configuration
type LLMConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	Timeout     time.Duration
	MaxRetries  int
	Backoff     time.Duration
	PromptsFile string
}

// StoreConfig selects and configures the document store
type StoreConfig struct {
	Driver      string // file | sqlite | postgres
	DataDir     string
	SQLitePath  string
	DSN         string
	MaxConns    int32
	DialTimeout time.Duration
}

// DirsConfig holds the working folders
type DirsConfig struct {
	Input     string
	Calculate string
	Output    string
	Responses string
}

// PricingConfig holds the tunables of the consolidation engine
type PricingConfig struct {
	VarianceThreshold   float64
	MatchThreshold      float64
	OptimizeConcurrency int
}

// ServerConfig holds serve-mode configuration
type ServerConfig struct {
	GRPCAddr      string
	MetricsAddr   string
	WatchInput    bool
	WatchDebounce time.Duration
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string
}

// Store drivers.
const (
	StoreDriverFile     = "file"
	StoreDriverSQLite   = "sqlite"
	StoreDriverPostgres = "postgres"
)

// LoadConfig loads configuration from environment variables, reading a .env file first when present.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, NewAppError("CONFIG_ERROR", "failed to read .env", err)
	}
	return configFromEnv(), nil
}

func configFromEnv() *Config {
	dataDir := getEnv("DATA_DIR", "data")
	return &Config{
		LLM: LLMConfig{
			APIKey:      getEnv("OPENAI_API_KEY", ""),
			BaseURL:     getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Model:       getEnv("OPENAI_MODEL", "o4-mini-2025-04-16"),
			Temperature: getEnvAsFloat32("OPENAI_TEMPERATURE", 0.1),
			Timeout:     getEnvAsDuration("OPENAI_TIMEOUT", 120*time.Second),
			MaxRetries:  getEnvAsInt("OPENAI_MAX_RETRIES", 2),
			Backoff:     getEnvAsDuration("OPENAI_BACKOFF", 5*time.Second),
			PromptsFile: getEnv("PROMPTS_FILE", ""),
		},
		Store: StoreConfig{
			Driver:      strings.ToLower(getEnv("STORE_DRIVER", StoreDriverFile)),
			DataDir:     dataDir,
			SQLitePath:  getEnv("SQLITE_PATH", dataDir+"/smeta.db"),
			DSN:         getEnv("DB_URL", ""),
			MaxConns:    getEnvAsInt32("DB_MAX_CONNS", 5),
			DialTimeout: getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
		},
		Dirs: DirsConfig{
			Input:     getEnv("INPUT_DIR", "input"),
			Calculate: getEnv("CALCULATE_DIR", "calculate"),
			Output:    getEnv("OUTPUT_DIR", "output"),
			Responses: getEnv("RESPONSES_DIR", "output/ai_responses"),
		},
		Pricing: PricingConfig{
			VarianceThreshold:   getEnvAsFloat64("PRICE_VARIANCE_THRESHOLD", 25.0),
			MatchThreshold:      getEnvAsFloat64("MATCH_THRESHOLD", 0.3),
			OptimizeConcurrency: getEnvAsInt("OPTIMIZE_CONCURRENCY", 1),
		},
		Server: ServerConfig{
			GRPCAddr:      getEnv("GRPC_ADDR", ":8080"),
			MetricsAddr:   getEnv("METRICS_ADDR", ":9090"),
			WatchInput:    getEnvAsBool("WATCH_INPUT", true),
			WatchDebounce: getEnvAsDuration("WATCH_DEBOUNCE", 2*time.Second),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// AIEnabled reports whether an API key is configured.
func (c *Config) AIEnabled() bool {
	return strings.TrimSpace(c.LLM.APIKey) != ""
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case StoreDriverFile:
		if c.Store.DataDir == "" {
			return NewAppError("CONFIG_ERROR", "DATA_DIR is required for the file store", ErrInvalidInput)
		}
	case StoreDriverSQLite:
		if c.Store.SQLitePath == "" {
			return NewAppError("CONFIG_ERROR", "SQLITE_PATH is required for the sqlite store", ErrInvalidInput)
		}
	case StoreDriverPostgres:
		if c.Store.DSN == "" {
			return NewAppError("CONFIG_ERROR", "DB_URL is required for the postgres store", ErrInvalidInput)
		}
	default:
		return NewAppError("CONFIG_ERROR", "unknown STORE_DRIVER "+strconv.Quote(c.Store.Driver), ErrInvalidInput)
	}
	if c.Pricing.VarianceThreshold < 0 {
		return NewAppError("CONFIG_ERROR", "PRICE_VARIANCE_THRESHOLD must be >= 0", ErrInvalidInput)
	}
	if c.Pricing.MatchThreshold < 0 || c.Pricing.MatchThreshold > 1 {
		return NewAppError("CONFIG_ERROR", "MATCH_THRESHOLD must be within [0,1]", ErrInvalidInput)
	}
	if c.Pricing.OptimizeConcurrency < 1 {
		return NewAppError("CONFIG_ERROR", "OPTIMIZE_CONCURRENCY must be >= 1", ErrInvalidInput)
	}
	if c.LLM.MaxRetries < 0 {
		return NewAppError("CONFIG_ERROR", "OPENAI_MAX_RETRIES must be >= 0", ErrInvalidInput)
	}
	return nil
}
