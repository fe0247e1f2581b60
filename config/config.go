package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application-level configuration
type Config struct {
	// Database
	DatabaseDriver string // "postgres" or "sqlite3"
	DatabaseURL    string

	// Scraper
	RateLimitDelay   int // milliseconds between provider requests
	LookupTimeout    time.Duration
	FlushInterval    int // completions between checkpoint writes
	GoogleFlightsURL string
	Headless         bool
	ChromePath       string // empty uses chromedp's default lookup
	Currency         string

	// Key space
	DomesticDays int
	IntlDays     int
	IntlSamples  int // departure dates drawn per trip length
	RoutesFile   string

	// Output
	CheckpointDir string
	CSVFilePath   string

	// Lookup cache
	CacheEnabled  bool
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	// Dashboard API
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	ResultLimit  int
	MetricsPort  string // run command serves /metrics here when set

	LogLevel string
}

// Load reads configuration from a .env file and environment variables or falls back to defaults
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		DatabaseDriver:   getEnv("DATABASE_DRIVER", "sqlite3"),
		DatabaseURL:      getEnv("DATABASE_URL", "logs/flights.db"),
		RateLimitDelay:   getEnvInt("RATE_LIMIT_DELAY_MS", 2000),
		LookupTimeout:    getEnvDuration("LOOKUP_TIMEOUT", 30*time.Second),
		FlushInterval:    getEnvInt("FLUSH_INTERVAL", 10),
		GoogleFlightsURL: getEnv("GOOGLE_FLIGHTS_URL", "https://www.google.com/travel/flights"),
		Headless:         getEnvBool("HEADLESS", true),
		ChromePath:       getEnv("CHROME_PATH", ""),
		Currency:         getEnv("CURRENCY", "USD"),
		DomesticDays:     getEnvInt("DOMESTIC_DAYS", 60),
		IntlDays:         getEnvInt("INTL_DAYS", 180),
		IntlSamples:      getEnvInt("INTL_SAMPLES", 20),
		RoutesFile:       getEnv("ROUTES_FILE", ""),
		CheckpointDir:    getEnv("CHECKPOINT_DIR", "logs"),
		CSVFilePath:      getEnv("CSV_FILE_PATH", "output/flights.csv"),
		CacheEnabled:     getEnvBool("CACHE_ENABLED", false),
		RedisHost:        getEnv("REDIS_HOST", "localhost"),
		RedisPort:        getEnv("REDIS_PORT", "6379"),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		RedisDB:          getEnvInt("REDIS_DB", 0),
		CacheTTL:         getEnvDuration("CACHE_TTL", 30*time.Minute),
		Port:             getEnv("PORT", "8501"),
		ReadTimeout:      getEnvDuration("READ_TIMEOUT", 30*time.Second),
		WriteTimeout:     getEnvDuration("WRITE_TIMEOUT", 30*time.Second),
		ResultLimit:      getEnvInt("RESULT_LIMIT", 1000),
		MetricsPort:      getEnv("METRICS_PORT", ""),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
	}
}

// Validate rejects values the pipeline cannot run with
func (c *Config) Validate() error {
	switch c.DatabaseDriver {
	case "postgres", "sqlite3":
	default:
		return fmt.Errorf("DATABASE_DRIVER must be postgres or sqlite3, got %q", c.DatabaseDriver)
	}
	if c.FlushInterval < 1 {
		return fmt.Errorf("FLUSH_INTERVAL must be at least 1, got %d", c.FlushInterval)
	}
	if c.LookupTimeout <= 0 {
		return fmt.Errorf("LOOKUP_TIMEOUT must be positive, got %v", c.LookupTimeout)
	}
	if c.DomesticDays < 1 || c.IntlDays < 1 {
		return fmt.Errorf("DOMESTIC_DAYS and INTL_DAYS must be at least 1")
	}
	if c.IntlSamples > c.IntlDays-1 {
		return fmt.Errorf("INTL_SAMPLES (%d) cannot exceed INTL_DAYS-1 (%d)", c.IntlSamples, c.IntlDays-1)
	}
	if c.ResultLimit < 1 {
		return fmt.Errorf("RESULT_LIMIT must be at least 1, got %d", c.ResultLimit)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val == "true" || val == "1" || val == "yes"
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return d
}
