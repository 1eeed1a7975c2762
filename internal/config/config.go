package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv          string
	HTTPPort        string
	BaseURL         string
	APIPath         string
	RequestTimeout  time.Duration // 0 means no deadline on remote calls
	ShutdownTimeout time.Duration

	BreakerEnabled     bool
	BreakerMaxFailures uint32
	BreakerOpenTimeout time.Duration

	RedisAddr     string
	RedisPassword string
	CatalogTTL    time.Duration
}

// Load reads .env when present, then the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment variables")
	}

	return &Config{
		AppEnv:          getEnv("APP_ENV", "development"),
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		BaseURL:         getEnv("BASE_URL", getEnv("VITE_BASE_URL", "")),
		APIPath:         getEnv("API_PATH", getEnv("VITE_API_PATH", "")),
		RequestTimeout:  getDuration("REQUEST_TIMEOUT", 0),
		ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 10*time.Second),

		BreakerEnabled:     getBool("BREAKER_ENABLED", true),
		BreakerMaxFailures: uint32(getInt("BREAKER_MAX_FAILURES", 5)),
		BreakerOpenTimeout: getDuration("BREAKER_OPEN_TIMEOUT", 30*time.Second),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		CatalogTTL:    getDuration("CATALOG_TTL", 15*time.Minute),
	}
}

func (c *Config) Validate() error {
	var errs []error
	if c.BaseURL == "" {
		errs = append(errs, errors.New("BASE_URL is required"))
	}
	if c.APIPath == "" {
		errs = append(errs, errors.New("API_PATH is required"))
	}
	if c.BreakerEnabled && c.BreakerMaxFailures == 0 {
		errs = append(errs, errors.New("BREAKER_MAX_FAILURES must be positive"))
	}
	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("invalid %s=%q, using %s", key, value, defaultValue)
		return defaultValue
	}
	return d
}

func getBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("invalid %s=%q, using %t", key, value, defaultValue)
		return defaultValue
	}
	return b
}

func getInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		log.Printf("invalid %s=%q, using %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}
