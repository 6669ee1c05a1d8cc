package config

import (
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Session  SessionConfig
	Redis    RedisConfig
	Events   EventsConfig
	Log      LogConfig
	HTTP     HTTPConfig
}

type ServerConfig struct {
	Port string
	Host string
	Env  string
}

// IsDevelopment reports whether the server runs in the development environment
func (s ServerConfig) IsDevelopment() bool {
	return s.Env == "development"
}

type DatabaseConfig struct {
	URL          string // Full database URL
	Host         string
	Port         int
	User         string
	Password     string
	DBName       string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type SessionConfig struct {
	Secret string
	Name   string
}

type RedisConfig struct {
	URL              string
	CountCacheTTL    time.Duration
	CountCachePrefix string
}

type EventsConfig struct {
	AMQPURL  string
	Exchange string
}

// HTTPConfig covers the outer HTTP surface: CORS and write rate limiting
type HTTPConfig struct {
	AllowedOrigins    []string
	RateLimitRequests int
	RateLimitWindow   time.Duration
	ShutdownTimeout   time.Duration
}

type LogConfig struct {
	Level  string
	Format string // "console" or "json"
}

func Load() (*Config, error) {
	// Load .env files if they exist (try .env.local first, then .env)
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load(".env")

	env := getEnv("ENV", "development")

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
			Host: getEnv("HOST", "localhost"),
			Env:  env,
		},
		Database: parseDatabaseConfig(),
		Session: SessionConfig{
			Secret: getEnv("SESSION_SECRET", "your-secret-key-change-in-production"),
			Name:   getEnv("SESSION_NAME", "session"),
		},
		Redis: RedisConfig{
			URL:              getEnv("REDIS_URL", ""),
			CountCacheTTL:    getEnvAsDuration("COUNT_CACHE_TTL", 5*time.Minute),
			CountCachePrefix: getEnv("COUNT_CACHE_PREFIX", "checkout:count:"),
		},
		Events: EventsConfig{
			AMQPURL:  getEnv("AMQP_URL", ""),
			Exchange: getEnv("EVENTS_EXCHANGE", "marketplace.events"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", defaultLogFormat(env)),
		},
		HTTP: HTTPConfig{
			AllowedOrigins:    getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
			RateLimitRequests: getEnvAsInt("RATE_LIMIT_REQUESTS", 60),
			RateLimitWindow:   getEnvAsDuration("RATE_LIMIT_WINDOW", time.Minute),
			ShutdownTimeout:   getEnvAsDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		},
	}

	return config, nil
}

func defaultLogFormat(env string) string {
	if env == "development" {
		return "console"
	}
	return "json"
}

func parseDatabaseConfig() DatabaseConfig {
	var config DatabaseConfig

	// Check if DATABASE_URL is provided
	if databaseURL := getEnv("DATABASE_URL", ""); databaseURL != "" {
		config = parseDatabaseURL(databaseURL)
	} else {
		// Fall back to individual environment variables
		config = DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "surplus_marketplace"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		}
	}

	config.MaxOpenConns = getEnvAsInt("DB_MAX_OPEN_CONNS", 25)
	config.MaxIdleConns = getEnvAsInt("DB_MAX_IDLE_CONNS", 5)
	return config
}

func parseDatabaseURL(databaseURL string) DatabaseConfig {
	config := DatabaseConfig{
		URL: databaseURL,
	}

	u, err := url.Parse(databaseURL)
	if err != nil {
		// If parsing fails, return the URL as-is
		return config
	}

	config.Host = u.Hostname()
	if u.Port() != "" {
		config.Port, _ = strconv.Atoi(u.Port())
	} else {
		config.Port = 5432
	}

	if u.User != nil {
		config.User = u.User.Username()
		config.Password, _ = u.User.Password()
	}

	config.DBName = strings.TrimPrefix(u.Path, "/")

	config.SSLMode = u.Query().Get("sslmode")
	if config.SSLMode == "" {
		config.SSLMode = "disable"
	}

	return config
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var list []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			list = append(list, part)
		}
	}
	return list
}
