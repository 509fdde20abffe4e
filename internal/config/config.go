package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"

	minSecretLength = 16
)

// Config holds application configuration from environment.
type Config struct {
	HTTPPort    string
	GinMode     string
	APIBasePath string

	Storage     string
	DatabaseURL string
	DBPoolSize  int

	JWTSecret          string
	JWTAlgorithm       string
	AccessTokenMinutes int
	BcryptCost         int

	RedisURL      string
	RedisPoolSize int
	CacheTTL      int // seconds

	KafkaBrokers    []string
	KafkaTopic      string
	KafkaPartitions int

	CORSAllowedOrigins []string
	LogLevel           string
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first; variables already set in the process win.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config: loading %s: %w", f, err)
		}
	}

	cfg := &Config{
		HTTPPort:           getEnv("HTTP_PORT", "8080"),
		GinMode:            getEnv("GIN_MODE", "release"),
		APIBasePath:        strings.TrimRight(os.Getenv("API_BASE_PATH"), "/"),
		Storage:            getEnv("STORAGE", StoragePostgres),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		DBPoolSize:         getIntEnv("DB_POOL_SIZE", 20),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		JWTAlgorithm:       getEnv("JWT_ALGORITHM", "HS256"),
		AccessTokenMinutes: getIntEnv("ACCESS_TOKEN_EXPIRE_MINUTES", 30),
		BcryptCost:         getIntEnv("BCRYPT_COST", 12),
		RedisURL:           os.Getenv("REDIS_URL"),
		RedisPoolSize:      getIntEnv("REDIS_POOL_SIZE", 50),
		CacheTTL:           getIntEnv("CACHE_TTL_SEC", 60),
		KafkaBrokers:       getSliceEnv("KAFKA_BROKERS"),
		KafkaTopic:         getEnv("KAFKA_TODO_TOPIC", "todo-events"),
		KafkaPartitions:    getIntEnv("KAFKA_PARTITIONS", 8),
		CORSAllowedOrigins: getSliceEnv("CORS_ALLOWED_ORIGINS"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		cfg.CORSAllowedOrigins = []string{"*"}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values that the rest of the process relies on being sane.
func (c *Config) Validate() error {
	if len(c.JWTSecret) < minSecretLength {
		return fmt.Errorf("config: JWT_SECRET must be at least %d characters", minSecretLength)
	}
	switch c.JWTAlgorithm {
	case "HS256", "HS384", "HS512":
	default:
		return fmt.Errorf("config: unsupported JWT_ALGORITHM %q", c.JWTAlgorithm)
	}
	if c.AccessTokenMinutes <= 0 {
		return errors.New("config: ACCESS_TOKEN_EXPIRE_MINUTES must be positive")
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("config: BCRYPT_COST %d out of range [4,31]", c.BcryptCost)
	}
	switch c.Storage {
	case StoragePostgres:
		if c.DatabaseURL == "" {
			return errors.New("config: DATABASE_URL is not set")
		}
	case StorageMemory:
	default:
		return fmt.Errorf("config: unknown STORAGE %q", c.Storage)
	}
	return nil
}

// AccessTokenTTL is the default lifetime of issued bearer tokens.
func (c *Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.AccessTokenMinutes) * time.Minute
}

func (c *Config) CacheTTLDuration() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getIntEnv(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

func getSliceEnv(key string) []string {
	var out []string
	for _, s := range strings.Split(os.Getenv(key), ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
