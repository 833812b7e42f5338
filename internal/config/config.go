package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds process-level configuration. Import behaviour (endpoint,
// mode, schedule, webhook) is runtime state kept in the settings store.
type Config struct {
	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// Kafka
	KafkaBrokers    string
	OrderEventTopic string
	WorkerGroupID   string

	// API Configuration
	APIPort            string
	APIHost            string
	AdminToken         string
	CORSAllowedOrigins []string

	// Import
	ImportLockEnabled bool
	ImportLockTTL     time.Duration
	LogRetentionDays  int

	// Cart sessions
	CartSessionTTL time.Duration

	// Environment
	Env      string
	LogLevel string
}

func Load() (*Config, error) {
	// Load .env file
	godotenv.Load()

	return &Config{
		DatabaseURL:        getEnv("DATABASE_URL", "sqlite://masterspa.db"),
		RedisURL:           getEnv("REDIS_URL", ""),
		KafkaBrokers:       getEnv("KAFKA_BROKERS", ""),
		OrderEventTopic:    getEnv("KAFKA_ORDER_TOPIC", "order-events"),
		WorkerGroupID:      getEnv("KAFKA_GROUP_ID", "masterspa-worker"),
		APIPort:            getEnv("API_PORT", "8080"),
		APIHost:            getEnv("API_HOST", "0.0.0.0"),
		AdminToken:         getEnv("ADMIN_TOKEN", ""),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		ImportLockEnabled:  getEnvAsBool("IMPORT_LOCK_ENABLED", false),
		ImportLockTTL:      time.Duration(getEnvAsInt("IMPORT_LOCK_TTL", 900)) * time.Second,
		LogRetentionDays:   getEnvAsInt("LOG_RETENTION_DAYS", 0),
		CartSessionTTL:     time.Duration(getEnvAsInt("CART_SESSION_TTL", 172800)) * time.Second,
		Env:                getEnv("ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
	}, nil
}

// KafkaBrokerList splits the comma separated broker list.
func (c *Config) KafkaBrokerList() []string {
	return splitList(c.KafkaBrokers)
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

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	if list := splitList(os.Getenv(key)); len(list) > 0 {
		return list
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
