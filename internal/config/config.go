package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server configuration
	Port     string
	Mode     string
	LogLevel string

	// Database configuration
	DatabaseURL string

	// Redis configuration
	RedisURL        string
	ReceiptCacheTTL time.Duration

	// App Store receipt validation
	SharedSecret           string
	UseSandbox             bool
	ExcludeOldTransactions bool
	ValidatorTimeout       time.Duration

	// Access control
	APIKeys            []string
	CORSAllowedOrigins []string

	// Verification webhook
	WebhookCallbackURL string
	WebhookSecret      string
}

var AppConfig *Config

func InitConfig() error {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		// Ignore error if .env file doesn't exist
	}

	AppConfig = Load()
	return nil
}

// Load reads the configuration from the environment.
func Load() *Config {
	return &Config{
		Port:                   getEnv("PORT", "8080"),
		Mode:                   getEnv("GIN_MODE", "debug"),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
		DatabaseURL:            getEnv("DATABASE_URL", ""),
		RedisURL:               getEnv("REDIS_URL", ""),
		ReceiptCacheTTL:        getEnvDuration("RECEIPT_CACHE_TTL", 5*time.Minute),
		SharedSecret:           getEnv("APPSTORE_SHARED_SECRET", ""),
		UseSandbox:             getEnvBool("APPSTORE_SANDBOX", false),
		ExcludeOldTransactions: getEnvBool("APPSTORE_EXCLUDE_OLD_TRANSACTIONS", false),
		ValidatorTimeout:       getEnvDuration("VALIDATOR_TIMEOUT", 30*time.Second),
		APIKeys:                getEnvList("API_KEYS"),
		CORSAllowedOrigins:     getEnvList("CORS_ALLOWED_ORIGINS"),
		WebhookCallbackURL:     getEnv("WEBHOOK_CALLBACK_URL", ""),
		WebhookSecret:          getEnv("WEBHOOK_SECRET", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go duration strings ("90s") or a plain number of
// seconds.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if seconds := getEnvInt(key, -1); seconds >= 0 {
		return time.Duration(seconds) * time.Second
	}
	return defaultValue
}

func getEnvList(key string) []string {
	var list []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			list = append(list, item)
		}
	}
	return list
}
