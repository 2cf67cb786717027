package app

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Issuer        string // Issuer claim on exported license tokens (default: licenser)
	Algorithm     string // Signing algorithm for generated keys (RSA-2048, RSA-4096, ECDSA-P256, Ed25519) (default: RSA-2048)
	MasterKeyPath string // Optional: path to the master encryption key file; falls back to LICENSER_MASTER_KEY env
	DatabaseFile  string // Path to the SQLite database file (default: ./licenser.db)

	// AutoProvisionKey generates a signing key on startup when none exists,
	// so a fresh installation can issue licenses immediately.
	AutoProvisionKey bool

	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping sweep interval (default: 1h)
}

func LoadConfig() Config {
	return Config{
		Issuer:               getEnvOrDefault("LICENSER_ISSUER", "licenser"),
		Algorithm:            getEnvOrDefault("LICENSER_ALGORITHM", "RSA-2048"),
		MasterKeyPath:        os.Getenv("LICENSER_MASTER_KEY_PATH"),
		DatabaseFile:         getEnvOrDefault("LICENSER_DATABASE_FILE", "licenser.db"),
		AutoProvisionKey:     getEnvBoolOrDefault("LICENSER_AUTO_PROVISION_KEY", true),
		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if boolValue, err := strconv.ParseBool(value); err == nil {
		return boolValue
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}
	return defaultValue
}
