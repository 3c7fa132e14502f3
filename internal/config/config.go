package config

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"fintrack/internal/crypto"
)

type Config struct {
	// HTTP Server
	Port string

	// Backend selection
	DataBackend string

	// Database
	SQLiteDBPath string
	BoltDBPath   string

	// Field-level encryption
	EncryptionPassphrase string
	EncryptionSalt       string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Recurring worker
	RecurringInterval  time.Duration
	RecurringBatchSize int
}

func Load() *Config {
	cfg := &Config{
		Port: getEnv("PORT", "8081"),

		DataBackend: getEnv("DATA_BACKEND", "memory"),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/fintrack.db"),
		BoltDBPath:   getEnv("BOLT_DB_PATH", "./data/fintrack.bolt"),

		EncryptionPassphrase: getEnv("ENCRYPTION_PASSPHRASE", ""),
		EncryptionSalt:       getEnv("ENCRYPTION_SALT", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "fintrack"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "document_changes"),

		RecurringInterval:  getEnvDuration("RECURRING_INTERVAL", 1*time.Minute),
		RecurringBatchSize: getEnvInt("RECURRING_BATCH_SIZE", 100),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	// Validate data backend
	validBackends := []string{"memory", "bolt", "sqlite"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	// Validate SQLite configuration if backend is sqlite
	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			errors = append(errors, ensureDBDir(c.SQLiteDBPath)...)
		}
	}

	// Validate bolt configuration if backend is bolt
	if c.DataBackend == "bolt" {
		if c.BoltDBPath == "" {
			errors = append(errors, "bolt database path cannot be empty when using bolt backend")
		} else {
			errors = append(errors, ensureDBDir(c.BoltDBPath)...)
		}
	}

	// Validate encryption material
	if c.EncryptionPassphrase == "" {
		errors = append(errors, "encryption passphrase cannot be empty")
	}
	if c.EncryptionSalt == "" {
		errors = append(errors, "encryption salt cannot be empty")
	} else if salt, err := base64.StdEncoding.DecodeString(c.EncryptionSalt); err != nil {
		errors = append(errors, fmt.Sprintf("invalid encryption salt: %v", err))
	} else if len(salt) != crypto.SaltSize {
		errors = append(errors, fmt.Sprintf("invalid encryption salt length %d: must be %d bytes", len(salt), crypto.SaltSize))
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}

		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	// Validate recurring worker configuration
	if c.RecurringBatchSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid recurring batch size %d: must be at least 1", c.RecurringBatchSize))
	} else if c.RecurringBatchSize > 10000 {
		errors = append(errors, fmt.Sprintf("invalid recurring batch size %d: must be at most 10000", c.RecurringBatchSize))
	}

	if c.RecurringInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid recurring interval %v: must be at least 1 second", c.RecurringInterval))
	} else if c.RecurringInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid recurring interval %v: must be at most 24 hours", c.RecurringInterval))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// EncryptionKey derives the AES key from the configured passphrase and salt.
func (c *Config) EncryptionKey() ([]byte, error) {
	return crypto.DeriveKeyFromBase64Salt(c.EncryptionPassphrase, c.EncryptionSalt)
}

func ensureDBDir(dbPath string) []string {
	dir := filepath.Dir(dbPath)
	if dir == "." || dir == "" {
		return nil
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return []string{fmt.Sprintf("cannot create database directory '%s': %v", dir, err)}
		}
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
