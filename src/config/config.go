package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	STORE_POSTGRES = "postgres"
	STORE_MEMORY   = "memory"
)

type Config struct {
	Port        string
	AppEnv      string
	StoreDriver string

	// Database
	DatabaseHost     string
	DatabasePort     string
	DatabaseUser     string
	DatabasePassword string
	DatabaseName     string
	DatabaseSSLMode  string
	DatabaseTimeZone string
	MaxOpenConns     int
	MaxIdleConns     int

	// Locking
	LockTimeout time.Duration

	// Credentials
	QrSecret   string
	QrSecretID string

	// Redis
	RedisHost  string
	QrCacheTTL time.Duration

	// Kafka
	KafkaBroker   string
	KafkaTopic    string
	KafkaClientID string

	// SNS, used for ticket events when no Kafka broker is set
	EventsTopicArn string

	// HTTP
	JWTSecret       string
	CorsOrigins     []string
	MaintenanceMode bool

	// Jobs
	AvailabilityRefresh time.Duration

	LogFile string
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("[config] Could not read .env file: %s\n", err.Error())
	}
	return &Config{
		Port:        getEnv("PORT", "9090"),
		AppEnv:      getEnv("APP_ENV", "local"),
		StoreDriver: getEnv("STORE_DRIVER", STORE_POSTGRES),

		DatabaseHost:     getEnv("DATABASE_HOST", "localhost"),
		DatabasePort:     getEnv("DATABASE_PORT", "5432"),
		DatabaseUser:     getEnv("DATABASE_USER", "postgres"),
		DatabasePassword: getEnv("DATABASE_PASSWORD", ""),
		DatabaseName:     getEnv("DATABASE_NAME", "ticketdb"),
		DatabaseSSLMode:  getEnv("DATABASE_SSLMODE", "disable"),
		DatabaseTimeZone: getEnv("DATABASE_TIMEZONE", "UTC"),
		MaxOpenConns:     getEnvAsInt("DATABASE_MAX_OPEN_CONNS", 100),
		MaxIdleConns:     getEnvAsInt("DATABASE_MAX_IDLE_CONNS", 10),

		LockTimeout: getEnvAsDuration("LOCK_TIMEOUT", "5s"),

		QrSecret:   getEnv("API_QRC_SECRET", ""),
		QrSecretID: getEnv("API_QRC_SECRET_ID", ""),

		RedisHost:  getEnv("REDIS_HOST", ""),
		QrCacheTTL: getEnvAsDuration("QR_CACHE_TTL", "2h"),

		KafkaBroker:   getEnv("KAFKA_BROKER", ""),
		KafkaTopic:    getEnv("KAFKA_TOPIC", "tickets"),
		KafkaClientID: getEnv("KAFKA_CLIENT_ID", "ticketcore"),

		EventsTopicArn: getEnv("EVENTS_SNS_TOPIC_ARN", ""),

		JWTSecret:       getEnv("JWT_SECRET", ""),
		CorsOrigins:     getEnvAsList("CORS_ORIGINS", "http://localhost:3000"),
		MaintenanceMode: getEnvAsBool("MAINTENANCE_MODE", false),

		AvailabilityRefresh: getEnvAsDuration("AVAILABILITY_REFRESH", "1m"),

		LogFile: getEnv("LOG_FILE", ""),
	}
}

func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		c.DatabaseHost, c.DatabaseUser, c.DatabasePassword, c.DatabaseName, c.DatabasePort, c.DatabaseSSLMode, c.DatabaseTimeZone)
}

// Validate checks the settings the core cannot run without. The credential
// key may still be empty when it is fetched from Secrets Manager.
func (c *Config) Validate() error {
	// postgres reads a lock_timeout of 0 as no timeout at all
	if c.LockTimeout < time.Millisecond {
		return errors.New("LOCK_TIMEOUT must be at least 1ms")
	}
	switch c.StoreDriver {
	case STORE_POSTGRES, STORE_MEMORY:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.QrSecret == "" && c.QrSecretID == "" {
		return errors.New("one of API_QRC_SECRET or API_QRC_SECRET_ID is required")
	}
	if c.QrSecret != "" {
		if _, err := ParseQrSecret(c.QrSecret); err != nil {
			return err
		}
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	return nil
}

// ParseQrSecret decodes a hex AES key of 16, 24 or 32 bytes.
func ParseQrSecret(secret string) ([]byte, error) {
	key, err := hex.DecodeString(strings.TrimSpace(secret))
	if err != nil {
		return nil, fmt.Errorf("API_QRC_SECRET is not valid hex: %w", err)
	}
	switch len(key) {
	case 16, 24, 32:
		return key, nil
	}
	return nil, fmt.Errorf("API_QRC_SECRET must be 16, 24 or 32 bytes, got %d", len(key))
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}

func getEnvAsList(key string, defaultValue string) []string {
	var values []string
	for _, v := range strings.Split(getEnv(key, defaultValue), ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	return values
}
