package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Feed     FeedConfig
	Scan     ScanConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port string
	Host string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	CacheTTL time.Duration
}

// KafkaConfig holds Kafka configuration
type KafkaConfig struct {
	Brokers  []string
	Topic    string
	BarTopic string
	GroupID  string
}

// FeedConfig holds the upstream IV feed configuration
type FeedConfig struct {
	BaseURL string
}

// ScanConfig holds the metrics engine and scanner parameters
type ScanConfig struct {
	WindowSize int
	JumpWindow int
	Return6M   int
	Return1M   int
	Return1W   int
	Workers    int
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "ivscanner"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			CacheTTL: getEnvDuration("SUMMARY_CACHE_TTL", 15*time.Minute),
		},
		Kafka: KafkaConfig{
			Brokers:  []string{getEnv("KAFKA_BROKERS", "localhost:9092")},
			Topic:    getEnv("KAFKA_TOPIC", "iv-scanner-events"),
			BarTopic: getEnv("KAFKA_BAR_TOPIC", "iv-daily-bars"),
			GroupID:  getEnv("KAFKA_GROUP_ID", "iv-scanner"),
		},
		Feed: FeedConfig{
			BaseURL: getEnv("FEED_BASE_URL", "https://oxide.sensibull.com"),
		},
		Scan: ScanConfig{
			WindowSize: getEnvInt("SCAN_WINDOW_SIZE", 365),
			JumpWindow: getEnvInt("SCAN_JUMP_WINDOW", 6),
			Return6M:   getEnvInt("SCAN_RETURN_6M_DAYS", 126),
			Return1M:   getEnvInt("SCAN_RETURN_1M_DAYS", 21),
			Return1W:   getEnvInt("SCAN_RETURN_1W_DAYS", 5),
			Workers:    getEnvInt("SCAN_WORKERS", 8),
		},
	}
}

// ConnectionString returns the PostgreSQL connection string
func (d *DatabaseConfig) ConnectionString() string {
	return "postgres://" + d.User + ":" + d.Password + "@" + d.Host + ":" + d.Port + "/" + d.DBName + "?sslmode=" + d.SSLMode
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
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
