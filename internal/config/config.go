package config

import (
	"os"
	"strconv"
)

type Config struct {
	AppPort string

	StockBackend     string
	StockFilePath    string
	AddStockFilePath string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	KafkaBrokers           string
	KafkaClientID          string
	KafkaTopicPartitions   string
	KafkaReplicationFactor string
	TelemetryEnabled       string
}

func Load() *Config {
	return &Config{
		AppPort: getEnv("APP_PORT", "8080"),

		StockBackend:     getEnv("STOCK_BACKEND", "file"),
		StockFilePath:    getEnv("STOCK_FILE", "stock.xml"),
		AddStockFilePath: getEnv("ADD_STOCK_FILE", "addStock.xml"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "vendingdb"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		KafkaBrokers:           getEnv("KAFKA_BROKERS", "kafka:9092"),
		KafkaClientID:          getEnv("KAFKA_CLIENT_ID", "vending-machine"),
		KafkaTopicPartitions:   getEnv("KAFKA_TOPIC_PARTITIONS", "1"),
		KafkaReplicationFactor: getEnv("KAFKA_REPLICATION_FACTOR", "1"),
		TelemetryEnabled:       getEnv("TELEMETRY_ENABLED", "false"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func (c *Config) TopicPartitions() int {
	return parseInt(c.KafkaTopicPartitions, 1)
}

func (c *Config) ReplicationFactor() int16 {
	value := parseInt(c.KafkaReplicationFactor, 1)
	return int16(value)
}

func parseInt(value string, fallback int) int {
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}
