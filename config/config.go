package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	SQS    SQSConfig
	Redis  RedisConfig
	API    APIConfig
	Worker WorkerConfig
	Log    LogConfig
}

type SQSConfig struct {
	Region      string
	Endpoint    string // optional, set for LocalStack
	QueueName   string
	MaxMessages int32
	WaitSeconds int32
}

type RedisConfig struct {
	Addr           string
	DB             int
	IdempotencyTTL time.Duration
}

type APIConfig struct {
	Addr string
	Mode string // gin mode: debug | release
}

type WorkerConfig struct {
	IdleDelay time.Duration
}

type LogConfig struct {
	Mode string // dev | prod
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	maxMessages, _ := strconv.Atoi(getEnv("SQS_MAX_MESSAGES", "10"))
	waitSeconds, _ := strconv.Atoi(getEnv("SQS_WAIT_SECONDS", "2"))
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	ttlHours, _ := strconv.Atoi(getEnv("IDEMPOTENCY_TTL_HOURS", "24"))
	idleMillis, _ := strconv.Atoi(getEnv("WORKER_IDLE_DELAY_MS", "1000"))

	return &Config{
		SQS: SQSConfig{
			Region:      getEnv("AWS_REGION", "us-east-1"),
			Endpoint:    getEnv("SQS_ENDPOINT", ""),
			QueueName:   getEnv("SQS_QUEUE_NAME", "orders"),
			MaxMessages: int32(maxMessages),
			WaitSeconds: int32(waitSeconds),
		},
		Redis: RedisConfig{
			Addr:           getEnv("REDIS_ADDR", "redis:6379"),
			DB:             redisDB,
			IdempotencyTTL: time.Duration(ttlHours) * time.Hour,
		},
		API: APIConfig{
			Addr: getEnv("API_ADDR", ":8000"),
			Mode: getEnv("GIN_MODE", "release"),
		},
		Worker: WorkerConfig{
			IdleDelay: time.Duration(idleMillis) * time.Millisecond,
		},
		Log: LogConfig{
			Mode: getEnv("LOG_MODE", "prod"),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func (c *Config) Validate() error {
	if c.SQS.QueueName == "" {
		return fmt.Errorf("SQS_QUEUE_NAME is required")
	}
	if c.Redis.Addr == "" {
		return fmt.Errorf("REDIS_ADDR is required")
	}
	if c.SQS.MaxMessages < 1 || c.SQS.MaxMessages > 10 {
		return fmt.Errorf("SQS_MAX_MESSAGES must be between 1 and 10")
	}
	return nil
}
