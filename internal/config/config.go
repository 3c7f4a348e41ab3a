package config

import (
	"fmt"

	"github.com/Netflix/go-env"
)

type Config struct {
	DatabaseDSN          string `env:"DATABASE_DSN,required=true"`
	RabbitMQURL          string `env:"RABBITMQ_URL,required=true"`
	RedisURL             string `env:"REDIS_URL,required=true"`
	EncryptionKey        string `env:"ENCRYPTION_KEY,required=true"`
	WorkerConcurrency    int    `env:"WORKER_CONCURRENCY,default=16"`
	RateLimitPerSec      int    `env:"RATE_LIMIT_PER_SEC,default=100"`
	MaxRetries           int    `env:"MAX_RETRIES,default=3"`
	SweepIntervalSeconds int    `env:"SWEEP_INTERVAL_SECONDS,default=60"`
	RetryScanSeconds     int    `env:"RETRY_SCAN_SECONDS,default=5"`
	EmailFilePath        string `env:"EMAIL_FILE_PATH,default=/var/spool/notify-core"`
	AWSRegion            string `env:"AWS_REGION,default=us-east-1"`
	HTTPPort             int    `env:"HTTP_PORT,default=8080"`
	LogLevel             string `env:"LOG_LEVEL,default=info"`
}

func Load() (*Config, error) {
	var cfg Config
	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}
