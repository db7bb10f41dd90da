package config

import (
	"os"
	"strings"
	"time"
)

// Server captures process-level configuration. Values come from the
// environment so main stays lean; dev defaults keep the service bootable
// without any variables set.
type Server struct {
	Addr          string
	DatabaseURL   string
	RedisURL      string
	KafkaBrokers  []string
	JWTSigningKey string

	PaystackSecret  string
	PaystackBaseURL string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
}

// RedisConfig tunes the shared Redis client.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	cfg := Server{
		Addr:            envOr("EASYFORM_ADDR", ":8080"),
		DatabaseURL:     os.Getenv("EASYFORM_DATABASE_URL"),
		RedisURL:        os.Getenv("EASYFORM_REDIS_URL"),
		JWTSigningKey:   envOr("EASYFORM_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		PaystackSecret:  os.Getenv("PAYSTACK_SECRET_KEY"),
		PaystackBaseURL: envOr("PAYSTACK_BASE_URL", "https://api.paystack.co"),
		MinioEndpoint:   os.Getenv("EASYFORM_MINIO_ENDPOINT"),
		MinioAccessKey:  os.Getenv("EASYFORM_MINIO_ACCESS_KEY"),
		MinioSecretKey:  os.Getenv("EASYFORM_MINIO_SECRET_KEY"),
		MinioBucket:     envOr("EASYFORM_MINIO_BUCKET", "easyform-exports"),
		MinioUseSSL:     os.Getenv("EASYFORM_MINIO_USE_SSL") == "true",
	}
	if brokers := os.Getenv("EASYFORM_KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	return cfg
}

// Redis returns the Redis client configuration with pool defaults.
func (s Server) Redis() RedisConfig {
	return RedisConfig{
		URL:          s.RedisURL,
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
