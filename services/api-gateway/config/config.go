package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

// Config holds typed configuration for the api-gateway service.
type Config struct {
	LogLevel     string
	HTTPPort     string
	MetricsAddr  string
	OTelEndpoint string

	MongoURI      string
	MongoDatabase string
	PostgresDSN   string
	RedisAddr     string
	KafkaBrokers  string
	ActivityTopic string

	JWTSecret      string
	TrustedProxies string

	CompletedAtPolicy string
	TaskCacheTTL      time.Duration
	LockTTL           time.Duration
	ContactRateLimit  int
	ContactRateWindow time.Duration
}

// Load reads all values from the given viper instance.
func Load(v *viper.Viper) Config {
	return Config{
		LogLevel:     v.GetString("log_level"),
		HTTPPort:     v.GetString("http_port"),
		MetricsAddr:  v.GetString("metrics_addr"),
		OTelEndpoint: v.GetString("otel_endpoint"),

		MongoURI:      v.GetString("mongo_uri"),
		MongoDatabase: v.GetString("mongo_database"),
		PostgresDSN:   v.GetString("postgres_dsn"),
		RedisAddr:     v.GetString("redis_addr"),
		KafkaBrokers:  v.GetString("kafka_brokers"),
		ActivityTopic: v.GetString("activity_topic"),

		JWTSecret:      v.GetString("jwt_secret"),
		TrustedProxies: v.GetString("trusted_proxies"),

		CompletedAtPolicy: v.GetString("completed_at_policy"),
		TaskCacheTTL:      v.GetDuration("task_cache_ttl"),
		LockTTL:           v.GetDuration("lock_ttl"),
		ContactRateLimit:  v.GetInt("contact_rate_limit"),
		ContactRateWindow: v.GetDuration("contact_rate_window"),
	}
}

// Validate rejects configurations the server must not start with.
func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("jwt_secret is required")
	}
	return nil
}
