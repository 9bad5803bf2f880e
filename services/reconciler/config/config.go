package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config holds typed configuration for the reconciler service.
type Config struct {
	LogLevel      string
	MongoURI      string
	MongoDatabase string
	RedisAddr     string
	Cron          string
	LeaderTTL     time.Duration
	LockTTL       time.Duration
	MetricsAddr   string
	OTelEndpoint  string
}

// Load reads all values from the given viper instance.
func Load(v *viper.Viper) Config {
	return Config{
		LogLevel:      v.GetString("log_level"),
		MongoURI:      v.GetString("mongo_uri"),
		MongoDatabase: v.GetString("mongo_database"),
		RedisAddr:     v.GetString("redis_addr"),
		Cron:          v.GetString("cron"),
		LeaderTTL:     v.GetDuration("leader_ttl"),
		LockTTL:       v.GetDuration("lock_ttl"),
		MetricsAddr:   v.GetString("metrics_addr"),
		OTelEndpoint:  v.GetString("otel_endpoint"),
	}
}
