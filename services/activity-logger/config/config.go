package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/SharanBarfa/ERM-server/internal/domain"
)

// Config holds typed configuration for the activity-logger service.
type Config struct {
	LogLevel      string
	KafkaBrokers  string
	ActivityTopic string
	GroupID       string
	PostgresDSN   string
	MaxRetries    int
	NotifyTimeout time.Duration
	MetricsAddr   string
	OTelEndpoint  string

	SMTPHost      string
	SMTPPort      int
	SMTPFrom      string
	SMTPUsername  string
	SMTPPassword  string
	NotifyEmailTo string

	WebhookURL   string
	WebhookTypes string
}

// Load reads all values from the given viper instance.
func Load(v *viper.Viper) Config {
	return Config{
		LogLevel:      v.GetString("log_level"),
		KafkaBrokers:  v.GetString("kafka_brokers"),
		ActivityTopic: v.GetString("activity_topic"),
		GroupID:       v.GetString("group_id"),
		PostgresDSN:   v.GetString("postgres_dsn"),
		MaxRetries:    v.GetInt("max_retries"),
		NotifyTimeout: v.GetDuration("notify_timeout"),
		MetricsAddr:   v.GetString("metrics_addr"),
		OTelEndpoint:  v.GetString("otel_endpoint"),

		SMTPHost:      v.GetString("smtp_host"),
		SMTPPort:      v.GetInt("smtp_port"),
		SMTPFrom:      v.GetString("smtp_from"),
		SMTPUsername:  v.GetString("smtp_username"),
		SMTPPassword:  v.GetString("smtp_password"),
		NotifyEmailTo: v.GetString("notify_email_to"),

		WebhookURL:   v.GetString("webhook_url"),
		WebhookTypes: v.GetString("webhook_types"),
	}
}

// ParseActivityTypes splits a comma-separated list of activity types.
// An empty list selects every type.
func ParseActivityTypes(s string) ([]domain.ActivityType, error) {
	if strings.TrimSpace(s) == "" {
		return domain.ActivityTypes, nil
	}
	var out []domain.ActivityType
	for _, part := range strings.Split(s, ",") {
		t := domain.ActivityType(strings.TrimSpace(part))
		if t == "" {
			continue
		}
		if !t.Valid() {
			return nil, fmt.Errorf("unknown activity type %q", t)
		}
		out = append(out, t)
	}
	return out, nil
}
