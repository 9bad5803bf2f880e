package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SharanBarfa/ERM-server/internal/domain"
)

func TestLoad(t *testing.T) {
	v := viper.New()
	v.Set("group_id", "erm-activity-logger")
	v.Set("max_retries", 5)
	v.Set("notify_timeout", "3s")
	v.Set("notify_email_to", "ops@example.com")

	cfg := Load(v)
	assert.Equal(t, "erm-activity-logger", cfg.GroupID)
	assert.Equal(t, 5, cfg.MaxRetries)
	assert.Equal(t, 3*time.Second, cfg.NotifyTimeout)
	assert.Equal(t, "ops@example.com", cfg.NotifyEmailTo)
}

func TestParseActivityTypes(t *testing.T) {
	all, err := ParseActivityTypes("")
	require.NoError(t, err)
	assert.Equal(t, domain.ActivityTypes, all)

	got, err := ParseActivityTypes(" new_event, task_completed ,")
	require.NoError(t, err)
	assert.Equal(t, []domain.ActivityType{domain.ActivityNewEvent, domain.ActivityTaskCompleted}, got)

	_, err = ParseActivityTypes("new_event,task_deleted")
	require.Error(t, err)
}
