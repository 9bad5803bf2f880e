package cli

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SharanBarfa/ERM-server/internal/domain"
	"github.com/SharanBarfa/ERM-server/services/activity-logger/config"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestBuildRegistry(t *testing.T) {
	reg, err := buildRegistry(config.Config{}, discardLogger)
	require.NoError(t, err)
	assert.Empty(t, reg.For(domain.ActivityNewContact), "no notifier configured")

	reg, err = buildRegistry(config.Config{
		NotifyEmailTo: "ops@example.com",
		WebhookURL:    "http://hooks.local/erm",
		WebhookTypes:  "task_completed",
	}, discardLogger)
	require.NoError(t, err)

	names := func(typ domain.ActivityType) []string {
		var out []string
		for _, n := range reg.For(typ) {
			out = append(out, n.Name())
		}
		return out
	}
	assert.Equal(t, []string{"email"}, names(domain.ActivityNewContact))
	assert.Empty(t, names(domain.ActivityNewEvent))
	assert.Equal(t, []string{"webhook"}, names(domain.ActivityTaskCompleted))
}

func TestBuildRegistry_RejectsUnknownWebhookType(t *testing.T) {
	_, err := buildRegistry(config.Config{WebhookURL: "http://hooks.local", WebhookTypes: "nope"}, discardLogger)
	require.Error(t, err)
}
