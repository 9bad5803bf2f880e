package notify_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SharanBarfa/ERM-server/internal/notify"
)

func TestEmailNotifier_Name(t *testing.T) {
	n := notify.NewEmailNotifier(notify.EmailConfig{Host: "localhost", Port: 1025, From: "erm@test.com", To: "ops@test.com"})
	assert.Equal(t, "email", n.Name())
}

func TestEmailNotifier_MissingRecipient(t *testing.T) {
	n := notify.NewEmailNotifier(notify.EmailConfig{Host: "localhost", Port: 1025})
	err := n.Notify(context.Background(), sampleActivity())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "recipient")
}

func TestEmailNotifier_CancelledContext(t *testing.T) {
	// Port 1 is never an SMTP server; with a cancelled ctx the call returns
	// whichever of the dial error or the cancellation comes first.
	n := notify.NewEmailNotifier(notify.EmailConfig{Host: "localhost", Port: 1, To: "ops@test.com"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := n.Notify(ctx, sampleActivity())
	require.Error(t, err)
}
