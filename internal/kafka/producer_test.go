package kafka

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Validation fails before any broker is contacted.
func TestProducer_RequiresTopicAndKey(t *testing.T) {
	p := NewProducer([]string{"127.0.0.1:1"}, WithRequireAll())
	t.Cleanup(func() { _ = p.Close() })

	err := p.Publish(context.Background(), "", "k", []byte(`{}`))
	assert.ErrorIs(t, err, ErrNoTopic)

	err = p.Publish(context.Background(), "erm.activity", "", []byte(`{}`))
	require.ErrorIs(t, err, ErrNoKey)
	assert.Contains(t, err.Error(), "erm.activity")
}
