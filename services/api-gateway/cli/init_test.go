package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitCmd_WritesDefaultConfig(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "nested", "api-gateway.yaml")
	cfgFile = dest
	t.Cleanup(func() { cfgFile = "" })

	cmd := newInitCmd("api-gateway", defaultAPIGatewayYAML)
	require.NoError(t, cmd.RunE(cmd, nil))

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Contains(t, string(data), "completed_at_policy")

	// A second run without --force refuses to overwrite.
	require.Error(t, cmd.RunE(cmd, nil))

	require.NoError(t, cmd.Flags().Set("force", "true"))
	require.NoError(t, cmd.RunE(cmd, nil))
}

func TestBuildLogger_Levels(t *testing.T) {
	assert.NotNil(t, buildLogger("debug", "api-gateway"))
	assert.NotNil(t, buildLogger("bogus", "api-gateway"))
}
