package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, v := range []string{
		"TDD_GUARD_TIMEOUT_SECONDS",
		"EXTERNAL_TOOL_CHECK_TIMEOUT_SECONDS",
		"MCP_CALL_TIMEOUT_SECONDS",
		"CLAUDE_AGENT_TIMEOUT_SECONDS",
		"NPM_INSTALL_TIMEOUT_SECONDS",
		"LINTER_PROCESS_TIMEOUT_SECONDS",
		"HOOKCTL_DEBUG",
	} {
		require.NoError(t, os.Unsetenv(v))
	}

	e, err := Load()
	require.NoError(t, err)

	require.Equal(t, 300*time.Second, e.TDDGuardTimeout())
	require.Equal(t, 30*time.Second, e.ExternalToolCheckTimeout())
	require.Equal(t, 20*time.Second, e.MCPCallTimeout())
	require.Equal(t, 300*time.Second, e.ClaudeAgentTimeout())
	require.Equal(t, 300*time.Second, e.NPMInstallTimeout())
	require.Equal(t, 60*time.Second, e.LinterProcessTimeout())
	require.False(t, e.Debug)
}

func TestLoadOverride(t *testing.T) {
	t.Setenv("LINTER_PROCESS_TIMEOUT_SECONDS", "15")
	t.Setenv("HOOKCTL_DEBUG", "true")

	e, err := Load()
	require.NoError(t, err)
	require.Equal(t, 15*time.Second, e.LinterProcessTimeout())
	require.True(t, e.Debug)
}
