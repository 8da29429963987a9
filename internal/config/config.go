// METADATA
//
// Package config - process-wide environment configuration
//
// Purpose & Function
//
// Reads the environment variables the dispatcher process honors (timeouts,
// debug mode) into a typed struct via cleanenv, applying the documented
// defaults when a variable is unset. Nothing here touches the registry's
// per-hook TOML configuration; that is internal/registry's concern.
package config

import (
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/pkg/errors"
)

// Env holds every environment-controlled timeout plus the debug flag.
// Field names mirror the variables verbatim so operators can grep the
// struct tag to find the knob they are looking for.
type Env struct {
	TDDGuardTimeoutSeconds           int  `env:"TDD_GUARD_TIMEOUT_SECONDS" env-default:"300"`
	ExternalToolCheckTimeoutSeconds  int  `env:"EXTERNAL_TOOL_CHECK_TIMEOUT_SECONDS" env-default:"30"`
	MCPCallTimeoutSeconds            int  `env:"MCP_CALL_TIMEOUT_SECONDS" env-default:"20"`
	ClaudeAgentTimeoutSeconds        int  `env:"CLAUDE_AGENT_TIMEOUT_SECONDS" env-default:"300"`
	NPMInstallTimeoutSeconds         int  `env:"NPM_INSTALL_TIMEOUT_SECONDS" env-default:"300"`
	LinterProcessTimeoutSeconds      int  `env:"LINTER_PROCESS_TIMEOUT_SECONDS" env-default:"60"`
	Debug                            bool `env:"HOOKCTL_DEBUG" env-default:"false"`
	LockDir                          string `env:"HOOKCTL_LOCK_DIR" env-default:"/tmp/hookctl"`
	RegistryPath                     string `env:"HOOKCTL_REGISTRY_PATH" env-default:""`
	DocServerRemoteURL               string `env:"HOOKCTL_DOC_SERVER_REMOTE_URL" env-default:""`
}

// Load reads process environment variables into an Env, applying defaults
// for anything unset. It never reads a .env file — operators set these in
// the process environment the host spawns hookctl with.
func Load() (Env, error) {
	var e Env
	if err := cleanenv.ReadEnv(&e); err != nil {
		return Env{}, errors.Wrap(err, "reading environment configuration")
	}
	return e, nil
}

func (e Env) TDDGuardTimeout() time.Duration {
	return time.Duration(e.TDDGuardTimeoutSeconds) * time.Second
}

func (e Env) ExternalToolCheckTimeout() time.Duration {
	return time.Duration(e.ExternalToolCheckTimeoutSeconds) * time.Second
}

func (e Env) MCPCallTimeout() time.Duration {
	return time.Duration(e.MCPCallTimeoutSeconds) * time.Second
}

func (e Env) ClaudeAgentTimeout() time.Duration {
	return time.Duration(e.ClaudeAgentTimeoutSeconds) * time.Second
}

func (e Env) NPMInstallTimeout() time.Duration {
	return time.Duration(e.NPMInstallTimeoutSeconds) * time.Second
}

func (e Env) LinterProcessTimeout() time.Duration {
	return time.Duration(e.LinterProcessTimeoutSeconds) * time.Second
}
