// METADATA
//
// Package hooks - the Hook contract shared by every hook implementation
//
// Purpose & Function
//
// Defines the interface internal/dispatch drives and internal/registry
// validates against at instantiation time, plus the small Config helper
// every concrete hook uses to read its own TOML-sourced settings with
// type checking and fallback defaults.
package hooks

import (
	"context"

	"github.com/nova-dawn/hookctl/internal/eventenv"
)

// Hook is implemented by every concrete hook (lint, docs, validate, and
// any future registry entry). Three of its methods (ProcessEvent,
// GetConfigSchema, Cleanup) are exactly the capability set
// {process_event, get_config_schema, cleanup} the loader
// validates a registry entry's instantiated object against; in Go that
// validation is the compiler checking the factory's return value against
// this interface, rather than a runtime attribute probe.
type Hook interface {
	// Name identifies the hook in logs and in the registry.
	Name() string

	// IsApplicable reports whether this hook has anything to do for the
	// given event, without doing any of the work itself.
	IsApplicable(ev eventenv.Event) bool

	// ProcessEvent runs the hook's logic and returns the decision it
	// wants contributed to the dispatcher's aggregation. A hook that
	// errors is treated as fail-open by the dispatcher; the error is
	// still propagated for logging.
	ProcessEvent(ctx context.Context, ev eventenv.Event) (eventenv.Decision, error)

	// GetConfigSchema describes the TOML config keys this hook reads,
	// for "hookctl registry validate" and for operator documentation.
	GetConfigSchema() ConfigSchema

	// Cleanup releases any resources (transports, caches) the hook is
	// holding. Called once when the dispatcher itself shuts down, not
	// per event.
	Cleanup() error
}

// ConfigSchema documents one hook's accepted config keys, keyed by name.
type ConfigSchema map[string]ConfigField

// ConfigField describes a single config key's type, default, and purpose.
type ConfigField struct {
	Type        string
	Default     interface{}
	Description string
}

// Config is a thin, schema-less wrapper over the TOML-decoded settings
// map the registry hands each hook at construction time.
type Config map[string]interface{}

func (c Config) Bool(key string, def bool) bool {
	if v, ok := c[key].(bool); ok {
		return v
	}
	return def
}

func (c Config) String(key, def string) string {
	if v, ok := c[key].(string); ok && v != "" {
		return v
	}
	return def
}

func (c Config) Int(key string, def int) int {
	switch v := c[key].(type) {
	case int64:
		return int(v)
	case int:
		return v
	case float64:
		return int(v)
	default:
		return def
	}
}
