// METADATA
//
// Package validate - validation-gate hook (Component H)
//
// Purpose & Function
//
// Gates a tool operation on an external validator (e.g. a TDD-compliance
// check) reached through a resource pool permit and a transport call.
// Its timeout handling is deliberately asymmetric: in strict mode, a
// validator timeout is a block (the operation cannot proceed without a
// verdict); in lenient mode, the same timeout is a fail-open continue.
// Every other failure mode (pool exhaustion, tool unavailable, transport
// error) is fail-open in both modes. This asymmetry is preserved exactly
// as specified, not generalized to any other failure path.
package validate

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/nova-dawn/hookctl/internal/eventenv"
	"github.com/nova-dawn/hookctl/internal/herr"
	"github.com/nova-dawn/hookctl/internal/hooks"
	"github.com/nova-dawn/hookctl/internal/pool"
	"github.com/nova-dawn/hookctl/internal/registry"
	"github.com/nova-dawn/hookctl/internal/transport"
)

const EntryPoint = "validate"

// maxTimeout caps the configured validator deadline; the gate can be
// told to wait longer than this and will simply be clamped.
const maxTimeout = 60 * time.Second

func init() {
	registry.Register(EntryPoint, New)
}

// applicableTools is the exact tool-name set the validation gate fires
// for, per the component's pre-edit contract.
var applicableTools = map[string]bool{
	"Write":     true,
	"Edit":      true,
	"MultiEdit": true,
	"TodoWrite": true,
}

// Hook implements the validation gate.
type Hook struct {
	cfg        hooks.Config
	strictMode bool
	timeout    time.Duration
	model      string
	runner     string
	poolName   string
	pool       *pool.Manager
	tr         transport.Transport
	log        zerolog.Logger
}

func New(cfg hooks.Config) (hooks.Hook, error) {
	timeout := time.Duration(cfg.Int("timeout_seconds", 300)) * time.Second
	if timeout > maxTimeout {
		timeout = maxTimeout
	}
	return &Hook{
		cfg:        cfg,
		strictMode: cfg.Bool("strict_mode", false),
		timeout:    timeout,
		model:      cfg.String("model", ""),
		runner:     cfg.String("runner", ""),
		poolName:   cfg.String("resource_pool", "validation"),
		log:        zerolog.Nop(),
	}, nil
}

// Attach wires the runtime collaborators (resource pool, transport to
// the validator) that the registry constructs outside of hook config.
func (h *Hook) Attach(mgr *pool.Manager, tr transport.Transport, log zerolog.Logger) {
	h.pool = mgr
	h.tr = tr
	h.log = log
}

func (h *Hook) Name() string { return EntryPoint }

func (h *Hook) GetConfigSchema() hooks.ConfigSchema {
	return hooks.ConfigSchema{
		"enabled":         {Type: "bool", Default: true, Description: "run this hook at all"},
		"strict_mode":     {Type: "bool", Default: false, Description: "treat a validator timeout as a block instead of a fail-open continue"},
		"timeout_seconds": {Type: "int", Default: 300, Description: "validator deadline, clamped to 60s"},
		"model":           {Type: "string", Default: "", Description: "model identifier forwarded to the validator as metadata"},
		"runner":          {Type: "string", Default: "", Description: "runner identifier forwarded to the validator as metadata"},
		"resource_pool":   {Type: "string", Default: "validation", Description: "pool this hook acquires a permit from before validating"},
	}
}

func (h *Hook) IsApplicable(ev eventenv.Event) bool {
	if ev.EventType != "PreToolUse" {
		return false
	}
	return applicableTools[ev.ToolName]
}

func (h *Hook) ProcessEvent(ctx context.Context, ev eventenv.Event) (eventenv.Decision, error) {
	if !h.cfg.Bool("enabled", true) {
		return eventenv.Allow(), nil
	}

	if h.pool != nil {
		permit, ok, err := h.pool.Acquire(ctx, h.poolName, map[string]string{"tool": ev.ToolName})
		if err != nil {
			return eventenv.Allow(), err
		}
		if !ok {
			return eventenv.Decision{Continue: true, Reasoning: "validation skipped: resource limit"}, nil
		}
		defer permit.Release()
	}

	return h.validate(ctx, ev)
}

// requestMetadata is the metadata object carried on every validation
// request: operator/environment context the validator may use to pick
// its own policy, distinct from the tool_input it is judging.
type requestMetadata struct {
	StrictMode bool   `json:"strict_mode"`
	Model      string `json:"model"`
	Runner     string `json:"runner"`
}

// validationRequest is the wire shape sent to the validator subprocess.
type validationRequest struct {
	SessionID      string          `json:"session_id"`
	TranscriptPath string          `json:"transcript_path"`
	HookEventName  string          `json:"hook_event_name"`
	ToolName       string          `json:"tool_name"`
	ToolInput      json.RawMessage `json:"tool_input,omitempty"`
	Metadata       requestMetadata `json:"metadata"`
}

func (h *Hook) validate(ctx context.Context, ev eventenv.Event) (eventenv.Decision, error) {
	if h.tr == nil {
		return eventenv.Decision{Continue: true, Reasoning: "validator unavailable"}, nil
	}

	params, err := json.Marshal(validationRequest{
		SessionID:      ev.SessionID,
		TranscriptPath: transcriptPath(ev.SessionID),
		HookEventName:  ev.EventType,
		ToolName:       ev.ToolName,
		ToolInput:      ev.ToolInput,
		Metadata: requestMetadata{
			StrictMode: h.strictMode,
			Model:      h.model,
			Runner:     h.runner,
		},
	})
	if err != nil {
		return eventenv.Decision{Continue: true, Reasoning: "validation unavailable: " + err.Error()}, nil
	}

	cctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	resp, err := h.tr.Call(cctx, transport.Request{Method: "validate", Params: params})
	if err != nil {
		if errors.Is(err, herr.ErrTimeout) {
			if h.strictMode {
				return eventenv.Block("validation timed out (strict mode)"), nil
			}
			return eventenv.Decision{Continue: true, Reasoning: "validation timed out, continuing (lenient mode)"}, nil
		}
		// Every non-timeout failure (unavailable tool, transport error)
		// is fail-open in both modes.
		return eventenv.Decision{Continue: true, Reasoning: "validation unavailable: " + err.Error()}, nil
	}

	if resp.ExitCode != 0 {
		return eventenv.Block(resp.ErrorMsg), nil
	}
	return eventenv.Allow(), nil
}

// transcriptPath synthesizes a transcript location from a session id as
// "transcripts/<session_id>.jsonl"; the host is not consulted for it.
func transcriptPath(sessionID string) string {
	if sessionID == "" {
		return ""
	}
	return "transcripts/" + sessionID + ".jsonl"
}

func (h *Hook) Cleanup() error {
	if h.tr != nil {
		return h.tr.Close()
	}
	return nil
}
