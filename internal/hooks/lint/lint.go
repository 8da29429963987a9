// METADATA
//
// Package lint - linter/auto-fix hook (Component F)
//
// Purpose & Function
//
// Runs a format → lint → typecheck scan against the file a PostToolUse
// event just wrote. A clean scan reports success; a dirty scan with
// auto-fix disabled reports the issues; a dirty scan with auto-fix
// enabled enters a bounded fix-loop that borrows a permit from the
// shared agents pool only for the duration of each auto-fix subprocess
// call, never across the linter re-runs surrounding it. This hook never
// vetoes the operation that triggered it regardless of outcome: every
// terminal state still returns continue=true, carrying the diagnostic in
// its message for the caller to surface however it likes.
package lint

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/nova-dawn/hookctl/internal/eventenv"
	"github.com/nova-dawn/hookctl/internal/hooks"
	"github.com/nova-dawn/hookctl/internal/pool"
	"github.com/nova-dawn/hookctl/internal/probe"
	"github.com/nova-dawn/hookctl/internal/registry"
	"github.com/nova-dawn/hookctl/internal/transport"
)

const EntryPoint = "lint"

func init() {
	registry.Register(EntryPoint, New)
}

// applicableTools is the exact tool-name set this hook fires for. An
// exact set (rather than a prefix match) is what actually catches
// MultiEdit and NotebookEdit without also catching unrelated tools that
// merely share a prefix.
var applicableTools = map[string]bool{
	"Edit":         true,
	"Write":        true,
	"MultiEdit":    true,
	"NotebookEdit": true,
}

// state names the S0-S2 pipeline stages for logging; the terminal
// states are reported only through the returned message.
type state string

const (
	stateScan    state = "S0_scan"
	stateDecide  state = "S1_decide"
	stateFixLoop state = "S2_fix_loop"
)

const (
	defaultMaxIterations = 3
	fixAcquireDeadline   = 600 * time.Second
	minIterationTimeout  = 60 * time.Second
	maxIterationTimeout  = 600 * time.Second
	baseIterationTimeout = 60 * time.Second
	reportTruncateLines  = 10
	reportTruncateBytes  = 500
)

// Hook implements the linter/auto-fix pipeline.
type Hook struct {
	cfg           hooks.Config
	extensions    []string
	pool          *pool.Manager
	poolName      string
	autoFix       bool
	fixCommand    string
	maxIterations int
	prober        *probe.Prober
	projectDir    string
	log           zerolog.Logger
}

func New(cfg hooks.Config) (hooks.Hook, error) {
	return &Hook{
		cfg:           cfg,
		extensions:    splitExt(cfg.String("extensions", ".go")),
		poolName:      cfg.String("resource_pool", "agents"),
		autoFix:       cfg.Bool("auto_fix", false),
		fixCommand:    cfg.String("fix_command", ""),
		maxIterations: cfg.Int("max_iterations", defaultMaxIterations),
		log:           zerolog.Nop(),
	}, nil
}

// Attach wires runtime collaborators the registry constructs separately
// from hook config (pool manager, prober), mirroring how the hook this
// module is derived from received its concurrency manager.
func (h *Hook) Attach(mgr *pool.Manager, prober *probe.Prober, projectDir string, log zerolog.Logger) {
	h.pool = mgr
	h.prober = prober
	h.projectDir = projectDir
	h.log = log
}

func (h *Hook) Name() string { return EntryPoint }

func (h *Hook) GetConfigSchema() hooks.ConfigSchema {
	return hooks.ConfigSchema{
		"enabled":        {Type: "bool", Default: true, Description: "run this hook at all"},
		"extensions":     {Type: "string", Default: ".go", Description: "comma-separated source extensions this hook scans"},
		"auto_fix":       {Type: "bool", Default: false, Description: "enter the fix-loop on a dirty scan instead of just reporting"},
		"fix_command":    {Type: "string", Default: "", Description: "auto-fix subprocess invoked with a structured fix prompt on stdin"},
		"max_iterations": {Type: "int", Default: defaultMaxIterations, Description: "fix-loop iteration cap"},
		"resource_pool":  {Type: "string", Default: "agents", Description: "pool the fix-loop borrows a permit from per iteration"},
	}
}

func (h *Hook) IsApplicable(ev eventenv.Event) bool {
	if ev.EventType != "PostToolUse" {
		return false
	}
	if !applicableTools[ev.ToolName] {
		return false
	}
	path := ev.FilePath()
	if path == "" {
		return false
	}
	ext := filepath.Ext(path)
	for _, e := range h.extensions {
		if e == ext {
			return true
		}
	}
	return false
}

func (h *Hook) ProcessEvent(ctx context.Context, ev eventenv.Event) (eventenv.Decision, error) {
	if !h.cfg.Bool("enabled", true) {
		return eventenv.Allow(), nil
	}

	path := ev.FilePath()
	h.log.Debug().Str("state", string(stateScan)).Str("path", path).Msg("lint pipeline starting")

	report, clean := h.scan(ctx, path)

	h.log.Debug().Str("state", string(stateDecide)).Bool("clean", clean).Msg("lint scan decided")
	if clean {
		return eventenv.Decision{Continue: true, Reasoning: fmt.Sprintf("✓ %s — no linting issues", path)}, nil
	}
	if !h.autoFix {
		return eventenv.Decision{Continue: true, Reasoning: fmt.Sprintf("⚠ %s has linting issues:\n%s", path, truncateReport(report))}, nil
	}

	return h.fixLoop(ctx, path, report)
}

// scan runs gofumpt (format), staticcheck (style), and go vet (typecheck)
// in that order and returns the combined, non-empty diagnostic output
// plus whether every step came back clean.
func (h *Hook) scan(ctx context.Context, path string) (report string, clean bool) {
	var out strings.Builder

	if _, err := h.runTool(ctx, "gofumpt", []string{"-l", "-w", path}); err != nil {
		fmt.Fprintf(&out, "gofumpt: %v\n", err)
	}
	if text, err := h.runToolCapture(ctx, "staticcheck", []string{path}); err != nil {
		fmt.Fprintf(&out, "staticcheck: %s\n", strings.TrimSpace(text))
	}
	if text, err := h.runToolCapture(ctx, "go", []string{"vet", path}); err != nil {
		fmt.Fprintf(&out, "go vet: %s\n", strings.TrimSpace(text))
	}

	report = out.String()
	return report, report == ""
}

// fixLoop implements S2: up to maxIterations rounds of (acquire a
// per-iteration agents permit) → (invoke the auto-fix subprocess) →
// (release the permit) → (re-scan). The permit is held only across the
// subprocess call itself, never across the surrounding linter runs.
func (h *Hook) fixLoop(ctx context.Context, path, report string) (eventenv.Decision, error) {
	maxIter := h.maxIterations
	if maxIter <= 0 {
		maxIter = defaultMaxIterations
	}

	current := report
	for iter := 1; iter <= maxIter; iter++ {
		issueCount := strings.Count(strings.TrimRight(current, "\n"), "\n") + 1
		timeout := dynamicTimeout(issueCount)

		h.log.Debug().Str("state", string(stateFixLoop)).Int("iteration", iter).Dur("timeout", timeout).Msg("fix-loop iteration")

		var permit *pool.Permit
		if h.pool != nil {
			p, ok, err := h.pool.AcquireWait(ctx, h.poolName, map[string]string{"path": path}, fixAcquireDeadline)
			if err != nil {
				return eventenv.Decision{Continue: true, Reasoning: fmt.Sprintf("auto-fix failed: %v", err)}, nil
			}
			if !ok {
				return eventenv.Decision{Continue: true, Reasoning: "resource busy"}, nil
			}
			permit = p
		}

		fixErr := h.runAutoFix(ctx, path, current, timeout)
		if permit != nil {
			_ = permit.Release()
		}
		if fixErr != nil {
			return eventenv.Decision{Continue: true, Reasoning: fmt.Sprintf("auto-fix failed: %v", fixErr)}, nil
		}

		next, clean := h.scan(ctx, path)
		if clean {
			return eventenv.Decision{Continue: true, Reasoning: "all issues fixed"}, nil
		}
		current = next
	}

	return eventenv.Decision{Continue: true, Reasoning: fmt.Sprintf("auto-fix failed: still dirty after %d iterations", maxIter)}, nil
}

// dynamicTimeout scales the per-iteration auto-fix deadline with issue
// complexity, clamped to [60s, 600s].
func dynamicTimeout(issueCount int) time.Duration {
	d := time.Duration(float64(baseIterationTimeout) * (1 + 0.2*float64(issueCount)))
	if d < minIterationTimeout {
		return minIterationTimeout
	}
	if d > maxIterationTimeout {
		return maxIterationTimeout
	}
	return d
}

// runAutoFix invokes the configured fix command with a structured prompt
// (the file path and the linter report) on stdin, under the dynamic
// per-iteration timeout.
func (h *Hook) runAutoFix(ctx context.Context, path, report string, timeout time.Duration) error {
	if h.fixCommand == "" {
		return fmt.Errorf("no fix_command configured")
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	prompt, err := json.Marshal(struct {
		FilePath string `json:"file_path"`
		Report   string `json:"report"`
	}{FilePath: path, Report: report})
	if err != nil {
		return err
	}

	tr := transport.NewSubprocessTransport(h.fixCommand)
	defer tr.Close()
	resp, err := tr.Call(cctx, transport.Request{Method: "fix", Params: prompt})
	if err != nil {
		return err
	}
	if resp.ExitCode != 0 {
		return fmt.Errorf("fix command exited %d: %s", resp.ExitCode, resp.ErrorMsg)
	}
	return nil
}

func (h *Hook) runTool(ctx context.Context, tool string, args []string) (changed bool, err error) {
	tr := transport.NewSubprocessTransport(tool, args...)
	defer tr.Close()
	resp, err := tr.Call(ctx, transport.Request{Method: tool})
	if err != nil {
		return false, err
	}
	return resp.ExitCode == 0 && len(resp.ErrorMsg) > 0, nil
}

func (h *Hook) runToolCapture(ctx context.Context, tool string, args []string) (string, error) {
	tr := transport.NewSubprocessTransport(tool, args...)
	defer tr.Close()
	resp, err := tr.Call(ctx, transport.Request{Method: tool})
	if err != nil {
		return resp.ErrorMsg, err
	}
	return resp.ErrorMsg, nil
}

func (h *Hook) Cleanup() error { return nil }

func splitExt(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// truncateReport caps user-facing report text to roughly the first 10
// lines / 500 characters, whichever comes first.
func truncateReport(report string) string {
	lines := strings.Split(strings.TrimRight(report, "\n"), "\n")
	if len(lines) > reportTruncateLines {
		lines = lines[:reportTruncateLines]
	}
	out := strings.Join(lines, "\n")
	if len(out) > reportTruncateBytes {
		out = out[:reportTruncateBytes]
	}
	return out
}
