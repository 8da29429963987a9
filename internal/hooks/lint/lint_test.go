package lint

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/nova-dawn/hookctl/internal/eventenv"
	"github.com/nova-dawn/hookctl/internal/hooks"
	"github.com/nova-dawn/hookctl/internal/pool"
)

func toolInput(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestIsApplicableOnlyPostToolUseWrites(t *testing.T) {
	h, err := New(hooks.Config{})
	require.NoError(t, err)
	lh := h.(*Hook)

	input := toolInput(t, map[string]string{"file_path": "/tmp/main.go"})

	require.True(t, lh.IsApplicable(eventenv.Event{EventType: "PostToolUse", ToolName: "Write", ToolInput: input}))
	require.True(t, lh.IsApplicable(eventenv.Event{EventType: "PostToolUse", ToolName: "MultiEdit", ToolInput: input}))
	require.True(t, lh.IsApplicable(eventenv.Event{EventType: "PostToolUse", ToolName: "NotebookEdit", ToolInput: input}))
	require.False(t, lh.IsApplicable(eventenv.Event{EventType: "PreToolUse", ToolName: "Write", ToolInput: input}))
	require.False(t, lh.IsApplicable(eventenv.Event{EventType: "PostToolUse", ToolName: "Read", ToolInput: input}))
}

func TestIsApplicableRespectsExtensionFilter(t *testing.T) {
	h, err := New(hooks.Config{"extensions": ".py"})
	require.NoError(t, err)
	lh := h.(*Hook)

	input := toolInput(t, map[string]string{"file_path": "/tmp/main.go"})
	require.False(t, lh.IsApplicable(eventenv.Event{EventType: "PostToolUse", ToolName: "Write", ToolInput: input}))
}

func TestDisabledHookAlwaysAllows(t *testing.T) {
	h, err := New(hooks.Config{"enabled": false})
	require.NoError(t, err)

	got, err := h.ProcessEvent(nil, eventenv.Event{})
	require.NoError(t, err)
	require.True(t, got.Continue)
}

func TestDynamicTimeoutClampsToBounds(t *testing.T) {
	require.Equal(t, minIterationTimeout, dynamicTimeout(0))
	require.Equal(t, maxIterationTimeout, dynamicTimeout(1000))
}

func TestFixLoopNeverVetoesWhenThePoolCannotBeAcquired(t *testing.T) {
	h, err := New(hooks.Config{"auto_fix": true, "fix_command": "whatever"})
	require.NoError(t, err)
	lh := h.(*Hook)

	dir := t.TempDir()
	mgr, err := pool.NewManager(dir, map[string]pool.Descriptor{
		"agents": {Name: "agents", MaxSlots: 0, DefaultTTL: time.Minute},
	}, zerolog.Nop())
	require.NoError(t, err)
	lh.Attach(mgr, nil, "/tmp", zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	got, err := lh.fixLoop(ctx, "/tmp/dirty.go", "staticcheck: SA1000\n")
	require.NoError(t, err)
	require.True(t, got.Continue, "the fix-loop never vetoes the triggering operation")
}

func TestFixLoopFailsWithoutAFixCommand(t *testing.T) {
	h, err := New(hooks.Config{"auto_fix": true})
	require.NoError(t, err)
	lh := h.(*Hook)

	got, err := lh.fixLoop(context.Background(), "/tmp/dirty.go", "staticcheck: SA1000\n")
	require.NoError(t, err)
	require.True(t, got.Continue)
	require.Contains(t, got.Reasoning, "auto-fix failed")
}
