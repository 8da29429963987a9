package validate

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nova-dawn/hookctl/internal/eventenv"
	"github.com/nova-dawn/hookctl/internal/herr"
	"github.com/nova-dawn/hookctl/internal/hooks"
	"github.com/nova-dawn/hookctl/internal/transport"
)

type scriptedTransport struct {
	resp transport.Response
	err  error
}

func (s *scriptedTransport) Call(ctx context.Context, req transport.Request) (transport.Response, error) {
	return s.resp, s.err
}
func (s *scriptedTransport) Close() error { return nil }

func TestStrictModeTimeoutBlocks(t *testing.T) {
	h, err := New(hooks.Config{"strict_mode": true})
	require.NoError(t, err)
	vh := h.(*Hook)
	vh.Attach(nil, &scriptedTransport{err: fmt.Errorf("%w: deadline exceeded", herr.ErrTimeout)}, vh.log)

	got, err := vh.ProcessEvent(context.Background(), eventenv.Event{EventType: "PreToolUse", ToolName: "Write"})
	require.NoError(t, err)
	require.False(t, got.Continue, "strict mode must block on a validator timeout")
}

func TestLenientModeTimeoutContinues(t *testing.T) {
	h, err := New(hooks.Config{"strict_mode": false})
	require.NoError(t, err)
	vh := h.(*Hook)
	vh.Attach(nil, &scriptedTransport{err: fmt.Errorf("%w: deadline exceeded", herr.ErrTimeout)}, vh.log)

	got, err := vh.ProcessEvent(context.Background(), eventenv.Event{EventType: "PreToolUse", ToolName: "Write"})
	require.NoError(t, err)
	require.True(t, got.Continue, "lenient mode must fail open on a validator timeout")
}

func TestNonTimeoutFailureAlwaysFailsOpenRegardlessOfMode(t *testing.T) {
	for _, strict := range []bool{true, false} {
		h, err := New(hooks.Config{"strict_mode": strict})
		require.NoError(t, err)
		vh := h.(*Hook)
		vh.Attach(nil, &scriptedTransport{err: fmt.Errorf("%w: no such tool", herr.ErrUnavailableTool)}, vh.log)

		got, err := vh.ProcessEvent(context.Background(), eventenv.Event{EventType: "PreToolUse", ToolName: "Write"})
		require.NoError(t, err)
		require.True(t, got.Continue, "non-timeout failures must fail open in both modes, strict=%v", strict)
	}
}

func TestValidatorRejectionBlocks(t *testing.T) {
	h, err := New(hooks.Config{})
	require.NoError(t, err)
	vh := h.(*Hook)
	vh.Attach(nil, &scriptedTransport{resp: transport.Response{ExitCode: 1, ErrorMsg: "tests are red"}}, vh.log)

	got, err := vh.ProcessEvent(context.Background(), eventenv.Event{EventType: "PreToolUse", ToolName: "Write"})
	require.NoError(t, err)
	require.False(t, got.Continue)
	require.Equal(t, "tests are red", got.Reasoning)
}

func TestIsApplicable(t *testing.T) {
	h, err := New(hooks.Config{})
	require.NoError(t, err)
	vh := h.(*Hook)

	require.True(t, vh.IsApplicable(eventenv.Event{EventType: "PreToolUse", ToolName: "Write"}))
	require.True(t, vh.IsApplicable(eventenv.Event{EventType: "PreToolUse", ToolName: "MultiEdit"}))
	require.True(t, vh.IsApplicable(eventenv.Event{EventType: "PreToolUse", ToolName: "TodoWrite"}))
	require.False(t, vh.IsApplicable(eventenv.Event{EventType: "PreToolUse", ToolName: "Bash"}))
	require.False(t, vh.IsApplicable(eventenv.Event{EventType: "PostToolUse", ToolName: "Write"}))
	require.False(t, vh.IsApplicable(eventenv.Event{EventType: "PreToolUse", ToolName: "Read"}))
}

func TestValidateRequestCarriesToolInputAndMetadata(t *testing.T) {
	h, err := New(hooks.Config{"strict_mode": true, "model": "opus", "runner": "ci"})
	require.NoError(t, err)
	vh := h.(*Hook)
	captured := &capturingTransport{resp: transport.Response{ExitCode: 0}}
	vh.Attach(nil, captured, vh.log)

	toolInput := json.RawMessage(`{"file_path":"/tmp/x.go"}`)
	_, err = vh.ProcessEvent(context.Background(), eventenv.Event{
		EventType: "PreToolUse",
		ToolName:  "Write",
		ToolInput: toolInput,
		SessionID: "sess-1",
	})
	require.NoError(t, err)

	var req validationRequest
	require.NoError(t, json.Unmarshal(captured.gotParams, &req))
	require.Equal(t, "sess-1", req.SessionID)
	require.Equal(t, "PreToolUse", req.HookEventName)
	require.Equal(t, "Write", req.ToolName)
	require.JSONEq(t, string(toolInput), string(req.ToolInput))
	require.True(t, req.Metadata.StrictMode)
	require.Equal(t, "opus", req.Metadata.Model)
	require.Equal(t, "ci", req.Metadata.Runner)
	require.NotEmpty(t, req.TranscriptPath)
}

type capturingTransport struct {
	resp      transport.Response
	gotParams []byte
}

func (c *capturingTransport) Call(ctx context.Context, req transport.Request) (transport.Response, error) {
	c.gotParams = req.Params
	return c.resp, nil
}
func (c *capturingTransport) Close() error { return nil }
