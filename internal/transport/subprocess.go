package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"

	"github.com/nova-dawn/hookctl/internal/herr"
)

// SubprocessTransport runs a fresh process per Call, feeding the request
// as JSON on stdin and decoding the response from stdout. The process's
// exit code is carried through on Response.ExitCode for hooks (like the
// linter) that key their state machine off it rather than off the JSON
// body.
type SubprocessTransport struct {
	Path string
	Args []string
}

func NewSubprocessTransport(path string, args ...string) *SubprocessTransport {
	return &SubprocessTransport{Path: path, Args: args}
}

func (t *SubprocessTransport) Call(ctx context.Context, req Request) (Response, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return Response{}, fmt.Errorf("transport: encoding request: %w", err)
	}

	cmd := exec.CommandContext(ctx, t.Path, t.Args...)
	cmd.Stdin = bytes.NewReader(payload)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	resp := Response{ExitCode: cmd.ProcessState.ExitCode()}
	if stdout.Len() > 0 {
		if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
			// Not every subprocess speaks JSON back (e.g. a linter just
			// prints diagnostics); callers that need structured output
			// check ExitCode and fall back to raw stderr/stdout text.
			resp.ErrorMsg = stdout.String()
		}
	}

	if ctx.Err() != nil {
		return resp, fmt.Errorf("%w: %v", herr.ErrTimeout, ctx.Err())
	}
	if runErr != nil {
		if stderr.Len() > 0 && resp.ErrorMsg == "" {
			resp.ErrorMsg = stderr.String()
		}
		return resp, fmt.Errorf("%w: %v", herr.ErrTransport, runErr)
	}
	return resp, nil
}

func (t *SubprocessTransport) Close() error { return nil }
