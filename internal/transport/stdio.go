package transport

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"sync"

	"github.com/nova-dawn/hookctl/internal/herr"
)

// StdioTransport speaks newline-delimited JSON-RPC over a long-lived
// subprocess's stdin/stdout, performing the initialize/initialized
// handshake once before any call requests are sent. Command and Args
// describe how to launch the long-lived server process (matching the
// mcp_config shape this module's external tool probe discovers).
type StdioTransport struct {
	Command string
	Args    []string
	Cwd     string

	mu      sync.Mutex
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	scanner *bufio.Scanner
	started bool
}

func NewStdioTransport(command string, args []string, cwd string) *StdioTransport {
	return &StdioTransport{Command: command, Args: args, Cwd: cwd}
}

// ensureStarted launches the subprocess and performs the three-step
// handshake exactly once: an "initialize" request, an "initialized"
// notification, and only then is the session ready for "call" requests.
func (t *StdioTransport) ensureStarted(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.started {
		return nil
	}

	cmd := exec.CommandContext(ctx, t.Command, t.Args...)
	cmd.Dir = t.Cwd

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("%w: stdin pipe: %v", herr.ErrTransport, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("%w: stdout pipe: %v", herr.ErrTransport, err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: starting server: %v", herr.ErrTransport, err)
	}

	t.cmd = cmd
	t.stdin = stdin
	t.scanner = bufio.NewScanner(stdout)
	t.scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	if err := t.writeLineLocked(Request{Method: "initialize"}); err != nil {
		return err
	}
	if _, err := t.readLineLocked(); err != nil {
		return fmt.Errorf("%w: initialize handshake: %v", herr.ErrTransport, err)
	}
	if err := t.writeLineLocked(Request{Method: "initialized"}); err != nil {
		return err
	}

	t.started = true
	return nil
}

func (t *StdioTransport) Call(ctx context.Context, req Request) (Response, error) {
	if err := t.ensureStarted(ctx); err != nil {
		return Response{}, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if req.Method == "" {
		req.Method = "call"
	}
	if err := t.writeLineLocked(req); err != nil {
		return Response{}, err
	}

	done := make(chan struct{})
	var resp Response
	var readErr error
	go func() {
		defer close(done)
		resp, readErr = t.readLineLocked()
	}()

	select {
	case <-ctx.Done():
		return Response{}, fmt.Errorf("%w: %v", herr.ErrTimeout, ctx.Err())
	case <-done:
		if readErr != nil {
			return Response{}, fmt.Errorf("%w: %v", herr.ErrTransport, readErr)
		}
		return resp, nil
	}
}

func (t *StdioTransport) writeLineLocked(req Request) error {
	b, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("transport: encoding request: %w", err)
	}
	b = append(b, '\n')
	if _, err := t.stdin.Write(b); err != nil {
		return fmt.Errorf("%w: writing to server: %v", herr.ErrTransport, err)
	}
	return nil
}

func (t *StdioTransport) readLineLocked() (Response, error) {
	if !t.scanner.Scan() {
		if err := t.scanner.Err(); err != nil {
			return Response{}, err
		}
		return Response{}, io.EOF
	}
	var resp Response
	if err := json.Unmarshal(t.scanner.Bytes(), &resp); err != nil {
		return Response{}, err
	}
	return resp, nil
}

func (t *StdioTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stdin != nil {
		_ = t.stdin.Close()
	}
	if t.cmd != nil && t.cmd.Process != nil {
		return t.cmd.Process.Kill()
	}
	return nil
}
