package transport

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSubprocessTransportCall(t *testing.T) {
	tr := NewSubprocessTransport("/bin/sh", "-c", `echo '{"result":"ok"}'`)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	resp, err := tr.Call(ctx, Request{Method: "probe"})
	require.NoError(t, err)
	require.Equal(t, 0, resp.ExitCode)
	require.JSONEq(t, `"ok"`, string(resp.Result))
}

func TestSubprocessTransportNonZeroExit(t *testing.T) {
	tr := NewSubprocessTransport("/bin/sh", "-c", `exit 3`)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	resp, err := tr.Call(ctx, Request{Method: "probe"})
	require.Error(t, err)
	require.Equal(t, 3, resp.ExitCode)
}

func TestSubprocessTransportTimeout(t *testing.T) {
	tr := NewSubprocessTransport("/bin/sh", "-c", `sleep 5`)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := tr.Call(ctx, Request{Method: "probe"})
	require.Error(t, err)
}
