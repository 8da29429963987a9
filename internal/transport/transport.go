// METADATA
//
// Package transport - hook invocation transports (Component C)
//
// Purpose & Function
//
// Provides the three ways a hook's underlying tool can be invoked: a
// plain subprocess exchanging JSON over stdin/stdout and an exit code,
// an HTTP JSON-RPC call, and a stdio JSON-RPC session that begins with
// an initialize/initialized handshake before any call request is sent.
// None of the three retries internally — a failed call is a failed
// call; retry policy, if any, belongs to the hook that invoked it.
package transport

import (
	"context"
	"encoding/json"
)

// Request is the payload sent to a tool for one invocation.
type Request struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

// Response is what a tool returned for one Request.
type Response struct {
	Result   json.RawMessage `json:"result,omitempty"`
	ErrorMsg string          `json:"error,omitempty"`
	ExitCode int             `json:"-"`
}

// Transport sends one Request and waits for one Response. Implementations
// must respect ctx's deadline and must not retry on failure.
type Transport interface {
	Call(ctx context.Context, req Request) (Response, error)
	Close() error
}
