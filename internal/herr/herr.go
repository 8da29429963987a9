// METADATA
//
// Package herr - dispatcher error taxonomy
//
// Purpose & Function
//
// Defines the closed set of error kinds a hook or dispatcher component can
// surface to an operator or to another component's policy logic. The
// transports wrap ErrTransport or ErrTimeout with fmt.Errorf("...: %w", ...)
// so callers can classify their errors with errors.Is regardless of the
// wrapping chain added along the way. No code in this module returns
// ErrConfiguration, ErrUnavailableTool, ErrPermitUnavailable or ErrPlugin;
// pool, registry and dispatch errors wrap none of these sentinels.
package herr

import "errors"

// Sentinel error kinds. Keep this list closed; add a new kind only when a
// component needs to distinguish a failure mode a caller must react to
// differently (see internal/hooks/validate's strict-mode check).
var (
	// ErrConfiguration covers malformed registry entries, pool descriptors,
	// or hook config that fails schema validation at load time.
	ErrConfiguration = errors.New("configuration error")

	// ErrUnavailableTool means the external tool probe found no usable
	// installation (local, vendored, or global) for a required tool.
	ErrUnavailableTool = errors.New("external tool unavailable")

	// ErrTransport covers subprocess spawn failures, broken pipes, and
	// malformed JSON-RPC framing on any of the three transports.
	ErrTransport = errors.New("transport error")

	// ErrTimeout means a hook invocation exceeded its configured deadline.
	ErrTimeout = errors.New("operation timed out")

	// ErrPermitUnavailable means a resource pool had no free slot within
	// the caller's wait budget.
	ErrPermitUnavailable = errors.New("resource permit unavailable")

	// ErrPlugin wraps a panic or unexpected error raised from inside a
	// hook's ProcessEvent implementation.
	ErrPlugin = errors.New("hook plugin error")
)
