// METADATA
//
// Package eventenv - hook event envelope and decision types
//
// Purpose & Function
//
// Defines the wire shape the host process sends to "hookctl dispatch" on
// stdin (Event) and the shape written back to stdout (Decision), plus the
// session-id generation rule: a session id present on the incoming event
// is propagated as-is; when it is absent, ReadEvent generates a fresh
// random UUID for that event.
package eventenv

import (
	"encoding/json"
	"io"
	"time"

	"github.com/google/uuid"
)

// Event is the envelope the host sends for one PreToolUse/PostToolUse
// occurrence.
type Event struct {
	EventType  string          `json:"event_type"`
	ToolName   string          `json:"tool_name"`
	ToolInput  json.RawMessage `json:"tool_input,omitempty"`
	ToolResult json.RawMessage `json:"tool_result,omitempty"`
	SessionID  string          `json:"session_id,omitempty"`
	Timestamp  time.Time       `json:"timestamp,omitempty"`
	CWD        string          `json:"cwd,omitempty"`
}

// toolInputFields mirrors the optional keys hooks read out of tool_input:
// file_path (Edit/Write/MultiEdit/NotebookEdit), content (Write), and
// new_string (Edit/MultiEdit).
type toolInputFields struct {
	FilePath  string `json:"file_path"`
	Content   string `json:"content"`
	NewString string `json:"new_string"`
}

func (e Event) decodeToolInput() toolInputFields {
	var f toolInputFields
	if len(e.ToolInput) == 0 {
		return f
	}
	_ = json.Unmarshal(e.ToolInput, &f)
	return f
}

// FilePath returns tool_input.file_path, or "" if absent.
func (e Event) FilePath() string { return e.decodeToolInput().FilePath }

// Content returns tool_input.content, or "" if absent.
func (e Event) Content() string { return e.decodeToolInput().Content }

// NewString returns tool_input.new_string, or "" if absent.
func (e Event) NewString() string { return e.decodeToolInput().NewString }

// Decision is the aggregated response a hook, or the dispatcher as a
// whole, returns for one event.
type Decision struct {
	Continue  bool   `json:"continue"`
	Reasoning string `json:"reasoning,omitempty"`
}

// Allow is the zero-reasoning, non-blocking decision every fail-open path
// collapses to.
func Allow() Decision { return Decision{Continue: true} }

// Block produces a blocking decision carrying an operator-facing reason.
func Block(reason string) Decision { return Decision{Continue: false, Reasoning: reason} }

// ReadEvent decodes one Event from r and fills in a session id if the
// host omitted one.
func ReadEvent(r io.Reader) (Event, error) {
	var e Event
	if err := json.NewDecoder(r).Decode(&e); err != nil {
		return Event{}, err
	}
	if e.SessionID == "" {
		e.SessionID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	return e, nil
}

// WriteDecision encodes d to w as the single JSON object hookctl prints
// to stdout for one dispatch invocation.
func WriteDecision(w io.Writer, d Decision) error {
	return json.NewEncoder(w).Encode(d)
}
