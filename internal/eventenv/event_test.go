package eventenv

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadEventGeneratesSessionIDWhenAbsent(t *testing.T) {
	ev, err := ReadEvent(strings.NewReader(`{"event_type":"PreToolUse","tool_name":"Write"}`))
	require.NoError(t, err)
	require.NotEmpty(t, ev.SessionID)
	require.False(t, ev.Timestamp.IsZero())
}

func TestReadEventPreservesGivenSessionID(t *testing.T) {
	ev, err := ReadEvent(strings.NewReader(`{"event_type":"PreToolUse","tool_name":"Write","session_id":"abc-123"}`))
	require.NoError(t, err)
	require.Equal(t, "abc-123", ev.SessionID)
}

func TestWriteDecisionRoundTrips(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteDecision(&buf, Block("nope")))
	require.Contains(t, buf.String(), `"continue":false`)
	require.Contains(t, buf.String(), "nope")
}
