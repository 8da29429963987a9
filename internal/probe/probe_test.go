package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestProbeAllFallsThroughToGlobal(t *testing.T) {
	p := NewProber(2*time.Second, 4)
	specs := []Spec{
		{
			Tool: "go",
			Candidates: []Candidate{
				{Source: SourceLocal, Path: "/nonexistent/go", ProbeArgs: []string{"version"}},
				{Source: SourceGlobal, Path: "go", ProbeArgs: []string{"version"}},
			},
		},
	}

	results, err := p.ProbeAll(context.Background(), specs)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "go", results[0].Tool)
	// The go toolchain itself may or may not be on PATH in a given test
	// sandbox; what this asserts is that the local candidate's absence
	// never aborts the search, not that "go" specifically is present.
	if results[0].Available {
		require.Equal(t, SourceGlobal, results[0].Source)
	} else {
		require.NotEmpty(t, results[0].Reason)
	}
}

func TestProbeAllUnavailable(t *testing.T) {
	p := NewProber(500*time.Millisecond, 2)
	specs := []Spec{
		{
			Tool: "totally-made-up-tool",
			Candidates: []Candidate{
				{Source: SourceLocal, Path: "/nonexistent/tool", ProbeArgs: []string{"--version"}},
				{Source: SourceGlobal, Path: "totally-made-up-tool-xyz", ProbeArgs: []string{"--version"}},
			},
		},
	}

	results, err := p.ProbeAll(context.Background(), specs)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.False(t, results[0].Available)
	require.NotEmpty(t, results[0].Reason)
}

func TestProbeAllFallsThroughToRemoteEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := NewProber(2*time.Second, 4)
	specs := []Spec{
		{
			Tool: "doc-server",
			Candidates: []Candidate{
				{Source: SourceGlobal, Path: "totally-made-up-doc-server-xyz", ProbeArgs: []string{"--help"}},
				{Source: SourceRemote, URL: srv.URL},
			},
		},
	}

	results, err := p.ProbeAll(context.Background(), specs)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.True(t, results[0].Available)
	require.Equal(t, SourceRemote, results[0].Source)
}

func TestRemoteCandidateUnavailableOnNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p := NewProber(2*time.Second, 1)
	ok, _ := p.tryCandidate(context.Background(), Candidate{Source: SourceRemote, URL: srv.URL})
	require.False(t, ok)
}
