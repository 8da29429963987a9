// METADATA
//
// Package probe - external tool probe (Component B)
//
// Purpose & Function
//
// Determines, when ProbeAll is run (the "hookctl probe" command), which
// external tools the dispatcher's hooks depend on are actually runnable,
// and from where. "hookctl dispatch" does not run a probe.
// Each tool is searched for in a fixed priority order: a local
// project-scoped install, a vendored/submodule install, a global binary
// on PATH, then a remote endpoint recipe named in configuration. The
// first candidate that responds successfully to a lightweight probe
// (usually --version/--help for a binary, or a plain HTTP GET for a
// remote endpoint) wins; later candidates are not tried once one
// succeeds.
package probe

import (
	"bytes"
	"context"
	"net/http"
	"os/exec"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"
)

// Source names where a tool was found.
type Source string

const (
	SourceLocal  Source = "local"
	SourceVendor Source = "vendor"
	SourceGlobal Source = "global"
	SourceRemote Source = "remote"
	SourceNone   Source = ""
)

// Availability is the result of probing one tool.
type Availability struct {
	Tool      string
	Available bool
	Source    Source
	Path      string
	Version   string
	Reason    string
}

// Candidate describes one place a tool might be found, tried in the
// order it appears in a Spec's Candidates slice. A Candidate is either a
// local binary (Path set, probed by running ProbeArgs) or a remote
// endpoint recipe (URL set, probed with an HTTP GET); Source ==
// SourceRemote is what selects the latter.
type Candidate struct {
	Source     Source
	Path       string   // absolute or PATH-relative binary path
	ProbeArgs  []string // args used to verify the binary responds, e.g. ["--version"]
	InputStdin string   // optional stdin to feed the probe, for tools that only answer on stdin
	URL        string   // health-check URL for a SourceRemote candidate
}

// Spec describes how to probe for one named tool.
type Spec struct {
	Tool       string
	Candidates []Candidate
}

// Prober runs Specs concurrently. It keeps no cache: every ProbeAll call
// probes every candidate again.
type Prober struct {
	timeout time.Duration
	concur  int
}

func NewProber(timeout time.Duration, concurrency int) *Prober {
	if concurrency <= 0 {
		concurrency = 4
	}
	return &Prober{timeout: timeout, concur: concurrency}
}

// ProbeAll runs every Spec's candidate search concurrently, bounded by
// the Prober's configured concurrency, and returns one Availability per
// Spec in the same order as specs.
func (p *Prober) ProbeAll(ctx context.Context, specs []Spec) ([]Availability, error) {
	results := make([]Availability, len(specs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concur)

	for i, spec := range specs {
		i, spec := i, spec
		g.Go(func() error {
			results[i] = p.probeOne(gctx, spec)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (p *Prober) probeOne(ctx context.Context, spec Spec) Availability {
	for _, c := range spec.Candidates {
		if ok, version := p.tryCandidate(ctx, c); ok {
			return Availability{
				Tool:      spec.Tool,
				Available: true,
				Source:    c.Source,
				Path:      c.Path,
				Version:   version,
			}
		}
	}
	return Availability{
		Tool:      spec.Tool,
		Available: false,
		Reason:    "no candidate responded: checked local, vendor, global, and remote",
	}
}

func (p *Prober) tryCandidate(ctx context.Context, c Candidate) (bool, string) {
	if c.Source == SourceRemote {
		return p.tryRemoteCandidate(ctx, c)
	}

	path := c.Path
	if !filepath.IsAbs(path) {
		resolved, err := exec.LookPath(path)
		if err != nil {
			return false, ""
		}
		path = resolved
	}

	cctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	cmd := exec.CommandContext(cctx, path, c.ProbeArgs...)
	if c.InputStdin != "" {
		cmd.Stdin = stringReader(c.InputStdin)
	}
	out, err := cmd.Output()
	if err != nil {
		// Some tools (notably stdio MCP servers fed an empty request) are
		// considered available if they produce any JSON-looking reply even
		// on a non-zero exit, matching the probe behavior hookctl is
		// grounded on.
		if bytes.Contains(out, []byte("{")) {
			return true, ""
		}
		return false, ""
	}
	return true, firstLine(out)
}

// tryRemoteCandidate health-checks a remote endpoint recipe with a plain
// HTTP GET, bounded by the Prober's configured timeout. Any 2xx response
// counts as available; there is no subprocess and so no Path/ProbeArgs
// to resolve.
func (p *Prober) tryRemoteCandidate(ctx context.Context, c Candidate) (bool, string) {
	if c.URL == "" {
		return false, ""
	}

	cctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(cctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return false, ""
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false, ""
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false, ""
	}
	return true, ""
}
