package probe

// DefaultSpecs builds the probe search order for the external tools this
// module's hooks depend on, mirroring the local → vendor → global →
// remote priority order of the tool this dispatcher is derived from: a
// local project-scoped binary first (fastest, version-pinned per
// project), a vendored/submodule install second, whatever is on the
// operator's PATH third, and last a remote endpoint recipe named in
// configuration (docServerRemoteURL, empty to skip that tier entirely).
func DefaultSpecs(projectRoot, docServerRemoteURL string) []Spec {
	docServerCandidates := []Candidate{
		{Source: SourceVendor, Path: projectRoot + "/external/doc-server/doc-server", ProbeArgs: []string{"--help"}},
		{Source: SourceGlobal, Path: "doc-server", ProbeArgs: []string{"--help"}},
	}
	if docServerRemoteURL != "" {
		docServerCandidates = append(docServerCandidates, Candidate{Source: SourceRemote, URL: docServerRemoteURL})
	}

	return []Spec{
		{
			Tool: "gofumpt",
			Candidates: []Candidate{
				{Source: SourceLocal, Path: projectRoot + "/bin/gofumpt", ProbeArgs: []string{"-version"}},
				{Source: SourceGlobal, Path: "gofumpt", ProbeArgs: []string{"-version"}},
			},
		},
		{
			Tool: "staticcheck",
			Candidates: []Candidate{
				{Source: SourceLocal, Path: projectRoot + "/bin/staticcheck", ProbeArgs: []string{"-version"}},
				{Source: SourceGlobal, Path: "staticcheck", ProbeArgs: []string{"-version"}},
			},
		},
		{
			Tool: "go-vet",
			Candidates: []Candidate{
				{Source: SourceGlobal, Path: "go", ProbeArgs: []string{"version"}},
			},
		},
		{
			Tool:       "doc-server",
			Candidates: docServerCandidates,
		},
	}
}
