package pool

import "time"

// Descriptor declares one named resource pool's capacity and default
// permit lifetime.
type Descriptor struct {
	Name       string
	MaxSlots   int
	DefaultTTL time.Duration
}

// Defaults is the built-in pool set, which LoadDescriptors returns as-is
// when given an empty path (every hookctl command passes an empty path,
// so these are the pools in use). Numbers for agents/linting/testing
// come from the original tool's config; documentation and validation
// are this module's own additions (see DESIGN.md "Open Question
// resolutions").
var Defaults = map[string]Descriptor{
	"agents":        {Name: "agents", MaxSlots: 3, DefaultTTL: 300 * time.Second},
	"linting":       {Name: "linting", MaxSlots: 2, DefaultTTL: 120 * time.Second},
	"testing":       {Name: "testing", MaxSlots: 1, DefaultTTL: 600 * time.Second},
	"documentation": {Name: "documentation", MaxSlots: 2, DefaultTTL: 60 * time.Second},
	"validation":    {Name: "validation", MaxSlots: 2, DefaultTTL: 60 * time.Second},
}

// LoadDescriptors reads a TOML pool descriptor file and merges it over
// Defaults, so an operator can override slot counts without restating
// every pool.
func LoadDescriptors(path string) (map[string]Descriptor, error) {
	merged := make(map[string]Descriptor, len(Defaults))
	for k, v := range Defaults {
		merged[k] = v
	}
	if path == "" {
		return merged, nil
	}
	var doc struct {
		Pools map[string]struct {
			MaxSlots   int `toml:"max_slots"`
			TTLSeconds int `toml:"ttl_seconds"`
		} `toml:"pools"`
	}
	if err := decodeTOMLFile(path, &doc); err != nil {
		return nil, err
	}
	for name, p := range doc.Pools {
		d := merged[name]
		d.Name = name
		if p.MaxSlots > 0 {
			d.MaxSlots = p.MaxSlots
		}
		if p.TTLSeconds > 0 {
			d.DefaultTTL = time.Duration(p.TTLSeconds) * time.Second
		}
		merged[name] = d
	}
	return merged, nil
}
