// METADATA
//
// Package registry - hook registry and loader (Component D)
//
// Purpose & Function
//
// Loads a TOML registry file naming every configured hook, takes each
// entry's config from its inline [hooks.config] table (no separate
// per-hook config file is read), and instantiates a hooks.Hook for it via
// a static factory registered by that hook package's init(). Go has no
// runtime plugin-loading equivalent to the dynamic importer this module
// is derived from; a compiled-in factory map preserves the "registry
// entry names an entry point, the entry point resolves to a constructor"
// shape without dynamic code loading.
package registry

import (
	"fmt"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/nova-dawn/hookctl/internal/hooks"
)

// Entry is one hook's registry record.
type Entry struct {
	Name       string                 `toml:"name"`
	EntryPoint string                 `toml:"entry_point"`
	Enabled    bool                   `toml:"enabled"`
	Config     map[string]interface{} `toml:"config"`
}

// Document is the on-disk shape of the registry file.
type Document struct {
	Version int     `toml:"version"`
	Hooks   []Entry `toml:"hooks"`
}

// Factory constructs a Hook from its resolved config. Hook packages
// register their Factory in an init() function via Register.
type Factory func(hooks.Config) (hooks.Hook, error)

var (
	factoriesMu sync.Mutex
	factories   = map[string]Factory{}
)

// Register makes a hook entry point available to the registry loader.
// Called from each hook package's init().
func Register(entryPoint string, f Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	factories[entryPoint] = f
}

// Registry holds loaded, instantiated hooks plus the raw document they
// came from (kept for reload diffing and for "registry validate").
type Registry struct {
	path  string
	log   zerolog.Logger
	mu    sync.RWMutex
	doc   Document
	hooks []hooks.Hook
}

func Load(path string, log zerolog.Logger) (*Registry, error) {
	r := &Registry{path: path, log: log}
	if err := r.reload(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Registry) reload() error {
	var doc Document
	if _, err := toml.DecodeFile(r.path, &doc); err != nil {
		return errors.Wrapf(err, "registry: decoding %s", r.path)
	}

	instantiated := make([]hooks.Hook, 0, len(doc.Hooks))
	for _, e := range doc.Hooks {
		if !e.Enabled {
			continue
		}
		h, err := r.instantiate(e)
		if err != nil {
			return errors.Wrapf(err, "registry: instantiating hook %q", e.Name)
		}
		instantiated = append(instantiated, h)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// Release whatever the previous generation of hooks was holding
	// before swapping in the new set, so a reload never leaks a
	// transport or file handle.
	for _, h := range r.hooks {
		_ = h.Cleanup()
	}
	r.doc = doc
	r.hooks = instantiated
	return nil
}

func (r *Registry) instantiate(e Entry) (h hooks.Hook, err error) {
	factoriesMu.Lock()
	f, ok := factories[e.EntryPoint]
	factoriesMu.Unlock()
	if !ok {
		return nil, fmt.Errorf("no factory registered for entry point %q", e.EntryPoint)
	}
	h, err = f(hooks.Config(e.Config))
	if err != nil {
		return nil, err
	}

	// Capability check: satisfying hooks.Hook already statically requires
	// process_event, get_config_schema, and cleanup; exercising
	// get_config_schema once here surfaces a hook that panics building its
	// schema at load time instead of at first dispatched event.
	defer func() {
		if rec := recover(); rec != nil {
			h, err = nil, fmt.Errorf("hook %q: get_config_schema panicked: %v", e.EntryPoint, rec)
		}
	}()
	_ = h.GetConfigSchema()
	return h, nil
}

// Hooks returns the currently active, instantiated hook set. The slice
// is safe to range over concurrently with a Watch-triggered reload: a
// reload swaps the slice header under the registry's lock rather than
// mutating it in place.
func (r *Registry) Hooks() []hooks.Hook {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]hooks.Hook, len(r.hooks))
	copy(out, r.hooks)
	return out
}

// Watch reloads the registry whenever its backing file changes, until
// stop is closed. Errors during a triggered reload are logged, not
// returned, since a reload failure must not bring down a dispatcher that
// is still processing events against its last-good configuration.
func (r *Registry) Watch(stop <-chan struct{}) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "registry: creating watcher")
	}
	if err := w.Add(r.path); err != nil {
		_ = w.Close()
		return errors.Wrapf(err, "registry: watching %s", r.path)
	}

	go func() {
		defer w.Close()
		for {
			select {
			case <-stop:
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if err := r.reload(); err != nil {
					r.log.Error().Err(err).Msg("registry reload failed, keeping previous configuration")
				} else {
					r.log.Info().Msg("registry reloaded")
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				r.log.Warn().Err(err).Msg("registry watcher error")
			}
		}
	}()
	return nil
}
