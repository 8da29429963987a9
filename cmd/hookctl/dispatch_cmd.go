package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/nova-dawn/hookctl/internal/config"
	"github.com/nova-dawn/hookctl/internal/dispatch"
	"github.com/nova-dawn/hookctl/internal/eventenv"
	"github.com/nova-dawn/hookctl/internal/hooks/docs"
	"github.com/nova-dawn/hookctl/internal/hooks/lint"
	"github.com/nova-dawn/hookctl/internal/hooks/validate"
	"github.com/nova-dawn/hookctl/internal/pool"
	"github.com/nova-dawn/hookctl/internal/probe"
	"github.com/nova-dawn/hookctl/internal/registry"
	"github.com/nova-dawn/hookctl/internal/transport"
)

func newDispatchCmd(registryPath, lockDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "dispatch",
		Short: "Read one event from stdin and write one decision to stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDispatch(*registryPath, *lockDir)
		},
	}
}

func runDispatch(registryPath, lockDir string) error {
	env, err := config.Load()
	if err != nil {
		return err
	}
	log := newLogger(env)

	if registryPath == "" {
		registryPath = env.RegistryPath
	}
	if registryPath == "" {
		return fmt.Errorf("no registry path given: pass --registry or set HOOKCTL_REGISTRY_PATH")
	}
	if lockDir == "" {
		lockDir = env.LockDir
	}

	descriptors, err := pool.LoadDescriptors("")
	if err != nil {
		return err
	}
	mgr, err := pool.NewManager(lockDir, descriptors, log)
	if err != nil {
		return err
	}

	reg, err := registry.Load(registryPath, log)
	if err != nil {
		return err
	}
	stop := make(chan struct{})
	defer close(stop)
	if err := reg.Watch(stop); err != nil {
		log.Warn().Err(err).Msg("registry hot-reload watcher not started")
	}

	projectDir, _ := os.Getwd()
	prober := probe.NewProber(env.ExternalToolCheckTimeout(), 4)
	attachRuntimeCollaborators(reg, mgr, prober, projectDir, env, log)

	d := dispatch.New(reg.Hooks(), log)
	defer d.Cleanup()

	ev, err := eventenv.ReadEvent(os.Stdin)
	if err != nil {
		return fmt.Errorf("decoding event: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), env.ClaudeAgentTimeout())
	defer cancel()

	decision := d.Dispatch(ctx, ev)
	return eventenv.WriteDecision(os.Stdout, decision)
}

// attachRuntimeCollaborators wires per-hook runtime dependencies
// (resource pool, transports) that the registry's factory functions do
// not themselves construct, since those depend on process-wide state
// (the pool manager, the project directory) rather than on one hook's
// own TOML config block.
func attachRuntimeCollaborators(reg *registry.Registry, mgr *pool.Manager, prober *probe.Prober, projectDir string, env config.Env, log zerolog.Logger) {
	for _, h := range reg.Hooks() {
		switch hh := h.(type) {
		case *lint.Hook:
			hh.Attach(mgr, prober, projectDir, log)
		case *docs.Hook:
			hh.Attach(mgr, transport.NewStdioTransport("doc-server", nil, projectDir), log)
		case *validate.Hook:
			hh.Attach(mgr, transport.NewSubprocessTransport(filepath.Join(projectDir, "bin", "validate")), log)
		}
	}
}
