package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nova-dawn/hookctl/internal/config"
	"github.com/nova-dawn/hookctl/internal/registry"
)

func newRegistryCmd(registryPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "registry",
		Short: "Inspect and validate the hook registry",
	}
	cmd.AddCommand(newRegistryValidateCmd(registryPath))
	return cmd
}

func newRegistryValidateCmd(registryPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load the registry and instantiate every enabled hook, without processing an event",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := config.Load()
			if err != nil {
				return err
			}
			path := *registryPath
			if path == "" {
				path = env.RegistryPath
			}
			if path == "" {
				return fmt.Errorf("no registry path given: pass --registry or set HOOKCTL_REGISTRY_PATH")
			}
			reg, err := registry.Load(path, newLogger(env))
			if err != nil {
				return err
			}
			fmt.Printf("registry OK: %d hook(s) enabled\n", len(reg.Hooks()))
			return nil
		},
	}
}
