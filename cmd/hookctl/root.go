package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/nova-dawn/hookctl/internal/config"
)

// newLogger constructs the one process-wide zerolog.Logger and threads
// it explicitly into every collaborator from here on; nothing in this
// module reaches for a package-level logging global.
func newLogger(env config.Env) zerolog.Logger {
	level := zerolog.InfoLevel
	if env.Debug {
		level = zerolog.DebugLevel
	}
	zerolog.TimeFieldFormat = time.RFC3339
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().Timestamp().Logger()
}

func newRootCmd() *cobra.Command {
	var registryPath string
	var lockDir string

	root := &cobra.Command{
		Use:   "hookctl",
		Short: "Event-driven hook dispatcher for tool-use events",
	}
	root.PersistentFlags().StringVar(&registryPath, "registry", "", "path to the hook registry TOML file")
	root.PersistentFlags().StringVar(&lockDir, "lock-dir", "", "override HOOKCTL_LOCK_DIR")

	root.AddCommand(newDispatchCmd(&registryPath, &lockDir))
	root.AddCommand(newPoolCmd(&lockDir))
	root.AddCommand(newProbeCmd())
	root.AddCommand(newRegistryCmd(&registryPath))
	return root
}
