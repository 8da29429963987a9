package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nova-dawn/hookctl/internal/config"
	"github.com/nova-dawn/hookctl/internal/pool"
)

func newPoolCmd(lockDir *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pool",
		Short: "Inspect and maintain resource pools",
	}
	cmd.AddCommand(newPoolStatusCmd(lockDir))
	cmd.AddCommand(newPoolSweepCmd(lockDir))
	cmd.AddCommand(newPoolCanAcquireCmd(lockDir))
	return cmd
}

func newPoolCanAcquireCmd(lockDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "can-acquire <pool>",
		Short: "Advisory check for whether a pool currently has a free slot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := openManager(*lockDir)
			if err != nil {
				return err
			}
			if mgr.CanAcquire(args[0]) {
				fmt.Println("true")
				return nil
			}
			fmt.Println("false")
			return nil
		},
	}
}

func newPoolStatusCmd(lockDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print current occupancy for every resource pool",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := openManager(*lockDir)
			if err != nil {
				return err
			}
			statuses, err := mgr.Status()
			if err != nil {
				return err
			}
			for _, s := range statuses {
				fmt.Printf("%-16s %d/%d\n", s.Pool, s.Live, s.MaxSlots)
			}
			return nil
		},
	}
}

func newPoolSweepCmd(lockDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Force a stale-permit sweep across every pool",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := openManager(*lockDir)
			if err != nil {
				return err
			}
			n, err := mgr.Sweep()
			if err != nil {
				return err
			}
			fmt.Printf("pruned %d stale permit(s)\n", n)
			return nil
		},
	}
}

func openManager(lockDir string) (*pool.Manager, error) {
	env, err := config.Load()
	if err != nil {
		return nil, err
	}
	if lockDir == "" {
		lockDir = env.LockDir
	}
	descriptors, err := pool.LoadDescriptors("")
	if err != nil {
		return nil, err
	}
	return pool.NewManager(lockDir, descriptors, newLogger(env))
}
