package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nova-dawn/hookctl/internal/config"
	"github.com/nova-dawn/hookctl/internal/probe"
)

func newProbeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "probe",
		Short: "Report which external tools are available, and from where",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := config.Load()
			if err != nil {
				return err
			}
			projectDir, _ := os.Getwd()
			p := probe.NewProber(env.ExternalToolCheckTimeout(), 4)
			results, err := p.ProbeAll(context.Background(), probe.DefaultSpecs(projectDir, env.DocServerRemoteURL))
			if err != nil {
				return err
			}
			for _, r := range results {
				if r.Available {
					fmt.Printf("%-16s available  source=%-7s path=%s %s\n", r.Tool, r.Source, r.Path, r.Version)
				} else {
					fmt.Printf("%-16s unavailable  %s\n", r.Tool, r.Reason)
				}
			}
			return nil
		},
	}
}
