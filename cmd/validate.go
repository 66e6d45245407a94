package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func validateCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validates the configuration and the domain list without calling the provider",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := a.ctx

			valid, batches := loadDomains(ctx, a.cfg)
			client := newClient(ctx, a.cfg)

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "endpoint:     %s\n", client.Endpoint())
			_, _ = fmt.Fprintf(out, "valid:        %d\n", valid.Len())
			_, _ = fmt.Fprintf(out, "batches:      %d (size %d)\n", len(batches), a.cfg.Dispatch.BatchSize)
			_, _ = fmt.Fprintf(out, "concurrency:  %d\n", a.cfg.Dispatch.Concurrency)
			_, _ = fmt.Fprintf(out, "output:       %s\n", a.cfg.Files.Output)
		},
	}

	return cmd
}
