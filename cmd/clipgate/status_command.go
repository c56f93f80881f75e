package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"clipgate/internal/deps"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check whether the clipgate daemon is reachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			if cfg, err := ctx.ensureConfig(); err == nil {
				for _, status := range deps.CheckBinaries(deps.Requirements(cfg)) {
					if status.Available {
						fmt.Fprintln(out, renderStatusLine(status.Name, statusOK, status.Command, colorize))
					} else {
						fmt.Fprintln(out, renderStatusLine(status.Name, statusError, status.Detail, colorize))
					}
				}
			}

			base, err := ctx.serverBase()
			if err != nil {
				return err
			}

			var health map[string]string
			if err := ctx.doJSON("GET", "/healthz", nil, &health); err != nil {
				fmt.Fprintln(out, renderStatusLine("Daemon", statusError, "not reachable at "+base, colorize))
				return err
			}
			fmt.Fprintln(out, renderStatusLine("Daemon", statusOK, "running at "+base, colorize))
			return nil
		},
	}
}
