package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"reelforge/internal/daemonrun"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the pipeline over HTTP until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			opts := daemonrun.Options{
				Bind:   bind,
				Runner: newRunner(),
				Ready: func(addr string) {
					fmt.Fprintf(cmd.OutOrStdout(), "reelforge listening on http://%s (work dir %s)\n", addr, cfg.Paths.WorkDir)
				},
			}
			if ctx.verbose() {
				opts.LogLevel = "debug"
			}
			return daemonrun.Run(cmd.Context(), cfg, opts)
		},
	}
	cmd.Flags().StringVar(&bind, "bind", "", "Override paths.api_bind")
	return cmd
}
