package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"reelforge/internal/logging"
	"reelforge/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var follow bool
	var match string

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the reelforge log file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := logging.FilePath(cfg)
			if path == "" {
				return errors.New("paths.log_dir is not set")
			}
			out := cmd.OutOrStdout()
			chunk, err := logs.Tail(cmd.Context(), path, logs.Options{Offset: -1, Lines: lines, Match: match})
			if err != nil {
				return err
			}
			for _, line := range chunk.Lines {
				fmt.Fprintln(out, line)
			}
			if !follow {
				return nil
			}
			offset := chunk.Offset
			for {
				chunk, err := logs.Tail(cmd.Context(), path, logs.Options{Offset: offset, Follow: true, Wait: time.Second, Match: match})
				if errors.Is(err, context.Canceled) {
					return nil
				}
				if err != nil {
					return err
				}
				for _, line := range chunk.Lines {
					fmt.Fprintln(out, line)
				}
				offset = chunk.Offset
			}
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of trailing lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines until interrupted")
	cmd.Flags().StringVar(&match, "match", "", "Only show lines containing this text (e.g. an operation id)")
	return cmd
}
