package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"reelforge/internal/api"
	"reelforge/internal/pipeline"
	"reelforge/internal/platform"
)

type operationFunc func(ctx context.Context, c *pipeline.Controller) (pipeline.Result, error)

// reportedError marks an operation failure whose result was already
// rendered, so main only sets the exit code.
type reportedError struct {
	err error
}

func (e reportedError) Error() string { return e.err.Error() }
func (e reportedError) Unwrap() error { return e.err }

func isReported(err error) bool {
	var rep reportedError
	return errors.As(err, &rep)
}

func (c *commandContext) runOperation(cmd *cobra.Command, op operationFunc) error {
	return c.withController(func(ctrl *pipeline.Controller) error {
		res, err := op(cmd.Context(), ctrl)
		var renderErr error
		if c.jsonOutput() {
			renderErr = writeJSON(cmd, api.FromResult(res))
		} else {
			out := cmd.OutOrStdout()
			_, renderErr = fmt.Fprint(out, renderResult(res, shouldColorize(out)))
		}
		if err != nil {
			return reportedError{err: err}
		}
		return renderErr
	})
}

func newOperationCommands(ctx *commandContext) []*cobra.Command {
	platformHelp := strings.Join(platform.Names(), ", ")

	list := &cobra.Command{
		Use:   "list",
		Short: "List media files in the working directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.runOperation(cmd, func(c context.Context, ctrl *pipeline.Controller) (pipeline.Result, error) {
				return ctrl.List(c)
			})
		},
	}

	concat := &cobra.Command{
		Use:     "concat",
		Aliases: []string{"concatenate"},
		Short:   "Join raw segments into output.mkv",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.runOperation(cmd, func(c context.Context, ctrl *pipeline.Controller) (pipeline.Result, error) {
				return ctrl.Concatenate(c)
			})
		},
	}

	convert := &cobra.Command{
		Use:   "convert",
		Short: "Convert output.mkv to output.mp4, remuxing when possible",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.runOperation(cmd, func(c context.Context, ctrl *pipeline.Controller) (pipeline.Result, error) {
				return ctrl.Convert(c)
			})
		},
	}

	var clipPlatform string
	clip := &cobra.Command{
		Use:   "clip <file>",
		Short: "Re-encode the opening of a video to fit a platform's duration limit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.runOperation(cmd, func(c context.Context, ctrl *pipeline.Controller) (pipeline.Result, error) {
				return ctrl.GenerateClip(c, clipPlatform, args[0])
			})
		},
	}
	clip.Flags().StringVarP(&clipPlatform, "platform", "p", "", "Target platform ("+platformHelp+")")
	_ = clip.MarkFlagRequired("platform")

	var preparePlatform string
	prepare := &cobra.Command{
		Use:   "prepare <file>",
		Short: "Cut a video to a platform's limits, stream copying when accurate enough",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.runOperation(cmd, func(c context.Context, ctrl *pipeline.Controller) (pipeline.Result, error) {
				return ctrl.PrepareForPlatform(c, preparePlatform, args[0])
			})
		},
	}
	prepare.Flags().StringVarP(&preparePlatform, "platform", "p", "", "Target platform ("+platformHelp+")")
	_ = prepare.MarkFlagRequired("platform")

	transcribe := &cobra.Command{
		Use:   "transcribe <file>",
		Short: "Write a timestamped transcript next to a video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.runOperation(cmd, func(c context.Context, ctrl *pipeline.Controller) (pipeline.Result, error) {
				return ctrl.Transcribe(c, args[0])
			})
		},
	}

	publish := &cobra.Command{
		Use:   "publish <title>",
		Short: "Rename the canonical outputs after a title",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			title := strings.Join(args, " ")
			return ctx.runOperation(cmd, func(c context.Context, ctrl *pipeline.Controller) (pipeline.Result, error) {
				return ctrl.Publish(c, title)
			})
		},
	}

	return []*cobra.Command{list, concat, convert, clip, prepare, transcribe, publish}
}

func newThumbnailCommand(ctx *commandContext) *cobra.Command {
	thumbCmd := &cobra.Command{
		Use:   "thumbnail",
		Short: "Manage thumbnail images",
	}
	thumbCmd.AddCommand(&cobra.Command{
		Use:   "delete <file>",
		Short: "Delete a thumbnail-*.png image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.runOperation(cmd, func(c context.Context, ctrl *pipeline.Controller) (pipeline.Result, error) {
				return ctrl.DeleteThumbnail(c, args[0])
			})
		},
	})
	return thumbCmd
}
