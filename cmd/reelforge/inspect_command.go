package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"reelforge/internal/catalog"
	"reelforge/internal/media/ffprobe"
)

func newInspectCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file>",
		Short: "Show container and stream details for a file in the working directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			cat, err := catalog.New(cfg.Paths.WorkDir, catalog.Options{
				OutputBasename:     cfg.Catalog.OutputBasename,
				SegmentExtension:   cfg.Catalog.SegmentExtension,
				ConvertedExtension: cfg.Catalog.ConvertedExtension,
				SegmentPattern:     cfg.Catalog.SegmentPattern,
			})
			if err != nil {
				return err
			}
			file, err := cat.Stat(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			probeCtx, cancel := context.WithTimeout(cmd.Context(), cfg.ProbeTimeout())
			defer cancel()
			result, err := ffprobe.Inspect(probeCtx, cfg.Tools.FFprobe, cat.Path(file.Name))
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, json.RawMessage(result.RawJSON()))
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "File: %s (%s)\n", file.Name, file.Category)
			fmt.Fprintf(out, "Container: %s\n", fallbackText(result.Format.FormatName, "unknown"))
			fmt.Fprintf(out, "Duration: %s\n", formatSeconds(result.DurationSeconds()))
			fmt.Fprintf(out, "Size: %s\n", formatBytes(file.Size))
			fmt.Fprintf(out, "Streams: %d video, %d audio\n", result.VideoStreamCount(), result.AudioStreamCount())
			if len(result.Streams) == 0 {
				return nil
			}
			rows := make([][]string, 0, len(result.Streams))
			for _, stream := range result.Streams {
				rows = append(rows, []string{
					strconv.Itoa(stream.Index),
					stream.CodecType,
					stream.CodecName,
					streamDetail(stream),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"#", "Type", "Codec", "Details"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}
}

func streamDetail(stream ffprobe.Stream) string {
	var parts []string
	if stream.Width > 0 && stream.Height > 0 {
		parts = append(parts, fmt.Sprintf("%dx%d", stream.Width, stream.Height))
	}
	if stream.Channels > 0 {
		parts = append(parts, fmt.Sprintf("%d ch", stream.Channels))
	}
	if stream.SampleRate != "" {
		parts = append(parts, stream.SampleRate+" Hz")
	}
	return strings.Join(parts, ", ")
}

// formatSeconds renders whole seconds as m:ss, or h:mm:ss past an hour.
func formatSeconds(seconds float64) string {
	if seconds <= 0 {
		return "unknown"
	}
	total := int(seconds)
	h, m, s := total/3600, (total%3600)/60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

func fallbackText(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return value
}
