package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"reelforge/internal/catalog"
	"reelforge/internal/conversion"
	"reelforge/internal/logging"
	"reelforge/internal/services"
)

// Concatenate joins the raw segments, in catalog order, into the
// concatenated output with stream copy.
func (c *Controller) Concatenate(ctx context.Context) (Result, error) {
	return c.run(ctx, OpConcatenate, true, func(ctx context.Context, logger *slog.Logger, res *Result) error {
		segments, err := c.catalog.Segments(ctx)
		if err != nil {
			return err
		}
		names := make([]string, len(segments))
		for i, seg := range segments {
			names[i] = seg.Name
		}
		if len(names) < 2 {
			return services.Wrap(services.ErrInsufficientInputs, "pipeline", OpConcatenate,
				fmt.Sprintf("need at least 2 segment files to concatenate, found %d", len(names)), nil)
		}
		// The listing and the invocation are separate scans; re-check each input.
		for _, name := range names {
			if _, err := c.catalog.Stat(ctx, name); err != nil {
				return err
			}
		}

		output := c.catalog.RoleName(catalog.RoleConcatenated)
		logger.Info("concatenating segments",
			logging.Int("segment_count", len(names)),
			logging.Any("segments", names),
			logging.String("output", output),
		)
		res.Files = names
		res.Output = output
		if _, err := c.tc.Concatenate(ctx, c.catalog.Dir(), names, output); err != nil {
			res.Message = "Failed to concatenate videos"
			return err
		}
		res.Message = fmt.Sprintf("Successfully concatenated %d files into %s", len(names), output)
		return nil
	})
}

// Convert turns the concatenated output into the converted output, remuxing
// when possible and re-encoding otherwise.
func (c *Controller) Convert(ctx context.Context) (Result, error) {
	return c.run(ctx, OpConvert, true, func(ctx context.Context, logger *slog.Logger, res *Result) error {
		source, err := c.catalog.FindByRole(ctx, catalog.RoleConcatenated)
		if err != nil {
			return err
		}
		if source == nil {
			return notFound(OpConvert, fmt.Sprintf("%s not found, run concatenate first", c.catalog.RoleName(catalog.RoleConcatenated)))
		}

		output := c.catalog.RoleName(catalog.RoleConverted)
		res.Files = []string{source.Name}
		res.Output = output
		logger.Info("converting container",
			logging.String("input", source.Name),
			logging.String("output", output),
		)

		outcome := c.converter.Container(ctx, c.catalog.Path(source.Name), c.catalog.Path(output))
		res.Attempts = outcome.Attempts
		res.Strategy = string(outcome.Strategy)
		if !outcome.Succeeded() {
			res.Message = fmt.Sprintf("Failed to convert %s: %s", source.Name, conversion.Message(outcome))
			return outcome.Err
		}
		res.Message = fmt.Sprintf("Converted %s to %s (%s)", source.Name, output, conversion.Message(outcome))
		if info, err := c.catalog.Stat(ctx, output); err == nil {
			res.SizeBytes = info.Size
		}
		return nil
	})
}

// List returns every recognized file in display order.
func (c *Controller) List(ctx context.Context) (Result, error) {
	return c.run(ctx, OpList, false, func(ctx context.Context, _ *slog.Logger, res *Result) error {
		files, err := c.catalog.List(ctx)
		if err != nil {
			return err
		}
		res.Videos = files
		res.Message = fmt.Sprintf("%d files", len(files))
		return nil
	})
}

// DeleteThumbnail removes one thumbnail image.
func (c *Controller) DeleteThumbnail(ctx context.Context, name string) (Result, error) {
	return c.run(ctx, OpDeleteThumbnail, true, func(ctx context.Context, _ *slog.Logger, res *Result) error {
		res.Files = []string{name}
		if err := c.catalog.DeleteThumbnail(ctx, name); err != nil {
			return err
		}
		res.Message = fmt.Sprintf("Deleted %s", name)
		return nil
	})
}

// Publish renames the canonical outputs after title.
func (c *Controller) Publish(ctx context.Context, title string) (Result, error) {
	return c.run(ctx, OpPublish, true, func(ctx context.Context, logger *slog.Logger, res *Result) error {
		renames, err := c.catalog.Publish(ctx, title)
		res.Renamed = renames
		if err != nil {
			return err
		}
		for _, r := range renames {
			res.Files = append(res.Files, r.To)
			logger.Info("published output", logging.String("from", r.From), logging.String("to", r.To))
		}
		res.Output = renames[0].To
		res.Message = fmt.Sprintf("Renamed %d files", len(renames))
		return nil
	})
}
