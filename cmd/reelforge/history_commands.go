package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"reelforge/internal/api"
	"reelforge/internal/history"
	"reelforge/internal/pipeline"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var operation string
	var limit int

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded pipeline operations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistory(func(store *history.Store) error {
				records, err := store.List(cmd.Context(), history.Filter{Operation: operation, Limit: limit})
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					entries := make([]api.HistoryEntry, 0, len(records))
					for _, rec := range records {
						entries = append(entries, api.FromRecord(rec))
					}
					return writeJSON(cmd, api.HistoryResponse{Entries: entries})
				}
				out := cmd.OutOrStdout()
				if len(records) == 0 {
					_, err := fmt.Fprintln(out, "No operations recorded")
					return err
				}
				_, err = fmt.Fprintln(out, renderHistory(records))
				return err
			})
		},
	}
	historyCmd.Flags().StringVar(&operation, "operation", "", "Only show one operation (e.g. convert)")
	historyCmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum entries to show")

	historyCmd.AddCommand(newHistoryShowCommand(ctx))
	historyCmd.AddCommand(newHistoryPruneCommand(ctx))
	return historyCmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one recorded operation in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistory(func(store *history.Store) error {
				rec, err := store.Get(cmd.Context(), args[0])
				if errors.Is(err, history.ErrNotFound) {
					return fmt.Errorf("operation %s not found in history", args[0])
				}
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, api.FromRecord(rec))
				}
				res, err := pipeline.FromRecord(rec)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s  %s  %s\n", rec.ID, rec.StartedAt.Local().Format(time.DateTime), rec.WorkDir)
				_, err = fmt.Fprint(out, renderResult(res, shouldColorize(out)))
				return err
			})
		},
	}
}

func newHistoryPruneCommand(ctx *commandContext) *cobra.Command {
	var olderThan time.Duration
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete history entries older than a cutoff",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan <= 0 {
				return errors.New("--older-than must be positive")
			}
			return ctx.withHistory(func(store *history.Store) error {
				removed, err := store.Prune(cmd.Context(), time.Now().Add(-olderThan))
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, map[string]int64{"removed": removed})
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "Removed %d history entries\n", removed)
				return err
			})
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "Age cutoff (e.g. 720h)")
	return cmd
}

func renderHistory(records []history.Record) string {
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, []string{
			rec.ID,
			rec.StartedAt.Local().Format(time.DateTime),
			operationLabel(rec.Operation),
			rec.Outcome,
			rec.FinishedAt.Sub(rec.StartedAt).Round(time.Millisecond).String(),
			rec.Message,
		})
	}
	return renderTable(
		[]string{"ID", "Started", "Operation", "Outcome", "Elapsed", "Message"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
	)
}
