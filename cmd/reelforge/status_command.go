package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"

	"reelforge/internal/api"
	"reelforge/internal/config"
	"reelforge/internal/daemonrun"
	"reelforge/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon, dependency, and directory status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			status := collectStatus(cmd, cfg)
			if ctx.jsonOutput() {
				return writeJSON(cmd, status)
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			lines := renderSectionHeader("Daemon", colorize)
			if status.Running {
				lines = append(lines, renderStatusLine("reelforge serve", statusOK, fmt.Sprintf("Running (pid %d, %s)", status.PID, cfg.Paths.APIBind), colorize))
			} else {
				lines = append(lines, renderStatusLine("reelforge serve", statusInfo, "Not running", colorize))
			}
			lines = append(lines, renderStatusLine("Working directory", statusInfo, status.WorkDir, colorize))
			history := "disabled"
			if status.HistoryPath != "" {
				history = status.HistoryPath
			}
			lines = append(lines, renderStatusLine("History", statusInfo, history, colorize))
			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Dependencies", colorize)...)
			lines = append(lines, dependencyLines(status.Dependencies, colorize)...)
			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Directories", colorize)...)
			lines = append(lines, checkLines(status.Checks, colorize)...)
			_, err = fmt.Fprintln(out, strings.Join(lines, "\n"))
			return err
		},
	}
}

func collectStatus(cmd *cobra.Command, cfg *config.Config) api.Status {
	status := api.Status{
		WorkDir:      cfg.Paths.WorkDir,
		LockFilePath: cfg.DaemonLockPath(),
		Dependencies: api.FromDependencies(preflight.CheckSystemDeps(cmd.Context(), cfg)),
		Checks:       api.FromChecks(preflight.RunAll(cmd.Context(), cfg)),
	}
	if cfg.History.Enabled {
		status.HistoryPath = cfg.History.Path
	}
	if pid := daemonrun.ReadPID(cfg); pid > 0 && processAlive(pid) {
		status.Running = true
		status.PID = pid
	}
	return status
}

// processAlive probes pid with signal 0. EPERM still means the process exists.
func processAlive(pid int) bool {
	err := unix.Kill(pid, 0)
	return err == nil || err == unix.EPERM
}
