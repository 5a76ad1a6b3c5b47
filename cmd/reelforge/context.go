package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"reelforge/internal/config"
	"reelforge/internal/history"
	"reelforge/internal/logging"
	"reelforge/internal/pipeline"
	"reelforge/internal/services"
	"reelforge/internal/transcoder"
)

// newRunner supplies the subprocess runner for pipeline commands. Tests swap
// it for a scripted runner; nil selects transcoder.ExecRunner.
var newRunner = func() transcoder.Runner { return nil }

type commandContext struct {
	configFlag  *string
	workDirFlag *string
	jsonFlag    *bool
	verboseFlag *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag, workDirFlag *string, jsonFlag, verboseFlag *bool) *commandContext {
	return &commandContext{
		configFlag:  configFlag,
		workDirFlag: workDirFlag,
		jsonFlag:    jsonFlag,
		verboseFlag: verboseFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.workDirFlag != nil {
			if dir := strings.TrimSpace(*c.workDirFlag); dir != "" {
				expanded, err := config.ExpandPath(dir)
				if err != nil {
					c.configErr = fmt.Errorf("resolve --work-dir: %w", err)
					return
				}
				cfg.Paths.WorkDir = expanded
			}
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) jsonOutput() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

func (c *commandContext) verbose() bool {
	return c.verboseFlag != nil && *c.verboseFlag
}

// logger writes warnings to stderr and the log file; --verbose lowers the
// threshold to the configured level.
func (c *commandContext) logger(cfg *config.Config) (*slog.Logger, error) {
	level := "warn"
	if c.verbose() {
		level = cfg.Logging.Level
	}
	return logging.New(logging.Options{
		Level:       level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stderr"},
		FilePath:    logging.FilePath(cfg),
	})
}

// withController builds a pipeline controller around the configured working
// directory, with history recording when enabled, and runs fn.
func (c *commandContext) withController(fn func(*pipeline.Controller) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := c.logger(cfg)
	if err != nil {
		return err
	}
	var recorder pipeline.Recorder
	if cfg.History.Enabled {
		store, err := history.Open(cfg)
		if err != nil {
			return fmt.Errorf("open history: %w", err)
		}
		defer store.Close()
		recorder = store
	}
	ctrl, err := pipeline.NewFromConfig(cfg, newRunner(), recorder, logger)
	if err != nil {
		return err
	}
	return fn(ctrl)
}

// withHistory opens the history store for read and maintenance commands.
func (c *commandContext) withHistory(fn func(*history.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	if !cfg.History.Enabled {
		return errors.New("history is disabled (set history.enabled = true)")
	}
	if _, err := os.Stat(cfg.History.Path); errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("no history recorded yet at %s", cfg.History.Path)
	}
	store, err := history.Open(cfg)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer store.Close()
	return fn(store)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

// Exit codes: 1 for operation failures, 2 for rejected requests.
const (
	exitFailure  = 1
	exitRejected = 2
)

func exitCode(err error) int {
	if services.IsPrecondition(err) {
		return exitRejected
	}
	return exitFailure
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
