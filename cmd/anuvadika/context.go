package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/YatinSharma37/Anuvadika/internal/config"
	"github.com/YatinSharma37/Anuvadika/internal/logging"
	"github.com/YatinSharma37/Anuvadika/internal/runstore"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce   sync.Once
	config       *config.Config
	configPath   string
	configExists bool
	configErr    error

	storeOnce sync.Once
	store     *runstore.Store
	storeErr  error

	runnerLock *flock.Flock
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, exists, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.logLevelFlag != nil {
			if level := strings.TrimSpace(*c.logLevelFlag); level != "" {
				cfg.Logging.Level = level
			}
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
		c.configExists = exists
	})
	return c.config, c.configErr
}

// newLogger builds the process logger. With quietConsole the console only
// receives warnings so a progress bar owns the terminal; the log file still
// gets everything.
func (c *commandContext) newLogger(quietConsole bool) (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if !quietConsole {
		return logging.NewFromConfig(cfg)
	}
	console, err := logging.New(logging.Options{Level: "warn", Format: cfg.Logging.Format, OutputPaths: []string{"stderr"}})
	if err != nil {
		return nil, err
	}
	if cfg.Paths.LogDir == "" {
		return console, nil
	}
	file, err := logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Format:      "json",
		OutputPaths: []string{filepath.Join(cfg.Paths.LogDir, logging.LogFileName)},
	})
	if err != nil {
		return nil, err
	}
	return logging.TeeLogger(console, file.Handler()), nil
}

// openStore opens run history once per process and fails runs orphaned by a
// crashed process, but only when no other run process is alive.
func (c *commandContext) openStore(ctx context.Context) (*runstore.Store, error) {
	c.storeOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.storeErr = err
			return
		}
		store, err := runstore.Open(cfg.RunStorePath())
		if err != nil {
			c.storeErr = err
			return
		}
		c.store = store

		lock := flock.New(cfg.RunnerLockPath())
		locked, err := lock.TryLock()
		if err != nil || !locked {
			return
		}
		if _, err := store.FailInterrupted(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not mark interrupted runs: %v\n", err)
		}
		_ = lock.Unlock()
	})
	return c.store, c.storeErr
}

// holdRunnerLock marks this process as a live runner until close.
func (c *commandContext) holdRunnerLock() error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	lock := flock.New(cfg.RunnerLockPath())
	locked, err := lock.TryRLock()
	if err != nil {
		return fmt.Errorf("acquire runner lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("acquire runner lock: %s is held exclusively; retry shortly", cfg.RunnerLockPath())
	}
	c.runnerLock = lock
	return nil
}

func (c *commandContext) close() error {
	if c.runnerLock != nil {
		_ = c.runnerLock.Unlock()
		c.runnerLock = nil
	}
	if c.store != nil {
		err := c.store.Close()
		c.store = nil
		return err
	}
	return nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
