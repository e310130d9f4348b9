package main

import (
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"scout/internal/config"
	"scout/internal/logging"
	"scout/internal/pipeline"
	"scout/internal/services/assistant"
	"scout/internal/store"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
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
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// withStore opens the listing store for the duration of fn.
func (c *commandContext) withStore(fn func(*config.Config, *store.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	st, err := store.Open(cfg)
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(cfg, st)
}

// newRunner builds a pipeline runner with the model-backed collaborators.
func (c *commandContext) newRunner(cfg *config.Config, st *store.Store, logger *slog.Logger) (*pipeline.Runner, error) {
	client, err := assistant.New(cfg, logger)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(cfg, st, logger, client.Collaborators())
}

// withRunner opens the store and builds a runner for the duration of fn.
func (c *commandContext) withRunner(fn func(*config.Config, *store.Store, *pipeline.Runner) error) error {
	return c.withStore(func(cfg *config.Config, st *store.Store) error {
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			return err
		}
		runner, err := c.newRunner(cfg, st, logger)
		if err != nil {
			return err
		}
		return fn(cfg, st, runner)
	})
}

// withQuietRunner is withRunner with logging sent only to the log file, for
// commands whose stdout is the result itself.
func (c *commandContext) withQuietRunner(fn func(*config.Config, *store.Store, *pipeline.Runner) error) error {
	return c.withStore(func(cfg *config.Config, st *store.Store) error {
		logger, err := quietLogger(cfg)
		if err != nil {
			return err
		}
		runner, err := c.newRunner(cfg, st, logger)
		if err != nil {
			return err
		}
		return fn(cfg, st, runner)
	})
}

func quietLogger(cfg *config.Config) (*slog.Logger, error) {
	if cfg.Paths.LogDir == "" {
		return logging.NewNop(), nil
	}
	logPath := filepath.Join(cfg.Paths.LogDir, "scout.log")
	return logging.New(logging.Options{
		Level:            cfg.Logging.Level,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{logPath},
		ErrorOutputPaths: []string{logPath},
	})
}
