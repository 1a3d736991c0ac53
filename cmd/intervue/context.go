package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"intervue/internal/answers"
	"intervue/internal/config"
	"intervue/internal/dispatch"
	"intervue/internal/evalengine"
	"intervue/internal/interview"
	"intervue/internal/logging"
	"intervue/internal/notifications"
	"intervue/internal/objectstore"
	"intervue/internal/processor"
	"intervue/internal/queue"
	"intervue/internal/questions"
	"intervue/internal/sessions"
	"intervue/internal/transcribe"
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

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

// cliRuntime is the fully assembled trigger-side stack backing a single
// command invocation.
type cliRuntime struct {
	cfg      *config.Config
	logger   *slog.Logger
	service  *interview.Service
	sessions *sessions.Store
	queue    *queue.Store
}

func (r *cliRuntime) close() {
	if r.queue != nil {
		r.queue.Close()
	}
	if r.sessions != nil {
		r.sessions.Close()
	}
}

// withService assembles the interview service against the configured stores
// and engines, runs fn, and tears the stack down again. Commands share the
// daemon's SQLite databases, so queue-mode dispatch lands work the daemon
// will pick up.
func (c *commandContext) withService(ctx context.Context, fn func(*cliRuntime) error) error {
	rt, err := c.buildRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.close()
	return fn(rt)
}

// withQueue opens only the queue store for commands that inspect or repair
// the queue without touching sessions.
func (c *commandContext) withQueue(fn func(*queue.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := queue.Open(cfg)
	if err != nil {
		return fmt.Errorf("open queue store: %w", err)
	}
	defer store.Close()
	return fn(store)
}

func (c *commandContext) buildRuntime(ctx context.Context) (*cliRuntime, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}

	logger, err := cliLogger(cfg)
	if err != nil {
		return nil, err
	}

	sessionStore, err := sessions.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}

	queueStore, err := queue.Open(cfg)
	if err != nil {
		sessionStore.Close()
		return nil, fmt.Errorf("open queue store: %w", err)
	}

	rt := &cliRuntime{cfg: cfg, logger: logger, sessions: sessionStore, queue: queueStore}

	objects, err := objectstore.NewFilesystem(cfg.Paths.DataDir)
	if err != nil {
		rt.close()
		return nil, fmt.Errorf("open object store: %w", err)
	}

	engine, err := evalengine.FromConfig(ctx, cfg)
	if err != nil {
		rt.close()
		return nil, fmt.Errorf("init evaluation engine: %w", err)
	}

	transcriber, err := transcribe.FromConfig(cfg, objects)
	if err != nil {
		rt.close()
		return nil, fmt.Errorf("init transcriber: %w", err)
	}

	generator := questions.NewGenerator(engine, cfg.Interview.MaxQuestions, logger)
	manager := sessions.NewManager(sessionStore, objects, generator, logger)
	ingestor := answers.NewIngestor(manager, objects, cfg.Interview.UploadConcurrency, logger)
	notifier := notifications.NewService(cfg)
	proc := processor.New(manager, objects, transcriber, engine, notifier, logger)

	dispatcher, err := dispatch.New(cfg, queueStore, proc, logger)
	if err != nil {
		rt.close()
		return nil, fmt.Errorf("init dispatcher: %w", err)
	}

	rt.service = interview.NewService(manager, ingestor, dispatcher, objects, logger)
	return rt, nil
}

// cliLogger logs to the shared log file only, keeping command output clean.
func cliLogger(cfg *config.Config) (*slog.Logger, error) {
	if cfg.Paths.LogDir == "" {
		return logging.NewNop(), nil
	}
	return logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{filepath.Join(cfg.Paths.LogDir, "intervue.log")},
	})
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
