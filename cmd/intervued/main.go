// Command intervued runs the background interview evaluation daemon: it
// claims queued sessions, transcribes answers, scores them, and persists
// the results.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"intervue/internal/config"
	"intervue/internal/daemon"
	"intervue/internal/evalengine"
	"intervue/internal/logging"
	"intervue/internal/notifications"
	"intervue/internal/objectstore"
	"intervue/internal/processor"
	"intervue/internal/queue"
	"intervue/internal/questions"
	"intervue/internal/sessions"
	"intervue/internal/transcribe"
	"intervue/internal/workflow"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, _, _, err := config.Load("")
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	sessionStore, err := sessions.Open(cfg)
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	defer sessionStore.Close()

	queueStore, err := queue.Open(cfg)
	if err != nil {
		return fmt.Errorf("open queue store: %w", err)
	}

	objects, err := objectstore.NewFilesystem(cfg.Paths.DataDir)
	if err != nil {
		queueStore.Close()
		return fmt.Errorf("open object store: %w", err)
	}

	engine, err := evalengine.FromConfig(ctx, cfg)
	if err != nil {
		queueStore.Close()
		return fmt.Errorf("init evaluation engine: %w", err)
	}

	transcriber, err := transcribe.FromConfig(cfg, objects)
	if err != nil {
		queueStore.Close()
		return fmt.Errorf("init transcriber: %w", err)
	}

	generator := questions.NewGenerator(engine, cfg.Interview.MaxQuestions, logger)
	manager := sessions.NewManager(sessionStore, objects, generator, logger)
	notifier := notifications.NewService(cfg)
	proc := processor.New(manager, objects, transcriber, engine, notifier, logger)
	consumer := workflow.NewConsumer(cfg, queueStore, proc, logger)

	d, err := daemon.New(cfg, queueStore, consumer, logger)
	if err != nil {
		queueStore.Close()
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	logger.Info("intervue daemon shutting down")
	return nil
}
