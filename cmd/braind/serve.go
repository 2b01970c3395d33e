package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/solohub/braind/internal/actions"
	"github.com/solohub/braind/internal/api"
	"github.com/solohub/braind/internal/config"
	"github.com/solohub/braind/internal/engine"
	"github.com/solohub/braind/internal/executor"
	"github.com/solohub/braind/internal/expressions"
	"github.com/solohub/braind/internal/logging"
	"github.com/solohub/braind/internal/scheduler"
	"github.com/solohub/braind/internal/store"
	"github.com/solohub/braind/internal/streaming"
	"github.com/solohub/braind/internal/validation"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the braind HTTP server and scheduler loops",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

// deps bundles everything the serve and mcp commands wire up.
type deps struct {
	cfg       config.Config
	logger    *slog.Logger
	store     store.Store
	executor  *executor.Executor
	engine    *engine.Engine
	hub       *streaming.MemoryHub
	validator *validation.JSONSchemaValidator
}

func buildDeps(ctx context.Context) (*deps, error) {
	cfg := config.Load()

	logger := slog.New(logging.NewCorrelationHandler(
		slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}),
	))
	slog.SetDefault(logger)

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	s, err := store.NewLibSQLStore(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("migrate store: %w", err)
	}

	registry := actions.NewRegistry()
	if err := actions.RegisterBuiltins(registry, s); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("register handlers: %w", err)
	}

	validator, err := validation.NewJSONSchemaValidator()
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("build validator: %w", err)
	}

	engines, err := expressions.NewEngines()
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("build expression engines: %w", err)
	}

	hub := streaming.NewMemoryHub()
	exec := executor.NewExecutor(s, registry, validator, hub, logger)
	eng := engine.NewEngine(s, exec, engines, hub, logger)

	return &deps{
		cfg:       cfg,
		logger:    logger,
		store:     s,
		executor:  exec,
		engine:    eng,
		hub:       hub,
		validator: validator,
	}, nil
}

func runServe() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	d, err := buildDeps(ctx)
	if err != nil {
		return err
	}
	defer d.store.Close()

	// Background loops.
	sched := scheduler.NewWorkflowScheduler(d.store, d.engine, d.logger,
		scheduler.WithSchedulerInterval(d.cfg.SchedulerInterval()))
	if err := sched.Start(ctx); err != nil {
		return err
	}
	defer sched.Stop()

	runner := scheduler.NewActionRunner(d.executor, d.logger,
		scheduler.WithRunnerInterval(d.cfg.RunnerInterval()),
		scheduler.WithRunnerBatch(d.cfg.RunnerBatchSize))
	if err := runner.Start(ctx); err != nil {
		return err
	}
	defer runner.Stop()

	// HTTP server.
	apiServer := api.NewServer(api.Deps{
		Store:     d.store,
		Executor:  d.executor,
		Engine:    d.engine,
		Hub:       d.hub,
		Validator: d.validator,
		Logger:    d.logger,
	})

	srv := &http.Server{
		Addr:    d.cfg.ListenAddr,
		Handler: apiServer.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		d.logger.Info("braind listening", "addr", d.cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		d.logger.Info("shutting down")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
