package cli

import (
	"context"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/roach88/docsql/internal/cache"
	"github.com/roach88/docsql/internal/config"
	"github.com/roach88/docsql/internal/engine"
	"github.com/roach88/docsql/internal/metrics"
	"github.com/roach88/docsql/internal/parser"
	"github.com/roach88/docsql/internal/store"
)

// env is the configured store, engine and session one command runs with.
type env struct {
	cfg    *config.Config
	store  *store.SQLiteStore
	engine *engine.Engine
	sess   engine.Session
	logger *slog.Logger
}

// envOption adjusts how openEnv builds the engine.
type envOption func(*envSettings)

type envSettings struct {
	registry prometheus.Registerer
}

// withRegistry records engine metrics on reg.
func withRegistry(reg prometheus.Registerer) envOption {
	return func(s *envSettings) {
		s.registry = reg
	}
}

// openEnv loads configuration, opens the store and builds the engine.
// Logs go to logOut. The caller must call close.
func openEnv(opts *RootOptions, logOut io.Writer, extra ...envOption) (*env, error) {
	var settings envSettings
	for _, opt := range extra {
		opt(&settings)
	}

	cfg, err := config.Load(opts.ConfigFile, opts.overrides())
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load configuration", err)
	}

	logger := slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: cfg.SlogLevel()}))

	dialects, err := parser.ParseDialectNames(cfg.Engine.Dialects)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid engine.dialects", err)
	}

	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	logger.Debug("database ready", "path", cfg.Database.Path)

	engineOpts := []engine.Option{
		engine.WithLogger(logger),
		engine.WithParser(parser.New(dialects...)),
	}
	if cfg.Cache.TTL > 0 {
		engineOpts = append(engineOpts, engine.WithCache(cache.NewTTL(cfg.Cache.Size, cfg.Cache.TTL)))
	}
	if settings.registry != nil {
		engineOpts = append(engineOpts, engine.WithMetrics(metrics.New(settings.registry)))
	}

	return &env{
		cfg:    cfg,
		store:  st,
		engine: engine.New(st, engineOpts...),
		sess:   engine.NewSession(cfg.Project.ID, cfg.Project.Actor, cfg.Engine.Timezone),
		logger: logger,
	}, nil
}

func (e *env) close() {
	if err := e.store.Close(); err != nil {
		e.logger.Error("error closing database", "error", err)
	}
}

// execute runs a submission in the env's session.
func (e *env) execute(ctx context.Context, sql string) ([]*engine.Result, error) {
	return e.engine.Execute(ctx, e.sess, sql)
}
