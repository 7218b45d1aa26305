package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/roach88/docsql/internal/ast"
	"github.com/roach88/docsql/internal/cache"
	"github.com/roach88/docsql/internal/metrics"
	"github.com/roach88/docsql/internal/parser"
	"github.com/roach88/docsql/internal/row"
	"github.com/roach88/docsql/internal/store"
)

// kindCall labels CALL GENERATE_DATA in logs and metrics.
const kindCall = "CALL"

// Result is the outcome of one statement.
//
// SELECT fills Rows, Columns and Explanation. Every other statement leaves
// Rows and Columns empty and reports a Message.
type Result struct {
	Rows        []*row.Row `json:"rows"`
	Columns     []string   `json:"columns"`
	Message     string     `json:"message,omitempty"`
	Explanation []string   `json:"explanation,omitempty"`
}

func messageResult(format string, args ...any) *Result {
	return &Result{Rows: []*row.Row{}, Columns: []string{}, Message: fmt.Sprintf(format, args...)}
}

// Engine runs SQL submissions. It owns no persistent state: rows are
// borrowed from the repository for the duration of one statement.
//
// Thread-safety: Execute is safe for concurrent use. Concurrent writers get
// no isolation beyond what the repository provides per document.
type Engine struct {
	repo    store.Repository
	cache   cache.RowCache
	parser  *parser.Parser
	logger  *slog.Logger
	metrics *metrics.Metrics
	clock   Clock
	rand    *lockedRand
	likes   *likeCache

	likeCacheSize int
}

// Option allows configuration of engine collaborators.
type Option func(*Engine)

// WithCache sets the row cache. Default: cache.Nop (every read hits the store).
func WithCache(c cache.RowCache) Option {
	return func(e *Engine) {
		e.cache = c
	}
}

// WithLogger sets the logger for evaluation warnings and stage timings.
// Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithMetrics sets the Prometheus collectors. Default: none.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithClock sets the wall clock. Default: SystemClock.
func WithClock(c Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithRand sets the random source for UUID() and GENERATE_DATA.
// Default: randomly seeded.
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) {
		e.rand = newLockedRand(r)
	}
}

// WithLikeCacheSize sets how many compiled LIKE patterns are kept.
// Default: 256. A size below 1 disables the cache.
func WithLikeCacheSize(n int) Option {
	return func(e *Engine) {
		e.likeCacheSize = n
	}
}

// WithParser sets the SQL parser. Default: parser.New() (PostgreSQL, then MySQL).
func WithParser(p *parser.Parser) Option {
	return func(e *Engine) {
		e.parser = p
	}
}

// New creates an Engine over the given repository.
func New(repo store.Repository, opts ...Option) *Engine {
	e := &Engine{
		repo:   repo,
		cache:  cache.Nop{},
		parser: parser.New(),
		logger: slog.Default(),
		clock:  SystemClock{},

		likeCacheSize: defaultLikeCacheSize,
	}
	for _, opt := range opts {
		opt(e)
	}
	if likes, err := newLikeCache(e.likeCacheSize); err != nil {
		e.logger.Warn("LIKE patterns will not be cached", "error", err)
	} else {
		e.likes = likes
	}
	if e.rand == nil {
		e.rand = newLockedRand(nil)
	}
	return e
}

// Execute runs every statement of sql in order and returns the results of
// the statements that completed.
//
// Execution stops at the first failing statement; its error is returned
// together with the results before it, whose effects remain committed.
func (e *Engine) Execute(ctx context.Context, sess Session, sql string) ([]*Result, error) {
	r := &run{Engine: e, ctx: ctx, sess: sess}

	if m := matchGenerateData(sql); m != nil {
		res, err := r.timed(kindCall, func() (*Result, error) { return r.generateData(m) })
		if err != nil {
			return nil, withStatement(err, sql)
		}
		return []*Result{res}, nil
	}

	results := []*Result{}
	for _, stmt := range parser.Split(sql) {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res, err := r.executeOne(stmt)
		if err != nil {
			return results, withStatement(err, stmt)
		}
		results = append(results, res)
	}
	return results, nil
}

// run carries the per-submission context through every handler.
type run struct {
	*Engine
	ctx  context.Context
	sess Session
}

func (r *run) executeOne(stmt string) (*Result, error) {
	if m := matchGenerateData(stmt); m != nil {
		return r.timed(kindCall, func() (*Result, error) { return r.generateData(m) })
	}

	parsed, err := r.parser.Parse(stmt)
	if err != nil {
		r.metrics.ObserveStatement("PARSE", 0, err)
		if parser.IsUnsupported(err) {
			return nil, newQueryError(ErrCodeUnsupportedStatement, "%v", err)
		}
		return nil, newQueryError(ErrCodeSyntax, "%v", err)
	}

	kind := ast.Kind(parsed)
	return r.timed(kind, func() (*Result, error) {
		switch s := parsed.(type) {
		case *ast.Select:
			return r.selectRows(s)
		case *ast.Insert:
			return r.insert(s)
		case *ast.Update:
			return r.update(s)
		case *ast.Delete:
			return r.delete(s)
		case *ast.CreateTable:
			return r.createTable(s)
		case *ast.DropTable:
			return r.dropTable(s)
		case *ast.AlterTable:
			return r.alterTable(s)
		default:
			return nil, newQueryError(ErrCodeUnsupportedStatement, "unsupported statement type %T", parsed)
		}
	})
}

// timed runs one handler, recording its latency and outcome.
func (r *run) timed(kind string, fn func() (*Result, error)) (*Result, error) {
	start := time.Now()
	res, err := fn()
	elapsed := time.Since(start)
	r.metrics.ObserveStatement(kind, elapsed.Seconds(), err)
	r.logger.Debug("statement executed",
		"kind", kind,
		"duration", elapsed,
		"error", err,
	)
	return res, err
}

// withStatement attaches the failing statement's prefix to a QueryError.
// Other errors (store, authorization) are wrapped so errors.Is still matches.
func withStatement(err error, stmt string) error {
	var qe *QueryError
	if errors.As(err, &qe) {
		if qe.Statement == "" {
			cp := *qe
			cp.Statement = statementPrefix(stmt)
			return &cp
		}
		return qe
	}
	return fmt.Errorf("execute %q: %w", statementPrefix(stmt), err)
}

func statementPrefix(stmt string) string {
	const max = 40
	runes := []rune(stmt)
	if len(runes) <= max {
		return stmt
	}
	return string(runes[:max])
}
