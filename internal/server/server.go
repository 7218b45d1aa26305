// Package server exposes the engine over HTTP.
//
// Routes:
//
//	POST /v1/projects/:project/query   run a SQL submission
//	GET  /healthz                      liveness
//	GET  /metrics                      Prometheus exposition
//
// The actor is taken from the X-Actor-ID header. Authorization itself is
// the repository's job: the server only rejects requests without an actor.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/roach88/docsql/internal/engine"
	"github.com/roach88/docsql/internal/store"
)

// ActorHeader carries the authenticated actor ID.
const ActorHeader = "X-Actor-ID"

// shutdownTimeout bounds graceful shutdown in ListenAndServe.
const shutdownTimeout = 10 * time.Second

// Executor runs SQL submissions. *engine.Engine satisfies it.
type Executor interface {
	Execute(ctx context.Context, sess engine.Session, sql string) ([]*engine.Result, error)
}

// QueryRequest is the body of POST /v1/projects/:project/query.
type QueryRequest struct {
	SQL string `json:"sql" binding:"required"`

	// Timezone overrides the server default for NOW().
	Timezone string `json:"timezone"`
}

// QueryResponse is the response body. Results holds the statements that
// completed, also when a later statement failed.
type QueryResponse struct {
	Results []*engine.Result `json:"results"`
	Error   *ErrorBody       `json:"error,omitempty"`
}

// ErrorBody describes a failed request.
type ErrorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Statement string `json:"statement,omitempty"`
}

// Server routes HTTP requests to an Executor.
type Server struct {
	exec     Executor
	logger   *slog.Logger
	gatherer prometheus.Gatherer
	timezone string
	router   *gin.Engine
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithGatherer sets the registry /metrics exposes.
// Default: prometheus.DefaultGatherer.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithTimezone sets the session timezone used when a request names none.
func WithTimezone(tz string) Option {
	return func(s *Server) {
		s.timezone = tz
	}
}

// New creates a Server and its routes.
func New(exec Executor, opts ...Option) *Server {
	s := &Server{
		exec:     exec,
		logger:   slog.Default(),
		gatherer: prometheus.DefaultGatherer,
	}
	for _, opt := range opts {
		opt(s)
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))

	v1 := router.Group("/v1")
	projects := v1.Group("/projects/:project")
	projects.Use(requireActor())
	projects.POST("/query", s.query)

	s.router = router
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen on %s: %w", addr, err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

func (s *Server) query(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, QueryResponse{
			Results: []*engine.Result{},
			Error:   &ErrorBody{Code: "BAD_REQUEST", Message: err.Error()},
		})
		return
	}

	tz := req.Timezone
	if tz == "" {
		tz = s.timezone
	}
	sess := engine.NewSession(c.Param("project"), c.GetString(actorKey), tz)

	results, err := s.exec.Execute(c.Request.Context(), sess, req.SQL)
	if results == nil {
		results = []*engine.Result{}
	}
	if err != nil {
		status, body := s.errorBody(err)
		c.JSON(status, QueryResponse{Results: results, Error: body})
		return
	}
	c.JSON(http.StatusOK, QueryResponse{Results: results})
}

// errorBody maps an execution error to a status code and response body.
// Internal failures are logged and reported without detail.
func (s *Server) errorBody(err error) (int, *ErrorBody) {
	var qe *engine.QueryError
	switch {
	case errors.As(err, &qe):
		return http.StatusBadRequest, &ErrorBody{Code: string(qe.Code), Message: qe.Message, Statement: qe.Statement}
	case errors.Is(err, store.ErrUnauthorized):
		return http.StatusForbidden, &ErrorBody{Code: "FORBIDDEN", Message: err.Error()}
	default:
		s.logger.Error("query failed", "error", err)
		return http.StatusInternalServerError, &ErrorBody{Code: "INTERNAL", Message: "internal error"}
	}
}
