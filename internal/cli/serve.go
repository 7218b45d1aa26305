package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/roach88/docsql/internal/server"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the SQL endpoint over HTTP",
		Long: `Serve SQL submissions over HTTP until interrupted.

Endpoints:
  POST /v1/projects/{project}/query   body {"sql": "...", "timezone": "..."}
                                      header X-Actor-ID names the actor
  GET  /healthz
  GET  /metrics                       Prometheus metrics

Examples:
  docsql serve --db ./shop.db
  docsql serve --addr 127.0.0.1:9090`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (default from config server.addr)")
	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	e, err := openEnv(opts.RootOptions, cmd.ErrOrStderr(), withRegistry(reg))
	if err != nil {
		return err
	}
	defer e.close()

	addr := e.cfg.Server.Addr
	if opts.Addr != "" {
		addr = opts.Addr
	}

	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			e.logger.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	srv := server.New(e.engine,
		server.WithLogger(e.logger),
		server.WithGatherer(reg),
		server.WithTimezone(e.cfg.Engine.Timezone),
	)

	e.logger.Info("server starting", "addr", addr, "db", e.cfg.Database.Path)
	fmt.Fprintf(cmd.OutOrStdout(), "Serving on %s\n", addr)
	if err := srv.ListenAndServe(ctx, addr); err != nil {
		return WrapExitError(ExitFailure, "server error", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Server stopped.")
	return nil
}
