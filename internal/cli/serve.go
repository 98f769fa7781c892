package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/pointecon/internal/api"
	"github.com/roach88/pointecon/internal/config"
	"github.com/roach88/pointecon/internal/engine"
	"github.com/roach88/pointecon/internal/metrics"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr string // overrides POINTECON_HTTP_ADDR
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the ledger over HTTP",
		Long: `Serve the ledger engine over HTTP/JSON.

The database is created if it doesn't exist. Callers identify themselves
with the X-User-ID header; when POINTECON_MEMBERS_FILE is set only listed
members may use an economy. Prometheus metrics are served at /metrics.

Example:
  pointecon serve --db ./family.db --addr :8080
  POINTECON_MEMBERS_FILE=members.yaml pointecon serve --verbose`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (default $POINTECON_HTTP_ADDR)")
	return cmd
}

func runServer(opts *ServeOptions, cmd *cobra.Command) error {
	collector := metrics.NewCollector("pointecon")
	s, err := openSession(cmd, opts.RootOptions, engine.WithObserver(collector))
	if err != nil {
		return err
	}
	defer s.Close()
	slogger := s.log

	members, err := config.LoadMembership(s.cfg.MembersFile)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load membership", err)
	}

	addr := s.cfg.HTTPAddr
	if opts.Addr != "" {
		addr = opts.Addr
	}

	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := api.NewServer(s.engine, members, api.WithLogger(slogger), api.WithMetrics(collector))

	slogger.Info("server starting", "addr", addr, "db", s.cfg.DBPath, "members_file", s.cfg.MembersFile)
	fmt.Fprintf(cmd.OutOrStdout(), "Listening on %s. Press Ctrl-C to stop.\n", addr)

	if err := server.ListenAndServe(ctx, addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return WrapExitError(ExitCommandError, "server error", err)
	}

	slogger.Info("server stopped gracefully")
	return nil
}
