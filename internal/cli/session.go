package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/roach88/pointecon/internal/config"
	"github.com/roach88/pointecon/internal/engine"
	"github.com/roach88/pointecon/internal/store"
)

// session is an open store and engine for one command invocation.
type session struct {
	cfg    config.Config
	log    *slog.Logger
	store  *store.Store
	engine *engine.Engine
	out    *OutputFormatter
}

// loadConfig reads the environment and applies flag overrides.
func loadConfig(opts *RootOptions) (config.Config, error) {
	cfg, err := config.Load(opts.EnvFile)
	if err != nil {
		return config.Config{}, WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	if opts.Database != "" {
		cfg.DBPath = opts.Database
	}
	if opts.LogFormat != "" {
		cfg.LogFormat = opts.LogFormat
	}
	return cfg, nil
}

// newLogger builds the stderr logger. --verbose lowers the level to Debug.
func newLogger(w io.Writer, opts *RootOptions, cfg config.Config) *slog.Logger {
	level, _ := cfg.Level() // validated by config.Load
	if opts.Verbose {
		level = slog.LevelDebug
	}
	handlerOpts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts))
}

func newFormatter(cmd *cobra.Command, opts *RootOptions) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// openSession opens the configured database and builds an engine over it.
// extra options are applied after the configured ones.
func openSession(cmd *cobra.Command, opts *RootOptions, extra ...engine.Option) (*session, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	logger := newLogger(cmd.ErrOrStderr(), opts, cfg)
	loc, _ := cfg.Location() // validated by config.Load

	logger.Debug("opening database", "path", cfg.DBPath)
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	engOpts := []engine.Option{
		engine.WithLogger(logger),
		engine.WithBalanceCacheSize(cfg.BalanceCacheSize),
		engine.WithLocation(loc),
	}
	return &session{
		cfg:    cfg,
		log:    logger,
		store:  st,
		engine: engine.New(st, append(engOpts, extra...)...),
		out:    newFormatter(cmd, opts),
	}, nil
}

func (s *session) Close() {
	if err := s.store.Close(); err != nil {
		s.log.Error("error closing database", "error", err)
	}
}

// run opens a session, calls fn and reports engine errors through the
// formatter.
func run(cmd *cobra.Command, opts *RootOptions, fn func(ctx context.Context, s *session) error) error {
	s, err := openSession(cmd, opts)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := fn(ctx, s); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			return err
		}
		return s.out.Fail(err)
	}
	return nil
}

// requireUser returns the acting user or a command error.
func requireUser(opts *RootOptions) (string, error) {
	if opts.User == "" {
		return "", NewExitError(ExitCommandError, "--user is required")
	}
	return opts.User, nil
}

// requireEconomy returns the selected economy or a command error.
func requireEconomy(opts *RootOptions) (string, error) {
	if opts.Economy == "" {
		return "", NewExitError(ExitCommandError, "--economy is required")
	}
	return opts.Economy, nil
}

// parseDecimal parses a decimal flag value.
func parseDecimal(flag, raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, WrapExitError(ExitCommandError, "invalid --"+flag, err)
	}
	return d, nil
}
