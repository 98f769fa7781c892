// Package api exposes the ledger engine over HTTP/JSON.
//
// Caller identity comes from the X-User-ID header, set by the identity
// provider in front of this service. Every route under
// /economies/{economy} additionally requires the caller to be a member of
// that economy.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/roach88/pointecon/internal/config"
	"github.com/roach88/pointecon/internal/engine"
	"github.com/roach88/pointecon/internal/metrics"
)

// UserHeader carries the authenticated caller's user id.
const UserHeader = "X-User-ID"

type contextKey struct{}

// Server routes HTTP requests to the engine.
type Server struct {
	eng     *engine.Engine
	members config.Membership
	log     *slog.Logger
	metrics *metrics.Collector
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.log = l }
}

// WithMetrics mounts the collector at /metrics.
func WithMetrics(c *metrics.Collector) Option {
	return func(s *Server) { s.metrics = c }
}

// NewServer creates a Server. A nil members allows every authenticated user.
func NewServer(eng *engine.Engine, members config.Membership, opts ...Option) *Server {
	if members == nil {
		members = config.AllowAll{}
	}
	s := &Server{eng: eng, members: members, log: discardLogger()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(s.logRequests)

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	}

	authed := r.NewRoute().Subrouter()
	authed.Use(s.requireUser)
	authed.HandleFunc("/economies", s.handleListEconomies).Methods(http.MethodGet)
	authed.HandleFunc("/economies", s.handleCreateEconomy).Methods(http.MethodPost)

	econ := authed.PathPrefix("/economies/{economy}").Subrouter()
	econ.Use(s.requireMember)

	econ.HandleFunc("", s.handleGetEconomy).Methods(http.MethodGet)

	econ.HandleFunc("/currencies", s.handleListCurrencies).Methods(http.MethodGet)
	econ.HandleFunc("/currencies", s.handleCreateCurrency).Methods(http.MethodPost)
	econ.HandleFunc("/currencies/{currency}", s.handleGetCurrency).Methods(http.MethodGet)
	econ.HandleFunc("/currencies/{currency}", s.handleUpdateCurrency).Methods(http.MethodPatch)

	econ.HandleFunc("/balances", s.handleBalances).Methods(http.MethodGet)
	econ.HandleFunc("/balances/{currency}", s.handleBalance).Methods(http.MethodGet)
	econ.HandleFunc("/series", s.handleSeries).Methods(http.MethodGet)

	econ.HandleFunc("/activities", s.handleListActivities).Methods(http.MethodGet)
	econ.HandleFunc("/activities", s.handleRecordActivity).Methods(http.MethodPost)

	econ.HandleFunc("/buttons", s.handleListButtons).Methods(http.MethodGet)
	econ.HandleFunc("/buttons", s.handleCreateButton).Methods(http.MethodPost)
	econ.HandleFunc("/buttons/{button}", s.handleUpdateButton).Methods(http.MethodPut)
	econ.HandleFunc("/buttons/{button}", s.handleDeleteButton).Methods(http.MethodDelete)
	econ.HandleFunc("/buttons/{button}/press", s.handlePressButton).Methods(http.MethodPost)

	econ.HandleFunc("/transfers", s.handleListTransfers).Methods(http.MethodGet)
	econ.HandleFunc("/transfers", s.handleCreateTransfer).Methods(http.MethodPost)
	econ.HandleFunc("/transfers/{request}", s.handleGetTransfer).Methods(http.MethodGet)
	econ.HandleFunc("/transfers/{request}/{action:accept|reject|cancel}", s.handleTransferAction).Methods(http.MethodPost)

	econ.HandleFunc("/exchanges", s.handleListExchanges).Methods(http.MethodGet)
	econ.HandleFunc("/exchanges", s.handleCreateExchange).Methods(http.MethodPost)
	econ.HandleFunc("/exchanges/{request}", s.handleGetExchange).Methods(http.MethodGet)
	econ.HandleFunc("/exchanges/{request}/rates", s.handleListRates).Methods(http.MethodGet)
	econ.HandleFunc("/exchanges/{request}/rates", s.handleSubmitRate).Methods(http.MethodPost)
	econ.HandleFunc("/exchanges/{request}/finalize", s.handleFinalizeExchange).Methods(http.MethodPost)
	econ.HandleFunc("/exchanges/{request}/cancel", s.handleCancelExchange).Methods(http.MethodPost)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeFailure(w, http.StatusNotFound, string(engine.CodeNotFound), "no such route")
	})
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// requireUser rejects requests without a caller identity.
func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := r.Header.Get(UserHeader)
		if user == "" {
			writeFailure(w, http.StatusUnauthorized, CodeUnauthenticated, "missing "+UserHeader+" header")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), contextKey{}, user)))
	})
}

// requireMember rejects callers outside the path's economy.
func (s *Server) requireMember(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		economyID := mux.Vars(r)["economy"]
		if !s.members.IsMember(economyID, userFrom(r)) {
			writeFailure(w, http.StatusForbidden, string(engine.CodeForbidden), "not a member of economy "+economyID)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// logRequests logs each request at Debug with its status and latency.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		path := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tmpl, err := route.GetPathTemplate(); err == nil {
				path = tmpl
			}
		}
		s.log.DebugContext(r.Context(), "http request",
			"method", r.Method,
			"path", path,
			"status", wrapped.status,
			"duration", time.Since(start),
		)
	})
}

// statusRecorder wraps http.ResponseWriter to capture the status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func userFrom(r *http.Request) string {
	user, _ := r.Context().Value(contextKey{}).(string)
	return user
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeOK(w, http.StatusOK, map[string]string{"state": "ok"})
}
