package sitegen

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// AdminServer exposes regeneration, status and metrics over HTTP and serves
// the first environment's output.
type AdminServer struct {
	builder *Builder
	token   string
	router  *chi.Mux
	server  *http.Server

	// baseCtx outlives requests; triggered runs use it.
	baseCtx context.Context
}

// NewAdminServer builds the router. metrics may be nil, in which case
// /metrics is not mounted.
func NewAdminServer(b *Builder, metrics http.Handler) *AdminServer {
	conf := b.gen.conf
	s := &AdminServer{
		builder: b,
		token:   conf.Admin.Token,
		router:  chi.NewRouter(),
		baseCtx: context.Background(),
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)

	s.router.Get("/healthz", s.handleHealth)
	s.router.Get("/status", s.handleStatus)
	s.router.With(s.requireToken).Post("/generate", s.handleGenerate)
	if metrics != nil {
		s.router.Method(http.MethodGet, "/metrics", metrics)
	}
	if len(conf.Environments) > 0 {
		root := conf.Environments[0].OutputRoot()
		s.router.Handle("/*", http.FileServer(http.Dir(root)))
	}

	s.server = &http.Server{
		Addr:              conf.Admin.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *AdminServer) Handler() http.Handler { return s.router }

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *AdminServer) ListenAndServe(ctx context.Context) error {
	s.baseCtx = ctx
	errCh := make(chan error, 1)
	go func() {
		s.builder.logger.Info("Admin server listening", "addr", s.server.Addr)
		errCh <- s.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *AdminServer) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.token != "" {
			got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(s.token)) != 1 {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *AdminServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *AdminServer) handleGenerate(w http.ResponseWriter, r *http.Request) {
	started := s.builder.Trigger(s.baseCtx)
	s.builder.logger.Info("Generation requested", "request_id", middleware.GetReqID(r.Context()), "started", started)
	writeJSON(w, http.StatusAccepted, map[string]bool{"started": started})
}

type environmentStatus struct {
	Environment string  `json:"environment"`
	Report      *Report `json:"report,omitempty"`
	Error       string  `json:"error,omitempty"`
}

type statusResponse struct {
	Running      bool                `json:"running"`
	LastRun      *time.Time          `json:"lastRun,omitempty"`
	Environments []environmentStatus `json:"environments"`
}

func (s *AdminServer) handleStatus(w http.ResponseWriter, _ *http.Request) {
	results, at := s.builder.Last()
	resp := statusResponse{
		Running:      s.builder.Running(),
		Environments: make([]environmentStatus, 0, len(results)),
	}
	if !at.IsZero() {
		resp.LastRun = &at
	}
	for _, r := range results {
		st := environmentStatus{Environment: r.Environment, Report: r.Report}
		if r.Err != nil {
			st.Error = r.Err.Error()
		}
		resp.Environments = append(resp.Environments, st)
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
