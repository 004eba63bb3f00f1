package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/yoke233/sleuth/internal/bootstrap/logging"
	"github.com/yoke233/sleuth/internal/domain/investigation"
	"github.com/yoke233/sleuth/internal/errs"
	"github.com/yoke233/sleuth/internal/usecase/investigate"
)

// Server exposes trigger and status over HTTP for webhook-style callers.
// It is a thin shell: validation and queue semantics live in the service.
type Server struct {
	service    *investigate.Service
	router     chi.Router
	httpServer *http.Server
}

func NewServer(ctx context.Context, service *investigate.Service) *Server {
	s := &Server{
		service: service,
		router:  chi.NewRouter(),
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Post("/api/triggers", s.handleTrigger(ctx))
	s.router.Get("/api/status", s.handleStatus(ctx))
	s.router.Get("/healthz", s.handleHealth)

	return s
}

// Start blocks serving on addr until Shutdown or a listener error.
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errs.Wrapf(err, "serve http on %s", addr)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// Handler returns the router for tests and custom servers.
func (s *Server) Handler() http.Handler {
	return s.router
}

type triggerRequest struct {
	Repository  string `json:"repository"`
	IssueNumber int    `json:"issue_number"`
}

type triggerResponse struct {
	Queued        bool `json:"queued"`
	Reconciled    int  `json:"reconciled"`
	QueueDepth    int  `json:"queue_depth"`
	WorkerAlive   bool `json:"worker_alive"`
	WorkerStarted bool `json:"worker_started"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleTrigger(baseCtx context.Context) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := logging.WithAttrs(baseCtx, slog.String("component", "httpapi"))

		var req triggerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(ctx, w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
			return
		}

		result, err := s.service.Trigger(r.Context(), investigate.TriggerInput{
			Repository:  req.Repository,
			IssueNumber: req.IssueNumber,
		})
		if errors.Is(err, investigation.ErrInvalidRepository) || errors.Is(err, investigation.ErrInvalidIssueNumber) {
			writeJSON(ctx, w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		if err != nil {
			logging.Error(ctx, "trigger failed", slog.Any("err", errs.Loggable(err)))
			writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Error: "trigger failed"})
			return
		}

		// Accepted, not completed: the investigation itself runs in the
		// background worker.
		writeJSON(ctx, w, http.StatusAccepted, triggerResponse{
			Queued:        result.Inserted,
			Reconciled:    result.Reconciled,
			QueueDepth:    result.QueueDepth,
			WorkerAlive:   result.WorkerAlive,
			WorkerStarted: result.WorkerStarted,
		})
	}
}

func (s *Server) handleStatus(baseCtx context.Context) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := logging.WithAttrs(baseCtx, slog.String("component", "httpapi"))

		snapshot, err := s.service.Status(r.Context())
		if err != nil {
			logging.Error(ctx, "status failed", slog.Any("err", errs.Loggable(err)))
			writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Error: "status failed"})
			return
		}
		writeJSON(ctx, w, http.StatusOK, snapshot)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Warn(ctx, "write response failed", slog.Any("err", errs.Loggable(err)))
	}
}
