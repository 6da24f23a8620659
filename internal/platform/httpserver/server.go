package httpserver

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	consensusengine "tribunal/contexts/governance/consensus-engine"
	domainerrors "tribunal/contexts/governance/consensus-engine/domain/errors"
	consensushttp "tribunal/contexts/governance/consensus-engine/transport/http"
	_ "tribunal/internal/platform/httpserver/docs"
	"tribunal/internal/platform/messaging"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	httpSwagger "github.com/swaggo/http-swagger"
)

const maxBodyBytes = 1 << 20

type Options struct {
	Addr           string
	Auth           Authenticator
	Events         *messaging.Bus
	MetricsHandler http.Handler
	SwaggerEnabled bool
}

type Server struct {
	router    chi.Router
	logger    *slog.Logger
	addr      string
	consensus consensusengine.Module
	auth      Authenticator
	events    *messaging.Bus
	http      *http.Server

	// Hijacked websocket connections are invisible to http.Server.Shutdown,
	// so streams derive from streamCtx and are tracked in streams.
	streamCtx   context.Context
	stopStreams context.CancelFunc
	streams     sync.WaitGroup
}

func New(consensus consensusengine.Module, logger *slog.Logger, opts Options) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	addr := opts.Addr
	if addr == "" {
		addr = ":8080"
	}
	s := &Server{
		router:    chi.NewRouter(),
		logger:    logger,
		addr:      addr,
		consensus: consensus,
		auth:      opts.Auth,
		events:    opts.Events,
	}
	s.streamCtx, s.stopStreams = context.WithCancel(context.Background())
	s.registerRoutes(opts)
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting requests, closes open event streams and waits for
// both until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.stopStreams()
	err := s.http.Shutdown(ctx)

	drained := make(chan struct{})
	go func() {
		s.streams.Wait()
		close(drained)
	}()
	select {
	case <-drained:
	case <-ctx.Done():
		if err == nil {
			err = ctx.Err()
		}
	}
	return err
}

func (s *Server) registerRoutes(opts Options) {
	r := s.router
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if opts.MetricsHandler != nil {
		r.Handle("/metrics", opts.MetricsHandler)
	}
	if opts.SwaggerEnabled {
		r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Use(s.authenticate)

		r.Post("/admin/initialize", s.handleInitialize)
		r.Put("/admin/config", s.handleUpdateConfig)
		r.Get("/config", s.handleGetConfig)
		r.Get("/fees", s.handleGetFees)

		r.Post("/roles/{address}", s.handleGrantRole)
		r.Delete("/roles/{address}/{role}", s.handleRevokeRole)

		r.Put("/voters/{address}/profile", s.handleSetVoterProfile)
		r.Get("/voters/{address}/profile", s.handleGetVoterProfile)
		r.Post("/voters/{address}/activity", s.handleRecordActivity)
		r.Get("/voters/{address}/weight", s.handleComputeWeight)
		r.Get("/voters/{address}/ballots", s.handleVoterHistory)

		r.Post("/flags", s.handleFlagReview)
		r.Get("/flags/{subject_id}", s.handleGetFlag)
		r.Post("/proposals", s.handleCreateProposal)
		r.Get("/proposals/{subject_id}", s.handleGetProposal)
		r.Post("/disputes", s.handleOpenDispute)
		r.Get("/disputes/{subject_id}", s.handleGetDispute)

		r.Get("/subjects", s.handleListSubjects)
		r.Get("/subjects/{subject_id}", s.handleGetSubject)
		r.Delete("/subjects/{subject_id}", s.handleResetSubject)
		r.Post("/subjects/{subject_id}/votes", s.handleCastVote)
		r.Get("/subjects/{subject_id}/votes", s.handleListBallots)
		r.Get("/subjects/{subject_id}/votes/{voter}", s.handleGetBallot)
		r.Post("/subjects/{subject_id}/resolve", s.handleTryResolve)
		r.Post("/subjects/{subject_id}/admin-resolve", s.handleAdminResolve)
		r.Get("/subjects/{subject_id}/release", s.handleFundRelease)
		r.Get("/content-status", s.handleContentStatus)

		r.Get("/events/stream", s.handleEventStream)
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		started := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request served",
			"event", "http_request_served",
			"module", "internal/platform/httpserver",
			"layer", "platform",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(started).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func writeConsensusDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domainerrors.ErrSubjectNotFound),
		errors.Is(err, domainerrors.ErrBallotNotFound),
		errors.Is(err, domainerrors.ErrReleaseNotFound):
		writeConsensusError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domainerrors.ErrAlreadyExists):
		writeConsensusError(w, http.StatusConflict, "already_exists", err.Error())
	case errors.Is(err, domainerrors.ErrAlreadyVoted):
		writeConsensusError(w, http.StatusConflict, "already_voted", err.Error())
	case errors.Is(err, domainerrors.ErrAlreadyResolved):
		writeConsensusError(w, http.StatusConflict, "already_resolved", err.Error())
	case errors.Is(err, domainerrors.ErrAlreadyInitialized):
		writeConsensusError(w, http.StatusConflict, "already_initialized", err.Error())
	case errors.Is(err, domainerrors.ErrConflict):
		writeConsensusError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, domainerrors.ErrVotingExpired),
		errors.Is(err, domainerrors.ErrVotingNotEnded):
		writeConsensusError(w, http.StatusUnprocessableEntity, "expired_or_not_yet_active", err.Error())
	case errors.Is(err, domainerrors.ErrUnauthorized):
		writeConsensusError(w, http.StatusUnauthorized, "unauthorized", err.Error())
	case errors.Is(err, domainerrors.ErrInsufficientWeight):
		writeConsensusError(w, http.StatusForbidden, "insufficient_weight", err.Error())
	case errors.Is(err, domainerrors.ErrInvalidInput):
		writeConsensusError(w, http.StatusBadRequest, "invalid_input", err.Error())
	case errors.Is(err, domainerrors.ErrNotInitialized):
		writeConsensusError(w, http.StatusServiceUnavailable, "not_initialized", err.Error())
	default:
		writeConsensusError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeConsensusError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, consensushttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// decodeBody decodes the request body buffered by the authentication
// middleware. An empty body leaves out untouched.
func decodeBody(r *http.Request, out any) error {
	body := requestBody(r)
	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, out)
}

func readBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	defer r.Body.Close()
	return io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
}

func subjectIDParam(r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "subject_id"), 10, 64)
	return id, err == nil && id > 0
}
