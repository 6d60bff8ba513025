package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/kaede/ski-trip-bot-go/internal/constants"
	"github.com/kaede/ski-trip-bot-go/internal/domain"
	"github.com/kaede/ski-trip-bot-go/internal/metric"
	"github.com/kaede/ski-trip-bot-go/internal/service/dateparse"
	"github.com/kaede/ski-trip-bot-go/internal/service/resolver"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// TurnRunner executes one conversation turn against stored session state.
// The bot implements it; tests substitute a stub.
type TurnRunner interface {
	ProcessTurn(ctx context.Context, sessionID, utterance string) (*domain.ConversationContext, *domain.Directive, error)
}

// Server exposes the conversation machine over HTTP for clients that do
// not ride the chat bridge, plus health and metrics endpoints.
type Server struct {
	mux       *chi.Mux
	turns     TurnRunner
	resolver  *resolver.Resolver
	extractor *dateparse.Extractor
	catalog   *domain.Catalog
	logger    *zap.Logger

	httpServer *http.Server
}

func New(turns TurnRunner, res *resolver.Resolver, extractor *dateparse.Extractor, catalog *domain.Catalog, metrics *metric.Metrics, logger *zap.Logger) *Server {
	s := &Server{
		turns:     turns,
		resolver:  res,
		extractor: extractor,
		catalog:   catalog,
		logger:    logger,
	}

	m := chi.NewRouter()
	m.Use(chimw.RealIP)
	m.Use(chimw.RequestID)
	m.Use(chimw.Recoverer)
	m.Use(chimw.Timeout(constants.HTTPConfig.WriteTimeout))

	m.Get("/healthz", s.handleHealth)
	m.Handle("/metrics", promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{}))

	m.Route("/api/v1", func(r chi.Router) {
		r.Post("/turn", s.handleTurn)
		r.Post("/resolve", s.handleResolve)
		r.Post("/dates", s.handleDates)
		r.Get("/resorts", s.handleResorts)
	})

	s.mux = m
	return s
}

func (s *Server) Handler() http.Handler { return s.mux }

// ListenAndServe blocks until the server stops or fails.
func (s *Server) ListenAndServe(addr string) error {
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.mux,
		ReadTimeout:  constants.HTTPConfig.ReadTimeout,
		WriteTimeout: constants.HTTPConfig.WriteTimeout,
	}
	s.logger.Info("HTTP server listening", zap.String("addr", addr))
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

type turnRequest struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
}

type turnResponse struct {
	State     domain.ConversationState `json:"state"`
	Directive *domain.Directive        `json:"directive"`
}

type textRequest struct {
	Text string `json:"text"`
}

type apiError struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleTurn(w http.ResponseWriter, r *http.Request) {
	var req turnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, apiError{Error: "invalid request body"})
		return
	}
	if req.SessionID == "" || req.Message == "" {
		s.writeJSON(w, http.StatusBadRequest, apiError{Error: "sessionId and message are required"})
		return
	}

	conv, directive, err := s.turns.ProcessTurn(r.Context(), req.SessionID, req.Message)
	if err != nil {
		s.logger.Error("Turn failed", zap.String("session", req.SessionID), zap.Error(err))
		s.writeJSON(w, http.StatusInternalServerError, apiError{Error: "turn failed"})
		return
	}

	s.writeJSON(w, http.StatusOK, turnResponse{
		State:     conv.State,
		Directive: directive,
	})
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Text == "" {
		s.writeJSON(w, http.StatusBadRequest, apiError{Error: "text is required"})
		return
	}
	s.writeJSON(w, http.StatusOK, s.resolver.Resolve(req.Text))
}

func (s *Server) handleDates(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Text == "" {
		s.writeJSON(w, http.StatusBadRequest, apiError{Error: "text is required"})
		return
	}
	s.writeJSON(w, http.StatusOK, s.extractor.Extract(req.Text))
}

func (s *Server) handleResorts(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.catalog.Resorts)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to write JSON response", zap.Error(err))
	}
}
