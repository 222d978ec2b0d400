package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"qkd-voting-backend/config"
	"qkd-voting-backend/encryption"
	"qkd-voting-backend/models"
	"qkd-voting-backend/quantum"
	"qkd-voting-backend/service"
)

const maxBodyBytes = 1 << 20

type CastVoteRequest struct {
	PartyID    string `json:"party_id"`
	EveEnabled bool   `json:"eve_enabled"`
}

type TrialsRequest struct {
	Trials     int  `json:"trials"`
	EveEnabled bool `json:"eve_enabled"`
}

type BlockInfo struct {
	Index     uint64              `json:"index"`
	Timestamp int64               `json:"timestamp"`
	Hash      string              `json:"hash"`
	PrevHash  string              `json:"prev_hash"`
	Entry     models.HistoryEntry `json:"entry"`
}

type ChainResponse struct {
	Length   int         `json:"length"`
	IsValid  bool        `json:"is_valid"`
	Error    string      `json:"error,omitempty"`
	LastHash string      `json:"last_hash,omitempty"`
	Blocks   []BlockInfo `json:"blocks"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type Server struct {
	votingService *service.VotingService
	gatherer      prometheus.Gatherer
	crypto        *encryption.CryptoService
	cfg           *config.Config
	log           *zap.Logger
	isReady       atomic.Bool
}

func NewServer(votingService *service.VotingService, gatherer prometheus.Gatherer, cfg *config.Config, log *zap.Logger) *Server {
	return &Server{
		votingService: votingService,
		gatherer:      gatherer,
		crypto:        encryption.NewCryptoService(),
		cfg:           cfg,
		log:           log,
	}
}

// Router returns the HTTP handler with all routes and middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.cfg.WriteTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/", s.handleHome)
	r.Get("/readyz", s.handleReady)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Post("/cast-vote", s.handleCastVote)
		r.Get("/simulation", s.handleSimulation)
		r.Get("/history", s.handleGetHistory)
		r.Get("/history/chain", s.handleGetChain)
		r.Get("/results", s.handleGetResults)
		r.Get("/status", s.handleGetStatus)
		r.Post("/end-session", s.handleEndSession)
		r.Post("/trials", s.handleRunTrials)
	})
	return r
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.ListenAddr,
		Handler:      s.Router(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	serverChan := make(chan error, 1)
	go func() {
		s.log.Info("starting server", zap.String("addr", s.cfg.ListenAddr))
		serverChan <- srv.ListenAndServe()
	}()
	s.isReady.Store(true)

	select {
	case err := <-serverChan:
		s.isReady.Store(false)
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	s.isReady.Store(false)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	if err := <-serverChan; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.log.Info("server shutdown completed")
	return nil
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "Backend running"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if !s.isReady.Load() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]bool{"ready": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ready": true})
}

func (s *Server) handleCastVote(w http.ResponseWriter, r *http.Request) {
	var req CastVoteRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	record, err := s.votingService.CastVote(req.PartyID, req.EveEnabled)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, s.votingService.PublicRecord(record))
}

func (s *Server) handleSimulation(w http.ResponseWriter, r *http.Request) {
	eve := false
	if raw := r.URL.Query().Get("eve"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			s.writeError(w, fmt.Errorf("%w: eve must be a boolean", quantum.ErrInvalidParameter))
			return
		}
		eve = parsed
	}

	result, err := s.votingService.Simulate(eve)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.votingService.History())
}

func (s *Server) handleGetChain(w http.ResponseWriter, r *http.Request) {
	blocks, validationErr := s.votingService.Chain()

	response := ChainResponse{
		Length:  len(blocks),
		IsValid: validationErr == nil,
		Blocks:  make([]BlockInfo, len(blocks)),
	}
	if validationErr != nil {
		s.log.Warn("history chain validation failed", zap.Error(validationErr))
		response.Error = validationErr.Error()
	}
	if len(blocks) > 0 {
		response.LastHash = s.crypto.EncodeHash(blocks[len(blocks)-1].Hash)
	}

	for i, block := range blocks {
		response.Blocks[i] = BlockInfo{
			Index:     block.Index,
			Timestamp: block.Timestamp,
			Hash:      s.crypto.EncodeHash(block.Hash),
			PrevHash:  s.crypto.EncodeHash(block.PrevHash),
			Entry:     block.Entry,
		}
	}
	writeJSON(w, http.StatusOK, response)
}

func (s *Server) handleGetResults(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.votingService.Tally())
}

func (s *Server) handleGetStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.votingService.Status())
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	s.votingService.EndVotingSession()
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleRunTrials(w http.ResponseWriter, r *http.Request) {
	var req TrialsRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	summary, err := s.votingService.RunTrials(r.Context(), req.Trials, req.EveEnabled)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body: %w", quantum.ErrInvalidParameter, err)
	}
	return nil
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, quantum.ErrInvalidParameter):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrSessionClosed):
		status = http.StatusConflict
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusServiceUnavailable
	}

	if status == http.StatusInternalServerError {
		s.log.Error("request failed", zap.Error(err))
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
