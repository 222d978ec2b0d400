package api

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"qkd-voting-backend/config"
	"qkd-voting-backend/quantum"
	"qkd-voting-backend/service"
	"qkd-voting-backend/storage"
)

// Build assembles the engine, history store, session and voting service
// described by cfg and returns a server over them.
func Build(cfg *config.Config, log *zap.Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	engine, err := quantum.NewVoteDecisionEngine(quantum.EngineConfig{Policy: cfg.Policy})
	if err != nil {
		return nil, fmt.Errorf("failed to create decision engine: %w", err)
	}

	store, err := storage.NewHistoryStore(cfg.HistoryFile, log.Named("history"))
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}

	metrics, err := service.NewMetricsCollector(registry)
	if err != nil {
		return nil, err
	}

	votingService, err := service.NewVotingService(engine, store, service.NewVotingSession(cfg.SessionDuration), metrics,
		service.Config{
			SimulationKeyLength: cfg.SimulationKeyLength,
			TrialWorkers:        cfg.TrialWorkers,
			MaxTrials:           cfg.MaxTrials,
		}, log.Named("voting"))
	if err != nil {
		return nil, err
	}

	return NewServer(votingService, registry, cfg, log.Named("api")), nil
}

func (s *Server) VotingService() *service.VotingService {
	return s.votingService
}
