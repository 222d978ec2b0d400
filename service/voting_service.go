package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/atomic"
	"go.uber.org/zap"

	"qkd-voting-backend/models"
	"qkd-voting-backend/quantum"
)

var ErrSessionClosed = errors.New("voting session has ended")

// HistorySink is the append-only log cast votes are recorded in.
type HistorySink interface {
	Append(entry models.HistoryEntry) (*models.HistoryBlock, error)
	Blocks() []*models.HistoryBlock
	Entries() []models.HistoryEntry
	Validate() error
}

type Config struct {
	SimulationKeyLength int
	TrialWorkers        int
	MaxTrials           int
}

// SimulationResult is one standalone BB84 plus CHSH run for the simulation
// view. Nothing is recorded in the history.
type SimulationResult struct {
	Status     string              `json:"status"`
	EveEnabled bool                `json:"eve_enabled"`
	Metrics    SimulationMetrics   `json:"metrics"`
	BB84Data   quantum.QBERReport  `json:"bb84_data"`
	E91Data    quantum.CHSHReport  `json:"e91_data"`
	Transcript *quantum.Transcript `json:"transcript"`
	LogOutput  string              `json:"log_output"`
}

type SimulationMetrics struct {
	QBER  float64 `json:"qber"`
	CHSHS float64 `json:"chsh_s"`
}

type VotingStatus struct {
	VotingActive bool             `json:"voting_active"`
	Tally        models.VoteTally `json:"tally"`
	ChainValid   bool             `json:"chain_valid"`
	CastsServed  uint64           `json:"casts_served"`
}

type VotingService struct {
	engine               *quantum.VoteDecisionEngine
	history              HistorySink
	anonymizationService *AnonymizationService
	votingSession        *VotingSession
	metricsCollector     *MetricsCollector
	trialRunner          *TrialRunner
	config               Config
	casts                atomic.Uint64
	log                  *zap.Logger
}

func NewVotingService(engine *quantum.VoteDecisionEngine, history HistorySink, session *VotingSession,
	metrics *MetricsCollector, config Config, log *zap.Logger) (*VotingService, error) {

	if engine == nil || history == nil || session == nil || metrics == nil {
		return nil, errors.New("voting service requires an engine, history, session and metrics")
	}
	if config.SimulationKeyLength <= 0 {
		return nil, fmt.Errorf("%w: simulation key length must be positive", quantum.ErrInvalidParameter)
	}

	return &VotingService{
		engine:               engine,
		history:              history,
		anonymizationService: NewAnonymizationService(),
		votingSession:        session,
		metricsCollector:     metrics,
		trialRunner:          NewTrialRunner(engine, config.TrialWorkers, config.MaxTrials),
		config:               config,
		log:                  log,
	}, nil
}

// CastVote decides a vote and appends its anonymized entry to the history.
// The returned record still carries the party id.
func (vs *VotingService) CastVote(partyID string, eveEnabled bool) (*quantum.VoteDecisionRecord, error) {
	partyID = strings.TrimSpace(partyID)
	if partyID == "" {
		return nil, fmt.Errorf("%w: party id is required", quantum.ErrInvalidParameter)
	}
	if !vs.votingSession.IsActive() {
		return nil, ErrSessionClosed
	}

	record, err := vs.engine.CastSecureVote(partyID, eveEnabled)
	if err != nil {
		return nil, err
	}

	entry := vs.anonymizationService.StripIdentity(record, models.Now())
	if _, err := vs.history.Append(entry); err != nil {
		return nil, fmt.Errorf("failed to record vote: %w", err)
	}

	vs.casts.Inc()
	vs.metricsCollector.ObserveVote(record, eveEnabled)
	vs.log.Info("quantum vote cast",
		zap.String("vote_id", record.VoteID),
		zap.String("status", string(record.Status)),
		zap.Float64("qber", record.QBER),
		zap.Float64("chsh_s", record.CHSHS),
		zap.Bool("eve", eveEnabled),
	)
	return record, nil
}

// PublicRecord strips the party id from record.
func (vs *VotingService) PublicRecord(record *quantum.VoteDecisionRecord) quantum.VoteDecisionRecord {
	return vs.anonymizationService.PublicRecord(record)
}

func (vs *VotingService) Simulate(eveEnabled bool) (*SimulationResult, error) {
	policy := vs.engine.Policy()

	transcript, err := vs.engine.BB84().RunWithTranscript(vs.config.SimulationKeyLength, eveEnabled)
	if err != nil {
		return nil, fmt.Errorf("bb84 simulation failed: %w", err)
	}
	chsh, err := vs.engine.SimulateCHSH(policy.NoiseFor(eveEnabled))
	if err != nil {
		return nil, fmt.Errorf("chsh simulation failed: %w", err)
	}

	vs.metricsCollector.ObserveSimulation(eveEnabled)

	eve := "OFF"
	if eveEnabled {
		eve = "ON"
	}
	return &SimulationResult{
		Status:     "Simulated",
		EveEnabled: eveEnabled,
		Metrics:    SimulationMetrics{QBER: transcript.Report.QBER, CHSHS: chsh.CHSHS},
		BB84Data:   transcript.Report,
		E91Data:    chsh,
		Transcript: transcript,
		LogOutput: fmt.Sprintf("BB84 QBER: %.2f%%. CHSH S: %.4f. Eve=%s",
			transcript.Report.QBER*100, chsh.CHSHS, eve),
	}, nil
}

func (vs *VotingService) RunTrials(ctx context.Context, trials int, eveEnabled bool) (*models.TrialSummary, error) {
	summary, err := vs.trialRunner.Run(ctx, trials, eveEnabled)
	if err != nil {
		return nil, err
	}
	vs.metricsCollector.ObserveTrials(trials, eveEnabled)
	vs.log.Debug("trial batch finished",
		zap.Int("trials", trials),
		zap.Bool("eve", eveEnabled),
		zap.Float64("mean_qber", summary.MeanQBER),
		zap.Float64("rejected_rate", summary.RejectedRate),
	)
	return summary, nil
}

func (vs *VotingService) History() []models.HistoryEntry {
	return vs.history.Entries()
}

func (vs *VotingService) Chain() ([]*models.HistoryBlock, error) {
	blocks := vs.history.Blocks()
	return blocks, models.ValidateChain(blocks)
}

func (vs *VotingService) Tally() models.VoteTally {
	return CountVotes(vs.history.Entries())
}

func (vs *VotingService) Status() VotingStatus {
	chainValid := true
	if err := vs.history.Validate(); err != nil {
		vs.log.Warn("history chain validation failed", zap.Error(err))
		chainValid = false
	}
	return VotingStatus{
		VotingActive: vs.votingSession.IsActive(),
		Tally:        vs.Tally(),
		ChainValid:   chainValid,
		CastsServed:  vs.casts.Load(),
	}
}

func (vs *VotingService) IsVotingActive() bool {
	return vs.votingSession.IsActive()
}

func (vs *VotingService) EndVotingSession() {
	vs.votingSession.End()
	vs.log.Info("voting session ended", zap.Int("votes", len(vs.history.Entries())))
}
