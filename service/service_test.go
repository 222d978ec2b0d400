package service

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"qkd-voting-backend/models"
	"qkd-voting-backend/quantum"
	"qkd-voting-backend/storage"
)

type testEnv struct {
	service *VotingService
	metrics *MetricsCollector
	store   *storage.HistoryStore
}

func newTestEnv(t *testing.T, policy quantum.Policy) *testEnv {
	t.Helper()
	log := zaptest.NewLogger(t)

	engine, err := quantum.NewVoteDecisionEngine(quantum.EngineConfig{
		Policy: policy,
		Source: quantum.NewSource(99),
	})
	require.NoError(t, err)

	store, err := storage.NewHistoryStore("", log)
	require.NoError(t, err)

	metrics, err := NewMetricsCollector(prometheus.NewRegistry())
	require.NoError(t, err)

	svc, err := NewVotingService(engine, store, NewVotingSession(time.Hour), metrics, Config{
		SimulationKeyLength: 50,
		TrialWorkers:        4,
		MaxTrials:           5000,
	}, log)
	require.NoError(t, err)

	return &testEnv{service: svc, metrics: metrics, store: store}
}

func TestCastVoteRecordsAnonymizedHistory(t *testing.T) {
	env := newTestEnv(t, quantum.DefaultPolicy())

	record, err := env.service.CastVote("PARTY_A", false)
	require.NoError(t, err)
	assert.Equal(t, "PARTY_A", record.PartyID)
	assert.Equal(t, quantum.StatusSecure, record.Status)

	history := env.service.History()
	require.Len(t, history, 1)
	assert.Equal(t, record.VoteID, history[0].VoteID)
	assert.Equal(t, string(record.Status), history[0].Status)
	assert.Equal(t, record.QBER, history[0].QBER)
	assert.Equal(t, record.CHSHS, history[0].CHSHS)
	assert.False(t, history[0].Timestamp.IsZero())

	public := env.service.PublicRecord(record)
	assert.Empty(t, public.PartyID)
	assert.Equal(t, "PARTY_A", record.PartyID, "original record must not be modified")
}

func TestCastVoteValidatesPartyID(t *testing.T) {
	env := newTestEnv(t, quantum.DefaultPolicy())

	for _, id := range []string{"", "   "} {
		_, err := env.service.CastVote(id, false)
		require.ErrorIs(t, err, quantum.ErrInvalidParameter)
	}
	assert.Empty(t, env.service.History())
}

func TestCastVoteAfterSessionEnds(t *testing.T) {
	env := newTestEnv(t, quantum.DefaultPolicy())

	require.True(t, env.service.IsVotingActive())
	env.service.EndVotingSession()
	require.False(t, env.service.IsVotingActive())

	_, err := env.service.CastVote("PARTY_A", false)
	require.ErrorIs(t, err, ErrSessionClosed)
	assert.Empty(t, env.service.History())
}

func TestTallyAndStatus(t *testing.T) {
	policy := quantum.DefaultPolicy()
	policy.EavesdropProbability = 1
	env := newTestEnv(t, policy)

	for i := 0; i < 10; i++ {
		_, err := env.service.CastVote("PARTY_A", false)
		require.NoError(t, err)
	}
	for i := 0; i < 10; i++ {
		_, err := env.service.CastVote("PARTY_B", true)
		require.NoError(t, err)
	}

	tally := env.service.Tally()
	assert.Equal(t, 20, tally.Total)
	assert.Equal(t, tally.Total, tally.Secure+tally.Rejected)
	assert.GreaterOrEqual(t, tally.Secure, 10)
	assert.Greater(t, tally.Rejected, 5)

	status := env.service.Status()
	assert.True(t, status.VotingActive)
	assert.True(t, status.ChainValid)
	assert.Equal(t, uint64(20), status.CastsServed)
	assert.Equal(t, tally, status.Tally)

	blocks, err := env.service.Chain()
	require.NoError(t, err)
	assert.Len(t, blocks, 20)

	assert.Equal(t, 10.0, testutil.ToFloat64(env.metrics.votes.WithLabelValues("SECURE", "false")))
	assert.Equal(t, uint64(20), histogramCount(t, env.metrics.qber))
}

func TestSimulate(t *testing.T) {
	env := newTestEnv(t, quantum.DefaultPolicy())

	result, err := env.service.Simulate(false)
	require.NoError(t, err)
	assert.Equal(t, "Simulated", result.Status)
	assert.False(t, result.EveEnabled)
	assert.Equal(t, 50, result.Transcript.KeyLength)
	assert.Zero(t, result.BB84Data.Mismatches)
	assert.Equal(t, result.BB84Data.QBER, result.Metrics.QBER)
	assert.Equal(t, result.E91Data.CHSHS, result.Metrics.CHSHS)
	assert.Equal(t, 0.01, result.E91Data.NoiseLevel)
	assert.Contains(t, result.LogOutput, "Eve=OFF")
	assert.Empty(t, env.service.History(), "simulations are not votes")

	result, err = env.service.Simulate(true)
	require.NoError(t, err)
	assert.Equal(t, 0.2, result.E91Data.NoiseLevel)
	assert.Contains(t, result.LogOutput, "Eve=ON")
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.simulations.WithLabelValues("true")))
}

func TestRunTrials(t *testing.T) {
	env := newTestEnv(t, quantum.DefaultPolicy())
	ctx := context.Background()

	clean, err := env.service.RunTrials(ctx, 500, false)
	require.NoError(t, err)
	assert.Equal(t, 500, clean.Trials)
	assert.Zero(t, clean.MeanQBER)
	assert.Zero(t, clean.StdDevQBER)
	assert.Equal(t, 1.0, clean.SecureRate)
	assert.InDelta(t, quantum.TsirelsonBound*0.99, clean.MeanCHSHS, 1e-9)

	attacked, err := env.service.RunTrials(ctx, 2000, true)
	require.NoError(t, err)
	assert.InDelta(t, 0.05, attacked.MeanQBER, 0.01)
	assert.Greater(t, attacked.StdDevQBER, 0.0)
	assert.InDelta(t, 1.0, attacked.SecureRate+attacked.RejectedRate, 1e-12)
	assert.Greater(t, attacked.RejectedRate, clean.RejectedRate)

	assert.Empty(t, env.service.History(), "trial casts are not recorded")
	assert.Equal(t, 2000.0, testutil.ToFloat64(env.metrics.trials.WithLabelValues("true")))
}

func TestRunTrialsValidation(t *testing.T) {
	env := newTestEnv(t, quantum.DefaultPolicy())
	ctx := context.Background()

	for _, n := range []int{0, -3, 5001} {
		_, err := env.service.RunTrials(ctx, n, false)
		require.ErrorIs(t, err, quantum.ErrInvalidParameter)
	}

	single, err := env.service.RunTrials(ctx, 1, false)
	require.NoError(t, err)
	assert.Zero(t, single.StdDevQBER)
}

func TestRunTrialsCancelled(t *testing.T) {
	env := newTestEnv(t, quantum.DefaultPolicy())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := env.service.RunTrials(ctx, 100, false)
	require.ErrorIs(t, err, context.Canceled)
}

func TestCountVotes(t *testing.T) {
	assert.Equal(t, models.VoteTally{}, CountVotes(nil))

	tally := CountVotes([]models.HistoryEntry{
		{VoteID: "a", Status: "SECURE"},
		{VoteID: "b", Status: "REJECTED"},
		{VoteID: "c", Status: "SECURE"},
		{VoteID: "d", Status: "SECURE"},
	})
	assert.Equal(t, models.VoteTally{Total: 4, Secure: 3, Rejected: 1, SecureRatio: 0.75}, tally)
}

func TestVotingSession(t *testing.T) {
	open := NewVotingSession(0)
	assert.True(t, open.IsActive())
	assert.True(t, open.EndTime().IsZero())
	open.End()
	assert.False(t, open.IsActive())
	assert.False(t, open.EndTime().IsZero())

	expired := NewVotingSession(time.Nanosecond)
	time.Sleep(time.Millisecond)
	assert.False(t, expired.IsActive())
	assert.False(t, expired.StartTime().IsZero())
}

func TestMetricsCollectorRejectsDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewMetricsCollector(reg)
	require.NoError(t, err)
	_, err = NewMetricsCollector(reg)
	require.Error(t, err)
}

func histogramCount(t *testing.T, h prometheus.Histogram) uint64 {
	t.Helper()
	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(h))
	families, err := reg.Gather()
	require.NoError(t, err)
	require.Len(t, families, 1)
	return families[0].GetMetric()[0].GetHistogram().GetSampleCount()
}
