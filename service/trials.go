package service

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"qkd-voting-backend/models"
	"qkd-voting-backend/quantum"
)

// TrialRunner repeats casts to estimate how the decision behaves under a
// given attack setting. Trial casts never reach the history.
type TrialRunner struct {
	engine    *quantum.VoteDecisionEngine
	workers   int
	maxTrials int
}

func NewTrialRunner(engine *quantum.VoteDecisionEngine, workers, maxTrials int) *TrialRunner {
	if workers <= 0 {
		workers = 1
	}
	return &TrialRunner{engine: engine, workers: workers, maxTrials: maxTrials}
}

func (tr *TrialRunner) Run(ctx context.Context, trials int, eveEnabled bool) (*models.TrialSummary, error) {
	if trials <= 0 || (tr.maxTrials > 0 && trials > tr.maxTrials) {
		return nil, fmt.Errorf("%w: trials must be in [1, %d], got %d",
			quantum.ErrInvalidParameter, tr.maxTrials, trials)
	}

	qbers := make([]float64, trials)
	chshs := make([]float64, trials)
	secure := make([]bool, trials)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(tr.workers)
	for i := 0; i < trials; i++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			record, err := tr.engine.Cast("", eveEnabled)
			if err != nil {
				return err
			}
			qbers[i] = record.QBER
			chshs[i] = record.CHSHS
			secure[i] = record.Status == quantum.StatusSecure
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("trial batch failed: %w", err)
	}

	summary := &models.TrialSummary{Trials: trials, EveEnabled: eveEnabled}
	summary.MeanQBER, summary.StdDevQBER = meanStdDev(qbers)
	summary.MeanCHSHS, summary.StdDevCHSHS = meanStdDev(chshs)

	nSecure := 0
	for _, ok := range secure {
		if ok {
			nSecure++
		}
	}
	summary.SecureRate = float64(nSecure) / float64(trials)
	summary.RejectedRate = 1 - summary.SecureRate
	return summary, nil
}

// A single sample has no spread.
func meanStdDev(x []float64) (float64, float64) {
	if len(x) < 2 {
		return stat.Mean(x, nil), 0
	}
	return stat.MeanStdDev(x, nil)
}
