package quantum

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingOracle struct{ err error }

func (o failingOracle) Measure(_, _, _ Bits, _ float64) (Bits, error) {
	return nil, o.err
}

func newTestBB84(t *testing.T, seed uint64, p float64) *BB84Simulator {
	t.Helper()
	src := NewSource(seed)
	sim, err := NewBB84Simulator(NewSamplingOracle(src), src, p)
	require.NoError(t, err)
	return sim
}

func meanQBER(t *testing.T, sim *BB84Simulator, runs, keyLength int, includeEve bool) float64 {
	t.Helper()
	total := 0.0
	for i := 0; i < runs; i++ {
		report, err := sim.Run(keyLength, includeEve)
		require.NoError(t, err)
		total += report.QBER
	}
	return total / float64(runs)
}

func TestBB84RejectsNonPositiveKeyLength(t *testing.T) {
	sim := newTestBB84(t, 1, DefaultEavesdropProbability)
	for _, n := range []int{0, -1, -100} {
		_, err := sim.Run(n, false)
		require.ErrorIs(t, err, ErrInvalidParameter)
	}
}

func TestNewBB84SimulatorValidation(t *testing.T) {
	src := NewSource(1)
	_, err := NewBB84Simulator(nil, src, 0.2)
	require.ErrorIs(t, err, ErrInvalidParameter)

	_, err = NewBB84Simulator(NewSamplingOracle(src), src, 1.2)
	require.ErrorIs(t, err, ErrInvalidParameter)
}

func TestBB84WithoutEveHasNoErrors(t *testing.T) {
	sim := newTestBB84(t, 42, DefaultEavesdropProbability)
	for _, n := range []int{1, 2, 10, 50, 100, 1000} {
		for i := 0; i < 20; i++ {
			report, err := sim.Run(n, false)
			require.NoError(t, err)
			require.Zero(t, report.Mismatches)
			require.Zero(t, report.QBER)
			require.LessOrEqual(t, report.SiftedLength, n)
		}
	}
}

func TestBB84ReportConsistency(t *testing.T) {
	sim := newTestBB84(t, 3, 1)
	for _, eve := range []bool{false, true} {
		for n := 1; n <= 64; n++ {
			report, err := sim.Run(n, eve)
			require.NoError(t, err)
			require.GreaterOrEqual(t, report.QBER, 0.0)
			require.LessOrEqual(t, report.QBER, 1.0)
			require.LessOrEqual(t, report.Mismatches, report.SiftedLength)
			require.LessOrEqual(t, report.SiftedLength, n)
		}
	}
}

func TestBB84KeyLengthFiftyScenario(t *testing.T) {
	sim := newTestBB84(t, 50, DefaultEavesdropProbability)

	total := 0
	runs := 400
	for i := 0; i < runs; i++ {
		report, err := sim.Run(50, false)
		require.NoError(t, err)
		require.Zero(t, report.Mismatches)
		total += report.SiftedLength
	}
	assert.InDelta(t, 25, float64(total)/float64(runs), 1.5)
}

func TestBB84EmptySiftedKeyReportsZero(t *testing.T) {
	sim := newTestBB84(t, 9, 1)

	// A single qubit is discarded whenever the bases differ, half the time.
	found := false
	for i := 0; i < 200 && !found; i++ {
		report, err := sim.Run(1, true)
		require.NoError(t, err)
		if report.SiftedLength == 0 {
			assert.Zero(t, report.Mismatches)
			assert.Zero(t, report.QBER)
			found = true
		}
	}
	require.True(t, found, "expected at least one run with an empty sifted key")
}

func TestBB84EveRaisesQBER(t *testing.T) {
	clean := meanQBER(t, newTestBB84(t, 21, DefaultEavesdropProbability), 2000, 100, false)
	attacked := meanQBER(t, newTestBB84(t, 22, DefaultEavesdropProbability), 2000, 100, true)

	assert.Zero(t, clean)
	assert.InDelta(t, DefaultEavesdropProbability/4, attacked, 0.01)
}

func TestBB84FullInterceptResendQBER(t *testing.T) {
	attacked := meanQBER(t, newTestBB84(t, 23, 1), 1000, 100, true)
	assert.InDelta(t, 0.25, attacked, 0.02)
}

func TestBB84Transcript(t *testing.T) {
	sim := newTestBB84(t, 5, 0.5)

	tr, err := sim.RunWithTranscript(64, true)
	require.NoError(t, err)
	require.Len(t, tr.SenderBits, 64)
	require.Len(t, tr.SenderBases, 64)
	require.Len(t, tr.ReceiverBases, 64)
	require.Len(t, tr.Observed, 64)
	require.Len(t, tr.Intercepted, 64)
	assert.True(t, tr.EveEnabled)
	assert.Equal(t, tr.Sifted.Len(), tr.Report.SiftedLength)
	assert.Equal(t, tr.Sifted.Mismatches(), tr.Report.Mismatches)

	clean, err := sim.RunWithTranscript(16, false)
	require.NoError(t, err)
	assert.Nil(t, clean.Intercepted)
}

func TestBB84PropagatesOracleFailure(t *testing.T) {
	boom := errors.New("simulator unavailable")
	sim, err := NewBB84Simulator(failingOracle{err: boom}, NewSource(1), 0.2)
	require.NoError(t, err)

	_, err = sim.Run(10, true)
	require.ErrorIs(t, err, boom)
}
