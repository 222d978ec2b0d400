package quantum

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// MeasurementOracle turns the sender's prepared qubits and the receiver's
// measurement bases into the receiver's observed bits. Implementations may be
// backed by a circuit simulator or, like SamplingOracle, by direct sampling.
type MeasurementOracle interface {
	Measure(senderBits, senderBases, receiverBases Bits, eavesdropProbability float64) (Bits, error)
}

// TracingOracle is implemented by oracles that can also report which
// positions were intercepted.
type TracingOracle interface {
	MeasurementOracle
	MeasureTrace(senderBits, senderBases, receiverBases Bits, eavesdropProbability float64) (observed, intercepted Bits, err error)
}

// SamplingOracle samples intercept-resend statistics directly instead of
// simulating a circuit. It is safe for concurrent use when its source is.
type SamplingOracle struct {
	src rand.Source
	rng *rand.Rand
}

func NewSamplingOracle(src rand.Source) *SamplingOracle {
	return &SamplingOracle{src: src, rng: rand.New(src)}
}

func (o *SamplingOracle) Measure(senderBits, senderBases, receiverBases Bits, eavesdropProbability float64) (Bits, error) {
	observed, _, err := o.MeasureTrace(senderBits, senderBases, receiverBases, eavesdropProbability)
	return observed, err
}

func (o *SamplingOracle) MeasureTrace(senderBits, senderBases, receiverBases Bits, eavesdropProbability float64) (Bits, Bits, error) {
	n := len(senderBits)
	if len(senderBases) != n || len(receiverBases) != n {
		return nil, nil, fmt.Errorf("%w: sequence lengths differ (%d, %d, %d)",
			ErrInvalidParameter, n, len(senderBases), len(receiverBases))
	}
	if !inUnitInterval(eavesdropProbability) {
		return nil, nil, fmt.Errorf("%w: eavesdrop probability %v outside [0,1]",
			ErrInvalidParameter, eavesdropProbability)
	}

	interceptor := distuv.Bernoulli{P: eavesdropProbability, Src: o.src}
	observed := make(Bits, n)
	intercepted := make(Bits, n)

	for i := 0; i < n; i++ {
		bit, basis := senderBits[i], senderBases[i]

		if eavesdropProbability > 0 && interceptor.Rand() == 1 {
			intercepted[i] = 1
			eveBasis := uint8(o.rng.IntN(2))
			bit = o.collapse(bit, basis, eveBasis)
			basis = eveBasis
		}

		observed[i] = o.collapse(bit, basis, receiverBases[i])
	}
	return observed, intercepted, nil
}

// collapse measures a qubit prepared as bit in preparedBasis using
// measureBasis. Matching bases reproduce the bit; otherwise the outcome is
// uniform.
func (o *SamplingOracle) collapse(bit, preparedBasis, measureBasis uint8) uint8 {
	if preparedBasis == measureBasis {
		return bit
	}
	return uint8(o.rng.IntN(2))
}

func inUnitInterval(v float64) bool {
	return v >= 0 && v <= 1
}
