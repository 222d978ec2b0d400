package quantum

import (
	"fmt"
	"math/rand/v2"
)

// DefaultEavesdropProbability is the per-qubit interception probability used
// when Eve is enabled.
const DefaultEavesdropProbability = 0.2

// QBERReport summarizes one BB84 run.
type QBERReport struct {
	SiftedLength int     `json:"sifted_length"`
	Mismatches   int     `json:"mismatches"`
	QBER         float64 `json:"qber"`
}

// Transcript is the full record of one BB84 run. Intercepted is nil when no
// eavesdropper was simulated or the oracle cannot report it.
type Transcript struct {
	KeyLength     int        `json:"key_length"`
	EveEnabled    bool       `json:"eve_enabled"`
	SenderBits    Bits       `json:"sender_bits"`
	SenderBases   Bits       `json:"sender_bases"`
	ReceiverBases Bits       `json:"receiver_bases"`
	Observed      Bits       `json:"observed"`
	Intercepted   Bits       `json:"intercepted,omitempty"`
	Sifted        SiftedKey  `json:"sifted"`
	Report        QBERReport `json:"report"`
}

type BB84Simulator struct {
	oracle               MeasurementOracle
	rng                  *rand.Rand
	eavesdropProbability float64
}

// NewBB84Simulator builds a simulator drawing bits and bases from src and
// measuring through oracle. eavesdropProbability applies only to runs with
// Eve enabled.
func NewBB84Simulator(oracle MeasurementOracle, src rand.Source, eavesdropProbability float64) (*BB84Simulator, error) {
	if oracle == nil {
		return nil, fmt.Errorf("%w: nil measurement oracle", ErrInvalidParameter)
	}
	if !inUnitInterval(eavesdropProbability) {
		return nil, fmt.Errorf("%w: eavesdrop probability %v outside [0,1]", ErrInvalidParameter, eavesdropProbability)
	}
	return &BB84Simulator{
		oracle:               oracle,
		rng:                  rand.New(src),
		eavesdropProbability: eavesdropProbability,
	}, nil
}

// Run executes one BB84 exchange over keyLength qubits and reports the QBER
// of the sifted key.
func (s *BB84Simulator) Run(keyLength int, includeEve bool) (QBERReport, error) {
	t, err := s.RunWithTranscript(keyLength, includeEve)
	if err != nil {
		return QBERReport{}, err
	}
	return t.Report, nil
}

func (s *BB84Simulator) RunWithTranscript(keyLength int, includeEve bool) (*Transcript, error) {
	if keyLength <= 0 {
		return nil, fmt.Errorf("%w: key length must be positive, got %d", ErrInvalidParameter, keyLength)
	}

	senderBits := RandomBits(s.rng, keyLength)
	senderBases := RandomBits(s.rng, keyLength)
	receiverBases := RandomBits(s.rng, keyLength)

	p := 0.0
	if includeEve {
		p = s.eavesdropProbability
	}

	var observed, intercepted Bits
	var err error
	if tracer, ok := s.oracle.(TracingOracle); ok {
		observed, intercepted, err = tracer.MeasureTrace(senderBits, senderBases, receiverBases, p)
	} else {
		observed, err = s.oracle.Measure(senderBits, senderBases, receiverBases, p)
	}
	if err != nil {
		return nil, fmt.Errorf("measurement failed: %w", err)
	}
	if !includeEve {
		intercepted = nil
	}

	sifted, err := Sift(senderBits, senderBases, receiverBases, observed)
	if err != nil {
		return nil, fmt.Errorf("sifting failed: %w", err)
	}

	return &Transcript{
		KeyLength:     keyLength,
		EveEnabled:    includeEve,
		SenderBits:    senderBits,
		SenderBases:   senderBases,
		ReceiverBases: receiverBases,
		Observed:      observed,
		Intercepted:   intercepted,
		Sifted:        sifted,
		Report:        newQBERReport(sifted),
	}, nil
}

// An empty sifted key reports a QBER of 0.
func newQBERReport(key SiftedKey) QBERReport {
	r := QBERReport{SiftedLength: key.Len(), Mismatches: key.Mismatches()}
	if r.SiftedLength > 0 {
		r.QBER = float64(r.Mismatches) / float64(r.SiftedLength)
	}
	return r
}
