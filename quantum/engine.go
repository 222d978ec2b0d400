package quantum

import (
	"errors"
	"fmt"
	"math/rand/v2"
)

type Status string

const (
	StatusSecure   Status = "SECURE"
	StatusRejected Status = "REJECTED"
)

type SecurityCheck struct {
	QBERPass bool `json:"qber_pass"`
	CHSHPass bool `json:"chsh_pass"`
}

// Details merges the BB84 and CHSH reports of one vote.
type Details struct {
	SiftedLength int     `json:"sifted_length"`
	Mismatches   int     `json:"mismatches"`
	QBER         float64 `json:"qber"`
	Concurrence  float64 `json:"concurrence"`
	CHSHS        float64 `json:"chsh_s"`
	NoiseLevel   float64 `json:"noise_level"`
}

// VoteDecisionRecord is the outcome of a single cast. PartyID is for the
// caller's own bookkeeping and must be stripped before the record is shown
// anywhere public.
type VoteDecisionRecord struct {
	VoteID        string        `json:"vote_id"`
	PartyID       string        `json:"party_id,omitempty"`
	Status        Status        `json:"status"`
	QBER          float64       `json:"qber"`
	CHSHS         float64       `json:"chsh_s"`
	SecurityCheck SecurityCheck `json:"security_check"`
	Details       Details       `json:"details"`
}

// Policy holds the tunable thresholds and parameters of the decision.
type Policy struct {
	QBERThreshold        float64 `yaml:"qber_threshold" json:"qber_threshold"`
	CHSHLimit            float64 `yaml:"chsh_limit" json:"chsh_limit"`
	KeyLength            int     `yaml:"key_length" json:"key_length"`
	SecureNoise          float64 `yaml:"secure_noise" json:"secure_noise"`
	AttackNoise          float64 `yaml:"attack_noise" json:"attack_noise"`
	EavesdropProbability float64 `yaml:"eavesdrop_probability" json:"eavesdrop_probability"`
}

func DefaultPolicy() Policy {
	return Policy{
		QBERThreshold:        0.05,
		CHSHLimit:            ClassicalBound,
		KeyLength:            100,
		SecureNoise:          0.01,
		AttackNoise:          0.2,
		EavesdropProbability: DefaultEavesdropProbability,
	}
}

func (p Policy) Validate() error {
	var errs []error
	if p.KeyLength <= 0 {
		errs = append(errs, fmt.Errorf("key length must be positive, got %d", p.KeyLength))
	}
	if !inUnitInterval(p.QBERThreshold) {
		errs = append(errs, fmt.Errorf("qber threshold %v outside [0,1]", p.QBERThreshold))
	}
	if !inUnitInterval(p.SecureNoise) || !inUnitInterval(p.AttackNoise) {
		errs = append(errs, fmt.Errorf("noise levels (%v, %v) outside [0,1]", p.SecureNoise, p.AttackNoise))
	}
	if !inUnitInterval(p.EavesdropProbability) {
		errs = append(errs, fmt.Errorf("eavesdrop probability %v outside [0,1]", p.EavesdropProbability))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidParameter, err)
	}
	return nil
}

// NoiseFor maps the presence of an attack onto the CHSH noise level.
func (p Policy) NoiseFor(eveEnabled bool) float64 {
	if eveEnabled {
		return p.AttackNoise
	}
	return p.SecureNoise
}

// EngineConfig wires the engine's collaborators. Zero fields fall back to a
// crypto-seeded source, a SamplingOracle over that source and a
// DigestIDGenerator.
type EngineConfig struct {
	Policy Policy
	Source rand.Source
	Oracle MeasurementOracle
	IDs    IDGenerator
}

// VoteDecisionEngine runs both protocols for a vote and classifies it. It
// keeps no state between calls.
type VoteDecisionEngine struct {
	bb84   *BB84Simulator
	chsh   *CHSHSimulator
	policy Policy
	ids    IDGenerator
}

func NewVoteDecisionEngine(cfg EngineConfig) (*VoteDecisionEngine, error) {
	if err := cfg.Policy.Validate(); err != nil {
		return nil, err
	}

	src := cfg.Source
	if src == nil {
		src = NewRandomSource()
	}
	oracle := cfg.Oracle
	if oracle == nil {
		oracle = NewSamplingOracle(src)
	}
	ids := cfg.IDs
	if ids == nil {
		ids = NewDigestIDGenerator()
	}

	bb84, err := NewBB84Simulator(oracle, src, cfg.Policy.EavesdropProbability)
	if err != nil {
		return nil, err
	}

	return &VoteDecisionEngine{
		bb84:   bb84,
		chsh:   NewCHSHSimulator(src),
		policy: cfg.Policy,
		ids:    ids,
	}, nil
}

func (e *VoteDecisionEngine) Policy() Policy {
	return e.policy
}

func (e *VoteDecisionEngine) BB84() *BB84Simulator {
	return e.bb84
}

func (e *VoteDecisionEngine) CHSH() *CHSHSimulator {
	return e.chsh
}

// Cast runs BB84 and CHSH for one vote and returns the decision. The record
// is not persisted.
func (e *VoteDecisionEngine) Cast(partyID string, eveEnabled bool) (*VoteDecisionRecord, error) {
	qber, err := e.bb84.Run(e.policy.KeyLength, eveEnabled)
	if err != nil {
		return nil, fmt.Errorf("bb84 simulation failed: %w", err)
	}

	chsh, err := e.chsh.Run(e.policy.NoiseFor(eveEnabled))
	if err != nil {
		return nil, fmt.Errorf("chsh simulation failed: %w", err)
	}

	voteID, err := e.ids.NewVoteID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate vote id: %w", err)
	}

	check := SecurityCheck{
		QBERPass: qber.QBER <= e.policy.QBERThreshold,
		CHSHPass: chsh.CHSHS > e.policy.CHSHLimit,
	}
	status := StatusRejected
	if check.QBERPass && check.CHSHPass {
		status = StatusSecure
	}

	return &VoteDecisionRecord{
		VoteID:        voteID,
		PartyID:       partyID,
		Status:        status,
		QBER:          qber.QBER,
		CHSHS:         chsh.CHSHS,
		SecurityCheck: check,
		Details: Details{
			SiftedLength: qber.SiftedLength,
			Mismatches:   qber.Mismatches,
			QBER:         qber.QBER,
			Concurrence:  chsh.Concurrence,
			CHSHS:        chsh.CHSHS,
			NoiseLevel:   chsh.NoiseLevel,
		},
	}, nil
}

// SimulateBB84 runs BB84 over keyLength qubits.
func (e *VoteDecisionEngine) SimulateBB84(keyLength int, includeEve bool) (QBERReport, error) {
	return e.bb84.Run(keyLength, includeEve)
}

// SimulateCHSH runs the CHSH estimate at noiseLevel.
func (e *VoteDecisionEngine) SimulateCHSH(noiseLevel float64) (CHSHReport, error) {
	return e.chsh.Run(noiseLevel)
}

// CastSecureVote is Cast under the name the transport layer uses.
func (e *VoteDecisionEngine) CastSecureVote(partyID string, eveEnabled bool) (*VoteDecisionRecord, error) {
	return e.Cast(partyID, eveEnabled)
}
