package models

import "time"

// HistoryEntry is the public trace of a cast vote. It never carries the
// voting party.
type HistoryEntry struct {
	Timestamp time.Time `json:"timestamp"`
	VoteID    string    `json:"vote_id"`
	Status    string    `json:"status"`
	QBER      float64   `json:"qber"`
	CHSHS     float64   `json:"chsh_s"`
}

type VoteTally struct {
	Total       int     `json:"total_votes"`
	Secure      int     `json:"secure"`
	Rejected    int     `json:"rejected"`
	SecureRatio float64 `json:"secure_ratio"`
}

// TrialSummary aggregates repeated casts under the same attack setting.
type TrialSummary struct {
	Trials       int     `json:"trials"`
	EveEnabled   bool    `json:"eve_enabled"`
	MeanQBER     float64 `json:"mean_qber"`
	StdDevQBER   float64 `json:"stddev_qber"`
	MeanCHSHS    float64 `json:"mean_chsh_s"`
	StdDevCHSHS  float64 `json:"stddev_chsh_s"`
	SecureRate   float64 `json:"secure_rate"`
	RejectedRate float64 `json:"rejected_rate"`
}
