package service

import (
	"time"

	"qkd-voting-backend/models"
	"qkd-voting-backend/quantum"
)

// AnonymizationService turns decision records into history entries that can
// be shown publicly.
type AnonymizationService struct{}

func NewAnonymizationService() *AnonymizationService {
	return &AnonymizationService{}
}

// StripIdentity drops the party id and the protocol details, keeping only
// what the public history shows.
func (as *AnonymizationService) StripIdentity(record *quantum.VoteDecisionRecord, at time.Time) models.HistoryEntry {
	return models.HistoryEntry{
		Timestamp: at,
		VoteID:    record.VoteID,
		Status:    string(record.Status),
		QBER:      record.QBER,
		CHSHS:     record.CHSHS,
	}
}

// PublicRecord returns a copy of record without the party id.
func (as *AnonymizationService) PublicRecord(record *quantum.VoteDecisionRecord) quantum.VoteDecisionRecord {
	public := *record
	public.PartyID = ""
	return public
}
