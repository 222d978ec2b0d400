package service

import (
	"qkd-voting-backend/models"
	"qkd-voting-backend/quantum"
)

// CountVotes tallies history entries by status.
func CountVotes(entries []models.HistoryEntry) models.VoteTally {
	tally := models.VoteTally{Total: len(entries)}
	for _, e := range entries {
		switch quantum.Status(e.Status) {
		case quantum.StatusSecure:
			tally.Secure++
		case quantum.StatusRejected:
			tally.Rejected++
		}
	}
	if tally.Total > 0 {
		tally.SecureRatio = float64(tally.Secure) / float64(tally.Total)
	}
	return tally
}
