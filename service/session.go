package service

import (
	"sync"
	"time"
)

// VotingSession gates vote casting. A zero duration never expires on its
// own; End closes it either way.
type VotingSession struct {
	startTime time.Time
	endTime   time.Time
	isActive  bool
	mu        sync.RWMutex
}

func NewVotingSession(duration time.Duration) *VotingSession {
	now := time.Now()
	session := &VotingSession{
		startTime: now,
		isActive:  true,
	}
	if duration > 0 {
		session.endTime = now.Add(duration)
	}
	return session
}

func (vs *VotingSession) IsActive() bool {
	vs.mu.RLock()
	defer vs.mu.RUnlock()
	if !vs.isActive {
		return false
	}
	return vs.endTime.IsZero() || time.Now().Before(vs.endTime)
}

func (vs *VotingSession) End() {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	vs.isActive = false
	vs.endTime = time.Now()
}

// StartTime and EndTime report the session window. EndTime is zero for an
// open-ended session that has not been ended.
func (vs *VotingSession) StartTime() time.Time {
	vs.mu.RLock()
	defer vs.mu.RUnlock()
	return vs.startTime
}

func (vs *VotingSession) EndTime() time.Time {
	vs.mu.RLock()
	defer vs.mu.RUnlock()
	return vs.endTime
}
