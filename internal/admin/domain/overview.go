package domain

import "time"

// BlockedVisit is the overview read model for a blocked visit.
type BlockedVisit struct {
	VisitID    string    `json:"visitId"`
	JobID      string    `json:"jobId"`
	EngineerID string    `json:"userId"`
	Reason     string    `json:"reason"`
	Since      time.Time `json:"since"`
}

// DaysBlocked reports how many whole days the visit has been waiting.
func (b BlockedVisit) DaysBlocked(now time.Time) int {
	days := int(now.Sub(b.Since).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}
