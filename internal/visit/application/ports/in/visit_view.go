package in

import (
	"time"

	"github.com/phgsc/field-service-management-sub000/internal/visit/domain"
)

// VisitView is the API representation of a visit. Field names follow the
// mobile client contract.
type VisitView struct {
	ID               string             `json:"id"`
	JobID            string             `json:"jobId"`
	UserID           string             `json:"userId"`
	Status           string             `json:"status"`
	StartTime        *time.Time         `json:"startTime,omitempty"`
	EndTime          *time.Time         `json:"endTime,omitempty"`
	JourneyStartTime *time.Time         `json:"journeyStartTime,omitempty"`
	JourneyEndTime   *time.Time         `json:"journeyEndTime,omitempty"`
	ServiceStartTime *time.Time         `json:"serviceStartTime,omitempty"`
	ServiceEndTime   *time.Time         `json:"serviceEndTime,omitempty"`
	TotalJourneyTime *int               `json:"totalJourneyTime,omitempty"`
	TotalServiceTime *int               `json:"totalServiceTime,omitempty"`
	PausedFrom       string             `json:"pausedFrom,omitempty"`
	BlockedSince     *time.Time         `json:"blockedSince,omitempty"`
	BlockReason      string             `json:"blockReason,omitempty"`
	Latitude         string             `json:"latitude,omitempty"`
	Longitude        string             `json:"longitude,omitempty"`
	Collaborators    []CollaboratorView `json:"collaborators,omitempty"`
	CreatedAt        time.Time          `json:"createdAt"`
	UpdatedAt        time.Time          `json:"updatedAt"`
}

// CollaboratorView is one attached engineer in the API representation.
type CollaboratorView struct {
	EngineerID string    `json:"engineerId"`
	Note       string    `json:"note,omitempty"`
	JoinedAt   time.Time `json:"joinedAt"`
}

// NewVisitView maps a domain visit to its API representation.
func NewVisitView(v *domain.Visit) *VisitView {
	view := &VisitView{
		ID:               v.ID,
		JobID:            v.JobID,
		UserID:           v.EngineerID,
		Status:           string(v.Status),
		StartTime:        v.StartedAt,
		EndTime:          v.EndedAt,
		JourneyStartTime: v.Journey.StartedAt,
		JourneyEndTime:   v.Journey.EndedAt,
		ServiceStartTime: v.Service.StartedAt,
		ServiceEndTime:   v.Service.EndedAt,
		TotalJourneyTime: v.Journey.TotalMinutes,
		TotalServiceTime: v.Service.TotalMinutes,
		PausedFrom:       string(v.PausedFrom),
		Latitude:         v.Latitude,
		Longitude:        v.Longitude,
		CreatedAt:        v.CreatedAt,
		UpdatedAt:        v.UpdatedAt,
	}
	if v.Block != nil {
		since := v.Block.Since
		view.BlockedSince = &since
		view.BlockReason = v.Block.Reason
	}
	for _, c := range v.Collaborators {
		view.Collaborators = append(view.Collaborators, CollaboratorView{
			EngineerID: c.EngineerID,
			Note:       c.Note,
			JoinedAt:   c.JoinedAt,
		})
	}
	return view
}
