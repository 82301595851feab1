package in

import (
	"time"

	"github.com/phgsc/field-service-management-sub000/internal/location/domain"
)

// Actor is the authenticated caller as supplied by the auth layer.
type Actor struct {
	ID      string `json:"id"`
	IsAdmin bool   `json:"is_admin"`
}

// SampleView is the API representation of a ledger entry.
type SampleView struct {
	ID             string    `json:"id"`
	EngineerID     string    `json:"engineerId"`
	Latitude       float64   `json:"latitude"`
	Longitude      float64   `json:"longitude"`
	AccuracyMeters *float64  `json:"accuracyMeters,omitempty"`
	SpeedKmh       *float64  `json:"speedKmh,omitempty"`
	HeadingDegrees *float64  `json:"headingDegrees,omitempty"`
	RecordedAt     time.Time `json:"recordedAt"`
	ReceivedAt     time.Time `json:"receivedAt"`
}

// NewSampleView maps a domain sample to its API representation.
func NewSampleView(s *domain.Sample) *SampleView {
	return &SampleView{
		ID:             s.ID,
		EngineerID:     s.EngineerID,
		Latitude:       s.Latitude,
		Longitude:      s.Longitude,
		AccuracyMeters: s.AccuracyMeters,
		SpeedKmh:       s.SpeedKmh,
		HeadingDegrees: s.HeadingDegrees,
		RecordedAt:     s.RecordedAt,
		ReceivedAt:     s.ReceivedAt,
	}
}
