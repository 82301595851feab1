package in

import (
	"context"
	"time"
)

// RecordSampleInput appends one sample to the caller's ledger. SampleID is
// an optional client-generated id; the offline queue resends it unchanged so
// replays deduplicate. Timestamp is the device clock at capture and defaults
// to the receipt time.
type RecordSampleInput struct {
	Actor          Actor      `json:"-"`
	SampleID       string     `json:"sampleId,omitempty"`
	Latitude       float64    `json:"latitude"`
	Longitude      float64    `json:"longitude"`
	Timestamp      *time.Time `json:"timestamp,omitempty"`
	AccuracyMeters *float64   `json:"accuracyMeters,omitempty"`
	SpeedKmh       *float64   `json:"speedKmh,omitempty"`
	HeadingDegrees *float64   `json:"headingDegrees,omitempty"`
}

type RecordSampleUseCase interface {
	Execute(ctx context.Context, input RecordSampleInput) (*SampleView, error)
}
