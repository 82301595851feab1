package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrSampleNotFound is returned when an engineer has no recorded samples.
	ErrSampleNotFound = errors.New("location sample not found")

	// ErrEngineerNotFound is returned when the sample references a missing user.
	ErrEngineerNotFound = errors.New("engineer not found")
)

// ValidationError reports a malformed sample field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// AuthorizationError reports access to another engineer's ledger.
type AuthorizationError struct {
	Reason string
}

func (e *AuthorizationError) Error() string {
	return "not authorized: " + e.Reason
}

// Sample is one point in an engineer's location ledger. The ledger is
// append-only; samples are never updated.
type Sample struct {
	ID             string    `json:"id" db:"id"`
	EngineerID     string    `json:"engineer_id" db:"engineer_id"`
	Latitude       float64   `json:"latitude" db:"latitude"`
	Longitude      float64   `json:"longitude" db:"longitude"`
	AccuracyMeters *float64  `json:"accuracy_meters,omitempty" db:"accuracy_meters"`
	SpeedKmh       *float64  `json:"speed_kmh,omitempty" db:"speed_kmh"`
	HeadingDegrees *float64  `json:"heading_degrees,omitempty" db:"heading_degrees"`
	RecordedAt     time.Time `json:"recorded_at" db:"recorded_at"`
	ReceivedAt     time.Time `json:"received_at" db:"received_at"`
}

// NewSample validates and builds a ledger entry. recordedAt is the device
// clock; receivedAt is the server clock.
func NewSample(id, engineerID string, lat, lng float64, recordedAt, receivedAt time.Time) (*Sample, error) {
	if engineerID == "" {
		return nil, &ValidationError{Field: "engineerId", Reason: "required"}
	}
	if lat < -90 || lat > 90 {
		return nil, &ValidationError{Field: "latitude", Reason: "must be between -90 and 90"}
	}
	if lng < -180 || lng > 180 {
		return nil, &ValidationError{Field: "longitude", Reason: "must be between -180 and 180"}
	}
	if recordedAt.IsZero() {
		recordedAt = receivedAt
	}

	return &Sample{
		ID:         id,
		EngineerID: engineerID,
		Latitude:   lat,
		Longitude:  lng,
		RecordedAt: recordedAt.UTC(),
		ReceivedAt: receivedAt.UTC(),
	}, nil
}

// NewerThan reports whether this sample was recorded after other. A nil
// other always loses.
func (s *Sample) NewerThan(other *Sample) bool {
	if other == nil {
		return true
	}
	return s.RecordedAt.After(other.RecordedAt)
}
