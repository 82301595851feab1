package domain

import (
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// TrackPoint is one ledger position used by the travel report.
type TrackPoint struct {
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	RecordedAt time.Time `json:"recorded_at"`
}

// TotalDistanceKm sums the great-circle legs between consecutive points.
// Points must already be ordered by recorded time.
func TotalDistanceKm(points []TrackPoint) float64 {
	var meters float64
	for i := 1; i < len(points); i++ {
		a := orb.Point{points[i-1].Longitude, points[i-1].Latitude}
		b := orb.Point{points[i].Longitude, points[i].Latitude}
		meters += geo.Distance(a, b)
	}
	return meters / 1000
}
