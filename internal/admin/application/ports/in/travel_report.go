package in

import (
	"context"
	"time"
)

// TravelReportInput requests the distance one engineer covered on a day.
// Date is a calendar day in YYYY-MM-DD form; empty means today.
type TravelReportInput struct {
	Actor      Actor
	EngineerID string
	Date       string
}

// TravelReportOutput sums the location ledger over the requested day.
type TravelReportOutput struct {
	UserID      string    `json:"userId"`
	Date        string    `json:"date"`
	DistanceKm  float64   `json:"distanceKm"`
	SampleCount int       `json:"sampleCount"`
	From        time.Time `json:"from"`
	To          time.Time `json:"to"`
}

type TravelReportUseCase interface {
	Execute(ctx context.Context, input TravelReportInput) (*TravelReportOutput, error)
}
