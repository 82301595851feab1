package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/phgsc/field-service-management-sub000/internal/admin/application/ports/in"
	"github.com/phgsc/field-service-management-sub000/internal/admin/application/ports/out"
	"github.com/phgsc/field-service-management-sub000/internal/admin/domain"
	"github.com/phgsc/field-service-management-sub000/internal/shared/logger"
	"github.com/phgsc/field-service-management-sub000/internal/shared/user"
)

const travelDateLayout = "2006-01-02"

// TravelReportService implements TravelReportUseCase.
type TravelReportService struct {
	users  user.Repository
	ledger out.LedgerReader
	log    *logger.Logger
}

// NewTravelReportService creates the travel report use case.
func NewTravelReportService(users user.Repository, ledger out.LedgerReader, log *logger.Logger) *TravelReportService {
	return &TravelReportService{users: users, ledger: ledger, log: log}
}

// Execute sums the great-circle distance over one engineer's ledger samples
// for a calendar day. An empty date means today (UTC).
func (s *TravelReportService) Execute(ctx context.Context, input in.TravelReportInput) (*in.TravelReportOutput, error) {
	if !input.Actor.IsAdmin {
		return nil, &domain.AuthorizationError{Reason: "only admins can read travel reports"}
	}
	if input.EngineerID == "" {
		return nil, &domain.ValidationError{Field: "userId", Reason: "required"}
	}

	date := input.Date
	if date == "" {
		date = time.Now().UTC().Format(travelDateLayout)
	}
	day, err := time.Parse(travelDateLayout, date)
	if err != nil {
		return nil, &domain.ValidationError{Field: "date", Reason: "must be YYYY-MM-DD"}
	}
	from := day
	to := day.Add(24 * time.Hour)

	exists, err := s.users.Exists(ctx, input.EngineerID)
	if err != nil {
		return nil, fmt.Errorf("check engineer: %w", err)
	}
	if !exists {
		return nil, domain.ErrEngineerNotFound
	}

	points, err := s.ledger.ListRange(ctx, input.EngineerID, from, to)
	if err != nil {
		s.log.Error(logger.Entry{
			Action:  "travel_report_failed",
			Message: err.Error(),
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
		return nil, fmt.Errorf("list track points: %w", err)
	}

	return &in.TravelReportOutput{
		UserID:      input.EngineerID,
		Date:        date,
		DistanceKm:  domain.TotalDistanceKm(points),
		SampleCount: len(points),
		From:        from,
		To:          to,
	}, nil
}
