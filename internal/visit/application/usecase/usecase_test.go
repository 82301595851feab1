package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/phgsc/field-service-management-sub000/internal/shared/logger"
	"github.com/phgsc/field-service-management-sub000/internal/shared/utils"
	"github.com/phgsc/field-service-management-sub000/internal/visit/application/ports/in"
	"github.com/phgsc/field-service-management-sub000/internal/visit/application/ports/out"
	"github.com/phgsc/field-service-management-sub000/internal/visit/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeVisitRepo is an in-memory VisitRepository mirroring the persistence
// semantics the use cases depend on: conditional updates, request id
// uniqueness and the one-active-visit rule.
type fakeVisitRepo struct {
	visits       map[string]*domain.Visit
	byRequest    map[string]string
	transitions  []*domain.Transition
	beforeUpdate func(r *fakeVisitRepo) error
}

func newFakeVisitRepo() *fakeVisitRepo {
	return &fakeVisitRepo{
		visits:    make(map[string]*domain.Visit),
		byRequest: make(map[string]string),
	}
}

func cloneVisit(v *domain.Visit) *domain.Visit {
	c := *v
	c.Collaborators = append([]domain.Collaborator(nil), v.Collaborators...)
	if v.Block != nil {
		b := *v.Block
		c.Block = &b
	}
	return &c
}

func (r *fakeVisitRepo) record(tr *domain.Transition) error {
	if tr.RequestID != "" {
		if _, dup := r.byRequest[tr.RequestID]; dup {
			return out.ErrDuplicateRequest
		}
		r.byRequest[tr.RequestID] = tr.VisitID
	}
	r.transitions = append(r.transitions, tr)
	return nil
}

func (r *fakeVisitRepo) Create(ctx context.Context, visit *domain.Visit, tr *domain.Transition) error {
	busy, _ := r.HasActiveVisit(ctx, visit.EngineerID, "")
	if busy {
		return &domain.ConflictError{Reason: "engineer already has an active visit"}
	}
	if err := r.record(tr); err != nil {
		return err
	}
	r.visits[visit.ID] = cloneVisit(visit)
	return nil
}

func (r *fakeVisitRepo) FindByID(ctx context.Context, visitID string) (*domain.Visit, error) {
	v, ok := r.visits[visitID]
	if !ok {
		return nil, domain.ErrVisitNotFound
	}
	return cloneVisit(v), nil
}

func (r *fakeVisitRepo) FindByRequestID(ctx context.Context, requestID string) (*domain.Visit, error) {
	id, ok := r.byRequest[requestID]
	if !ok {
		return nil, domain.ErrVisitNotFound
	}
	return r.FindByID(ctx, id)
}

func (r *fakeVisitRepo) UpdateStatus(ctx context.Context, visit *domain.Visit, from domain.Status, tr *domain.Transition) error {
	if r.beforeUpdate != nil {
		if err := r.beforeUpdate(r); err != nil {
			return err
		}
	}
	stored, ok := r.visits[visit.ID]
	if !ok {
		return domain.ErrVisitNotFound
	}
	if visit.Status.Active() {
		busy, _ := r.HasActiveVisit(ctx, visit.EngineerID, visit.ID)
		if busy {
			return &domain.ConflictError{Reason: "engineer already has an active visit"}
		}
	}
	if stored.Status != from {
		return out.ErrStaleStatus
	}
	if err := r.record(tr); err != nil {
		return err
	}
	r.visits[visit.ID] = cloneVisit(visit)
	return nil
}

func (r *fakeVisitRepo) UpdateEngineer(ctx context.Context, visit *domain.Visit, tr *domain.Transition) error {
	if _, ok := r.visits[visit.ID]; !ok {
		return domain.ErrVisitNotFound
	}
	if visit.Status.Active() {
		busy, _ := r.HasActiveVisit(ctx, visit.EngineerID, visit.ID)
		if busy {
			return &domain.ConflictError{Reason: "engineer already has an active visit"}
		}
	}
	if err := r.record(tr); err != nil {
		return err
	}
	r.visits[visit.ID] = cloneVisit(visit)
	return nil
}

func (r *fakeVisitRepo) AddCollaborator(ctx context.Context, visitID string, c domain.Collaborator, tr *domain.Transition) error {
	stored, ok := r.visits[visitID]
	if !ok {
		return domain.ErrVisitNotFound
	}
	for _, existing := range stored.Collaborators {
		if existing.EngineerID == c.EngineerID {
			return &domain.ConflictError{Reason: "engineer already collaborates on this visit"}
		}
	}
	if err := r.record(tr); err != nil {
		return err
	}
	stored.Collaborators = append(stored.Collaborators, c)
	return nil
}

func (r *fakeVisitRepo) HasActiveVisit(ctx context.Context, engineerID, excludeVisitID string) (bool, error) {
	for _, v := range r.visits {
		if v.ID == excludeVisitID || !v.Status.Active() {
			continue
		}
		if v.CanBeActedOnBy(engineerID) {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeVisitRepo) ListForEngineer(ctx context.Context, engineerID string) ([]*domain.Visit, error) {
	var result []*domain.Visit
	for _, v := range r.visits {
		if v.CanBeActedOnBy(engineerID) {
			result = append(result, cloneVisit(v))
		}
	}
	return result, nil
}

func (r *fakeVisitRepo) ListAll(ctx context.Context, engineerID string) ([]*domain.Visit, error) {
	var result []*domain.Visit
	for _, v := range r.visits {
		if engineerID == "" || v.EngineerID == engineerID {
			result = append(result, cloneVisit(v))
		}
	}
	return result, nil
}

type fakePublisher struct {
	events []*domain.VisitEvent
	err    error
}

func (p *fakePublisher) PublishVisitEvent(ctx context.Context, event *domain.VisitEvent) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

type fakeNotifier struct {
	notified  []string
	broadcast int
}

func (n *fakeNotifier) NotifyEngineer(ctx context.Context, engineerID string, _ out.VisitNotification) error {
	n.notified = append(n.notified, engineerID)
	return nil
}

func (n *fakeNotifier) BroadcastVisitUpdate(ctx context.Context, _ out.VisitNotification) error {
	n.broadcast++
	return nil
}

type fixture struct {
	repo      *fakeVisitRepo
	publisher *fakePublisher
	notifier  *fakeNotifier
	log       *logger.Logger
}

func newFixture() *fixture {
	return &fixture{
		repo:      newFakeVisitRepo(),
		publisher: &fakePublisher{},
		notifier:  &fakeNotifier{},
		log:       logger.NewLogger("visit_service_test"),
	}
}

func (f *fixture) seedVisit(t *testing.T, engineerID string, status domain.Status) *domain.Visit {
	t.Helper()
	start := time.Now().UTC().Add(-time.Hour)
	v, err := domain.NewVisit(utils.NewUUID(), "J-100", engineerID, "51.5", "-0.12", start)
	require.NoError(t, err)
	switch status {
	case domain.StatusOnRoute:
	case domain.StatusInService:
		require.NoError(t, v.StartService(start.Add(20*time.Minute), nil))
	case domain.StatusCompleted:
		require.NoError(t, v.StartService(start.Add(20*time.Minute), nil))
		require.NoError(t, v.Complete(start.Add(50*time.Minute), nil))
	case domain.StatusPausedNextDay:
		require.NoError(t, v.StartService(start.Add(20*time.Minute), nil))
		require.NoError(t, v.Pause(domain.PauseNextDay, "", start.Add(40*time.Minute), nil))
	case domain.StatusBlocked:
		require.NoError(t, v.StartService(start.Add(20*time.Minute), nil))
		require.NoError(t, v.Pause(domain.PauseBlocked, "Gate locked", start.Add(40*time.Minute), nil))
	default:
		t.Fatalf("unsupported seed status %s", status)
	}
	f.repo.visits[v.ID] = cloneVisit(v)
	return v
}

var engineer = in.Actor{ID: "eng-1"}

func TestStartJourneyCreatesVisit(t *testing.T) {
	f := newFixture()
	svc := NewStartJourneyService(f.repo, f.publisher, f.notifier, f.log)

	view, err := svc.Execute(context.Background(), in.StartJourneyInput{
		Actor:    engineer,
		JobID:    "J-1",
		Latitude: "51.5007", Longitude: "-0.1246",
	})

	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusOnRoute), view.Status)
	assert.Equal(t, "eng-1", view.UserID)
	assert.NotNil(t, view.JourneyStartTime)

	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, domain.EventVisitStarted, f.publisher.events[0].EventType)
	assert.Contains(t, f.notifier.notified, "eng-1")
	require.Len(t, f.repo.transitions, 1)
	assert.Equal(t, domain.ActionStartJourney, f.repo.transitions[0].Action)
}

func TestStartJourneyRejectsSecondActiveVisit(t *testing.T) {
	f := newFixture()
	f.seedVisit(t, "eng-1", domain.StatusOnRoute)
	svc := NewStartJourneyService(f.repo, f.publisher, f.notifier, f.log)

	_, err := svc.Execute(context.Background(), in.StartJourneyInput{Actor: engineer, JobID: "J-2"})

	var cErr *domain.ConflictError
	require.ErrorAs(t, err, &cErr)
	assert.Empty(t, f.publisher.events)
}

func TestStartJourneyReplaysRequestID(t *testing.T) {
	f := newFixture()
	svc := NewStartJourneyService(f.repo, f.publisher, f.notifier, f.log)

	input := in.StartJourneyInput{Actor: engineer, JobID: "J-1", RequestID: "req-1"}
	first, err := svc.Execute(context.Background(), input)
	require.NoError(t, err)

	second, err := svc.Execute(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, f.repo.transitions, 1)
	assert.Len(t, f.publisher.events, 1)
}

func TestStartServiceHappyPath(t *testing.T) {
	f := newFixture()
	v := f.seedVisit(t, "eng-1", domain.StatusOnRoute)
	svc := NewStartServiceService(f.repo, f.publisher, f.notifier, f.log)

	view, err := svc.Execute(context.Background(), in.StartServiceInput{Actor: engineer, VisitID: v.ID})

	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusInService), view.Status)
	assert.NotNil(t, view.JourneyEndTime)
	assert.NotNil(t, view.TotalJourneyTime)
	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, domain.EventServiceStarted, f.publisher.events[0].EventType)
}

func TestStartServiceRejectsForeignActor(t *testing.T) {
	f := newFixture()
	v := f.seedVisit(t, "eng-1", domain.StatusOnRoute)
	svc := NewStartServiceService(f.repo, f.publisher, f.notifier, f.log)

	_, err := svc.Execute(context.Background(), in.StartServiceInput{
		Actor:   in.Actor{ID: "eng-9"},
		VisitID: v.ID,
	})

	var aErr *domain.AuthorizationError
	require.ErrorAs(t, err, &aErr)
}

func TestStartServiceIdempotentWhenAlreadyInService(t *testing.T) {
	f := newFixture()
	v := f.seedVisit(t, "eng-1", domain.StatusInService)
	svc := NewStartServiceService(f.repo, f.publisher, f.notifier, f.log)

	view, err := svc.Execute(context.Background(), in.StartServiceInput{Actor: engineer, VisitID: v.ID})

	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusInService), view.Status)
	assert.Empty(t, f.publisher.events)
	assert.Empty(t, f.repo.transitions)
}

func TestCompleteIdempotentReplay(t *testing.T) {
	f := newFixture()
	v := f.seedVisit(t, "eng-1", domain.StatusInService)
	svc := NewCompleteVisitService(f.repo, f.publisher, f.notifier, f.log)

	first, err := svc.Execute(context.Background(), in.CompleteVisitInput{Actor: engineer, VisitID: v.ID})
	require.NoError(t, err)
	require.NotNil(t, first.TotalServiceTime)

	second, err := svc.Execute(context.Background(), in.CompleteVisitInput{Actor: engineer, VisitID: v.ID})
	require.NoError(t, err)

	assert.Equal(t, string(domain.StatusCompleted), second.Status)
	assert.Equal(t, *first.TotalServiceTime, *second.TotalServiceTime)
	assert.Equal(t, first.EndTime.Unix(), second.EndTime.Unix())
	assert.Len(t, f.repo.transitions, 1)
}

func TestCompleteResolvesLostConditionalUpdate(t *testing.T) {
	f := newFixture()
	v := f.seedVisit(t, "eng-1", domain.StatusInService)
	svc := NewCompleteVisitService(f.repo, f.publisher, f.notifier, f.log)

	// a concurrent complete wins between our read and our write
	f.repo.beforeUpdate = func(r *fakeVisitRepo) error {
		stored := r.visits[v.ID]
		if stored.Status == domain.StatusInService {
			require.NoError(t, stored.Complete(time.Now().UTC(), nil))
			return out.ErrStaleStatus
		}
		return nil
	}

	view, err := svc.Execute(context.Background(), in.CompleteVisitInput{Actor: engineer, VisitID: v.ID})

	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusCompleted), view.Status)
}

func TestCompleteFromWrongStatus(t *testing.T) {
	f := newFixture()
	v := f.seedVisit(t, "eng-1", domain.StatusOnRoute)
	svc := NewCompleteVisitService(f.repo, f.publisher, f.notifier, f.log)

	_, err := svc.Execute(context.Background(), in.CompleteVisitInput{Actor: engineer, VisitID: v.ID})

	var trErr *domain.InvalidTransitionError
	require.ErrorAs(t, err, &trErr)
	assert.Equal(t, domain.StatusOnRoute, trErr.From)
}

func TestPauseBlockedRequiresBlockReason(t *testing.T) {
	f := newFixture()
	v := f.seedVisit(t, "eng-1", domain.StatusInService)
	svc := NewPauseVisitService(f.repo, f.publisher, f.notifier, f.log)

	_, err := svc.Execute(context.Background(), in.PauseVisitInput{
		Actor:   engineer,
		VisitID: v.ID,
		Reason:  "blocked",
	})

	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "blockReason", vErr.Field)
}

func TestPauseBlockedPublishesBlockedEvent(t *testing.T) {
	f := newFixture()
	v := f.seedVisit(t, "eng-1", domain.StatusInService)
	svc := NewPauseVisitService(f.repo, f.publisher, f.notifier, f.log)

	view, err := svc.Execute(context.Background(), in.PauseVisitInput{
		Actor:       engineer,
		VisitID:     v.ID,
		Reason:      "blocked",
		BlockReason: "Gate locked",
	})

	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusBlocked), view.Status)
	assert.NotNil(t, view.BlockedSince)
	assert.Equal(t, "Gate locked", view.BlockReason)
	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, domain.EventVisitBlocked, f.publisher.events[0].EventType)
}

func TestResumeReassignRequiresAdmin(t *testing.T) {
	f := newFixture()
	v := f.seedVisit(t, "eng-1", domain.StatusPausedNextDay)
	svc := NewResumeVisitService(f.repo, f.publisher, f.notifier, f.log)

	_, err := svc.Execute(context.Background(), in.ResumeVisitInput{
		Actor:         engineer,
		VisitID:       v.ID,
		ResumeType:    "service",
		NewEngineerID: "eng-2",
	})

	var aErr *domain.AuthorizationError
	require.ErrorAs(t, err, &aErr)
}

func TestResumeWithAdminReassignment(t *testing.T) {
	f := newFixture()
	v := f.seedVisit(t, "eng-1", domain.StatusPausedNextDay)
	svc := NewResumeVisitService(f.repo, f.publisher, f.notifier, f.log)

	view, err := svc.Execute(context.Background(), in.ResumeVisitInput{
		Actor:         in.Actor{ID: "admin-1", IsAdmin: true},
		VisitID:       v.ID,
		ResumeType:    "service",
		NewEngineerID: "eng-2",
	})

	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusInService), view.Status)
	assert.Equal(t, "eng-2", view.UserID)
	require.Len(t, f.repo.transitions, 1)
	assert.Equal(t, "eng-2", f.repo.transitions[0].NewEngineerID)
}

func TestResumeRejectsEngineerActiveElsewhere(t *testing.T) {
	f := newFixture()
	own := f.seedVisit(t, "eng-1", domain.StatusPausedNextDay)
	other := f.seedVisit(t, "eng-2", domain.StatusInService)

	// pausing freed eng-1, so they may legally join a colleague's visit
	joinSvc := NewJoinVisitService(f.repo, f.publisher, f.notifier, f.log)
	_, err := joinSvc.Execute(context.Background(), in.JoinVisitInput{Actor: engineer, VisitID: other.ID})
	require.NoError(t, err)

	svc := NewResumeVisitService(f.repo, f.publisher, f.notifier, f.log)
	_, err = svc.Execute(context.Background(), in.ResumeVisitInput{
		Actor:      engineer,
		VisitID:    own.ID,
		ResumeType: "service",
	})

	var cErr *domain.ConflictError
	require.ErrorAs(t, err, &cErr)

	stored, err := f.repo.FindByID(context.Background(), own.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPausedNextDay, stored.Status)
}

func TestResumeLosesRaceToConcurrentJoin(t *testing.T) {
	f := newFixture()
	own := f.seedVisit(t, "eng-1", domain.StatusPausedNextDay)
	other := f.seedVisit(t, "eng-2", domain.StatusInService)
	// eng-1 lands on the other visit between the busy check and the write
	f.repo.beforeUpdate = func(r *fakeVisitRepo) error {
		r.visits[other.ID].Collaborators = append(r.visits[other.ID].Collaborators, domain.Collaborator{
			EngineerID: "eng-1",
			JoinedAt:   time.Now().UTC(),
		})
		return nil
	}
	svc := NewResumeVisitService(f.repo, f.publisher, f.notifier, f.log)

	_, err := svc.Execute(context.Background(), in.ResumeVisitInput{
		Actor:      engineer,
		VisitID:    own.ID,
		ResumeType: "service",
	})

	var cErr *domain.ConflictError
	require.ErrorAs(t, err, &cErr)
}

func TestUnblockRestoresInterruptedPhase(t *testing.T) {
	f := newFixture()
	v := f.seedVisit(t, "eng-1", domain.StatusBlocked)
	svc := NewUnblockVisitService(f.repo, f.publisher, f.notifier, f.log)

	view, err := svc.Execute(context.Background(), in.UnblockVisitInput{Actor: engineer, VisitID: v.ID})

	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusInService), view.Status)
	assert.Nil(t, view.BlockedSince)
	assert.Empty(t, view.BlockReason)
}

func TestUnblockReplayIsNoOp(t *testing.T) {
	f := newFixture()
	v := f.seedVisit(t, "eng-1", domain.StatusBlocked)
	svc := NewUnblockVisitService(f.repo, f.publisher, f.notifier, f.log)

	_, err := svc.Execute(context.Background(), in.UnblockVisitInput{Actor: engineer, VisitID: v.ID})
	require.NoError(t, err)

	view, err := svc.Execute(context.Background(), in.UnblockVisitInput{Actor: engineer, VisitID: v.ID})
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusInService), view.Status)
	assert.Len(t, f.repo.transitions, 1)
}

func TestUnblockWithAdminReassignment(t *testing.T) {
	f := newFixture()
	v := f.seedVisit(t, "eng-1", domain.StatusBlocked)
	svc := NewUnblockVisitService(f.repo, f.publisher, f.notifier, f.log)

	view, err := svc.Execute(context.Background(), in.UnblockVisitInput{
		Actor:         in.Actor{ID: "admin-1", IsAdmin: true},
		VisitID:       v.ID,
		NewEngineerID: "eng-3",
	})

	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusInService), view.Status)
	assert.Equal(t, "eng-3", view.UserID)
	assert.Nil(t, view.BlockedSince)
}

func TestUnblockRejectsEngineerActiveElsewhere(t *testing.T) {
	f := newFixture()
	own := f.seedVisit(t, "eng-1", domain.StatusBlocked)
	other := f.seedVisit(t, "eng-2", domain.StatusInService)

	joinSvc := NewJoinVisitService(f.repo, f.publisher, f.notifier, f.log)
	_, err := joinSvc.Execute(context.Background(), in.JoinVisitInput{Actor: engineer, VisitID: other.ID})
	require.NoError(t, err)

	svc := NewUnblockVisitService(f.repo, f.publisher, f.notifier, f.log)
	_, err = svc.Execute(context.Background(), in.UnblockVisitInput{Actor: engineer, VisitID: own.ID})

	var cErr *domain.ConflictError
	require.ErrorAs(t, err, &cErr)

	stored, err := f.repo.FindByID(context.Background(), own.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusBlocked, stored.Status)
}

func TestReassignRequiresAdmin(t *testing.T) {
	f := newFixture()
	v := f.seedVisit(t, "eng-1", domain.StatusCompleted)
	svc := NewReassignVisitService(f.repo, f.publisher, f.notifier, f.log)

	_, err := svc.Execute(context.Background(), in.ReassignVisitInput{
		Actor:         engineer,
		VisitID:       v.ID,
		NewEngineerID: "eng-2",
	})

	var aErr *domain.AuthorizationError
	require.ErrorAs(t, err, &aErr)
}

func TestReassignCompletedVisit(t *testing.T) {
	f := newFixture()
	v := f.seedVisit(t, "eng-1", domain.StatusCompleted)
	svc := NewReassignVisitService(f.repo, f.publisher, f.notifier, f.log)

	view, err := svc.Execute(context.Background(), in.ReassignVisitInput{
		Actor:         in.Actor{ID: "admin-1", IsAdmin: true},
		VisitID:       v.ID,
		NewEngineerID: "eng-2",
	})

	require.NoError(t, err)
	assert.Equal(t, "eng-2", view.UserID)
	assert.Equal(t, string(domain.StatusCompleted), view.Status)
	// the previous owner is told as well
	assert.Contains(t, f.notifier.notified, "eng-1")
}

func TestReassignRejectsEngineerActiveElsewhere(t *testing.T) {
	f := newFixture()
	v := f.seedVisit(t, "eng-1", domain.StatusInService)
	other := f.seedVisit(t, "eng-2", domain.StatusInService)

	joinSvc := NewJoinVisitService(f.repo, f.publisher, f.notifier, f.log)
	_, err := joinSvc.Execute(context.Background(), in.JoinVisitInput{Actor: in.Actor{ID: "eng-3"}, VisitID: other.ID})
	require.NoError(t, err)

	svc := NewReassignVisitService(f.repo, f.publisher, f.notifier, f.log)
	_, err = svc.Execute(context.Background(), in.ReassignVisitInput{
		Actor:         in.Actor{ID: "admin-1", IsAdmin: true},
		VisitID:       v.ID,
		NewEngineerID: "eng-3",
	})

	var cErr *domain.ConflictError
	require.ErrorAs(t, err, &cErr)

	stored, err := f.repo.FindByID(context.Background(), v.ID)
	require.NoError(t, err)
	assert.Equal(t, "eng-1", stored.EngineerID)
}

func TestReassignToOwnCollaboratorAllowed(t *testing.T) {
	f := newFixture()
	v := f.seedVisit(t, "eng-1", domain.StatusInService)

	joinSvc := NewJoinVisitService(f.repo, f.publisher, f.notifier, f.log)
	_, err := joinSvc.Execute(context.Background(), in.JoinVisitInput{Actor: in.Actor{ID: "eng-3"}, VisitID: v.ID})
	require.NoError(t, err)

	// the collaborator's seat on this same visit is not a second visit
	svc := NewReassignVisitService(f.repo, f.publisher, f.notifier, f.log)
	view, err := svc.Execute(context.Background(), in.ReassignVisitInput{
		Actor:         in.Actor{ID: "admin-1", IsAdmin: true},
		VisitID:       v.ID,
		NewEngineerID: "eng-3",
	})

	require.NoError(t, err)
	assert.Equal(t, "eng-3", view.UserID)
	assert.Equal(t, string(domain.StatusInService), view.Status)
}

func TestJoinRejectsBusyEngineer(t *testing.T) {
	f := newFixture()
	v := f.seedVisit(t, "eng-1", domain.StatusInService)
	f.seedVisit(t, "eng-2", domain.StatusOnRoute)
	svc := NewJoinVisitService(f.repo, f.publisher, f.notifier, f.log)

	_, err := svc.Execute(context.Background(), in.JoinVisitInput{
		Actor:   in.Actor{ID: "eng-2"},
		VisitID: v.ID,
	})

	var cErr *domain.ConflictError
	require.ErrorAs(t, err, &cErr)
}

func TestJoinThenCollaboratorCompletes(t *testing.T) {
	f := newFixture()
	v := f.seedVisit(t, "eng-1", domain.StatusInService)

	joinSvc := NewJoinVisitService(f.repo, f.publisher, f.notifier, f.log)
	view, err := joinSvc.Execute(context.Background(), in.JoinVisitInput{
		Actor:   in.Actor{ID: "eng-2"},
		VisitID: v.ID,
		Note:    "second pair of hands",
	})
	require.NoError(t, err)
	require.Len(t, view.Collaborators, 1)
	assert.Equal(t, "eng-2", view.Collaborators[0].EngineerID)

	completeSvc := NewCompleteVisitService(f.repo, f.publisher, f.notifier, f.log)
	completed, err := completeSvc.Execute(context.Background(), in.CompleteVisitInput{
		Actor:   in.Actor{ID: "eng-2"},
		VisitID: v.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusCompleted), completed.Status)
}

func TestJoinDuplicateIsConflict(t *testing.T) {
	f := newFixture()
	v := f.seedVisit(t, "eng-1", domain.StatusInService)
	svc := NewJoinVisitService(f.repo, f.publisher, f.notifier, f.log)

	_, err := svc.Execute(context.Background(), in.JoinVisitInput{Actor: in.Actor{ID: "eng-2"}, VisitID: v.ID})
	require.NoError(t, err)

	_, err = svc.Execute(context.Background(), in.JoinVisitInput{Actor: in.Actor{ID: "eng-2"}, VisitID: v.ID})
	var cErr *domain.ConflictError
	require.ErrorAs(t, err, &cErr)
}

func TestPublishFailureDoesNotFailRequest(t *testing.T) {
	f := newFixture()
	f.publisher.err = errors.New("broker unreachable")
	svc := NewStartJourneyService(f.repo, f.publisher, f.notifier, f.log)

	view, err := svc.Execute(context.Background(), in.StartJourneyInput{Actor: engineer, JobID: "J-1"})

	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusOnRoute), view.Status)
}

func TestGetVisitHidesForeignVisits(t *testing.T) {
	f := newFixture()
	v := f.seedVisit(t, "eng-1", domain.StatusOnRoute)
	svc := NewGetVisitService(f.repo, f.log)

	_, err := svc.Execute(context.Background(), in.GetVisitInput{Actor: in.Actor{ID: "eng-9"}, VisitID: v.ID})
	assert.ErrorIs(t, err, domain.ErrVisitNotFound)

	view, err := svc.Execute(context.Background(), in.GetVisitInput{Actor: in.Actor{ID: "admin-1", IsAdmin: true}, VisitID: v.ID})
	require.NoError(t, err)
	assert.Equal(t, v.ID, view.ID)
}

func TestListVisitsScopes(t *testing.T) {
	f := newFixture()
	f.seedVisit(t, "eng-1", domain.StatusOnRoute)
	f.seedVisit(t, "eng-2", domain.StatusInService)
	svc := NewListVisitsService(f.repo, f.log)

	own, err := svc.Execute(context.Background(), in.ListVisitsInput{Actor: engineer})
	require.NoError(t, err)
	assert.Equal(t, 1, own.Count)
	assert.Equal(t, "eng-1", own.Visits[0].UserID)

	all, err := svc.Execute(context.Background(), in.ListVisitsInput{Actor: in.Actor{ID: "admin-1", IsAdmin: true}})
	require.NoError(t, err)
	assert.Equal(t, 2, all.Count)

	filtered, err := svc.Execute(context.Background(), in.ListVisitsInput{
		Actor:  in.Actor{ID: "admin-1", IsAdmin: true},
		UserID: "eng-2",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, filtered.Count)
	assert.Equal(t, "eng-2", filtered.Visits[0].UserID)
}
