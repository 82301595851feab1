package in

import (
	"context"
	"time"

	"github.com/phgsc/field-service-management-sub000/internal/admin/domain"
)

// EntryView is the API representation of a schedule entry.
type EntryView struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	EntryType string    `json:"entryType"`
	Title     string    `json:"title"`
	StartsAt  time.Time `json:"startsAt"`
	EndsAt    time.Time `json:"endsAt"`
	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewEntryView maps a schedule entry to its API representation.
func NewEntryView(e *domain.ScheduleEntry) *EntryView {
	return &EntryView{
		ID:        e.ID,
		UserID:    e.EngineerID,
		EntryType: e.EntryType,
		Title:     e.Title,
		StartsAt:  e.StartsAt,
		EndsAt:    e.EndsAt,
		CreatedBy: e.CreatedBy,
		CreatedAt: e.CreatedAt,
	}
}

// CreateEntryInput adds a calendar item to an engineer's schedule. An empty
// UserID defaults to the actor.
type CreateEntryInput struct {
	Actor     Actor     `json:"-"`
	UserID    string    `json:"userId,omitempty"`
	EntryType string    `json:"entryType,omitempty"`
	Title     string    `json:"title"`
	StartsAt  time.Time `json:"startsAt"`
	EndsAt    time.Time `json:"endsAt"`
}

type CreateEntryUseCase interface {
	Execute(ctx context.Context, input CreateEntryInput) (*EntryView, error)
}

// ListEntriesInput lists schedule entries for one engineer in a window.
type ListEntriesInput struct {
	Actor  Actor
	UserID string
	From   time.Time
	To     time.Time
}

// ListEntriesOutput carries the result page.
type ListEntriesOutput struct {
	Entries []*EntryView `json:"entries"`
	Count   int          `json:"count"`
}

type ListEntriesUseCase interface {
	Execute(ctx context.Context, input ListEntriesInput) (*ListEntriesOutput, error)
}
