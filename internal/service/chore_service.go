package service

import (
	"context"
	"log/slog"
	"time"

	"homeview/internal/model"
	"homeview/internal/repository"
)

// dayCodes maps Go weekdays to the spreadsheet's day-of-week codes.
var dayCodes = map[time.Weekday]string{
	time.Sunday:    "Su",
	time.Monday:    "M",
	time.Tuesday:   "Tu",
	time.Wednesday: "W",
	time.Thursday:  "Th",
	time.Friday:    "F",
	time.Saturday:  "Sa",
}

// ChoreService wraps direct chore operations that do not touch the
// spreadsheet.
type ChoreService struct {
	repo *repository.ChoreRepository
	loc  *time.Location
}

func NewChoreService(repo *repository.ChoreRepository, loc *time.Location) *ChoreService {
	if loc == nil {
		loc = time.Local
	}
	return &ChoreService{repo: repo, loc: loc}
}

func (s *ChoreService) List(ctx context.Context) ([]model.Chore, error) {
	return s.repo.ListAll(ctx)
}

// Complete marks a chore done with the current timestamp.
func (s *ChoreService) Complete(ctx context.Context, id uint) (*model.Chore, error) {
	chore, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.MarkCompleted(ctx, chore, time.Now().UTC()); err != nil {
		return nil, err
	}
	return chore, nil
}

// ResetDue clears completion for chores that roll over today: every
// daily chore, plus weekly and monthly chores whose day-of-week code
// matches today's.
func (s *ChoreService) ResetDue(ctx context.Context, now time.Time) ([]model.Chore, error) {
	dayCode := dayCodes[now.In(s.loc).Weekday()]

	due, err := s.repo.ListDueForReset(ctx, dayCode)
	if err != nil {
		return nil, err
	}

	resetAt := now.UTC()
	reset := make([]model.Chore, 0, len(due))
	for i := range due {
		if err := s.repo.ResetCompletion(ctx, &due[i], resetAt); err != nil {
			slog.Error("chore reset failed", "chore", due[i].Name, "err", err)
			continue
		}
		reset = append(reset, due[i])
	}
	return reset, nil
}
