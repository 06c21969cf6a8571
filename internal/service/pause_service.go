package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/franckabsuser/bam/internal/apperr"
	"github.com/franckabsuser/bam/internal/models"
	"github.com/franckabsuser/bam/internal/repository"
)

type PauseService struct {
	pauses repository.PauseRepository
	users  repository.UserRepository
	log    *zap.SugaredLogger

	// now is swappable for tests
	now func() time.Time
}

func NewPauseService(pauses repository.PauseRepository, users repository.UserRepository, log *zap.SugaredLogger) *PauseService {
	return &PauseService{pauses: pauses, users: users, log: log, now: time.Now}
}

// Start opens an active pause for the user. Nothing prevents a second
// concurrent start; End picks one arbitrarily in that case.
func (s *PauseService) Start(ctx context.Context, userID string) (*models.Pause, error) {
	uid, err := parseID(userID)
	if err != nil {
		return nil, err
	}
	if _, err := s.users.FindByID(ctx, uid); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("user %s", userID)
		}
		return nil, err
	}
	p := &models.Pause{User: uid, StartTime: s.now(), IsPaused: true}
	if err := s.pauses.Insert(ctx, p); err != nil {
		return nil, err
	}
	s.log.Infow("pause started", "user", userID, "pause", p.ID.Hex())
	return p, nil
}

// End closes one active pause for the user and derives its duration in
// seconds (fractional kept).
func (s *PauseService) End(ctx context.Context, userID string) (*models.Pause, error) {
	uid, err := parseID(userID)
	if err != nil {
		return nil, err
	}
	p, err := s.pauses.FindActiveByUser(ctx, uid)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("no active pause found for this user")
		}
		return nil, err
	}
	ended := s.now()
	duration := ended.Sub(p.StartTime).Seconds()
	if err := s.pauses.End(ctx, p.ID, ended, duration); err != nil {
		return nil, err
	}
	p.EndTime = &ended
	p.Duration = duration
	p.IsPaused = false
	return p, nil
}

// CountForDate counts the user's pauses whose start falls within the
// given day. Day boundaries are local midnight.
func (s *PauseService) CountForDate(ctx context.Context, userID string, date time.Time) (int, error) {
	uid, err := parseID(userID)
	if err != nil {
		return 0, err
	}
	from := startOfDay(date)
	pauses, err := s.pauses.ListStartedBetween(ctx, uid, from, from.Add(24*time.Hour))
	if err != nil {
		return 0, err
	}
	return len(pauses), nil
}

// ListActive returns every running pause with its user projection.
func (s *PauseService) ListActive(ctx context.Context) ([]*models.ActivePause, error) {
	pauses, err := s.pauses.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*models.ActivePause, 0, len(pauses))
	for _, p := range pauses {
		ap := &models.ActivePause{Pause: p}
		if u, err := s.users.FindByID(ctx, p.User); err == nil {
			ap.User = u
		}
		out = append(out, ap)
	}
	return out, nil
}

// TodaySummary aggregates count and total duration of the user's pauses
// started today.
func (s *PauseService) TodaySummary(ctx context.Context, userID string) (*models.PauseDaySummary, error) {
	uid, err := parseID(userID)
	if err != nil {
		return nil, err
	}
	from := startOfDay(s.now())
	pauses, err := s.pauses.ListStartedBetween(ctx, uid, from, from.Add(24*time.Hour))
	if err != nil {
		return nil, err
	}
	sum := &models.PauseDaySummary{NbrPauses: len(pauses)}
	for _, p := range pauses {
		sum.TotalPauseTime += p.Duration
	}
	return sum, nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
