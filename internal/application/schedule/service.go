package schedule

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/taara-api/internal/domain"
	"github.com/taara-api/internal/infrastructure/metrics"
	"github.com/taara-api/internal/pkg/id"
	"github.com/taara-api/internal/pkg/logging"
	"go.uber.org/zap"
)

// Service is the capacity ledger for kapon schedules.
type Service interface {
	Create(ctx context.Context, createdBy string, in domain.ScheduleInput) (*domain.Schedule, error)
	Get(ctx context.Context, scheduleID string) (*domain.Schedule, error)
	List(ctx context.Context) ([]domain.Schedule, error)
	Cancel(ctx context.Context, scheduleID string) (*domain.Schedule, error)
	Delete(ctx context.Context, scheduleID string) error

	Register(ctx context.Context, scheduleID, ownerUserID string, details map[string]any) (*domain.Request, error)
	ListRegistrations(ctx context.Context, ownerUserID string) ([]domain.Registration, error)
}

type scheduleStore interface {
	Put(ctx context.Context, s *domain.Schedule) error
	Get(ctx context.Context, scheduleID string) (*domain.Schedule, error)
	List(ctx context.Context) ([]domain.Schedule, error)
	SetStatus(ctx context.Context, scheduleID string, status domain.ScheduleStatus) error
	Delete(ctx context.Context, scheduleID string) error
	Reserve(ctx context.Context, scheduleID string) error
	Release(ctx context.Context, scheduleID string) error
}

type requestSubmitter interface {
	Validate(kind domain.RequestKind, subjectRef *string, payload map[string]any) error
	Submit(ctx context.Context, kind domain.RequestKind, ownerUserID string, subjectRef *string, payload map[string]any) (*domain.Request, error)
	ListByOwner(ctx context.Context, ownerUserID string) ([]domain.Request, error)
}

type service struct {
	repo     scheduleStore
	requests requestSubmitter
	log      *zap.Logger
	now      func() time.Time
}

type ServiceDeps struct {
	ScheduleRepo scheduleStore
	Requests     requestSubmitter
	Logger       *zap.Logger
	Now          func() time.Time
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		repo:     deps.ScheduleRepo,
		requests: deps.Requests,
		log:      logging.OrNop(deps.Logger),
		now:      deps.Now,
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	return s
}

func (s *service) Create(ctx context.Context, createdBy string, in domain.ScheduleInput) (*domain.Schedule, error) {
	start, err := time.Parse("15:04", in.StartTime)
	if err != nil {
		return nil, fmt.Errorf("invalid start_time: %w", domain.ErrBadRequest)
	}
	end, err := time.Parse("15:04", in.EndTime)
	if err != nil {
		return nil, fmt.Errorf("invalid end_time: %w", domain.ErrBadRequest)
	}
	if !end.After(start) {
		return nil, &domain.ValidationError{Fields: []string{"end_time (after start_time)"}}
	}

	now := s.now()
	sched := &domain.Schedule{
		ScheduleID: id.NewAt(now),
		Title:      in.Title,
		Date:       in.Date,
		StartTime:  in.StartTime,
		EndTime:    in.EndTime,
		Location:   in.Location,
		Capacity:   in.Capacity,
		Status:     domain.ScheduleActive,
		CreatedBy:  createdBy,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.Put(ctx, sched); err != nil {
		return nil, err
	}
	return sched, nil
}

func (s *service) Get(ctx context.Context, scheduleID string) (*domain.Schedule, error) {
	return s.repo.Get(ctx, scheduleID)
}

// List orders schedules by date then start time.
func (s *service) List(ctx context.Context) ([]domain.Schedule, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []domain.Schedule{}
	}
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Date != list[j].Date {
			return list[i].Date < list[j].Date
		}
		return list[i].StartTime < list[j].StartTime
	})
	return list, nil
}

func (s *service) Cancel(ctx context.Context, scheduleID string) (*domain.Schedule, error) {
	if err := s.repo.SetStatus(ctx, scheduleID, domain.ScheduleCancelled); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, scheduleID)
}

func (s *service) Delete(ctx context.Context, scheduleID string) error {
	return s.repo.Delete(ctx, scheduleID)
}

// Register takes a slot and files the KaponRegistration request for it.
// The slot is taken with a conditional increment, so the count never passes
// capacity; if the request insert then fails, the slot is given back.
func (s *service) Register(ctx context.Context, scheduleID, ownerUserID string, details map[string]any) (*domain.Request, error) {
	subject := scheduleID
	if err := s.requests.Validate(domain.KindKaponRegistration, &subject, details); err != nil {
		return nil, err
	}

	sched, err := s.repo.Get(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	if sched.Status != domain.ScheduleActive {
		return nil, fmt.Errorf("schedule %s is %s: %w", scheduleID, sched.Status, domain.ErrConflict)
	}
	if sched.IsFull() {
		metrics.CapacityRejections.Inc()
		return nil, &domain.CapacityExceededError{ScheduleID: scheduleID}
	}

	if err := s.repo.Reserve(ctx, scheduleID); err != nil {
		if errors.Is(err, domain.ErrCapacityExceeded) {
			metrics.CapacityRejections.Inc()
		}
		return nil, err
	}

	req, err := s.requests.Submit(ctx, domain.KindKaponRegistration, ownerUserID, &subject, details)
	if err != nil {
		if rerr := s.repo.Release(context.WithoutCancel(ctx), scheduleID); rerr != nil {
			dw := &domain.DependentWriteError{Op: "release_slot", Err: rerr}
			metrics.DependentWriteFailures.WithLabelValues(dw.Op).Inc()
			s.log.Warn("release slot after failed registration",
				zap.String("schedule_id", scheduleID), zap.Error(dw))
		}
		return nil, err
	}
	return req, nil
}

// ListRegistrations joins the owner's kapon requests with their schedules.
// A schedule that has since been deleted is reported as unavailable.
func (s *service) ListRegistrations(ctx context.Context, ownerUserID string) ([]domain.Registration, error) {
	reqs, err := s.requests.ListByOwner(ctx, ownerUserID)
	if err != nil {
		return nil, err
	}

	cache := map[string]*domain.Schedule{}
	out := []domain.Registration{}
	for i := range reqs {
		req := &reqs[i]
		if req.Kind != domain.KindKaponRegistration {
			continue
		}
		reg := domain.Registration{Request: req}
		if req.SubjectRef != nil {
			sched, seen := cache[*req.SubjectRef]
			if !seen {
				sched, err = s.repo.Get(ctx, *req.SubjectRef)
				if err != nil && !errors.Is(err, domain.ErrNotFound) {
					return nil, err
				}
				cache[*req.SubjectRef] = sched
			}
			reg.Schedule = sched
			reg.ScheduleAvailable = sched != nil
		}
		out = append(out, reg)
	}
	return out, nil
}
