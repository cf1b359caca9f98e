package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/taara-api/internal/domain"
	"github.com/taara-api/internal/infrastructure/metrics"
	"github.com/taara-api/internal/pkg/id"
	"github.com/taara-api/internal/pkg/logging"
	"go.uber.org/zap"
)

// Attribute names written by Transition.
const (
	fieldStatus     = "status"
	fieldUpdatedAt  = "updated_at"
	fieldReviewedAt = "reviewed_at"
	fieldReviewedBy = "reviewed_by"
	fieldAdminNotes = "admin_notes"
)

// Engine runs every request kind through one state machine.
type Engine interface {
	// Validate checks kind, subject and payload without touching the store.
	Validate(kind domain.RequestKind, subjectRef *string, payload map[string]any) error
	Submit(ctx context.Context, kind domain.RequestKind, ownerUserID string, subjectRef *string, payload map[string]any) (*domain.Request, error)
	Transition(ctx context.Context, requestID string, actor domain.Actor, to domain.RequestStatus, adminNotes *string) (*domain.Request, error)
	Get(ctx context.Context, requestID string, actor domain.Actor) (*domain.Request, error)
	ListByStatus(ctx context.Context, filter domain.RequestFilter) ([]domain.Request, error)
	ListByOwner(ctx context.Context, ownerUserID string) ([]domain.Request, error)
	SetHidden(ctx context.Context, requestID string, actor domain.Actor, hidden bool) (*domain.Request, error)
}

type requestStore interface {
	Put(ctx context.Context, req *domain.Request) error
	Get(ctx context.Context, requestID string) (*domain.Request, error)
	ListByKind(ctx context.Context, kind domain.RequestKind, status *domain.RequestStatus) ([]domain.Request, error)
	ListByStatus(ctx context.Context, status domain.RequestStatus) ([]domain.Request, error)
	ListByOwner(ctx context.Context, ownerUserID string) ([]domain.Request, error)
	ListAll(ctx context.Context) ([]domain.Request, error)
	UpdateStatus(ctx context.Context, requestID string, from domain.RequestStatus, updates map[string]interface{}) error
	SetHidden(ctx context.Context, requestID string, hidden bool, at time.Time) error
}

type transitionNotifier interface {
	NotifyTransition(ctx context.Context, req *domain.Request) (*domain.Notification, error)
}

type engine struct {
	repo     requestStore
	notifier transitionNotifier
	kinds    Registry
	log      *zap.Logger
	now      func() time.Time
}

type EngineDeps struct {
	RequestRepo requestStore
	Notifier    transitionNotifier
	Kinds       Registry
	Logger      *zap.Logger
	Now         func() time.Time
}

func NewEngine(deps EngineDeps) Engine {
	e := &engine{
		repo:     deps.RequestRepo,
		notifier: deps.Notifier,
		kinds:    deps.Kinds,
		log:      logging.OrNop(deps.Logger),
		now:      deps.Now,
	}
	if e.kinds == nil {
		e.kinds = DefaultRegistry(Effects{})
	}
	if e.now == nil {
		e.now = func() time.Time { return time.Now().UTC() }
	}
	return e
}

func (e *engine) Validate(kind domain.RequestKind, subjectRef *string, payload map[string]any) error {
	cfg, ok := e.kinds[kind]
	if !ok {
		return &domain.ValidationError{Fields: []string{"kind"}}
	}
	var missing []string
	if cfg.SubjectRequired && (subjectRef == nil || strings.TrimSpace(*subjectRef) == "") {
		missing = append(missing, "subject_ref")
	}
	for _, f := range cfg.RequiredFields {
		if !present(payload[f]) {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return &domain.ValidationError{Fields: missing}
	}
	return nil
}

func present(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(t) != ""
	}
	return true
}

func (e *engine) Submit(ctx context.Context, kind domain.RequestKind, ownerUserID string, subjectRef *string, payload map[string]any) (*domain.Request, error) {
	if err := e.Validate(kind, subjectRef, payload); err != nil {
		return nil, err
	}
	cfg := e.kinds[kind]

	now := e.now()
	req := &domain.Request{
		RequestID:   id.NewAt(now),
		Kind:        kind,
		OwnerUserID: ownerUserID,
		SubjectRef:  subjectRef,
		Status:      domain.StatusPending,
		Payload:     payload,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if cfg.BeforeSubmit != nil {
		if err := cfg.BeforeSubmit(ctx, req); err != nil {
			return nil, err
		}
	}
	if err := e.repo.Put(ctx, req); err != nil {
		return nil, fmt.Errorf("store request: %w", err)
	}
	metrics.RequestsSubmitted.WithLabelValues(string(kind)).Inc()

	e.runEffects(ctx, req, cfg.AfterSubmit)
	return req, nil
}

func (e *engine) Transition(ctx context.Context, requestID string, actor domain.Actor, to domain.RequestStatus, adminNotes *string) (*domain.Request, error) {
	req, err := e.repo.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() {
		return nil, &domain.ForbiddenError{Reason: "only admins can review requests"}
	}
	cfg, ok := e.kinds[req.Kind]
	if !ok || !cfg.allows(req.Status, to) {
		return nil, &domain.InvalidTransitionError{Kind: req.Kind, From: req.Status, To: to}
	}

	if guard := cfg.BeforeStatus[to]; guard != nil {
		if err := guard(ctx, req); err != nil {
			return nil, err
		}
	}

	from := req.Status
	now := e.now()
	updates := map[string]interface{}{
		fieldStatus:    to,
		fieldUpdatedAt: now,
	}
	// Review fields belong to the move out of pending; later moves leave them alone.
	review := from == domain.StatusPending
	if !review || adminNotes == nil || strings.TrimSpace(*adminNotes) == "" {
		adminNotes = nil
	}
	if review {
		updates[fieldReviewedAt] = now
		updates[fieldReviewedBy] = actor.UserID
		if adminNotes != nil {
			updates[fieldAdminNotes] = *adminNotes
		}
	}

	if err := e.repo.UpdateStatus(ctx, requestID, from, updates); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			// Another admin moved it first; report against what is stored now.
			if cur, gerr := e.repo.Get(ctx, requestID); gerr == nil {
				from = cur.Status
			}
			return nil, &domain.InvalidTransitionError{Kind: req.Kind, From: from, To: to}
		}
		return nil, fmt.Errorf("update request status: %w", err)
	}

	req.Status = to
	req.UpdatedAt = now
	if review {
		req.ReviewedAt = &now
		req.ReviewedBy = &actor.UserID
		req.AdminNotes = adminNotes
	}
	metrics.RequestTransitions.WithLabelValues(string(req.Kind), string(to)).Inc()

	e.afterTransition(ctx, req, cfg)
	return req, nil
}

// afterTransition runs the best-effort work that follows a committed transition.
// The status field stays the source of truth whatever happens here.
func (e *engine) afterTransition(ctx context.Context, req *domain.Request, cfg KindConfig) {
	ctx = context.WithoutCancel(ctx)
	if e.notifier != nil {
		if _, err := e.notifier.NotifyTransition(ctx, req); err != nil {
			e.dependentFailure(req, &domain.DependentWriteError{Op: "notify", Err: err})
		}
	}
	e.runEffects(ctx, req, cfg.OnStatus[req.Status])
}

func (e *engine) runEffects(ctx context.Context, req *domain.Request, effects []SideEffect) {
	for _, fx := range effects {
		if err := fx.Run(ctx, req); err != nil {
			e.dependentFailure(req, &domain.DependentWriteError{Op: fx.Name, Err: err})
		}
	}
}

func (e *engine) dependentFailure(req *domain.Request, err *domain.DependentWriteError) {
	metrics.DependentWriteFailures.WithLabelValues(err.Op).Inc()
	e.log.Warn("dependent write failed",
		zap.String("request_id", req.RequestID),
		zap.String("kind", string(req.Kind)),
		zap.String("status", string(req.Status)),
		zap.String("op", err.Op),
		zap.Error(err.Err),
	)
}

func (e *engine) Get(ctx context.Context, requestID string, actor domain.Actor) (*domain.Request, error) {
	req, err := e.repo.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && req.OwnerUserID != actor.UserID {
		// Do not reveal that someone else's request exists.
		return nil, &domain.NotFoundError{Entity: "request", ID: requestID}
	}
	return req, nil
}

func (e *engine) ListByStatus(ctx context.Context, filter domain.RequestFilter) ([]domain.Request, error) {
	var (
		reqs []domain.Request
		err  error
	)
	switch {
	case filter.Kind != nil:
		reqs, err = e.repo.ListByKind(ctx, *filter.Kind, filter.Status)
	case filter.Status != nil:
		reqs, err = e.repo.ListByStatus(ctx, *filter.Status)
	default:
		reqs, err = e.repo.ListAll(ctx)
	}
	if err != nil {
		return nil, err
	}
	return newestFirst(reqs, filter.IncludeHidden), nil
}

func (e *engine) ListByOwner(ctx context.Context, ownerUserID string) ([]domain.Request, error) {
	reqs, err := e.repo.ListByOwner(ctx, ownerUserID)
	if err != nil {
		return nil, err
	}
	// Hiding is an admin-side filter; owners always see their own requests.
	return newestFirst(reqs, true), nil
}

// SetHidden toggles admin-side visibility of an adoption request. Status is untouched.
func (e *engine) SetHidden(ctx context.Context, requestID string, actor domain.Actor, hidden bool) (*domain.Request, error) {
	req, err := e.repo.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() {
		return nil, &domain.ForbiddenError{Reason: "only admins can hide requests"}
	}
	if req.Kind != domain.KindAdoption {
		return nil, fmt.Errorf("only adoption requests can be hidden: %w", domain.ErrBadRequest)
	}
	if req.Hidden == hidden {
		return req, nil
	}
	now := e.now()
	if err := e.repo.SetHidden(ctx, requestID, hidden, now); err != nil {
		return nil, err
	}
	req.Hidden = hidden
	req.UpdatedAt = now
	return req, nil
}

func newestFirst(reqs []domain.Request, includeHidden bool) []domain.Request {
	out := make([]domain.Request, 0, len(reqs))
	for _, r := range reqs {
		if r.Hidden && !includeHidden {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].RequestID > out[j].RequestID
	})
	return out
}
