package notification

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/taara-api/internal/domain"
	"github.com/taara-api/internal/infrastructure/metrics"
	"github.com/taara-api/internal/pkg/fanout"
	"github.com/taara-api/internal/pkg/id"
	"github.com/taara-api/internal/pkg/logging"
	"go.uber.org/zap"
)

// Service is the notification dispatcher: it writes per-user notifications
// and keeps live subscribers up to date.
type Service interface {
	Notify(ctx context.Context, in domain.NotifyInput) (*domain.Notification, error)
	// NotifyTransition sends the templated notification for req's current status.
	// It returns nil, nil when the (kind, status) pair has no template.
	NotifyTransition(ctx context.Context, req *domain.Request) (*domain.Notification, error)

	Subscribe(ctx context.Context, userID string, onChange func([]domain.Notification)) (func(), error)
	SubscribeUnreadCount(ctx context.Context, userID string, onChange func(int)) (func(), error)

	List(ctx context.Context, userID string) ([]domain.Notification, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, userID, notificationID string) (*domain.Notification, error)
	MarkAllRead(ctx context.Context, userID string) (int, error)
	ClearAll(ctx context.Context, userID string) (int, error)
}

type notificationStore interface {
	Put(ctx context.Context, n *domain.Notification) error
	Get(ctx context.Context, notificationID string) (*domain.Notification, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Notification, error)
	ListUnread(ctx context.Context, userID string) ([]domain.Notification, error)
	MarkRead(ctx context.Context, notificationID string, at time.Time) error
	DeleteByUser(ctx context.Context, userID string) (int, error)
}

// Broker carries "this user's notifications changed" signals to subscribers,
// possibly on other instances.
type Broker interface {
	Publish(ctx context.Context, userID string) error
	Subscribe(userID string, fn func()) (cancel func())
}

type service struct {
	repo          notificationStore
	broker        Broker
	log           *zap.Logger
	maxRetries    int
	retryInterval time.Duration
	now           func() time.Time
}

type ServiceDeps struct {
	NotificationRepo notificationStore
	// Broker defaults to an in-process hub.
	Broker     Broker
	Logger     *zap.Logger
	MaxRetries int
	// RetryInterval is the first backoff interval; defaults to 200ms.
	RetryInterval time.Duration
	Now           func() time.Time
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		repo:          deps.NotificationRepo,
		broker:        deps.Broker,
		log:           logging.OrNop(deps.Logger),
		maxRetries:    deps.MaxRetries,
		retryInterval: deps.RetryInterval,
		now:           deps.Now,
	}
	if s.broker == nil {
		s.broker = fanout.NewHub()
	}
	if s.retryInterval <= 0 {
		s.retryInterval = 200 * time.Millisecond
	}
	if s.maxRetries < 0 {
		s.maxRetries = 0
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	return s
}

func (s *service) Notify(ctx context.Context, in domain.NotifyInput) (*domain.Notification, error) {
	var missing []string
	if in.UserID == "" {
		missing = append(missing, "user_id")
	}
	if in.Type == "" {
		missing = append(missing, "type")
	}
	if in.Title == "" {
		missing = append(missing, "title")
	}
	if len(missing) > 0 {
		return nil, &domain.ValidationError{Fields: missing}
	}

	n := &domain.Notification{
		NotificationID: in.ID,
		UserID:         in.UserID,
		Type:           in.Type,
		Title:          in.Title,
		Message:        in.Message,
		RelatedID:      in.RelatedID,
		Metadata:       in.Metadata,
		CreatedAt:      s.now(),
	}
	if n.NotificationID == "" {
		n.NotificationID = id.New()
	}

	// The id is fixed before the first attempt, so a retry after an ambiguous
	// failure overwrites the same item instead of creating a second one.
	put := func() error { return s.repo.Put(ctx, n) }
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.retryInterval
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(s.maxRetries)), ctx)
	if err := backoff.Retry(put, policy); err != nil {
		metrics.NotificationsSent.WithLabelValues(n.Type, "failed").Inc()
		return nil, fmt.Errorf("store notification: %w", err)
	}
	metrics.NotificationsSent.WithLabelValues(n.Type, "ok").Inc()

	s.publish(ctx, n.UserID)
	return n, nil
}

func (s *service) NotifyTransition(ctx context.Context, req *domain.Request) (*domain.Notification, error) {
	typ, title, message, ok, err := resolveTemplate(req)
	if err != nil || !ok {
		return nil, err
	}
	relatedID := req.RequestID
	metadata := map[string]string{
		"kind":   string(req.Kind),
		"status": string(req.Status),
	}
	if req.SubjectRef != nil {
		metadata["subject_ref"] = *req.SubjectRef
	}
	return s.Notify(ctx, domain.NotifyInput{
		ID:        transitionNotificationID(req),
		UserID:    req.OwnerUserID,
		Type:      typ,
		Title:     title,
		Message:   message,
		RelatedID: &relatedID,
		Metadata:  metadata,
	})
}

// transitionNotificationID is deterministic per (request, status), so each
// transition yields at most one notification however often it is re-sent.
func transitionNotificationID(req *domain.Request) string {
	return req.RequestID + "_" + string(req.Status)
}

func (s *service) List(ctx context.Context, userID string) ([]domain.Notification, error) {
	list, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return newestFirst(list), nil
}

func (s *service) UnreadCount(ctx context.Context, userID string) (int, error) {
	list, err := s.repo.ListUnread(ctx, userID)
	if err != nil {
		return 0, err
	}
	return len(newestFirst(list)), nil
}

// MarkRead is idempotent: an already-read notification is returned unchanged.
func (s *service) MarkRead(ctx context.Context, userID, notificationID string) (*domain.Notification, error) {
	n, err := s.repo.Get(ctx, notificationID)
	if err != nil {
		return nil, err
	}
	if n.UserID != userID {
		// Same answer as a missing id, so ids of other users' notifications are not confirmed.
		return nil, &domain.NotFoundError{Entity: "notification", ID: notificationID}
	}
	if n.Read {
		return n, nil
	}

	at := s.now()
	if err := s.repo.MarkRead(ctx, notificationID, at); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			// Someone else marked it first; report their readAt.
			return s.repo.Get(ctx, notificationID)
		}
		return nil, err
	}
	n.Read = true
	n.ReadAt = &at
	s.publish(ctx, userID)
	return n, nil
}

func (s *service) MarkAllRead(ctx context.Context, userID string) (int, error) {
	unread, err := s.repo.ListUnread(ctx, userID)
	if err != nil {
		return 0, err
	}
	at := s.now()
	marked := 0
	for _, n := range unread {
		if err := s.repo.MarkRead(ctx, n.NotificationID, at); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				continue
			}
			return marked, err
		}
		marked++
	}
	if marked > 0 {
		s.publish(ctx, userID)
	}
	return marked, nil
}

func (s *service) ClearAll(ctx context.Context, userID string) (int, error) {
	deleted, err := s.repo.DeleteByUser(ctx, userID)
	if deleted > 0 {
		s.publish(ctx, userID)
	}
	return deleted, err
}

func (s *service) publish(ctx context.Context, userID string) {
	if err := s.broker.Publish(ctx, userID); err != nil {
		s.log.Warn("publish notification change", zap.String("user_id", userID), zap.Error(err))
	}
}

// newestFirst drops duplicate ids and orders by created_at descending, id descending on ties.
func newestFirst(list []domain.Notification) []domain.Notification {
	seen := make(map[string]struct{}, len(list))
	out := make([]domain.Notification, 0, len(list))
	for _, n := range list {
		if _, dup := seen[n.NotificationID]; dup {
			continue
		}
		seen[n.NotificationID] = struct{}{}
		out = append(out, n)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].NotificationID > out[j].NotificationID
	})
	return out
}
