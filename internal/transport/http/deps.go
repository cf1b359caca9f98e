package http

import (
	"context"
	"io"
	"time"

	"github.com/taara-api/internal/application/notification"
	"github.com/taara-api/internal/domain"
	"github.com/taara-api/internal/infrastructure/google"
	jwtinfra "github.com/taara-api/internal/infrastructure/jwt"
	"github.com/taara-api/internal/infrastructure/sns"
	"github.com/taara-api/internal/transport/http/handler"
	"go.uber.org/zap"
)

// UserRepository is the minimal interface the router requires from a user store.
type UserRepository interface {
	Put(ctx context.Context, u *domain.User) error
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	SetRole(ctx context.Context, userID, role string) error
}

// PetRepository is the minimal interface the router requires from a pet store.
type PetRepository interface {
	Put(ctx context.Context, p *domain.Pet) error
	Get(ctx context.Context, petID string) (*domain.Pet, error)
	List(ctx context.Context) ([]domain.Pet, error)
	Update(ctx context.Context, petID string, updates map[string]interface{}) error
	MarkAdopted(ctx context.Context, petID, adoptedBy string) error
	Delete(ctx context.Context, petID string) error
}

// RequestRepository is the minimal interface the router requires from a request store.
type RequestRepository interface {
	Put(ctx context.Context, req *domain.Request) error
	Get(ctx context.Context, requestID string) (*domain.Request, error)
	ListByKind(ctx context.Context, kind domain.RequestKind, status *domain.RequestStatus) ([]domain.Request, error)
	ListByStatus(ctx context.Context, status domain.RequestStatus) ([]domain.Request, error)
	ListByOwner(ctx context.Context, ownerUserID string) ([]domain.Request, error)
	ListAll(ctx context.Context) ([]domain.Request, error)
	// UpdateStatus applies updates only while the stored status is still from.
	UpdateStatus(ctx context.Context, requestID string, from domain.RequestStatus, updates map[string]interface{}) error
	SetHidden(ctx context.Context, requestID string, hidden bool, at time.Time) error
}

// ScheduleRepository is the minimal interface the router requires from a schedule store.
type ScheduleRepository interface {
	Put(ctx context.Context, s *domain.Schedule) error
	Get(ctx context.Context, scheduleID string) (*domain.Schedule, error)
	List(ctx context.Context) ([]domain.Schedule, error)
	SetStatus(ctx context.Context, scheduleID string, status domain.ScheduleStatus) error
	Delete(ctx context.Context, scheduleID string) error
	Reserve(ctx context.Context, scheduleID string) error
	Release(ctx context.Context, scheduleID string) error
}

// NotificationRepository is the minimal interface the router requires from a notification store.
type NotificationRepository interface {
	Put(ctx context.Context, n *domain.Notification) error
	Get(ctx context.Context, notificationID string) (*domain.Notification, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Notification, error)
	ListUnread(ctx context.Context, userID string) ([]domain.Notification, error)
	MarkRead(ctx context.Context, notificationID string, at time.Time) error
	DeleteByUser(ctx context.Context, userID string) (int, error)
}

// DocumentRepository is the minimal interface the router requires from a document store.
type DocumentRepository interface {
	Put(ctx context.Context, d *domain.Document) error
	Get(ctx context.Context, documentID string) (*domain.Document, error)
	ListByUploader(ctx context.Context, userID string) ([]domain.Document, error)
	SoftDelete(ctx context.Context, documentID string) error
}

// AnnouncementRepository is the minimal interface the router requires from an announcement store.
type AnnouncementRepository interface {
	Put(ctx context.Context, a *domain.Announcement) error
	Get(ctx context.Context, id string) (*domain.Announcement, error)
	List(ctx context.Context) ([]domain.Announcement, error)
	Update(ctx context.Context, id string, updates map[string]interface{}) error
	Delete(ctx context.Context, id string) error
}

// ObjectStore is the minimal interface the router requires from an object storage backend.
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

// TokenProvider signs tokens at login and verifies them on every authenticated route.
type TokenProvider interface {
	Sign(userID, role string) (string, error)
	Verify(tokenStr string) (*jwtinfra.Claims, error)
}

// GoogleVerifier checks Google ID tokens for Google sign-in.
type GoogleVerifier interface {
	Verify(ctx context.Context, token string) (*google.Identity, error)
}

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	UserRepo         UserRepository
	PetRepo          PetRepository
	RequestRepo      RequestRepository
	ScheduleRepo     ScheduleRepository
	NotificationRepo NotificationRepository
	DocumentRepo     DocumentRepository
	AnnouncementRepo AnnouncementRepository
	ObjectStore      ObjectStore
	// Broker fans notification changes out to live streams; nil means in-process only.
	Broker notification.Broker
	// SMSSender is nil when SMS is disabled.
	SMSSender     sns.SMSSender
	TokenProvider TokenProvider
	// HealthChecks back the readiness check, keyed by service name.
	HealthChecks map[string]handler.HealthCheck
	// GoogleVerifier is nil when Google sign-in is disabled.
	GoogleVerifier GoogleVerifier
	Logger         *zap.Logger
}
