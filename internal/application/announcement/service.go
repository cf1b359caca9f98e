package announcement

import (
	"context"
	"sort"
	"time"

	"github.com/taara-api/internal/domain"
	"github.com/taara-api/internal/pkg/id"
)

type Service interface {
	Create(ctx context.Context, authorID string, in domain.AnnouncementInput) (*domain.Announcement, error)
	List(ctx context.Context) ([]domain.Announcement, error)
	Update(ctx context.Context, announcementID string, in domain.AnnouncementInput) (*domain.Announcement, error)
	Delete(ctx context.Context, announcementID string) error
}

type announcementStore interface {
	Put(ctx context.Context, a *domain.Announcement) error
	Get(ctx context.Context, id string) (*domain.Announcement, error)
	List(ctx context.Context) ([]domain.Announcement, error)
	Update(ctx context.Context, id string, updates map[string]interface{}) error
	Delete(ctx context.Context, id string) error
}

type service struct {
	repo announcementStore
}

func NewService(repo announcementStore) Service {
	return &service{repo: repo}
}

func (s *service) Create(ctx context.Context, authorID string, in domain.AnnouncementInput) (*domain.Announcement, error) {
	now := time.Now().UTC()
	a := &domain.Announcement{
		AnnouncementID: id.NewAt(now),
		Title:          in.Title,
		Body:           in.Body,
		AuthorID:       authorID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.Put(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *service) List(ctx context.Context) ([]domain.Announcement, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return list, nil
}

func (s *service) Update(ctx context.Context, announcementID string, in domain.AnnouncementInput) (*domain.Announcement, error) {
	updates := map[string]interface{}{"title": in.Title, "body": in.Body}
	if err := s.repo.Update(ctx, announcementID, updates); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, announcementID)
}

func (s *service) Delete(ctx context.Context, announcementID string) error {
	return s.repo.Delete(ctx, announcementID)
}
