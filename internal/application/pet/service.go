package pet

import (
	"context"
	"sort"
	"time"

	"github.com/taara-api/internal/domain"
	"github.com/taara-api/internal/pkg/id"
)

// DynamoDB attribute names used in partial update maps.
const (
	fieldName        = "name"
	fieldSpecies     = "species"
	fieldBreed       = "breed"
	fieldAge         = "age"
	fieldGender      = "gender"
	fieldDescription = "description"
	fieldImageURL    = "image_url"
)

type Service interface {
	Create(ctx context.Context, in domain.PetInput) (*domain.Pet, error)
	Get(ctx context.Context, petID string) (*domain.Pet, error)
	List(ctx context.Context, status *domain.PetStatus) ([]domain.Pet, error)
	Update(ctx context.Context, petID string, in domain.PetInput) (*domain.Pet, error)
	Delete(ctx context.Context, petID string) error
}

type petStore interface {
	Put(ctx context.Context, p *domain.Pet) error
	Get(ctx context.Context, petID string) (*domain.Pet, error)
	List(ctx context.Context) ([]domain.Pet, error)
	Update(ctx context.Context, petID string, updates map[string]interface{}) error
	Delete(ctx context.Context, petID string) error
}

type service struct {
	repo petStore
}

func NewService(repo petStore) Service {
	return &service{repo: repo}
}

func (s *service) Create(ctx context.Context, in domain.PetInput) (*domain.Pet, error) {
	now := time.Now().UTC()
	p := &domain.Pet{
		PetID:       id.NewAt(now),
		Name:        in.Name,
		Species:     in.Species,
		Breed:       in.Breed,
		Age:         in.Age,
		Gender:      in.Gender,
		Description: in.Description,
		ImageURL:    in.ImageURL,
		Status:      domain.PetAvailable,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Put(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *service) Get(ctx context.Context, petID string) (*domain.Pet, error) {
	return s.repo.Get(ctx, petID)
}

// List returns pets newest first, optionally only those with the given status.
func (s *service) List(ctx context.Context, status *domain.PetStatus) ([]domain.Pet, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Pet, 0, len(all))
	for _, p := range all {
		if status == nil || p.Status == *status {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Update replaces the descriptive fields. Status and adopter only change through adoption approval.
func (s *service) Update(ctx context.Context, petID string, in domain.PetInput) (*domain.Pet, error) {
	updates := map[string]interface{}{
		fieldName:        in.Name,
		fieldSpecies:     in.Species,
		fieldBreed:       in.Breed,
		fieldAge:         in.Age,
		fieldGender:      in.Gender,
		fieldDescription: in.Description,
	}
	if in.ImageURL != nil {
		updates[fieldImageURL] = *in.ImageURL
	}
	if err := s.repo.Update(ctx, petID, updates); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, petID)
}

func (s *service) Delete(ctx context.Context, petID string) error {
	return s.repo.Delete(ctx, petID)
}
