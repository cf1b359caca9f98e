package pet

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/taara-api/internal/domain"
)

type mockPetStore struct{ mock.Mock }

func (m *mockPetStore) Put(ctx context.Context, p *domain.Pet) error {
	return m.Called(ctx, p).Error(0)
}
func (m *mockPetStore) Get(ctx context.Context, petID string) (*domain.Pet, error) {
	args := m.Called(ctx, petID)
	if p, _ := args.Get(0).(*domain.Pet); p != nil {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockPetStore) List(ctx context.Context) ([]domain.Pet, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Pet), args.Error(1)
}
func (m *mockPetStore) Update(ctx context.Context, petID string, updates map[string]interface{}) error {
	return m.Called(ctx, petID, updates).Error(0)
}
func (m *mockPetStore) Delete(ctx context.Context, petID string) error {
	return m.Called(ctx, petID).Error(0)
}

func TestCreate_StartsAvailable(t *testing.T) {
	ps := &mockPetStore{}
	ps.On("Put", mock.Anything, mock.AnythingOfType("*domain.Pet")).Return(nil)

	p, err := NewService(ps).Create(context.Background(), domain.PetInput{Name: "Bantay", Species: "dog"})

	require.NoError(t, err)
	assert.Equal(t, domain.PetAvailable, p.Status)
	assert.NotEmpty(t, p.PetID)
	assert.Nil(t, p.AdoptedBy)
	ps.AssertExpectations(t)
}

func TestList_FiltersAndSorts(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ps := &mockPetStore{}
	ps.On("List", mock.Anything).Return([]domain.Pet{
		{PetID: "old", Status: domain.PetAvailable, CreatedAt: t0},
		{PetID: "adopted", Status: domain.PetAdopted, CreatedAt: t0.Add(time.Hour)},
		{PetID: "new", Status: domain.PetAvailable, CreatedAt: t0.Add(2 * time.Hour)},
	}, nil)
	svc := NewService(ps)

	available := domain.PetAvailable
	list, err := svc.List(context.Background(), &available)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "new", list[0].PetID)
	assert.Equal(t, "old", list[1].PetID)

	all, err := svc.List(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestUpdate_DoesNotTouchStatus(t *testing.T) {
	ps := &mockPetStore{}
	ps.On("Update", mock.Anything, "p1", mock.MatchedBy(func(u map[string]interface{}) bool {
		_, hasStatus := u["status"]
		_, hasImage := u[fieldImageURL]
		return !hasStatus && !hasImage && u[fieldName] == "Bantay"
	})).Return(nil)
	ps.On("Get", mock.Anything, "p1").Return(&domain.Pet{PetID: "p1", Name: "Bantay"}, nil)

	p, err := NewService(ps).Update(context.Background(), "p1", domain.PetInput{Name: "Bantay", Species: "dog"})

	require.NoError(t, err)
	assert.Equal(t, "Bantay", p.Name)
	ps.AssertExpectations(t)
}

func TestUpdate_NotFound(t *testing.T) {
	ps := &mockPetStore{}
	ps.On("Update", mock.Anything, "p1", mock.Anything).Return(&domain.NotFoundError{Entity: "pet", ID: "p1"})

	_, err := NewService(ps).Update(context.Background(), "p1", domain.PetInput{Name: "x", Species: "cat"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
