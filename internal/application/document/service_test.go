package document

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/taara-api/internal/domain"
)

// --- mocks ---

type mockBlobs struct {
	mock.Mock
	body string
}

func (m *mockBlobs) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	b, _ := io.ReadAll(r)
	m.body = string(b)
	args := m.Called(ctx, key, size, contentType)
	return args.String(0), args.Error(1)
}
func (m *mockBlobs) PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	args := m.Called(ctx, key, ttl)
	return args.String(0), args.Error(1)
}
func (m *mockBlobs) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

type mockDocs struct{ mock.Mock }

func (m *mockDocs) Put(ctx context.Context, d *domain.Document) error {
	return m.Called(ctx, d).Error(0)
}
func (m *mockDocs) Get(ctx context.Context, documentID string) (*domain.Document, error) {
	args := m.Called(ctx, documentID)
	if d, _ := args.Get(0).(*domain.Document); d != nil {
		return d, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockDocs) ListByUploader(ctx context.Context, userID string) ([]domain.Document, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.Document), args.Error(1)
}
func (m *mockDocs) SoftDelete(ctx context.Context, documentID string) error {
	return m.Called(ctx, documentID).Error(0)
}

func newService(b *mockBlobs, d *mockDocs) Service {
	return NewService(ServiceDeps{Blobs: b, DocumentRepo: d, URLTTL: time.Minute})
}

// --- Upload ---

func TestUpload_StoresHashAndKey(t *testing.T) {
	blobs := &mockBlobs{}
	blobs.On("Put", mock.Anything, mock.MatchedBy(func(k string) bool {
		return strings.HasPrefix(k, "documents/u1/") && strings.HasSuffix(k, ".pdf")
	}), int64(5), "application/pdf").Return("s3://b/k", nil)
	docs := &mockDocs{}
	docs.On("Put", mock.Anything, mock.AnythingOfType("*domain.Document")).Return(nil)

	d, err := newService(blobs, docs).Upload(context.Background(), UploadInput{
		Reader: strings.NewReader("hello"), Filename: "../../my id.PDF", Size: 5, UploaderID: "u1",
	})

	require.NoError(t, err)
	sum := sha256.Sum256([]byte("hello"))
	assert.Equal(t, hex.EncodeToString(sum[:]), d.Hash)
	assert.Equal(t, "my_id.PDF", d.Name)
	assert.Equal(t, "hello", blobs.body)
	assert.True(t, d.Enable)
	blobs.AssertExpectations(t)
	docs.AssertExpectations(t)
}

func TestUpload_RemovesObjectWhenRowFails(t *testing.T) {
	blobs := &mockBlobs{}
	blobs.On("Put", mock.Anything, mock.Anything, int64(1), "image/png").Return("s3://b/k", nil)
	blobs.On("Delete", mock.Anything, mock.MatchedBy(func(k string) bool { return strings.HasPrefix(k, "documents/u1/") })).Return(nil)
	docs := &mockDocs{}
	docs.On("Put", mock.Anything, mock.Anything).Return(assert.AnError)

	_, err := newService(blobs, docs).Upload(context.Background(), UploadInput{
		Reader: strings.NewReader("x"), Filename: "id.png", Size: 1, UploaderID: "u1",
	})

	assert.ErrorIs(t, err, assert.AnError)
	blobs.AssertExpectations(t)
}

func TestUpload_RejectsUnsupportedType(t *testing.T) {
	_, err := newService(&mockBlobs{}, &mockDocs{}).Upload(context.Background(), UploadInput{
		Reader: strings.NewReader("x"), Filename: "run.exe", Size: 1, UploaderID: "u1",
	})
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

// --- Get / Delete ---

func TestGet_OwnerGetsURL(t *testing.T) {
	docs := &mockDocs{}
	docs.On("Get", mock.Anything, "d1").Return(&domain.Document{DocumentID: "d1", Object: "documents/u1/d1.png", UploadedByUserID: "u1"}, nil)
	blobs := &mockBlobs{}
	blobs.On("PresignedURL", mock.Anything, "documents/u1/d1.png", time.Minute).Return("https://signed", nil)

	_, url, err := newService(blobs, docs).Get(context.Background(), "d1", domain.Actor{UserID: "u1", Role: domain.RoleUser})

	require.NoError(t, err)
	assert.Equal(t, "https://signed", url)
}

func TestGet_OtherUserSeesNotFound(t *testing.T) {
	docs := &mockDocs{}
	docs.On("Get", mock.Anything, "d1").Return(&domain.Document{DocumentID: "d1", UploadedByUserID: "u1"}, nil)

	_, _, err := newService(&mockBlobs{}, docs).Get(context.Background(), "d1", domain.Actor{UserID: "u2", Role: domain.RoleUser})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDelete_AdminSoftDeletes(t *testing.T) {
	docs := &mockDocs{}
	docs.On("Get", mock.Anything, "d1").Return(&domain.Document{DocumentID: "d1", UploadedByUserID: "u1"}, nil)
	docs.On("SoftDelete", mock.Anything, "d1").Return(nil)
	blobs := &mockBlobs{}

	err := newService(blobs, docs).Delete(context.Background(), "d1", domain.Actor{UserID: "admin", Role: domain.RoleAdmin})

	require.NoError(t, err)
	docs.AssertExpectations(t)
	blobs.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"id.png":             "id.png",
		"../../etc/passwd":   "passwd",
		`C:\Users\me\id.jpg`: "id.jpg",
		"ñame.pdf":           "_ame.pdf",
		"..":                 "_",
		"":                   "_",
	}
	for in, want := range cases {
		assert.Equal(t, want, sanitizeFilename(in), in)
	}
}
